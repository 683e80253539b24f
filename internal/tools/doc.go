// Package tools provides command execution helpers shared by the
// provisioner and the doctor.
//
// Ownership boundary:
// - local and remote command runners
//
// - child exit status extraction
package tools
