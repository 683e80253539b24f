package tools

import (
	"errors"
	"io"
	"os/exec"
)

// Runner abstracts command execution so provisioning steps can target the
// local host or a remote capture host through one interface.
type Runner interface {
	Run(cmd string, args ...string) (string, error)
	RunStreaming(cmd string, args []string, stdout, stderr io.Writer) error
}

// LocalRunner executes commands on the local host.
type LocalRunner struct{}

func (LocalRunner) Run(cmd string, args ...string) (string, error) {
	out, err := exec.Command(cmd, args...).CombinedOutput()
	return string(out), err
}

func (LocalRunner) RunStreaming(cmd string, args []string, stdout, stderr io.Writer) error {
	command := exec.Command(cmd, args...)
	if stdout != nil {
		command.Stdout = stdout
	}
	if stderr != nil {
		command.Stderr = stderr
	}
	return command.Run()
}

// ExitCode maps a runner error to the child's exit status. Command-not-found
// maps to 127, matching the shell convention.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return 127
	}
	return 1
}
