// Package venv models the isolated environment directory produced by the
// provisioner: CPython's venv layout, addressed by conventional path.
package venv

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Env is an isolated environment rooted at Dir. The directory is fully
// disposable; the provisioner recreates it wholesale.
type Env struct {
	Dir string
}

func At(dir string) Env {
	return Env{Dir: dir}
}

// BinDir returns the scripts directory inside the environment.
func (e Env) BinDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(e.Dir, "Scripts")
	}
	return filepath.Join(e.Dir, "bin")
}

// Python returns the environment's interpreter path.
func (e Env) Python() string {
	name := "python"
	if runtime.GOOS == "windows" {
		name = "python.exe"
	}
	return filepath.Join(e.BinDir(), name)
}

// Exists reports whether a provisioned environment is present: the
// interpreter is the capability the launcher looks up.
func (e Env) Exists() bool {
	info, err := os.Stat(e.Python())
	return err == nil && !info.IsDir()
}

// Activate returns a copy of environ with the environment activated:
// VIRTUAL_ENV set, the bin dir first on PATH, PYTHONHOME removed. This is
// what `source bin/activate` does for a shell, applied to a child environ.
func (e Env) Activate(environ []string) []string {
	out := make([]string, 0, len(environ)+2)

	sawPath := false
	for _, entry := range environ {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			out = append(out, entry)
			continue
		}
		switch name {
		case "PYTHONHOME", "VIRTUAL_ENV":
			// dropped; VIRTUAL_ENV is re-set below
		case "PATH":
			sawPath = true
			out = append(out, "PATH="+e.BinDir()+string(os.PathListSeparator)+value)
		default:
			out = append(out, entry)
		}
	}
	if !sawPath {
		out = append(out, "PATH="+e.BinDir())
	}
	out = append(out, "VIRTUAL_ENV="+e.Dir)
	return out
}
