// Package launch starts the application entry point: working directory
// normalized to the project root, isolated environment activated, the
// env-file record projected into the child environment, exit status
// propagated unchanged.
package launch

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/littlelife/lifectl/internal/envfile"
	"github.com/littlelife/lifectl/internal/venv"
)

// Config holds the launch inputs. EnvDir and EnvFile are resolved against
// ProjectRoot so the launcher behaves the same from any caller directory.
type Config struct {
	ProjectRoot string
	EnvDir      string
	EnvFile     string
	EntryModule string
	SearchRoots []string
}

func DefaultConfig() Config {
	return Config{
		ProjectRoot: ".",
		EnvDir:      ".venv",
		EnvFile:     ".env",
		EntryModule: "littlelife.app",
		SearchRoots: []string{"src"},
	}
}

// ExitError carries the entry point's own exit status to main, which must
// mirror it without translation.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("entry point exited with status %d", e.Code)
}

// Launcher is a terminal, fire-and-forget action: Run returns only after
// the entry point has exited.
type Launcher struct {
	cfg    Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func New(cfg Config) *Launcher {
	return &Launcher{
		cfg:    cfg,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// SetStdio redirects the entry point's stdio, primarily for tests.
func (l *Launcher) SetStdio(stdin io.Reader, stdout, stderr io.Writer) {
	l.stdin = stdin
	l.stdout = stdout
	l.stderr = stderr
}

// Run performs the launch sequence and blocks until the entry point exits.
func (l *Launcher) Run() error {
	root, err := filepath.Abs(l.cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("resolve project root: %w", err)
	}

	env := venv.At(filepath.Join(root, l.cfg.EnvDir))
	if !env.Exists() {
		return fmt.Errorf("no environment at %s: run `lifectl provision` first", env.Dir)
	}

	environ, err := l.buildEnviron(root, env, os.Environ())
	if err != nil {
		return err
	}

	log.Info().Str("module", l.cfg.EntryModule).Str("root", root).Msg("launch: starting entry point")

	cmd := exec.Command(env.Python(), "-m", l.cfg.EntryModule)
	cmd.Dir = root
	cmd.Env = environ
	cmd.Stdin = l.stdin
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr

	err = cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("start entry point: %w", err)
}

// buildEnviron assembles the child environment: venv activation, env-file
// overlay, module search roots prepended to PYTHONPATH.
func (l *Launcher) buildEnviron(root string, env venv.Env, base []string) ([]string, error) {
	environ := env.Activate(base)

	envPath := filepath.Join(root, l.cfg.EnvFile)
	rec, err := envfile.Load(envPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Debug().Str("path", envPath).Msg("launch: no env file, continuing")
	case err != nil:
		return nil, err
	default:
		for _, line := range rec.Malformed() {
			log.Warn().Str("path", envPath).Str("entry", line).
				Msg("launch: skipping malformed env line")
		}
		log.Info().Int("keys", rec.Len()).Str("path", envPath).
			Msg("launch: exported configuration")
		environ = rec.Overlay(environ)
	}

	return prependPythonPath(environ, l.searchRoots(root)), nil
}

func (l *Launcher) searchRoots(root string) []string {
	roots := make([]string, 0, len(l.cfg.SearchRoots))
	for _, r := range l.cfg.SearchRoots {
		if strings.TrimSpace(r) == "" {
			continue
		}
		if filepath.IsAbs(r) {
			roots = append(roots, r)
			continue
		}
		roots = append(roots, filepath.Join(root, r))
	}
	return roots
}

func prependPythonPath(environ, roots []string) []string {
	if len(roots) == 0 {
		return environ
	}
	prefix := strings.Join(roots, string(os.PathListSeparator))

	out := make([]string, 0, len(environ)+1)
	found := false
	for _, entry := range environ {
		name, value, ok := strings.Cut(entry, "=")
		if ok && name == "PYTHONPATH" {
			found = true
			if value == "" {
				out = append(out, "PYTHONPATH="+prefix)
			} else {
				out = append(out, "PYTHONPATH="+prefix+string(os.PathListSeparator)+value)
			}
			continue
		}
		out = append(out, entry)
	}
	if !found {
		out = append(out, "PYTHONPATH="+prefix)
	}
	return out
}
