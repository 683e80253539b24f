// Package provision builds the isolated runtime environment from the
// dependency manifest. The default mode is a full replace: any prior
// environment at the same path is destroyed first.
package provision

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/littlelife/lifectl/internal/manifest"
	"github.com/littlelife/lifectl/internal/tools"
	"github.com/littlelife/lifectl/internal/venv"
)

// Config holds the provisioning inputs.
type Config struct {
	// Interpreter creates the environment. The CLI resolves it from the
	// tool config and the PYTHON_BIN override.
	Interpreter string

	// ManifestPath points at the requirements manifest. Absence is a soft
	// failure: the environment is still created, with a warning.
	ManifestPath string

	// EnvDir is the environment root, conventionally .venv.
	EnvDir string

	// KeepExisting skips the destroy step and installs into the existing
	// environment instead of recreating it.
	KeepExisting bool
}

func DefaultConfig() Config {
	return Config{
		Interpreter:  "python3",
		ManifestPath: "requirements.txt",
		EnvDir:       ".venv",
	}
}

// Provisioner drives the provisioning sequence through a Runner. Every
// step aborts the sequence on its first error; there is no partial-success
// state and no cleanup of a partially populated environment.
type Provisioner struct {
	cfg    Config
	runner tools.Runner
	stdout io.Writer
	stderr io.Writer
}

func New(cfg Config, runner tools.Runner) *Provisioner {
	if runner == nil {
		runner = tools.LocalRunner{}
	}
	return &Provisioner{
		cfg:    cfg,
		runner: runner,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// SetOutput redirects the streamed tool output, primarily for tests.
func (p *Provisioner) SetOutput(stdout, stderr io.Writer) {
	p.stdout = stdout
	p.stderr = stderr
}

// Run executes the sequence: destroy, create, upgrade tooling, install.
func (p *Provisioner) Run() error {
	env := venv.At(p.cfg.EnvDir)

	if p.cfg.KeepExisting && env.Exists() {
		log.Info().Str("dir", p.cfg.EnvDir).Msg("provision: keeping existing environment")
	} else {
		if !p.cfg.KeepExisting {
			log.Info().Str("dir", p.cfg.EnvDir).Msg("provision: removing existing environment")
			if err := p.stream("rm", "-rf", p.cfg.EnvDir); err != nil {
				return fmt.Errorf("remove environment %s: %w", p.cfg.EnvDir, err)
			}
		}

		log.Info().Str("interpreter", p.cfg.Interpreter).Str("dir", p.cfg.EnvDir).
			Msg("provision: creating isolated environment")
		if err := p.stream(p.cfg.Interpreter, "-m", "venv", p.cfg.EnvDir); err != nil {
			return fmt.Errorf("create environment with %s: %w", p.cfg.Interpreter, err)
		}
	}

	log.Info().Msg("provision: upgrading pip and build tooling")
	if err := p.stream(env.Python(), "-m", "pip", "install", "--upgrade", "pip", "setuptools", "wheel"); err != nil {
		return fmt.Errorf("upgrade packaging tooling: %w", err)
	}

	m, err := manifest.Load(p.cfg.ManifestPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("manifest", p.cfg.ManifestPath).
				Msg("provision: manifest not found, skipping dependency install")
			log.Info().Str("dir", p.cfg.EnvDir).Msg("provision: environment ready")
			return nil
		}
		return err
	}

	log.Info().Int("requirements", m.Count()).Str("manifest", m.Path).
		Msg("provision: installing dependencies")
	if err := p.stream(env.Python(), "-m", "pip", "install", "-r", m.Path); err != nil {
		return fmt.Errorf("install dependencies from %s: %w", m.Path, err)
	}

	log.Info().Str("dir", p.cfg.EnvDir).Msg("provision: environment ready")
	return nil
}

func (p *Provisioner) stream(cmd string, args ...string) error {
	return p.runner.RunStreaming(cmd, args, p.stdout, p.stderr)
}
