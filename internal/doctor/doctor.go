// Package doctor runs preflight checks over a project: interpreter,
// isolated environment, manifest, env file, application record, camera
// devices. Checks are advisory except for hard failures.
package doctor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/littlelife/lifectl/internal/appenv"
	"github.com/littlelife/lifectl/internal/envfile"
	"github.com/littlelife/lifectl/internal/manifest"
	"github.com/littlelife/lifectl/internal/venv"
)

type Status int

const (
	Pass Status = iota
	Warn
	Fail
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "pass"
	case Warn:
		return "warn"
	default:
		return "fail"
	}
}

// Result is one check outcome.
type Result struct {
	Name   string
	Status Status
	Detail string
}

// Check is a named probe. Checks never mutate the project.
type Check struct {
	Name string
	Run  func() (Status, string)
}

// Doctor stores checks in registration order.
type Doctor struct {
	checks []Check
}

func (d *Doctor) Register(c Check) {
	d.checks = append(d.checks, c)
}

// Run executes every check and returns the results in order. Unlike the
// provisioner and launcher, the doctor never aborts early: a full report
// is the point.
func (d *Doctor) Run() []Result {
	results := make([]Result, 0, len(d.checks))
	for _, check := range d.checks {
		status, detail := check.Run()
		results = append(results, Result{Name: check.Name, Status: status, Detail: detail})
	}
	return results
}

// Failed reports whether any check failed hard. Warnings do not fail a
// doctor run.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Status == Fail {
			return true
		}
	}
	return false
}

// Config holds the project paths the standard checks inspect.
type Config struct {
	Interpreter  string
	ProjectRoot  string
	EnvDir       string
	ManifestPath string
	EnvFile      string
}

// New builds a Doctor with the standard check set.
func New(cfg Config) *Doctor {
	d := &Doctor{}
	d.Register(Check{Name: "interpreter", Run: func() (Status, string) {
		return checkInterpreter(cfg.Interpreter)
	}})
	d.Register(Check{Name: "environment", Run: func() (Status, string) {
		return checkEnvironment(filepath.Join(cfg.ProjectRoot, cfg.EnvDir))
	}})
	d.Register(Check{Name: "manifest", Run: func() (Status, string) {
		return checkManifest(filepath.Join(cfg.ProjectRoot, cfg.ManifestPath))
	}})
	d.Register(Check{Name: "env-file", Run: func() (Status, string) {
		return checkEnvFile(filepath.Join(cfg.ProjectRoot, cfg.EnvFile))
	}})
	d.Register(Check{Name: "app-record", Run: func() (Status, string) {
		return checkAppRecord(filepath.Join(cfg.ProjectRoot, cfg.EnvFile))
	}})
	d.Register(Check{Name: "camera-devices", Run: checkCameraDevices})
	return d
}

func checkInterpreter(interpreter string) (Status, string) {
	path, err := exec.LookPath(interpreter)
	if err != nil {
		return Fail, fmt.Sprintf("%s not found on PATH", interpreter)
	}
	return Pass, path
}

func checkEnvironment(dir string) (Status, string) {
	env := venv.At(dir)
	if !env.Exists() {
		return Fail, fmt.Sprintf("no environment at %s (run `lifectl provision`)", dir)
	}
	return Pass, env.Python()
}

func checkManifest(path string) (Status, string) {
	m, err := manifest.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Warn, fmt.Sprintf("%s absent: provisioning installs no dependencies", path)
	}
	if err != nil {
		return Fail, err.Error()
	}
	return Pass, fmt.Sprintf("%d requirements", m.Count())
}

func checkEnvFile(path string) (Status, string) {
	rec, err := envfile.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Warn, fmt.Sprintf("%s absent: entry point inherits the caller environment", path)
	}
	if err != nil {
		return Fail, err.Error()
	}
	if malformed := rec.Malformed(); len(malformed) > 0 {
		return Warn, fmt.Sprintf("%d malformed lines skipped (%s)", len(malformed), malformed[0])
	}
	return Pass, fmt.Sprintf("%d keys", rec.Len())
}

func checkAppRecord(envPath string) (Status, string) {
	environ := os.Environ()
	rec, err := envfile.Load(envPath)
	if err == nil {
		environ = rec.Overlay(environ)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Fail, err.Error()
	}

	cfg, err := appenv.Decode(appenv.EnvironLookup(environ))
	if err != nil {
		return Fail, err.Error()
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return Warn, "identify disabled: " + err.Error()
	}

	selector := fmt.Sprintf("index %d", cfg.CameraIndex)
	if cfg.CameraDevice != "" {
		selector = cfg.CameraDevice
	}
	if !cfg.CameraEnabled {
		selector = "disabled"
	}
	return Pass, fmt.Sprintf("camera %s %dx%d, model %s", selector, cfg.CameraWidth, cfg.CameraHeight, cfg.OpenAIModel)
}

func checkCameraDevices() (Status, string) {
	devices, err := ScanDevices()
	if err != nil {
		return Warn, err.Error()
	}
	if len(devices) == 0 {
		return Warn, "no video devices found"
	}

	readable := 0
	names := make([]string, 0, len(devices))
	for _, d := range devices {
		names = append(names, d.Path)
		if d.Readable {
			readable++
		}
	}
	status := Pass
	if readable == 0 {
		status = Warn
	}
	return status, fmt.Sprintf("%d devices (%d readable): %v", len(devices), readable, names)
}
