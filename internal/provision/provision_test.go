package provision

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/littlelife/lifectl/internal/testutil/testlog"
	"github.com/littlelife/lifectl/internal/venv"
)

type fakeRunner struct {
	calls   []string
	failOn  string
	failErr error
}

func (r *fakeRunner) Run(cmd string, args ...string) (string, error) {
	return "", r.record(cmd, args)
}

func (r *fakeRunner) RunStreaming(cmd string, args []string, stdout, stderr io.Writer) error {
	return r.record(cmd, args)
}

func (r *fakeRunner) record(cmd string, args []string) error {
	entry := strings.TrimSpace(cmd + " " + strings.Join(args, " "))
	r.calls = append(r.calls, entry)
	if r.failOn != "" && strings.Contains(entry, r.failOn) {
		if r.failErr != nil {
			return r.failErr
		}
		return fmt.Errorf("forced failure on %q", entry)
	}
	return nil
}

func testConfig(t *testing.T, withManifest bool) Config {
	t.Helper()
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Interpreter = "python3.11"
	cfg.EnvDir = filepath.Join(dir, ".venv")
	cfg.ManifestPath = filepath.Join(dir, "requirements.txt")

	if withManifest {
		err := os.WriteFile(cfg.ManifestPath, []byte("requests==2.31.0\n"), 0o644)
		if err != nil {
			t.Fatalf("write manifest: %v", err)
		}
	}
	return cfg
}

func TestRunFullSequence(t *testing.T) {
	testlog.Start(t)

	cfg := testConfig(t, true)
	runner := &fakeRunner{}
	p := New(cfg, runner)
	p.SetOutput(&bytes.Buffer{}, &bytes.Buffer{})

	if err := p.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	python := venv.At(cfg.EnvDir).Python()
	want := []string{
		"rm -rf " + cfg.EnvDir,
		"python3.11 -m venv " + cfg.EnvDir,
		python + " -m pip install --upgrade pip setuptools wheel",
		python + " -m pip install -r " + cfg.ManifestPath,
	}
	if len(runner.calls) != len(want) {
		t.Fatalf("unexpected call sequence: %v", runner.calls)
	}
	for i, call := range want {
		if runner.calls[i] != call {
			t.Fatalf("call[%d] = %q, want %q", i, runner.calls[i], call)
		}
	}
}

func TestRunMissingManifestIsSoft(t *testing.T) {
	testlog.Start(t)

	cfg := testConfig(t, false)
	runner := &fakeRunner{}
	p := New(cfg, runner)
	p.SetOutput(&bytes.Buffer{}, &bytes.Buffer{})

	if err := p.Run(); err != nil {
		t.Fatalf("missing manifest must not fail the run: %v", err)
	}
	for _, call := range runner.calls {
		if strings.Contains(call, "install -r") {
			t.Fatalf("no install step expected: %v", runner.calls)
		}
	}
	if len(runner.calls) != 3 {
		t.Fatalf("unexpected call sequence: %v", runner.calls)
	}
}

func TestRunAbortsOnFirstError(t *testing.T) {
	testlog.Start(t)

	cfg := testConfig(t, true)
	runner := &fakeRunner{failOn: "-m venv"}
	p := New(cfg, runner)
	p.SetOutput(&bytes.Buffer{}, &bytes.Buffer{})

	err := p.Run()
	if err == nil {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(err.Error(), "create environment") {
		t.Fatalf("unexpected error: %v", err)
	}
	// Nothing after the failing step ran.
	if len(runner.calls) != 2 {
		t.Fatalf("sequence must abort on first error: %v", runner.calls)
	}
}

func TestRunKeepExistingSkipsDestroy(t *testing.T) {
	testlog.Start(t)

	cfg := testConfig(t, true)
	cfg.KeepExisting = true

	// Fake a provisioned environment.
	env := venv.At(cfg.EnvDir)
	if err := os.MkdirAll(filepath.Dir(env.Python()), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(env.Python(), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}

	runner := &fakeRunner{}
	p := New(cfg, runner)
	p.SetOutput(&bytes.Buffer{}, &bytes.Buffer{})

	if err := p.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, call := range runner.calls {
		if strings.HasPrefix(call, "rm ") || strings.Contains(call, "-m venv") {
			t.Fatalf("keep mode must not destroy or recreate: %v", runner.calls)
		}
	}
	if len(runner.calls) != 2 {
		t.Fatalf("unexpected call sequence: %v", runner.calls)
	}
}
