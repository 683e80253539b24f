package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadToolConfigDefaults(t *testing.T) {
	t.Setenv(envPythonBin, "")

	cfg, err := loadToolConfig("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.ProjectRoot != "." {
		t.Fatalf("project root: %q", cfg.ProjectRoot)
	}
	if cfg.EnvDir != ".venv" || cfg.Manifest != "requirements.txt" || cfg.EnvFile != ".env" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Interpreter != "python3" {
		t.Fatalf("interpreter: %q", cfg.Interpreter)
	}
	if cfg.EntryModule != "littlelife.app" {
		t.Fatalf("entry module: %q", cfg.EntryModule)
	}
	if len(cfg.SearchRoots) != 1 || cfg.SearchRoots[0] != "src" {
		t.Fatalf("search roots: %v", cfg.SearchRoots)
	}
	if cfg.Remote.Enabled {
		t.Fatalf("remote must default to disabled")
	}
}

func TestLoadToolConfigFromFixture(t *testing.T) {
	t.Setenv(envPythonBin, "")

	cfg, err := loadToolConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	if cfg.Interpreter != "python3.11" {
		t.Fatalf("interpreter: %q", cfg.Interpreter)
	}
	if cfg.Remote.Enabled {
		t.Fatalf("fixture remote must be disabled")
	}
	if cfg.Remote.Host != "microscope.lan" || cfg.Remote.User != "pi" {
		t.Fatalf("remote fields: %+v", cfg.Remote)
	}
	if cfg.Remote.Timeout != 15*time.Second {
		t.Fatalf("remote timeout: %v", cfg.Remote.Timeout)
	}
}

func TestLoadToolConfigResolvesProjectRoot(t *testing.T) {
	t.Setenv(envPythonBin, "")

	dir := t.TempDir()
	path := filepath.Join(dir, "lifectl.toml")
	if err := os.WriteFile(path, []byte("project_root = \"app\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadToolConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ProjectRoot != filepath.Join(dir, "app") {
		t.Fatalf("project root %q must resolve against the config dir", cfg.ProjectRoot)
	}
}

func TestPythonBinOverridesInterpreter(t *testing.T) {
	t.Setenv(envPythonBin, "/opt/python/bin/python3.12")

	cfg, err := loadToolConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Interpreter != "/opt/python/bin/python3.12" {
		t.Fatalf("PYTHON_BIN must win, got %q", cfg.Interpreter)
	}
}

func TestValidateRemoteConfig(t *testing.T) {
	cfg := defaultToolConfig()
	cfg.Remote.Enabled = true
	if err := validateToolConfig(cfg); err == nil {
		t.Fatalf("remote without host must be rejected")
	}

	cfg.Remote.Host = "microscope.lan"
	cfg.Remote.User = "pi"
	cfg.Remote.KeyPath = "/home/pi/.ssh/id_ed25519"
	if err := validateToolConfig(cfg); err != nil {
		t.Fatalf("valid remote config rejected: %v", err)
	}
}

func TestResolve(t *testing.T) {
	cfg := defaultToolConfig()
	cfg.ProjectRoot = "/proj"
	if got := cfg.resolve(".venv"); got != filepath.Join("/proj", ".venv") {
		t.Fatalf("resolve relative: %q", got)
	}
	if got := cfg.resolve("/abs/.venv"); got != "/abs/.venv" {
		t.Fatalf("resolve absolute: %q", got)
	}
}
