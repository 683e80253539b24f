package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/littlelife/lifectl/internal/tools"
)

const envPythonBin = "PYTHON_BIN"

// toolConfig is the resolved lifectl configuration. EnvDir, Manifest and
// EnvFile stay relative to ProjectRoot; ProjectRoot itself is resolved
// against the config file's directory so the tool behaves the same from
// any caller location.
type toolConfig struct {
	ProjectRoot string
	EnvDir      string
	Manifest    string
	EnvFile     string
	Interpreter string
	EntryModule string
	SearchRoots []string
	Remote      remoteConfig
}

// remoteConfig selects SSH-backed provisioning of a remote capture host.
// The project tree is expected at the same relative layout on the host.
type remoteConfig struct {
	Enabled         bool
	Host            string
	Port            string
	User            string
	KeyPath         string
	KnownHosts      string
	InsecureHostKey bool
	Timeout         time.Duration
}

func defaultToolConfig() toolConfig {
	return toolConfig{
		ProjectRoot: ".",
		EnvDir:      ".venv",
		Manifest:    "requirements.txt",
		EnvFile:     ".env",
		Interpreter: "python3",
		EntryModule: "littlelife.app",
		SearchRoots: []string{"src"},
		Remote:      remoteConfig{Timeout: 10 * time.Second},
	}
}

// lifectl.toml key mapping.
type fileConfig struct {
	ProjectRoot string           `toml:"project_root"`
	EnvDir      string           `toml:"env_dir"`
	Manifest    string           `toml:"manifest"`
	EnvFile     string           `toml:"env_file"`
	Interpreter string           `toml:"interpreter"`
	EntryModule string           `toml:"entry_module"`
	SearchRoots []string         `toml:"search_roots"`
	Remote      remoteFileConfig `toml:"remote"`
}

type remoteFileConfig struct {
	Enabled         bool   `toml:"enabled"`
	Host            string `toml:"host"`
	Port            string `toml:"port"`
	User            string `toml:"user"`
	KeyPath         string `toml:"key_path"`
	KnownHosts      string `toml:"known_hosts"`
	InsecureHostKey bool   `toml:"insecure_host_key"`
	Timeout         string `toml:"timeout"`
}

// loadToolConfig resolves defaults, the optional TOML file, and the
// PYTHON_BIN override, in that precedence order.
func loadToolConfig(path string) (toolConfig, error) {
	cfg := defaultToolConfig()

	if path != "" {
		var raw fileConfig
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return toolConfig{}, fmt.Errorf("load lifectl config: %w", err)
		}

		if meta.IsDefined("project_root") {
			cfg.ProjectRoot = strings.TrimSpace(raw.ProjectRoot)
		}
		if meta.IsDefined("env_dir") {
			cfg.EnvDir = strings.TrimSpace(raw.EnvDir)
		}
		if meta.IsDefined("manifest") {
			cfg.Manifest = strings.TrimSpace(raw.Manifest)
		}
		if meta.IsDefined("env_file") {
			cfg.EnvFile = strings.TrimSpace(raw.EnvFile)
		}
		if meta.IsDefined("interpreter") {
			cfg.Interpreter = strings.TrimSpace(raw.Interpreter)
		}
		if meta.IsDefined("entry_module") {
			cfg.EntryModule = strings.TrimSpace(raw.EntryModule)
		}
		if meta.IsDefined("search_roots") {
			cfg.SearchRoots = raw.SearchRoots
		}
		if meta.IsDefined("remote", "enabled") {
			cfg.Remote.Enabled = raw.Remote.Enabled
		}
		if meta.IsDefined("remote", "host") {
			cfg.Remote.Host = strings.TrimSpace(raw.Remote.Host)
		}
		if meta.IsDefined("remote", "port") {
			cfg.Remote.Port = strings.TrimSpace(raw.Remote.Port)
		}
		if meta.IsDefined("remote", "user") {
			cfg.Remote.User = strings.TrimSpace(raw.Remote.User)
		}
		if meta.IsDefined("remote", "key_path") {
			cfg.Remote.KeyPath = strings.TrimSpace(raw.Remote.KeyPath)
		}
		if meta.IsDefined("remote", "known_hosts") {
			cfg.Remote.KnownHosts = strings.TrimSpace(raw.Remote.KnownHosts)
		}
		if meta.IsDefined("remote", "insecure_host_key") {
			cfg.Remote.InsecureHostKey = raw.Remote.InsecureHostKey
		}
		if meta.IsDefined("remote", "timeout") {
			d, err := time.ParseDuration(strings.TrimSpace(raw.Remote.Timeout))
			if err != nil {
				return toolConfig{}, fmt.Errorf("parse remote timeout: %w", err)
			}
			cfg.Remote.Timeout = d
		}

		if !filepath.IsAbs(cfg.ProjectRoot) {
			cfg.ProjectRoot = filepath.Join(filepath.Dir(path), cfg.ProjectRoot)
		}
	}

	if bin := strings.TrimSpace(os.Getenv(envPythonBin)); bin != "" {
		cfg.Interpreter = bin
	}

	if err := validateToolConfig(cfg); err != nil {
		return toolConfig{}, err
	}
	return cfg, nil
}

func validateToolConfig(cfg toolConfig) error {
	if cfg.EnvDir == "" {
		return fmt.Errorf("lifectl config: env_dir is required")
	}
	if cfg.Interpreter == "" {
		return fmt.Errorf("lifectl config: interpreter is required")
	}
	if cfg.EntryModule == "" {
		return fmt.Errorf("lifectl config: entry_module is required")
	}
	if cfg.Remote.Enabled {
		if cfg.Remote.Host == "" {
			return fmt.Errorf("lifectl config: remote.host is required when remote is enabled")
		}
		if cfg.Remote.User == "" {
			return fmt.Errorf("lifectl config: remote.user is required when remote is enabled")
		}
		if cfg.Remote.KeyPath == "" {
			return fmt.Errorf("lifectl config: remote.key_path is required when remote is enabled")
		}
	}
	return nil
}

// runner returns the command runner provisioning should use.
func (cfg toolConfig) runner() tools.Runner {
	if !cfg.Remote.Enabled {
		return tools.LocalRunner{}
	}
	return tools.SSHRunner{
		Host:            cfg.Remote.Host,
		Port:            cfg.Remote.Port,
		User:            cfg.Remote.User,
		KeyPath:         cfg.Remote.KeyPath,
		KnownHostsPath:  cfg.Remote.KnownHosts,
		InsecureHostKey: cfg.Remote.InsecureHostKey,
		Timeout:         cfg.Remote.Timeout,
	}
}

// resolve joins a project-relative path onto the project root.
func (cfg toolConfig) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cfg.ProjectRoot, path)
}
