// Package appenv decodes the configuration record consumed by the Little
// Life entry point into an explicit value, instead of leaving it as
// ambient process state. The key set and defaults mirror what the
// application reads.
package appenv

import (
	"fmt"
	"strconv"
	"strings"
)

// Backend names the capture backend override understood by the app.
type Backend string

const (
	BackendAuto         Backend = "auto"
	BackendV4L2         Backend = "v4l2"
	BackendAVFoundation Backend = "avfoundation"
	BackendDShow        Backend = "dshow"
	BackendMSMF         Backend = "msmf"
)

// Config is the typed application record.
type Config struct {
	OpenAIAPIKey string
	OpenAIModel  string

	CameraEnabled bool
	CameraDevice  string
	CameraIndex   int
	CameraWidth   int
	CameraHeight  int
	CameraTimerMS int
	CameraBackend Backend
}

func Default() Config {
	return Config{
		OpenAIModel:   "gpt-4.1-mini",
		CameraEnabled: true,
		CameraIndex:   0,
		CameraWidth:   1280,
		CameraHeight:  720,
		CameraTimerMS: 33,
		CameraBackend: BackendAuto,
	}
}

// Lookup resolves one key, reporting whether it was declared.
type Lookup func(key string) (string, bool)

// EnvironLookup builds a Lookup over a KEY=VALUE environ slice, typically
// the one the launcher hands to the entry point.
func EnvironLookup(environ []string) Lookup {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if name, value, ok := strings.Cut(entry, "="); ok {
			values[name] = value
		}
	}
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

// Decode resolves the record against lookup, applying defaults for absent
// keys. Integer keys with unparsable values fail the decode.
func Decode(lookup Lookup) (Config, error) {
	cfg := Default()

	if v, ok := lookup("OPENAI_API_KEY"); ok {
		cfg.OpenAIAPIKey = v
	}
	if v, ok := lookup("OPENAI_MODEL"); ok && strings.TrimSpace(v) != "" {
		cfg.OpenAIModel = v
	}
	if v, ok := lookup("CAMERA_ENABLED"); ok {
		cfg.CameraEnabled = truthy(v)
	}
	if v, ok := lookup("CAMERA_DEVICE"); ok {
		cfg.CameraDevice = v
	}
	if v, ok := lookup("CAMERA_BACKEND"); ok && strings.TrimSpace(v) != "" {
		cfg.CameraBackend = Backend(strings.ToLower(strings.TrimSpace(v)))
	}

	for _, field := range []struct {
		key string
		dst *int
	}{
		{"CAMERA_INDEX", &cfg.CameraIndex},
		{"CAMERA_WIDTH", &cfg.CameraWidth},
		{"CAMERA_HEIGHT", &cfg.CameraHeight},
		{"CAMERA_TIMER_MS", &cfg.CameraTimerMS},
	} {
		v, ok := lookup(field.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("%s: invalid integer %q", field.key, v)
		}
		*field.dst = n
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// truthy mirrors the application's boolean rule: false only for an empty
// value or one of 0/false/no/off, case-insensitive.
func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

func (c Config) Validate() error {
	if c.CameraIndex < 0 {
		return fmt.Errorf("CAMERA_INDEX must not be negative, got %d", c.CameraIndex)
	}
	if c.CameraWidth <= 0 || c.CameraHeight <= 0 {
		return fmt.Errorf("camera geometry must be positive, got %dx%d", c.CameraWidth, c.CameraHeight)
	}
	if c.CameraTimerMS <= 0 {
		return fmt.Errorf("CAMERA_TIMER_MS must be positive, got %d", c.CameraTimerMS)
	}
	switch c.CameraBackend {
	case BackendAuto, BackendV4L2, BackendAVFoundation, BackendDShow, BackendMSMF:
	default:
		return fmt.Errorf("unknown CAMERA_BACKEND %q", c.CameraBackend)
	}
	return nil
}

// RequireAPIKey reports whether identify functionality is usable.
func (c Config) RequireAPIKey() error {
	if strings.TrimSpace(c.OpenAIAPIKey) == "" {
		return fmt.Errorf("OPENAI_API_KEY not set: set it in your shell or in the .env file")
	}
	return nil
}
