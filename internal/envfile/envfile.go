// Package envfile parses flat KEY=VALUE configuration files and projects
// them onto a process environment.
package envfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record is the configuration record parsed from one file: an ordered
// key/value mapping. Keys are unique; when a key repeats, the last
// occurrence wins. Values are kept verbatim, surrounding quotes included.
type Record struct {
	keys      []string
	values    map[string]string
	malformed []string
}

// Parse reads KEY=VALUE lines from r. Lines starting with # and blank
// lines carry no assignment. Lines without a separator, or with an empty
// key, are collected as malformed and otherwise skipped; they never fail
// the parse.
func Parse(r io.Reader) (*Record, error) {
	rec := &Record{values: make(map[string]string)}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(key) == "" {
			rec.malformed = append(rec.malformed, fmt.Sprintf("line %d: %s", lineNo, line))
			continue
		}
		rec.set(strings.TrimSpace(key), value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return rec, nil
}

// Load parses the file at path. A missing file surfaces as the underlying
// fs.ErrNotExist so callers can treat absence as a soft condition.
func Load(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rec, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("env file %s: %w", path, err)
	}
	return rec, nil
}

func (r *Record) set(key, value string) {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Len returns the number of distinct keys.
func (r *Record) Len() int {
	return len(r.keys)
}

// Keys returns the keys in first-appearance order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Get returns the value for key.
func (r *Record) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Malformed returns the skipped lines, annotated with their line numbers.
func (r *Record) Malformed() []string {
	out := make([]string, len(r.malformed))
	copy(out, r.malformed)
	return out
}

// Overlay projects the record onto environ: existing keys are replaced,
// new keys are appended in record order. The input slice is not modified.
func (r *Record) Overlay(environ []string) []string {
	out := make([]string, 0, len(environ)+len(r.keys))
	seen := make(map[string]bool, len(r.keys))

	for _, entry := range environ {
		name, _, ok := strings.Cut(entry, "=")
		if ok {
			if value, declared := r.values[name]; declared {
				out = append(out, name+"="+value)
				seen[name] = true
				continue
			}
		}
		out = append(out, entry)
	}

	for _, key := range r.keys {
		if !seen[key] {
			out = append(out, key+"="+r.values[key])
		}
	}
	return out
}
