// Package manifest reads the dependency manifest consumed by the
// provisioner: one requirement specifier per line, in file order.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Manifest is the ordered list of requirement specifiers.
type Manifest struct {
	Path         string
	Requirements []string
}

// Parse reads specifiers from r. Comment lines (#) and blank lines carry
// no requirement. Specifiers are kept verbatim; pip owns their grammar.
func Parse(r io.Reader) ([]string, error) {
	var requirements []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		requirements = append(requirements, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return requirements, nil
}

// Load parses the manifest at path. A missing file surfaces as the
// underlying fs.ErrNotExist; the provisioner treats absence as a warning,
// not a failure.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	requirements, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &Manifest{Path: path, Requirements: requirements}, nil
}

// Count returns the number of declared requirements.
func (m *Manifest) Count() int {
	return len(m.Requirements)
}
