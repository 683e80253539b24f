package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// Device is one discovered video capture node. Discovery stops at the
// device node; frame acquisition belongs to the entry point.
type Device struct {
	Path     string
	Readable bool
}

var videoNodePattern = regexp.MustCompile(`^/dev/video\d+$`)

// ScanDevices lists V4L2-style capture nodes, sorted by device number.
func ScanDevices() ([]Device, error) {
	if runtime.GOOS != "linux" {
		return nil, fmt.Errorf("device scan not supported on %s", runtime.GOOS)
	}

	matches, err := filepath.Glob("/dev/video*")
	if err != nil {
		return nil, fmt.Errorf("scan video devices: %w", err)
	}

	var paths []string
	for _, match := range matches {
		if videoNodePattern.MatchString(match) {
			paths = append(paths, match)
		}
	}
	sort.Slice(paths, func(i, j int) bool {
		return deviceNumber(paths[i]) < deviceNumber(paths[j])
	})

	devices := make([]Device, 0, len(paths))
	for _, path := range paths {
		devices = append(devices, Device{Path: path, Readable: readable(path)})
	}
	return devices, nil
}

func deviceNumber(path string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(path, "/dev/video"))
	if err != nil {
		return -1
	}
	return n
}

func readable(path string) bool {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
