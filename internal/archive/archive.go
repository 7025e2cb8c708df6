// Package archive persists raw device configuration text.
package archive

//go:generate mockgen -destination=mock_archiver.go -package=archive fleetpoll/internal/archive Archiver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fleetpoll/internal/domain"
)

// FileExtension is appended to every archived configuration
const FileExtension = ".ios"

// Archiver stores one configuration snapshot per call
type Archiver interface {
	// Store persists content for hostname. Failures wrap domain.ErrWrite.
	Store(hostname, timestamp, content string) error
}

// Dir archives snapshots under Root as <hostname>/<hostname>_<timestamp>.ios
type Dir struct {
	Root string
}

// NewDir creates a directory archiver rooted at root
func NewDir(root string) *Dir {
	return &Dir{Root: root}
}

// Store implements Archiver
func (d *Dir) Store(hostname, timestamp, content string) error {
	if err := validName(hostname); err != nil {
		return fmt.Errorf("store %q: %v: %w", hostname, err, domain.ErrWrite)
	}

	dir := filepath.Join(d.Root, hostname)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %v: %w", dir, err, domain.ErrWrite)
	}

	path := d.Path(hostname, timestamp)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %v: %w", path, err, domain.ErrWrite)
	}
	return nil
}

// Path returns where a snapshot for hostname at timestamp is written
func (d *Dir) Path(hostname, timestamp string) string {
	return filepath.Join(d.Root, hostname, hostname+"_"+timestamp+FileExtension)
}

// validName rejects hostnames that would escape the archive root
func validName(hostname string) error {
	switch {
	case hostname == "":
		return fmt.Errorf("empty hostname")
	case hostname == "." || hostname == "..":
		return fmt.Errorf("reserved name")
	case strings.ContainsAny(hostname, `/\`):
		return fmt.Errorf("path separator in hostname")
	}
	return nil
}
