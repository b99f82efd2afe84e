// Package storage defines the file-system abstraction used for image
// directories and generated site output.
package storage

import "github.com/starford/albumdex/internal/models"

// Provider is the interface for rooted file operations.
type Provider interface {
	// Root returns the absolute root directory.
	Root() string
	// List returns every file under dir (relative to root) whose extension
	// is in exts, compared case-insensitively. Results are sorted by path.
	List(dir string, exts []string) ([]models.ImageFile, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to root).
	Delete(path string) error
}
