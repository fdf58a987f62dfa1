// Package storage abstracts the directory trees quire reads posts from and
// writes the generated site to.
package storage

import (
	"io"
	"time"

	"github.com/starford/quire/internal/models"
)

// Provider is the interface for file operations under one root directory.
// All paths are relative to the root and use forward slashes.
type Provider interface {
	// Root returns the absolute root directory.
	Root() string
	// List returns metadata for every file under dir carrying the provider's extension.
	List(dir string) ([]models.SourceMeta, error)
	// Open returns a reader over the file at path and its modification time.
	// A time before the epoch is reported as zero.
	Open(path string) (io.ReadCloser, time.Time, error)
	// Exists reports whether a regular file exists at path.
	Exists(path string) bool
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
