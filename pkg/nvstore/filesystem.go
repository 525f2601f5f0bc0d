package nvstore

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// FileSystemInterface defines the filesystem operations FileStorage needs, to enable mocking
type FileSystemInterface interface {
	ReadFile(filename string) ([]byte, error)
	WriteFile(filename string, data []byte, perm os.FileMode) error
}

// RealFileSystem implements FileSystemInterface using real OS operations
type RealFileSystem struct{}

// ReadFile reads the data from the file specified by the filename
func (fs *RealFileSystem) ReadFile(filename string) ([]byte, error) {
	return os.ReadFile(filename) //nolint:gosec // path comes from operator config
}

// WriteFile replaces filename with data atomically: readers see either the
// old or the new image, never a partial one.
func (fs *RealFileSystem) WriteFile(filename string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}
	if err := atomic.WriteFile(filename, bytes.NewReader(data)); err != nil {
		return err
	}
	// atomic.WriteFile doesn't set permissions for new files
	return os.Chmod(filename, perm)
}

// Default filesystem implementation
var filesystem FileSystemInterface = &RealFileSystem{}
