package storage

import "context"

// Storage abstracts whole-file archive I/O. The patch pipeline touches the
// filesystem only through this boundary, never mid-algorithm.
type Storage interface {
	// ReadFile reads one whole file into memory.
	ReadFile(ctx context.Context, path string) ([]byte, error)
	// WriteFile writes data as one whole file, creating parent directories
	// as needed.
	WriteFile(ctx context.Context, path string, data []byte) error
	// ListDir returns the names of the plain files in dir.
	ListDir(ctx context.Context, dir string) ([]string, error)
}
