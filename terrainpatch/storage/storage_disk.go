package storage

import (
	"context"
	"os"
	"path/filepath"

	tperrors "github.com/dotamods/terrain-patch/terrainpatch/errors"
)

// DiskStorage is the real filesystem implementation of Storage.
type DiskStorage struct{}

// NewDiskStorage constructs a DiskStorage.
func NewDiskStorage() *DiskStorage {
	return &DiskStorage{}
}

// ReadFile reads one whole file into memory.
func (s *DiskStorage) ReadFile(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, tperrors.ErrIO.WithDetail("path", path).WithCause(err)
	}
	return data, nil
}

// WriteFile writes data as one whole file, creating parent directories as
// needed.
func (s *DiskStorage) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return tperrors.ErrIO.WithDetail("path", path).WithCause(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return tperrors.ErrIO.WithDetail("path", path).WithCause(err)
	}
	return nil
}

// ListDir returns the names of the plain files in dir.
func (s *DiskStorage) ListDir(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, tperrors.ErrIO.WithDetail("path", dir).WithCause(err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}
