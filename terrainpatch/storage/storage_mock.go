package storage

import (
	"context"
	"path"
	"sort"
	"sync"

	tperrors "github.com/dotamods/terrain-patch/terrainpatch/errors"
)

// MockStorage is a simple in-memory Storage implementation for tests.
type MockStorage struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMockStorage constructs an empty MockStorage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		files: make(map[string][]byte),
	}
}

// ReadFile returns a copy of the stored file content.
func (m *MockStorage) ReadFile(ctx context.Context, p string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[p]
	if !ok {
		return nil, tperrors.ErrIO.WithDetail("path", p).WithMessage("mock storage: file not found")
	}
	return append([]byte(nil), data...), nil
}

// WriteFile stores a copy of data under p.
func (m *MockStorage) WriteFile(ctx context.Context, p string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[p] = append([]byte(nil), data...)
	return nil
}

// ListDir returns the names of files stored directly under dir, sorted.
func (m *MockStorage) ListDir(ctx context.Context, dir string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for p := range m.files {
		if path.Dir(p) == path.Clean(dir) {
			names = append(names, path.Base(p))
		}
	}
	sort.Strings(names)
	return names, nil
}
