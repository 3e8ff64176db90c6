package mocks

import (
	"fmt"
	"path"
	"sort"
	"sync"

	"github.com/user/keythumb/pkg/ports"
)

// FileSystem is an in-memory ports.FileSystem. Hooks replace the default
// behaviour; every call is recorded either way.
type FileSystem struct {
	ReadFileFunc  func(path string) ([]byte, error)
	WriteFileFunc func(path string, data []byte) error
	MkdirAllFunc  func(path string) error
	ExistsFunc    func(path string) (bool, error)
	RemoveFunc    func(path string) error

	// Recorded calls for verification
	Written []string
	Mkdirs  []string
	Removed []string

	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool
}

// NewFileSystem creates an empty in-memory filesystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{files: make(map[string][]byte), dirs: make(map[string]bool)}
}

func (m *FileSystem) ReadFile(p string) ([]byte, error) {
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[p]
	if !ok {
		return nil, fmt.Errorf("mocks: %s: no such file", p)
	}
	return data, nil
}

// WriteFile stores a copy of data and marks the parent directories as
// existing, like the atomic OS implementation does.
func (m *FileSystem) WriteFile(p string, data []byte) error {
	m.mu.Lock()
	m.Written = append(m.Written, p)
	m.mu.Unlock()
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(p, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[p] = append([]byte(nil), data...)
	for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		m.dirs[dir] = true
	}
	return nil
}

func (m *FileSystem) MkdirAll(p string) error {
	m.mu.Lock()
	m.Mkdirs = append(m.Mkdirs, p)
	m.mu.Unlock()
	if m.MkdirAllFunc != nil {
		return m.MkdirAllFunc(p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[p] = true
	return nil
}

func (m *FileSystem) Exists(p string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, isFile := m.files[p]
	return isFile || m.dirs[p], nil
}

func (m *FileSystem) Remove(p string) error {
	m.mu.Lock()
	m.Removed = append(m.Removed, p)
	m.mu.Unlock()
	if m.RemoveFunc != nil {
		return m.RemoveFunc(p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, p)
	delete(m.dirs, p)
	return nil
}

// File returns the stored contents of p.
func (m *FileSystem) File(p string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[p]
	return data, ok
}

// Paths returns the stored file paths in sorted order.
func (m *FileSystem) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

var _ ports.FileSystem = (*FileSystem)(nil)
