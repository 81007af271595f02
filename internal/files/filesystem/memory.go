package filesystem

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// MemoryFileSystem implements fsgen.FileSystem in memory for testing.
// Paths are used as given; callers should pass absolute paths.
type MemoryFileSystem struct {
	*AferoFileSystem
}

// NewMemoryFileSystem creates a new, empty in-memory filesystem.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{AferoFileSystem: NewAferoFileSystem(afero.NewMemMapFs())}
}

// AddFile adds a file, creating its parent directories.
func (m *MemoryFileSystem) AddFile(path string, content string) {
	_ = m.fs.MkdirAll(filepath.Dir(path), m.dirMode)
	_ = afero.WriteFile(m.fs, path, []byte(content), m.fileMode)
}

// ReadFile returns the content of path.
func (m *MemoryFileSystem) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(m.fs, path)
}

// Exists reports whether path exists as a file or directory.
func (m *MemoryFileSystem) Exists(path string) bool {
	ok, err := afero.Exists(m.fs, path)
	return err == nil && ok
}
