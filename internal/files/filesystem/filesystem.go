package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/vvka-141/fsgen/pkg/fsgen"
)

// AferoFileSystem implements fsgen.FileSystem on top of an afero.Fs.
// It is safe for concurrent use when the underlying afero.Fs is.
type AferoFileSystem struct {
	fs       afero.Fs
	fileMode os.FileMode
	dirMode  os.FileMode
}

// NewAferoFileSystem wraps fs using the default file and directory modes.
func NewAferoFileSystem(fs afero.Fs) *AferoFileSystem {
	return &AferoFileSystem{
		fs:       fs,
		fileMode: fsgen.DefaultFileMode,
		dirMode:  fsgen.DefaultDirMode,
	}
}

// Afero exposes the underlying afero.Fs.
func (a *AferoFileSystem) Afero() afero.Fs { return a.fs }

func (a *AferoFileSystem) WriteFile(path string, data []byte) error {
	return afero.WriteFile(a.fs, path, data, a.fileMode)
}

func (a *AferoFileSystem) OpenReader(path string) (io.ReadCloser, error) {
	return a.fs.Open(path)
}

func (a *AferoFileSystem) CreateWriter(path string) (io.WriteCloser, error) {
	return a.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, a.fileMode)
}

func (a *AferoFileSystem) MkdirAll(path string) error {
	return a.fs.MkdirAll(path, a.dirMode)
}

func (a *AferoFileSystem) IsDir(path string) (bool, error) {
	return afero.IsDir(a.fs, path)
}

// CopyDir copies the tree rooted at src into dst, creating dst if needed.
// Existing files under dst are overwritten; other existing entries are kept.
// dst must not be src or lie inside it.
func (a *AferoFileSystem) CopyDir(src, dst string) error {
	src = filepath.Clean(src)
	dst = filepath.Clean(dst)
	if within(src, dst) {
		return fmt.Errorf("%s -> %s: %w", src, dst, fsgen.ErrCopyIntoSelf)
	}

	return afero.Walk(a.fs, src, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}
		target := filepath.Join(dst, relPath)

		if info.IsDir() {
			return a.fs.MkdirAll(target, a.dirMode)
		}
		return a.copyFile(path, target, info.Mode().Perm())
	})
}

func (a *AferoFileSystem) copyFile(src, dst string, perm os.FileMode) error {
	in, err := a.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if perm == 0 {
		perm = a.fileMode
	}
	out, err := a.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

// within reports whether path is parent or one of its descendants.
func within(parent, path string) bool {
	rel, err := filepath.Rel(parent, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
