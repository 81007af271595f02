package filesystem

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/vvka-141/fsgen/pkg/fsgen"
)

// EmbedFileSystem serves read operations for paths under a virtual root from
// an fs.FS (typically an embed.FS) and delegates everything else to a base
// FileSystem. Copying a directory from under the root writes into the base.
//
// Paths under the root are read-only.
type EmbedFileSystem struct {
	src  fs.FS
	root string
	base fsgen.FileSystem
}

// NewEmbedFileSystem mounts fsys at root. Entries of fsys become visible as
// filepath.Join(root, name). root must be absolute.
func NewEmbedFileSystem(fsys fs.FS, root string, base fsgen.FileSystem) (*EmbedFileSystem, error) {
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("embed root %q: %w", root, fsgen.ErrRelativePath)
	}
	if base == nil {
		base = NewOSFileSystem()
	}
	return &EmbedFileSystem{
		src:  fsys,
		root: filepath.Clean(root),
		base: base,
	}, nil
}

// Root returns the virtual mount point.
func (e *EmbedFileSystem) Root() string { return e.root }

// rel maps an absolute path to its fs.FS name. ok is false outside the root.
func (e *EmbedFileSystem) rel(p string) (string, bool) {
	p = filepath.Clean(p)
	if p == e.root {
		return ".", true
	}
	if !strings.HasPrefix(p, e.root+string(filepath.Separator)) {
		return "", false
	}
	name := filepath.ToSlash(strings.TrimPrefix(p, e.root+string(filepath.Separator)))
	return path.Clean(name), true
}

func (e *EmbedFileSystem) readOnly(op, p string) error {
	return &fs.PathError{Op: op, Path: p, Err: fs.ErrPermission}
}

func (e *EmbedFileSystem) WriteFile(p string, data []byte) error {
	if _, ok := e.rel(p); ok {
		return e.readOnly("write", p)
	}
	return e.base.WriteFile(p, data)
}

func (e *EmbedFileSystem) OpenReader(p string) (io.ReadCloser, error) {
	name, ok := e.rel(p)
	if !ok {
		return e.base.OpenReader(p)
	}
	return e.src.Open(name)
}

func (e *EmbedFileSystem) CreateWriter(p string) (io.WriteCloser, error) {
	if _, ok := e.rel(p); ok {
		return nil, e.readOnly("open", p)
	}
	return e.base.CreateWriter(p)
}

func (e *EmbedFileSystem) MkdirAll(p string) error {
	if _, ok := e.rel(p); ok {
		return e.readOnly("mkdir", p)
	}
	return e.base.MkdirAll(p)
}

func (e *EmbedFileSystem) IsDir(p string) (bool, error) {
	name, ok := e.rel(p)
	if !ok {
		return e.base.IsDir(p)
	}
	info, err := fs.Stat(e.src, name)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (e *EmbedFileSystem) CopyDir(src, dst string) error {
	name, ok := e.rel(src)
	if !ok {
		return e.base.CopyDir(src, dst)
	}
	if _, ok := e.rel(dst); ok {
		return e.readOnly("copy", dst)
	}

	return fs.WalkDir(e.src, name, func(filePath string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath := strings.TrimPrefix(strings.TrimPrefix(filePath, name), "/")
		target := filepath.Join(dst, filepath.FromSlash(relPath))
		if name == "." {
			target = filepath.Join(dst, filepath.FromSlash(filePath))
		}

		if entry.IsDir() {
			return e.base.MkdirAll(target)
		}

		content, err := fs.ReadFile(e.src, filePath)
		if err != nil {
			return fmt.Errorf("failed to read embedded file %s: %w", filePath, err)
		}
		return e.base.WriteFile(target, content)
	})
}
