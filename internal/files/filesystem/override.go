package filesystem

import (
	"io"

	"github.com/vvka-141/fsgen/pkg/fsgen"
)

// Override replaces individual members of a FileSystem.
// Nil function fields fall through to Base, and a nil Base falls through to
// the OS filesystem.
type Override struct {
	Base fsgen.FileSystem

	WriteFileFunc    func(path string, data []byte) error
	OpenReaderFunc   func(path string) (io.ReadCloser, error)
	CreateWriterFunc func(path string) (io.WriteCloser, error)
	MkdirAllFunc     func(path string) error
	IsDirFunc        func(path string) (bool, error)
	CopyDirFunc      func(src, dst string) error
}

var defaultFS fsgen.FileSystem = NewOSFileSystem()

func (o *Override) base() fsgen.FileSystem {
	if o.Base != nil {
		return o.Base
	}
	return defaultFS
}

func (o *Override) WriteFile(path string, data []byte) error {
	if o.WriteFileFunc != nil {
		return o.WriteFileFunc(path, data)
	}
	return o.base().WriteFile(path, data)
}

func (o *Override) OpenReader(path string) (io.ReadCloser, error) {
	if o.OpenReaderFunc != nil {
		return o.OpenReaderFunc(path)
	}
	return o.base().OpenReader(path)
}

func (o *Override) CreateWriter(path string) (io.WriteCloser, error) {
	if o.CreateWriterFunc != nil {
		return o.CreateWriterFunc(path)
	}
	return o.base().CreateWriter(path)
}

func (o *Override) MkdirAll(path string) error {
	if o.MkdirAllFunc != nil {
		return o.MkdirAllFunc(path)
	}
	return o.base().MkdirAll(path)
}

func (o *Override) IsDir(path string) (bool, error) {
	if o.IsDirFunc != nil {
		return o.IsDirFunc(path)
	}
	return o.base().IsDir(path)
}

func (o *Override) CopyDir(src, dst string) error {
	if o.CopyDirFunc != nil {
		return o.CopyDirFunc(src, dst)
	}
	return o.base().CopyDir(src, dst)
}

// Default returns the process-wide OS filesystem used when no FileSystem is supplied.
func Default() fsgen.FileSystem {
	return defaultFS
}
