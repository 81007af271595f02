package fsgen

import "io"

// FileSystem is the set of filesystem primitives a file writer depends on.
// Every path passed to a FileSystem is absolute.
// Implementations must be safe for concurrent use by multiple goroutines.
type FileSystem interface {
	// WriteFile creates or truncates path and writes data to it in one shot.
	WriteFile(path string, data []byte) error

	// OpenReader opens path for reading.
	OpenReader(path string) (io.ReadCloser, error)

	// CreateWriter creates or truncates path and returns a writer to it.
	CreateWriter(path string) (io.WriteCloser, error)

	// MkdirAll creates path and any missing parents.
	// It is not an error if path already exists as a directory.
	MkdirAll(path string) error

	// IsDir reports whether path exists and is a directory.
	IsDir(path string) (bool, error)

	// CopyDir recursively copies the directory src to dst.
	CopyDir(src, dst string) error
}
