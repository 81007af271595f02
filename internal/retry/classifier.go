package retry

import (
	"context"
	"errors"
	"syscall"

	"github.com/vvka-141/fsgen/pkg/fsgen"
)

// transientErrnos are conditions that clear up without intervention:
// a busy or locked file, an interrupted call, descriptor exhaustion.
var transientErrnos = []syscall.Errno{
	syscall.EAGAIN,
	syscall.EBUSY,
	syscall.EINTR,
	syscall.ETXTBSY,
	syscall.EMFILE,
	syscall.ENFILE,
}

// FileSystemErrorClassifier implements fsgen.ErrorClassifier for errors
// returned by a FileSystem.
type FileSystemErrorClassifier struct{}

// NewFileSystemErrorClassifier creates a new filesystem error classifier.
func NewFileSystemErrorClassifier() *FileSystemErrorClassifier {
	return &FileSystemErrorClassifier{}
}

// IsTransient reports whether err is worth another attempt.
func (c *FileSystemErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var resErr *fsgen.ResolutionError
	if errors.As(err, &resErr) {
		return false
	}
	if errors.Is(err, fsgen.ErrInvalidWriter) || errors.Is(err, fsgen.ErrRelativePath) ||
		errors.Is(err, fsgen.ErrNotReplayable) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	for _, errno := range transientErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}

	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) && temp.Temporary() {
		return true
	}

	return false
}
