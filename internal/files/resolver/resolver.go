package resolver

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vvka-141/fsgen/pkg/fsgen"
)

// Resolver resolves deferred descriptions. The zero value is ready to use
// and rejects relative copy sources.
// Resolver is safe for concurrent use by multiple goroutines.
type Resolver struct {
	baseDir string
	logger  fsgen.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBaseDir sets the directory relative copy sources are joined with.
func WithBaseDir(dir string) Option {
	return func(r *Resolver) {
		r.baseDir = dir
	}
}

// WithLogger sets the logger used for verbose resolution traces.
func WithLogger(l fsgen.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Content unwinds c until it reaches Text, Bytes, Directory or Stream.
// dest only scopes error messages.
func (r *Resolver) Content(ctx context.Context, dest string, c fsgen.Content) (fsgen.Content, error) {
	for depth := 0; ; depth++ {
		var (
			next fsgen.Content
			err  error
		)

		switch v := c.(type) {
		case nil:
			return nil, contentError(dest, fsgen.ErrNoContent)
		case fsgen.PendingContent:
			next, err = v.Wait(ctx)
		case fsgen.ContentProducer:
			next, err = produce[fsgen.Content](ctx, v)
		default:
			r.verbose("resolved content of %s to %s after %d hop(s)", dest, fsgen.KindOf(c), depth)
			return c, nil
		}

		if err != nil {
			return nil, contentError(dest, err)
		}
		c = next
	}
}

// Copy unwinds src to an absolute source path.
// dest only scopes error messages.
func (r *Resolver) Copy(ctx context.Context, dest string, src fsgen.CopySource) (string, error) {
	for depth := 0; ; depth++ {
		var (
			next fsgen.CopySource
			err  error
		)

		switch v := src.(type) {
		case nil:
			return "", copyError(dest, fsgen.ErrNoContent)
		case fsgen.SourcePath:
			path, err := r.absolute(string(v))
			if err != nil {
				return "", copyError(dest, err)
			}
			r.verbose("resolved copy source of %s to %s after %d hop(s)", dest, path, depth)
			return path, nil
		case fsgen.PendingPath:
			next, err = v.Wait(ctx)
		case fsgen.PathProducer:
			next, err = produce[fsgen.CopySource](ctx, v)
		default:
			return "", copyError(dest, fmt.Errorf("unsupported copy source %T", src))
		}

		if err != nil {
			return "", copyError(dest, err)
		}
		src = next
	}
}

func (r *Resolver) absolute(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty copy source: %w", fsgen.ErrRelativePath)
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	if r.baseDir == "" {
		return "", fmt.Errorf("%q: %w", path, fsgen.ErrRelativePath)
	}
	return filepath.Join(r.baseDir, path), nil
}

func (r *Resolver) verbose(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Verbose(format, args...)
	}
}

func contentError(dest string, err error) error {
	return &fsgen.ResolutionError{Op: fsgen.OpContent, Destination: dest, Err: err}
}

func copyError(dest string, err error) error {
	return &fsgen.ResolutionError{Op: fsgen.OpCopy, Destination: dest, Err: err}
}
