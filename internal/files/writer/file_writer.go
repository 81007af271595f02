package writer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vvka-141/fsgen/internal/files/encoding"
	"github.com/vvka-141/fsgen/internal/files/filesystem"
	"github.com/vvka-141/fsgen/internal/files/resolver"
	"github.com/vvka-141/fsgen/internal/logging"
	"github.com/vvka-141/fsgen/pkg/fsgen"
)

// Options configures a FileWriter. Exactly one of Write or Copy must be set.
type Options struct {
	// Write is the content to materialize.
	Write fsgen.Content

	// Copy is an existing file or directory to copy from.
	Copy fsgen.CopySource

	// Encoding applies to Text content. Defaults to fsgen.DefaultEncoding.
	Encoding string

	// BaseDir resolves relative copy sources. Must be absolute when set.
	BaseDir string
}

// FileWriter binds one description to a reusable write operation.
// It is immutable after construction and safe for concurrent use; each
// WriteTo call is independent. A Stream content can only be drained once.
type FileWriter struct {
	write    fsgen.Content
	copy     fsgen.CopySource
	encoding encoding.Encoder
	baseDir  string
}

// New validates opts and returns a FileWriter.
// All validation happens here; a returned FileWriter never fails for
// configuration reasons later.
func New(opts Options) (*FileWriter, error) {
	if opts.Write == nil && opts.Copy == nil {
		return nil, fmt.Errorf("%w: one of write or copy is required", fsgen.ErrInvalidWriter)
	}
	if opts.Write != nil && opts.Copy != nil {
		return nil, fmt.Errorf("%w: write and copy are mutually exclusive", fsgen.ErrInvalidWriter)
	}

	if opts.BaseDir != "" && !filepath.IsAbs(opts.BaseDir) {
		return nil, fmt.Errorf("%w: base directory %q: %w", fsgen.ErrInvalidWriter, opts.BaseDir, fsgen.ErrRelativePath)
	}

	if p, ok := opts.Copy.(fsgen.SourcePath); ok {
		if p == "" {
			return nil, fmt.Errorf("%w: empty copy source", fsgen.ErrInvalidWriter)
		}
		if !filepath.IsAbs(string(p)) && opts.BaseDir == "" {
			return nil, fmt.Errorf("%w: copy source %q: %w", fsgen.ErrInvalidWriter, string(p), fsgen.ErrRelativePath)
		}
	}

	enc, err := encoding.Lookup(opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fsgen.ErrInvalidWriter, err)
	}

	return &FileWriter{
		write:    opts.Write,
		copy:     opts.Copy,
		encoding: enc,
		baseDir:  opts.BaseDir,
	}, nil
}

// MustNew is like New but panics on invalid options.
func MustNew(opts Options) *FileWriter {
	w, err := New(opts)
	if err != nil {
		panic(err)
	}
	return w
}

// Write returns a FileWriter for content with the default encoding.
func Write(content fsgen.Content) (*FileWriter, error) {
	return New(Options{Write: content})
}

// Copy returns a FileWriter copying from src.
func Copy(src fsgen.CopySource) (*FileWriter, error) {
	return New(Options{Copy: src})
}

// Encoding returns the name of the writer's text encoding.
func (w *FileWriter) Encoding() string {
	return w.encoding.Name()
}

// IsCopy reports whether the writer copies an existing path.
func (w *FileWriter) IsCopy() bool {
	return w.copy != nil
}

// callConfig holds per-call dependency overrides.
type callConfig struct {
	fs      fsgen.FileSystem
	encoder encoding.Encoder
	logger  fsgen.Logger
	report  *Report
	err     error
}

// CallOption overrides dependencies for a single write call.
type CallOption func(*callConfig)

// WithFileSystem sets the dependency set used for the call.
// Use filesystem.Override to replace individual members.
func WithFileSystem(fs fsgen.FileSystem) CallOption {
	return func(c *callConfig) {
		if fs != nil {
			c.fs = fs
		}
	}
}

// WithEncoding overrides the writer's encoding for the call.
func WithEncoding(name string) CallOption {
	return func(c *callConfig) {
		enc, err := encoding.Lookup(name)
		if err != nil {
			c.err = err
			return
		}
		c.encoder = enc
	}
}

// WithLogger sets the logger used for verbose traces of the call.
func WithLogger(l fsgen.Logger) CallOption {
	return func(c *callConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithReport fills r with what the call did, after failures too.
func WithReport(r *Report) CallOption {
	return func(c *callConfig) {
		c.report = r
	}
}

// Report describes what a write call did. It is filled after failures too:
// Bytes then counts what reached the destination before the error.
type Report struct {
	Destination string
	// Kind is the resolved content kind, or "copy-dir"/"copy-file".
	// Empty when resolution failed.
	Kind  string
	Bytes int64
	// Consumed reports that the call took over a Stream reader. Writing the
	// same description again would not see its data.
	Consumed bool
}

// WriteTo resolves the description and writes it to dest, blocking until
// the operation finished. dest must be absolute.
//
// Errors from deferred values are *fsgen.ResolutionError; filesystem errors
// are returned as the FileSystem produced them.
func (w *FileWriter) WriteTo(ctx context.Context, dest string, opts ...CallOption) error {
	if !filepath.IsAbs(dest) {
		return fmt.Errorf("destination %q: %w", dest, fsgen.ErrRelativePath)
	}

	cfg := callConfig{
		fs:      filesystem.Default(),
		encoder: w.encoding,
		logger:  logging.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.err != nil {
		return fmt.Errorf("%w: %w", fsgen.ErrInvalidWriter, cfg.err)
	}

	cw := &contentWriter{
		fs:      cfg.fs,
		encoder: cfg.encoder,
		logger:  cfg.logger,
		dest:    filepath.Clean(dest),
	}

	kind, err := w.run(ctx, cw)
	err = cw.finish(err)

	if cfg.report != nil {
		*cfg.report = Report{Destination: cw.dest, Kind: kind, Bytes: cw.written, Consumed: cw.consumed}
	}
	return err
}

func (w *FileWriter) run(ctx context.Context, cw *contentWriter) (string, error) {
	cw.transition(stateResolving)
	res := resolver.New(resolver.WithBaseDir(w.baseDir), resolver.WithLogger(cw.logger))

	if w.write != nil {
		content, err := res.Content(ctx, cw.dest, w.write)
		if err != nil {
			return "", err
		}
		if _, ok := content.(fsgen.Stream); ok {
			cw.consumed = true
		}
		return fsgen.KindOf(content), cw.write(content)
	}

	src, err := res.Copy(ctx, cw.dest, w.copy)
	if err != nil {
		return "", err
	}

	isDir, err := cw.fs.IsDir(src)
	if err != nil {
		return "", err
	}
	if isDir {
		return "copy-dir", cw.copyDir(src)
	}

	r, err := cw.fs.OpenReader(src)
	if err != nil {
		return "", err
	}
	return "copy-file", cw.write(fsgen.Stream{Reader: r})
}

// WriteToCallback runs WriteTo on a new goroutine and calls callback exactly
// once with its result. It returns immediately.
func (w *FileWriter) WriteToCallback(ctx context.Context, dest string, callback func(error), opts ...CallOption) {
	go func() {
		callback(w.WriteTo(ctx, dest, opts...))
	}()
}

// Start runs WriteTo on a new goroutine. The returned channel receives
// exactly one value (nil on success) and is then closed.
func (w *FileWriter) Start(ctx context.Context, dest string, opts ...CallOption) <-chan error {
	done := make(chan error, 1)
	w.WriteToCallback(ctx, dest, func(err error) {
		done <- err
		close(done)
	}, opts...)
	return done
}
