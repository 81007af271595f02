package generate

import (
	"fmt"
	"path/filepath"

	"github.com/vvka-141/fsgen/internal/checksum"
	"github.com/vvka-141/fsgen/internal/files/encoding"
	"github.com/vvka-141/fsgen/internal/retry"
	"github.com/vvka-141/fsgen/pkg/fsgen"
)

// RelativeCwdError reports a working directory that is not absolute.
type RelativeCwdError struct {
	Cwd string
}

func (e *RelativeCwdError) Error() string {
	return fmt.Sprintf(`You must provide an absolute cwd path. "%s" is a relative one.`, e.Cwd)
}

func (e *RelativeCwdError) Unwrap() error {
	return fsgen.ErrRelativePath
}

func checkCwd(cwd string) error {
	if !filepath.IsAbs(cwd) {
		return &RelativeCwdError{Cwd: cwd}
	}
	return nil
}

// Option configures a Generator.
type Option func(*Generator) error

// WithCwd sets the directory relative destinations and copy sources are
// resolved against. Defaults to the process working directory.
func WithCwd(cwd string) Option {
	return func(g *Generator) error {
		if err := checkCwd(cwd); err != nil {
			return err
		}
		g.cwd = filepath.Clean(cwd)
		return nil
	}
}

// WithEncoding sets the default encoding of text entries.
func WithEncoding(name string) Option {
	return func(g *Generator) error {
		if _, err := encoding.Lookup(name); err != nil {
			return err
		}
		g.encoding = name
		return nil
	}
}

// WithEventData attaches data to every notification.
func WithEventData(data any) Option {
	return func(g *Generator) error {
		g.eventData = data
		return nil
	}
}

// WithFileSystem sets the dependency set used for every write.
func WithFileSystem(fs fsgen.FileSystem) Option {
	return func(g *Generator) error {
		if fs == nil {
			return fmt.Errorf("%w: nil filesystem", fsgen.ErrInvalidConfig)
		}
		g.fs = fs
		return nil
	}
}

// WithLogger sets the logger for verbose traces.
func WithLogger(l fsgen.Logger) Option {
	return func(g *Generator) error {
		if l != nil {
			g.logger = l
		}
		return nil
	}
}

// WithConcurrency limits how many destinations are written at once.
func WithConcurrency(n int) Option {
	return func(g *Generator) error {
		if n < 1 {
			return fmt.Errorf("%w: concurrency must be at least 1, got %d", fsgen.ErrInvalidConfig, n)
		}
		g.concurrency = n
		return nil
	}
}

// WithRetry re-invokes failed writes through e.
func WithRetry(e *retry.Executor) Option {
	return func(g *Generator) error {
		g.retry = e
		return nil
	}
}

// WithChecksum computes a digest of every written file for write events.
func WithChecksum(c checksum.Calculator) Option {
	return func(g *Generator) error {
		g.checksum = c
		return nil
	}
}

// runConfig holds the settings of a single Generate call.
type runConfig struct {
	cwd      string
	encoding string
	data     any
	err      error
}

// RunOption overrides Generator settings for a single Generate call.
type RunOption func(*runConfig)

// RunCwd overrides the working directory for the call.
func RunCwd(cwd string) RunOption {
	return func(c *runConfig) {
		if err := checkCwd(cwd); err != nil {
			c.err = err
			return
		}
		c.cwd = filepath.Clean(cwd)
	}
}

// RunEncoding overrides the default text encoding for the call.
func RunEncoding(name string) RunOption {
	return func(c *runConfig) {
		if _, err := encoding.Lookup(name); err != nil {
			c.err = err
			return
		}
		c.encoding = name
	}
}

// RunEventData overrides the event data for the call.
func RunEventData(data any) RunOption {
	return func(c *runConfig) {
		c.data = data
	}
}

// Binding attaches per-entry settings to content or a copy source.
// Create one with Use or UseCopy.
type Binding struct {
	write    fsgen.Content
	copy     fsgen.CopySource
	cwd      string
	encoding string
	err      error
}

// UseOption configures a Binding.
type UseOption func(*Binding)

// UseCwd resolves the entry's relative destination and copy source
// against cwd instead of the run's directory.
func UseCwd(cwd string) UseOption {
	return func(b *Binding) {
		if err := checkCwd(cwd); err != nil {
			b.err = err
			return
		}
		b.cwd = filepath.Clean(cwd)
	}
}

// UseEncoding sets the entry's text encoding.
func UseEncoding(name string) UseOption {
	return func(b *Binding) {
		if _, err := encoding.Lookup(name); err != nil {
			b.err = err
			return
		}
		b.encoding = name
	}
}

// Use binds content to per-entry settings.
func Use(content fsgen.Content, opts ...UseOption) Binding {
	b := Binding{write: content}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// UseCopy binds a copy source to per-entry settings.
func UseCopy(src fsgen.CopySource, opts ...UseOption) Binding {
	b := Binding{copy: src}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}
