package writer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/vvka-141/fsgen/internal/files/encoding"
	"github.com/vvka-141/fsgen/pkg/fsgen"
)

// state tracks the progress of a single write call.
type state int

const (
	stateIdle state = iota
	stateResolving
	stateEnsuringDirectory
	stateWriting
	stateDone
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateResolving:
		return "resolving"
	case stateEnsuringDirectory:
		return "ensuring-directory"
	case stateWriting:
		return "writing"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// contentWriter performs the filesystem side of one write call.
// Errors from the FileSystem are returned unwrapped.
type contentWriter struct {
	fs      fsgen.FileSystem
	encoder encoding.Encoder
	logger  fsgen.Logger
	dest    string
	state   state
	written int64

	// consumed is set once a Stream reader was handed over; the reader is
	// closed or drained whatever the outcome.
	consumed bool
}

func (w *contentWriter) transition(next state) {
	w.logger.Verbose("%s: %s -> %s", w.dest, w.state, next)
	w.state = next
}

// finish enters a terminal state exactly once.
func (w *contentWriter) finish(err error) error {
	if w.state == stateDone || w.state == stateFailed {
		return err
	}
	if err != nil {
		w.transition(stateFailed)
		return err
	}
	w.transition(stateDone)
	return nil
}

func (w *contentWriter) ensureParent() error {
	w.transition(stateEnsuringDirectory)
	return w.fs.MkdirAll(filepath.Dir(w.dest))
}

// write dispatches a terminal content kind.
func (w *contentWriter) write(c fsgen.Content) error {
	switch v := c.(type) {
	case fsgen.Directory:
		w.transition(stateEnsuringDirectory)
		if err := w.fs.MkdirAll(w.dest); err != nil {
			return err
		}
		w.transition(stateWriting)
		return nil

	case fsgen.Text:
		data, err := w.encoder.Encode(string(v))
		if err != nil {
			return err
		}
		if err := w.ensureParent(); err != nil {
			return err
		}
		w.transition(stateWriting)
		return w.writeFile(data)

	case fsgen.Bytes:
		if err := w.ensureParent(); err != nil {
			return err
		}
		w.transition(stateWriting)
		return w.writeFile(v)

	case fsgen.Stream:
		if err := w.ensureParent(); err != nil {
			if closer, ok := v.Reader.(io.Closer); ok {
				closer.Close()
			}
			return err
		}
		w.transition(stateWriting)
		return w.pipe(v.Reader)
	}

	return fmt.Errorf("%s: cannot write content of kind %s", w.dest, fsgen.KindOf(c))
}

func (w *contentWriter) writeFile(data []byte) error {
	if err := w.fs.WriteFile(w.dest, data); err != nil {
		return err
	}
	w.written = int64(len(data))
	return nil
}

// pipe drains r into the destination. The first read, write or close
// error wins.
func (w *contentWriter) pipe(r io.Reader) (err error) {
	if closer, ok := r.(io.Closer); ok {
		defer func() {
			if cerr := closer.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
	}
	if r == nil {
		return errors.New("stream content has no reader")
	}

	out, err := w.fs.CreateWriter(w.dest)
	if err != nil {
		return err
	}

	n, copyErr := io.Copy(out, r)
	closeErr := out.Close()
	w.written = n

	if copyErr != nil {
		return copyErr
	}
	return closeErr
}

// copyDir dispatches a directory copy after the parent of dest exists.
func (w *contentWriter) copyDir(src string) error {
	if err := w.ensureParent(); err != nil {
		return err
	}
	w.transition(stateWriting)
	return w.fs.CopyDir(src, w.dest)
}
