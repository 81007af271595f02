package fsgen

import (
	"context"
	"io"
	"sync"
)

// Content describes what a file writer materializes at a destination.
//
// The concrete kinds are:
//   - Text: literal text, encoded with the writer's encoding
//   - Bytes: binary payload written as-is
//   - Directory: an empty directory instead of a file
//   - Stream: a reader drained into the destination
//   - PendingContent: a computation that settles later to another Content
//   - ContentProducer: a function that yields another Content through a callback
//
// PendingContent and ContentProducer are deferred kinds. They may resolve
// to further deferred values at any depth; only the terminal kinds reach disk.
type Content interface {
	isContent()
}

// Text is a fully known text payload.
type Text string

// Bytes is a fully known binary payload.
type Bytes []byte

// Directory marks the destination as an empty directory.
type Directory struct{}

// Stream drains Reader into the destination.
// If Reader also implements io.Closer it is closed once drained.
// A Stream can only be drained once.
type Stream struct {
	Reader io.Reader
}

// Result is the settled outcome of a deferred value.
type Result[T any] struct {
	Value T
	Err   error
}

// future settles once and keeps its outcome for every later reader.
type future[T any] struct {
	once sync.Once
	done chan struct{}
	res  Result[T]
}

func newFuture[T any]() *future[T] {
	return &future[T]{done: make(chan struct{})}
}

func (f *future[T]) settle(v T, err error) {
	f.once.Do(func() {
		f.res = Result[T]{Value: v, Err: err}
		close(f.done)
	})
}

func (f *future[T]) wait(ctx context.Context) (T, error) {
	var zero T
	if f == nil {
		return zero, ErrNoContent
	}
	select {
	case <-f.done:
		return f.res.Value, f.res.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// bridge settles f from the first value of ch. A channel closed without a
// value settles with ErrNoContent.
func bridge[T any](f *future[T], ch <-chan Result[T]) {
	go func() {
		r, ok := <-ch
		if !ok {
			var zero T
			f.settle(zero, ErrNoContent)
			return
		}
		f.settle(r.Value, r.Err)
	}()
}

// PendingContent is a computation that settles once to a Content or an error.
// The outcome is kept: every Wait after settlement observes the same result,
// so a writer bound to PendingContent can be written any number of times.
// The zero value never settles to content; Wait reports ErrNoContent.
type PendingContent struct {
	f *future[Content]
}

// NewPendingContent returns unsettled PendingContent and the function that
// settles it. Only the first call to settle is observed.
func NewPendingContent() (PendingContent, func(Content, error)) {
	f := newFuture[Content]()
	return PendingContent{f: f}, f.settle
}

// PendingFrom settles PendingContent from the first value received on ch.
func PendingFrom(ch <-chan Result[Content]) PendingContent {
	f := newFuture[Content]()
	bridge(f, ch)
	return PendingContent{f: f}
}

// Wait blocks until p settles or ctx is done.
func (p PendingContent) Wait(ctx context.Context) (Content, error) {
	return p.f.wait(ctx)
}

// ContentProducer is invoked with a completion callback. Only the first
// call to done is observed. A producer runs again on every write.
type ContentProducer func(done func(Content, error))

func (Text) isContent()            {}
func (Bytes) isContent()           {}
func (Directory) isContent()       {}
func (Stream) isContent()          {}
func (PendingContent) isContent()  {}
func (ContentProducer) isContent() {}

// IsDeferred reports whether c still needs resolution before it can be written.
func IsDeferred(c Content) bool {
	switch c.(type) {
	case PendingContent, ContentProducer:
		return true
	}
	return false
}

// Defer runs fn on its own goroutine and returns its outcome as PendingContent.
func Defer(fn func() (Content, error)) PendingContent {
	p, settle := NewPendingContent()
	go func() {
		settle(fn())
	}()
	return p
}

// Resolved returns PendingContent already settled with c.
func Resolved(c Content) PendingContent {
	p, settle := NewPendingContent()
	settle(c, nil)
	return p
}

// Rejected returns PendingContent already settled with err.
func Rejected(err error) PendingContent {
	p, settle := NewPendingContent()
	settle(nil, err)
	return p
}

// CopySource describes an existing path to copy from instead of new content.
//
// The concrete kinds are SourcePath (terminal), PendingPath and PathProducer.
type CopySource interface {
	isCopySource()
}

// SourcePath is a filesystem path to copy from.
type SourcePath string

// PendingPath settles once to another CopySource or an error and keeps
// the outcome for every later Wait.
type PendingPath struct {
	f *future[CopySource]
}

// NewPendingPath returns an unsettled PendingPath and the function that
// settles it. Only the first call to settle is observed.
func NewPendingPath() (PendingPath, func(CopySource, error)) {
	f := newFuture[CopySource]()
	return PendingPath{f: f}, f.settle
}

// PendingPathFrom settles a PendingPath from the first value received on ch.
func PendingPathFrom(ch <-chan Result[CopySource]) PendingPath {
	f := newFuture[CopySource]()
	bridge(f, ch)
	return PendingPath{f: f}
}

// Wait blocks until p settles or ctx is done.
func (p PendingPath) Wait(ctx context.Context) (CopySource, error) {
	return p.f.wait(ctx)
}

// PathProducer is invoked with a completion callback. Only the first
// call to done is observed.
type PathProducer func(done func(CopySource, error))

func (SourcePath) isCopySource()   {}
func (PendingPath) isCopySource()  {}
func (PathProducer) isCopySource() {}

// DeferPath runs fn on its own goroutine and returns its outcome as PendingPath.
func DeferPath(fn func() (CopySource, error)) PendingPath {
	p, settle := NewPendingPath()
	go func() {
		settle(fn())
	}()
	return p
}

// KindOf returns a short human-readable name for a terminal content kind.
// Used in logs and reports.
func KindOf(c Content) string {
	switch c.(type) {
	case Text:
		return "text"
	case Bytes:
		return "bytes"
	case Directory:
		return "directory"
	case Stream:
		return "stream"
	case PendingContent:
		return "pending"
	case ContentProducer:
		return "producer"
	case nil:
		return "none"
	}
	return "unknown"
}
