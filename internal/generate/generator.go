package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vvka-141/fsgen/internal/checksum"
	"github.com/vvka-141/fsgen/internal/files/filesystem"
	"github.com/vvka-141/fsgen/internal/files/writer"
	"github.com/vvka-141/fsgen/internal/logging"
	"github.com/vvka-141/fsgen/internal/retry"
	"github.com/vvka-141/fsgen/pkg/fsgen"
)

// Entry is one value of a Generate map. Supported kinds:
//   - *writer.FileWriter: written with its own encoding
//   - fsgen.Content: written with the run's encoding
//   - fsgen.CopySource: copied, relative sources resolved against the cwd
//   - Binding: content or copy source with per-entry settings
//   - string and []byte: shorthand for fsgen.Text and fsgen.Bytes
type Entry = any

// Generator writes maps of destinations. It is safe for concurrent use;
// concurrent runs targeting the same destination fail that destination
// with fsgen.ErrDestinationBusy instead of racing.
type Generator struct {
	cwd         string
	encoding    string
	eventData   any
	fs          fsgen.FileSystem
	logger      fsgen.Logger
	concurrency int
	retry       *retry.Executor
	checksum    checksum.Calculator

	events emitter

	mu       sync.Mutex
	inflight map[string]string
}

// New creates a Generator. Invalid options fail here.
func New(opts ...Option) (*Generator, error) {
	g := &Generator{
		encoding:    fsgen.DefaultEncoding,
		fs:          filesystem.Default(),
		logger:      logging.NewNullLogger(),
		concurrency: fsgen.DefaultConcurrency,
		inflight:    make(map[string]string),
	}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}

	if g.cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		g.cwd = wd
	}

	return g, nil
}

// Cwd returns the generator's working directory.
func (g *Generator) Cwd() string {
	return g.cwd
}

// On registers l for event.
func (g *Generator) On(event Event, l Listener) Subscription {
	return g.events.on(event, l)
}

// Off removes a listener registered with On. It reports whether the
// listener was still registered.
func (g *Generator) Off(sub Subscription) bool {
	return g.events.off(sub)
}

// OffAll removes every listener for event, or every listener at all when
// event is empty. It returns how many were removed.
func (g *Generator) OffAll(event Event) int {
	return g.events.offAll(event)
}

// task is one planned destination.
type task struct {
	dest   string
	writer *writer.FileWriter
}

// Generate writes every entry and blocks until all of them finished.
//
// Malformed input (a relative cwd, an unsupported entry, an invalid
// writer, two keys naming the same destination) is returned before
// anything is written and emits no event. Otherwise exactly one of
// EventFinish or EventError is emitted, after every EventWrite.
func (g *Generator) Generate(ctx context.Context, entries map[string]Entry, opts ...RunOption) error {
	run := runConfig{cwd: g.cwd, encoding: g.encoding, data: g.eventData}
	for _, opt := range opts {
		opt(&run)
	}
	if run.err != nil {
		return run.err
	}

	tasks, err := g.plan(entries, run)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	events := g.events.forRun()
	g.logger.Verbose("run %s: generating %d destination(s) from %s", runID, len(tasks), run.cwd)

	claimed, busy := g.claim(runID, tasks)

	var (
		mu       sync.Mutex
		failures = busy
		written  int
	)

	var group errgroup.Group
	group.SetLimit(g.concurrency)

	for _, t := range claimed {
		group.Go(func() error {
			n, err := g.write(ctx, runID, t, run.data)
			if err != nil {
				g.logger.Verbose("run %s: %s failed: %v", runID, t.dest, err)
				mu.Lock()
				failures = append(failures, PathFailure{Path: t.dest, Err: err})
				mu.Unlock()
				return nil
			}

			mu.Lock()
			written++
			mu.Unlock()
			events.emit(n)
			return nil
		})
	}
	_ = group.Wait()
	// released before the terminal event so its listeners may rewrite them
	g.release(runID, claimed)

	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].Path < failures[j].Path })
		runErr := &RunError{RunID: runID, Total: len(tasks), Failures: failures}
		events.emit(Notification{Event: EventError, RunID: runID, Data: run.data, Err: runErr})
		return runErr
	}

	g.logger.Verbose("run %s: wrote %d destination(s)", runID, written)
	events.emit(Notification{Event: EventFinish, RunID: runID, Data: run.data, Written: written})
	return nil
}

func (g *Generator) plan(entries map[string]Entry, run runConfig) ([]task, error) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make(map[string]string, len(keys))
	tasks := make([]task, 0, len(keys))

	for _, key := range keys {
		cwd := run.cwd
		w, err := g.writerFor(entries[key], run, &cwd)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}

		dest := key
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(cwd, dest)
		}
		dest = filepath.Clean(dest)

		if other, dup := seen[dest]; dup {
			return nil, fmt.Errorf("%w: %q and %q both name %s", fsgen.ErrInvalidConfig, other, key, dest)
		}
		seen[dest] = key
		tasks = append(tasks, task{dest: dest, writer: w})
	}

	return tasks, nil
}

// writerFor converts an entry to a writer. It updates cwd when a Binding
// carries its own.
func (g *Generator) writerFor(entry Entry, run runConfig, cwd *string) (*writer.FileWriter, error) {
	switch v := entry.(type) {
	case *writer.FileWriter:
		if v == nil {
			return nil, fmt.Errorf("%w: nil file writer", fsgen.ErrInvalidWriter)
		}
		return v, nil
	case Binding:
		if v.err != nil {
			return nil, v.err
		}
		if v.cwd != "" {
			*cwd = v.cwd
		}
		enc := run.encoding
		if v.encoding != "" {
			enc = v.encoding
		}
		return writer.New(writer.Options{Write: v.write, Copy: v.copy, Encoding: enc, BaseDir: *cwd})
	case fsgen.Content:
		return writer.New(writer.Options{Write: v, Encoding: run.encoding})
	case fsgen.CopySource:
		return writer.New(writer.Options{Copy: v, BaseDir: *cwd})
	case string:
		return writer.New(writer.Options{Write: fsgen.Text(v), Encoding: run.encoding})
	case []byte:
		return writer.New(writer.Options{Write: fsgen.Bytes(v)})
	case nil:
		return nil, fmt.Errorf("%w: nil entry", fsgen.ErrInvalidWriter)
	}
	return nil, fmt.Errorf("%w: unsupported entry type %T", fsgen.ErrInvalidWriter, entry)
}

// write runs one task and builds its write notification.
func (g *Generator) write(ctx context.Context, runID string, t task, data any) (Notification, error) {
	var report writer.Report
	op := func(ctx context.Context) error {
		report = writer.Report{}
		return t.writer.WriteTo(ctx, t.dest,
			writer.WithFileSystem(g.fs),
			writer.WithLogger(g.logger),
			writer.WithReport(&report),
		)
	}

	var err error
	switch {
	case ctx.Err() != nil:
		err = ctx.Err()
	case g.retry != nil:
		err = g.retry.Execute(ctx, func(ctx context.Context) error {
			err := op(ctx)
			if err != nil && report.Consumed {
				// a second attempt would truncate the file and copy an empty reader
				return fmt.Errorf("%w: %w", fsgen.ErrNotReplayable, err)
			}
			return err
		})
	default:
		err = op(ctx)
	}
	if err != nil {
		return Notification{}, err
	}

	n := Notification{
		Event:    EventWrite,
		RunID:    runID,
		Data:     data,
		Filepath: t.dest,
		Kind:     report.Kind,
		Bytes:    report.Bytes,
	}

	if g.checksum != nil && report.Kind != "directory" && report.Kind != "copy-dir" {
		digest, _, err := g.checksum.CalculateFile(g.fs, t.dest)
		if err != nil {
			return Notification{}, fmt.Errorf("failed to checksum %s: %w", t.dest, err)
		}
		n.Digest = digest
	}

	return n, nil
}

// claim reserves destinations for runID. Destinations held by another run
// are returned as failures.
func (g *Generator) claim(runID string, tasks []task) ([]task, []PathFailure) {
	g.mu.Lock()
	defer g.mu.Unlock()

	claimed := make([]task, 0, len(tasks))
	var busy []PathFailure
	for _, t := range tasks {
		if owner, ok := g.inflight[t.dest]; ok {
			busy = append(busy, PathFailure{
				Path: t.dest,
				Err:  fmt.Errorf("%w (run %s)", fsgen.ErrDestinationBusy, owner),
			})
			continue
		}
		g.inflight[t.dest] = runID
		claimed = append(claimed, t)
	}
	return claimed, busy
}

func (g *Generator) release(runID string, tasks []task) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, t := range tasks {
		if g.inflight[t.dest] == runID {
			delete(g.inflight, t.dest)
		}
	}
}

// PathFailure is one destination that could not be written.
type PathFailure struct {
	Path string
	Err  error
}

// RunError reports the destinations of a run that failed. It matches
// fsgen.ErrGenerationFailed and every per-path cause with errors.Is/As.
type RunError struct {
	RunID    string
	Total    int
	Failures []PathFailure
}

func (e *RunError) Error() string {
	if len(e.Failures) == 1 {
		f := e.Failures[0]
		return fmt.Sprintf("%s: %s: %s", fsgen.ErrGenerationFailed, f.Path, f.Err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s for %d of %d destination(s):", fsgen.ErrGenerationFailed, len(e.Failures), e.Total)
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n  %s: %s", f.Path, f.Err)
	}
	return b.String()
}

func (e *RunError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	errs = append(errs, fsgen.ErrGenerationFailed)
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Joined returns the per-path causes combined with errors.Join.
func (e *RunError) Joined() error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}
