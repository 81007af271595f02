package generate

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/fsgen/internal/checksum"
	"github.com/vvka-141/fsgen/internal/files/filesystem"
	"github.com/vvka-141/fsgen/internal/files/writer"
	"github.com/vvka-141/fsgen/internal/retry"
	"github.com/vvka-141/fsgen/pkg/fsgen"
)

func newMemoryGenerator(t *testing.T, opts ...Option) (*Generator, *filesystem.MemoryFileSystem) {
	t.Helper()
	fs := filesystem.NewMemoryFileSystem()
	g, err := New(append([]Option{WithCwd("/project"), WithFileSystem(fs)}, opts...)...)
	require.NoError(t, err)
	return g, fs
}

// recorder collects notifications by event.
type recorder struct {
	mu     sync.Mutex
	events []Notification
}

func (r *recorder) listen(g *Generator) {
	for _, e := range ListenableEvents() {
		g.On(e, r.add)
	}
}

func (r *recorder) add(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, n)
}

func (r *recorder) of(event Event) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, n := range r.events {
		if n.Event == event {
			out = append(out, n)
		}
	}
	return out
}

func TestListenableEvents(t *testing.T) {
	assert.Equal(t, []Event{"write", "finish", "error"}, ListenableEvents())
}

func TestNew_RelativeCwd(t *testing.T) {
	_, err := New(WithCwd("cwd/relative/override"))
	require.Error(t, err)
	assert.Equal(t, `You must provide an absolute cwd path. "cwd/relative/override" is a relative one.`, err.Error())
	assert.ErrorIs(t, err, fsgen.ErrRelativePath)
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(WithEncoding("klingon"))
	assert.ErrorIs(t, err, fsgen.ErrUnknownEncoding)

	_, err = New(WithConcurrency(0))
	assert.ErrorIs(t, err, fsgen.ErrInvalidConfig)

	_, err = New(WithFileSystem(nil))
	assert.ErrorIs(t, err, fsgen.ErrInvalidConfig)
}

func TestNew_DefaultCwd(t *testing.T) {
	g, err := New()
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, g.Cwd())
}

func TestGenerate_EmptyMapFinishesImmediately(t *testing.T) {
	g, _ := newMemoryGenerator(t)
	rec := &recorder{}
	rec.listen(g)

	require.NoError(t, g.Generate(context.Background(), nil))

	finish := rec.of(EventFinish)
	require.Len(t, finish, 1)
	assert.Equal(t, 0, finish[0].Written)
	assert.Empty(t, rec.of(EventWrite))
	assert.Empty(t, rec.of(EventError))
}

func TestGenerate_WritesEveryEntryKind(t *testing.T) {
	g, fs := newMemoryGenerator(t)
	fs.AddFile("/project/templates/LICENSE", "MIT")

	rec := &recorder{}
	rec.listen(g)

	w := writer.MustNew(writer.Options{Write: fsgen.Text("from writer")})
	err := g.Generate(context.Background(), map[string]Entry{
		"/abs/john-connor.txt": "Son of Sarah Connor",
		"nested/sarah.txt":     fsgen.Defer(func() (fsgen.Content, error) { return fsgen.Text("Mother of John"), nil }),
		"bin/t800":             []byte{0x80, 0x00},
		"writer.txt":           w,
		"LICENSE":              fsgen.SourcePath("templates/LICENSE"),
		"build":                fsgen.Directory{},
	})
	require.NoError(t, err)

	for path, want := range map[string]string{
		"/abs/john-connor.txt":      "Son of Sarah Connor",
		"/project/nested/sarah.txt": "Mother of John",
		"/project/bin/t800":         "\x80\x00",
		"/project/writer.txt":       "from writer",
		"/project/LICENSE":          "MIT",
	} {
		data, err := fs.ReadFile(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, string(data), path)
	}

	isDir, err := fs.IsDir("/project/build")
	require.NoError(t, err)
	assert.True(t, isDir)

	writes := rec.of(EventWrite)
	require.Len(t, writes, 6)
	var paths []string
	for _, n := range writes {
		paths = append(paths, n.Filepath)
	}
	sort.Strings(paths)
	assert.Equal(t, []string{
		"/abs/john-connor.txt",
		"/project/LICENSE",
		"/project/bin/t800",
		"/project/build",
		"/project/nested/sarah.txt",
		"/project/writer.txt",
	}, paths)

	finish := rec.of(EventFinish)
	require.Len(t, finish, 1)
	assert.Equal(t, 6, finish[0].Written)
	assert.Equal(t, writes[0].RunID, finish[0].RunID)
}

func TestGenerate_WriteEventFiresAfterFileExists(t *testing.T) {
	dir := t.TempDir()
	g, err := New(WithCwd(dir))
	require.NoError(t, err)

	var missing int32
	g.On(EventWrite, func(n Notification) {
		if _, err := os.Stat(n.Filepath); err != nil {
			atomic.AddInt32(&missing, 1)
		}
	})

	require.NoError(t, g.Generate(context.Background(), map[string]Entry{
		"a/one.txt":   "one",
		"b/c/two.txt": "two",
	}))
	assert.Zero(t, atomic.LoadInt32(&missing))
}

func TestGenerate_Encoding(t *testing.T) {
	tests := []struct {
		name    string
		genOpts []Option
		runOpts []RunOption
		entry   Entry
		want    []byte
	}{
		{"default", nil, nil, "é", []byte{0xc3, 0xa9}},
		{"generator", []Option{WithEncoding("latin1")}, nil, "é", []byte{0xe9}},
		{"run", nil, []RunOption{RunEncoding("latin1")}, "é", []byte{0xe9}},
		{"run overrides generator", []Option{WithEncoding("utf-8")}, []RunOption{RunEncoding("latin1")}, "é", []byte{0xe9}},
		{"use overrides run", nil, []RunOption{RunEncoding("utf-8")}, Use(fsgen.Text("é"), UseEncoding("latin1")), []byte{0xe9}},
		{"file writer keeps its own", []Option{WithEncoding("latin1")}, nil, writer.MustNew(writer.Options{Write: fsgen.Text("é")}), []byte{0xc3, 0xa9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, fs := newMemoryGenerator(t, tt.genOpts...)
			require.NoError(t, g.Generate(context.Background(), map[string]Entry{"out.txt": tt.entry}, tt.runOpts...))

			data, err := fs.ReadFile("/project/out.txt")
			require.NoError(t, err)
			assert.Equal(t, tt.want, data)
		})
	}
}

func TestGenerate_Cwd(t *testing.T) {
	g, fs := newMemoryGenerator(t)

	require.NoError(t, g.Generate(context.Background(), map[string]Entry{"run.txt": "r"}, RunCwd("/override")))
	require.NoError(t, g.Generate(context.Background(), map[string]Entry{"use.txt": Use(fsgen.Text("u"), UseCwd("/elsewhere"))}))

	assert.True(t, fs.Exists("/override/run.txt"))
	assert.True(t, fs.Exists("/elsewhere/use.txt"))
}

func TestGenerate_RelativeCwdIsRejectedBeforeWriting(t *testing.T) {
	g, fs := newMemoryGenerator(t)
	rec := &recorder{}
	rec.listen(g)

	err := g.Generate(context.Background(), map[string]Entry{"a.txt": "a"}, RunCwd("cwd/relative/override"))
	require.Error(t, err)
	assert.Equal(t, `You must provide an absolute cwd path. "cwd/relative/override" is a relative one.`, err.Error())

	err = g.Generate(context.Background(), map[string]Entry{"b.txt": Use(fsgen.Text("b"), UseCwd("cwd/relative/override"))})
	require.Error(t, err)
	var cwdErr *RelativeCwdError
	assert.ErrorAs(t, err, &cwdErr)

	assert.False(t, fs.Exists("/project/a.txt"))
	assert.False(t, fs.Exists("/project/b.txt"))
	assert.Empty(t, rec.events)
}

func TestGenerate_PlanErrors(t *testing.T) {
	g, _ := newMemoryGenerator(t)

	tests := []struct {
		name    string
		entries map[string]Entry
		target  error
	}{
		{"unsupported type", map[string]Entry{"a": 42}, fsgen.ErrInvalidWriter},
		{"nil entry", map[string]Entry{"a": nil}, fsgen.ErrInvalidWriter},
		{"empty binding", map[string]Entry{"a": Binding{}}, fsgen.ErrInvalidWriter},
		{"duplicate destination", map[string]Entry{"a.txt": "1", "/project/a.txt": "2"}, fsgen.ErrInvalidConfig},
		{"bad use encoding", map[string]Entry{"a": Use(fsgen.Text("x"), UseEncoding("klingon"))}, fsgen.ErrUnknownEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Generate(context.Background(), tt.entries)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestGenerate_FailuresAreAggregated(t *testing.T) {
	g, fs := newMemoryGenerator(t)
	rec := &recorder{}
	rec.listen(g)

	worse := fsgen.ContentProducer(func(done func(fsgen.Content, error)) {
		done(nil, errors.New("bust"))
	})
	err := g.Generate(context.Background(), map[string]Entry{
		"ok.txt":    "fine",
		"bad.txt":   fsgen.Rejected(errors.New("boom")),
		"worse.txt": worse,
	})
	require.Error(t, err)

	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.ErrorIs(t, err, fsgen.ErrGenerationFailed)
	assert.Equal(t, 3, runErr.Total)
	require.Len(t, runErr.Failures, 2)
	assert.Equal(t, "/project/bad.txt", runErr.Failures[0].Path)
	assert.Equal(t, `Error getting the content of "/project/bad.txt" => boom`, runErr.Failures[0].Err.Error())
	assert.Equal(t, "/project/worse.txt", runErr.Failures[1].Path)

	var resErr *fsgen.ResolutionError
	assert.ErrorAs(t, err, &resErr)
	assert.Error(t, runErr.Joined())

	// The sibling still ran to completion.
	data, readErr := fs.ReadFile("/project/ok.txt")
	require.NoError(t, readErr)
	assert.Equal(t, "fine", string(data))

	assert.Len(t, rec.of(EventWrite), 1)
	assert.Empty(t, rec.of(EventFinish))
	errs := rec.of(EventError)
	require.Len(t, errs, 1)
	assert.Same(t, runErr, errs[0].Err)
}

func TestRunError_SingleFailureMessage(t *testing.T) {
	err := &RunError{Total: 1, Failures: []PathFailure{{Path: "/a", Err: errors.New("mkdirp dependency error")}}}
	assert.Equal(t, "generation failed: /a: mkdirp dependency error", err.Error())
}

func TestGenerate_EventData(t *testing.T) {
	g, _ := newMemoryGenerator(t, WithEventData("instance"))
	rec := &recorder{}
	rec.listen(g)

	require.NoError(t, g.Generate(context.Background(), map[string]Entry{"a": "a"}))
	require.NoError(t, g.Generate(context.Background(), map[string]Entry{"b": "b"}, RunEventData(map[string]int{"n": 1})))

	finish := rec.of(EventFinish)
	require.Len(t, finish, 2)
	assert.Equal(t, "instance", finish[0].Data)
	assert.Equal(t, map[string]int{"n": 1}, finish[1].Data)
	assert.NotEqual(t, finish[0].RunID, finish[1].RunID)
}

func TestOnOff(t *testing.T) {
	g, _ := newMemoryGenerator(t)

	var pass1, pass2, pass3 int32
	count := func(c *int32) Listener {
		return func(Notification) { atomic.AddInt32(c, 1) }
	}

	g.On(EventFinish, count(&pass1))
	sub2 := g.On(EventFinish, count(&pass2))
	g.On(EventError, count(&pass3))
	g.On(EventWrite, count(&pass3))

	assert.True(t, g.Off(sub2))
	assert.False(t, g.Off(sub2), "second Off is a no-op")
	assert.Equal(t, EventFinish, sub2.Event())

	require.NoError(t, g.Generate(context.Background(), nil))

	assert.Equal(t, int32(1), atomic.LoadInt32(&pass1))
	assert.Zero(t, atomic.LoadInt32(&pass2))
	assert.Zero(t, atomic.LoadInt32(&pass3))

	assert.Equal(t, 2, g.OffAll(""))
	require.NoError(t, g.Generate(context.Background(), nil))
	assert.Equal(t, int32(1), atomic.LoadInt32(&pass1))
}

func TestOn_NilListener(t *testing.T) {
	g, _ := newMemoryGenerator(t)
	sub := g.On(EventWrite, nil)
	assert.False(t, g.Off(sub))
}

func TestGenerate_ListenersAreInstanceScoped(t *testing.T) {
	g1, _ := newMemoryGenerator(t)
	g2, _ := newMemoryGenerator(t)

	var calls int32
	g1.On(EventFinish, func(Notification) { atomic.AddInt32(&calls, 1) })

	require.NoError(t, g2.Generate(context.Background(), nil))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestGenerate_ConcurrencyLimit(t *testing.T) {
	var active, peak int32
	slow := func() fsgen.Content {
		return fsgen.Defer(func() (fsgen.Content, error) {
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return fsgen.Text("x"), nil
		})
	}

	g, _ := newMemoryGenerator(t, WithConcurrency(2))
	entries := map[string]Entry{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		entries[name] = slow()
	}

	require.NoError(t, g.Generate(context.Background(), entries))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestGenerate_ConcurrentRunsOnSameDestination(t *testing.T) {
	g, _ := newMemoryGenerator(t)

	release := make(chan struct{})
	started := make(chan struct{})
	blocking := fsgen.ContentProducer(func(done func(fsgen.Content, error)) {
		close(started)
		<-release
		done(fsgen.Text("first"), nil)
	})

	firstErr := make(chan error, 1)
	go func() {
		firstErr <- g.Generate(context.Background(), map[string]Entry{"shared.txt": blocking})
	}()
	<-started

	err := g.Generate(context.Background(), map[string]Entry{"shared.txt": "second", "other.txt": "ok"})
	close(release)

	require.Error(t, err)
	assert.ErrorIs(t, err, fsgen.ErrDestinationBusy)
	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	require.Len(t, runErr.Failures, 1)
	assert.Equal(t, "/project/shared.txt", runErr.Failures[0].Path)

	require.NoError(t, <-firstErr)

	// Released after the first run finished.
	require.NoError(t, g.Generate(context.Background(), map[string]Entry{"shared.txt": "third"}))
}

func TestGenerate_RetriesTransientFailures(t *testing.T) {
	var attempts int32
	fs := &filesystem.Override{
		Base: filesystem.NewMemoryFileSystem(),
		WriteFileFunc: func(path string, data []byte) error {
			if atomic.AddInt32(&attempts, 1) < 3 {
				return &os.PathError{Op: "write", Path: path, Err: syscall.EBUSY}
			}
			return nil
		},
	}

	executor := retry.NewExecutor(retry.NewFileSystemErrorClassifier(),
		retry.NewExponentialBackoff(5, retry.WithInitialDelay(time.Millisecond), retry.WithJitter(0)))

	g, err := New(WithCwd("/project"), WithFileSystem(fs), WithRetry(executor))
	require.NoError(t, err)

	require.NoError(t, g.Generate(context.Background(), map[string]Entry{"flaky.txt": "x"}))
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func fastRetry() *retry.Executor {
	return retry.NewExecutor(retry.NewFileSystemErrorClassifier(),
		retry.NewExponentialBackoff(3, retry.WithInitialDelay(time.Millisecond), retry.WithJitter(0)))
}

func TestGenerate_RetryRewritesSettledContent(t *testing.T) {
	mem := filesystem.NewMemoryFileSystem()
	var attempts int32
	fs := &filesystem.Override{
		Base: mem,
		WriteFileFunc: func(path string, data []byte) error {
			if atomic.AddInt32(&attempts, 1) == 1 {
				return &os.PathError{Op: "write", Path: path, Err: syscall.EBUSY}
			}
			return mem.WriteFile(path, data)
		},
	}

	g, err := New(WithCwd("/project"), WithFileSystem(fs), WithRetry(fastRetry()))
	require.NoError(t, err)

	require.NoError(t, g.Generate(context.Background(), map[string]Entry{
		"p.txt": fsgen.Resolved(fsgen.Text("deferred")),
	}))
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))

	data, err := mem.ReadFile("/project/p.txt")
	require.NoError(t, err)
	assert.Equal(t, "deferred", string(data))
}

// plainReader hides every interface but io.Reader, so io.Copy reads in chunks.
type plainReader struct{ r io.Reader }

func (p plainReader) Read(b []byte) (int, error) { return p.r.Read(b) }

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }
func (w failingWriter) Close() error              { return nil }

func TestGenerate_SpentStreamIsNotRetried(t *testing.T) {
	mem := filesystem.NewMemoryFileSystem()
	var attempts int32
	fs := &filesystem.Override{
		Base: mem,
		CreateWriterFunc: func(path string) (io.WriteCloser, error) {
			if atomic.AddInt32(&attempts, 1) == 1 {
				return failingWriter{err: syscall.EAGAIN}, nil
			}
			return mem.CreateWriter(path)
		},
	}

	g, err := New(WithCwd("/project"), WithFileSystem(fs), WithRetry(fastRetry()))
	require.NoError(t, err)

	err = g.Generate(context.Background(), map[string]Entry{
		"s.txt": fsgen.Stream{Reader: plainReader{r: strings.NewReader("body")}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, fsgen.ErrNotReplayable)
	assert.ErrorIs(t, err, syscall.EAGAIN)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
	assert.False(t, mem.Exists("/project/s.txt"))
}

func TestGenerate_CopiedFileIsRetried(t *testing.T) {
	mem := filesystem.NewMemoryFileSystem()
	mem.AddFile("/src/a.txt", "payload")
	var attempts int32
	fs := &filesystem.Override{
		Base: mem,
		CreateWriterFunc: func(path string) (io.WriteCloser, error) {
			if atomic.AddInt32(&attempts, 1) == 1 {
				return failingWriter{err: syscall.EAGAIN}, nil
			}
			return mem.CreateWriter(path)
		},
	}

	g, err := New(WithCwd("/project"), WithFileSystem(fs), WithRetry(fastRetry()))
	require.NoError(t, err)

	require.NoError(t, g.Generate(context.Background(), map[string]Entry{
		"copy.txt": UseCopy(fsgen.SourcePath("/src/a.txt")),
	}))
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))

	data, err := mem.ReadFile("/project/copy.txt")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestGenerate_ListenerCanStartNestedRun(t *testing.T) {
	g, fs := newMemoryGenerator(t)

	nested := make(chan error, 1)
	g.On(EventFinish, func(n Notification) {
		if n.Data != "outer" {
			return
		}
		nested <- g.Generate(context.Background(), map[string]Entry{
			"a.txt": "rewritten",
			"b.txt": "b",
		}, RunEventData("inner"))
	})
	var writes int32
	g.On(EventWrite, func(Notification) { atomic.AddInt32(&writes, 1) })

	done := make(chan error, 1)
	go func() {
		done <- g.Generate(context.Background(), map[string]Entry{"a.txt": "a"}, RunEventData("outer"))
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("outer run did not return")
	}
	require.NoError(t, <-nested)

	data, err := fs.ReadFile("/project/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "rewritten", string(data))
	assert.True(t, fs.Exists("/project/b.txt"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&writes))
}

func TestGenerate_Checksum(t *testing.T) {
	g, _ := newMemoryGenerator(t, WithChecksum(checksum.New()))
	rec := &recorder{}
	rec.listen(g)

	require.NoError(t, g.Generate(context.Background(), map[string]Entry{
		"hello.txt": "hello",
		"dir":       fsgen.Directory{},
	}))

	digests := map[string]string{}
	for _, n := range rec.of(EventWrite) {
		digests[filepath.Base(n.Filepath)] = n.Digest
	}
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", digests["hello.txt"])
	assert.Empty(t, digests["dir"])
}

func TestGenerate_CanceledContext(t *testing.T) {
	g, fs := newMemoryGenerator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.Generate(ctx, map[string]Entry{"a.txt": "a"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, fs.Exists("/project/a.txt"))
}
