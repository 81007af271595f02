package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vvka-141/fsgen/internal/logging"
	"github.com/vvka-141/fsgen/pkg/fsgen"
)

// RunFunc performs one generation. Its error is logged and watching goes on.
type RunFunc func(ctx context.Context) error

// PathsFunc returns the paths to observe. It is called again after every
// run, so the watched set follows changes to the manifest.
type PathsFunc func() []string

// Watcher reruns a RunFunc when any of its paths changes.
type Watcher struct {
	run      RunFunc
	paths    PathsFunc
	debounce time.Duration
	logger   fsgen.Logger

	fw    *fsnotify.Watcher
	files map[string]bool
	roots []string
	dirs  map[string]bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the watcher waits for events to settle.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger for watch diagnostics and run failures.
func WithLogger(l fsgen.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a Watcher that calls run for changes under paths.
func New(run RunFunc, paths PathsFunc, opts ...Option) *Watcher {
	w := &Watcher{
		run:      run,
		paths:    paths,
		debounce: fsgen.WatchDebounce,
		logger:   logging.NewNullLogger(),
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run performs a first run, then reruns on every settled change until ctx
// is done. It returns nil when ctx ends and an error only when watching
// itself cannot start.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	defer fw.Close()
	w.fw = fw

	w.execute(ctx)
	if err := w.sync(); err != nil {
		return err
	}

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Verbose("watch: %s %s", event.Op, event.Name)
			w.follow(event)
			pending = true
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.logger.Error("watch error: %v", err)
			}
		case <-debounce.C:
			if !pending {
				continue
			}
			pending = false
			w.execute(ctx)
			if err := w.sync(); err != nil {
				w.logger.Error("watch: %v", err)
			}
		}
	}
}

func (w *Watcher) execute(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := w.run(ctx); err != nil {
		w.logger.Error("watch run failed: %v", err)
	}
}

// sync reconciles the fsnotify watch list with the current paths.
func (w *Watcher) sync() error {
	files := make(map[string]bool)
	var roots []string
	want := make(map[string]bool)

	for _, p := range w.paths() {
		p = filepath.Clean(p)
		info, err := os.Stat(p)
		if err == nil && info.IsDir() {
			roots = append(roots, p)
			for _, d := range subdirs(p) {
				want[d] = true
			}
			continue
		}
		// files and paths that do not exist yet are matched by name
		files[p] = true
		if parent := filepath.Dir(p); isDir(parent) {
			want[parent] = true
		}
	}

	for d := range w.dirs {
		if !want[d] {
			_ = w.fw.Remove(d)
			delete(w.dirs, d)
		}
	}
	for d := range want {
		if w.dirs[d] {
			continue
		}
		if err := w.fw.Add(d); err != nil {
			return fmt.Errorf("unable to watch %s: %w", d, err)
		}
		w.dirs[d] = true
	}

	w.files = files
	w.roots = roots
	w.logger.Verbose("watch: observing %d path(s) in %d directories", len(files)+len(roots), len(w.dirs))
	return nil
}

// relevant reports whether event concerns a watched path.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Name == "" || event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(event.Name)
	if w.files[name] {
		return true
	}
	for _, root := range w.roots {
		if name == root || strings.HasPrefix(name, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// follow starts watching directories created inside a watched tree.
func (w *Watcher) follow(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) || !isDir(event.Name) {
		return
	}
	for _, d := range subdirs(event.Name) {
		if w.dirs[d] {
			continue
		}
		if err := w.fw.Add(d); err == nil {
			w.dirs[d] = true
		}
	}
}

func subdirs(root string) []string {
	var out []string
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			out = append(out, p)
		}
		return nil
	})
	return out
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
