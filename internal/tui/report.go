package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/vvka-141/fsgen/internal/generate"
)

// Format selects how a Report is rendered.
type Format int

const (
	FormatPlain Format = iota
	FormatStyled
	FormatJSON
)

// FormatFor returns the format for mode, or FormatJSON when asJSON is set.
func FormatFor(mode Mode, asJSON bool) Format {
	switch {
	case asJSON:
		return FormatJSON
	case mode == ModeStyled:
		return FormatStyled
	}
	return FormatPlain
}

// FileResult is one written destination.
type FileResult struct {
	Path   string `json:"path"`
	Kind   string `json:"kind"`
	Bytes  int64  `json:"bytes"`
	SHA256 string `json:"sha256,omitempty"`
}

// Failure is one destination that could not be written.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Report summarizes one generation run.
type Report struct {
	RunID      string       `json:"run_id,omitempty"`
	Cwd        string       `json:"cwd"`
	Files      []FileResult `json:"files"`
	Failures   []Failure    `json:"failures,omitempty"`
	DurationMS int64        `json:"duration_ms"`
}

// NewReport creates an empty report for a run rooted at cwd.
func NewReport(cwd string) *Report {
	return &Report{Cwd: cwd, Files: []FileResult{}}
}

// Record adds a generator notification. It is meant to be registered as a
// listener for every event of a run.
func (r *Report) Record(n generate.Notification) {
	if n.RunID != "" {
		r.RunID = n.RunID
	}
	switch n.Event {
	case generate.EventWrite:
		r.Files = append(r.Files, FileResult{
			Path:   n.Filepath,
			Kind:   n.Kind,
			Bytes:  n.Bytes,
			SHA256: n.Digest,
		})
	case generate.EventError:
		r.AddError(n.Err)
	}
}

// AddError records err. Per-destination failures of a run are listed one
// by one; any other error is recorded against the cwd.
func (r *Report) AddError(err error) {
	if err == nil {
		return
	}
	var runErr *generate.RunError
	if errors.As(err, &runErr) {
		for _, f := range runErr.Failures {
			r.addFailure(f.Path, f.Err.Error())
		}
		return
	}
	r.addFailure(r.Cwd, err.Error())
}

func (r *Report) addFailure(path, msg string) {
	for _, f := range r.Failures {
		if f.Path == path && f.Error == msg {
			return
		}
	}
	r.Failures = append(r.Failures, Failure{Path: path, Error: msg})
}

// SetDuration records how long the run took.
func (r *Report) SetDuration(d time.Duration) {
	r.DurationMS = d.Milliseconds()
}

// OK reports whether the run had no failures.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

func (r *Report) sort() {
	sort.Slice(r.Files, func(i, j int) bool { return r.Files[i].Path < r.Files[j].Path })
	sort.Slice(r.Failures, func(i, j int) bool { return r.Failures[i].Path < r.Failures[j].Path })
}

// display shortens p relative to the cwd when it lies below it.
func (r *Report) display(p string) string {
	if r.Cwd == "" {
		return p
	}
	rel, err := filepath.Rel(r.Cwd, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return p
	}
	return filepath.ToSlash(rel)
}

// Render writes r to w in the given format.
func Render(w io.Writer, r *Report, format Format) error {
	r.sort()
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatStyled:
		_, err := io.WriteString(w, renderStyled(r))
		return err
	}
	return renderPlain(w, r)
}

func renderPlain(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, f := range r.Files {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.display(f.Path), f.Kind, f.Bytes, digestOrDash(f.SHA256))
	}
	for _, f := range r.Failures {
		fmt.Fprintf(tw, "%s\tfailed\t-\t%s\n", r.display(f.Path), f.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, summary(r))
	return err
}

func renderStyled(r *Report) string {
	width := 0
	for _, f := range r.Files {
		width = max(width, len(r.display(f.Path)))
	}
	for _, f := range r.Failures {
		width = max(width, len(r.display(f.Path)))
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("fsgen") + " " + MutedStyle.Render(r.Cwd) + "\n\n")

	for _, f := range r.Files {
		digest := ""
		if f.SHA256 != "" {
			digest = MutedStyle.Render(shortDigest(f.SHA256))
		}
		fmt.Fprintf(&b, "%s %s  %-9s %8s  %s\n",
			SuccessStyle.Render(SymbolCheck),
			PathStyle.Render(pad(r.display(f.Path), width)),
			f.Kind,
			humanBytes(f.Bytes),
			digest,
		)
	}
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "%s %s  %s\n",
			ErrorStyle.Render(SymbolCross),
			PathStyle.Render(pad(r.display(f.Path), width)),
			ErrorStyle.Render(f.Error),
		)
	}

	status := SuccessStyle.Render(summary(r))
	if !r.OK() {
		status = ErrorStyle.Render(summary(r))
	}
	b.WriteString("\n" + BoxStyle.Render(status) + "\n")
	return b.String()
}

func summary(r *Report) string {
	if r.OK() {
		return fmt.Sprintf("wrote %d destination(s) in %dms", len(r.Files), r.DurationMS)
	}
	return fmt.Sprintf("failed %d of %d destination(s) in %dms", len(r.Failures), len(r.Files)+len(r.Failures), r.DurationMS)
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func digestOrDash(d string) string {
	if d == "" {
		return "-"
	}
	return d
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
