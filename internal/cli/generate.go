package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/fsgen/internal/checksum"
	"github.com/vvka-141/fsgen/internal/config"
	"github.com/vvka-141/fsgen/internal/generate"
	"github.com/vvka-141/fsgen/internal/logging"
	"github.com/vvka-141/fsgen/internal/retry"
	"github.com/vvka-141/fsgen/internal/tui"
	"github.com/vvka-141/fsgen/internal/watch"
	"github.com/vvka-141/fsgen/pkg/fsgen"
)

var generateCmd = &cobra.Command{
	Use:   "generate [manifest]",
	Short: "Write every destination of a manifest",
	Long: `Generate loads a manifest and writes each destination it describes.

The argument names the manifest file or the directory containing
fsgen.yaml, and defaults to the current directory. Flags override the
matching manifest settings.

Examples:
  fsgen generate
  fsgen generate ./site/fsgen.yaml --cwd ./public
  fsgen generate --env-file prod.env --json
  fsgen generate --watch`,
	Args:              OptionalPath(config.ManifestFileName),
	ValidArgsFunction: completeManifests,
	RunE:              runGenerate,
}

// generateOptions holds the generate flags. Zero values (and -1 for
// retries) leave the manifest setting in place.
type generateOptions struct {
	cwd         string
	encoding    string
	concurrency int
	retries     int
	timeout     time.Duration
	envFiles    []string
	watch       bool
	json        bool
}

var generateFlags = defaultGenerateOptions()

func defaultGenerateOptions() generateOptions {
	return generateOptions{retries: -1}
}

func resetGenerateFlags() {
	generateFlags = defaultGenerateOptions()
}

func init() {
	rootCmd.AddCommand(generateCmd)

	f := generateCmd.Flags()
	f.StringVar(&generateFlags.cwd, "cwd", "", "Directory relative destinations resolve against")
	f.StringVar(&generateFlags.encoding, "encoding", "", "Text encoding for content entries (default utf-8)")
	f.IntVar(&generateFlags.concurrency, "concurrency", 0, "Maximum destinations written at once")
	f.IntVar(&generateFlags.retries, "retries", -1, "Retries for transient filesystem errors")
	f.DurationVar(&generateFlags.timeout, "timeout", 0, "Abort a run after this duration (e.g. 30s)")
	f.StringSliceVar(&generateFlags.envFiles, "env-file", nil, "Additional dotenv file (repeatable)")
	f.BoolVar(&generateFlags.watch, "watch", false, "Regenerate whenever the manifest or its sources change")
	f.BoolVar(&generateFlags.json, "json", false, "Print the run report as JSON")

	_ = generateCmd.RegisterFlagCompletionFunc("encoding", completeEncodings)
	_ = generateCmd.RegisterFlagCompletionFunc("cwd", completeDirectories)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	manifestPath := pathArg(args, ".")
	logger := newLogger(cmd)
	opts := generateFlags

	if !opts.watch {
		_, err := generateOnce(commandContext(cmd), cmd, manifestPath, opts, logger)
		return err
	}

	// the watcher calls run and paths from one goroutine
	paths := []string{manifestFile(manifestPath)}
	run := func(ctx context.Context) error {
		watched, err := generateOnce(ctx, cmd, manifestPath, opts, logger)
		if len(watched) > 0 {
			paths = watched
		}
		return err
	}

	w := watch.New(run, func() []string { return paths }, watch.WithLogger(logger))
	logger.Info("Watching %s for changes (Ctrl+C to stop)", paths[0])
	return w.Run(commandContext(cmd))
}

// generateOnce loads the manifest, runs it and prints the report. It returns
// the manifest inputs for watching, even when the run failed.
func generateOnce(ctx context.Context, cmd *cobra.Command, manifestPath string, opts generateOptions, logger fsgen.Logger) ([]string, error) {
	m, err := config.Load(manifestPath, config.WithEnvFiles(opts.envFiles...))
	if err != nil {
		return nil, err
	}
	watched := m.WatchPaths()

	gen, err := newGenerator(m, opts, logger)
	if err != nil {
		return watched, err
	}
	entries, err := m.Entries()
	if err != nil {
		return watched, err
	}

	timeout := opts.timeout
	if timeout == 0 {
		if timeout, err = m.TimeoutDuration(); err != nil {
			return watched, err
		}
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report := tui.NewReport(gen.Cwd())
	gen.On(generate.EventWrite, report.Record)
	gen.On(generate.EventError, report.Record)

	logger.Verbose("Generating %d destination(s) from %s", len(entries), m.Path())
	start := time.Now()
	runErr := gen.Generate(ctx, entries)
	report.SetDuration(time.Since(start))
	if runErr != nil && report.OK() {
		report.AddError(runErr)
	}

	if err := tui.Render(cmd.OutOrStdout(), report, outputFormat(cmd, opts.json)); err != nil {
		return watched, fmt.Errorf("failed to print report: %w", err)
	}
	return watched, runErr
}

// newGenerator applies flag overrides on top of the manifest settings.
func newGenerator(m *config.Manifest, opts generateOptions, logger fsgen.Logger) (*generate.Generator, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	cwd := m.ResolvedCwd()
	if opts.cwd != "" {
		abs, err := filepath.Abs(opts.cwd)
		if err != nil {
			return nil, fmt.Errorf("%w: --cwd: %w", fsgen.ErrInvalidConfig, err)
		}
		cwd = abs
	}

	encodingName := m.Encoding
	if opts.encoding != "" {
		encodingName = opts.encoding
	}

	concurrency := m.Concurrency
	if opts.concurrency != 0 {
		concurrency = opts.concurrency
	}

	retries := m.Retries
	if opts.retries >= 0 {
		retries = opts.retries
	}

	genOpts := []generate.Option{
		generate.WithCwd(cwd),
		generate.WithLogger(logger),
		generate.WithChecksum(checksum.New()),
	}
	if encodingName != "" {
		genOpts = append(genOpts, generate.WithEncoding(encodingName))
	}
	if concurrency != 0 {
		genOpts = append(genOpts, generate.WithConcurrency(concurrency))
	}
	if retries > 0 {
		executor := retry.NewExecutor(
			retry.NewFileSystemErrorClassifier(),
			retry.NewExponentialBackoff(retries),
		).WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Verbose("Retry %d/%d in %v: %v", attempt+1, retries, delay, err)
		})
		genOpts = append(genOpts, generate.WithRetry(executor))
	}

	return generate.New(genOpts...)
}

// outputFormat styles the report only when stdout is a terminal.
func outputFormat(cmd *cobra.Command, asJSON bool) tui.Format {
	mode := tui.ModePlain
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		mode = tui.DetectMode(f)
	}
	return tui.FormatFor(mode, asJSON)
}

// manifestFile returns the manifest path the watcher observes before the
// first successful load.
func manifestFile(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return filepath.Join(abs, config.ManifestFileName)
	}
	return abs
}
