package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/vvka-141/fsgen/internal/logging"
	"github.com/vvka-141/fsgen/pkg/fsgen"
	_ "github.com/vvka-141/fsgen/schemas"
)

var rootCmd = &cobra.Command{
	Use:   "fsgen",
	Short: "Declarative file generation",
	Long: `fsgen writes files, directories and copies described in a manifest.

A manifest (fsgen.yaml) maps destinations to their content: literal text,
base64 payloads, copies of existing files or directories, and empty
directories. Missing parent directories are created on the way.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid manifest, options or writer configuration
  12 - At least one destination could not be written
  14 - Manifest not found`,
	SilenceUsage: true,
}

// Execute runs the root command. An interrupt cancels the command context.
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout, os.Stderr)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

// newLogger returns the console logger for cmd, writing to its stderr.
func newLogger(cmd *cobra.Command) fsgen.Logger {
	return logging.NewConsoleLoggerTo(cmd.ErrOrStderr(), getVerboseFlag(cmd))
}

// commandContext returns the command context, or a background context when
// the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
