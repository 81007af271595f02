package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// OptionalPath validates that at most one <name> argument is provided.
// The error keeps cobra's "accepts" prefix so it maps to the usage exit code.
func OptionalPath(name string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > 1 {
			return fmt.Errorf(`accepts at most 1 arg(s), received %d

Usage: %s

Example:
  %s ./%s`, len(args), cmd.UseLine(), cmd.CommandPath(), name)
		}
		return nil
	}
}

// pathArg returns the first argument or def when none was given.
func pathArg(args []string, def string) string {
	if len(args) == 0 || args[0] == "" {
		return def
	}
	return args[0]
}
