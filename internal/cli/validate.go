package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/fsgen/internal/config"
)

var validateEnvFiles []string

var validateCmd = &cobra.Command{
	Use:   "validate [manifest]",
	Short: "Check a manifest without writing anything",
	Long: `Validate runs the schema and semantic checks of a manifest and
expands its placeholders, without touching any destination.`,
	Args:              OptionalPath(config.ManifestFileName),
	ValidArgsFunction: completeManifests,
	RunE:              runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringSliceVar(&validateEnvFiles, "env-file", nil, "Additional dotenv file (repeatable)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	m, err := config.Load(pathArg(args, "."), config.WithEnvFiles(validateEnvFiles...))
	if err != nil {
		return err
	}

	newLogger(cmd).Verbose("Destinations resolve against %s", m.ResolvedCwd())
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d destination(s)\n", m.Path(), len(m.Files))
	return nil
}
