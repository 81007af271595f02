package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/vvka-141/fsgen/internal/scaffold"
	"github.com/vvka-141/fsgen/internal/tui"
)

var initCmd = &cobra.Command{
	Use:   "init [target_path]",
	Short: "Initialize a new fsgen project",
	Long: `Initialize an fsgen project into the specified directory.

The init command writes:
- fsgen.yaml, a starter manifest
- .env with the variables the manifest expands
- templates/, the files the manifest copies

Target directory must be empty or non-existent. Without an argument the
current directory is used.

Examples:
  fsgen init                     # Initialize in current directory
  fsgen init ./myproject         # Initialize in ./myproject
  fsgen init -t minimal ./demo   # Use the minimal template

Without --template on an interactive terminal, init asks which template
to use. Use 'fsgen init --list' to see all available templates.`,
	Args:              OptionalPath("myproject"),
	ValidArgsFunction: completeDirectories,
	RunE:              runInit,
}

var (
	initTemplate string
	initList     bool

	// pickTemplate asks for a template when none was given on the command line.
	pickTemplate = promptTemplate
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initTemplate, "template", "t", scaffold.DefaultTemplate, "Template to use")
	initCmd.Flags().BoolVar(&initList, "list", false, "List available templates")
	_ = initCmd.RegisterFlagCompletionFunc("template", completeTemplateNames)
}

func runInit(cmd *cobra.Command, args []string) error {
	templates, err := scaffold.ListTemplates()
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}

	if initList {
		for _, t := range templates {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	}

	if !cmd.Flags().Changed("template") {
		chosen, err := pickTemplate(cmd, templates)
		if errors.Is(err, tui.ErrCancelled) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("template selection failed: %w", err)
		}
		initTemplate = chosen
	}

	if !slices.Contains(templates, initTemplate) {
		return fmt.Errorf("invalid template '%s'. Available templates: %v", initTemplate, templates)
	}

	targetPath := pathArg(args, ".")
	projectName := projectNameFor(targetPath)

	scaffolder := scaffold.NewScaffolder(newLogger(cmd), nil)
	if _, err := scaffolder.CreateProject(commandContext(cmd), projectName, initTemplate, targetPath); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	out := cmd.ErrOrStderr()
	tree, err := scaffold.BuildFileTree(targetPath)
	if err != nil {
		// Non-fatal - just skip tree display
		fmt.Fprintf(out, "\n✓ Project initialized successfully in '%s' using template '%s'\n\n", targetPath, initTemplate)
	} else {
		fmt.Fprintf(out, "\n✓ Project initialized successfully using template '%s'\n\n", initTemplate)
		fmt.Fprintln(out, "Created structure:")
		fmt.Fprint(out, tree)
	}

	fmt.Fprintln(out, "\nNext steps:")
	if targetPath != "." {
		fmt.Fprintf(out, "  cd %s\n", targetPath)
	}
	fmt.Fprintln(out, "  fsgen generate")
	fmt.Fprintln(out, "  # Or regenerate on every change:")
	fmt.Fprintln(out, "  fsgen generate --watch")

	return nil
}

// promptTemplate shows the template picker on an interactive terminal and
// keeps the --template default everywhere else.
func promptTemplate(cmd *cobra.Command, templates []string) (string, error) {
	if !tui.IsInteractive(cmd.InOrStdin(), cmd.OutOrStdout()) {
		return initTemplate, nil
	}

	choices := make([]tui.Choice, 0, len(templates))
	for _, name := range templates {
		choices = append(choices, tui.Choice{Value: name, Description: scaffold.DescribeTemplate(name)})
	}
	return tui.Pick(cmd.InOrStdin(), cmd.OutOrStdout(), "Select a template", choices, initTemplate)
}

// projectNameFor derives the project name from the target directory.
func projectNameFor(targetPath string) string {
	name := filepath.Base(targetPath)
	if name != "." && name != ".." && name != string(filepath.Separator) {
		return name
	}
	if abs, err := filepath.Abs(targetPath); err == nil && filepath.Base(abs) != string(filepath.Separator) {
		return filepath.Base(abs)
	}
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Base(cwd)
	}
	return "project"
}
