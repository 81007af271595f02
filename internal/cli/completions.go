package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/fsgen/internal/scaffold"
)

// encodingNames are offered for --encoding. Any IANA charset name is accepted.
var encodingNames = []string{"utf-8", "latin1", "utf16le", "ucs2", "base64", "hex", "windows-1252", "shift_jis"}

// completeTemplateNames provides shell completion for template names.
func completeTemplateNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	templates, err := scaffold.ListTemplates()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return withPrefix(templates, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeEncodings provides shell completion for --encoding.
func completeEncodings(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return withPrefix(encodingNames, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeManifests offers YAML files and directories for the manifest argument.
func completeManifests(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
}

// completeDirectories provides shell completion for directory paths.
func completeDirectories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveFilterDirs
}

func withPrefix(values []string, prefix string) []string {
	var matches []string
	for _, v := range values {
		if strings.HasPrefix(v, prefix) {
			matches = append(matches, v)
		}
	}
	return matches
}
