package cli

import (
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/celltrack/pkg/pipeline"
)

// dataFileExts are the extensions offered when completing a data file argument.
var dataFileExts = []string{"json", "aut"}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for celltrack.

Data file arguments complete to .json and .aut files, --format to the
lineage tree formats and 'store get' and 'store rm' to the IDs in the
configured store.

Bash:
  $ source <(celltrack completion bash)

Zsh:
  $ celltrack completion zsh > "${fpath[1]}/_celltrack"

Fish:
  $ celltrack completion fish > ~/.config/fish/completions/celltrack.fish

PowerShell:
  PS> celltrack completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(os.Stdout, true)
			case "zsh":
				return root.GenZshCompletion(os.Stdout)
			case "fish":
				return root.GenFishCompletion(os.Stdout, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// completeDataFiles completes the single data file argument of a command.
func completeDataFiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return dataFileExts, cobra.ShellCompDirectiveFilterFileExt
}

// completeFormats completes --format with the supported lineage tree formats.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, f := range slices.Sorted(maps.Keys(pipeline.ValidFormats)) {
		if strings.HasPrefix(f, toComplete) {
			out = append(out, f)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeStoredIDs completes the IDs of stored data files, described by
// their names. IDs already on the command line are left out.
func (c *CLI) completeStoredIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Completion bypasses PersistentPreRunE, so the config is not loaded yet.
	if err := c.loadConfig(); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	s, err := c.openStore(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer s.Close()
	entries, err := s.List(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, e := range entries {
		if !strings.HasPrefix(e.ID, toComplete) || slices.Contains(args, e.ID) {
			continue
		}
		out = append(out, e.ID+"\t"+e.Name)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
