package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/celltrack/pkg/analysis/markers"
	ctio "github.com/matzehuels/celltrack/pkg/io"
)

// issuesCommand creates the issues command, an interactive browser for the
// errors and warnings in a data file.
func (c *CLI) issuesCommand() *cobra.Command {
	var (
		output   string
		validate bool
		list     bool
	)

	cmd := &cobra.Command{
		Use:   "issues [file]",
		Short: "Review and dismiss tracking errors",
		Long: `Browse the errors and warnings of a data file and dismiss them one at a
time. Dismissed errors stay dismissed when the same problem is found again.

The links are validated first, so new problems show up as well. Changes are
saved when leaving with 's'.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDataFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := c.loadExperiment(args[0])
			if err != nil {
				return err
			}
			flagged := 0
			if validate {
				flagged = markers.ApplyValidation(exp.Links, exp.Links.Validate())
			}

			if list {
				issues := collectIssues(exp.Links)
				if len(issues) == 0 {
					printSuccess("No open issues")
				}
				for _, is := range issues {
					printIssue(is)
				}
				return nil
			}

			model := NewIssueListModel(exp.Links)
			if len(model.Issues) == 0 {
				printSuccess("No open issues")
				return nil
			}
			final, err := tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return fmt.Errorf("issue browser: %w", err)
			}
			result := final.(IssueListModel)
			if !result.Save {
				printInfo("Left without saving")
				return nil
			}
			path := outputPath(args[0], output)
			if err := ctio.ExportJSON(exp, path); err != nil {
				return fmt.Errorf("save %s: %w", path, err)
			}
			printSuccess("Dismissed %d issues, flagged %d new", result.Dismissed, flagged)
			printFile(path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	cmd.Flags().BoolVar(&validate, "validate", true, "flag new integrity problems before browsing")
	cmd.Flags().BoolVar(&list, "list", false, "print the issues instead of browsing them")

	return cmd
}

func printIssue(is Issue) {
	if is.Warning {
		printWarning("%s: %s", is.Position, is.Message)
		return
	}
	printError("%s: %s", is.Position, is.Message)
}
