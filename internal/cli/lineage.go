package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/celltrack/pkg/pipeline"
)

// lineageCommand creates the lineage command, which draws the lineage
// trees of a data file.
func (c *CLI) lineageCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		opts    pipeline.TreeOptions
	)

	cmd := &cobra.Command{
		Use:   "lineage [file]",
		Short: "Draw the lineage trees",
		Long: `Draw every lineage as a tree, one node per track.

Tracks with errors are gray, tracks ending in a death are red near their
end and shed cells are blue; other tracks take the color of their lineage.
The format follows the output extension unless --format is given.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDataFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".lineage.svg"
			}
			if opts.Format == "" {
				opts.Format = strings.TrimPrefix(filepath.Ext(output), ".")
			}
			if err := pipeline.ValidateFormat(opts.Format); err != nil {
				return err
			}
			return c.runLineage(cmd, args[0], output, opts, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.lineage.svg)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "output format: svg, png, dot")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().IntVar(&opts.MinDivisions, "min-divisions", 0, "only draw lineages with at least this many divisions")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "label tracks with their length, end marker and errors")
	cmd.Flags().IntVar(&opts.LastTimePoint, "last-time-point", 0, "cut tracks off after this time point (0: no limit)")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

func (c *CLI) runLineage(cmd *cobra.Command, input, output string, opts pipeline.TreeOptions, noCache bool) error {
	ctx := cmd.Context()
	data, err := readData(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Drawing lineages...")
	spinner.Start()
	out, cached, err := runner.RenderTree(ctx, input, data, opts)
	if err != nil {
		spinner.StopWithError("Drawing failed")
		return err
	}
	spinner.Stop()

	if err := os.WriteFile(output, out, 0644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess("Lineage tree %s", styleCacheStatus(cached))
	printFile(output)
	return nil
}
