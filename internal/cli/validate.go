package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/celltrack/pkg/analysis/markers"
	"github.com/matzehuels/celltrack/pkg/analysis/postprocess"
	"github.com/matzehuels/celltrack/pkg/core/experiment"
	"github.com/matzehuels/celltrack/pkg/errors"
	ctio "github.com/matzehuels/celltrack/pkg/io"
)

// validateCommand creates the validate command, which checks the links for
// integrity problems and optionally flags them in the file.
func (c *CLI) validateCommand() *cobra.Command {
	var (
		flag   bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check the links for integrity problems",
		Long: `Check the links for merged cells, mothers with more than two daughters,
links going backward in time and links skipping time points.

With --flag, every problem is stored as an error marker on its position, so
it can be reviewed with 'celltrack issues'. Errors that were dismissed
before stay dismissed.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDataFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := c.loadExperiment(args[0])
			if err != nil {
				return err
			}
			issues := exp.Links.Validate()
			if len(issues) == 0 {
				printSuccess("No problems found")
			} else {
				printWarning("%d problems found", len(issues))
				for _, is := range issues {
					printDetail("%s", is)
				}
			}
			if !flag {
				return nil
			}
			flagged := markers.ApplyValidation(exp.Links, issues)
			path := outputPath(args[0], output)
			if err := ctio.ExportJSON(exp, path); err != nil {
				return fmt.Errorf("save %s: %w", path, err)
			}
			printSuccess("Flagged %d positions", flagged)
			printFile(path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&flag, "flag", false, "store problems as error markers")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")

	return cmd
}

// postprocessCommand creates the postprocess command, which removes spurs
// and positions near the image border.
func (c *CLI) postprocessCommand() *cobra.Command {
	var (
		output        string
		minSpurLength int
		edgeMargin    float64
	)

	cmd := &cobra.Command{
		Use:   "postprocess [file]",
		Short: "Remove spurs and positions near the image border",
		Long: `Remove detections that are most likely noise.

Spurs are short tracks of cells that appeared after the first time point
and vanished without dividing. With an edge margin, positions closer than
that many pixels to the image border are removed as well; this needs the
image size in the file or config.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDataFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := c.loadExperiment(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("min-spur-length") {
				exp.Settings.MinSpurLength = minSpurLength
			}
			if cmd.Flags().Changed("edge-margin") {
				exp.Settings.EdgeMargin = edgeMargin
			}
			if err := postprocessExperiment(exp); err != nil {
				return err
			}
			path := outputPath(args[0], output)
			if err := ctio.ExportJSON(exp, path); err != nil {
				return fmt.Errorf("save %s: %w", path, err)
			}
			printFile(path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	cmd.Flags().IntVar(&minSpurLength, "min-spur-length", 0, "minimum links of an appeared track (default: from file)")
	cmd.Flags().Float64Var(&edgeMargin, "edge-margin", 0, "remove positions closer to the border, in pixels (default: from file)")

	return cmd
}

func postprocessExperiment(exp *experiment.Experiment) error {
	s := exp.Settings
	if s.EdgeMargin > 0 {
		if s.ImageWidth <= 0 || s.ImageHeight <= 0 {
			return errors.New(errors.ErrCodeInvalidInput, "edge margin needs the image size; set image_width and image_height")
		}
		removed := postprocess.RemovePositionsCloseToEdge(exp, s.EdgeMargin, s.ImageWidth, s.ImageHeight)
		printInfo("Removed %d positions near the border", len(removed))
	}
	removed := postprocess.RemoveSpurs(exp)
	printInfo("Removed %d spur positions", len(removed))
	return nil
}

func outputPath(input, output string) string {
	if output != "" {
		return output
	}
	return input
}
