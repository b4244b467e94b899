package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/celltrack/pkg/analysis/fate"
	"github.com/matzehuels/celltrack/pkg/core/experiment"
	"github.com/matzehuels/celltrack/pkg/core/position"
	"github.com/matzehuels/celltrack/pkg/pipeline"
)

// analyzeCommand creates the analyze command, which prints the report of a
// data file.
func (c *CLI) analyzeCommand() *cobra.Command {
	var (
		noCache bool
		asJSON  bool
		opts    pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Summarize lineages, divisions and tracking errors",
		Long: `Summarize a tracking data file: lineages, divisions, appeared cells,
spurs, deaths and integrity problems, plus a histogram of what happens to
daughter cells by the age of their mother.

Reports are cached by file content and options.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDataFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.analyze(cmd, args[0], opts, noCache)
			if err != nil {
				return err
			}
			if asJSON {
				return writeReportJSON(result.Report)
			}
			printReport(result.Report, result.CacheHit)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	addAnalysisFlags(cmd, &opts)
	cmd.Flags().IntVar(&opts.HistogramBinWidth, "bin-width", pipeline.DefaultHistogramBinWidth, "fate histogram bin width in time points")

	return cmd
}

// divisionsCommand creates the divisions command, which lists the division
// count of every dividing lineage.
func (c *CLI) divisionsCommand() *cobra.Command {
	var (
		noCache bool
		opts    pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "divisions [file]",
		Short: "Count divisions per lineage",
		Long: `Count the divisions in every dividing lineage.

With --window, only divisions within that many time points after the first
time point count. A count is marked uncertain when a track ends before the
window without a death marker; it is then a lower bound.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDataFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.analyze(cmd, args[0], opts, noCache)
			if err != nil {
				return err
			}
			printDivisions(result.Report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	addAnalysisFlags(cmd, &opts)

	return cmd
}

func addAnalysisFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().IntVar(&opts.Window, "window", 0, "count divisions up to this many time points after the first (0: all)")
	cmd.Flags().IntVar(&opts.DivisionLookahead, "lookahead", 0, "division lookahead in time points (default: from file)")
	cmd.Flags().IntVar(&opts.MinSpurLength, "min-spur-length", 0, "minimum links of an appeared track (default: from file)")
}

func (c *CLI) analyze(cmd *cobra.Command, path string, opts pipeline.Options, noCache bool) (*pipeline.Result, error) {
	ctx := cmd.Context()
	merged := c.analysisOptions()
	if cmd.Flags().Changed("lookahead") {
		merged.DivisionLookahead = opts.DivisionLookahead
	}
	if cmd.Flags().Changed("min-spur-length") {
		merged.MinSpurLength = opts.MinSpurLength
	}
	merged.Window = opts.Window
	merged.HistogramBinWidth = opts.HistogramBinWidth
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	data, err := readData(path)
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Analyzing...")
	spinner.Start()
	result, err := runner.Analyze(ctx, path, data, merged)
	if err != nil {
		spinner.StopWithError("Analysis failed")
		return nil, err
	}
	spinner.Stop()
	return result, nil
}

func writeReportJSON(r *pipeline.Report) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// fateCommand creates the fate command, which predicts what happens to one
// cell.
func (c *CLI) fateCommand() *cobra.Command {
	var (
		x, y, z   float64
		t         int
		lookahead int
	)

	cmd := &cobra.Command{
		Use:   "fate [file]",
		Short: "Predict the fate of one cell",
		Long: `Follow the cell at --x --y --z --t forward until it divides, dies, is shed
or its track ends, and print the outcome.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDataFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := c.loadExperiment(args[0])
			if err != nil {
				return err
			}
			if lookahead > 0 {
				exp.Settings.DivisionLookaheadTimePoints = lookahead
			}
			p := position.New(x, y, z, t)
			f, err := fate.Get(exp, p)
			if err != nil {
				return err
			}
			printFate(exp.Resolution, p, f)
			return nil
		},
	}

	cmd.Flags().Float64Var(&x, "x", 0, "x coordinate in pixels")
	cmd.Flags().Float64Var(&y, "y", 0, "y coordinate in pixels")
	cmd.Flags().Float64Var(&z, "z", 0, "z coordinate")
	cmd.Flags().IntVar(&t, "t", 0, "time point number")
	cmd.Flags().IntVar(&lookahead, "lookahead", 0, "division lookahead in time points (default: from file)")
	_ = cmd.MarkFlagRequired("t")

	return cmd
}

// timeLabel formats a number of time points, with hours when the time
// resolution is known.
func timeLabel(res experiment.Resolution, n int) string {
	if h, ok := res.Hours(n); ok {
		return fmt.Sprintf("%d time points (%.1fh)", n, h)
	}
	return strconv.Itoa(n) + " time points"
}

// =============================================================================
// Output
// =============================================================================

func printReport(r *pipeline.Report, cached bool) {
	printSuccess("%s", r.Name)
	printStats(r.Positions, r.Links, cached)
	printNewline()

	printKeyValue("Time points", fmt.Sprintf("%d to %d", r.FirstTimePoint, r.LastTimePoint))
	printKeyValue("Lineages", strconv.Itoa(r.Lineages))
	printKeyValue("Tracks", strconv.Itoa(r.Tracks))
	printKeyValue("Divisions", strconv.Itoa(r.Divisions))
	printKeyValue("Appeared", strconv.Itoa(r.AppearedCells))
	printKeyValue("Spurs", fmt.Sprintf("%d positions", r.Spurs))
	printKeyValue("Deaths", strconv.Itoa(r.Deaths))
	printKeyValue("Sheds", strconv.Itoa(r.Sheds))

	if r.TooManyDaughters > 0 {
		printWarning("%d mothers have more than two daughters", r.TooManyDaughters)
	}
	if len(r.Issues) > 0 {
		printNewline()
		printWarning("Integrity problems")
		kinds := make([]string, 0, len(r.Issues))
		for k := range r.Issues {
			kinds = append(kinds, k)
		}
		slices.Sort(kinds)
		for _, k := range kinds {
			printDetail("%-20s %d", k, r.Issues[k])
		}
		printNextStep("Flag them", "celltrack validate --flag "+r.Name)
	}
	if r.Errors > 0 || r.Warnings > 0 {
		printInfo("%d errors and %d warnings flagged in the file", r.Errors, r.Warnings)
	}

	if len(r.FateHistogram) > 0 {
		printNewline()
		printInfo("Daughter fate by mother age")
		for _, b := range r.FateHistogram {
			printDetail("age %4d+  dividing %5.1f%%  not dividing %5.1f%%  unknown %5.1f%%  (n=%d)",
				b.MinTimePoint, 100*b.DividingFraction(), 100*b.NondividingFraction(), 100*b.UnknownFraction(), b.Total())
		}
	}
}

func printDivisions(r *pipeline.Report) {
	if len(r.LineageDivisions) == 0 {
		printInfo("No dividing lineages")
		return
	}
	for _, d := range r.LineageDivisions {
		line := fmt.Sprintf("%s  %s", d.Start, StyleNumber.Render(strconv.Itoa(d.Count)))
		if !d.Certain {
			line += " " + StyleWarning.Render("(at least)")
		}
		printInfo("%s", line)
	}
	printDetail("%d lineages, %d divisions in total", len(r.LineageDivisions), r.Divisions)
}

func printFate(res experiment.Resolution, p position.Position, f fate.CellFate) {
	printKeyValue("Position", p.String())
	printKeyValue("Fate", StyleHighlight.Render(f.Type.String()))
	if f.HasRemaining {
		printKeyValue("In", timeLabel(res, f.TimePointsRemaining))
	}
}
