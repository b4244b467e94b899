// Package pipeline runs the load → analyze → render steps shared by the
// CLI and the query API.
//
// A [Runner] adds caching on top: reports and rendered lineage trees are
// stored under a key derived from the hash of the data file and the
// options, so repeated runs on an unchanged file are instant.
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Analyze(ctx, data, pipeline.Options{Window: 50})
package pipeline

import (
	stderrors "errors"
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/celltrack/pkg/analysis/appearance"
	"github.com/matzehuels/celltrack/pkg/analysis/division"
	"github.com/matzehuels/celltrack/pkg/analysis/fatehist"
	"github.com/matzehuels/celltrack/pkg/analysis/lineage"
	"github.com/matzehuels/celltrack/pkg/analysis/markers"
	"github.com/matzehuels/celltrack/pkg/analysis/postprocess"
	"github.com/matzehuels/celltrack/pkg/cache"
	"github.com/matzehuels/celltrack/pkg/core/experiment"
	"github.com/matzehuels/celltrack/pkg/core/links"
	"github.com/matzehuels/celltrack/pkg/core/position"
	"github.com/matzehuels/celltrack/pkg/errors"
	"github.com/matzehuels/celltrack/pkg/render/lineagetree"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultHistogramBinWidth is the bin width, in time points, of the
	// fate-after-division histogram.
	DefaultHistogramBinWidth = 10

	// TTLReport and TTLTree are the cache lifetimes. Entries are keyed by the
	// data file hash, so they never go stale, only unused.
	TTLReport = 7 * 24 * time.Hour
	TTLTree   = 7 * 24 * time.Hour
)

// Tree output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatDOT = "dot"
)

// ValidFormats is the set of supported tree formats.
var ValidFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
	FormatDOT: true,
}

// ValidateFormat checks that a tree format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: svg, png, dot)", format)
	}
	return nil
}

// =============================================================================
// Options
// =============================================================================

// Options configures an analysis run. Zero values keep the settings
// stored in the data file.
type Options struct {
	DivisionLookahead int `json:"division_lookahead,omitempty"`
	MinSpurLength     int `json:"min_spur_length,omitempty"`
	// Window limits division counting to this many time points after the
	// first time point. Zero counts over the whole experiment.
	Window            int `json:"window,omitempty"`
	HistogramBinWidth int `json:"histogram_bin_width,omitempty"`
	// Refresh bypasses the cache for reading; the fresh result is stored.
	Refresh bool `json:"refresh,omitempty"`
}

// Validate checks the options and fills in defaults.
func (o *Options) Validate() error {
	if o.HistogramBinWidth == 0 {
		o.HistogramBinWidth = DefaultHistogramBinWidth
	}
	for _, w := range []struct {
		name  string
		value int
	}{
		{"division lookahead", o.DivisionLookahead},
		{"min spur length", o.MinSpurLength},
		{"window", o.Window},
	} {
		if w.value < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "%s cannot be negative, got %d", w.name, w.value)
		}
	}
	return errors.ValidateWindow("histogram bin width", o.HistogramBinWidth)
}

// Apply overrides the experiment settings with the non-zero options.
func (o Options) Apply(exp *experiment.Experiment) {
	if o.DivisionLookahead > 0 {
		exp.Settings.DivisionLookaheadTimePoints = o.DivisionLookahead
	}
	if o.MinSpurLength > 0 {
		exp.Settings.MinSpurLength = o.MinSpurLength
	}
}

func (o Options) reportKeyOpts(exp *experiment.Experiment) cache.ReportKeyOpts {
	return cache.ReportKeyOpts{
		DivisionLookahead: exp.Settings.DivisionLookaheadTimePoints,
		MinSpurLength:     exp.Settings.MinSpurLength,
		Window:            o.Window,
	}
}

// TreeOptions configures lineage tree rendering.
type TreeOptions struct {
	lineagetree.Options
	Format  string `json:"format"`
	Refresh bool   `json:"refresh,omitempty"`
}

func (o TreeOptions) treeKeyOpts() cache.TreeKeyOpts {
	return cache.TreeKeyOpts{
		MinDivisions:  o.MinDivisions,
		Detailed:      o.Detailed,
		LastTimePoint: o.LastTimePoint,
		Format:        o.Format,
	}
}

// =============================================================================
// Report
// =============================================================================

// Report summarizes an experiment. It is serialized for caching and for
// the API, so it only holds plain values.
type Report struct {
	Name           string `json:"name"`
	FirstTimePoint int    `json:"first_time_point"`
	LastTimePoint  int    `json:"last_time_point"`
	Positions      int    `json:"positions"`
	Links          int    `json:"links"`
	Tracks         int    `json:"tracks"`
	Lineages       int    `json:"lineages"`

	Divisions        int `json:"divisions"`
	TooManyDaughters int `json:"too_many_daughters"`
	AppearedCells    int `json:"appeared_cells"`
	Spurs            int `json:"spur_positions"`
	Deaths           int `json:"deaths"`
	Sheds            int `json:"sheds"`

	// Issues counts validation findings by kind.
	Issues   map[string]int `json:"issues,omitempty"`
	Errors   int            `json:"errors"`
	Warnings int            `json:"warnings"`

	LineageDivisions []LineageDivisions `json:"lineage_divisions,omitempty"`
	FateHistogram    []fatehist.Bin     `json:"fate_histogram,omitempty"`
}

// LineageDivisions is the division count of one dividing lineage. Certain
// is false when a track ends early without a death marker; Count is then
// a lower bound.
type LineageDivisions struct {
	Start   position.Position `json:"start"`
	Count   int               `json:"count"`
	Certain bool              `json:"certain"`
}

// Analyze computes the report of exp. It does not modify exp.
func Analyze(exp *experiment.Experiment, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	l := exp.Links
	r := &Report{
		Name:      exp.Name,
		Positions: exp.Positions.Len(),
		Links:     l.LinkCount(),
	}
	first, ok := exp.FirstTimePointNumber()
	if !ok {
		return r, nil
	}
	r.FirstTimePoint = first
	r.LastTimePoint, _ = exp.LastTimePointNumber()

	roots := l.FindStartingTracks()
	r.Lineages = len(roots)
	tracks := make(map[*links.LinkingTrack]bool)
	for _, root := range roots {
		for _, t := range root.FindAllDescendingTracks(true) {
			tracks[t] = true
		}
	}
	r.Tracks = len(tracks)

	families, err := division.FindFamilies(l)
	r.Divisions = len(families)
	r.TooManyDaughters = countTooManyDaughters(err)

	r.AppearedCells = len(appearance.FindAppearedCells(l, first))
	r.Spurs = len(postprocess.FindSpurs(l, first, exp.Settings.MinSpurLength))
	for _, p := range markers.FindDeathAndShedPositions(l) {
		switch markers.GetEndMarker(l, p) {
		case markers.Dead:
			r.Deaths++
		case markers.Shed:
			r.Sheds++
		}
	}

	for _, issue := range l.Validate() {
		if r.Issues == nil {
			r.Issues = make(map[string]int)
		}
		r.Issues[issue.Kind.String()]++
	}
	r.Errors = len(markers.FindErroredPositions(l))
	r.Warnings = len(markers.FindWarnedPositions(l))

	lastTimePoint := r.LastTimePoint
	if opts.Window > 0 {
		lastTimePoint = first + opts.Window
	}
	for _, root := range roots {
		if len(root.NextTracks()) == 0 {
			continue
		}
		count, certain := lineage.DivisionCountAccurate(root, l, lastTimePoint)
		if !certain {
			count, _ = lineage.DivisionCount(root, l, lastTimePoint, false)
		}
		r.LineageDivisions = append(r.LineageDivisions, LineageDivisions{
			Start: root.FirstPosition(), Count: count, Certain: certain,
		})
	}
	slices.SortFunc(r.LineageDivisions, func(a, b LineageDivisions) int {
		return position.Compare(a.Start, b.Start)
	})

	if l.HasLinks() {
		bins, err := fatehist.Classify(exp, opts.HistogramBinWidth)
		if err != nil {
			return nil, fmt.Errorf("fate histogram: %w", err)
		}
		r.FateHistogram = bins
	}
	return r, nil
}

func countTooManyDaughters(err error) int {
	if err == nil {
		return 0
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return 1
	}
	n := 0
	for _, e := range joined.Unwrap() {
		if stderrors.Is(e, division.ErrTooManyDaughters) {
			n++
		}
	}
	return n
}
