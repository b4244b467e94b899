package pipeline

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/celltrack/pkg/analysis/markers"
	"github.com/matzehuels/celltrack/pkg/cache"
	"github.com/matzehuels/celltrack/pkg/core/experiment"
	"github.com/matzehuels/celltrack/pkg/core/position"
	"github.com/matzehuels/celltrack/pkg/errors"
	ctio "github.com/matzehuels/celltrack/pkg/io"
)

func pos(x float64, t int) position.Position { return position.New(x, 0, 0, t) }

// newExperiment builds one dividing lineage from t=0 to t=20, where one
// daughter dies, plus a two-position spur appearing at t=10.
func newExperiment(t *testing.T) *experiment.Experiment {
	t.Helper()
	exp := experiment.New("pipeline")
	link := func(a, b position.Position) {
		if err := exp.Links.AddLink(a, b); err != nil {
			t.Fatal(err)
		}
	}
	for tp := 0; tp < 5; tp++ {
		link(pos(0, tp), pos(0, tp+1))
	}
	link(pos(0, 5), pos(-1, 6))
	link(pos(0, 5), pos(1, 6))
	for tp := 6; tp < 20; tp++ {
		link(pos(-1, tp), pos(-1, tp+1))
		link(pos(1, tp), pos(1, tp+1))
	}
	markers.SetEndMarker(exp.Links, pos(-1, 20), markers.Dead)
	link(pos(50, 10), pos(50, 11))
	exp.MergeLinkedPositions()
	return exp
}

func encode(t *testing.T, exp *experiment.Experiment) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := ctio.WriteJSON(exp, &buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestAnalyze(t *testing.T) {
	r, err := Analyze(newExperiment(t), Options{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	checks := []struct {
		name      string
		got, want int
	}{
		{"FirstTimePoint", r.FirstTimePoint, 0},
		{"LastTimePoint", r.LastTimePoint, 20},
		{"Links", r.Links, 5 + 2 + 28 + 1},
		{"Lineages", r.Lineages, 2},
		{"Tracks", r.Tracks, 4},
		{"Divisions", r.Divisions, 1},
		{"AppearedCells", r.AppearedCells, 1},
		{"Spurs", r.Spurs, 2},
		{"Deaths", r.Deaths, 1},
		{"Sheds", r.Sheds, 0},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("Report.%s = %d, want %d", c.name, c.got, c.want)
		}
	}
	if len(r.Issues) != 0 {
		t.Errorf("Report.Issues = %v, want none", r.Issues)
	}
	want := []LineageDivisions{{Start: pos(0, 0), Count: 1, Certain: true}}
	if len(r.LineageDivisions) != 1 || r.LineageDivisions[0] != want[0] {
		t.Errorf("Report.LineageDivisions = %v, want %v", r.LineageDivisions, want)
	}
}

func TestAnalyzeWindow(t *testing.T) {
	r, err := Analyze(newExperiment(t), Options{Window: 3})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.LineageDivisions[0].Count; got != 0 {
		t.Errorf("division count in window = %d, want 0", got)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	r, err := Analyze(experiment.New("empty"), Options{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if r.Lineages != 0 || r.FateHistogram != nil {
		t.Errorf("Analyze() of empty experiment = %+v", r)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		opts    Options
		wantErr bool
	}{
		{Options{}, false},
		{Options{Window: 10, DivisionLookahead: 50}, false},
		{Options{Window: -1}, true},
		{Options{MinSpurLength: -3}, true},
		{Options{HistogramBinWidth: -1}, true},
	}
	for _, tt := range tests {
		err := tt.opts.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) error = %v, wantErr %v", tt.opts, err, tt.wantErr)
		}
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"dot", false},
		{"pdf", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func newRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, log.New(io.Discard))
}

func TestRunnerAnalyzeCaches(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t)
	defer r.Close()
	data := encode(t, newExperiment(t))

	first, err := r.Analyze(ctx, "test.aut", data, Options{})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if first.CacheHit {
		t.Error("first Analyze() should miss the cache")
	}

	second, err := r.Analyze(ctx, "test.aut", data, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheHit {
		t.Error("second Analyze() should hit the cache")
	}
	if second.Report.Divisions != first.Report.Divisions || second.DataHash != first.DataHash {
		t.Errorf("cached report differs: %+v vs %+v", second.Report, first.Report)
	}

	other, err := r.Analyze(ctx, "test.aut", data, Options{Window: 5})
	if err != nil {
		t.Fatal(err)
	}
	if other.CacheHit {
		t.Error("Analyze() with other options should miss the cache")
	}

	refreshed, err := r.Analyze(ctx, "test.aut", data, Options{Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheHit {
		t.Error("Analyze() with Refresh should not read the cache")
	}
}

func TestRunnerAnalyzeBadData(t *testing.T) {
	r := newRunner(t)
	_, err := r.Analyze(context.Background(), "bad.aut", []byte(`{"version": "v9"}`), Options{})
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Analyze() error = %v, want %s", err, errors.ErrCodeUnsupported)
	}
}

func TestRunnerRenderTreeDOT(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t)
	data := encode(t, newExperiment(t))

	opts := TreeOptions{Format: FormatDOT}
	out, hit, err := r.RenderTree(ctx, "test.aut", data, opts)
	if err != nil {
		t.Fatalf("RenderTree() error = %v", err)
	}
	if hit {
		t.Error("first RenderTree() should miss the cache")
	}
	if !strings.HasPrefix(string(out), "digraph lineages") {
		t.Errorf("RenderTree() = %q, want DOT", out)
	}

	again, hit, err := r.RenderTree(ctx, "test.aut", data, opts)
	if err != nil || !hit || !bytes.Equal(again, out) {
		t.Errorf("second RenderTree() hit = %v, err = %v", hit, err)
	}

	if _, _, err := r.RenderTree(ctx, "test.aut", data, TreeOptions{Format: "gif"}); err == nil {
		t.Error("RenderTree() should reject unknown formats")
	}
}

func TestRenderExperimentTreeNoLinks(t *testing.T) {
	r := newRunner(t)
	_, err := r.RenderExperimentTree(context.Background(), experiment.New("empty"), TreeOptions{Format: FormatDOT})
	if !errors.Is(err, errors.ErrCodeNoLinks) {
		t.Errorf("RenderExperimentTree() error = %v, want %s", err, errors.ErrCodeNoLinks)
	}
}
