package io

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/celltrack/pkg/core/experiment"
	"github.com/matzehuels/celltrack/pkg/core/links"
	"github.com/matzehuels/celltrack/pkg/core/position"
	"github.com/matzehuels/celltrack/pkg/core/score"
	"github.com/matzehuels/celltrack/pkg/core/shape"
	"github.com/matzehuels/celltrack/pkg/errors"
)

func pos(x float64, t int) position.Position { return position.New(x, 20, 3, t) }

func sampleExperiment(t *testing.T) *experiment.Experiment {
	t.Helper()
	exp := experiment.New("sample")
	perimeter := 31.5
	exp.Positions.Add(pos(10, 0), shape.Ellipse{Dx: 0.5, Dy: -1, Width: 8, Height: 12, Angle: 45, OriginalPerimeter: &perimeter, OriginalArea: 70})
	exp.Positions.Add(pos(99, 4), nil)

	l := exp.Links
	require.NoError(t, l.AddLink(pos(10, 0), pos(10, 1)))
	require.NoError(t, l.AddLink(pos(10, 1), pos(9, 2)))
	require.NoError(t, l.AddLink(pos(10, 1), pos(11, 2)))

	l.SetPositionData(pos(9, 2), "ending", links.String("DEAD"))
	l.SetPositionData(pos(11, 2), "error", links.Int(14))
	l.SetPositionData(pos(10, 1), "intensity", links.Float(2))
	l.SetPositionData(pos(10, 0), "checked", links.Bool(true))
	l.SetLineageData(l.GetTrack(pos(10, 0)), "color", links.Int(0xff0000))

	f, err := score.NewFamily(pos(10, 1), pos(11, 2), pos(9, 2))
	require.NoError(t, err)
	exp.Scores.Add(score.ScoredFamily{Family: f, Score: score.Score{"distance": 1.5, "volume": -0.25}})

	exp.Resolution = experiment.Resolution{PixelSizeX: 0.32, PixelSizeY: 0.32, PixelSizeZ: 2, TimePointInterval: 12}
	exp.Settings.DivisionLookaheadTimePoints = 40
	exp.Settings.MinSpurLength = 5
	exp.Settings.EdgeMargin = 8
	exp.MergeLinkedPositions()
	return exp
}

func TestRoundTrip(t *testing.T) {
	exp := sampleExperiment(t)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(exp, &buf))
	got, err := ReadJSON(&buf)
	require.NoError(t, err)

	assert.Equal(t, "sample", got.Name)
	assert.Equal(t, exp.Links.FindAllLinks(), got.Links.FindAllLinks())
	assert.Equal(t, exp.Positions.All(), got.Positions.All())
	assert.Equal(t, exp.Positions.Shape(pos(10, 0)), got.Positions.Shape(pos(10, 0)))
	assert.True(t, got.Positions.Shape(pos(99, 4)).IsUnknown())

	for _, p := range exp.Links.FindAllPositions() {
		assert.Equal(t, exp.Links.FindAllDataOfPosition(p), got.Links.FindAllDataOfPosition(p), "metadata of %s", p)
	}
	intensity := got.Links.PositionData(pos(10, 1), "intensity")
	assert.Equal(t, links.KindFloat, intensity.Kind())
	assert.Equal(t, links.KindInt, got.Links.PositionData(pos(11, 2), "error").Kind())

	color := got.Links.LineageData(got.Links.GetTrack(pos(9, 2)), "color")
	assert.Equal(t, links.Int(0xff0000), color)

	assert.Equal(t, exp.Scores.All(), got.Scores.All())
	assert.Equal(t, exp.Resolution, got.Resolution)
	assert.Equal(t, exp.Settings, got.Settings)
}

func TestFloatsKeepFraction(t *testing.T) {
	exp := sampleExperiment(t)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(exp, &buf))
	assert.Contains(t, buf.String(), `"intensity": 2.0`)
	assert.Contains(t, buf.String(), `"error": 14`)
}

func TestReadBareNodeLink(t *testing.T) {
	const data = `{
	  "directed": false, "multigraph": false, "graph": {},
	  "nodes": [{"id": {"x": 1, "y": 2, "z": 3, "_time_point_number": 5}, "ending": "SHED"}],
	  "links": [{"source": {"x": 1, "y": 2, "z": 3, "_time_point_number": 4},
	             "target": {"x": 1, "y": 2, "z": 3, "_time_point_number": 5}}]
	}`
	exp, err := ReadJSON(strings.NewReader(data))
	require.NoError(t, err)

	end := position.New(1, 2, 3, 5)
	assert.Equal(t, 1, exp.Links.LinkCount())
	assert.Equal(t, links.String("SHED"), exp.Links.PositionData(end, "ending"))
	assert.Equal(t, 2, exp.Positions.Len())
}

func TestReadBarePositions(t *testing.T) {
	const data = `{"0": [[1, 2, 3], [4, 5, 6, "ellipse", 0, 0, 4, 6, 10, null, 18.5, false]], "1": [[1, 2, 3]]}`
	exp, err := ReadJSON(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, 3, exp.Positions.Len())
	assert.False(t, exp.Links.HasLinks())
	e, ok := exp.Positions.Shape(position.New(4, 5, 6, 0)).(shape.Ellipse)
	require.True(t, ok)
	assert.Equal(t, 4.0, e.Width)
	assert.Nil(t, e.OriginalPerimeter)
}

func TestTimePointRange(t *testing.T) {
	exp := sampleExperiment(t)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(exp, &buf))

	got, err := ReadJSON(&buf, WithTimePointRange(0, 1))
	require.NoError(t, err)

	assert.Equal(t, 1, got.Links.LinkCount())
	assert.False(t, got.Positions.Contains(pos(99, 4)))
	assert.Zero(t, got.Scores.Len())
	assert.True(t, got.Links.PositionData(pos(9, 2), "ending").IsAbsent())

	_, err = ReadJSON(strings.NewReader(`{}`), WithTimePointRange(5, 2))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		code errors.Code
	}{
		{"not json", `{"version":`, errors.ErrCodeInvalidFormat},
		{"unknown version", `{"version": "v2"}`, errors.ErrCodeUnsupported},
		{"bad time point", `{"version": "v1", "positions": {"zero": []}}`, errors.ErrCodeInvalidFormat},
		{"short position", `{"version": "v1", "positions": {"0": [[1, 2]]}}`, errors.ErrCodeInvalidFormat},
		{"unknown shape", `{"version": "v1", "positions": {"0": [[1, 2, 3, "blob"]]}}`, errors.ErrCodeInvalidFormat},
		{"self link", `{"directed": false, "nodes": [], "links": [{"source": {"x": 1, "y": 1, "z": 1, "_time_point_number": 1},
			"target": {"x": 1, "y": 1, "z": 1, "_time_point_number": 1}}]}`, errors.ErrCodeInvalidFormat},
		{"negative lookahead", `{"version": "v1", "settings": {"division_lookahead_time_points": -1}}`, errors.ErrCodeInvalidFormat},
		{"negative spur length", `{"version": "v1", "settings": {"min_spur_length": -3}}`, errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.data))
			require.Error(t, err)
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("ReadJSON() code = %s, want %s (%v)", got, tt.code, err)
			}
		})
	}
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "organoid.aut")

	exp := sampleExperiment(t)
	exp.Name = ""
	require.NoError(t, ExportJSON(exp, path))
	// Overwriting an existing file goes through a rename as well.
	require.NoError(t, ExportJSON(exp, path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")

	got, err := ImportJSON(path)
	require.NoError(t, err)
	assert.Equal(t, "organoid", got.Name)
	assert.Equal(t, 3, got.Links.LinkCount())

	_, err = ImportJSON(filepath.Join(dir, "missing.aut"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestReservedMetadataKeys(t *testing.T) {
	exp := experiment.New("reserved")
	l := exp.Links
	require.NoError(t, l.AddLink(pos(1, 0), pos(1, 1)))

	err := l.SetPositionData(pos(1, 0), links.PositionIDKey, links.String("cell-7"))
	assert.ErrorIs(t, err, links.ErrReservedKey)
	err = l.SetLineageData(l.GetTrack(pos(1, 0)), links.LineageIDKey, links.Int(3))
	assert.ErrorIs(t, err, links.ErrReservedKey)

	// Other keys on the same position and lineage still round-trip.
	require.NoError(t, l.SetPositionData(pos(1, 0), "name", links.String("cell-7")))
	require.NoError(t, l.SetLineageData(l.GetTrack(pos(1, 0)), "begin", links.Int(3)))

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(exp, &buf))
	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, exp.Links.FindAllLinks(), got.Links.FindAllLinks())
	assert.Equal(t, links.String("cell-7"), got.Links.PositionData(pos(1, 0), "name"))
	assert.Equal(t, links.Int(3), got.Links.LineageData(got.Links.GetTrack(pos(1, 1)), "begin"))
}

func TestMarkerWithoutLinksSurvives(t *testing.T) {
	exp := experiment.New("unlinked")
	l := exp.Links
	require.NoError(t, l.AddLink(pos(1, 0), pos(1, 1)))
	require.NoError(t, l.SetPositionData(pos(1, 1), "ending", links.String("DEAD")))
	l.RemoveLink(pos(1, 0), pos(1, 1))
	require.False(t, l.HasLinks())

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(exp, &buf))
	got, err := ReadJSON(&buf)
	require.NoError(t, err)

	assert.False(t, got.Links.HasLinks())
	assert.True(t, got.Links.Contains(pos(1, 1)))
	assert.Equal(t, links.String("DEAD"), got.Links.PositionData(pos(1, 1), "ending"))
	assert.False(t, got.Links.Contains(pos(1, 0)))
}

func TestSettingsZeroKept(t *testing.T) {
	exp := experiment.New("zero")
	exp.Settings.DivisionLookaheadTimePoints = 0
	exp.Settings.MinSpurLength = 0

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(exp, &buf))
	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Settings.DivisionLookaheadTimePoints)
	assert.Equal(t, 0, got.Settings.MinSpurLength)

	// Keys left out of the file keep their defaults.
	got, err = ReadJSON(strings.NewReader(`{"version": "v1", "settings": {"edge_margin": 4}}`))
	require.NoError(t, err)
	assert.Equal(t, experiment.DefaultDivisionLookaheadTimePoints, got.Settings.DivisionLookaheadTimePoints)
	assert.Equal(t, experiment.DefaultMinSpurLength, got.Settings.MinSpurLength)
	assert.Equal(t, 4.0, got.Settings.EdgeMargin)
}
