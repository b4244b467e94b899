package lineage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/celltrack/pkg/analysis/markers"
	"github.com/matzehuels/celltrack/pkg/core/color"
	"github.com/matzehuels/celltrack/pkg/core/links"
	"github.com/matzehuels/celltrack/pkg/core/position"
)

func pos(x float64, t int) position.Position { return position.New(x, 0, 0, t) }

func chain(t *testing.T, l *links.Links, x float64, from, to int) {
	t.Helper()
	for tp := from; tp < to; tp++ {
		require.NoError(t, l.AddLink(pos(x, tp), pos(x, tp+1)))
	}
}

// dividingLineage builds a cell at t=0..5 that divides into two daughters
// living until t=10.
func dividingLineage(t *testing.T) *links.Links {
	l := links.New()
	chain(t, l, 0, 0, 5)
	require.NoError(t, l.AddLink(pos(0, 5), pos(-1, 6)))
	require.NoError(t, l.AddLink(pos(0, 5), pos(1, 6)))
	chain(t, l, -1, 6, 10)
	chain(t, l, 1, 6, 10)
	return l
}

func TestDivisionCountBothDaughtersDead(t *testing.T) {
	l := dividingLineage(t)
	markers.SetEndMarker(l, pos(-1, 10), markers.Dead)
	markers.SetEndMarker(l, pos(1, 10), markers.Dead)

	count, ok := DivisionCountAccurate(l.GetTrack(pos(0, 0)), l, 10)
	require.True(t, ok)
	assert.Equal(t, 1, count)

	// Daughters dying before the end of a longer window are still certain.
	count, ok = DivisionCountAccurate(l.GetTrack(pos(0, 0)), l, 50)
	require.True(t, ok)
	assert.Equal(t, 1, count)
}

func TestDivisionCountTruncated(t *testing.T) {
	l := dividingLineage(t)
	markers.SetEndMarker(l, pos(-1, 10), markers.Dead)
	// The other daughter just stops at t=10, well before the window ends.

	_, ok := DivisionCount(l.GetTrack(pos(0, 0)), l, 50, true)
	assert.False(t, ok)

	count, ok := DivisionCount(l.GetTrack(pos(0, 0)), l, 50, false)
	require.True(t, ok)
	assert.Equal(t, 1, count)

	// Other end markers do not explain the truncation.
	markers.SetEndMarker(l, pos(1, 10), markers.Shed)
	_, ok = DivisionCountAccurate(l.GetTrack(pos(0, 0)), l, 50)
	assert.False(t, ok)
}

func TestDivisionCountWindow(t *testing.T) {
	l := dividingLineage(t)

	// The division at t=5 is not before a window ending at t=5.
	count, ok := DivisionCountAccurate(l.GetTrack(pos(0, 0)), l, 5)
	require.True(t, ok)
	assert.Equal(t, 0, count)

	// Window ends at t=3: daughters lie outside it and are ignored.
	count, ok = DivisionCountAccurate(l.GetTrack(pos(0, 0)), l, 3)
	require.True(t, ok)
	assert.Equal(t, 0, count)
}

func TestDivisionCountDoesNotMutate(t *testing.T) {
	l := dividingLineage(t)
	rev := l.Revision()
	before := l.FindAllLinks()

	DivisionCount(l.GetTrack(pos(0, 0)), l, 10, true)

	assert.Equal(t, rev, l.Revision())
	assert.Equal(t, before, l.FindAllLinks())
}

func TestMinDivisionCount(t *testing.T) {
	l := dividingLineage(t)
	require.NoError(t, l.AddLink(pos(1, 10), pos(0.5, 11)))
	require.NoError(t, l.AddLink(pos(1, 10), pos(1.5, 11)))

	assert.Equal(t, 2, MinDivisionCount(l.GetTrack(pos(0, 0))))
	assert.Equal(t, 0, MinDivisionCount(l.GetTrack(pos(-1, 8))))
}

func TestTrackColors(t *testing.T) {
	l := dividingLineage(t)
	chain(t, l, 50, 0, 10) // no division, gets no color

	root := l.GetTrack(pos(0, 0))
	markers.SetLineageColor(l, root, color.RGB(0, 128, 0))

	colors := TrackColors(l)
	assert.Len(t, colors, 3)
	for _, track := range root.FindAllDescendingTracks(true) {
		assert.Equal(t, color.RGB(0, 128, 0), colors[track])
	}
	_, ok := colors[l.GetTrack(pos(50, 0))]
	assert.False(t, ok)
}

func TestTracksWithErrors(t *testing.T) {
	l := dividingLineage(t)
	markers.SetErrorMarker(l, pos(0, 2), markers.ErrorShortCellCycle, false)

	errored := TracksWithErrors(l)
	assert.Len(t, errored, 3)
	assert.True(t, errored[l.GetTrack(pos(0, 0))])
	assert.True(t, errored[l.GetTrack(pos(-1, 6))])

	// An error in a daughter does not spread upwards.
	markers.SetErrorMarker(l, pos(0, 2), markers.ErrorNone, false)
	markers.SetErrorMarker(l, pos(1, 7), markers.ErrorShortCellCycle, false)
	errored = TracksWithErrors(l)
	assert.Len(t, errored, 1)
	assert.True(t, errored[l.GetTrack(pos(1, 7))])
}

func TestPainter(t *testing.T) {
	l := dividingLineage(t)
	root := l.GetTrack(pos(0, 0))
	markers.SetLineageColor(l, root, color.RGB(0, 128, 0))
	markers.SetEndMarker(l, pos(-1, 10), markers.Dead)
	markers.SetEndMarker(l, pos(1, 10), markers.Shed)

	p := NewPainter(l)
	left, right := l.GetTrack(pos(-1, 6)), l.GetTrack(pos(1, 6))
	assert.Equal(t, color.RGB(0, 128, 0), p.Color(root, 0))
	assert.Equal(t, color.Red, p.Color(left, 6))
	assert.Equal(t, color.Blue, p.Color(right, 6))

	markers.SetErrorMarker(l, pos(0, 3), markers.ErrorCellMerge, false)
	p = NewPainter(l)
	assert.Equal(t, color.Gray, p.Color(left, 6))
	assert.True(t, p.HasErrors(root))
}
