// Package lineage analyzes whole lineages: a root track together with all
// tracks descending from it through divisions.
//
// All functions are read-only and use explicit stacks, so they are safe on
// snapshots and on lineages of any depth.
package lineage

import (
	"github.com/matzehuels/celltrack/pkg/analysis/markers"
	"github.com/matzehuels/celltrack/pkg/core/color"
	"github.com/matzehuels/celltrack/pkg/core/links"
)

// DivisionCount counts the divisions in the lineage starting at start that
// happen before lastTimePoint.
//
// A track that ends before lastTimePoint without a DEAD marker makes the
// count uncertain, because the cell may have divided out of view. With
// requireAccurate set, ok is false in that case. Otherwise such tracks are
// assumed not to divide. Tracks that start after lastTimePoint are ignored.
func DivisionCount(start *links.LinkingTrack, l *links.Links, lastTimePoint int, requireAccurate bool) (count int, ok bool) {
	for _, track := range start.FindAllDescendingTracks(true) {
		if track.MinTimePointNumber() > lastTimePoint {
			continue
		}
		next := track.NextTracks()
		endsEarly := track.MaxTimePointNumber() < lastTimePoint
		if len(next) == 0 && endsEarly && markers.GetEndMarker(l, track.FindLastPosition()) != markers.Dead {
			if requireAccurate {
				return 0, false
			}
			continue
		}
		if endsEarly && len(next) > 1 {
			count++
		}
	}
	return count, true
}

// DivisionCountAccurate is DivisionCount with requireAccurate set, the
// conservative default: an uncertain lineage yields no count at all.
func DivisionCountAccurate(start *links.LinkingTrack, l *links.Links, lastTimePoint int) (int, bool) {
	return DivisionCount(start, l, lastTimePoint, true)
}

// MinDivisionCount returns the number of divisions recorded in the lineage,
// without any time window or certainty check.
func MinDivisionCount(start *links.LinkingTrack) int {
	count := 0
	for _, track := range start.FindAllDescendingTracks(true) {
		if len(track.NextTracks()) > 1 {
			count++
		}
	}
	return count
}

// TrackColors gives every track of a dividing lineage the color assigned to
// that lineage. Lineages whose root track does not divide are left out, so
// they are drawn in the default color.
func TrackColors(l *links.Links) map[*links.LinkingTrack]color.Color {
	colors := make(map[*links.LinkingTrack]color.Color)
	for _, root := range l.FindStartingTracks() {
		if len(root.NextTracks()) == 0 {
			continue
		}
		c := markers.GetLineageColor(l, root)
		for _, track := range root.FindAllDescendingTracks(true) {
			colors[track] = c
		}
	}
	return colors
}

// TracksWithErrors returns the tracks containing a position with an active
// error, plus the tracks directly following them. An error may corrupt the
// segment right after it, but not the whole lineage.
func TracksWithErrors(l *links.Links) map[*links.LinkingTrack]bool {
	errored := make(map[*links.LinkingTrack]bool)
	for _, p := range markers.FindErroredPositions(l) {
		track := l.GetTrack(p)
		if track == nil {
			continue
		}
		errored[track] = true
		for _, next := range track.NextTracks() {
			errored[next] = true
		}
	}
	return errored
}
