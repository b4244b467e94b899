package lineage

import (
	"github.com/matzehuels/celltrack/pkg/analysis/markers"
	"github.com/matzehuels/celltrack/pkg/core/color"
	"github.com/matzehuels/celltrack/pkg/core/links"
)

// endMarkerReach is how many time points before a DEAD or SHED end the track
// is drawn in the end color.
const endMarkerReach = 10

// Painter decides the display color of a track at a time point, as used by
// the lineage tree: errored tracks gray, the last stretch before a death red
// and before shedding blue, otherwise the lineage color or black.
//
// A Painter is a snapshot; create a new one after the graph changed.
type Painter struct {
	links   *links.Links
	colors  map[*links.LinkingTrack]color.Color
	errored map[*links.LinkingTrack]bool
}

// NewPainter computes lineage colors and errored tracks of l.
func NewPainter(l *links.Links) *Painter {
	return &Painter{links: l, colors: TrackColors(l), errored: TracksWithErrors(l)}
}

// Color returns the color of track at the given time point.
func (p *Painter) Color(track *links.LinkingTrack, timePoint int) color.Color {
	if p.errored[track] {
		return color.Gray
	}
	if track.MaxTimePointNumber()-timePoint < endMarkerReach {
		switch markers.GetEndMarker(p.links, track.FindLastPosition()) {
		case markers.Dead:
			return color.Red
		case markers.Shed:
			return color.Blue
		}
	}
	if c, ok := p.colors[track]; ok {
		return c
	}
	return color.Black
}

// HasErrors reports whether track is drawn as errored.
func (p *Painter) HasErrors(track *links.LinkingTrack) bool { return p.errored[track] }
