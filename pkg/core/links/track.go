package links

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/matzehuels/celltrack/pkg/core/position"
)

// LinkingTrack is a maximal run of positions connected by single-parent,
// single-child links. A track starts at an appearance, after a division or
// after a merge, and ends at a disappearance, before a division or before a
// merge.
//
// Tracks are views derived from a [Links] graph. Within one graph revision
// the same track is always the same pointer, so tracks can be used as map
// keys. After any mutation of the graph, existing handles report Stale and
// keep describing the old graph; call [Links.GetTrack] again.
type LinkingTrack struct {
	links     *Links
	revision  uint64
	positions []Position
	next      []*LinkingTrack
	prev      []*LinkingTrack
	meanX     float64
}

// Positions returns the positions of the track in time order.
// The returned slice must not be modified.
func (t *LinkingTrack) Positions() []Position { return t.positions }

// FirstPosition returns the earliest position of the track.
func (t *LinkingTrack) FirstPosition() Position { return t.positions[0] }

// FindLastPosition returns the latest position of the track.
func (t *LinkingTrack) FindLastPosition() Position { return t.positions[len(t.positions)-1] }

// MinTimePointNumber returns the time point of the first position.
func (t *LinkingTrack) MinTimePointNumber() int { return t.FirstPosition().TimePointNumber }

// MaxTimePointNumber returns the time point of the last position.
func (t *LinkingTrack) MaxTimePointNumber() int { return t.FindLastPosition().TimePointNumber }

// Len returns the number of positions in the track.
func (t *LinkingTrack) Len() int { return len(t.positions) }

// NextTracks returns the tracks directly following this one: none at the
// end of a lineage, two or more after a division.
func (t *LinkingTrack) NextTracks() []*LinkingTrack { return t.next }

// PreviousTracks returns the tracks directly before this one. More than one
// previous track means two cells were merged, which is a tracking error.
func (t *LinkingTrack) PreviousTracks() []*LinkingTrack { return t.prev }

// Stale reports whether the graph changed since the track was derived.
func (t *LinkingTrack) Stale() bool { return t.revision != t.links.revision }

// MeanX returns the average x coordinate of the track.
func (t *LinkingTrack) MeanX() float64 { return t.meanX }

// FindAllDescendingTracks returns all tracks reachable from t through
// divisions, depth-first, each track exactly once. The walk uses an explicit
// stack, so arbitrarily deep lineages are fine.
func (t *LinkingTrack) FindAllDescendingTracks(includeSelf bool) []*LinkingTrack {
	var out []*LinkingTrack
	seen := map[*LinkingTrack]bool{t: true}
	stack := []*LinkingTrack{t}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur != t || includeSelf {
			out = append(out, cur)
		}
		for i := len(cur.next) - 1; i >= 0; i-- {
			if n := cur.next[i]; !seen[n] {
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}
	return out
}

func (t *LinkingTrack) String() string {
	return fmt.Sprintf("Track(%v, len=%d)", t.FirstPosition(), len(t.positions))
}

// ====================================================================================
// Track index
// ====================================================================================

type trackIndex struct {
	byPosition map[Position]*LinkingTrack
	starting   []*LinkingTrack
}

func (l *Links) tracks() *trackIndex {
	if l.index == nil {
		l.index = l.buildIndex()
	}
	return l.index
}

// startsTrack reports whether p begins a new track.
func (l *Links) startsTrack(p Position) bool {
	n := l.nodes[p]
	if len(n.in) != 1 {
		return true
	}
	for parent := range n.in {
		return l.futureCount(parent) != 1
	}
	return true
}

// continuesTo returns the only child of p when it belongs to p's track.
func (l *Links) continuesTo(p Position) (Position, bool) {
	n := l.nodes[p]
	if len(n.out) != 1 {
		return Position{}, false
	}
	for child := range n.out {
		return child, l.pastCount(child) == 1
	}
	return Position{}, false
}

func (l *Links) buildIndex() *trackIndex {
	idx := &trackIndex{byPosition: make(map[Position]*LinkingTrack)}
	all := l.FindAllPositions()

	var tracks []*LinkingTrack
	follow := func(start Position) {
		t := &LinkingTrack{links: l, revision: l.revision}
		p := start
		for {
			t.positions = append(t.positions, p)
			idx.byPosition[p] = t
			next, ok := l.continuesTo(p)
			if !ok {
				break
			}
			if _, done := idx.byPosition[next]; done {
				break
			}
			p = next
		}
		tracks = append(tracks, t)
	}
	for _, p := range all {
		if l.startsTrack(p) {
			follow(p)
		}
	}
	// Cycles made of backward links have no natural start.
	for _, p := range all {
		if _, done := idx.byPosition[p]; !done {
			follow(p)
		}
	}

	for _, t := range tracks {
		var sum float64
		for _, p := range t.positions {
			sum += p.X
		}
		t.meanX = sum / float64(len(t.positions))
	}
	for _, t := range tracks {
		t.next = l.neighbourTracks(idx, l.FindFutures(t.FindLastPosition()), t)
		t.prev = l.neighbourTracks(idx, l.FindPasts(t.FirstPosition()), t)
		if len(t.prev) == 0 {
			idx.starting = append(idx.starting, t)
		}
	}
	l.sortTracks(idx.starting)
	return idx
}

func (l *Links) neighbourTracks(idx *trackIndex, ps []Position, self *LinkingTrack) []*LinkingTrack {
	var out []*LinkingTrack
	for _, p := range ps {
		t := idx.byPosition[p]
		if t == self || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	l.sortTracks(out)
	return out
}

func (l *Links) sortTracks(ts []*LinkingTrack) {
	slices.SortFunc(ts, func(a, b *LinkingTrack) int {
		if l.sortByX {
			if c := cmp.Compare(a.meanX, b.meanX); c != 0 {
				return c
			}
		}
		return position.Compare(a.FirstPosition(), b.FirstPosition())
	})
}

// GetTrack returns the track containing p, or nil if p has no links.
func (l *Links) GetTrack(p Position) *LinkingTrack {
	if !l.linked(p) {
		return nil
	}
	return l.tracks().byPosition[p]
}

// FindStartingTracks returns all tracks without a previous track, which are
// the roots of the lineages. Tracks are in layout order: by first position,
// or by mean x after [Links.SortTracksByX].
func (l *Links) FindStartingTracks() []*LinkingTrack {
	return slices.Clone(l.tracks().starting)
}

// SortTracksByX orders starting tracks and sibling tracks by their mean x
// coordinate, ties broken by first position. The order is deterministic.
// Existing track handles become stale.
func (l *Links) SortTracksByX() {
	if l.sortByX {
		return
	}
	l.sortByX = true
	l.touch()
}
