// Package postprocess repairs automatically created links by removing
// detections that are most likely noise.
package postprocess

import (
	"slices"

	"github.com/matzehuels/celltrack/pkg/analysis/appearance"
	"github.com/matzehuels/celltrack/pkg/core/experiment"
	"github.com/matzehuels/celltrack/pkg/core/links"
	"github.com/matzehuels/celltrack/pkg/core/position"
)

// segment is a run of positions from an appeared cell or a daughter up to
// the next division or track end.
type segment struct {
	positions []position.Position
	children  []*segment
	// open counts futures of the last position not followed as children,
	// because another segment already covers them.
	open int
}

// FindSpurs returns the positions of spurs: short tracks starting at a cell
// that appeared after firstTimePoint and ending without dividing.
//
// Each appeared cell is followed forward. A segment that ends with fewer
// than minLength links is a spur. At a division each daughter is judged on
// its own, so a spur can be cut from one side while its sibling stays. A
// segment whose daughters are all spurs is judged again as if it ended
// itself; this way removing the result leaves no new spurs behind and a
// second run finds nothing.
//
// The graph is not modified. The result is sorted.
func FindSpurs(l *links.Links, firstTimePoint, minLength int) []position.Position {
	var order []*segment
	visited := make(map[position.Position]bool)

	type job struct {
		start  position.Position
		parent *segment
	}
	var stack []job
	for _, p := range appearance.FindAppearedCells(l, firstTimePoint) {
		stack = append(stack, job{start: p})
	}
	for len(stack) > 0 {
		j := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[j.start] {
			if j.parent != nil {
				j.parent.open++
			}
			continue
		}

		seg := &segment{}
		order = append(order, seg)
		if j.parent != nil {
			j.parent.children = append(j.parent.children, seg)
		}

		p := j.start
		for {
			visited[p] = true
			seg.positions = append(seg.positions, p)
			futures := l.FindFutures(p)
			if len(futures) == 1 {
				if visited[futures[0]] {
					seg.open++
					break
				}
				p = futures[0]
				continue
			}
			for _, f := range futures {
				stack = append(stack, job{start: f, parent: seg})
			}
			break
		}
	}

	// Children are created after their parent, so walking backwards judges
	// every segment after all of its children.
	pruned := make(map[*segment]bool, len(order))
	var spurs []position.Position
	for i := len(order) - 1; i >= 0; i-- {
		seg := order[i]
		if seg.open > 0 {
			continue
		}
		ended := true
		for _, c := range seg.children {
			if !pruned[c] {
				ended = false
				break
			}
		}
		if ended && len(seg.positions)-1 < minLength {
			pruned[seg] = true
			spurs = append(spurs, seg.positions...)
		}
	}
	slices.SortFunc(spurs, position.Compare)
	return spurs
}

// RemoveSpurs removes all spurs from the experiment, using its minimum spur
// length setting, and returns the removed positions.
func RemoveSpurs(exp *experiment.Experiment) []position.Position {
	first, ok := exp.FirstTimePointNumber()
	if !ok {
		return nil
	}
	spurs := FindSpurs(exp.Links, first, exp.Settings.MinSpurLength)
	for _, p := range spurs {
		exp.RemovePosition(p)
	}
	return spurs
}

// RemovePositionsCloseToEdge removes every position closer than margin
// pixels to the border of a width × height image and returns them. A
// margin of zero or less removes nothing.
func RemovePositionsCloseToEdge(exp *experiment.Experiment, margin, width, height float64) []position.Position {
	if margin <= 0 {
		return nil
	}
	candidates := append(exp.Positions.All(), exp.Links.FindAllPositions()...)
	slices.SortFunc(candidates, position.Compare)
	candidates = slices.Compact(candidates)

	var removed []position.Position
	for _, p := range candidates {
		if p.X < margin || p.Y < margin || p.X > width-margin || p.Y > height-margin {
			exp.RemovePosition(p)
			removed = append(removed, p)
		}
	}
	return removed
}
