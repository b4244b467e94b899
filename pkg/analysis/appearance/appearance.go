// Package appearance finds cells that appear out of nowhere.
package appearance

import (
	"github.com/matzehuels/celltrack/pkg/core/links"
	"github.com/matzehuels/celltrack/pkg/core/position"
)

// FindAppearedCells returns the linked positions without a past, except
// those in firstTimePoint, where every cell necessarily starts. Cells that
// appear later were either missed by the detection, moved into view, or are
// detection noise. The result is sorted.
func FindAppearedCells(l *links.Links, firstTimePoint int) []position.Position {
	var appeared []position.Position
	for _, p := range l.FindAllPositions() {
		if p.TimePointNumber == firstTimePoint {
			continue
		}
		if len(l.FindPasts(p)) == 0 {
			appeared = append(appeared, p)
		}
	}
	return appeared
}
