// Package age measures how long ago a cell was born.
package age

import (
	"github.com/matzehuels/celltrack/pkg/core/links"
	"github.com/matzehuels/celltrack/pkg/core/position"
)

// Get returns the number of time points between the division that created
// the cell at p and p itself. A daughter at its first position has age 0.
//
// The age is unknown, and ok is false, when the track of p starts without
// a division (the cell appeared, or was already there at the start of the
// experiment) or when a merge is found on the way back.
func Get(l *links.Links, p position.Position) (age int, ok bool) {
	cur := p
	for {
		pasts := l.FindPasts(cur)
		if len(pasts) != 1 {
			return 0, false
		}
		if len(l.FindFutures(pasts[0])) > 1 {
			return p.TimePointNumber - cur.TimePointNumber, true
		}
		cur = pasts[0]
	}
}
