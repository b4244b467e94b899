// Package fate predicts what will happen to a cell: whether it divides,
// dies, is shed, or just keeps moving.
package fate

import (
	"fmt"

	"github.com/matzehuels/celltrack/pkg/analysis/markers"
	"github.com/matzehuels/celltrack/pkg/core/experiment"
	"github.com/matzehuels/celltrack/pkg/core/position"
	"github.com/matzehuels/celltrack/pkg/errors"
)

// Type is the kind of fate.
type Type int

const (
	// Unknown means the cell could not be followed long enough to tell.
	Unknown Type = iota
	// JustMoving means the cell was followed for longer than the lookahead
	// window without dividing or dying.
	JustMoving
	WillDivide
	WillDie
	WillShed
)

func (t Type) String() string {
	switch t {
	case JustMoving:
		return "JUST_MOVING"
	case WillDivide:
		return "WILL_DIVIDE"
	case WillDie:
		return "WILL_DIE"
	case WillShed:
		return "WILL_SHED"
	}
	return "UNKNOWN"
}

// CellFate is the outcome of [Get]. TimePointsRemaining is only meaningful
// when HasRemaining is set, which is the case for WillDivide, WillDie and
// WillShed.
type CellFate struct {
	Type                Type
	TimePointsRemaining int
	HasRemaining        bool
}

func (f CellFate) String() string {
	if f.HasRemaining {
		return fmt.Sprintf("%s in %d time points", f.Type, f.TimePointsRemaining)
	}
	return f.Type.String()
}

// Get follows the cell at p forward in time until it divides, dies, is
// shed, or its track ends. A track that ends without a DEAD or SHED marker
// gives JustMoving if the cell was followed past the lookahead window of
// the experiment, and Unknown otherwise. A position with an active error
// marker is treated as the end of the track.
//
// Get returns an error with code [errors.ErrCodeNoLinks] when the experiment
// has no links at all.
func Get(exp *experiment.Experiment, p position.Position) (CellFate, error) {
	l := exp.Links
	if !l.HasLinks() {
		return CellFate{}, errors.New(errors.ErrCodeNoLinks, "experiment %q has no links", exp.Name)
	}
	start := p.TimePointNumber
	maxTimePoint := start + exp.Settings.DivisionLookaheadTimePoints

	cur := p
	for {
		futures := l.FindFutures(cur)
		if len(futures) == 0 {
			switch markers.GetEndMarker(l, cur) {
			case markers.Dead:
				return remaining(WillDie, cur, start), nil
			case markers.Shed:
				return remaining(WillShed, cur, start), nil
			}
		}
		if _, hasError := markers.GetErrorMarker(l, cur); len(futures) == 0 || hasError {
			if cur.TimePointNumber > maxTimePoint {
				return CellFate{Type: JustMoving}, nil
			}
			return CellFate{Type: Unknown}, nil
		}
		if len(futures) >= 2 {
			return remaining(WillDivide, cur, start), nil
		}
		cur = futures[0]
	}
}

func remaining(t Type, cur position.Position, start int) CellFate {
	return CellFate{Type: t, TimePointsRemaining: cur.TimePointNumber - start, HasRemaining: true}
}
