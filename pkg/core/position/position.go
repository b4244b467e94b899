package position

import (
	"cmp"
	"fmt"
)

// TimePoint identifies a single frame of a time-lapse recording.
// It is used as the key for per-frame collections.
type TimePoint struct {
	number int
}

// NewTimePoint returns the time point with the given frame number.
func NewTimePoint(number int) TimePoint { return TimePoint{number: number} }

// Number returns the frame index.
func (t TimePoint) Number() int { return t.number }

// String implements fmt.Stringer.
func (t TimePoint) String() string { return fmt.Sprintf("TimePoint(%d)", t.number) }

// Position is a single cell detection at (x, y, z) in one time point.
//
// Position is an immutable value type: equality and hashing are by value, so
// it can be used directly as a map key. Two positions with identical
// coordinates but different time points are distinct.
type Position struct {
	X, Y, Z         float64
	TimePointNumber int
}

// New returns the position at (x, y, z) in the given time point.
func New(x, y, z float64, timePointNumber int) Position {
	return Position{X: x, Y: y, Z: z, TimePointNumber: timePointNumber}
}

// TimePoint returns the time point this position was detected in.
func (p Position) TimePoint() TimePoint { return TimePoint{number: p.TimePointNumber} }

// WithTimePointNumber returns a copy of p moved to another time point.
func (p Position) WithTimePointNumber(n int) Position {
	p.TimePointNumber = n
	return p
}

// DistanceSquared returns the squared Euclidean distance to o in pixels.
// The time point is ignored.
func (p Position) DistanceSquared(o Position) float64 {
	dx, dy, dz := p.X-o.X, p.Y-o.Y, p.Z-o.Z
	return dx*dx + dy*dy + dz*dz
}

// Compare orders positions by time point, then x, y and z.
// It returns -1, 0 or +1 and is suitable for slices.SortFunc.
func (p Position) Compare(o Position) int {
	if c := cmp.Compare(p.TimePointNumber, o.TimePointNumber); c != 0 {
		return c
	}
	if c := cmp.Compare(p.X, o.X); c != 0 {
		return c
	}
	if c := cmp.Compare(p.Y, o.Y); c != 0 {
		return c
	}
	return cmp.Compare(p.Z, o.Z)
}

// String implements fmt.Stringer.
func (p Position) String() string {
	return fmt.Sprintf("Position(%g, %g, %g, time_point_number=%d)", p.X, p.Y, p.Z, p.TimePointNumber)
}

// Compare is a free-function form of [Position.Compare].
func Compare(a, b Position) int { return a.Compare(b) }
