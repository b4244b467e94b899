package position

import (
	"maps"
	"slices"

	"github.com/matzehuels/celltrack/pkg/core/shape"
)

// Collection stores the detected positions of an experiment, grouped by time
// point, each with an optional shape.
//
// The zero value is not usable - use NewCollection.
// Collection is not safe for concurrent use without external synchronization.
type Collection struct {
	byTime map[int]map[Position]shape.Shape
	count  int
}

// NewCollection creates an empty position collection.
func NewCollection() *Collection {
	return &Collection{byTime: make(map[int]map[Position]shape.Shape)}
}

// Add stores p with the given shape. A nil shape is stored as [shape.Unknown].
// Adding a position that already exists only replaces its shape when the new
// shape is known, so re-adding from the links never erases shape data.
func (c *Collection) Add(p Position, s shape.Shape) {
	if s == nil {
		s = shape.Unknown{}
	}
	frame, ok := c.byTime[p.TimePointNumber]
	if !ok {
		frame = make(map[Position]shape.Shape)
		c.byTime[p.TimePointNumber] = frame
	}
	old, exists := frame[p]
	if !exists {
		c.count++
		frame[p] = s
		return
	}
	if old.IsUnknown() || !s.IsUnknown() {
		frame[p] = s
	}
}

// Remove deletes p. It is a no-op if p is not present.
func (c *Collection) Remove(p Position) {
	frame, ok := c.byTime[p.TimePointNumber]
	if !ok {
		return
	}
	if _, ok := frame[p]; !ok {
		return
	}
	delete(frame, p)
	c.count--
	if len(frame) == 0 {
		delete(c.byTime, p.TimePointNumber)
	}
}

// Contains reports whether p is stored.
func (c *Collection) Contains(p Position) bool {
	_, ok := c.byTime[p.TimePointNumber][p]
	return ok
}

// Shape returns the shape of p, or [shape.Unknown] if p is absent.
func (c *Collection) Shape(p Position) shape.Shape {
	if s, ok := c.byTime[p.TimePointNumber][p]; ok {
		return s
	}
	return shape.Unknown{}
}

// OfTimePoint returns the positions of one time point in sorted order.
func (c *Collection) OfTimePoint(tp TimePoint) []Position {
	frame := c.byTime[tp.Number()]
	return slices.SortedFunc(maps.Keys(frame), Compare)
}

// TimePoints returns all time points that hold at least one position, ascending.
func (c *Collection) TimePoints() []TimePoint {
	numbers := slices.Sorted(maps.Keys(c.byTime))
	out := make([]TimePoint, len(numbers))
	for i, n := range numbers {
		out[i] = NewTimePoint(n)
	}
	return out
}

// FirstTimePointNumber returns the lowest time point number in use.
// ok is false for an empty collection.
func (c *Collection) FirstTimePointNumber() (n int, ok bool) {
	if len(c.byTime) == 0 {
		return 0, false
	}
	return slices.Min(slices.Collect(maps.Keys(c.byTime))), true
}

// LastTimePointNumber returns the highest time point number in use.
// ok is false for an empty collection.
func (c *Collection) LastTimePointNumber() (n int, ok bool) {
	if len(c.byTime) == 0 {
		return 0, false
	}
	return slices.Max(slices.Collect(maps.Keys(c.byTime))), true
}

// Len returns the total number of stored positions.
func (c *Collection) Len() int { return c.count }

// All returns every stored position, sorted by [Compare].
func (c *Collection) All() []Position {
	out := make([]Position, 0, c.count)
	for _, frame := range c.byTime {
		for p := range frame {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, Compare)
	return out
}
