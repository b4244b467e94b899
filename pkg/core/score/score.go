// Package score models cell divisions as families and ranks candidate
// families by named scores.
package score

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/celltrack/pkg/core/position"
)

var (
	// ErrSameDaughter is returned by [NewFamily] when both daughters are the
	// same position.
	ErrSameDaughter = errors.New("daughters must be distinct")

	// ErrDaughterTimePoint is returned by [NewFamily] when a daughter is not
	// exactly one time point after the mother.
	ErrDaughterTimePoint = errors.New("daughter must be one time point after the mother")
)

// Family is a mother cell together with its two daughters. The daughters
// are stored in sorted order, so two families with the same cells are equal.
type Family struct {
	Mother    position.Position
	Daughter1 position.Position
	Daughter2 position.Position
}

// NewFamily validates and creates a family.
func NewFamily(mother, daughter1, daughter2 position.Position) (Family, error) {
	if daughter1 == daughter2 {
		return Family{}, ErrSameDaughter
	}
	for _, d := range []position.Position{daughter1, daughter2} {
		if d.TimePointNumber != mother.TimePointNumber+1 {
			return Family{}, fmt.Errorf("%w: %s after %s", ErrDaughterTimePoint, d, mother)
		}
	}
	if position.Compare(daughter2, daughter1) < 0 {
		daughter1, daughter2 = daughter2, daughter1
	}
	return Family{Mother: mother, Daughter1: daughter1, Daughter2: daughter2}, nil
}

// Daughters returns both daughters.
func (f Family) Daughters() [2]position.Position {
	return [2]position.Position{f.Daughter1, f.Daughter2}
}

func (f Family) String() string {
	return fmt.Sprintf("%s → %s, %s", f.Mother, f.Daughter1, f.Daughter2)
}

// Score is a set of named features; higher totals mean more likely divisions.
type Score map[string]float64

// Total returns the sum of all features.
func (s Score) Total() float64 {
	var total float64
	for _, k := range slices.Sorted(maps.Keys(s)) {
		total += s[k]
	}
	return total
}

// Keys returns the feature names, sorted.
func (s Score) Keys() []string { return slices.Sorted(maps.Keys(s)) }

func (s Score) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%.2f (", s.Total())
	for i, k := range s.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%.2f", k, s[k])
	}
	b.WriteString(")")
	return b.String()
}

// ScoredFamily pairs a candidate family with its score.
type ScoredFamily struct {
	Family Family
	Score  Score
}

// Collection holds scored families, at most one per family.
// The zero value is an empty collection ready to use.
type Collection struct {
	items []ScoredFamily
}

// Add stores sf, replacing an earlier score of the same family.
func (c *Collection) Add(sf ScoredFamily) {
	for i := range c.items {
		if c.items[i].Family == sf.Family {
			c.items[i] = sf
			return
		}
	}
	c.items = append(c.items, sf)
}

// Remove deletes the score of f, if any.
func (c *Collection) Remove(f Family) {
	c.items = slices.DeleteFunc(c.items, func(sf ScoredFamily) bool { return sf.Family == f })
}

// Of returns the score of f.
func (c *Collection) Of(f Family) (Score, bool) {
	for _, sf := range c.items {
		if sf.Family == f {
			return sf.Score, true
		}
	}
	return nil, false
}

// Len returns the number of scored families.
func (c *Collection) Len() int { return len(c.items) }

// All returns the scored families, best total first. Ties are ordered by
// mother position.
func (c *Collection) All() []ScoredFamily {
	out := slices.Clone(c.items)
	slices.SortStableFunc(out, func(a, b ScoredFamily) int {
		if c := cmp.Compare(b.Score.Total(), a.Score.Total()); c != 0 {
			return c
		}
		return position.Compare(a.Family.Mother, b.Family.Mother)
	})
	return out
}
