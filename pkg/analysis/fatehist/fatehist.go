// Package fatehist relates the length of a cell cycle to the fate of the
// daughters produced at its end.
package fatehist

import (
	"github.com/matzehuels/celltrack/pkg/analysis/age"
	"github.com/matzehuels/celltrack/pkg/analysis/division"
	"github.com/matzehuels/celltrack/pkg/analysis/fate"
	"github.com/matzehuels/celltrack/pkg/core/experiment"
	"github.com/matzehuels/celltrack/pkg/errors"
)

// Bin counts daughter fates for divisions whose previous cell cycle lasted
// between MinTimePoint (inclusive) and MinTimePoint plus the bin width.
type Bin struct {
	MinTimePoint int
	Dividing     int
	Nondividing  int
	Unknown      int
}

// Total returns the number of daughters in the bin.
func (b Bin) Total() int { return b.Dividing + b.Nondividing + b.Unknown }

func (b Bin) DividingFraction() float64    { return b.fraction(b.Dividing) }
func (b Bin) NondividingFraction() float64 { return b.fraction(b.Nondividing) }
func (b Bin) UnknownFraction() float64     { return b.fraction(b.Unknown) }

func (b Bin) fraction(n int) float64 {
	total := b.Total()
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func (b *Bin) add(t fate.Type) {
	switch t {
	case fate.WillDivide:
		b.Dividing++
	case fate.JustMoving, fate.WillDie, fate.WillShed:
		b.Nondividing++
	default:
		b.Unknown++
	}
}

// Classify bins every binary division by the length of the mother's cell
// cycle and counts the fates of both daughters. Divisions whose mother has
// no known age are skipped, as are divisions with more than two daughters.
// Empty bins are left out of the result.
func Classify(exp *experiment.Experiment, binWidth int) ([]Bin, error) {
	if binWidth <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "bin width must be positive, got %d", binWidth)
	}
	if !exp.Links.HasLinks() {
		return nil, errors.New(errors.ErrCodeNoLinks, "experiment %q has no links", exp.Name)
	}

	// Families with too many daughters are reported by validation.
	families, _ := division.FindFamilies(exp.Links)

	var bins []Bin
	for _, f := range families {
		cycle, ok := age.Get(exp.Links, f.Mother)
		if !ok {
			continue
		}
		i := cycle / binWidth
		for len(bins) <= i {
			bins = append(bins, Bin{MinTimePoint: len(bins) * binWidth})
		}
		for _, d := range f.Daughters() {
			cf, err := fate.Get(exp, d)
			if err != nil {
				return nil, err
			}
			bins[i].add(cf.Type)
		}
	}

	nonEmpty := bins[:0]
	for _, b := range bins {
		if b.Total() > 0 {
			nonEmpty = append(nonEmpty, b)
		}
	}
	return nonEmpty, nil
}
