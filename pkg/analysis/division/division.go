// Package division finds cell divisions in a linking graph.
package division

import (
	"errors"
	"fmt"

	"github.com/matzehuels/celltrack/pkg/core/links"
	"github.com/matzehuels/celltrack/pkg/core/position"
	"github.com/matzehuels/celltrack/pkg/core/score"
)

// ErrTooManyDaughters matches every [*TooManyDaughtersError] via errors.Is.
var ErrTooManyDaughters = errors.New("mother has more than two daughters")

// TooManyDaughtersError reports a mother that cannot be turned into a
// family because it has more than two daughters.
type TooManyDaughtersError struct {
	Mother    position.Position
	Daughters []position.Position
}

func (e *TooManyDaughtersError) Error() string {
	return fmt.Sprintf("%s has %d daughters", e.Mother, len(e.Daughters))
}

func (e *TooManyDaughtersError) Is(target error) bool { return target == ErrTooManyDaughters }

// FindMothers returns every position with two or more futures, sorted.
func FindMothers(l *links.Links) []position.Position {
	var mothers []position.Position
	for _, p := range l.FindAllPositions() {
		if len(l.FindFutures(p)) >= 2 {
			mothers = append(mothers, p)
		}
	}
	return mothers
}

// FindFamilies returns a family for every mother with exactly two
// daughters, ordered by mother.
//
// Only binary divisions are modeled. Mothers with more daughters are not
// split into pairs; each one is reported as a *TooManyDaughtersError, joined
// into the returned error. The families that could be formed are returned
// regardless, so one bad division does not hide the others.
func FindFamilies(l *links.Links) ([]score.Family, error) {
	var (
		families []score.Family
		errs     []error
	)
	for _, mother := range FindMothers(l) {
		daughters := l.FindFutures(mother)
		if len(daughters) > 2 {
			errs = append(errs, &TooManyDaughtersError{Mother: mother, Daughters: daughters})
			continue
		}
		family, err := score.NewFamily(mother, daughters[0], daughters[1])
		if err != nil {
			errs = append(errs, fmt.Errorf("division at %s: %w", mother, err))
			continue
		}
		families = append(families, family)
	}
	return families, errors.Join(errs...)
}
