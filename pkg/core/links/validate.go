package links

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/matzehuels/celltrack/pkg/core/position"
)

// IssueKind classifies an integrity problem found by [Links.Validate].
type IssueKind int

const (
	// IssueMultipleParents marks a position with more than one past: two
	// cells were merged into one.
	IssueMultipleParents IssueKind = iota + 1
	// IssueTooManyDaughters marks a mother with more than two futures.
	IssueTooManyDaughters
	// IssueBackwardLink marks a link whose target is not later than its source.
	IssueBackwardLink
	// IssueSkippedTimePoints marks a link that jumps over one or more time points.
	IssueSkippedTimePoints
)

func (k IssueKind) String() string {
	switch k {
	case IssueMultipleParents:
		return "multiple parents"
	case IssueTooManyDaughters:
		return "too many daughters"
	case IssueBackwardLink:
		return "backward link"
	case IssueSkippedTimePoints:
		return "skipped time points"
	}
	return fmt.Sprintf("IssueKind(%d)", int(k))
}

// Issue is one integrity problem, attached to the position it is about.
// Related holds the other end(s): the parents, the daughters, or the link
// target.
type Issue struct {
	Kind     IssueKind
	Position Position
	Related  []Position
}

func (i Issue) String() string {
	return fmt.Sprintf("%s at %s", i.Kind, i.Position)
}

// Validate checks the whole graph and returns every problem found, sorted by
// position and kind. A nil result means the graph is well formed. Validate
// never stops at the first problem, so one corrupt lineage does not hide the
// others.
func (l *Links) Validate() []Issue {
	var issues []Issue
	for p, n := range l.nodes {
		if len(n.in) > 1 {
			issues = append(issues, Issue{Kind: IssueMultipleParents, Position: p, Related: l.FindPasts(p)})
		}
		if len(n.out) > 2 {
			issues = append(issues, Issue{Kind: IssueTooManyDaughters, Position: p, Related: l.FindFutures(p)})
		}
		for _, q := range l.FindFutures(p) {
			switch {
			case q.TimePointNumber <= p.TimePointNumber:
				issues = append(issues, Issue{Kind: IssueBackwardLink, Position: p, Related: []Position{q}})
			case q.TimePointNumber > p.TimePointNumber+1:
				issues = append(issues, Issue{Kind: IssueSkippedTimePoints, Position: p, Related: []Position{q}})
			}
		}
	}
	slices.SortFunc(issues, func(a, b Issue) int {
		if c := position.Compare(a.Position, b.Position); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		return slices.CompareFunc(a.Related, b.Related, position.Compare)
	})
	return issues
}
