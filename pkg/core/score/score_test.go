package score

import (
	"errors"
	"testing"

	"github.com/matzehuels/celltrack/pkg/core/position"
)

func TestNewFamily(t *testing.T) {
	m := position.New(0, 0, 0, 4)
	a := position.New(5, 0, 0, 5)
	b := position.New(-5, 0, 0, 5)

	f, err := NewFamily(m, a, b)
	if err != nil {
		t.Fatalf("NewFamily() error: %v", err)
	}
	g, _ := NewFamily(m, b, a)
	if f != g {
		t.Errorf("daughter order matters: %v != %v", f, g)
	}
	if f.Daughter1 != b {
		t.Errorf("Daughter1 = %v, want %v", f.Daughter1, b)
	}

	if _, err := NewFamily(m, a, a); !errors.Is(err, ErrSameDaughter) {
		t.Errorf("NewFamily(same) error = %v", err)
	}
	if _, err := NewFamily(m, a, position.New(1, 1, 1, 6)); !errors.Is(err, ErrDaughterTimePoint) {
		t.Errorf("NewFamily(wrong time) error = %v", err)
	}
}

func TestCollectionOrder(t *testing.T) {
	m1 := position.New(0, 0, 0, 1)
	m2 := position.New(9, 0, 0, 1)
	f1, _ := NewFamily(m1, position.New(1, 0, 0, 2), position.New(2, 0, 0, 2))
	f2, _ := NewFamily(m2, position.New(8, 0, 0, 2), position.New(10, 0, 0, 2))

	var c Collection
	c.Add(ScoredFamily{f1, Score{"size": 1, "angle": 0.5}})
	c.Add(ScoredFamily{f2, Score{"size": 3}})

	all := c.All()
	if all[0].Family != f2 {
		t.Errorf("best family = %v, want %v", all[0].Family, f2)
	}

	c.Add(ScoredFamily{f1, Score{"size": 5}})
	if c.Len() != 2 {
		t.Errorf("Len() = %d after replacing a score, want 2", c.Len())
	}
	if s, _ := c.Of(f1); s.Total() != 5 {
		t.Errorf("Of(f1).Total() = %v, want 5", s.Total())
	}
	if c.All()[0].Family != f1 {
		t.Error("replaced score not re-ranked")
	}

	c.Remove(f1)
	if _, ok := c.Of(f1); ok {
		t.Error("removed family still scored")
	}
}

func TestScoreString(t *testing.T) {
	s := Score{"b": 1, "a": 0.5}
	if got := s.String(); got != "1.50 (a=0.50, b=1.00)" {
		t.Errorf("String() = %q", got)
	}
}
