package age

import (
	"testing"

	"github.com/matzehuels/celltrack/pkg/core/links"
	"github.com/matzehuels/celltrack/pkg/core/position"
)

func pos(x float64, t int) position.Position { return position.New(x, 0, 0, t) }

func TestGet(t *testing.T) {
	l := links.New()
	for tp := 0; tp < 5; tp++ {
		if err := l.AddLink(pos(0, tp), pos(0, tp+1)); err != nil {
			t.Fatal(err)
		}
	}
	for _, link := range []links.Link{
		{Source: pos(0, 5), Target: pos(-1, 6)},
		{Source: pos(0, 5), Target: pos(1, 6)},
		{Source: pos(1, 6), Target: pos(1, 7)},
		{Source: pos(1, 7), Target: pos(1, 8)},
		// Merge at t=9.
		{Source: pos(1, 8), Target: pos(1, 9)},
		{Source: pos(5, 8), Target: pos(1, 9)},
		{Source: pos(1, 9), Target: pos(1, 10)},
	} {
		if err := l.AddLink(link.Source, link.Target); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		p      position.Position
		want   int
		wantOK bool
	}{
		{"newborn", pos(-1, 6), 0, true},
		{"daughter later", pos(1, 8), 2, true},
		{"before first division", pos(0, 3), 0, false},
		{"mother", pos(0, 5), 0, false},
		{"after merge", pos(1, 10), 0, false},
		{"unknown position", pos(42, 1), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Get(l, tt.p)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Get(%s) = %d, %v, want %d, %v", tt.p, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
