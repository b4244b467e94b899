package lineagetree

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/celltrack/pkg/analysis/markers"
	"github.com/matzehuels/celltrack/pkg/core/color"
	"github.com/matzehuels/celltrack/pkg/core/links"
	"github.com/matzehuels/celltrack/pkg/core/position"
)

func pos(x float64, t int) position.Position { return position.New(x, 0, 0, t) }

func mustLink(t *testing.T, l *links.Links, a, b position.Position) {
	t.Helper()
	if err := l.AddLink(a, b); err != nil {
		t.Fatal(err)
	}
}

// newLineage builds a mother from t=0 to t=3 dividing into a daughter that
// dies at t=20 and one that is lost at t=5, plus a lone cell at x=50.
func newLineage(t *testing.T) *links.Links {
	l := links.New()
	for tp := 0; tp < 3; tp++ {
		mustLink(t, l, pos(0, tp), pos(0, tp+1))
	}
	mustLink(t, l, pos(0, 3), pos(-1, 4))
	mustLink(t, l, pos(0, 3), pos(1, 4))
	for tp := 4; tp < 20; tp++ {
		mustLink(t, l, pos(-1, tp), pos(-1, tp+1))
	}
	mustLink(t, l, pos(1, 4), pos(1, 5))
	markers.SetEndMarker(l, pos(-1, 20), markers.Dead)
	mustLink(t, l, pos(50, 0), pos(50, 1))
	return l
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(newLineage(t), Options{})

	if !strings.Contains(dot, "digraph lineages") {
		t.Error("ToDOT() output missing digraph declaration")
	}
	for _, want := range []string{`"0:0,0,0" -> "4:-1,0,0"`, `"0:0,0,0" -> "4:1,0,0"`, `"0:50,0,0"`} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %s", want)
		}
	}
	if !strings.Contains(dot, `fillcolor="`+color.Red.Hex()+`"`) {
		t.Error("ToDOT() dying track not filled red")
	}
	if !strings.Contains(dot, `label="t4-20"`) {
		t.Error("ToDOT() missing time span label")
	}
}

func TestToDOT_MinDivisions(t *testing.T) {
	dot := ToDOT(newLineage(t), Options{MinDivisions: 1})
	if strings.Contains(dot, `"0:50,0,0"`) {
		t.Error("ToDOT() kept lineage without divisions")
	}
	if !strings.Contains(dot, `"0:0,0,0"`) {
		t.Error("ToDOT() dropped dividing lineage")
	}
}

func TestToDOT_LastTimePoint(t *testing.T) {
	dot := ToDOT(newLineage(t), Options{LastTimePoint: 3})
	if strings.Contains(dot, `"4:-1,0,0"`) {
		t.Error("ToDOT() kept track starting after the last time point")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	l := newLineage(t)
	markers.SetErrorMarker(l, pos(1, 5), markers.NoFuturePosition, false)

	dot := ToDOT(l, Options{Detailed: true})

	if !strings.Contains(dot, `end: DEAD`) {
		t.Error("ToDOT() detailed output missing end marker")
	}
	if !strings.Contains(dot, `has errors`) {
		t.Error("ToDOT() detailed output missing error state")
	}
	if !strings.Contains(dot, `fillcolor="`+color.Gray.Hex()+`"`) {
		t.Error("ToDOT() errored track not gray")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(ToDOT(newLineage(t), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("RenderSVG() output is not SVG")
	}
}
