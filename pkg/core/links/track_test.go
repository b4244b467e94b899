package links

import (
	"testing"
)

func TestGetTrack(t *testing.T) {
	l := New()
	chain(t, l, 0, 0, 5)
	_ = l.AddLink(pos(0, 5), pos(-1, 6))
	_ = l.AddLink(pos(0, 5), pos(1, 6))
	chain(t, l, 1, 6, 8)

	if l.GetTrack(pos(50, 50)) != nil {
		t.Error("GetTrack(unlinked) != nil")
	}
	l.SetPositionData(pos(50, 50), "error", Int(1))
	if l.GetTrack(pos(50, 50)) != nil {
		t.Error("GetTrack(metadata only) != nil")
	}

	root := l.GetTrack(pos(0, 3))
	if root != l.GetTrack(pos(0, 0)) {
		t.Error("positions of one track map to different handles")
	}
	if root.MinTimePointNumber() != 0 || root.MaxTimePointNumber() != 5 {
		t.Errorf("root spans %d..%d, want 0..5", root.MinTimePointNumber(), root.MaxTimePointNumber())
	}
	if root.Len() != 6 || root.FindLastPosition() != pos(0, 5) {
		t.Errorf("root = %v", root)
	}

	next := root.NextTracks()
	if len(next) != 2 {
		t.Fatalf("NextTracks() = %v, want 2 tracks", next)
	}
	if next[0].FirstPosition() != pos(-1, 6) || next[1].FirstPosition() != pos(1, 6) {
		t.Errorf("NextTracks() order = %v", next)
	}
	if next[1].MaxTimePointNumber() != 8 {
		t.Errorf("daughter ends at %d, want 8", next[1].MaxTimePointNumber())
	}
	if prev := next[1].PreviousTracks(); len(prev) != 1 || prev[0] != root {
		t.Errorf("PreviousTracks() = %v, want [root]", prev)
	}

	starts := l.FindStartingTracks()
	if len(starts) != 1 || starts[0] != root {
		t.Errorf("FindStartingTracks() = %v", starts)
	}
}

func TestTrackStale(t *testing.T) {
	l := New()
	chain(t, l, 0, 0, 3)
	track := l.GetTrack(pos(0, 0))
	if track.Stale() {
		t.Fatal("fresh track reports stale")
	}

	l.SetPositionData(pos(0, 1), "warning", String("x"))
	if track.Stale() {
		t.Error("metadata change made track stale")
	}

	_ = l.AddLink(pos(0, 3), pos(0, 4))
	if !track.Stale() {
		t.Error("track not stale after AddLink")
	}
	if track.Len() != 4 {
		t.Errorf("stale handle changed: Len() = %d, want 4", track.Len())
	}
	if fresh := l.GetTrack(pos(0, 0)); fresh.Len() != 5 {
		t.Errorf("fresh Len() = %d, want 5", fresh.Len())
	}
}

func TestMergeStartsNewTrack(t *testing.T) {
	l := New()
	chain(t, l, 0, 0, 2)
	chain(t, l, 5, 0, 2)
	_ = l.AddLink(pos(0, 2), pos(2, 3))
	_ = l.AddLink(pos(5, 2), pos(2, 3))

	merged := l.GetTrack(pos(2, 3))
	if len(merged.PreviousTracks()) != 2 {
		t.Errorf("PreviousTracks() = %v, want 2", merged.PreviousTracks())
	}
	if got := len(l.FindStartingTracks()); got != 2 {
		t.Errorf("FindStartingTracks() has %d tracks, want 2", got)
	}
}

func TestFindAllDescendingTracks(t *testing.T) {
	l := New()
	_ = l.AddLink(pos(0, 0), pos(-1, 1))
	_ = l.AddLink(pos(0, 0), pos(1, 1))
	_ = l.AddLink(pos(-1, 1), pos(-2, 2))
	_ = l.AddLink(pos(-1, 1), pos(-0.5, 2))

	root := l.GetTrack(pos(0, 0))
	all := root.FindAllDescendingTracks(true)
	if len(all) != 5 {
		t.Fatalf("FindAllDescendingTracks(true) = %d tracks, want 5", len(all))
	}
	if all[0] != root {
		t.Error("self not first")
	}
	// Depth-first: the left daughter's subtree comes before the right daughter.
	wantFirst := []Position{pos(0, 0), pos(-1, 1), pos(-2, 2), pos(-0.5, 2), pos(1, 1)}
	for i, tr := range all {
		if tr.FirstPosition() != wantFirst[i] {
			t.Errorf("track %d starts at %v, want %v", i, tr.FirstPosition(), wantFirst[i])
		}
	}
	if got := root.FindAllDescendingTracks(false); len(got) != 4 {
		t.Errorf("FindAllDescendingTracks(false) = %d tracks, want 4", len(got))
	}
}

func TestDeepLineage(t *testing.T) {
	const generations = 1000
	l := New()
	for g := 0; g < generations; g++ {
		_ = l.AddLink(pos(0, g), pos(0, g+1))
		_ = l.AddLink(pos(0, g), pos(1, g+1))
	}

	root := l.GetTrack(pos(0, 0))
	got := root.FindAllDescendingTracks(true)
	if len(got) != 2*generations+1 {
		t.Errorf("FindAllDescendingTracks() = %d tracks, want %d", len(got), 2*generations+1)
	}
}

func TestSortTracksByX(t *testing.T) {
	l := New()
	chain(t, l, 10, 0, 2)
	chain(t, l, 1, 5, 7)

	// Siblings whose first positions sort opposite to their mean x.
	_ = l.AddLink(pos(5, 0), pos(2, 1))
	_ = l.AddLink(pos(5, 0), pos(3, 1))
	_ = l.AddLink(pos(2, 1), pos(20, 2))
	_ = l.AddLink(pos(20, 2), pos(20, 3))
	chain(t, l, 3, 1, 3)

	starts := l.FindStartingTracks()
	if starts[0].FirstPosition() != pos(5, 0) || starts[2].FirstPosition() != pos(1, 5) {
		t.Errorf("default order = %v", starts)
	}

	l.SortTracksByX()
	starts = l.FindStartingTracks()
	want := []float64{1, 5, 10}
	for i, s := range starts {
		if s.MeanX() != want[i] {
			t.Errorf("starting track %d has mean x %v, want %v", i, s.MeanX(), want[i])
		}
	}

	mother := l.GetTrack(pos(5, 0))
	next := mother.NextTracks()
	if next[0].FirstPosition() != pos(3, 1) {
		t.Errorf("sibling order by x = %v, want track at x=3 first", next)
	}
}
