package links_test

import (
	"fmt"

	"github.com/matzehuels/celltrack/pkg/core/links"
	"github.com/matzehuels/celltrack/pkg/core/position"
)

func ExampleLinks_basic() {
	// A cell moves for two time points, then divides.
	l := links.New()
	_ = l.AddLink(position.New(0, 0, 0, 0), position.New(1, 0, 0, 1))
	_ = l.AddLink(position.New(1, 0, 0, 1), position.New(2, 0, 0, 2))
	_ = l.AddLink(position.New(2, 0, 0, 2), position.New(1, 5, 0, 3))
	_ = l.AddLink(position.New(2, 0, 0, 2), position.New(3, -5, 0, 3))

	root := l.GetTrack(position.New(0, 0, 0, 0))
	fmt.Println("Links:", l.LinkCount())
	fmt.Println("Root track length:", root.Len())
	fmt.Println("Daughter tracks:", len(root.NextTracks()))
	// Output:
	// Links: 4
	// Root track length: 3
	// Daughter tracks: 2
}

func ExampleLinks_metadata() {
	l := links.New()
	p := position.New(10, 20, 3, 5)
	l.SetPositionData(p, "ending", links.String("DEAD"))

	ending, _ := l.PositionData(p, "ending").AsString()
	fmt.Println("Ending:", ending)
	fmt.Println("Missing:", l.PositionData(p, "error"))
	// Output:
	// Ending: DEAD
	// Missing: <absent>
}
