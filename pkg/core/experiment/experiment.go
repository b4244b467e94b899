// Package experiment bundles everything known about one time-lapse
// recording: detected positions, links, division scores, image resolution
// and analysis settings.
package experiment

import (
	"github.com/matzehuels/celltrack/pkg/core/links"
	"github.com/matzehuels/celltrack/pkg/core/position"
	"github.com/matzehuels/celltrack/pkg/core/score"
)

// Default analysis settings.
const (
	DefaultDivisionLookaheadTimePoints = 100
	DefaultMinSpurLength               = 3
)

// Settings are the tunable parameters of the analysis algorithms.
type Settings struct {
	// DivisionLookaheadTimePoints is how far a cell must be followed without
	// dividing or dying before it is classified as just moving.
	DivisionLookaheadTimePoints int
	// MinSpurLength is the number of links a track that appeared mid-way
	// needs to survive spur removal.
	MinSpurLength int
	// EdgeMargin removes positions closer than this many pixels to the image
	// border during post-processing. Zero disables it.
	EdgeMargin float64
	// ImageWidth and ImageHeight are the image size in pixels, used for the
	// edge margin. Zero means unknown.
	ImageWidth, ImageHeight float64
}

// DefaultSettings returns the settings used when a data file has none.
func DefaultSettings() Settings {
	return Settings{
		DivisionLookaheadTimePoints: DefaultDivisionLookaheadTimePoints,
		MinSpurLength:               DefaultMinSpurLength,
	}
}

// Resolution is the physical size of a pixel and of a time step.
// Zero values mean unknown.
type Resolution struct {
	PixelSizeX, PixelSizeY, PixelSizeZ float64 // Micrometers
	TimePointInterval                  float64 // Minutes
}

// IsKnown reports whether all fields are set.
func (r Resolution) IsKnown() bool {
	return r.PixelSizeX > 0 && r.PixelSizeY > 0 && r.PixelSizeZ > 0 && r.TimePointInterval > 0
}

// Hours converts a number of time points to hours. ok is false if the time
// resolution is unknown.
func (r Resolution) Hours(timePoints int) (hours float64, ok bool) {
	if r.TimePointInterval <= 0 {
		return 0, false
	}
	return float64(timePoints) * r.TimePointInterval / 60, true
}

// Experiment is the aggregate the analysis packages operate on.
//
// The zero value is not usable - use New.
// Experiment is not safe for concurrent use without external synchronization.
type Experiment struct {
	Name       string
	Positions  *position.Collection
	Links      *links.Links
	Scores     score.Collection
	Resolution Resolution
	Settings   Settings
}

// New creates an empty experiment with default settings.
func New(name string) *Experiment {
	return &Experiment{
		Name:      name,
		Positions: position.NewCollection(),
		Links:     links.New(),
		Settings:  DefaultSettings(),
	}
}

// FirstTimePointNumber returns the first time point holding positions or
// links. ok is false for an empty experiment.
func (e *Experiment) FirstTimePointNumber() (n int, ok bool) {
	n, ok = e.Positions.FirstTimePointNumber()
	for _, p := range e.linkedBounds() {
		if !ok || p.TimePointNumber < n {
			n, ok = p.TimePointNumber, true
		}
	}
	return n, ok
}

// LastTimePointNumber returns the last time point holding positions or
// links. ok is false for an empty experiment.
func (e *Experiment) LastTimePointNumber() (n int, ok bool) {
	n, ok = e.Positions.LastTimePointNumber()
	for _, p := range e.linkedBounds() {
		if !ok || p.TimePointNumber > n {
			n, ok = p.TimePointNumber, true
		}
	}
	return n, ok
}

// linkedBounds returns the first and last linked position, or nothing.
func (e *Experiment) linkedBounds() []position.Position {
	all := e.Links.FindAllPositions()
	if len(all) == 0 {
		return nil
	}
	return []position.Position{all[0], all[len(all)-1]}
}

// RemovePosition removes p from the positions, the links and every family
// score that mentions it.
func (e *Experiment) RemovePosition(p position.Position) {
	e.Positions.Remove(p)
	e.Links.RemovePosition(p)
	for _, sf := range e.Scores.All() {
		f := sf.Family
		if f.Mother == p || f.Daughter1 == p || f.Daughter2 == p {
			e.Scores.Remove(f)
		}
	}
}

// MergeLinkedPositions adds every linked position missing from the
// position collection, with an unknown shape.
func (e *Experiment) MergeLinkedPositions() {
	for _, p := range e.Links.FindAllPositions() {
		if !e.Positions.Contains(p) {
			e.Positions.Add(p, nil)
		}
	}
}
