package io

import (
	"encoding/json"

	"github.com/matzehuels/celltrack/pkg/core/links"
	"github.com/matzehuels/celltrack/pkg/core/position"
)

// Version is the only data file version this package reads and writes.
const Version = "v1"

type file struct {
	Version         string                       `json:"version"`
	Name            string                       `json:"name,omitempty"`
	Positions       map[string][]json.RawMessage `json:"positions,omitempty"`
	Links           *nodeLink                    `json:"links,omitempty"`
	Lineages        []map[string]json.RawMessage `json:"lineages,omitempty"`
	FamilyScores    []scoredFamily               `json:"family_scores,omitempty"`
	ImageResolution *resolution                  `json:"image_resolution,omitempty"`
	Settings        *settings                    `json:"settings,omitempty"`
}

type jsonPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	T int     `json:"_time_point_number"`
}

func toJSON(p position.Position) jsonPosition {
	return jsonPosition{X: p.X, Y: p.Y, Z: p.Z, T: p.TimePointNumber}
}

func (p jsonPosition) position() position.Position {
	return position.New(p.X, p.Y, p.Z, p.T)
}

type nodeLink struct {
	Directed   bool                         `json:"directed"`
	Multigraph bool                         `json:"multigraph"`
	Graph      map[string]any               `json:"graph"`
	Nodes      []map[string]json.RawMessage `json:"nodes"`
	Links      []link                       `json:"links"`
}

type link struct {
	Source jsonPosition `json:"source"`
	Target jsonPosition `json:"target"`
}

type scoredFamily struct {
	Scores    map[string]float64 `json:"scores"`
	Mother    jsonPosition       `json:"mother"`
	Daughter1 jsonPosition       `json:"daughter1"`
	Daughter2 jsonPosition       `json:"daughter2"`
}

type resolution struct {
	X float64 `json:"x_um"`
	Y float64 `json:"y_um"`
	Z float64 `json:"z_um"`
	T float64 `json:"t_m"`
}

type settings struct {
	DivisionLookaheadTimePoints *int    `json:"division_lookahead_time_points,omitempty"`
	MinSpurLength               *int    `json:"min_spur_length,omitempty"`
	EdgeMargin                  float64 `json:"edge_margin,omitempty"`
	ImageWidth                  float64 `json:"image_width,omitempty"`
	ImageHeight                 float64 `json:"image_height,omitempty"`
}

// keyed is an "id" or "start" position together with metadata entries,
// the layout of both node-link nodes and lineage records.
func keyed(idKey string, p position.Position, entries []links.Entry) map[string]any {
	out := make(map[string]any, len(entries)+1)
	for _, e := range entries {
		out[e.Key] = e.Value
	}
	out[idKey] = toJSON(p)
	return out
}
