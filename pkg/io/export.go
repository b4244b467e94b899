package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/matzehuels/celltrack/pkg/core/experiment"
	"github.com/matzehuels/celltrack/pkg/core/links"
	"github.com/matzehuels/celltrack/pkg/core/position"
)

// WriteJSON encodes exp as a version 1 data file and writes it to w.
// The output can be read back with [ReadJSON] without loss.
func WriteJSON(exp *experiment.Experiment, w io.Writer) error {
	l := exp.Links
	out := struct {
		file
		Links *nodeLinkOut `json:"links,omitempty"`
		// Lineages shadows the embedded field with the output layout.
		Lineages []map[string]any `json:"lineages,omitempty"`
	}{
		file: file{
			Version: Version,
			Name:    exp.Name,
			Settings: &settings{
				DivisionLookaheadTimePoints: &exp.Settings.DivisionLookaheadTimePoints,
				MinSpurLength:               &exp.Settings.MinSpurLength,
				EdgeMargin:                  exp.Settings.EdgeMargin,
				ImageWidth:                  exp.Settings.ImageWidth,
				ImageHeight:                 exp.Settings.ImageHeight,
			},
		},
	}

	if exp.Positions.Len() > 0 {
		out.Positions = make(map[string][]json.RawMessage)
		for _, p := range exp.Positions.All() {
			list := append([]any{p.X, p.Y, p.Z}, exp.Positions.Shape(p).ToList()...)
			raw, err := json.Marshal(list)
			if err != nil {
				return fmt.Errorf("encode %s: %w", p, err)
			}
			key := strconv.Itoa(p.TimePointNumber)
			out.Positions[key] = append(out.Positions[key], raw)
		}
	}

	// Positions that lost all links but still carry markers are exported as
	// bare nodes.
	if known := l.FindAllKnownPositions(); len(known) > 0 || exp.Positions.Len() > 0 {
		nl := &nodeLinkOut{Graph: map[string]any{}, Nodes: []map[string]any{}, Links: []link{}}
		candidates := append(exp.Positions.All(), known...)
		slices.SortFunc(candidates, position.Compare)
		for _, p := range slices.Compact(candidates) {
			entries := l.FindAllDataOfPosition(p)
			if len(entries) == 0 && !l.Contains(p) {
				continue
			}
			nl.Nodes = append(nl.Nodes, keyed(links.PositionIDKey, p, entries))
		}
		for _, lk := range l.FindAllLinks() {
			nl.Links = append(nl.Links, link{Source: toJSON(lk.Source), Target: toJSON(lk.Target)})
		}
		out.Links = nl
	}

	for _, track := range l.FindStartingTracks() {
		if entries := l.FindAllLineageData(track); len(entries) > 0 {
			out.Lineages = append(out.Lineages, keyed(links.LineageIDKey, track.FirstPosition(), entries))
		}
	}

	for _, sf := range exp.Scores.All() {
		out.FamilyScores = append(out.FamilyScores, scoredFamily{
			Scores:    sf.Score,
			Mother:    toJSON(sf.Family.Mother),
			Daughter1: toJSON(sf.Family.Daughter1),
			Daughter2: toJSON(sf.Family.Daughter2),
		})
	}

	if r := exp.Resolution; r != (experiment.Resolution{}) {
		out.ImageResolution = &resolution{X: r.PixelSizeX, Y: r.PixelSizeY, Z: r.PixelSizeZ, T: r.TimePointInterval}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// nodeLinkOut is the output form of [nodeLink], with metadata values
// already converted.
type nodeLinkOut struct {
	Directed   bool             `json:"directed"`
	Multigraph bool             `json:"multigraph"`
	Graph      map[string]any   `json:"graph"`
	Nodes      []map[string]any `json:"nodes"`
	Links      []link           `json:"links"`
}

// ExportJSON writes exp to the data file at path, replacing it atomically.
func ExportJSON(exp *experiment.Experiment, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := WriteJSON(exp, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
