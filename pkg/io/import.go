package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matzehuels/celltrack/pkg/core/experiment"
	"github.com/matzehuels/celltrack/pkg/core/links"
	"github.com/matzehuels/celltrack/pkg/core/position"
	"github.com/matzehuels/celltrack/pkg/core/score"
	"github.com/matzehuels/celltrack/pkg/core/shape"
	"github.com/matzehuels/celltrack/pkg/errors"
)

// ReadOption configures [ReadJSON] and [ImportJSON].
type ReadOption func(*readConfig)

type readConfig struct {
	minTimePoint, maxTimePoint int
}

// WithTimePointRange loads only data between minTimePoint and maxTimePoint,
// inclusive. A negative bound is no bound. Links with one end outside the
// range are dropped.
func WithTimePointRange(minTimePoint, maxTimePoint int) ReadOption {
	return func(c *readConfig) {
		c.minTimePoint, c.maxTimePoint = minTimePoint, maxTimePoint
	}
}

func (c readConfig) contains(p position.Position) bool {
	t := p.TimePointNumber
	return (c.minTimePoint < 0 || t >= c.minTimePoint) && (c.maxTimePoint < 0 || t <= c.maxTimePoint)
}

// ReadJSON decodes a data file from r into a new experiment.
//
// Errors carry the code [errors.ErrCodeInvalidFormat] for malformed input,
// [errors.ErrCodeUnsupported] for an unknown version and
// [errors.ErrCodeInvalidInput] for a bad time point range. ReadJSON does
// not close r.
func ReadJSON(r io.Reader, opts ...ReadOption) (*experiment.Experiment, error) {
	cfg := readConfig{minTimePoint: -1, maxTimePoint: -1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := errors.ValidateTimePointRange(cfg.minTimePoint, cfg.maxTimePoint); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read")
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode")
	}

	exp := experiment.New("")
	_, hasVersion := top["version"]
	_, hasScores := top["family_scores"]
	switch {
	case hasVersion || hasScores:
		err = readFile(exp, raw, cfg)
	case top["directed"] != nil:
		var nl nodeLink
		if err = json.Unmarshal(raw, &nl); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode links")
		}
		err = readLinks(exp, &nl, cfg)
	default:
		var ps map[string][]json.RawMessage
		if err = json.Unmarshal(raw, &ps); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode positions")
		}
		err = readPositions(exp, ps, cfg)
	}
	if err != nil {
		return nil, err
	}
	return exp, nil
}

// ImportJSON reads the data file at path. An experiment without a stored
// name is named after the file.
func ImportJSON(path string, opts ...ReadOption) (*experiment.Experiment, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()

	exp, err := ReadJSON(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if exp.Name == "" {
		base := filepath.Base(path)
		exp.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return exp, nil
}

func readFile(exp *experiment.Experiment, raw []byte, cfg readConfig) error {
	var data file
	if err := json.Unmarshal(raw, &data); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode")
	}
	if data.Version != "" && data.Version != Version {
		return errors.New(errors.ErrCodeUnsupported, "unknown data file version %q", data.Version)
	}
	exp.Name = data.Name

	if err := readPositions(exp, data.Positions, cfg); err != nil {
		return err
	}
	if data.Links != nil {
		if err := readLinks(exp, data.Links, cfg); err != nil {
			return err
		}
	}
	if err := readLineages(exp.Links, data.Lineages); err != nil {
		return err
	}
	for i, sf := range data.FamilyScores {
		mother, d1, d2 := sf.Mother.position(), sf.Daughter1.position(), sf.Daughter2.position()
		if !cfg.contains(mother) || !cfg.contains(d1) || !cfg.contains(d2) {
			continue
		}
		f, err := score.NewFamily(mother, d1, d2)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "family score %d", i)
		}
		exp.Scores.Add(score.ScoredFamily{Family: f, Score: score.Score(sf.Scores)})
	}
	if r := data.ImageResolution; r != nil {
		exp.Resolution = experiment.Resolution{
			PixelSizeX: r.X, PixelSizeY: r.Y, PixelSizeZ: r.Z, TimePointInterval: r.T,
		}
	}
	if s := data.Settings; s != nil {
		// A missing key keeps the default; a stored 0 is kept as is.
		for name, v := range map[string]*int{
			"division_lookahead_time_points": s.DivisionLookaheadTimePoints,
			"min_spur_length":                s.MinSpurLength,
		} {
			if v != nil && *v < 0 {
				return errors.New(errors.ErrCodeInvalidFormat, "settings: %s is negative: %d", name, *v)
			}
		}
		if s.DivisionLookaheadTimePoints != nil {
			exp.Settings.DivisionLookaheadTimePoints = *s.DivisionLookaheadTimePoints
		}
		if s.MinSpurLength != nil {
			exp.Settings.MinSpurLength = *s.MinSpurLength
		}
		exp.Settings.EdgeMargin = s.EdgeMargin
		exp.Settings.ImageWidth = s.ImageWidth
		exp.Settings.ImageHeight = s.ImageHeight
	}
	return nil
}

func readPositions(exp *experiment.Experiment, frames map[string][]json.RawMessage, cfg readConfig) error {
	for key, list := range frames {
		t, err := strconv.Atoi(key)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "time point %q", key)
		}
		for _, rawPosition := range list {
			p, s, err := decodePosition(rawPosition, t)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidFormat, err, "position in time point %d", t)
			}
			if cfg.contains(p) {
				exp.Positions.Add(p, s)
			}
		}
	}
	return nil
}

// decodePosition parses [x, y, z, shape...].
func decodePosition(raw json.RawMessage, t int) (position.Position, shape.Shape, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var list []any
	if err := dec.Decode(&list); err != nil {
		return position.Position{}, nil, err
	}
	if len(list) < 3 {
		return position.Position{}, nil, fmt.Errorf("expected x, y and z, got %d values", len(list))
	}
	var xyz [3]float64
	for i := range xyz {
		n, ok := list[i].(json.Number)
		if !ok {
			return position.Position{}, nil, fmt.Errorf("coordinate %v is not a number", list[i])
		}
		f, err := n.Float64()
		if err != nil {
			return position.Position{}, nil, err
		}
		xyz[i] = f
	}
	s, err := shape.FromList(list[3:])
	if err != nil {
		return position.Position{}, nil, err
	}
	return position.New(xyz[0], xyz[1], xyz[2], t), s, nil
}

func readLinks(exp *experiment.Experiment, nl *nodeLink, cfg readConfig) error {
	l := exp.Links
	for _, n := range nl.Nodes {
		p, entries, err := decodeKeyed(n, links.PositionIDKey)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "node")
		}
		if !cfg.contains(p) {
			continue
		}
		for _, e := range entries {
			if err := l.SetPositionData(p, e.Key, e.Value); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidFormat, err, "node %s", p)
			}
		}
	}
	for _, lk := range nl.Links {
		source, target := lk.Source.position(), lk.Target.position()
		if !cfg.contains(source) || !cfg.contains(target) {
			continue
		}
		if err := l.AddLink(source, target); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "link %s -> %s", source, target)
		}
	}
	exp.MergeLinkedPositions()
	return nil
}

// readLineages must run after all links are in place, since lineage data is
// attached to the lineage's root track.
func readLineages(l *links.Links, records []map[string]json.RawMessage) error {
	for _, rec := range records {
		start, entries, err := decodeKeyed(rec, links.LineageIDKey)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "lineage")
		}
		track := l.GetTrack(start)
		if track == nil {
			continue
		}
		for _, e := range entries {
			if err := l.SetLineageData(track, e.Key, e.Value); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidFormat, err, "lineage %s", start)
			}
		}
	}
	return nil
}

func decodeKeyed(obj map[string]json.RawMessage, idKey string) (position.Position, []links.Entry, error) {
	rawID, ok := obj[idKey]
	if !ok {
		return position.Position{}, nil, fmt.Errorf("missing %q", idKey)
	}
	var id jsonPosition
	if err := json.Unmarshal(rawID, &id); err != nil {
		return position.Position{}, nil, fmt.Errorf("%s: %w", idKey, err)
	}
	var entries []links.Entry
	for key, raw := range obj {
		if key == idKey {
			continue
		}
		var v links.Value
		if err := json.Unmarshal(raw, &v); err != nil {
			return position.Position{}, nil, fmt.Errorf("%s of %s: %w", key, id.position(), err)
		}
		if !v.IsAbsent() {
			entries = append(entries, links.Entry{Key: key, Value: v})
		}
	}
	return id.position(), entries, nil
}
