package links

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/celltrack/pkg/core/position"
)

type Position = position.Position

var (
	// ErrSelfLink is returned by [Links.AddLink] when source and target are the
	// same position. All other malformed links are accepted and reported by
	// [Links.Validate].
	ErrSelfLink = errors.New("cannot link a position to itself")

	// ErrUnknownPosition is returned by [Links.ReplacePosition] when the old
	// position is not in the graph.
	ErrUnknownPosition = errors.New("unknown position")

	// ErrDuplicatePosition is returned by [Links.ReplacePosition] when the new
	// position is already in the graph.
	ErrDuplicatePosition = errors.New("position already exists")

	// ErrReservedKey is returned when metadata is stored under a key the data
	// file uses to identify the position or lineage.
	ErrReservedKey = errors.New("reserved metadata key")
)

// Keys that identify a node and a lineage record in the data file. They
// cannot hold metadata.
const (
	PositionIDKey = "id"
	LineageIDKey  = "start"
)

// Link is a directed edge from an earlier to a later detection of a cell.
type Link struct {
	Source, Target Position
}

type node struct {
	out  map[Position]struct{}
	in   map[Position]struct{}
	meta map[string]Value
}

func (n *node) empty() bool {
	return len(n.out) == 0 && len(n.in) == 0 && len(n.meta) == 0
}

// Links is the linking graph of an experiment: positions connected forward in
// time, each with optional keyed metadata. A position with two or more
// futures is a mother; one with none is the end of a track.
//
// Links also keeps per-lineage metadata, stored under the first position of
// the lineage's root track.
//
// Tracks are derived from the graph on demand and memoized until links or
// positions change; see [Links.GetTrack].
//
// The zero value is not usable - use New to create a graph.
// Links is not safe for concurrent use without external synchronization.
type Links struct {
	nodes     map[Position]*node
	lineages  map[Position]map[string]Value
	linkCount int
	revision  uint64
	sortByX   bool
	index     *trackIndex
}

// New creates an empty linking graph.
func New() *Links {
	return &Links{
		nodes:    make(map[Position]*node),
		lineages: make(map[Position]map[string]Value),
	}
}

func (l *Links) touch() {
	l.revision++
	l.index = nil
}

func (l *Links) nodeFor(p Position) *node {
	n, ok := l.nodes[p]
	if !ok {
		n = &node{out: map[Position]struct{}{}, in: map[Position]struct{}{}}
		l.nodes[p] = n
	}
	return n
}

func (l *Links) dropIfEmpty(p Position) {
	if n, ok := l.nodes[p]; ok && n.empty() {
		delete(l.nodes, p)
	}
}

// Revision returns a counter that increases whenever links or positions
// change. Metadata changes do not affect tracks and leave it unchanged.
func (l *Links) Revision() uint64 { return l.revision }

// AddLink adds the edge source→target, creating both positions if needed.
// Adding an existing edge is a no-op. AddLink only rejects self-links;
// backward or time-skipping edges are stored as given and reported by
// Validate.
//
// When target was the start of a lineage with lineage metadata, that
// metadata is carried over to the lineage it now joins, without overwriting
// keys that lineage already has.
func (l *Links) AddLink(source, target Position) error {
	if source == target {
		return ErrSelfLink
	}
	if n, ok := l.nodes[source]; ok {
		if _, exists := n.out[target]; exists {
			return nil
		}
	}
	l.nodeFor(source).out[target] = struct{}{}
	l.nodeFor(target).in[source] = struct{}{}
	l.linkCount++
	l.touch()

	if data, ok := l.lineages[target]; ok {
		delete(l.lineages, target)
		root := l.rootStart(source)
		merged := l.lineages[root]
		if merged == nil {
			merged = make(map[string]Value, len(data))
			l.lineages[root] = merged
		}
		for k, v := range data {
			if _, exists := merged[k]; !exists {
				merged[k] = v
			}
		}
	}
	return nil
}

// rootStart walks back from p to the first position of its root track,
// following the lowest past at merges.
func (l *Links) rootStart(p Position) Position {
	seen := map[Position]bool{p: true}
	for {
		pasts := l.FindPasts(p)
		if len(pasts) == 0 || seen[pasts[0]] {
			return p
		}
		p = pasts[0]
		seen[p] = true
	}
}

// RemoveLink removes the edge between a and b, in either direction.
// It is a no-op when the positions are not linked.
func (l *Links) RemoveLink(a, b Position) {
	removed := l.removeEdge(a, b)
	if l.removeEdge(b, a) {
		removed = true
	}
	if removed {
		l.dropIfEmpty(a)
		l.dropIfEmpty(b)
		l.touch()
	}
}

func (l *Links) removeEdge(from, to Position) bool {
	n, ok := l.nodes[from]
	if !ok {
		return false
	}
	if _, ok := n.out[to]; !ok {
		return false
	}
	delete(n.out, to)
	delete(l.nodes[to].in, from)
	l.linkCount--
	return true
}

// RemovePosition removes p with all its links and metadata. Lineage
// metadata stored under p moves to p's only future, if it has exactly one.
func (l *Links) RemovePosition(p Position) {
	n, ok := l.nodes[p]
	if !ok {
		return
	}
	futures := l.FindFutures(p)
	for q := range n.out {
		delete(l.nodes[q].in, p)
		l.linkCount--
	}
	for q := range n.in {
		delete(l.nodes[q].out, p)
		l.linkCount--
	}
	delete(l.nodes, p)
	for _, q := range futures {
		l.dropIfEmpty(q)
	}
	for q := range n.in {
		l.dropIfEmpty(q)
	}

	if data, ok := l.lineages[p]; ok {
		delete(l.lineages, p)
		if len(futures) == 1 {
			l.lineages[futures[0]] = data
		}
	}
	l.touch()
}

// ReplacePosition moves all links and metadata of old to replacement, for
// example after the user corrected a detection's coordinates. It returns
// ErrUnknownPosition if old is not present and ErrDuplicatePosition if
// replacement already is.
func (l *Links) ReplacePosition(old, replacement Position) error {
	n, ok := l.nodes[old]
	if !ok {
		return ErrUnknownPosition
	}
	if _, exists := l.nodes[replacement]; exists {
		return ErrDuplicatePosition
	}
	delete(l.nodes, old)
	l.nodes[replacement] = n
	for q := range n.out {
		in := l.nodes[q].in
		delete(in, old)
		in[replacement] = struct{}{}
	}
	for q := range n.in {
		out := l.nodes[q].out
		delete(out, old)
		out[replacement] = struct{}{}
	}
	if data, ok := l.lineages[old]; ok {
		delete(l.lineages, old)
		l.lineages[replacement] = data
	}
	l.touch()
	return nil
}

// SetPositionData stores value under key for p. Storing [Absent] deletes
// the key. It returns [ErrReservedKey] for [PositionIDKey].
func (l *Links) SetPositionData(p Position, key string, value Value) error {
	if key == PositionIDKey {
		return fmt.Errorf("%w: %q", ErrReservedKey, key)
	}
	if value.IsAbsent() {
		n, ok := l.nodes[p]
		if !ok {
			return nil
		}
		if _, ok := n.meta[key]; !ok {
			return nil
		}
		delete(n.meta, key)
		l.dropIfEmpty(p)
		return nil
	}
	n := l.nodeFor(p)
	if n.meta == nil {
		n.meta = make(map[string]Value)
	}
	n.meta[key] = value
	return nil
}

// PositionData returns the value stored under key for p, or Absent.
func (l *Links) PositionData(p Position, key string) Value {
	if n, ok := l.nodes[p]; ok {
		return n.meta[key]
	}
	return Absent
}

// FindAllDataOfPosition returns all metadata of p, sorted by key.
func (l *Links) FindAllDataOfPosition(p Position) []Entry {
	n, ok := l.nodes[p]
	if !ok {
		return nil
	}
	return entries(n.meta)
}

func entries(m map[string]Value) []Entry {
	keys := slices.Sorted(maps.Keys(m))
	out := make([]Entry, len(keys))
	for i, k := range keys {
		out[i] = Entry{Key: k, Value: m[k]}
	}
	return out
}

// FindAllPositionsWithData returns every position that has a value under key.
func (l *Links) FindAllPositionsWithData(key string) []Position {
	var out []Position
	for p, n := range l.nodes {
		if _, ok := n.meta[key]; ok {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, position.Compare)
	return out
}

// FindFutures returns the positions p links to, sorted. It returns nil for
// an unknown position.
func (l *Links) FindFutures(p Position) []Position {
	n, ok := l.nodes[p]
	if !ok || len(n.out) == 0 {
		return nil
	}
	return slices.SortedFunc(maps.Keys(n.out), position.Compare)
}

// FindPasts returns the positions linking to p, sorted. It returns nil for
// an unknown position.
func (l *Links) FindPasts(p Position) []Position {
	n, ok := l.nodes[p]
	if !ok || len(n.in) == 0 {
		return nil
	}
	return slices.SortedFunc(maps.Keys(n.in), position.Compare)
}

func (l *Links) futureCount(p Position) int {
	if n, ok := l.nodes[p]; ok {
		return len(n.out)
	}
	return 0
}

func (l *Links) pastCount(p Position) int {
	if n, ok := l.nodes[p]; ok {
		return len(n.in)
	}
	return 0
}

func (l *Links) linked(p Position) bool {
	n, ok := l.nodes[p]
	return ok && len(n.in)+len(n.out) > 0
}

// FindAllPositions returns every position with at least one link, sorted.
func (l *Links) FindAllPositions() []Position {
	var out []Position
	for p, n := range l.nodes {
		if len(n.in)+len(n.out) > 0 {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, position.Compare)
	return out
}

// FindAllKnownPositions returns every position in the graph, sorted: those
// with links and those that only carry metadata.
func (l *Links) FindAllKnownPositions() []Position {
	out := slices.Collect(maps.Keys(l.nodes))
	slices.SortFunc(out, position.Compare)
	return out
}

// FindAllLinks returns every edge, sorted by source, then target.
func (l *Links) FindAllLinks() []Link {
	out := make([]Link, 0, l.linkCount)
	for p, n := range l.nodes {
		for q := range n.out {
			out = append(out, Link{Source: p, Target: q})
		}
	}
	slices.SortFunc(out, func(a, b Link) int {
		if c := position.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return position.Compare(a.Target, b.Target)
	})
	return out
}

// HasLinks reports whether the graph has at least one edge.
func (l *Links) HasLinks() bool { return l.linkCount > 0 }

// LinkCount returns the number of edges.
func (l *Links) LinkCount() int { return l.linkCount }

// Contains reports whether p has links or metadata.
func (l *Links) Contains(p Position) bool {
	_, ok := l.nodes[p]
	return ok
}

// SetLineageData stores value under key for the lineage containing track.
// Storing [Absent] deletes the key. Stale track handles are resolved by
// their first position. It returns [ErrReservedKey] for [LineageIDKey].
func (l *Links) SetLineageData(track *LinkingTrack, key string, value Value) error {
	if key == LineageIDKey {
		return fmt.Errorf("%w: %q", ErrReservedKey, key)
	}
	start := l.lineageKey(track)
	data := l.lineages[start]
	if value.IsAbsent() {
		if _, ok := data[key]; !ok {
			return nil
		}
		delete(data, key)
		if len(data) == 0 {
			delete(l.lineages, start)
		}
		return nil
	}
	if data == nil {
		data = make(map[string]Value)
		l.lineages[start] = data
	}
	data[key] = value
	return nil
}

// LineageData returns the value stored under key for the lineage containing
// track, or Absent.
func (l *Links) LineageData(track *LinkingTrack, key string) Value {
	return l.lineages[l.lineageKey(track)][key]
}

// FindAllLineageData returns all metadata of the lineage containing track,
// sorted by key.
func (l *Links) FindAllLineageData(track *LinkingTrack) []Entry {
	data, ok := l.lineages[l.lineageKey(track)]
	if !ok {
		return nil
	}
	return entries(data)
}

func (l *Links) lineageKey(track *LinkingTrack) Position {
	return l.rootStart(track.FirstPosition())
}

// Clone returns an independent deep copy. Track handles are not shared.
func (l *Links) Clone() *Links {
	c := New()
	c.linkCount = l.linkCount
	c.sortByX = l.sortByX
	for p, n := range l.nodes {
		c.nodes[p] = &node{
			out:  maps.Clone(n.out),
			in:   maps.Clone(n.in),
			meta: maps.Clone(n.meta),
		}
	}
	for p, data := range l.lineages {
		c.lineages[p] = maps.Clone(data)
	}
	return c
}
