// Package links provides the linking graph that connects cell detections
// over time.
//
// # Overview
//
// A [Links] graph has a node per [position.Position] and a directed edge from
// each detection to the detection(s) of the same cell in the next time point.
// The out-degree of a node tells what happens to the cell:
//
//   - 0 futures: the track ends (death, shedding, leaving the view, or the
//     end of the experiment)
//   - 1 future: the cell simply moves on
//   - 2 futures: the cell divides; it is a mother with two daughters
//
// More than one past or more than two futures is a tracking error. Such data
// is stored as given and reported by [Links.Validate], never silently fixed.
//
// # Metadata
//
// Every position can carry typed metadata, see [Value]. Storing [Absent]
// deletes a key; reading a missing key returns Absent. Lineages carry their
// own metadata (such as a display color), see [Links.SetLineageData].
//
// # Tracks
//
// A [LinkingTrack] is a maximal chain of single-parent, single-child links.
// Tracks are never stored; they are derived from the graph when first
// requested and cached until links or positions change. Lineage-wide walks
// such as [LinkingTrack.FindAllDescendingTracks] use explicit stacks, so
// lineages with thousands of generations are handled without deep recursion.
package links
