// Package pkg provides the core libraries for celltrack, a toolkit for
// checking and analyzing cell tracking results.
//
// # Overview
//
// A tracking run produces cell positions per time point and links between
// the positions of the same cell in consecutive time points. A cell that
// divides has two links into the next time point. The pkg directory is
// organized into four areas:
//
//  1. [core] - Domain types (positions, links, tracks, experiments)
//  2. [analysis] - Algorithms on the links (divisions, fates, spurs, errors)
//  3. [pipeline] - Cached orchestration (load → analyze → render)
//  4. Infrastructure - [cache], [storage], [config], [api], [io]
//
// # Architecture
//
// The typical data flow:
//
//	Tracking data file (JSON)
//	         ↓
//	    [io] package (decode positions, links, markers)
//	         ↓
//	    [core/links] package (link graph + linking tracks)
//	         ↓
//	    [analysis] packages (divisions, fates, spurs, validation)
//	         ↓
//	    Report, lineage tree (SVG/PNG/DOT) or corrected data file
//
// # Quick Start
//
//	exp, err := io.ImportJSON("cells.json")
//	if err != nil {
//	    return err
//	}
//
//	// Flag tracking errors
//	issues := exp.Links.Validate()
//	markers.ApplyValidation(exp.Links, issues)
//
//	// Count divisions up to time point 100
//	for _, track := range exp.Links.FindStartingTracks() {
//	    n, ok := lineage.DivisionCount(track, exp.Links, 100, false)
//	    fmt.Println(track.FirstPosition(), n, ok)
//	}
//
// # Main Packages
//
// [core/links] - The link graph. Links are stored per position and grouped
// into linking tracks: runs of positions without divisions. Arbitrary data
// can be attached to positions, links and lineages.
//
// [core/experiment] - Positions, links, resolution and analysis settings of
// one tracking run.
//
// [analysis/fate] - Predicts whether a cell divides, dies, is shed or
// stays unknown within the division lookahead.
//
// [analysis/postprocess] - Removes spurs and positions near the image border.
//
// [analysis/markers] - End markers, error markers and warnings stored as
// position data.
//
// [pipeline] - The analysis and rendering pipeline used by the CLI and the
// API server, with results cached by input hash.
//
// [core]: https://pkg.go.dev/github.com/matzehuels/celltrack/pkg/core
// [core/links]: https://pkg.go.dev/github.com/matzehuels/celltrack/pkg/core/links
// [core/experiment]: https://pkg.go.dev/github.com/matzehuels/celltrack/pkg/core/experiment
// [analysis]: https://pkg.go.dev/github.com/matzehuels/celltrack/pkg/analysis
// [analysis/fate]: https://pkg.go.dev/github.com/matzehuels/celltrack/pkg/analysis/fate
// [analysis/postprocess]: https://pkg.go.dev/github.com/matzehuels/celltrack/pkg/analysis/postprocess
// [analysis/markers]: https://pkg.go.dev/github.com/matzehuels/celltrack/pkg/analysis/markers
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/celltrack/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/celltrack/pkg/cache
// [storage]: https://pkg.go.dev/github.com/matzehuels/celltrack/pkg/storage
// [config]: https://pkg.go.dev/github.com/matzehuels/celltrack/pkg/config
// [api]: https://pkg.go.dev/github.com/matzehuels/celltrack/pkg/api
// [io]: https://pkg.go.dev/github.com/matzehuels/celltrack/pkg/io
package pkg
