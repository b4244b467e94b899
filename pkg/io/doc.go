// Package io reads and writes experiments in the JSON data file format.
//
// # JSON Format
//
// A data file is a single object. All keys are optional except "version":
//
//	{
//	  "version": "v1",
//	  "name": "organoid-3",
//	  "positions": {"0": [[12.5, 40.1, 3.0, "ellipse", ...], ...], ...},
//	  "links": {
//	    "directed": false, "multigraph": false, "graph": {},
//	    "nodes": [{"id": {"x": 12.5, "y": 40.1, "z": 3.0, "_time_point_number": 0}, "ending": "DEAD"}],
//	    "links": [{"source": {...}, "target": {...}}]
//	  },
//	  "lineages": [{"start": {...}, "color": 16711680}],
//	  "family_scores": [{"scores": {"a": 1.5}, "mother": {...}, "daughter1": {...}, "daughter2": {...}}],
//	  "image_resolution": {"x_um": 0.32, "y_um": 0.32, "z_um": 2.0, "t_m": 12.0},
//	  "settings": {"division_lookahead_time_points": 100, "min_spur_length": 3}
//	}
//
// Positions are stored per time point as lists of x, y and z followed by
// the shape list of [shape.FromList]. Links use the D3 node-link layout;
// every node object carries the position metadata next to its "id".
//
// Two older layouts are also read: a bare node-link object (recognized by
// its "directed" key) and a bare positions object keyed by time point.
//
// # Numbers
//
// Metadata numbers without a fraction or exponent are read as ints, all
// others as floats. Floats are always written with a fraction, so the kind
// of every value survives a round trip.
//
// # Import
//
//	exp, err := io.ImportJSON("tracks.aut", io.WithTimePointRange(0, 200))
//
// # Export
//
// [ExportJSON] writes to a temporary file next to the target and renames it
// into place, so an interrupted export never leaves a truncated data file.
package io
