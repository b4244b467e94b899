package lineagetree

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/celltrack/pkg/analysis/lineage"
	"github.com/matzehuels/celltrack/pkg/analysis/markers"
	"github.com/matzehuels/celltrack/pkg/core/color"
	"github.com/matzehuels/celltrack/pkg/core/links"
)

// Options configures lineage tree rendering.
type Options struct {
	// MinDivisions hides lineages with fewer divisions.
	MinDivisions int
	// Detailed adds the time span, end marker and error state to labels.
	Detailed bool
	// LastTimePoint hides tracks starting after it. Zero or less shows all.
	LastTimePoint int
}

// ToDOT converts the lineages of l to Graphviz DOT format. Each lineage is
// drawn from its root track. A track reachable from two roots through a
// merge is drawn once.
func ToDOT(l *links.Links, opts Options) string {
	painter := lineage.NewPainter(l)

	var buf bytes.Buffer
	buf.WriteString("digraph lineages {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", penwidth=3, fontsize=14];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("\n")

	seen := make(map[*links.LinkingTrack]bool)
	var edges []string
	for _, root := range l.FindStartingTracks() {
		if opts.MinDivisions > 0 && lineage.MinDivisionCount(root) < opts.MinDivisions {
			continue
		}
		for _, track := range root.FindAllDescendingTracks(true) {
			if seen[track] || !opts.shows(track) {
				continue
			}
			seen[track] = true
			fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(track), strings.Join(attrs(l, painter, track, opts.Detailed), ", "))
			for _, next := range track.NextTracks() {
				if opts.shows(next) {
					edges = append(edges, fmt.Sprintf("  %q -> %q;\n", nodeID(track), nodeID(next)))
				}
			}
		}
	}

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func (o Options) shows(track *links.LinkingTrack) bool {
	return o.LastTimePoint <= 0 || track.MinTimePointNumber() <= o.LastTimePoint
}

func nodeID(track *links.LinkingTrack) string {
	p := track.FirstPosition()
	return fmt.Sprintf("%d:%g,%g,%g", p.TimePointNumber, p.X, p.Y, p.Z)
}

func attrs(l *links.Links, painter *lineage.Painter, track *links.LinkingTrack, detailed bool) []string {
	start := painter.Color(track, track.MinTimePointNumber())
	end := painter.Color(track, track.MaxTimePointNumber())
	out := []string{
		fmt.Sprintf("label=%q", label(l, painter, track, detailed)),
		fmt.Sprintf("color=%q", start.Hex()),
		fmt.Sprintf("fillcolor=%q", end.Hex()),
	}
	if luminance(end) < 0.5 {
		out = append(out, "fontcolor=white")
	}
	return out
}

func label(l *links.Links, painter *lineage.Painter, track *links.LinkingTrack, detailed bool) string {
	span := fmt.Sprintf("t%d-%d", track.MinTimePointNumber(), track.MaxTimePointNumber())
	if !detailed {
		return span
	}
	parts := []string{span, fmt.Sprintf("%d positions", track.Len())}
	if len(track.NextTracks()) == 0 {
		if m := markers.GetEndMarker(l, track.FindLastPosition()); m != markers.EndUnknown {
			parts = append(parts, "end: "+m.String())
		}
	}
	if painter.HasErrors(track) {
		parts = append(parts, "has errors")
	}
	return strings.Join(parts, "\n")
}

func luminance(c color.Color) float64 {
	return (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255
}

// RenderSVG renders a DOT graph to SVG.
func RenderSVG(dot string) ([]byte, error) {
	return render(dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG.
func RenderPNG(dot string) ([]byte, error) {
	return render(dot, graphviz.PNG)
}

func render(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
