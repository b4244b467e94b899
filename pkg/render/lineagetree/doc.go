// Package lineagetree renders lineage trees with Graphviz.
//
// Every track becomes one node and every division two edges from the
// mother track to the daughter tracks:
//
//	dot := lineagetree.ToDOT(exp.Links, lineagetree.Options{MinDivisions: 2})
//	svg, err := lineagetree.RenderSVG(dot)
//
// Node colors follow [lineage.Painter]: the border shows the color at the
// start of the track and the fill the color at its end, so a track that
// ends in a death is filled red and one that ends in shedding blue.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and
// PNG rendering; no Graphviz installation is needed.
package lineagetree
