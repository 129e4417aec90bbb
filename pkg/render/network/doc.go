// Package network draws the Bayesian network an ordering induces.
//
// # Usage
//
// Check an ordering, convert the report to DOT, then render:
//
//	rep, err := eval.Check(o)
//	dot := network.ToDOT(rep, network.Options{Scores: true})
//	svg, err := network.RenderSVG(ctx, dot)
//
// PNG and PDF go through SVG and need rsvg-convert:
//
//	png, err := network.RenderPNG(ctx, dot, 2.0)
//
// Edges point from parent to child. A report from a consistent ordering
// has only solid edges; a dashed red edge marks a parent that does not
// precede its child, which Check reports as invalid.
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package network
