package network

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/bnsearch/pkg/errors"
	"github.com/matzehuels/bnsearch/pkg/render"
	"github.com/matzehuels/bnsearch/pkg/scoring"
)

// Options configures network rendering.
type Options struct {
	// Scores adds each variable's local score to its label.
	Scores bool
	// Names labels variables by name instead of id. Missing entries fall
	// back to the id.
	Names []string
}

// ToDOT converts the network in rep to Graphviz DOT. Every variable is a
// node and every chosen parent an edge parent -> child. A parent that does
// not precede its child in the ordering is drawn as a dashed red edge, and
// the child gets a red outline.
func ToDOT(rep scoring.Report, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=ellipse, style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	if opts.Scores {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n", fmt.Sprintf("score %d", rep.Total))
	}
	buf.WriteString("\n")

	pos := make(map[int]int, len(rep.Entries))
	for _, e := range rep.Entries {
		pos[e.Var] = e.Position
		attrs := []string{fmt.Sprintf("label=%q", label(e, opts))}
		if !e.Valid {
			attrs = append(attrs, "color=red", "penwidth=2")
		}
		fmt.Fprintf(&buf, "  v%d [%s];\n", e.Var, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range rep.Entries {
		for _, p := range e.Parents {
			if pp, ok := pos[p]; ok && pp < e.Position {
				fmt.Fprintf(&buf, "  v%d -> v%d;\n", p, e.Var)
				continue
			}
			fmt.Fprintf(&buf, "  v%d -> v%d [style=dashed, color=red];\n", p, e.Var)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func label(e scoring.Entry, opts Options) string {
	name := strconv.Itoa(e.Var)
	if e.Var < len(opts.Names) && opts.Names[e.Var] != "" {
		name = opts.Names[e.Var]
	}
	if !opts.Scores {
		return name
	}
	return fmt.Sprintf("%s\n%d", name, e.Score)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized svg tag with one whose
// width and height match the viewBox, so browsers scale it cleanly.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// Requires librsvg (rsvg-convert).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg (rsvg-convert).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}
