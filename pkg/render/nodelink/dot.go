package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/lanegraph/pkg/history"
	"github.com/matzehuels/lanegraph/pkg/render"
	"github.com/matzehuels/lanegraph/pkg/topology"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds subject, author and refs to node labels.
	// When false, only the short hash is shown.
	Detailed bool
	// Topology colors each node by its lane color. Optional.
	Topology *topology.Topology
	Palette  render.Palette
}

// ToDOT converts commits to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
func ToDOT(commits []history.Commit, opts Options) string {
	present := make(map[string]bool, len(commits))
	for _, c := range commits {
		present[c.Hash] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"monospace\", fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  edge [arrowsize=0.6];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	seen := make(map[string]bool, len(commits))
	for _, c := range commits {
		if seen[c.Hash] {
			continue
		}
		seen[c.Hash] = true
		attrs := fmtAttrs(c, fmtLabel(c, opts.Detailed), opts)
		fmt.Fprintf(&buf, "  %q [%s];\n", c.Hash, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	edges := make(map[[2]string]bool)
	for _, c := range commits {
		for _, p := range c.Parents {
			key := [2]string{c.Hash, p}
			if !present[p] || edges[key] {
				continue
			}
			edges[key] = true
			fmt.Fprintf(&buf, "  %q -> %q;\n", c.Hash, p)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(c history.Commit, detailed bool) string {
	if !detailed {
		return c.Label()
	}

	parts := []string{c.Label()}
	if len(c.Refs) > 0 {
		parts = append(parts, "("+strings.Join(c.Refs, ", ")+")")
	}
	if c.Subject != "" {
		parts = append(parts, render.Truncate(c.Subject, 48))
	}
	if c.Author != "" {
		parts = append(parts, c.Author)
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(c history.Commit, label string, opts Options) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if opts.Topology != nil {
		if n, ok := opts.Topology.Node(c.Hash); ok {
			attrs = append(attrs, fmt.Sprintf("color=%q", opts.Palette.Color(n.Color)), "penwidth=2")
		}
	}
	if c.Stash {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
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
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

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

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
