// Package nodelink renders commit histories as node-link diagrams.
//
// # Overview
//
// Where the rail diagram pins every commit to a row and lane, this package
// hands the commit graph to Graphviz and lets it place nodes freely. It is
// useful for small histories and for feeding other Graphviz tooling.
//
// # Usage
//
// Convert commits to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(commits, nodelink.Options{Topology: topo})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Options
//
//   - Detailed: node labels include subject, author and refs
//   - Topology: when set, node outlines use the lane color of each commit
//   - Palette: colors for the lane indices (defaults to render.DefaultPalette)
//
// # DOT Format
//
// Edges point from child to parent, newest commits at the top
// (rankdir=TB). Parents missing from the commit list are omitted. Stash rows
// are drawn dashed.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
