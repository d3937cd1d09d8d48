// Package render provides the shared pieces of lanegraph's renderers.
//
// # Overview
//
// The renderers turn a computed [topology.Topology] into something to look
// at. This package holds what they share:
//
//   - [Palette]: lane colors, looked up modulo the palette length
//   - [LaneX]: the horizontal offset of a lane
//   - [EscapeXML], [Truncate]: text helpers for SVG labels
//   - [ToPDF], [ToPNG]: SVG conversion through rsvg-convert
//
// # Renderers
//
// Each output lives in its own subpackage:
//
//   - [rail]: the railway diagram as SVG, one row per commit
//   - [term]: the same diagram drawn with box characters for terminals
//   - [nodelink]: a Graphviz node-link diagram of the commit graph
//
//	svg := rail.RenderSVG(topo, rail.WithCommits(commits))
//	pdf, err := render.ToPDF(svg)
//
// # Geometry
//
// All renderers place lane i at
//
//	offset = laneWidth/2 + i*laneWidth
//
// so lane 0 is centered in the first column. [topology.Topology.MaxLanes]
// gives the number of columns to reserve.
//
// [topology.Topology]: github.com/matzehuels/lanegraph/pkg/topology.Topology
// [topology.Topology.MaxLanes]: github.com/matzehuels/lanegraph/pkg/topology.Topology
// [rail]: github.com/matzehuels/lanegraph/pkg/render/rail
// [term]: github.com/matzehuels/lanegraph/pkg/render/term
// [nodelink]: github.com/matzehuels/lanegraph/pkg/render/nodelink
package render
