// Package graph provides the serialization format for lane layouts.
//
// This package defines the canonical wire format for lanegraph's computed
// layouts, used for JSON files, API responses, caching, and
// interoperability with other renderers.
//
// # Architecture
//
// The package sits at the serialization boundary between the lane engine
// and external formats:
//
//   - [Layout], [Row]: Serialization types (this package)
//   - pkg/topology.Topology: Internal representation produced by the engine
//   - pkg/history.Commit: Commit metadata merged into each row
//
// Use [FromTopology] and [Layout.Topology] to convert between them.
//
// # Constants
//
// This package is the single source of truth for output format names:
//
//	graph.FormatSVG       // "svg"       rail diagram
//	graph.FormatJSON      // "json"      this layout format
//	graph.FormatDOT       // "dot"       Graphviz source
//	graph.FormatNodelink  // "nodelink"  Graphviz-rendered SVG
//	graph.FormatText      // "text"      terminal drawing
//
// # Layout Serialization
//
// A layout lists one row per commit, newest first:
//
//	{
//	  "version": 1,
//	  "max_lanes": 2,
//	  "rows": [
//	    {"hash": "M", "lane": 0, "color": 0, "merge": true,
//	     "parents": [{"parent": "A", "from": 0, "to": 0, "color": 0},
//	                 {"parent": "B", "from": 0, "to": 1, "color": 1}]},
//	    {"hash": "A", "lane": 0, "color": 0, "line_from_above": true,
//	     "incoming": [{"lane": 0, "color": 0}, {"lane": 1, "color": 1}]},
//	    ...
//	  ]
//	}
//
// Rows carry everything a renderer needs: node position, the segments drawn
// on the row, and the lanes passing through it. A consumer never has to
// rerun the lane allocation.
//
// Common operations:
//
//	l := graph.FromTopology(topo, commits)     // Topology → Layout
//	graph.WriteLayoutFile(l, "layout.json")    // Layout → File
//	l, _ = graph.ReadLayoutFile("layout.json") // File → Layout
//	topo, _ = l.Topology()                     // Layout → Topology
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
