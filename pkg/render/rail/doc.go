// Package rail renders a lane topology as an SVG railway diagram.
//
// Each commit occupies one row. The node sits on its lane at the row's
// vertical center; lines run from the node down to the bottom edge towards
// each parent, cross intermediate rows as passing lanes, and enter the
// parent's row from the top edge.
//
//	topo := topology.Build(history.Records(commits))
//	svg := rail.RenderSVG(topo,
//	    rail.WithCommits(commits),
//	    rail.WithPalette(render.DefaultPalette),
//	)
//
// Without [WithCommits] only the graph is drawn. With it, each row gets a
// label column with the short hash, ref names and subject.
package rail
