package nodelink_test

import (
	"fmt"

	"github.com/matzehuels/lanegraph/pkg/history"
	"github.com/matzehuels/lanegraph/pkg/render/nodelink"
)

func ExampleToDOT() {
	commits := []history.Commit{
		{Hash: "c2", Parents: []string{"c1"}},
		{Hash: "c1"},
	}
	fmt.Print(nodelink.ToDOT(commits, nodelink.Options{}))
	// Output:
	// digraph G {
	//   rankdir=TB;
	//   bgcolor="transparent";
	//   node [shape=box, style="rounded,filled", fillcolor=white, fontname="monospace", fontsize=14, margin="0.15,0.05"];
	//   edge [arrowsize=0.6];
	//   ranksep=0.4;
	//   nodesep=0.3;
	//
	//   "c2" [label="c2"];
	//   "c1" [label="c1"];
	//
	//   "c2" -> "c1";
	// }
}
