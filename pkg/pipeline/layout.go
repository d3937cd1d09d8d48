package pipeline

import (
	"github.com/matzehuels/lanegraph/pkg/graph"
	"github.com/matzehuels/lanegraph/pkg/history"
	"github.com/matzehuels/lanegraph/pkg/topology"
)

// ComputeLayout runs the lane engine over commits and serializes the result
// with commit metadata attached to each row.
func ComputeLayout(commits []history.Commit) (*topology.Topology, graph.Layout) {
	t := topology.Build(history.Records(commits))
	return t, graph.FromTopology(t, commits)
}
