// Package pkg provides the core libraries for lanegraph commit-history
// visualization.
//
// # Overview
//
// Lanegraph draws a repository's history the way "git log --graph" does:
// every commit sits on a vertical lane, branches fork to the right, and
// merges bend back in. The pkg directory is organized into four areas:
//
//  1. [topology] - The lane engine (lane assignment, colors, segments)
//  2. [history], [io] - Where commits come from (git, stashes, files)
//  3. [render] - Output (rail SVG, terminal text, Graphviz node-link)
//  4. [pipeline], [server] - Orchestration (load → layout → render) and HTTP
//
// Supporting packages: [graph] serializes layouts, [cache] stores derived
// results, [config] loads settings, [watch] reports ref changes,
// [observability] exposes hooks and Prometheus metrics, and [errors]
// carries error codes.
//
// # Architecture
//
// The typical data flow through lanegraph:
//
//	git log / stash list / commit file
//	         ↓
//	    [history] package (read + filter commits)
//	         ↓
//	    [topology] package (lanes, colors, passing lines)
//	         ↓
//	    [graph] package (serializable layout)
//	         ↓
//	    [render] packages (SVG/PNG/PDF/DOT/text)
//
// # Quick Start
//
// Build and draw the lanes of a repository:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/lanegraph/pkg/history"
//	    "github.com/matzehuels/lanegraph/pkg/render/rail"
//	    "github.com/matzehuels/lanegraph/pkg/topology"
//	)
//
//	// 1. Read commits, newest first
//	commits, _ := history.Reader{Dir: "."}.Log(context.Background(), history.LogOptions{All: true})
//
//	// 2. Assign lanes
//	t := topology.Build(history.Records(commits))
//
//	// 3. Render to SVG
//	svg := rail.RenderSVG(t, rail.WithCommits(commits))
//
// Or let the pipeline do all three with caching:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, _ := runner.Execute(ctx, pipeline.Options{RepoDir: ".", Formats: []string{"svg", "text"}})
//
// [topology]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/topology
// [history]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/history
// [io]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/server
// [graph]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/graph
// [cache]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/config
// [watch]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/watch
// [observability]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/lanegraph/pkg/errors
package pkg
