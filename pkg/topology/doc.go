// Package topology computes the lane layout of a commit history.
//
// # Overview
//
// A commit graph is drawn as a set of vertical lanes: every commit sits on one
// lane, and lines connect it to its parents further down. This package turns
// an ordered commit list (newest first) into a [Topology] that a renderer can
// draw row by row without ever walking the history itself.
//
// [Build] is a single forward pass over the rows:
//
//  1. An [Index] maps each hash to its row, so "is this parent visible" and
//     "is it below me" are constant-time questions.
//  2. The lane allocator gives each commit a lane and a color. Parents that
//     have not been visited yet are reserved on a lane; the primary parent
//     stays on its child's lane whenever it can.
//  3. Connection records are finalized. When a parent already expected on one
//     lane is claimed by a child sitting on a lower lane, ownership moves to
//     the lower lane and the earlier records are patched in place.
//  4. A second forward pass precomputes, for every row, the lanes whose lines
//     pass through the row without a commit on them.
//
// # Basic Usage
//
//	commits := []topology.Commit{
//	    {Hash: "c3", Parents: []string{"c2"}},
//	    {Hash: "c2", Parents: []string{"c1"}},
//	    {Hash: "c1"},
//	}
//	t := topology.Build(commits)
//	n, _ := t.Node("c2")
//	fmt.Println(n.Lane, t.MaxLanes) // 0 1
//
// # Degenerate Input
//
// Build never fails. Parents that are missing from the input (filtered out,
// or beyond the loaded window) are not connected and their child's lane is
// freed, which renders as a dangling line end. Duplicate hashes are a caller
// contract violation: the index keeps the last occurrence and the build still
// completes.
//
// # Colors
//
// Colors are indices, not RGB values. A fresh index is issued every time a lane
// starts a new occupancy, so two lanes that are active at the same time never
// share one. Renderers map indices onto a palette modulo its length.
//
// # Concurrency
//
// Build keeps all of its state local to the call and performs no I/O, so it can
// run on any goroutine. A returned Topology is never mutated by this package;
// share it freely between readers and replace it wholesale on change.
package topology
