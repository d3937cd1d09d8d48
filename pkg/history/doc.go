// Package history reads commit history from a git repository and prepares it
// for the lane engine in [github.com/matzehuels/lanegraph/pkg/topology].
//
// # Reading
//
// A [Reader] shells out to the git binary:
//
//	r := history.Reader{Dir: "."}
//	commits, err := r.Log(ctx, history.LogOptions{All: true, MaxCount: 500})
//
// Commits come back newest first in topological order, which is the order
// the lane engine expects. Each hash appears once. Decorations (branches,
// tags, HEAD) are parsed into [Commit.Refs].
//
// # Stashes
//
// [Reader.Stashes] lists stash entries as single-parent rows pointing at the
// commit they were taken from. [InterleaveStashes] places each one directly
// above its base so it renders as a short side branch.
//
// # Filtering
//
// [Filter] narrows a history by author or subject and hides ref labels.
// Filtering never rewrites parents: a commit whose parent was filtered out
// keeps the hash and the engine treats it as a missing parent.
//
// # Errors
//
// Git failures are returned as *errors.Error with code GIT_ERROR. A
// directory outside any repository yields an error matching
// [ErrNotRepository] under errors.Is.
package history
