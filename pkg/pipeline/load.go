package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/lanegraph/pkg/history"
	pkgio "github.com/matzehuels/lanegraph/pkg/io"
)

// Load reads the commits described by opts: from the input file when one is
// set, otherwise from the git repository. Stashes are interleaved before
// filters run so that filtering never removes a stash row.
func Load(ctx context.Context, opts Options) ([]history.Commit, error) {
	var commits []history.Commit
	var err error

	if opts.Input != "" {
		commits, err = pkgio.ImportCommits(opts.Input)
	} else {
		commits, err = loadRepo(ctx, opts)
	}
	if err != nil {
		return nil, err
	}

	if f := opts.Filter(); !f.Empty() {
		before := len(commits)
		commits, err = f.Apply(commits)
		if err != nil {
			return nil, err
		}
		if opts.Logger != nil {
			opts.Logger.Debug("filtered commits", "before", before, "after", len(commits))
		}
	}
	return commits, nil
}

// loadRepo runs git log and, when requested, merges in the stash list.
func loadRepo(ctx context.Context, opts Options) ([]history.Commit, error) {
	r := history.Reader{Dir: opts.RepoDir}

	commits, err := r.Log(ctx, opts.LogOptions())
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}
	if !opts.Stashes {
		return commits, nil
	}

	stashes, err := r.Stashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("git stash list: %w", err)
	}
	return history.InterleaveStashes(commits, stashes), nil
}
