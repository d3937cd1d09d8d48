package history

import (
	"context"
	"strings"
)

const (
	stashFormat = "--format=%H%x1f%h%x1f%gd%x1f%s%x1f%an%x1f%aI%x1f%P"
	stashFields = 7
)

// Stashes lists the repository's stash entries, newest first.
//
// A stash commit has the base commit as first parent plus the index (and
// optionally untracked) commits. Only the base is kept, so each entry becomes
// a single-parent row labelled with its reflog name (stash@{n}).
func (r Reader) Stashes(ctx context.Context) ([]Commit, error) {
	out, err := r.run(ctx, "stash", "list", stashFormat)
	if err != nil {
		return nil, err
	}
	return parseStashes(out), nil
}

func parseStashes(out []byte) []Commit {
	var stashes []Commit
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, fieldSep, stashFields)
		if len(parts) < stashFields {
			continue
		}
		parents := strings.Fields(parts[6])
		if len(parents) == 0 {
			continue
		}
		stashes = append(stashes, Commit{
			Hash:      parts[0],
			ShortHash: parts[1],
			Refs:      []string{parts[2]},
			Subject:   parts[3],
			Author:    parts[4],
			Date:      parseDate(parts[5]),
			Parents:   parents[:1],
			Stash:     true,
		})
	}
	return stashes
}

// InterleaveStashes returns commits with each stash inserted directly above
// its base commit. Several stashes on the same base keep their relative
// order. Stashes whose base is not in commits are dropped, as are stashes
// whose hash already appears in commits.
func InterleaveStashes(commits, stashes []Commit) []Commit {
	if len(stashes) == 0 {
		return commits
	}

	present := make(map[string]bool, len(commits))
	for _, c := range commits {
		present[c.Hash] = true
	}
	onBase := make(map[string][]Commit)
	for _, s := range stashes {
		if len(s.Parents) == 0 || present[s.Hash] || !present[s.Parents[0]] {
			continue
		}
		onBase[s.Parents[0]] = append(onBase[s.Parents[0]], s)
	}

	out := make([]Commit, 0, len(commits)+len(stashes))
	for _, c := range commits {
		out = append(out, onBase[c.Hash]...)
		delete(onBase, c.Hash)
		out = append(out, c)
	}
	return out
}
