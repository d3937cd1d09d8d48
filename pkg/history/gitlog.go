package history

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	lgerrors "github.com/matzehuels/lanegraph/pkg/errors"
)

// ErrNotRepository is returned when the reader's directory is not inside a
// git work tree.
var ErrNotRepository = errors.New("not a git repository")

const (
	fieldSep  = "\x1f"
	logFormat = "--format=%H%x1f%h%x1f%s%x1f%an%x1f%aI%x1f%P%x1f%D"
	logFields = 7
)

// Reader runs git against a repository directory.
type Reader struct {
	Dir string // repository work tree; empty means the process directory
	Git string // git binary; empty means "git" from PATH
}

// LogOptions selects which commits [Reader.Log] returns.
type LogOptions struct {
	Refs     []string // start points; empty means HEAD
	All      bool     // include every ref, like git log --all
	MaxCount int      // 0 means unlimited
	Authors  []string // passed to git as --author, matched with OR
}

// Log returns commits newest first in topological order.
// An empty repository yields an empty slice and no error.
func (r Reader) Log(ctx context.Context, opts LogOptions) ([]Commit, error) {
	if err := lgerrors.ValidateRefs(opts.Refs); err != nil {
		return nil, err
	}

	args := []string{"log", logFormat, "--topo-order", "--decorate=short"}
	if opts.MaxCount > 0 {
		args = append(args, fmt.Sprintf("--max-count=%d", opts.MaxCount))
	}
	for _, a := range opts.Authors {
		args = append(args, "--author="+a)
	}
	if opts.All {
		// Stash rows come from Stashes; walking refs/stash here would add
		// the stash merge and its index commit as ordinary rows.
		args = append(args, "--exclude=refs/stash", "--all")
	}
	args = append(args, opts.Refs...)
	args = append(args, "--")

	out, err := r.run(ctx, args...)
	if err != nil {
		if isEmptyRepo(err) {
			return []Commit{}, nil
		}
		return nil, err
	}
	return parseLog(out), nil
}

// Head resolves HEAD to a full hash. It is used to key caches.
func (r Reader) Head(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--verify", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GitDir returns the absolute path of the repository's .git directory.
func (r Reader) GitDir(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Fingerprint digests HEAD together with every ref, stash included. It
// changes whenever a commit, checkout, reset or stash changes what Log
// would return, and is stable otherwise.
func (r Reader) Fingerprint(ctx context.Context) (string, error) {
	refs, err := r.run(ctx, "for-each-ref", "--format=%(objectname) %(refname)")
	if err != nil {
		return "", err
	}
	sum := sha256.New()
	// An unborn HEAD has no hash and is left out of the digest.
	if head, err := r.Head(ctx); err == nil {
		sum.Write([]byte(head))
	}
	sum.Write(refs)
	return hex.EncodeToString(sum.Sum(nil)), nil
}

func parseLog(out []byte) []Commit {
	commits := []Commit{}
	seen := make(map[string]bool)
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, fieldSep, logFields)
		if len(parts) < logFields {
			continue
		}
		hash := parts[0]
		if seen[hash] {
			continue
		}
		seen[hash] = true

		commits = append(commits, Commit{
			Hash:      hash,
			ShortHash: parts[1],
			Subject:   parts[2],
			Author:    parts[3],
			Date:      parseDate(parts[4]),
			Parents:   strings.Fields(parts[5]),
			Refs:      parseDecorations(parts[6]),
		})
	}
	return commits
}

// parseDecorations splits a %D string such as
// "HEAD -> main, origin/main, tag: v1.0" into individual labels.
func parseDecorations(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var refs []string
	for _, part := range strings.Split(s, ", ") {
		if head, branch, ok := strings.Cut(part, " -> "); ok {
			refs = append(refs, head, branch)
			continue
		}
		refs = append(refs, part)
	}
	return refs
}

func parseDate(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (r Reader) run(ctx context.Context, args ...string) ([]byte, error) {
	git := r.Git
	if git == "" {
		git = "git"
	}
	cmd := exec.CommandContext(ctx, git, args...)
	cmd.Dir = r.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, lgerrors.Wrap(lgerrors.ErrCodeTimeout, ctx.Err(), "git %s", args[0])
		}
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(msg, "not a git repository") {
			return nil, lgerrors.Wrap(lgerrors.ErrCodeRepositoryNotFound, ErrNotRepository, "%s", r.dirName())
		}
		if msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, lgerrors.Wrap(lgerrors.ErrCodeGit, err, "git %s", args[0])
	}
	return out, nil
}

func (r Reader) dirName() string {
	if r.Dir == "" {
		return "."
	}
	return r.Dir
}

func isEmptyRepo(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "does not have any commits yet") ||
		strings.Contains(msg, "bad default revision 'HEAD'")
}
