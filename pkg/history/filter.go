package history

import (
	"path"
	"regexp"
	"slices"
	"strings"

	lgerrors "github.com/matzehuels/lanegraph/pkg/errors"
)

// Filter narrows a history after it has been read.
//
// Authors and Grep drop commits; HideRefs only removes labels. Stash rows are
// never dropped by Authors or Grep since they belong to the working copy.
type Filter struct {
	Authors  []string // case-insensitive substrings, any may match
	Grep     string   // regular expression matched against the subject
	HideRefs []string // path.Match patterns, e.g. "origin/*"
}

// Empty reports whether the filter would return its input unchanged.
func (f Filter) Empty() bool {
	return len(f.Authors) == 0 && f.Grep == "" && len(f.HideRefs) == 0
}

// Apply returns the commits that pass the filter, in their original order.
// Parents are left untouched. The input slice is not modified.
func (f Filter) Apply(commits []Commit) ([]Commit, error) {
	if f.Empty() {
		return commits, nil
	}

	var grep *regexp.Regexp
	if f.Grep != "" {
		re, err := regexp.Compile(f.Grep)
		if err != nil {
			return nil, lgerrors.Wrap(lgerrors.ErrCodeInvalidInput, err, "grep pattern %q", f.Grep)
		}
		grep = re
	}
	for _, p := range f.HideRefs {
		if _, err := path.Match(p, ""); err != nil {
			return nil, lgerrors.Wrap(lgerrors.ErrCodeInvalidInput, err, "ref pattern %q", p)
		}
	}

	authors := make([]string, len(f.Authors))
	for i, a := range f.Authors {
		authors[i] = strings.ToLower(a)
	}

	out := make([]Commit, 0, len(commits))
	for _, c := range commits {
		if !c.Stash {
			if len(authors) > 0 && !matchAuthor(c.Author, authors) {
				continue
			}
			if grep != nil && !grep.MatchString(c.Subject) {
				continue
			}
		}
		if len(f.HideRefs) > 0 && len(c.Refs) > 0 {
			c.Refs = slices.DeleteFunc(slices.Clone(c.Refs), func(ref string) bool {
				return hidden(ref, f.HideRefs)
			})
		}
		out = append(out, c)
	}
	return out, nil
}

func matchAuthor(author string, lowered []string) bool {
	author = strings.ToLower(author)
	for _, a := range lowered {
		if strings.Contains(author, a) {
			return true
		}
	}
	return false
}

func hidden(ref string, patterns []string) bool {
	name := strings.TrimPrefix(ref, "tag: ")
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}
