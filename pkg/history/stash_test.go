package history

import (
	"slices"
	"testing"
)

func hashes(commits []Commit) []string {
	out := make([]string, len(commits))
	for i, c := range commits {
		out[i] = c.Hash
	}
	return out
}

func TestParseStashes(t *testing.T) {
	out := "s1\x1fs\x1fstash@{0}\x1fOn main: wip\x1fAda\x1f2024-05-01T10:00:00Z\x1fbase idx untracked\n" +
		"s2\x1fs\x1fstash@{1}\x1fno parents\x1fAda\x1f2024-05-01T10:00:00Z\x1f\n"

	stashes := parseStashes([]byte(out))
	if len(stashes) != 1 {
		t.Fatalf("got %d stashes, want 1", len(stashes))
	}
	s := stashes[0]
	if !s.Stash || s.Hash != "s1" || !slices.Equal(s.Parents, []string{"base"}) {
		t.Errorf("stash = %+v", s)
	}
	if !slices.Equal(s.Refs, []string{"stash@{0}"}) {
		t.Errorf("refs = %v", s.Refs)
	}
}

func TestInterleaveStashes(t *testing.T) {
	commits := []Commit{
		{Hash: "c", Parents: []string{"b"}},
		{Hash: "b", Parents: []string{"a"}},
		{Hash: "a"},
	}

	tests := []struct {
		name    string
		stashes []Commit
		want    []string
	}{
		{"none", nil, []string{"c", "b", "a"}},
		{
			name:    "above base",
			stashes: []Commit{{Hash: "s0", Parents: []string{"b"}, Stash: true}},
			want:    []string{"c", "s0", "b", "a"},
		},
		{
			name: "several on one base keep order",
			stashes: []Commit{
				{Hash: "s0", Parents: []string{"a"}, Stash: true},
				{Hash: "s1", Parents: []string{"a"}, Stash: true},
			},
			want: []string{"c", "b", "s0", "s1", "a"},
		},
		{
			name:    "base outside history is dropped",
			stashes: []Commit{{Hash: "s0", Parents: []string{"zzz"}, Stash: true}},
			want:    []string{"c", "b", "a"},
		},
		{
			name:    "stash already in history is dropped",
			stashes: []Commit{{Hash: "b", Parents: []string{"a"}, Stash: true}},
			want:    []string{"c", "b", "a"},
		},
		{
			name:    "on the newest commit",
			stashes: []Commit{{Hash: "s0", Parents: []string{"c"}, Stash: true}},
			want:    []string{"s0", "c", "b", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hashes(InterleaveStashes(commits, tt.stashes))
			if !slices.Equal(got, tt.want) {
				t.Errorf("InterleaveStashes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInterleaveStashesDuplicateBase(t *testing.T) {
	commits := []Commit{{Hash: "a"}, {Hash: "a"}}
	got := hashes(InterleaveStashes(commits, []Commit{{Hash: "s", Parents: []string{"a"}}}))
	if !slices.Equal(got, []string{"s", "a", "a"}) {
		t.Errorf("got %v, want the stash placed once", got)
	}
}
