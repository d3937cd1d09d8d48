package term

import (
	"strings"
	"testing"

	"github.com/matzehuels/lanegraph/pkg/history"
	"github.com/matzehuels/lanegraph/pkg/topology"
)

func mergeHistory() []history.Commit {
	return []history.Commit{
		{Hash: "m", ShortHash: "a1b2c3d", Subject: "Merge branch 'dev'", Refs: []string{"HEAD", "main"}, Parents: []string{"a", "b"}},
		{Hash: "a", ShortHash: "5a4b3c2", Subject: "Update docs", Parents: []string{"root"}},
		{Hash: "b", ShortHash: "9f8e7d6", Subject: "Fix lane colors", Refs: []string{"dev"}, Parents: []string{"root"}},
		{Hash: "root", ShortHash: "0c1d2e3", Subject: "Initial commit"},
	}
}

func TestRenderMerge(t *testing.T) {
	commits := mergeHistory()
	topo := topology.Build(history.Records(commits))

	got := Render(topo, Options{Commits: commits, Plain: true})
	want := strings.Join([]string{
		"◉─╮ a1b2c3d (HEAD, main) Merge branch 'dev'",
		"● │ 5a4b3c2 Update docs",
		"├─● 9f8e7d6 (dev) Fix lane colors",
		"●   0c1d2e3 Initial commit",
	}, "\n") + "\n"
	if got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderGraphOnly(t *testing.T) {
	topo := topology.Build([]topology.Commit{
		{Hash: "c3", Parents: []string{"c2"}},
		{Hash: "c2", Parents: []string{"c1"}},
		{Hash: "c1"},
	})
	if got := Render(topo, Options{Plain: true}); got != "●\n●\n●\n" {
		t.Errorf("Render() = %q", got)
	}
}

func TestRenderJoinsExistingLane(t *testing.T) {
	// N merges into P, which is already reserved on lane 0 by X.
	topo := topology.Build([]topology.Commit{
		{Hash: "X", Parents: []string{"P"}},
		{Hash: "N", Parents: []string{"Q", "P"}},
		{Hash: "Q"},
		{Hash: "P"},
	})
	lines := Window(topo, Options{Plain: true}, 1, 1)
	if len(lines) != 1 {
		t.Fatalf("Window returned %d lines", len(lines))
	}
	if lines[0] != "├─◉" {
		t.Errorf("row 1 = %q, want %q", lines[0], "├─◉")
	}
}

func TestRenderStash(t *testing.T) {
	commits := []history.Commit{
		{Hash: "s", Subject: "On main: wip", Parents: []string{"a"}, Stash: true},
		{Hash: "a"},
	}
	got := Render(topology.Build(history.Records(commits)), Options{Commits: commits, Plain: true})
	if !strings.HasPrefix(got, "◇ s On main: wip") {
		t.Errorf("Render() = %q", got)
	}
}

func TestWindowClamps(t *testing.T) {
	topo := topology.Build(history.Records(mergeHistory()))
	tests := []struct {
		offset, height, want int
	}{
		{0, 2, 2},
		{2, 10, 2},
		{-3, 1, 1},
		{4, 1, 0},
		{1, 0, 0},
		{0, -1, 0},
	}
	for _, tt := range tests {
		if got := len(Window(topo, Options{Plain: true}, tt.offset, tt.height)); got != tt.want {
			t.Errorf("Window(%d, %d) = %d lines, want %d", tt.offset, tt.height, got, tt.want)
		}
	}
	if Render(topology.Build(nil), Options{}) != "" {
		t.Error("empty topology should render nothing")
	}
}

func TestWidth(t *testing.T) {
	commits := mergeHistory()
	topo := topology.Build(history.Records(commits))
	for _, line := range Window(topo, Options{Commits: commits, Plain: true, Width: 12}, 0, topo.Len()) {
		if n := len([]rune(line)); n > 12 {
			t.Errorf("line %q has %d columns", line, n)
		}
	}
}

func TestTruncateKeepsEscapes(t *testing.T) {
	s := "\x1b[31mabcdef\x1b[0m"
	if got := truncate(s, 3); got != "\x1b[31mabc\x1b[0m" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("héllo", 2); got != "hé" {
		t.Errorf("truncate = %q", got)
	}
}
