package graph

import (
	"bytes"
	"math/rand/v2"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	lgerrors "github.com/matzehuels/lanegraph/pkg/errors"
	"github.com/matzehuels/lanegraph/pkg/history"
	"github.com/matzehuels/lanegraph/pkg/topology"
)

// randomCommits builds a newest-first history where every parent is older
// than its child.
func randomCommits(seed uint64, n int) []topology.Commit {
	r := rand.New(rand.NewPCG(seed, seed^0x5eed))
	commits := make([]topology.Commit, n)
	for i := range commits {
		commits[i].Hash = "h" + strings.Repeat("x", i%3) + string(rune('a'+i%26)) + string(rune('A'+i/26%26))
	}
	for i := range commits {
		if i == n-1 {
			break
		}
		k := 1 + r.IntN(3)
		for j := 0; j < k; j++ {
			p := i + 1 + r.IntN(min(6, n-i-1))
			commits[i].Parents = append(commits[i].Parents, commits[p].Hash)
		}
	}
	return commits
}

func TestLayoutRoundTrip(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		topo := topology.Build(randomCommits(seed, 120))
		want := FromTopology(topo, nil)

		data, err := MarshalLayout(want)
		if err != nil {
			t.Fatal(err)
		}
		got, err := UnmarshalLayout(data)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("seed %d: layout changed across JSON", seed)
		}

		restored, err := got.Topology()
		if err != nil {
			t.Fatal(err)
		}
		if again := FromTopology(restored, nil); !reflect.DeepEqual(again, want) {
			t.Fatalf("seed %d: layout changed across Topology()", seed)
		}
		if restored.Connections() != topo.Connections() {
			t.Errorf("seed %d: connections = %d, want %d", seed, restored.Connections(), topo.Connections())
		}
	}
}

func TestFromTopologyMetadata(t *testing.T) {
	commits := []history.Commit{
		{Hash: "0123456789", Subject: "tip", Author: "Ada", Refs: []string{"main"}, Parents: []string{"base"}, Date: time.Now()},
		{Hash: "base", ShortHash: "bas", Subject: "root"},
	}
	l := FromTopology(topology.Build(history.Records(commits)), commits)

	if l.Rows[0].Label != "0123456" || l.Rows[0].Subject != "tip" || l.Rows[0].Author != "Ada" {
		t.Errorf("row 0 = %+v", l.Rows[0])
	}
	if !reflect.DeepEqual(l.Rows[0].Refs, []string{"main"}) {
		t.Errorf("refs = %v", l.Rows[0].Refs)
	}
	if l.Rows[1].Label != "bas" {
		t.Errorf("row 1 label = %q", l.Rows[1].Label)
	}
	if got := l.Hashes(); !reflect.DeepEqual(got, []string{"0123456789", "base"}) {
		t.Errorf("Hashes() = %v", got)
	}
}

func TestEmptyLayout(t *testing.T) {
	l := FromTopology(topology.Build(nil), nil)
	data, err := MarshalLayout(l)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"rows": []`) {
		t.Errorf("empty layout = %s", data)
	}
	got, err := UnmarshalLayout(data)
	if err != nil {
		t.Fatal(err)
	}
	topo, err := got.Topology()
	if err != nil || topo.Len() != 0 || topo.MaxLanes != 0 {
		t.Errorf("Topology() = %+v, %v", topo, err)
	}
}

func TestUnmarshalLayoutErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"rows": [`},
		{"version", `{"version": 9, "rows": []}`},
		{"no lanes", `{"version": 1, "max_lanes": 0, "rows": [{"hash": "a"}]}`},
		{"no hash", `{"version": 1, "max_lanes": 1, "rows": [{"lane": 0}]}`},
		{"oversized lanes", `{"version": 1, "max_lanes": 1000000000, "rows": [{"hash": "a", "lane": 0}]}`},
		{"lanes beyond edges", `{"version": 1, "max_lanes": 3, "rows": [{"hash": "a", "lane": 0, "parents": [{"parent": "b", "from": 0, "to": 1}]}, {"hash": "b", "lane": 1}]}`},
		{"lanes without rows", `{"version": 1, "max_lanes": 4, "rows": []}`},
		{"negative lanes", `{"version": 1, "max_lanes": -1, "rows": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := UnmarshalLayout([]byte(tt.data)); !lgerrors.Is(err, lgerrors.ErrCodeInvalidFormat) {
				t.Errorf("err = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestUnmarshalLayoutAcceptsBuiltLayouts(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		l := FromTopology(topology.Build(randomCommits(seed, 200)), nil)
		data, err := MarshalLayout(l)
		if err != nil {
			t.Fatal(err)
		}
		got, err := UnmarshalLayout(data)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if got.MaxLanes != l.MaxLanes {
			t.Errorf("seed %d: MaxLanes = %d, want %d", seed, got.MaxLanes, l.MaxLanes)
		}
	}
}

func TestTopologyRejectsBadLanes(t *testing.T) {
	tests := []struct {
		name string
		row  Row
	}{
		{"node lane", Row{Hash: "a", Lane: 2}},
		{"negative", Row{Hash: "a", Lane: -1}},
		{"edge target", Row{Hash: "a", Parents: []Edge{{Parent: "b", To: 5}}}},
		{"incoming", Row{Hash: "a", Incoming: []Segment{{Lane: 3}}}},
		{"passing", Row{Hash: "a", Passing: []Lane{{Lane: 2}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Layout{Version: LayoutVersion, MaxLanes: 2, Rows: []Row{tt.row}}
			if _, err := l.Topology(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLayoutFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.json")
	want := FromTopology(topology.Build(randomCommits(7, 30)), nil)
	if err := WriteLayoutFile(want, path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Error("file round trip changed the layout")
	}

	var buf bytes.Buffer
	if err := WriteLayout(want, &buf); err != nil {
		t.Fatal(err)
	}
	streamed, err := ReadLayout(&buf)
	if err != nil || !reflect.DeepEqual(streamed, want) {
		t.Errorf("stream round trip failed: %v", err)
	}

	if _, err := ReadLayoutFile(filepath.Join(t.TempDir(), "missing.json")); !lgerrors.Is(err, lgerrors.ErrCodeFileNotFound) {
		t.Errorf("missing file err = %v", err)
	}
}
