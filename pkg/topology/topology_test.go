package topology

import (
	"fmt"
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"
)

func chain(hashes ...string) []Commit {
	commits := make([]Commit, len(hashes))
	for i, h := range hashes {
		commits[i] = Commit{Hash: h}
		if i+1 < len(hashes) {
			commits[i].Parents = []string{hashes[i+1]}
		}
	}
	return commits
}

func mustNode(t *testing.T, top *Topology, hash string) *Node {
	t.Helper()
	n, ok := top.Node(hash)
	if !ok {
		t.Fatalf("node %s missing", hash)
	}
	return n
}

func TestBuildEmpty(t *testing.T) {
	top := Build(nil)
	if top.Len() != 0 {
		t.Errorf("Len = %d, want 0", top.Len())
	}
	if top.MaxLanes != 0 {
		t.Errorf("MaxLanes = %d, want 0", top.MaxLanes)
	}
	if len(top.Nodes) != 0 || len(top.Passing) != 0 {
		t.Errorf("expected empty maps, got %d nodes, %d passing rows", len(top.Nodes), len(top.Passing))
	}
	if top.At(0) != nil {
		t.Error("At(0) on empty topology should be nil")
	}
}

func TestBuildLinearChain(t *testing.T) {
	top := Build(chain("C3", "C2", "C1"))

	for _, h := range []string{"C3", "C2", "C1"} {
		if n := mustNode(t, top, h); n.Lane != 0 {
			t.Errorf("%s lane = %d, want 0", h, n.Lane)
		}
	}
	if top.MaxLanes != 1 {
		t.Errorf("MaxLanes = %d, want 1", top.MaxLanes)
	}
	if got := top.Connections(); got != 2 {
		t.Errorf("connections = %d, want 2", got)
	}
	for _, h := range []string{"C3", "C2"} {
		c := mustNode(t, top, h).Parents[0]
		if c.CrossLane() {
			t.Errorf("%s connection %+v should stay on its lane", h, c)
		}
	}
	for row := 0; row < top.Len(); row++ {
		if p := top.PassingAt(row); len(p) != 0 {
			t.Errorf("row %d passing = %v, want none", row, p)
		}
	}
	c2 := mustNode(t, top, "C2")
	if !c2.LineFromAbove {
		t.Error("C2 should have a line from above")
	}
	if mustNode(t, top, "C3").LineFromAbove {
		t.Error("C3 is the first row and has nothing above")
	}
}

func TestBuildMerge(t *testing.T) {
	top := Build([]Commit{
		{Hash: "M", Parents: []string{"A", "B"}},
		{Hash: "A"},
		{Hash: "B"},
	})

	m := mustNode(t, top, "M")
	if m.Lane != 0 || !m.Merge {
		t.Fatalf("M = %+v, want lane 0 merge", m)
	}
	want := []Connection{
		{Parent: "A", FromLane: 0, ToLane: 0, Color: 0},
		{Parent: "B", FromLane: 0, ToLane: 1, Color: 1},
	}
	if !reflect.DeepEqual(m.Parents, want) {
		t.Errorf("M.Parents = %+v, want %+v", m.Parents, want)
	}

	a := mustNode(t, top, "A")
	if a.Lane != 0 || !a.LineFromAbove {
		t.Errorf("A = %+v, want lane 0 with line from above", a)
	}
	b := mustNode(t, top, "B")
	if b.Lane != 1 || b.Color != 1 {
		t.Errorf("B lane/color = %d/%d, want 1/1", b.Lane, b.Color)
	}
	if want := []Incoming{{Lane: 1, Color: 1}}; !reflect.DeepEqual(b.Incoming, want) {
		t.Errorf("B.Incoming = %+v, want %+v", b.Incoming, want)
	}
	if b.LineFromAbove {
		t.Error("B is reached by a merge bend, not a same-lane line")
	}

	if top.MaxLanes != 2 {
		t.Errorf("MaxLanes = %d, want 2", top.MaxLanes)
	}
	if got, want := top.PassingAt(1), []PassingLane{{Lane: 1, Color: 1}}; !reflect.DeepEqual(got, want) {
		t.Errorf("PassingAt(1) = %v, want %v", got, want)
	}
	if got := top.PassingAt(2); len(got) != 0 {
		t.Errorf("PassingAt(2) = %v, want none", got)
	}
}

func TestBuildMissingParent(t *testing.T) {
	top := Build([]Commit{
		{Hash: "X", Parents: []string{"filtered"}},
		{Hash: "Y"},
	})
	x := mustNode(t, top, "X")
	if len(x.Parents) != 0 {
		t.Errorf("X.Parents = %+v, want none", x.Parents)
	}
	if y := mustNode(t, top, "Y"); y.Lane != 0 {
		t.Errorf("Y lane = %d, want 0 (freed by X)", y.Lane)
	}
	if top.MaxLanes != 1 {
		t.Errorf("MaxLanes = %d, want 1", top.MaxLanes)
	}
}

func TestBuildParentAboveIsIgnored(t *testing.T) {
	// Out-of-order input: the parent was already visited.
	top := Build([]Commit{
		{Hash: "P"},
		{Hash: "C", Parents: []string{"P"}},
	})
	if c := mustNode(t, top, "C"); len(c.Parents) != 0 {
		t.Errorf("C.Parents = %+v, want none", c.Parents)
	}
}

func TestBuildForkBendsAtSource(t *testing.T) {
	top := Build([]Commit{
		{Hash: "D", Parents: []string{"B"}},
		{Hash: "C", Parents: []string{"B"}},
		{Hash: "B", Parents: []string{"A"}},
		{Hash: "A"},
	})

	c := mustNode(t, top, "C")
	if c.Lane != 1 {
		t.Fatalf("C lane = %d, want 1", c.Lane)
	}
	if want := []Connection{{Parent: "B", FromLane: 1, ToLane: 0, Color: 1}}; !reflect.DeepEqual(c.Parents, want) {
		t.Errorf("C.Parents = %+v, want %+v", c.Parents, want)
	}
	if want := []Incoming{{Lane: 0, Color: 1, AtSource: true}}; !reflect.DeepEqual(c.Incoming, want) {
		t.Errorf("C.Incoming = %+v, want %+v", c.Incoming, want)
	}

	b := mustNode(t, top, "B")
	if want := []Incoming{{Lane: 0, Color: 0}}; !reflect.DeepEqual(b.Incoming, want) {
		t.Errorf("B.Incoming = %+v, want %+v", b.Incoming, want)
	}
	if got, want := top.PassingAt(1), []PassingLane{{Lane: 0, Color: 0}}; !reflect.DeepEqual(got, want) {
		t.Errorf("PassingAt(1) = %v, want %v", got, want)
	}
	if top.MaxLanes != 2 {
		t.Errorf("MaxLanes = %d, want 2", top.MaxLanes)
	}
}

func TestBuildLowerLaneWins(t *testing.T) {
	// U reserves P on lane 1; Q, on lane 0, later claims P as its primary
	// parent. P moves to lane 0 and U's record is patched.
	top := Build([]Commit{
		{Hash: "T", Parents: []string{"Q"}},
		{Hash: "U", Parents: []string{"P"}},
		{Hash: "Q", Parents: []string{"P"}},
		{Hash: "P"},
	})

	u := mustNode(t, top, "U")
	if u.Lane != 1 {
		t.Fatalf("U lane = %d, want 1", u.Lane)
	}
	if want := []Connection{{Parent: "P", FromLane: 1, ToLane: 0, Color: 1}}; !reflect.DeepEqual(u.Parents, want) {
		t.Errorf("U.Parents = %+v, want %+v", u.Parents, want)
	}
	if want := []Incoming{{Lane: 0, Color: 1, AtSource: true}}; !reflect.DeepEqual(u.Incoming, want) {
		t.Errorf("U.Incoming = %+v, want %+v", u.Incoming, want)
	}

	q := mustNode(t, top, "Q")
	if want := []Connection{{Parent: "P", FromLane: 0, ToLane: 0, Color: 0}}; !reflect.DeepEqual(q.Parents, want) {
		t.Errorf("Q.Parents = %+v, want %+v", q.Parents, want)
	}

	p := mustNode(t, top, "P")
	if p.Lane != 0 || p.Color != 0 || !p.LineFromAbove {
		t.Errorf("P = %+v, want lane 0, color 0, line from above", p)
	}
	if got, want := top.PassingAt(1), []PassingLane{{Lane: 0, Color: 0}}; !reflect.DeepEqual(got, want) {
		t.Errorf("PassingAt(1) = %v, want %v", got, want)
	}
	if got := top.PassingAt(2); len(got) != 0 {
		t.Errorf("PassingAt(2) = %v, want none", got)
	}
}

func TestBuildOctopus(t *testing.T) {
	top := Build([]Commit{
		{Hash: "M", Parents: []string{"A", "B", "C"}},
		{Hash: "A"},
		{Hash: "B"},
		{Hash: "C"},
	})

	m := mustNode(t, top, "M")
	lanes := make([]int, 0, len(m.Parents))
	for _, c := range m.Parents {
		lanes = append(lanes, c.ToLane)
	}
	if want := []int{0, 1, 2}; !slices.Equal(lanes, want) {
		t.Errorf("target lanes = %v, want %v", lanes, want)
	}
	if top.MaxLanes < 3 {
		t.Errorf("MaxLanes = %d, want >= 3", top.MaxLanes)
	}
	if got, want := top.PassingAt(1), []PassingLane{{Lane: 1, Color: 1}, {Lane: 2, Color: 2}}; !reflect.DeepEqual(got, want) {
		t.Errorf("PassingAt(1) = %v, want %v", got, want)
	}
	if got, want := top.PassingAt(2), []PassingLane{{Lane: 2, Color: 2}}; !reflect.DeepEqual(got, want) {
		t.Errorf("PassingAt(2) = %v, want %v", got, want)
	}
}

func TestBuildMergeIntoReservedParent(t *testing.T) {
	top := Build([]Commit{
		{Hash: "X", Parents: []string{"B"}},
		{Hash: "M", Parents: []string{"A", "B"}},
		{Hash: "A"},
		{Hash: "B"},
	})

	m := mustNode(t, top, "M")
	want := []Connection{
		{Parent: "A", FromLane: 1, ToLane: 1, Color: 1},
		{Parent: "B", FromLane: 1, ToLane: 0, Color: 0},
	}
	if !reflect.DeepEqual(m.Parents, want) {
		t.Errorf("M.Parents = %+v, want %+v", m.Parents, want)
	}
	b := mustNode(t, top, "B")
	wantIn := []Incoming{{Lane: 0, Color: 0}, {Lane: 0, Color: 0}}
	if !reflect.DeepEqual(b.Incoming, wantIn) {
		t.Errorf("B.Incoming = %+v, want %+v", b.Incoming, wantIn)
	}
}

func TestBuildSecondaryPrefersLeftWhenRightIsTaken(t *testing.T) {
	top := Build([]Commit{
		{Hash: "P", Parents: []string{"Z"}},
		{Hash: "Q", Parents: []string{"Y"}},
		{Hash: "R", Parents: []string{"W"}},
		{Hash: "Z"},
		{Hash: "Y", Parents: []string{"K", "L"}},
		{Hash: "W"},
		{Hash: "K"},
		{Hash: "L"},
	})

	y := mustNode(t, top, "Y")
	if y.Lane != 1 {
		t.Fatalf("Y lane = %d, want 1", y.Lane)
	}
	if got := y.Parents[1].ToLane; got != 0 {
		t.Errorf("secondary parent lane = %d, want 0", got)
	}
	if l := mustNode(t, top, "L"); l.Lane != 0 {
		t.Errorf("L lane = %d, want 0", l.Lane)
	}
	if top.MaxLanes != 3 {
		t.Errorf("MaxLanes = %d, want 3", top.MaxLanes)
	}
}

func TestBuildDuplicateParents(t *testing.T) {
	top := Build([]Commit{
		{Hash: "M", Parents: []string{"A", "A", ""}},
		{Hash: "A"},
	})
	m := mustNode(t, top, "M")
	if m.Merge {
		t.Error("repeated parent should not make a merge")
	}
	if len(m.Parents) != 1 {
		t.Errorf("M.Parents = %+v, want one connection", m.Parents)
	}
}

func TestBuildDuplicateHashesDoNotPanic(t *testing.T) {
	top := Build([]Commit{
		{Hash: "A", Parents: []string{"B"}},
		{Hash: "B", Parents: []string{"C"}},
		{Hash: "B", Parents: []string{"C"}},
		{Hash: "C"},
	})
	if top.Len() != 4 {
		t.Errorf("Len = %d, want 4", top.Len())
	}
	if n := mustNode(t, top, "B"); n.Row != 2 {
		t.Errorf("B row = %d, want 2 (last occurrence)", n.Row)
	}
}

func TestBuildDeterministic(t *testing.T) {
	commits := randomHistory(rand.New(rand.NewPCG(7, 11)), 400)
	a := Build(commits)
	b := Build(commits)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two builds of the same input differ")
	}
}

func TestBuildLongChainHasNoPassingLanes(t *testing.T) {
	hashes := make([]string, 5000)
	for i := range hashes {
		hashes[i] = fmt.Sprintf("c%d", i)
	}
	top := Build(chain(hashes...))
	if len(top.Passing) != 0 {
		t.Errorf("passing rows = %d, want 0", len(top.Passing))
	}
	if top.MaxLanes != 1 {
		t.Errorf("MaxLanes = %d, want 1", top.MaxLanes)
	}
}

func TestBuildProperties(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		t.Run(fmt.Sprintf("seed%d", seed), func(t *testing.T) {
			commits := randomHistory(rand.New(rand.NewPCG(seed, seed*31)), 300)
			top := Build(commits)
			idx := NewIndex(commits)
			checkProperties(t, commits, idx, top)
			checkPassingAgainstNaive(t, idx, top)
			checkReservations(t, commits)
		})
	}
}

func checkProperties(t *testing.T, commits []Commit, idx *Index, top *Topology) {
	t.Helper()
	for row, c := range commits {
		n := top.At(row)
		if n.Hash != c.Hash || n.Row != row {
			t.Fatalf("row %d holds %s/%d", row, n.Hash, n.Row)
		}
		if n.Lane < 0 || n.Lane >= top.MaxLanes {
			t.Errorf("%s lane %d outside [0,%d)", n.Hash, n.Lane, top.MaxLanes)
		}

		visible := 0
		for _, p := range distinct(c.Parents) {
			if idx.Below(p, row) {
				visible++
			}
		}
		if len(n.Parents) != visible {
			t.Errorf("%s has %d connections, want %d", n.Hash, len(n.Parents), visible)
		}

		seen := map[int]bool{}
		for _, conn := range n.Parents {
			if seen[conn.ToLane] {
				t.Errorf("%s connects two parents on lane %d", n.Hash, conn.ToLane)
			}
			seen[conn.ToLane] = true
			if conn.FromLane != n.Lane {
				t.Errorf("%s connection starts on lane %d, node is on %d", n.Hash, conn.FromLane, n.Lane)
			}
			p := mustNode(t, top, conn.Parent)
			if p.Lane != conn.ToLane {
				t.Errorf("%s -> %s targets lane %d, parent is on %d", n.Hash, conn.Parent, conn.ToLane, p.Lane)
			}
		}

		for _, pl := range top.PassingAt(row) {
			if pl.Lane == n.Lane {
				t.Errorf("row %d lists its own lane %d as passing", row, pl.Lane)
			}
		}
		if !slices.IsSortedFunc(top.PassingAt(row), func(a, b PassingLane) int { return a.Lane - b.Lane }) {
			t.Errorf("row %d passing lanes not sorted: %v", row, top.PassingAt(row))
		}
	}
}

// checkReservations steps the allocator one row at a time and checks its
// state after each commit: every reservation sits on a lane that holds its
// hash, every occupied lane is backed by a reservation, and no two reserved
// lanes share a color.
func checkReservations(t *testing.T, commits []Commit) {
	t.Helper()
	a := newAllocator(NewIndex(commits), len(commits))
	for row, c := range commits {
		a.place(row, c)

		for h, res := range a.reserved {
			if res.lane < 0 || res.lane >= len(a.lanes) || a.lanes[res.lane] != h {
				t.Fatalf("after row %d: %s reserved on lane %d, which holds %q", row, h, res.lane, laneAt(a, res.lane))
			}
		}
		colorLane := map[int]int{}
		for lane, h := range a.lanes {
			if h == "" {
				continue
			}
			if res, ok := a.reserved[h]; !ok || res.lane != lane {
				t.Fatalf("after row %d: lane %d holds %s without a matching reservation", row, lane, h)
			}
			color := a.colors[lane]
			if other, dup := colorLane[color]; dup {
				t.Fatalf("after row %d: lanes %d and %d are both active with color %d", row, other, lane, color)
			}
			colorLane[color] = lane
		}
	}
}

func laneAt(a *allocator, lane int) string {
	if lane < 0 || lane >= len(a.lanes) {
		return "<out of range>"
	}
	return a.lanes[lane]
}

// checkPassingAgainstNaive compares the single-pass result with the
// quadratic definition: every connection crosses the rows strictly between
// its endpoints on its target lane.
func checkPassingAgainstNaive(t *testing.T, idx *Index, top *Topology) {
	t.Helper()
	want := make([]map[int]bool, top.Len())
	for i := range want {
		want[i] = map[int]bool{}
	}
	for row := 0; row < top.Len(); row++ {
		for _, c := range top.At(row).Parents {
			end, _ := idx.Row(c.Parent)
			for r := row + 1; r < end; r++ {
				if top.At(r).Lane != c.ToLane {
					want[r][c.ToLane] = true
				}
			}
		}
	}
	for row := range want {
		got := map[int]bool{}
		for _, pl := range top.PassingAt(row) {
			got[pl.Lane] = true
		}
		if !reflect.DeepEqual(got, want[row]) {
			t.Errorf("row %d passing lanes = %v, want %v", row, got, want[row])
		}
	}
}

// randomHistory produces a newest-first history with forks, merges,
// octopus merges and parents outside the window.
func randomHistory(r *rand.Rand, n int) []Commit {
	commits := make([]Commit, n)
	for i := range commits {
		commits[i].Hash = fmt.Sprintf("c%04d", i)
	}
	for i := range commits {
		if i == n-1 {
			break
		}
		pick := func() string {
			span := min(6, n-1-i)
			return commits[i+1+r.IntN(span)].Hash
		}
		switch x := r.IntN(20); {
		case x == 0:
			commits[i].Parents = []string{fmt.Sprintf("gone%d", i)}
		case x == 1:
			// root in the middle of the history
		case x < 5:
			commits[i].Parents = []string{pick(), pick()}
		case x == 5:
			commits[i].Parents = []string{pick(), pick(), pick()}
		default:
			commits[i].Parents = []string{pick()}
		}
	}
	return commits
}

func BenchmarkBuild(b *testing.B) {
	commits := randomHistory(rand.New(rand.NewPCG(3, 5)), 20000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Build(commits)
	}
}
