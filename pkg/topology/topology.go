package topology

// Connection is a line from a commit to one of its parents.
// FromLane is the child's lane; ToLane is the lane the parent is expected on.
type Connection struct {
	Parent   string
	FromLane int
	ToLane   int
	Color    int
}

// CrossLane reports whether the line changes lanes.
func (c Connection) CrossLane() bool { return c.FromLane != c.ToLane }

// Incoming is a line segment drawn on a node's row.
//
// Most records sit on the parent's row and describe a line arriving from the
// top edge of the row on Lane. Records with AtSource set sit on the child's
// row instead: the line leaves the node and bends into Lane towards the
// bottom edge. Non-merge commits whose parent lives on another lane are drawn
// that way.
type Incoming struct {
	Lane     int
	Color    int
	AtSource bool
}

// Node is the layout of a single commit.
type Node struct {
	Hash  string
	Row   int
	Lane  int
	Color int

	// Merge is set when the commit has more than one distinct parent.
	Merge bool

	// Parents holds one connection per visible parent, in parent order.
	Parents []Connection

	// Incoming holds the segments drawn on this row for lines arriving from
	// above, plus bends recorded on the source row (see [Incoming]).
	Incoming []Incoming

	// LineFromAbove is set when a same-lane line arrives from directly above.
	LineFromAbove bool
}

// PassingLane is a lane whose line crosses a row without a node on it.
type PassingLane struct {
	Lane  int
	Color int
}

// Topology is the complete lane layout for one ordered commit list.
// It is read-only once returned; a new input produces a new Topology.
type Topology struct {
	// Nodes maps commit hash to its layout.
	Nodes map[string]*Node
	// Rows lists the hash on each row, in input order.
	Rows []string
	// MaxLanes is the number of lanes in use (highest lane index + 1).
	MaxLanes int
	// Passing maps a row to the lanes passing through it. Rows without
	// passing lanes are absent.
	Passing map[int][]PassingLane

	nodes []Node
}

// New assembles a Topology from per-row nodes. nodes[i] must describe row i.
// It is used by [Build] and by decoders that restore a serialized layout.
func New(nodes []Node, maxLanes int, passing map[int][]PassingLane) *Topology {
	if passing == nil {
		passing = make(map[int][]PassingLane)
	}
	t := &Topology{
		Nodes:    make(map[string]*Node, len(nodes)),
		Rows:     make([]string, len(nodes)),
		MaxLanes: maxLanes,
		Passing:  passing,
		nodes:    nodes,
	}
	for i := range nodes {
		t.Rows[i] = nodes[i].Hash
		t.Nodes[nodes[i].Hash] = &nodes[i]
	}
	return t
}

// Build computes the topology of commits, which must be ordered newest first.
// It is a pure function of its input: equal inputs give equal topologies.
func Build(commits []Commit) *Topology {
	idx := NewIndex(commits)

	a := newAllocator(idx, len(commits))
	for row, c := range commits {
		a.place(row, c)
	}

	resolveIncoming(a.nodes, idx)
	passing := computePassing(a.nodes, idx, len(a.lanes))

	return New(a.nodes, len(a.lanes), passing)
}

// Len returns the number of rows.
func (t *Topology) Len() int { return len(t.nodes) }

// Node returns the layout of hash.
func (t *Topology) Node(hash string) (*Node, bool) {
	n, ok := t.Nodes[hash]
	return n, ok
}

// At returns the node on row, or nil when row is out of range.
func (t *Topology) At(row int) *Node {
	if row < 0 || row >= len(t.nodes) {
		return nil
	}
	return &t.nodes[row]
}

// PassingAt returns the lanes passing through row, ordered by lane.
func (t *Topology) PassingAt(row int) []PassingLane {
	return t.Passing[row]
}

// Connections returns the total number of parent connections.
func (t *Topology) Connections() int {
	n := 0
	for i := range t.nodes {
		n += len(t.nodes[i].Parents)
	}
	return n
}
