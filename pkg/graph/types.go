package graph

import (
	"github.com/matzehuels/lanegraph/pkg/history"
	"github.com/matzehuels/lanegraph/pkg/topology"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Output formats.
const (
	FormatSVG      = "svg"
	FormatPNG      = "png"
	FormatPDF      = "pdf"
	FormatJSON     = "json"
	FormatDOT      = "dot"
	FormatNodelink = "nodelink"
	FormatText     = "text"
)

// Formats lists every output format in a stable order.
var Formats = []string{FormatSVG, FormatPNG, FormatPDF, FormatJSON, FormatDOT, FormatNodelink, FormatText}

// LayoutVersion is the version written by [FromTopology].
const LayoutVersion = 1

// =============================================================================
// Row - One Commit and Its Segments
// =============================================================================

// Row is the serialized layout of one commit.
type Row struct {
	Hash  string `json:"hash"`
	Lane  int    `json:"lane"`
	Color int    `json:"color"`

	Merge         bool `json:"merge,omitempty"`
	LineFromAbove bool `json:"line_from_above,omitempty"`

	Parents  []Edge    `json:"parents,omitempty"`
	Incoming []Segment `json:"incoming,omitempty"`
	Passing  []Lane    `json:"passing,omitempty"`

	// Commit metadata, present when the layout was built from full history.
	Label   string   `json:"label,omitempty"`
	Subject string   `json:"subject,omitempty"`
	Author  string   `json:"author,omitempty"`
	Refs    []string `json:"refs,omitempty"`
	Stash   bool     `json:"stash,omitempty"`
}

// Edge is a connection from a row to one of its parents.
type Edge struct {
	Parent string `json:"parent"`
	From   int    `json:"from"`
	To     int    `json:"to"`
	Color  int    `json:"color"`
}

// Segment is a line drawn on a row; see [topology.Incoming].
type Segment struct {
	Lane     int  `json:"lane"`
	Color    int  `json:"color"`
	AtSource bool `json:"at_source,omitempty"`
}

// Lane is a colored lane index.
type Lane struct {
	Lane  int `json:"lane"`
	Color int `json:"color"`
}

// =============================================================================
// Conversion
// =============================================================================

// FromTopology serializes t. Commits are optional: when given, rows are
// annotated with the metadata of the commit with the same hash.
func FromTopology(t *topology.Topology, commits []history.Commit) Layout {
	meta := history.ByHash(commits)

	l := Layout{
		Version:  LayoutVersion,
		MaxLanes: t.MaxLanes,
		Rows:     make([]Row, t.Len()),
	}
	for i := range l.Rows {
		n := t.At(i)
		r := Row{
			Hash:          n.Hash,
			Lane:          n.Lane,
			Color:         n.Color,
			Merge:         n.Merge,
			LineFromAbove: n.LineFromAbove,
		}
		for _, c := range n.Parents {
			r.Parents = append(r.Parents, Edge{Parent: c.Parent, From: c.FromLane, To: c.ToLane, Color: c.Color})
		}
		for _, in := range n.Incoming {
			r.Incoming = append(r.Incoming, Segment{Lane: in.Lane, Color: in.Color, AtSource: in.AtSource})
		}
		for _, p := range t.PassingAt(i) {
			r.Passing = append(r.Passing, Lane{Lane: p.Lane, Color: p.Color})
		}
		if c, ok := meta[n.Hash]; ok {
			r.Label = c.Label()
			r.Subject = c.Subject
			r.Author = c.Author
			r.Refs = c.Refs
			r.Stash = c.Stash
		}
		l.Rows[i] = r
	}
	return l
}

// Topology restores the engine representation. It fails when a lane index
// is negative or not below MaxLanes.
func (l Layout) Topology() (*topology.Topology, error) {
	nodes := make([]topology.Node, len(l.Rows))
	passing := make(map[int][]topology.PassingLane)

	for i, r := range l.Rows {
		if err := l.checkLane(i, r.Lane); err != nil {
			return nil, err
		}
		n := topology.Node{
			Hash:          r.Hash,
			Row:           i,
			Lane:          r.Lane,
			Color:         r.Color,
			Merge:         r.Merge,
			LineFromAbove: r.LineFromAbove,
		}
		for _, e := range r.Parents {
			if err := l.checkLane(i, e.From); err != nil {
				return nil, err
			}
			if err := l.checkLane(i, e.To); err != nil {
				return nil, err
			}
			n.Parents = append(n.Parents, topology.Connection{Parent: e.Parent, FromLane: e.From, ToLane: e.To, Color: e.Color})
		}
		for _, s := range r.Incoming {
			if err := l.checkLane(i, s.Lane); err != nil {
				return nil, err
			}
			n.Incoming = append(n.Incoming, topology.Incoming{Lane: s.Lane, Color: s.Color, AtSource: s.AtSource})
		}
		for _, p := range r.Passing {
			if err := l.checkLane(i, p.Lane); err != nil {
				return nil, err
			}
			passing[i] = append(passing[i], topology.PassingLane{Lane: p.Lane, Color: p.Color})
		}
		nodes[i] = n
	}
	return topology.New(nodes, l.MaxLanes, passing), nil
}
