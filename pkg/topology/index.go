package topology

// Commit is the input record of the layout: a hash and its ordered parents.
// The first parent is the primary ancestor. Refs are carried for display and
// do not influence the layout.
type Commit struct {
	Hash    string
	Parents []string
	Refs    []string
}

// Index maps commit hashes to their row in the input order.
// The zero value is an empty index.
type Index struct {
	rows map[string]int
}

// NewIndex builds the hash → row index in one pass over commits.
// When a hash appears more than once, the last occurrence wins.
func NewIndex(commits []Commit) *Index {
	rows := make(map[string]int, len(commits))
	for i, c := range commits {
		rows[c.Hash] = i
	}
	return &Index{rows: rows}
}

// Row returns the row of hash and whether it is present.
func (x *Index) Row(hash string) (int, bool) {
	r, ok := x.rows[hash]
	return r, ok
}

// Visible reports whether hash is part of the indexed window.
func (x *Index) Visible(hash string) bool {
	_, ok := x.rows[hash]
	return ok
}

// Below reports whether hash is indexed at a row strictly after row.
// Only such parents can be connected by a forward pass.
func (x *Index) Below(hash string, row int) bool {
	r, ok := x.rows[hash]
	return ok && r > row
}

// Len returns the number of distinct hashes.
func (x *Index) Len() int { return len(x.rows) }
