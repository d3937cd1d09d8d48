package history

import (
	"time"

	"github.com/matzehuels/lanegraph/pkg/topology"
)

// Commit is one row of history as read from git or from an exported file.
type Commit struct {
	Hash      string    `json:"hash" yaml:"hash"`
	ShortHash string    `json:"short_hash,omitempty" yaml:"short_hash,omitempty"`
	Subject   string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	Author    string    `json:"author,omitempty" yaml:"author,omitempty"`
	Date      time.Time `json:"date,omitzero" yaml:"date,omitempty"`
	Parents   []string  `json:"parents,omitempty" yaml:"parents,omitempty"`
	Refs      []string  `json:"refs,omitempty" yaml:"refs,omitempty"`

	// Stash marks a synthetic row built from a stash entry.
	Stash bool `json:"stash,omitempty" yaml:"stash,omitempty"`
}

// Label is the short identifier shown next to the node.
func (c Commit) Label() string {
	if c.ShortHash != "" {
		return c.ShortHash
	}
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}
	return c.Hash
}

// Records converts commits into the engine's input records, keeping order.
func Records(commits []Commit) []topology.Commit {
	out := make([]topology.Commit, len(commits))
	for i, c := range commits {
		out[i] = topology.Commit{Hash: c.Hash, Parents: c.Parents, Refs: c.Refs}
	}
	return out
}

// ByHash indexes commits by hash. Later duplicates overwrite earlier ones,
// matching the engine's index.
func ByHash(commits []Commit) map[string]*Commit {
	m := make(map[string]*Commit, len(commits))
	for i := range commits {
		m[commits[i].Hash] = &commits[i]
	}
	return m
}
