package cache

// Keyer derives cache keys.
type Keyer interface {
	// HistoryKey identifies a commit list read from a repository.
	HistoryKey(repo string, opts HistoryKeyOpts) string
	// LayoutKey identifies the topology computed from a commit list.
	LayoutKey(historyHash string) string
	// ArtifactKey identifies one rendered output of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// HistoryKeyOpts are the inputs that change which commits are read.
type HistoryKeyOpts struct {
	Fingerprint string   `json:"fingerprint"` // hash of HEAD and all refs
	Refs        []string `json:"refs,omitempty"`
	All         bool     `json:"all,omitempty"`
	MaxCount    int      `json:"max_count,omitempty"`
	Stashes     bool     `json:"stashes,omitempty"`
	Authors     []string `json:"authors,omitempty"`
	Grep        string   `json:"grep,omitempty"`
	HideRefs    []string `json:"hide_refs,omitempty"`
}

// ArtifactKeyOpts are the render settings that change an output.
type ArtifactKeyOpts struct {
	Format     string   `json:"format"`
	LaneWidth  float64  `json:"lane_width,omitempty"`
	RowHeight  float64  `json:"row_height,omitempty"`
	NodeRadius float64  `json:"node_radius,omitempty"`
	Palette    []string `json:"palette,omitempty"`
	Labels     bool     `json:"labels,omitempty"`
	Detailed   bool     `json:"detailed,omitempty"`
	Scale      float64  `json:"scale,omitempty"`
	Width      int      `json:"width,omitempty"` // text columns
}

// DefaultKeyer builds keys of the form "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HistoryKey hashes the repository path with the read options.
func (DefaultKeyer) HistoryKey(repo string, opts HistoryKeyOpts) string {
	return hashKey("history", repo, opts)
}

// LayoutKey hashes the commit list digest.
func (DefaultKeyer) LayoutKey(historyHash string) string {
	return hashKey("layout", historyHash)
}

// ArtifactKey hashes the layout digest with the render options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
