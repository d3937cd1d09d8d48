// Package pipeline provides the load → layout → render pipeline for lanegraph.
//
// The CLI and the HTTP server both run the same three stages through a
// [Runner], so caching, defaults and validation behave identically on every
// entry point.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read commits from a git repository or a commit list file,
//     interleave stashes and apply filters
//  2. Layout: assign lanes and colors with [topology.Build]
//  3. Render: write the requested formats (SVG, PNG, PDF, JSON, DOT,
//     node-link SVG, text)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    RepoDir: ".",
//	    Formats: []string{"svg", "text"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lanegraph/pkg/cache"
	lgerrors "github.com/matzehuels/lanegraph/pkg/errors"
	"github.com/matzehuels/lanegraph/pkg/graph"
	"github.com/matzehuels/lanegraph/pkg/history"
	"github.com/matzehuels/lanegraph/pkg/render"
	"github.com/matzehuels/lanegraph/pkg/render/rail"
	"github.com/matzehuels/lanegraph/pkg/topology"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultMaxCount caps how many commits are read from git. Callers pass
	// a negative value to read the whole history.
	DefaultMaxCount = 1000

	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0

	// DefaultFormat is rendered when no format is requested.
	DefaultFormat = graph.FormatSVG
)

// ValidFormats is the set of supported output formats.
var ValidFormats = func() map[string]bool {
	m := make(map[string]bool, len(graph.Formats))
	for _, f := range graph.Formats {
		m[f] = true
	}
	return m
}()

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Source options. Exactly one of RepoDir and Input is used; Input wins.
	RepoDir string `json:"repo_dir,omitempty"`
	Input   string `json:"input,omitempty"` // commit list file (.json, .yaml)

	// History options
	Refs     []string `json:"refs,omitempty"`
	All      bool     `json:"all,omitempty"`
	MaxCount int      `json:"max_count,omitempty"`
	Stashes  bool     `json:"stashes,omitempty"`
	Authors  []string `json:"authors,omitempty"`
	Grep     string   `json:"grep,omitempty"`
	HideRefs []string `json:"hide_refs,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"` // bypass the history cache

	// Render options
	Formats    []string `json:"formats,omitempty"`
	LaneWidth  float64  `json:"lane_width,omitempty"`
	RowHeight  float64  `json:"row_height,omitempty"`
	NodeRadius float64  `json:"node_radius,omitempty"`
	Palette    []string `json:"palette,omitempty"`
	Labels     bool     `json:"labels,omitempty"`
	Detailed   bool     `json:"detailed,omitempty"` // node-link labels
	Scale      float64  `json:"scale,omitempty"`    // PNG only
	TextWidth  int      `json:"text_width,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in logs and server responses.
	RunID string

	// Commits are the rows in display order, stashes and filters applied.
	Commits []history.Commit

	// HistoryHash is the content hash of Commits.
	HistoryHash string

	Topology *topology.Topology
	Layout   graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	CommitCount int
	LaneCount   int
	LoadTime    time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool // Whether the commit list came from cache
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return lgerrors.New(lgerrors.ErrCodeInvalidInput,
			"invalid format: %q (must be one of: %s)", format, strings.Join(graph.Formats, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every field and applies defaults for the
// full pipeline. Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the source and history options.
func (o *Options) ValidateForLoad() error {
	if o.Input == "" && o.RepoDir == "" {
		o.RepoDir = "."
	}
	if o.Input == "" {
		if err := lgerrors.ValidateRefs(o.Refs); err != nil {
			return err
		}
	}
	if o.MaxCount == 0 {
		o.MaxCount = DefaultMaxCount
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.LaneWidth <= 0 {
		o.LaneWidth = rail.DefaultLaneWidth
	}
	if o.RowHeight <= 0 {
		o.RowHeight = rail.DefaultRowHeight
	}
	if o.NodeRadius <= 0 {
		o.NodeRadius = rail.DefaultNodeRadius
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.NodeRadius*2 > o.RowHeight {
		return lgerrors.New(lgerrors.ErrCodeInvalidInput,
			"node radius %.1f does not fit row height %.1f", o.NodeRadius, o.RowHeight)
	}
	return render.Palette(o.Palette).Validate()
}

// Source names where commits come from, for logs and hooks.
func (o *Options) Source() string {
	if o.Input != "" {
		return o.Input
	}
	return o.RepoDir
}

// Filter returns the commit filter for these options. Git applies the
// author filter itself when reading a repository.
func (o *Options) Filter() history.Filter {
	f := history.Filter{Grep: o.Grep, HideRefs: o.HideRefs}
	if o.Input != "" {
		f.Authors = o.Authors
	}
	return f
}

// LogOptions returns the git log options.
func (o *Options) LogOptions() history.LogOptions {
	maxCount := o.MaxCount
	if maxCount < 0 {
		maxCount = 0
	}
	return history.LogOptions{
		Refs:     o.Refs,
		All:      o.All,
		MaxCount: maxCount,
		Authors:  o.Authors,
	}
}

// HistoryKeyOpts returns cache key options for the load stage.
func (o *Options) HistoryKeyOpts(fingerprint string) cache.HistoryKeyOpts {
	return cache.HistoryKeyOpts{
		Fingerprint: fingerprint,
		Refs:        o.Refs,
		All:         o.All,
		MaxCount:    o.MaxCount,
		Stashes:     o.Stashes,
		Authors:     o.Authors,
		Grep:        o.Grep,
		HideRefs:    o.HideRefs,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
// Only the settings that affect format are part of the key.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case graph.FormatSVG, graph.FormatPNG, graph.FormatPDF:
		k.LaneWidth, k.RowHeight, k.NodeRadius = o.LaneWidth, o.RowHeight, o.NodeRadius
		k.Palette, k.Labels = o.Palette, o.Labels
		if format == graph.FormatPNG {
			k.Scale = o.Scale
		}
	case graph.FormatDOT, graph.FormatNodelink:
		k.Palette, k.Detailed = o.Palette, o.Detailed
	case graph.FormatText:
		k.Palette, k.Labels, k.Width = o.Palette, o.Labels, o.TextWidth
	}
	return k
}
