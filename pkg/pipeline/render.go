package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/lanegraph/pkg/graph"
	"github.com/matzehuels/lanegraph/pkg/history"
	"github.com/matzehuels/lanegraph/pkg/render"
	"github.com/matzehuels/lanegraph/pkg/render/nodelink"
	"github.com/matzehuels/lanegraph/pkg/render/rail"
	"github.com/matzehuels/lanegraph/pkg/render/term"
	"github.com/matzehuels/lanegraph/pkg/topology"
)

// Render generates output artifacts in the requested formats. The rail SVG
// and the DOT source are produced at most once even when several formats
// derive from them.
func Render(ctx context.Context, t *topology.Topology, l graph.Layout, commits []history.Commit, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var svg []byte
	railSVG := func() []byte {
		if svg == nil {
			svg = rail.RenderSVG(t, buildRailOptions(commits, opts)...)
		}
		return svg
	}
	var dot string
	dotSource := func() string {
		if dot == "" {
			dot = nodelink.ToDOT(commits, nodelink.Options{
				Detailed: opts.Detailed,
				Topology: t,
				Palette:  opts.Palette,
			})
		}
		return dot
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case graph.FormatSVG:
			data = railSVG()
		case graph.FormatPNG:
			data, err = render.ToPNG(railSVG(), opts.Scale)
		case graph.FormatPDF:
			data, err = render.ToPDF(railSVG())
		case graph.FormatJSON:
			data, err = graph.MarshalLayout(l)
		case graph.FormatDOT:
			data = []byte(dotSource())
		case graph.FormatNodelink:
			data, err = nodelink.RenderSVG(ctx, dotSource())
		case graph.FormatText:
			data = []byte(term.Render(t, TermOptions(commits, opts)))
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// RenderFromLayout renders from a serialized layout, for example one
// written by "lanegraph layout". Row metadata stands in for the commits.
func RenderFromLayout(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	t, err := l.Topology()
	if err != nil {
		return nil, fmt.Errorf("convert layout: %w", err)
	}
	return Render(ctx, t, l, CommitsFromLayout(l), opts)
}

// CommitsFromLayout rebuilds the commit metadata stored on layout rows.
// Parents come from the row edges, so parents outside the layout are kept.
func CommitsFromLayout(l graph.Layout) []history.Commit {
	commits := make([]history.Commit, len(l.Rows))
	for i, r := range l.Rows {
		c := history.Commit{
			Hash:      r.Hash,
			ShortHash: r.Label,
			Subject:   r.Subject,
			Author:    r.Author,
			Refs:      r.Refs,
			Stash:     r.Stash,
		}
		for _, e := range r.Parents {
			c.Parents = append(c.Parents, e.Parent)
		}
		commits[i] = c
	}
	return commits
}

// buildRailOptions builds SVG rendering options.
func buildRailOptions(commits []history.Commit, opts Options) []rail.Option {
	railOpts := []rail.Option{
		rail.WithLaneWidth(opts.LaneWidth),
		rail.WithRowHeight(opts.RowHeight),
		rail.WithNodeRadius(opts.NodeRadius),
	}
	if len(opts.Palette) > 0 {
		railOpts = append(railOpts, rail.WithPalette(opts.Palette))
	}
	if opts.Labels {
		railOpts = append(railOpts, rail.WithCommits(commits))
	}
	return railOpts
}

// TermOptions builds text rendering options. Colors are off; terminal
// callers turn them back on by clearing Plain.
func TermOptions(commits []history.Commit, opts Options) term.Options {
	o := term.Options{Palette: opts.Palette, Width: opts.TextWidth, Plain: true}
	if opts.Labels {
		o.Commits = commits
	}
	return o
}
