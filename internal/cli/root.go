package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/lanegraph/pkg/config"
	"github.com/matzehuels/lanegraph/pkg/pipeline"
)

// =============================================================================
// Shared Flags
// =============================================================================

// addHistoryFlags registers the flags that select which commits are loaded.
// Defaults come from the config file, so they are applied in applyConfig
// rather than here.
func addHistoryFlags(fs *pflag.FlagSet, opts *pipeline.Options, noCache *bool) {
	fs.StringVarP(&opts.Input, "input", "i", "", "read commits from a JSON or YAML file instead of git")
	fs.StringSliceVar(&opts.Refs, "ref", nil, "start from these refs (default: HEAD)")
	fs.BoolVarP(&opts.All, "all", "a", false, "include every branch, tag and remote")
	fs.IntVarP(&opts.MaxCount, "max-count", "n", 0, "maximum commits to read, negative for all")
	fs.BoolVar(&opts.Stashes, "stashes", false, "show stash entries")
	fs.StringSliceVar(&opts.Authors, "author", nil, "only commits by these authors")
	fs.StringVar(&opts.Grep, "grep", "", "only commits whose subject contains this text")
	fs.StringSliceVar(&opts.HideRefs, "hide-ref", nil, "hide commits only reachable from these refs")
	fs.BoolVar(&opts.Refresh, "refresh", false, "re-read history even if it is cached")
	fs.BoolVar(noCache, "no-cache", false, "disable caching")
}

// addDrawFlags registers the geometry and color flags.
func addDrawFlags(fs *pflag.FlagSet, opts *pipeline.Options) {
	fs.Float64Var(&opts.LaneWidth, "lane-width", 0, "horizontal distance between lanes")
	fs.Float64Var(&opts.RowHeight, "row-height", 0, "vertical distance between rows")
	fs.Float64Var(&opts.NodeRadius, "node-radius", 0, "commit dot radius")
	fs.StringSliceVar(&opts.Palette, "palette", nil, "lane colors as #rrggbb, cycled by color index")
	fs.BoolVar(&opts.Labels, "labels", false, "draw hash, refs and subject next to each row")
}

// applyConfig fills options the user did not set on the command line from
// the loaded configuration. Flags always win over the file.
func applyConfig(cmd *cobra.Command, cfg config.Config, opts *pipeline.Options) {
	unset := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && !f.Changed
	}

	if unset("max-count") {
		opts.MaxCount = cfg.Log.MaxCommits
	}
	if unset("stashes") {
		opts.Stashes = cfg.Log.Stashes
	}
	if unset("all") {
		opts.All = cfg.Log.All
	}
	if unset("lane-width") {
		opts.LaneWidth = cfg.Render.LaneWidth
	}
	if unset("row-height") {
		opts.RowHeight = cfg.Render.RowHeight
	}
	if unset("node-radius") {
		opts.NodeRadius = cfg.Render.NodeRadius
	}
	if unset("palette") {
		opts.Palette = cfg.Render.Palette
	}
	if unset("labels") {
		opts.Labels = cfg.Render.Labels
	}
}

// repoArg sets the repository directory from the optional positional
// argument.
func repoArg(args []string, opts *pipeline.Options) {
	if len(args) > 0 {
		opts.RepoDir = args[0]
	}
}
