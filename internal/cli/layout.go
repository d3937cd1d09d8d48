package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lanegraph/pkg/graph"
	"github.com/matzehuels/lanegraph/pkg/history"
	pkgio "github.com/matzehuels/lanegraph/pkg/io"
	"github.com/matzehuels/lanegraph/pkg/pipeline"
	"github.com/matzehuels/lanegraph/pkg/topology"
)

// defaultLayoutFile is written by "layout" when no --output is given.
const defaultLayoutFile = "lanegraph.layout.json"

// layoutCommand creates the layout command for computing lane assignments.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output        string
		exportHistory string
		noCache       bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [repo]",
		Short: "Assign lanes to a repository's history and write them as JSON",
		Long: `Assign lanes to a repository's history and write them as JSON.

The layout command reads the commit history of the repository at [repo]
(default: the current directory), or of a commit list given with --input,
and computes one lane and color per commit. The output is a layout.json file
(same format as 'render -f json') that 'render --layout' draws without
touching the repository again.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoArg(args, &opts)
			applyConfig(cmd, c.Config, &opts)
			return c.runLayout(cmd.Context(), opts, output, exportHistory, noCache)
		},
	}

	addHistoryFlags(cmd.Flags(), &opts, &noCache)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: "+defaultLayoutFile+", - for stdout)")
	cmd.Flags().StringVar(&exportHistory, "export-history", "", "also write the loaded commits to this .json or .yaml file")

	return cmd
}

// runLayout loads the history, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output, exportHistory string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	g, err := c.buildGraph(ctx, runner, opts)
	if err != nil {
		return err
	}

	if exportHistory != "" {
		if err := pkgio.ExportCommits(exportHistory, g.commits); err != nil {
			return fmt.Errorf("export history %s: %w", exportHistory, err)
		}
	}

	if output == "-" {
		return graph.WriteLayout(g.layout, os.Stdout)
	}
	if output == "" {
		output = defaultLayoutFile
	}
	if err := graph.WriteLayoutFile(g.layout, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	if exportHistory != "" {
		printFile(exportHistory)
	}
	printStats(len(g.commits), g.topology.MaxLanes, g.cached)
	printNewline()
	printNextStep("Render", appName+" render --layout "+output)

	return nil
}

// builtGraph is the output of the load and layout stages.
type builtGraph struct {
	commits  []history.Commit
	topology *topology.Topology
	layout   graph.Layout
	cached   bool // layout came from the cache
}

// buildGraph runs the load and layout stages behind a spinner.
func (c *CLI) buildGraph(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*builtGraph, error) {
	spinner := newSpinnerWithContext(ctx, "Reading history of "+opts.Source()+"...")
	if opts.Source() == "" {
		spinner.SetMessage("Reading history...")
	}
	spinner.Start()

	commits, _, err := runner.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		spinner.StopWithError("Reading history failed")
		return nil, fmt.Errorf("load history: %w", err)
	}

	spinner.SetMessage(fmt.Sprintf("Assigning lanes to %d commits...", len(commits)))
	t, l, _, hit, err := runner.LayoutWithCacheInfo(ctx, commits)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return nil, fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return &builtGraph{commits: commits, topology: t, layout: l, cached: hit}, nil
}
