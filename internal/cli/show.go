package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/lanegraph/pkg/pipeline"
	"github.com/matzehuels/lanegraph/pkg/render/term"
)

// addTermFlags registers the flags shared by the terminal commands.
func addTermFlags(fs *pflag.FlagSet, opts *pipeline.Options, plain *bool) {
	fs.StringSliceVar(&opts.Palette, "palette", nil, "lane colors as #rrggbb, cycled by color index")
	fs.BoolVar(&opts.Labels, "labels", false, "show hash, refs and subject next to each row")
	fs.BoolVar(plain, "plain", false, "disable colors")
}

// showCommand creates the show command, which prints the graph like
// "git log --graph".
func (c *CLI) showCommand() *cobra.Command {
	var noCache, plain bool
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "show [repo]",
		Short: "Print the lane graph to the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoArg(args, &opts)
			applyConfig(cmd, c.Config, &opts)
			return c.runShow(cmd.Context(), cmd.OutOrStdout(), opts, plain, noCache)
		},
	}

	addHistoryFlags(cmd.Flags(), &opts, &noCache)
	addTermFlags(cmd.Flags(), &opts, &plain)
	cmd.Flags().IntVar(&opts.TextWidth, "width", 0, "truncate lines to this many columns")

	return cmd
}

func (c *CLI) runShow(ctx context.Context, w io.Writer, opts pipeline.Options, plain, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	g, err := c.buildGraph(ctx, runner, opts)
	if err != nil {
		return err
	}

	to := pipeline.TermOptions(g.commits, opts)
	to.Plain = plain
	_, err = io.WriteString(w, term.Render(g.topology, to))
	return err
}
