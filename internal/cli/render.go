package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lanegraph/pkg/graph"
	"github.com/matzehuels/lanegraph/pkg/pipeline"
)

// extensions maps each format to the file suffix it is written with.
var extensions = map[string]string{
	graph.FormatSVG:      ".svg",
	graph.FormatPNG:      ".png",
	graph.FormatPDF:      ".pdf",
	graph.FormatJSON:     ".layout.json",
	graph.FormatDOT:      ".dot",
	graph.FormatNodelink: ".nodelink.svg",
	graph.FormatText:     ".txt",
}

// renderFlags holds the render command flags that are not pipeline options.
type renderFlags struct {
	output  string // output file (single format) or base path (multiple)
	formats string // comma-separated formats
	layout  string // render from a layout file instead of loading history
	noCache bool
}

// renderCommand creates the render command for generating visualizations.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [repo]",
		Short: "Draw a repository's history as SVG, PNG, PDF, DOT or text",
		Long: `Draw a repository's history.

Formats (comma-separated with -f):
  svg       rail diagram (default)
  png, pdf  rail diagram rasterized with rsvg-convert
  json      layout, same as 'lanegraph layout'
  dot       Graphviz source of the node-link diagram
  nodelink  node-link diagram rendered by Graphviz
  text      terminal graph without colors

With --layout the graph is drawn from a file written by 'lanegraph layout'
and no history is read.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoArg(args, &opts)
			applyConfig(cmd, c.Config, &opts)
			opts.Formats = parseFormats(flags.formats)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), opts, flags)
		},
	}

	addHistoryFlags(cmd.Flags(), &opts, &flags.noCache)
	addDrawFlags(cmd.Flags(), &opts)
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format, - for stdout) or base path (multiple)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): "+strings.Join(graph.Formats, ", ")+" (comma-separated)")
	cmd.Flags().StringVar(&flags.layout, "layout", "", "render a layout file written by 'lanegraph layout'")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show author and refs in node-link labels")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	cmd.Flags().IntVar(&opts.TextWidth, "text-width", 0, "truncate text output to this many columns")

	return cmd
}

// runRender renders every requested format and writes one file per format.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, flags renderFlags) error {
	logger := loggerFromContext(ctx)
	opts.Logger = logger

	var (
		artifacts map[string][]byte
		cached    bool
		commits   int
		lanes     int
		err       error
	)

	if flags.layout != "" {
		l, err := graph.ReadLayoutFile(flags.layout)
		if err != nil {
			return fmt.Errorf("read layout %s: %w", flags.layout, err)
		}
		if err := opts.ValidateForRender(); err != nil {
			return err
		}
		artifacts, err = pipeline.RenderFromLayout(ctx, l, opts)
		if err != nil {
			return err
		}
		commits, lanes = len(l.Rows), l.MaxLanes
	} else {
		runner, err := c.newRunner(ctx, flags.noCache)
		if err != nil {
			return fmt.Errorf("initialize runner: %w", err)
		}
		defer runner.Close()

		g, err := c.buildGraph(ctx, runner, opts)
		if err != nil {
			return err
		}

		spinner := newSpinnerWithContext(ctx, "Rendering "+strings.Join(opts.Formats, ", ")+"...")
		spinner.Start()
		artifacts, cached, err = runner.RenderWithCacheInfo(ctx, g.topology, g.layout, g.commits, opts)
		if err != nil {
			spinner.StopWithError("Render failed")
			return err
		}
		spinner.Stop()
		commits, lanes = len(g.commits), g.topology.MaxLanes
	}

	if flags.output == "-" {
		if len(opts.Formats) != 1 {
			return fmt.Errorf("--output - needs exactly one format, got %d", len(opts.Formats))
		}
		_, err = os.Stdout.Write(artifacts[opts.Formats[0]])
		return err
	}

	base := basePath(flags.output, defaultBase(opts, flags.layout))
	printSuccess("Rendered %s", strings.Join(opts.Formats, ", "))
	for _, format := range opts.Formats {
		path := outputPath(flags.output, base, format, len(opts.Formats))
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		logger.Debug("wrote artifact", "format", format, "path", path, "bytes", len(artifacts[format]))
		printFile(path)
	}
	printStats(commits, lanes, cached)
	return nil
}

// defaultBase names output after the layout file, the input file, or the
// repository directory, in that order.
func defaultBase(opts pipeline.Options, layoutFile string) string {
	switch {
	case layoutFile != "":
		return trimExt(filepath.Base(layoutFile))
	case opts.Input != "":
		return trimExt(filepath.Base(opts.Input))
	}
	dir := opts.RepoDir
	if dir == "" {
		dir = "."
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	name := filepath.Base(dir)
	if name == "/" || name == "." {
		return appName
	}
	return name
}

// basePath derives the base output path. With no output it uses fallback;
// otherwise it strips a known format extension from output.
func basePath(output, fallback string) string {
	if output == "" {
		return fallback
	}
	return trimExt(output)
}

// outputPath returns where one format is written. A single format with an
// explicit output goes exactly there.
func outputPath(output, base, format string, count int) string {
	if output != "" && count == 1 {
		return output
	}
	return base + extensions[format]
}

// trimExt strips the longest known format extension, so "x.layout.json"
// becomes "x" rather than "x.layout".
func trimExt(path string) string {
	best := ""
	for _, ext := range extensions {
		if strings.HasSuffix(path, ext) && len(ext) > len(best) {
			best = ext
		}
	}
	if best == "" {
		if ext := filepath.Ext(path); ext == ".yaml" || ext == ".yml" || ext == ".json" {
			best = ext
		}
	}
	return strings.TrimSuffix(path, best)
}
