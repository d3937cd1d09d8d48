package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/lanegraph/pkg/buildinfo"
	"github.com/matzehuels/lanegraph/pkg/observability"
	"github.com/matzehuels/lanegraph/pkg/pipeline"
	"github.com/matzehuels/lanegraph/pkg/server"
	"github.com/matzehuels/lanegraph/pkg/watch"
)

// serveFlags holds the serve command flags that are not pipeline options.
type serveFlags struct {
	addr     string
	debounce time.Duration
	noWatch  bool
	noCache  bool
}

// serveCommand creates the serve command, which keeps the graph of one
// repository up to date over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var flags serveFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "serve [repo]",
		Short: "Serve the lane graph over HTTP and rebuild it when refs change",
		Long: `Serve the lane graph over HTTP.

The graph is built once at startup and rebuilt whenever HEAD, a branch, a tag
or the stash changes. Readers always get a complete graph: a rebuild that
fails leaves the previous one in place.

Endpoints:
  GET  /healthz          liveness and current graph ID
  GET  /api/topology     layout JSON
  GET  /api/graph.svg    rail diagram
  GET  /api/graph.txt    text diagram
  POST /api/refresh      rebuild now
  GET  /metrics          Prometheus metrics`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoArg(args, &opts)
			applyConfig(cmd, c.Config, &opts)
			if !cmd.Flags().Changed("addr") {
				flags.addr = c.Config.Server.Addr
			}
			if !cmd.Flags().Changed("debounce") {
				flags.debounce = c.Config.Server.Debounce.Duration
			}
			return c.runServe(cmd.Context(), opts, flags, prometheus.DefaultRegisterer, promhttp.Handler(), printServing)
		},
	}

	addHistoryFlags(cmd.Flags(), &opts, &flags.noCache)
	addDrawFlags(cmd.Flags(), &opts)
	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (default from config: 127.0.0.1:7420)")
	cmd.Flags().DurationVar(&flags.debounce, "debounce", watch.DefaultDebounce, "quiet period before rebuilding after a ref change")
	cmd.Flags().BoolVar(&flags.noWatch, "no-watch", false, "do not rebuild when the repository changes")

	return cmd
}

// runServe builds the graph, then serves it and watches the repository
// until ctx is done. Metrics are registered on reg and served by metrics.
func (c *CLI) runServe(ctx context.Context, opts pipeline.Options, flags serveFlags, reg prometheus.Registerer, metrics http.Handler, ready func(net.Addr)) error {
	hooks := observability.NewPrometheusHooks(reg)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if opts.Input == "" && opts.RepoDir == "" {
		opts.RepoDir = "."
	}
	srv := server.New(runner, server.Options{Pipeline: opts, Metrics: metrics}, c.Logger)

	c.Logger.Debug("starting server", "build", buildinfo.String(), "source", opts.Source())
	p := newProgress(c.Logger)
	snap, err := srv.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}
	p.done(fmt.Sprintf("Built graph %s: %d commits, %d lanes", snap.ID, snap.Commits, snap.Lanes))

	var w *watch.Watcher
	switch {
	case flags.noWatch:
	case opts.Input != "":
		c.Logger.Info("serving a commit list file; use POST /api/refresh after editing it", "input", opts.Input)
	default:
		w, err = watch.Repo(ctx, opts.RepoDir, watch.Options{
			Debounce: flags.debounce,
			Logger:   c.Logger,
			OnChange: func(ctx context.Context) {
				p := newProgress(loggerFromContext(ctx))
				if snap, err := srv.Refresh(ctx); err == nil {
					p.done("Rebuilt graph " + snap.ID)
				}
			},
		})
		if err != nil {
			return fmt.Errorf("watch %s: %w", opts.RepoDir, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, flags.addr, ready)
	})
	if w != nil {
		g.Go(func() error {
			return w.Run(withLogger(gctx, c.Logger))
		})
	}

	return g.Wait()
}

// printServing reports the bound address and the main URLs.
func printServing(addr net.Addr) {
	base := "http://" + addr.String()
	printSuccess("Serving on %s", StyleHighlight.Render(addr.String()))
	printKeyValue("Graph", StyleLink.Render(base+"/api/graph.svg"))
	printKeyValue("Topology", StyleLink.Render(base+"/api/topology"))
	printKeyValue("Metrics", StyleLink.Render(base+"/metrics"))
	printDetail("Press Ctrl+C to stop")
}
