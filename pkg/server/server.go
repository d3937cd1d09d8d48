// Package server serves the lane graph of one repository over HTTP.
//
// The server keeps the latest pipeline result as an immutable [Snapshot].
// Handlers read the current snapshot without locking; [Server.Refresh]
// builds a new one and swaps it in atomically, so readers never observe a
// half-built graph. "lanegraph serve" pairs the server with a repository
// watcher that calls Refresh whenever refs change.
//
// # Routes
//
//	GET  /healthz          liveness and current snapshot ID
//	GET  /api/topology     layout JSON, with ETag / If-None-Match support
//	GET  /api/graph.svg    rail diagram
//	GET  /api/graph.txt    plain text diagram
//	POST /api/refresh      rebuild now and return the new snapshot summary
//	GET  /metrics          Prometheus metrics
package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/lanegraph/pkg/graph"
	"github.com/matzehuels/lanegraph/pkg/pipeline"
)

// ErrNoSnapshot is returned by handlers before the first successful refresh.
var ErrNoSnapshot = errors.New("graph not built yet")

// Snapshot is one published pipeline result. It is never modified after
// it has been published.
type Snapshot struct {
	// ID is derived from the layout content: equal graphs share an ID.
	ID      string
	RunID   string
	BuiltAt time.Time
	Commits int
	Lanes   int

	Layout []byte // graph.FormatJSON
	SVG    []byte // graph.FormatSVG
	Text   []byte // graph.FormatText
}

// ETag returns the quoted entity tag for the snapshot.
func (s *Snapshot) ETag() string { return `"` + s.ID + `"` }

// Options configures a [Server].
type Options struct {
	// Pipeline is the base pipeline configuration. Formats are overridden.
	Pipeline pipeline.Options
	// Metrics serves /metrics. Defaults to promhttp.Handler().
	Metrics http.Handler
	// RefreshTimeout bounds one rebuild. Defaults to one minute.
	RefreshTimeout time.Duration
}

// Server is the HTTP front end. It is safe for concurrent use.
type Server struct {
	runner *pipeline.Runner
	opts   Options
	logger *log.Logger
	router chi.Router

	snap      atomic.Pointer[Snapshot]
	refreshMu sync.Mutex
}

// New creates a server. No snapshot exists until [Server.Refresh] succeeds.
func New(runner *pipeline.Runner, opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Metrics == nil {
		opts.Metrics = promhttp.Handler()
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = time.Minute
	}
	opts.Pipeline.Formats = []string{graph.FormatJSON, graph.FormatSVG, graph.FormatText}

	s := &Server{runner: runner, opts: opts, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Snapshot returns the current snapshot, or nil before the first refresh.
func (s *Server) Snapshot() *Snapshot { return s.snap.Load() }

// Refresh runs the pipeline and publishes the result. Concurrent calls are
// serialized. On failure the previous snapshot stays published.
func (s *Server) Refresh(ctx context.Context) (*Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.opts.RefreshTimeout)
	defer cancel()

	res, err := s.runner.Execute(ctx, s.opts.Pipeline)
	if err != nil {
		s.logger.Error("refresh failed", "err", err)
		return nil, err
	}

	layout := res.Artifacts[graph.FormatJSON]
	sum := sha256.Sum256(layout)
	next := &Snapshot{
		ID:      hex.EncodeToString(sum[:8]),
		RunID:   res.RunID,
		BuiltAt: time.Now(),
		Commits: res.Stats.CommitCount,
		Lanes:   res.Stats.LaneCount,
		Layout:  layout,
		SVG:     res.Artifacts[graph.FormatSVG],
		Text:    res.Artifacts[graph.FormatText],
	}

	prev := s.snap.Swap(next)
	if prev == nil || prev.ID != next.ID {
		s.logger.Info("published snapshot", "id", next.ID, "commits", next.Commits, "lanes", next.Lanes)
	}
	return next, nil
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. ready, when non-nil, receives the bound address.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	if ready != nil {
		ready(ln.Addr())
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/topology", s.artifact("application/json", func(sn *Snapshot) []byte { return sn.Layout }))
		r.Get("/graph.svg", s.artifact("image/svg+xml", func(sn *Snapshot) []byte { return sn.SVG }))
		r.Get("/graph.txt", s.artifact("text/plain; charset=utf-8", func(sn *Snapshot) []byte { return sn.Text }))
		r.Post("/refresh", s.handleRefresh)
	})
	r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	return r
}
