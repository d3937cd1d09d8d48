package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/lanegraph/pkg/cache"
	"github.com/matzehuels/lanegraph/pkg/graph"
	"github.com/matzehuels/lanegraph/pkg/history"
	pkgio "github.com/matzehuels/lanegraph/pkg/io"
	"github.com/matzehuels/lanegraph/pkg/observability"
	"github.com/matzehuels/lanegraph/pkg/topology"
)

// Key types reported to cache hooks.
const (
	keyTypeHistory  = "history"
	keyTypeLayout   = "layout"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger: it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL replaces the per-kind default expiry when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{RunID: uuid.NewString()}
	logger := r.Logger.With("run", result.RunID[:8])
	opts.Logger = logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	// Stage 1: Load
	start := time.Now()
	commits, loadHit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Commits = commits
	result.Stats.LoadTime = time.Since(start)
	result.Stats.CommitCount = len(commits)
	result.CacheInfo.LoadHit = loadHit

	logger.Info("loaded history",
		"source", opts.Source(),
		"commits", len(commits),
		"cached", loadHit,
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	start = time.Now()
	t, layout, historyHash, layoutHit, err := r.LayoutWithCacheInfo(ctx, commits)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Topology = t
	result.Layout = layout
	result.HistoryHash = historyHash
	result.Stats.LayoutTime = time.Since(start)
	result.Stats.LaneCount = t.MaxLanes
	result.CacheInfo.LayoutHit = layoutHit

	logger.Info("computed layout",
		"rows", t.Len(),
		"lanes", t.MaxLanes,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	start = time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, t, layout, commits, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(start)
	result.CacheInfo.RenderHit = renderHit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadWithCacheInfo reads commits with caching and returns cache hit info.
//
// Repository histories are keyed by the repository's ref fingerprint, so a
// new commit, checkout or stash is a miss. Input files are cheap to read
// and are never cached.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (commits []history.Commit, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return nil, false, err
	}

	source := opts.Source()
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()
	defer func() {
		hooks.OnLoadComplete(ctx, source, len(commits), time.Since(start), err)
	}()

	if opts.Input != "" {
		commits, err = Load(ctx, opts)
		return commits, false, err
	}

	cacheKey := r.historyKey(ctx, opts)
	if cacheKey != "" && !opts.Refresh {
		if data, ok := r.get(ctx, keyTypeHistory, cacheKey); ok {
			if cached, err := pkgio.ReadCommits(bytes.NewReader(data), pkgio.FormatJSON); err == nil {
				return cached, true, nil
			}
		}
	}

	commits, err = Load(ctx, opts)
	if err != nil {
		return nil, false, err
	}

	if cacheKey != "" {
		var buf bytes.Buffer
		if err := pkgio.WriteCommits(&buf, commits, pkgio.FormatJSON); err == nil {
			r.set(ctx, keyTypeHistory, cacheKey, buf.Bytes(), cache.TTLHistory)
		}
	}
	return commits, false, nil
}

// historyKey returns "" when the repository cannot be fingerprinted, which
// disables the history cache for this run. Load reports the actual error.
func (r *Runner) historyKey(ctx context.Context, opts Options) string {
	fp, err := history.Reader{Dir: opts.RepoDir}.Fingerprint(ctx)
	if err != nil {
		return ""
	}
	dir, err := filepath.Abs(opts.RepoDir)
	if err != nil {
		dir = opts.RepoDir
	}
	return r.Keyer.HistoryKey(dir, opts.HistoryKeyOpts(fp))
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards the cache hit info.
func (r *Runner) Load(ctx context.Context, opts Options) ([]history.Commit, error) {
	commits, _, err := r.LoadWithCacheInfo(ctx, opts)
	return commits, err
}

// LayoutWithCacheInfo computes the topology with caching. It also returns the
// content hash of commits, which keys the layout and its artifacts.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, commits []history.Commit) (t *topology.Topology, l graph.Layout, historyHash string, hit bool, err error) {
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(commits))
	start := time.Now()
	defer func() {
		lanes := 0
		if t != nil {
			lanes = t.MaxLanes
		}
		hooks.OnLayoutComplete(ctx, lanes, time.Since(start), err)
	}()

	historyHash, err = cache.HashJSON(commits)
	if err != nil {
		return nil, graph.Layout{}, "", false, fmt.Errorf("hash history: %w", err)
	}
	cacheKey := r.Keyer.LayoutKey(historyHash)

	if data, ok := r.get(ctx, keyTypeLayout, cacheKey); ok {
		if cached, err := graph.UnmarshalLayout(data); err == nil {
			if ct, err := cached.Topology(); err == nil {
				return ct, cached, historyHash, true, nil
			}
		}
		// Undecodable entries fall through to recompute.
	}

	t, l = ComputeLayout(commits)

	if data, err := graph.MarshalLayout(l); err == nil {
		r.set(ctx, keyTypeLayout, cacheKey, data, cache.TTLLayout)
	}
	return t, l, historyHash, false, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit
// info. The hit flag is true only when every format came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, t *topology.Topology, l graph.Layout, commits []history.Commit, opts Options) (artifacts map[string][]byte, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	defer func() {
		hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	}()

	layoutData, err := graph.MarshalLayout(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	artifacts = make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		if data, ok := r.get(ctx, keyTypeArtifact, r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))); ok {
			artifacts[format] = data
		} else {
			missing = append(missing, format)
		}
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	renderOpts := opts
	renderOpts.Formats = missing
	rendered, err := Render(ctx, t, l, commits, renderOpts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		artifacts[format] = data
		r.set(ctx, keyTypeArtifact, r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format)), data, cache.TTLArtifact)
	}
	return artifacts, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, t *topology.Topology, l graph.Layout, commits []history.Commit, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, t, l, commits, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// get reads from the cache, reporting hooks. Cache errors count as misses.
func (r *Runner) get(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "type", keyType, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

// set writes to the cache. A failed write is logged and otherwise ignored.
func (r *Runner) set(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if r.TTL > 0 {
		ttl = r.TTL
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
