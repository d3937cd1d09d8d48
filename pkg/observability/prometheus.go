package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusHooks implements every hook interface with Prometheus
// collectors. Metric names are prefixed with "lanegraph_".
type PrometheusHooks struct {
	stageTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	commits       prometheus.Histogram
	lanes         prometheus.Histogram
	cacheTotal    *prometheus.CounterVec
	cacheBytes    *prometheus.CounterVec
	httpTotal     *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	httpInFlight  prometheus.Gauge
}

// NewPrometheusHooks registers the collectors with reg. Passing
// prometheus.DefaultRegisterer exposes them through promhttp.Handler.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	f := promauto.With(reg)
	return &PrometheusHooks{
		stageTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lanegraph_pipeline_stage_total",
			Help: "Pipeline stage runs by stage and result",
		}, []string{"stage", "result"}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lanegraph_pipeline_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"stage"}),
		commits: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lanegraph_history_commits",
			Help:    "Number of commits loaded per run",
			Buckets: []float64{10, 100, 1000, 10000, 100000},
		}),
		lanes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lanegraph_layout_lanes",
			Help:    "Number of lanes per computed layout",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		}),
		cacheTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lanegraph_cache_requests_total",
			Help: "Cache lookups by key type and result",
		}, []string{"key_type", "result"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lanegraph_cache_written_bytes_total",
			Help: "Bytes written to the cache by key type",
		}, []string{"key_type"}),
		httpTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lanegraph_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lanegraph_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "lanegraph_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (h *PrometheusHooks) observeStage(stage string, d time.Duration, err error) {
	h.stageTotal.WithLabelValues(stage, result(err)).Inc()
	h.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnLoadStart(context.Context, string) {}

func (h *PrometheusHooks) OnLoadComplete(_ context.Context, _ string, commits int, d time.Duration, err error) {
	h.observeStage("load", d, err)
	if err == nil {
		h.commits.Observe(float64(commits))
	}
}

func (h *PrometheusHooks) OnLayoutStart(context.Context, int) {}

func (h *PrometheusHooks) OnLayoutComplete(_ context.Context, lanes int, d time.Duration, err error) {
	h.observeStage("layout", d, err)
	if err == nil {
		h.lanes.Observe(float64(lanes))
	}
}

func (h *PrometheusHooks) OnRenderStart(context.Context, []string) {}

func (h *PrometheusHooks) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	h.observeStage("render", d, err)
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheTotal.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheTotal.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *PrometheusHooks) OnRequest(context.Context, string, string) {
	h.httpInFlight.Inc()
}

func (h *PrometheusHooks) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	h.httpInFlight.Dec()
	h.httpTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	h.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*PrometheusHooks)(nil)
	_ CacheHooks    = (*PrometheusHooks)(nil)
	_ HTTPHooks     = (*PrometheusHooks)(nil)
)
