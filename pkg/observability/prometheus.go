package observability

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements every hook interface by recording Prometheus metrics.
type Prometheus struct {
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	treeNodes     prometheus.Histogram
	searches      *prometheus.CounterVec
	cacheOps      *prometheus.CounterVec
	cacheBytes    prometheus.Counter
	requests      *prometheus.CounterVec
	reqDuration   *prometheus.HistogramVec
}

// NewPrometheus creates the metrics and registers them with reg.
// It panics if registration fails, like prometheus.MustRegister.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jsontree_stage_duration_seconds",
				Help:    "Duration of pipeline stages",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"stage"},
		),
		stageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsontree_stage_errors_total",
				Help: "Pipeline stage failures",
			},
			[]string{"stage"},
		),
		treeNodes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jsontree_tree_nodes",
				Help:    "Number of nodes per built tree",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
		searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsontree_search_total",
				Help: "Path searches by outcome",
			},
			[]string{"status"},
		),
		cacheOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsontree_cache_operations_total",
				Help: "Cache operations by key type and result",
			},
			[]string{"key_type", "result"},
		),
		cacheBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jsontree_cache_written_bytes_total",
				Help: "Bytes written to the cache",
			},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsontree_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"method", "route", "code"},
		),
		reqDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jsontree_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(
		p.stageDuration, p.stageErrors, p.treeNodes, p.searches,
		p.cacheOps, p.cacheBytes, p.requests, p.reqDuration,
	)
	return p
}

// Install registers p as the pipeline, cache and HTTP hooks.
func (p *Prometheus) Install() {
	SetPipelineHooks(p)
	SetCacheHooks(p)
	SetHTTPHooks(p)
}

func (p *Prometheus) observeStage(stage string, d time.Duration, err error) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		p.stageErrors.WithLabelValues(stage).Inc()
	}
}

func (p *Prometheus) OnBuildStart(context.Context, string) {}

func (p *Prometheus) OnBuildComplete(_ context.Context, _ string, nodeCount int, d time.Duration, err error) {
	p.observeStage("build", d, err)
	if err == nil {
		p.treeNodes.Observe(float64(nodeCount))
	}
}

func (p *Prometheus) OnLayoutStart(context.Context, string, int) {}

func (p *Prometheus) OnLayoutComplete(_ context.Context, _ string, d time.Duration, err error) {
	p.observeStage("layout", d, err)
}

func (p *Prometheus) OnRenderStart(context.Context, []string) {}

func (p *Prometheus) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	p.observeStage("render:"+strings.Join(formats, ","), d, err)
}

func (p *Prometheus) OnSearch(_ context.Context, status string, d time.Duration) {
	p.searches.WithLabelValues(status).Inc()
	p.stageDuration.WithLabelValues("search").Observe(d.Seconds())
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheOps.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.Add(float64(size))
}

func (p *Prometheus) OnRequest(context.Context, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, method, route string, statusCode int, d time.Duration) {
	p.requests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	p.reqDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
