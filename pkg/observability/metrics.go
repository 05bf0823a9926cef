package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hopgraph"

// Metrics implements every hook interface on top of Prometheus collectors.
type Metrics struct {
	builds        prometheus.Counter
	buildDuration prometheus.Histogram
	skippedRuns   prometheus.Counter
	graphNodes    prometheus.Gauge
	graphEdges    prometheus.Gauge
	generation    prometheus.Gauge
	settles       *prometheus.CounterVec
	settleTicks   prometheus.Histogram
	staleTicks    prometheus.Counter
	selections    *prometheus.CounterVec
	fits          prometheus.Counter
	cacheOps      *prometheus.CounterVec
	cacheBytes    prometheus.Counter
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	httpErrors    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		builds: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "graph", Name: "builds_total",
			Help: "Graph rebuilds from a run list",
		}),
		buildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "graph", Name: "build_duration_seconds",
			Help:    "Time to aggregate runs into a graph",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		skippedRuns: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "graph", Name: "skipped_runs_total",
			Help: "Malformed runs skipped while building",
		}),
		graphNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "graph", Name: "nodes",
			Help: "Nodes in the installed graph",
		}),
		graphEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "graph", Name: "edges",
			Help: "Edges in the installed graph",
		}),
		generation: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "layout", Name: "generation",
			Help: "Current layout generation",
		}),
		settles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "layout", Name: "settles_total",
			Help: "Simulations settled, by reason",
		}, []string{"reason"}),
		settleTicks: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "layout", Name: "settle_ticks",
			Help:    "Ticks taken to settle",
			Buckets: []float64{10, 25, 50, 100, 150, 200, 250, 300},
		}),
		staleTicks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "layout", Name: "stale_ticks_total",
			Help: "Ticks dropped because their generation was superseded",
		}),
		selections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "selection", Name: "changes_total",
			Help: "Selection changes, by kind (run, none, dangling)",
		}, []string{"kind"}),
		fits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "selection", Name: "viewport_fits_total",
			Help: "Viewport fits computed",
		}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "operations_total",
			Help: "Cache operations, by key type and result",
		}, []string{"key_type", "result"}),
		cacheBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "written_bytes_total",
			Help: "Bytes written to the cache",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "source", Name: "http_requests_total",
			Help: "Run source HTTP requests, by host and status",
		}, []string{"host", "status"}),
		httpLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "source", Name: "http_duration_seconds",
			Help:    "Run source HTTP latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"host"}),
		httpErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "source", Name: "http_errors_total",
			Help: "Run source HTTP transport errors",
		}, []string{"host"}),
	}
}

// Register installs m as the layout, selection, cache and HTTP hooks.
func (m *Metrics) Register() {
	SetLayoutHooks(m)
	SetSelectionHooks(m)
	SetCacheHooks(m)
	SetHTTPHooks(m)
}

func (m *Metrics) OnBuild(_, skipped, nodes, edges int, d time.Duration) {
	m.builds.Inc()
	m.buildDuration.Observe(d.Seconds())
	m.skippedRuns.Add(float64(skipped))
	m.graphNodes.Set(float64(nodes))
	m.graphEdges.Set(float64(edges))
}

func (m *Metrics) OnInstall(generation uint64, nodes, edges int) {
	m.generation.Set(float64(generation))
	m.graphNodes.Set(float64(nodes))
	m.graphEdges.Set(float64(edges))
}

func (m *Metrics) OnSettle(_ uint64, ticks int, reason string, _ time.Duration) {
	m.settles.WithLabelValues(reason).Inc()
	m.settleTicks.Observe(float64(ticks))
}

func (m *Metrics) OnStaleTick(uint64) { m.staleTicks.Inc() }

func (m *Metrics) OnSelect(runID int, dangling bool) {
	switch {
	case dangling:
		m.selections.WithLabelValues("dangling").Inc()
	case runID < 0:
		m.selections.WithLabelValues("none").Inc()
	default:
		m.selections.WithLabelValues("run").Inc()
	}
}

func (m *Metrics) OnFit(float64, float64, float64) { m.fits.Inc() }

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(host, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(host).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	m.httpErrors.WithLabelValues(host).Inc()
}
