package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	l := NoopLayoutHooks{}
	l.OnBuild(10, 1, 20, 30, time.Millisecond)
	l.OnInstall(1, 20, 30)
	l.OnSettle(1, 120, "energy", time.Second)
	l.OnStaleTick(1)

	s := NoopSelectionHooks{}
	s.OnSelect(0, false)
	s.OnFit(800, 600, 1.5)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "runs")
	c.OnCacheMiss(ctx, "runs")
	c.OnCacheSet(ctx, "runs", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "example.com", "/runs.json")
	h.OnResponse(ctx, "GET", "example.com", "/runs.json", 200, time.Second)
	h.OnError(ctx, "GET", "example.com", "/runs.json", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Layout().(NoopLayoutHooks); !ok {
		t.Error("Layout() should return NoopLayoutHooks by default")
	}
	if _, ok := Selection().(NoopSelectionHooks); !ok {
		t.Error("Selection() should return NoopSelectionHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	m := NewMetrics(prometheus.NewRegistry())
	m.Register()
	if Layout() != LayoutHooks(m) {
		t.Error("Register should install layout hooks")
	}
	if Selection() != SelectionHooks(m) {
		t.Error("Register should install selection hooks")
	}

	SetLayoutHooks(nil)
	if Layout() != LayoutHooks(m) {
		t.Error("SetLayoutHooks(nil) should keep current hooks")
	}

	Reset()
	if _, ok := Layout().(NoopLayoutHooks); !ok {
		t.Error("Reset should restore NoopLayoutHooks")
	}
}

func TestMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.OnBuild(5, 2, 12, 20, time.Millisecond)
	m.OnBuild(5, 1, 12, 20, time.Millisecond)
	m.OnInstall(3, 12, 20)
	m.OnSettle(3, 140, "energy", time.Second)
	m.OnStaleTick(2)
	m.OnSelect(1, false)
	m.OnSelect(-1, false)
	m.OnSelect(9, true)
	m.OnCacheSet(context.Background(), "runs", 512)

	if got := testutil.ToFloat64(m.builds); got != 2 {
		t.Errorf("builds = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.skippedRuns); got != 3 {
		t.Errorf("skipped = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.generation); got != 3 {
		t.Errorf("generation = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.settles.WithLabelValues("energy")); got != 1 {
		t.Errorf("settles{energy} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.staleTicks); got != 1 {
		t.Errorf("stale = %v, want 1", got)
	}
	for _, kind := range []string{"run", "none", "dangling"} {
		if got := testutil.ToFloat64(m.selections.WithLabelValues(kind)); got != 1 {
			t.Errorf("selections{%s} = %v, want 1", kind, got)
		}
	}
	if got := testutil.ToFloat64(m.cacheBytes); got != 512 {
		t.Errorf("cache bytes = %v, want 512", got)
	}

	expected := `
# HELP hopgraph_layout_stale_ticks_total Ticks dropped because their generation was superseded
# TYPE hopgraph_layout_stale_ticks_total counter
hopgraph_layout_stale_ticks_total 1
`
	if err := testutil.CollectAndCompare(m.staleTicks, strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
}
