// Package observability provides hooks for metrics and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about graph builds, layout progress, selection changes, cache
// operations and run-source fetches.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, which avoids import cycles.
// [Metrics] is the Prometheus-backed implementation used by `hopgraph serve`.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    m := observability.NewMetrics(prometheus.DefaultRegisterer)
//	    observability.SetLayoutHooks(m)
//	    observability.SetSelectionHooks(m)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Layout().OnInstall(generation, nodeCount, edgeCount)
//	// ... tick until settled ...
//	observability.Layout().OnSettle(generation, ticks, reason, elapsed)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Layout Hooks
// =============================================================================

// LayoutHooks receives events from graph building and the layout engine.
// Layout events fire from the single goroutine that owns the engine.
type LayoutHooks interface {
	// OnBuild records a graph rebuild from a run list.
	OnBuild(runs, skipped, nodes, edges int, duration time.Duration)

	// OnInstall records a graph installed into the engine under a new generation.
	OnInstall(generation uint64, nodes, edges int)

	// OnSettle records the end of a simulation. Reason is one of
	// "budget", "alpha", "energy" or "cooldown".
	OnSettle(generation uint64, ticks int, reason string, elapsed time.Duration)

	// OnStaleTick records a tick dropped because its generation was superseded.
	OnStaleTick(generation uint64)
}

// =============================================================================
// Selection Hooks
// =============================================================================

// SelectionHooks receives events from selection changes and viewport fits.
type SelectionHooks interface {
	// OnSelect records a selection change. A negative runID means none.
	// Dangling reports a selection that matches no run in the graph.
	OnSelect(runID int, dangling bool)

	// OnFit records a viewport fit.
	OnFit(width, height, scale float64)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLayoutHooks is a no-op implementation of LayoutHooks.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnBuild(int, int, int, int, time.Duration)   {}
func (NoopLayoutHooks) OnInstall(uint64, int, int)                  {}
func (NoopLayoutHooks) OnSettle(uint64, int, string, time.Duration) {}
func (NoopLayoutHooks) OnStaleTick(uint64)                          {}

// NoopSelectionHooks is a no-op implementation of SelectionHooks.
type NoopSelectionHooks struct{}

func (NoopSelectionHooks) OnSelect(int, bool)              {}
func (NoopSelectionHooks) OnFit(float64, float64, float64) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	layoutHooks    LayoutHooks    = NoopLayoutHooks{}
	selectionHooks SelectionHooks = NoopSelectionHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	httpHooks      HTTPHooks      = NoopHTTPHooks{}
	hooksMu        sync.RWMutex
)

// SetLayoutHooks registers custom layout hooks.
// This should be called once at application startup before any layout runs.
func SetLayoutHooks(h LayoutHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		layoutHooks = h
	}
}

// SetSelectionHooks registers custom selection hooks.
func SetSelectionHooks(h SelectionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		selectionHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Selection returns the registered selection hooks.
func Selection() SelectionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return selectionHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = NoopLayoutHooks{}
	selectionHooks = NoopSelectionHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
