// Package scheduler coordinates graph rebuilds, layout ticks, selection
// changes and viewport fits.
//
// A [Scheduler] owns one layout engine and is driven by a single goroutine.
// Structural changes ([Scheduler.SetRuns]) rebuild the graph and reinstall
// the engine, but only when the run content actually changed. Selection
// changes ([Scheduler.SetSelectedRun]) only restyle the scene. Resizes are
// debounced and re-fit the viewport once the container stops changing.
//
// [Driver] wraps a Scheduler in its own goroutine with a frame ticker, for
// callers that need to reach it from other goroutines (the HTTP server).
package scheduler

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hopgraph/pkg/graph"
	"github.com/matzehuels/hopgraph/pkg/layout"
	"github.com/matzehuels/hopgraph/pkg/observability"
	"github.com/matzehuels/hopgraph/pkg/runs"
	"github.com/matzehuels/hopgraph/pkg/scene"
	"github.com/matzehuels/hopgraph/pkg/selection"
)

// Defaults for [Options].
const (
	DefaultWidth          = 800.0
	DefaultHeight         = 600.0
	DefaultMargin         = 20.0
	DefaultResizeDebounce = 150 * time.Millisecond
)

// Options configures a Scheduler. Zero fields take defaults.
type Options struct {
	Layout         layout.Config
	Graph          graph.Options
	Theme          selection.Theme
	Width          float64
	Height         float64
	Margin         float64
	ResizeDebounce time.Duration
	Logger         *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Layout == (layout.Config{}) {
		o.Layout = layout.DefaultConfig()
	}
	if o.Theme == (selection.Theme{}) {
		o.Theme = selection.DefaultTheme()
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Margin < 0 {
		o.Margin = 0
	} else if o.Margin == 0 {
		o.Margin = DefaultMargin
	}
	if o.ResizeDebounce <= 0 {
		o.ResizeDebounce = DefaultResizeDebounce
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Scheduler sequences rebuilds, ticks, selection and viewport fits.
// It is not safe for concurrent use.
type Scheduler struct {
	opts   Options
	logger *log.Logger
	engine *layout.Engine

	graph       *graph.Graph
	report      graph.Report
	fingerprint runs.Fingerprint
	loaded      bool

	sel      selection.State
	width    float64
	height   float64
	viewport scene.Viewport

	fitPending bool
	fitDue     time.Time
	lastTick   time.Time

	scene scene.Scene
}

// New creates a scheduler holding an empty graph. Nothing is installed in
// the engine until the first SetRuns, which starts generation 1.
func New(opts Options) *Scheduler {
	opts = opts.withDefaults()
	g, report := graph.Build(nil, opts.Graph)
	s := &Scheduler{
		opts:   opts,
		logger: opts.Logger,
		engine: layout.New(opts.Layout, opts.Logger),
		graph:  g,
		report: report,
		width:  opts.Width,
		height: opts.Height,
	}
	s.fit()
	s.render()
	return s
}

// SetRuns rebuilds the graph from rs and restarts the layout, unless rs has
// the same structure as the runs already installed. It reports whether a
// rebuild happened. A selection that no longer matches a run is kept but
// emphasizes nothing.
func (s *Scheduler) SetRuns(rs []runs.Run) bool {
	fp := runs.FingerprintOf(rs)
	if s.loaded && fp == s.fingerprint {
		s.logger.Debug("runs unchanged, keeping layout", "fingerprint", fp.Short())
		return false
	}

	start := time.Now()
	g, report := graph.Build(rs, s.opts.Graph)
	observability.Layout().OnBuild(report.Runs, report.Skipped, g.NodeCount(), g.EdgeCount(), time.Since(start))
	if report.Skipped > 0 {
		s.logger.Warn("skipped malformed runs", "skipped", report.Skipped, "runs", report.Runs)
	}

	s.fingerprint = fp
	s.loaded = true
	s.install(g, report)
	s.logger.Info("graph rebuilt", "runs", report.Used(), "nodes", g.NodeCount(), "edges", g.EdgeCount(), "generation", s.engine.Generation())
	return true
}

// install swaps in g and restarts the layout under a new generation.
func (s *Scheduler) install(g *graph.Graph, report graph.Report) {
	s.engine.Install(g)
	s.graph = g
	s.report = report
	s.fitPending = false
	s.lastTick = time.Time{}
	s.viewport = s.engine.FitViewport(s.width, s.height, s.opts.Margin)
	s.render()
}

// SetSelectedRun changes the selection and restyles the scene. Positions
// and the layout are untouched.
func (s *Scheduler) SetSelectedRun(id *int) {
	var sel selection.State
	if id != nil {
		sel = selection.Run(*id)
	}
	if sel.Equal(s.sel) {
		return
	}
	s.sel = sel
	runID, ok := sel.Selected()
	if !ok {
		runID = -1
	}
	observability.Selection().OnSelect(runID, sel.Dangling(s.graph))
	s.render()
}

// Selection returns the current selection.
func (s *Scheduler) Selection() selection.State { return s.sel }

// Resize records a new container size and schedules a viewport fit after
// the debounce interval. A later Resize replaces the pending fit.
func (s *Scheduler) Resize(width, height float64, now time.Time) {
	s.width, s.height = width, height
	s.fitPending = true
	s.fitDue = now.Add(s.opts.ResizeDebounce)
}

// Advance performs one frame for generation gen at time now: a layout tick
// while the simulation runs, a viewport fit when it settles, and any resize
// fit that has come due. Frames for a superseded generation are dropped.
// It reports whether the scene changed.
func (s *Scheduler) Advance(gen uint64, now time.Time) bool {
	changed := false
	if !s.engine.Settled() || gen != s.engine.Generation() {
		var dt time.Duration
		if !s.lastTick.IsZero() {
			dt = now.Sub(s.lastTick)
		}
		if s.engine.TickGeneration(gen, dt) {
			s.lastTick = now
			changed = true
			if s.engine.Settled() {
				s.fit()
			}
		}
	}
	if s.fitPending && !now.Before(s.fitDue) {
		s.fitPending = false
		s.fit()
		changed = true
	}
	if changed {
		s.render()
	}
	return changed
}

// Step advances the current generation by one frame.
func (s *Scheduler) Step(now time.Time) bool {
	return s.Advance(s.engine.Generation(), now)
}

func (s *Scheduler) fit() {
	s.viewport = s.engine.FitViewport(s.width, s.height, s.opts.Margin)
}

func (s *Scheduler) render() {
	st := s.engine.Stats()
	s.scene = selection.Render(s.graph, s.engine.Positions(), selection.Frame{
		Generation: st.Generation,
		Tick:       st.Tick,
		Settled:    st.Settled,
		Width:      s.width,
		Height:     s.height,
		Viewport:   s.viewport,
	}, s.sel, s.opts.Theme)
}

// Scene returns the last rendered scene.
func (s *Scheduler) Scene() scene.Scene { return s.scene }

// Settled reports whether the layout has stopped and no fit is pending.
func (s *Scheduler) Settled() bool { return s.engine.Settled() && !s.fitPending }

// Generation returns the current layout generation.
func (s *Scheduler) Generation() uint64 { return s.engine.Generation() }

// Graph returns the installed graph.
func (s *Scheduler) Graph() *graph.Graph { return s.graph }

// Report returns the build report of the installed graph.
func (s *Scheduler) Report() graph.Report { return s.report }

// Fingerprint returns the fingerprint of the installed runs.
func (s *Scheduler) Fingerprint() runs.Fingerprint { return s.fingerprint }

// Stats returns the layout statistics.
func (s *Scheduler) Stats() layout.Stats { return s.engine.Stats() }

// Viewport returns the current viewport.
func (s *Scheduler) Viewport() scene.Viewport { return s.viewport }

// Size returns the container size.
func (s *Scheduler) Size() (width, height float64) { return s.width, s.height }
