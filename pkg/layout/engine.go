// Package layout runs the force-directed simulation that places the nodes
// of an article graph.
//
// An [Engine] owns the simulation state for one installed graph at a time.
// Callers drive it with [Engine.Tick] from their own clock (a frame ticker,
// a terminal UI tick, or a headless loop); every tick is a bounded unit of
// work. Each tick computes all forces from the positions of the previous
// tick, then integrates the free (transit) nodes. Anchors stay at their
// ring positions but still repel and collide with everything else.
//
// Installing a new graph bumps the engine generation. Ticks tagged with an
// older generation are dropped by [Engine.TickGeneration], so a frame
// scheduled for a superseded graph never writes into the new layout.
//
// An Engine is not safe for concurrent use; it is owned by one goroutine.
package layout

import (
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hopgraph/pkg/graph"
	"github.com/matzehuels/hopgraph/pkg/observability"
	"github.com/matzehuels/hopgraph/pkg/scene"
)

// SettleReason tells why a simulation stopped.
type SettleReason string

// Settle reasons.
const (
	ReasonNone      SettleReason = ""
	ReasonStatic    SettleReason = "static"    // nothing to move
	ReasonBudget    SettleReason = "budget"    // tick budget reached
	ReasonAlpha     SettleReason = "alpha"     // cooled below AlphaMin
	ReasonEnergy    SettleReason = "energy"    // kinetic energy stayed low
	ReasonCooldown  SettleReason = "cooldown"  // simulated time elapsed
	ReasonCancelled SettleReason = "cancelled" // stopped by Cancel
)

// maxStep bounds how many frames a single long tick may integrate.
const maxStep = 2.0

// phyllotaxis angle, π(3-√5).
var initialAngle = math.Pi * (3 - math.Sqrt(5))

type body struct {
	id     string
	x, y   float64
	vx, vy float64
	radius float64
	pinned bool
}

type link struct{ source, target int }

// state is the simulation state of one installed graph.
type state struct {
	bodies []body
	index  map[string]int
	links  []link

	// Frozen snapshot and force accumulators, reused across ticks.
	px, py []float64
	ax, ay []float64

	free    int
	tick    int
	alpha   float64
	elapsed time.Duration
	frames  float64
	energy  float64
	stable  int
	settled bool
	reason  SettleReason
}

// Stats describes the current simulation.
type Stats struct {
	Generation uint64        `json:"generation"`
	Nodes      int           `json:"nodes"`
	Free       int           `json:"free"`
	Links      int           `json:"links"`
	Tick       int           `json:"tick"`
	Alpha      float64       `json:"alpha"`
	Energy     float64       `json:"energy"`
	Elapsed    time.Duration `json:"elapsed"`
	Settled    bool          `json:"settled"`
	Reason     SettleReason  `json:"reason,omitempty"`
}

// Engine is the force-directed layout engine.
type Engine struct {
	cfg    Config
	decay  float64
	logger *log.Logger
	gen    uint64
	st     *state
}

// New creates an engine with cfg. A nil logger uses log.Default().
// Zero-valued configs are replaced with [DefaultConfig].
func New(cfg Config, logger *log.Logger) *Engine {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{cfg: cfg, decay: cfg.alphaDecay(), logger: logger, st: &state{settled: true}}
}

// Config returns the engine parameters.
func (e *Engine) Config() Config { return e.cfg }

// Generation returns the generation of the installed graph. It starts at 0
// and increases with every Install.
func (e *Engine) Generation() uint64 { return e.gen }

// Install replaces the simulation with a fresh one for g and returns the new
// generation. The previous state is discarded before the new one exists, so
// nothing of it leaks into the new layout.
func (e *Engine) Install(g *graph.Graph) uint64 {
	e.st = nil
	e.gen++

	nodes := g.Nodes()
	st := &state{
		bodies: make([]body, len(nodes)),
		index:  make(map[string]int, len(nodes)),
		px:     make([]float64, len(nodes)),
		py:     make([]float64, len(nodes)),
		ax:     make([]float64, len(nodes)),
		ay:     make([]float64, len(nodes)),
		alpha:  1,
	}
	seeded := 0
	for i, n := range nodes {
		b := body{id: n.ID, radius: n.Radius}
		if n.Pinned != nil {
			b.pinned = true
			b.x, b.y = n.Pinned.X, n.Pinned.Y
		} else {
			r := e.cfg.InitialRadius * math.Sqrt(0.5+float64(seeded))
			a := float64(seeded) * initialAngle
			b.x, b.y = r*math.Cos(a), r*math.Sin(a)
			seeded++
		}
		st.bodies[i] = b
		st.index[n.ID] = i
	}
	st.free = seeded
	for _, edge := range g.Edges() {
		if edge.SelfLoop() {
			continue
		}
		st.links = append(st.links, link{source: st.index[edge.Source], target: st.index[edge.Target]})
	}
	if st.free == 0 {
		st.settled = true
		st.reason = ReasonStatic
	}
	e.st = st

	e.logger.Debug("layout installed", "generation", e.gen, "nodes", len(st.bodies), "free", st.free, "links", len(st.links))
	observability.Layout().OnInstall(e.gen, len(st.bodies), g.EdgeCount())
	if st.settled {
		observability.Layout().OnSettle(e.gen, 0, string(st.reason), 0)
	}
	return e.gen
}

// Cancel stops the current simulation where it is. Positions stay readable;
// further ticks are no-ops until the next Install.
func (e *Engine) Cancel() {
	if e.st.settled {
		return
	}
	e.finish(ReasonCancelled)
}

// Settled reports whether the simulation has stopped.
func (e *Engine) Settled() bool { return e.st.settled }

// Reason returns why the simulation stopped, or ReasonNone while running.
func (e *Engine) Reason() SettleReason { return e.st.reason }

// TickGeneration advances the simulation like [Engine.Tick] if gen is the
// current generation. Ticks for any other generation are dropped.
func (e *Engine) TickGeneration(gen uint64, dt time.Duration) bool {
	if gen != e.gen {
		e.logger.Debug("stale tick dropped", "tick_generation", gen, "generation", e.gen)
		observability.Layout().OnStaleTick(gen)
		return false
	}
	return e.Tick(dt)
}

// Tick advances the simulation by dt and reports whether positions changed.
// A dt of zero or less advances by one frame. Ticks after settling are
// no-ops.
func (e *Engine) Tick(dt time.Duration) bool {
	st := e.st
	if st.settled {
		return false
	}
	if dt <= 0 {
		dt = e.cfg.FrameDuration
	}
	h := min(float64(dt)/float64(e.cfg.FrameDuration), maxStep)

	for i := range st.bodies {
		st.px[i], st.py[i] = st.bodies[i].x, st.bodies[i].y
		st.ax[i], st.ay[i] = 0, 0
	}
	st.applyLink(&e.cfg, st.alpha)
	st.applyCharge(&e.cfg, st.alpha)
	st.applyRadial(&e.cfg, st.alpha)
	st.applyCollision(&e.cfg)
	st.energy = st.integrate(&e.cfg, h)
	st.center()

	st.tick++
	st.elapsed += dt
	st.frames += float64(dt) / float64(e.cfg.FrameDuration)
	st.alpha += (0 - st.alpha) * e.decay

	if st.energy < e.cfg.EnergyThreshold {
		st.stable++
	} else {
		st.stable = 0
	}
	switch {
	case st.stable >= e.cfg.StableTicks:
		e.finish(ReasonEnergy)
	case st.alpha < e.cfg.AlphaMin:
		e.finish(ReasonAlpha)
	case st.tick >= e.cfg.TickBudget:
		e.finish(ReasonBudget)
	case st.frames >= e.cfg.cooldownFrames()-1e-6:
		e.finish(ReasonCooldown)
	}
	return true
}

// integrate applies the accumulated increments to free bodies and returns
// their total kinetic energy. Non-finite results revert the body to its
// previous position at rest.
func (s *state) integrate(cfg *Config, h float64) float64 {
	keep := 1 - cfg.VelocityDecay
	energy := 0.0
	for i := range s.bodies {
		b := &s.bodies[i]
		if b.pinned {
			continue
		}
		vx := (b.vx + s.ax[i]*h) * keep
		vy := (b.vy + s.ay[i]*h) * keep
		if speed := math.Hypot(vx, vy); speed > cfg.MaxSpeed {
			vx, vy = vx/speed*cfg.MaxSpeed, vy/speed*cfg.MaxSpeed
		}
		x, y := b.x+vx*h, b.y+vy*h
		if !finite(vx) || !finite(vy) || !finite(x) || !finite(y) {
			b.vx, b.vy = 0, 0
			b.x, b.y = s.px[i], s.py[i]
			continue
		}
		b.vx, b.vy, b.x, b.y = vx, vy, x, y
		energy += 0.5 * (vx*vx + vy*vy)
	}
	return energy
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func (e *Engine) finish(reason SettleReason) {
	st := e.st
	st.settled = true
	st.reason = reason
	for i := range st.bodies {
		st.bodies[i].vx, st.bodies[i].vy = 0, 0
	}
	e.logger.Debug("layout settled", "generation", e.gen, "reason", reason, "ticks", st.tick, "alpha", st.alpha)
	observability.Layout().OnSettle(e.gen, st.tick, string(reason), st.elapsed)
}

// Positions returns a copy of the current node positions keyed by node id.
func (e *Engine) Positions() map[string]graph.Point {
	out := make(map[string]graph.Point, len(e.st.bodies))
	for _, b := range e.st.bodies {
		out[b.id] = graph.Point{X: b.x, Y: b.y}
	}
	return out
}

// Position returns the current position of one node.
func (e *Engine) Position(id string) (graph.Point, bool) {
	i, ok := e.st.index[id]
	if !ok {
		return graph.Point{}, false
	}
	b := e.st.bodies[i]
	return graph.Point{X: b.x, Y: b.y}, true
}

// Bounds returns the bounding box of all nodes, inflated by their radii.
func (e *Engine) Bounds() Bounds {
	var b Bounds
	for i, n := range e.st.bodies {
		nb := Bounds{MinX: n.x - n.radius, MinY: n.y - n.radius, MaxX: n.x + n.radius, MaxY: n.y + n.radius}
		if i == 0 {
			b = nb
			continue
		}
		b = b.Union(nb)
	}
	return b
}

// FitViewport frames every node, inflated by its radius, inside a
// width×height container with margin on each side.
func (e *Engine) FitViewport(width, height, margin float64) scene.Viewport {
	if len(e.st.bodies) == 0 {
		return scene.Viewport{Scale: 1, TranslateX: width / 2, TranslateY: height / 2}
	}
	vp := Fit(e.Bounds(), width, height, margin, e.cfg.MaxScale)
	observability.Selection().OnFit(width, height, vp.Scale)
	return vp
}

// Stats returns a snapshot of the simulation counters.
func (e *Engine) Stats() Stats {
	st := e.st
	return Stats{
		Generation: e.gen,
		Nodes:      len(st.bodies),
		Free:       st.free,
		Links:      len(st.links),
		Tick:       st.tick,
		Alpha:      st.alpha,
		Energy:     st.energy,
		Elapsed:    st.elapsed,
		Settled:    st.settled,
		Reason:     st.reason,
	}
}

// Run ticks until the simulation settles, one frame per tick, and returns
// the number of ticks taken. It is the headless driver used by the CLI.
func (e *Engine) Run() int {
	start := e.st.tick
	for e.Tick(e.cfg.FrameDuration) {
	}
	return e.st.tick - start
}
