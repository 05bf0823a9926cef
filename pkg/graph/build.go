package graph

import (
	"math"

	"github.com/matzehuels/hopgraph/pkg/runs"
)

// Default build options.
const (
	DefaultAnchorRadius      = 150.0
	DefaultAnchorNodeRadius  = 7.0
	DefaultTransitNodeRadius = 4.0
)

// Options configures [Build]. Zero fields take the package defaults.
type Options struct {
	// AnchorRadius is the radius of the anchor ring.
	AnchorRadius float64 `toml:"anchor_radius" json:"anchor_radius"`
	// AnchorNodeRadius and TransitNodeRadius are the drawn node radii, also
	// used by the collision force.
	AnchorNodeRadius  float64 `toml:"anchor_node_radius" json:"anchor_node_radius"`
	TransitNodeRadius float64 `toml:"transit_node_radius" json:"transit_node_radius"`
}

func (o Options) withDefaults() Options {
	if o.AnchorRadius <= 0 {
		o.AnchorRadius = DefaultAnchorRadius
	}
	if o.AnchorNodeRadius <= 0 {
		o.AnchorNodeRadius = DefaultAnchorNodeRadius
	}
	if o.TransitNodeRadius <= 0 {
		o.TransitNodeRadius = DefaultTransitNodeRadius
	}
	return o
}

// Report describes what [Build] did with its input.
type Report struct {
	// Runs is the number of runs given to Build.
	Runs int `json:"runs"`
	// Skipped counts malformed runs that contributed nothing.
	Skipped int `json:"skipped"`
	// SkippedIndexes lists the indexes of the skipped runs.
	SkippedIndexes []int `json:"skipped_indexes,omitempty"`
}

// Used returns the number of runs that made it into the graph.
func (r Report) Used() int { return r.Runs - r.Skipped }

// Build aggregates rs into a graph. Run ids are indexes into rs, including
// skipped runs, so they stay aligned with the input.
//
// Build is deterministic: the same input always yields the same node order,
// edge order and anchor positions.
func Build(rs []runs.Run, opts Options) (*Graph, Report) {
	opts = opts.withDefaults()
	g := newGraph()
	g.runs = len(rs)
	report := Report{Runs: len(rs)}

	valid := make([]bool, len(rs))
	for i, r := range rs {
		if !r.Valid() {
			report.Skipped++
			report.SkippedIndexes = append(report.SkippedIndexes, i)
			continue
		}
		valid[i] = true
		for _, id := range []string{r.StartArticle, r.DestinationArticle} {
			g.ensure(id, KindAnchor, opts.AnchorNodeRadius).addRun(i)
		}
	}
	g.anchors = len(g.nodes)

	for i, r := range rs {
		if !valid[i] {
			continue
		}
		for j, s := range r.Steps {
			n := g.classify(s.Article, opts)
			n.addRun(i)
			if j == 0 {
				continue
			}
			prev := g.nodes[g.index[r.Steps[j-1].Article]]
			prev.Degree++
			n.Degree++
			g.edges = append(g.edges, Edge{Source: prev.ID, Target: n.ID, RunID: i})
		}
	}

	placeAnchors(g.nodes[:g.anchors], opts.AnchorRadius)
	return g, report
}

// classify returns the node for id, creating a transit node when id was not
// seen in pass 1.
func (g *Graph) classify(id string, opts Options) *Node {
	return g.ensure(id, KindTransit, opts.TransitNodeRadius)
}

// AnchorAngle returns the ring angle of anchor i out of n.
func AnchorAngle(i, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(i) * 2 * math.Pi / float64(n)
}

func placeAnchors(anchors []*Node, radius float64) {
	for i, n := range anchors {
		theta := AnchorAngle(i, len(anchors))
		p := Point{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)}
		n.Position = p
		pinned := p
		n.Pinned = &pinned
	}
}
