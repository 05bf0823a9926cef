package graph

import (
	"math"
	"slices"
)

// Kind classifies a node.
type Kind string

// Node kinds.
const (
	// KindAnchor is a start or destination article of at least one run.
	// Anchors are pinned on the ring.
	KindAnchor Kind = "anchor"
	// KindTransit is an article only ever visited in between.
	KindTransit Kind = "transit"
)

// Point is a position in layout space. The origin is the ring center.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Node is an article in the aggregated graph.
type Node struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
	// MemberRuns holds the indexes of the runs that touch this node, sorted
	// and without duplicates.
	MemberRuns []int `json:"member_runs"`
	// Degree counts edge endpoints touching the node. A self-loop adds 2.
	Degree int `json:"degree"`
	// Position is the initial position: the ring slot for anchors, the
	// origin for transit nodes.
	Position Point `json:"position"`
	// Pinned is set for anchors. Pinned nodes are never integrated.
	Pinned *Point  `json:"pinned,omitempty"`
	Radius float64 `json:"radius"`
}

// IsAnchor reports whether the node is an anchor.
func (n *Node) IsAnchor() bool { return n.Kind == KindAnchor }

// InRun reports whether run id touches this node.
func (n *Node) InRun(id int) bool {
	_, found := slices.BinarySearch(n.MemberRuns, id)
	return found
}

func (n *Node) addRun(id int) {
	n.MemberRuns = insertSorted(n.MemberRuns, id)
}

// insertSorted adds v to the sorted set s.
func insertSorted(s []int, v int) []int {
	i, found := slices.BinarySearch(s, v)
	if found {
		return s
	}
	return slices.Insert(s, i, v)
}

// Edge is one hop of one run, from Source to Target.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	RunID  int    `json:"run_id"`
}

// SelfLoop reports whether the hop stays on the same article.
func (e Edge) SelfLoop() bool { return e.Source == e.Target }

// Graph is the aggregated article graph. The zero value is an empty graph.
//
// Nodes keep a stable order: anchors in enumeration order, then transit
// nodes in first-encounter order. Edges keep run order, then step order.
type Graph struct {
	nodes   []*Node
	index   map[string]int
	edges   []Edge
	anchors int
	runs    int
}

func newGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	if g == nil {
		return nil, false
	}
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return g.nodes[i], true
}

// Nodes returns all nodes in stable order. The returned nodes must not be
// modified.
func (g *Graph) Nodes() []*Node {
	if g == nil {
		return nil
	}
	return slices.Clone(g.nodes)
}

// Anchors returns the anchor nodes in enumeration order.
func (g *Graph) Anchors() []*Node {
	if g == nil {
		return nil
	}
	return slices.Clone(g.nodes[:g.anchors])
}

// Edges returns all edges in run order.
func (g *Graph) Edges() []Edge {
	if g == nil {
		return nil
	}
	return slices.Clone(g.edges)
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	if g == nil {
		return 0
	}
	return len(g.edges)
}

// AnchorCount returns the number of anchors.
func (g *Graph) AnchorCount() int {
	if g == nil {
		return 0
	}
	return g.anchors
}

// RunCount returns the number of runs the graph was built from, including
// skipped ones. Valid run ids are in [0, RunCount).
func (g *Graph) RunCount() int {
	if g == nil {
		return 0
	}
	return g.runs
}

// MaxDegree returns the largest degree of any transit node, or 0 when there
// are none.
func (g *Graph) MaxDegree() int {
	if g == nil {
		return 0
	}
	m := 0
	for _, n := range g.nodes[g.anchors:] {
		m = max(m, n.Degree)
	}
	return m
}

// RunNodes returns the ids of the nodes touched by run id, in stable order.
func (g *Graph) RunNodes(id int) []string {
	if g == nil {
		return nil
	}
	var out []string
	for _, n := range g.nodes {
		if n.InRun(id) {
			out = append(out, n.ID)
		}
	}
	return out
}

func (g *Graph) ensure(id string, kind Kind, radius float64) *Node {
	if i, ok := g.index[id]; ok {
		return g.nodes[i]
	}
	n := &Node{ID: id, Kind: kind, Radius: radius, MemberRuns: []int{}}
	g.index[id] = len(g.nodes)
	g.nodes = append(g.nodes, n)
	return n
}
