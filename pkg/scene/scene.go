// Package scene defines the renderer-facing description of one frame: where
// every node and edge goes and how it is styled.
//
// A Scene is plain data. Renderers (the SVG and Graphviz sinks, the terminal
// inspector, HTTP clients) draw it without knowing about runs, graphs or the
// simulation that produced it.
package scene

import "github.com/matzehuels/hopgraph/pkg/graph"

// Scene is one renderable frame.
type Scene struct {
	// Generation identifies the installed graph the frame was derived from.
	Generation uint64 `json:"generation"`
	// Tick is the simulation tick the positions were taken at.
	Tick    int  `json:"tick"`
	Settled bool `json:"settled"`
	// Width and Height are the container size the viewport was fitted to.
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Viewport Viewport `json:"viewport"`
	// Selected is the selected run, or nil.
	Selected *int   `json:"selected,omitempty"`
	Nodes    []Node `json:"nodes"`
	Edges    []Edge `json:"edges"`
}

// Empty reports whether the scene has nothing to draw.
func (s *Scene) Empty() bool { return len(s.Nodes) == 0 }

// Node is a positioned, styled article. X and Y are in layout space; apply
// the scene viewport to get container coordinates.
type Node struct {
	ID         string     `json:"id"`
	Kind       graph.Kind `json:"kind"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Radius     float64    `json:"radius"`
	Color      string     `json:"color"`
	Opacity    float64    `json:"opacity"`
	ShowLabel  bool       `json:"show_label"`
	Emphasized bool       `json:"emphasized"`
	Degree     int        `json:"degree"`
}

// Edge is a styled hop of one run.
type Edge struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	RunID      int     `json:"run_id"`
	Color      string  `json:"color"`
	Width      float64 `json:"width"`
	Emphasized bool    `json:"emphasized"`
	// Flow asks the renderer for a directional flow marker.
	Flow bool `json:"flow"`
}

// Viewport maps layout space into container space:
// screen = layout*Scale + Translate.
type Viewport struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
}

// Identity is the viewport that leaves coordinates unchanged.
var Identity = Viewport{Scale: 1}

// Apply maps a layout-space point to container space.
func (v Viewport) Apply(x, y float64) (float64, float64) {
	return x*v.Scale + v.TranslateX, y*v.Scale + v.TranslateY
}

// Length scales a layout-space length, such as a radius.
func (v Viewport) Length(l float64) float64 { return l * v.Scale }

// NodeIndex returns a lookup from node id to its index in s.Nodes.
func (s *Scene) NodeIndex() map[string]int {
	idx := make(map[string]int, len(s.Nodes))
	for i, n := range s.Nodes {
		idx[n.ID] = i
	}
	return idx
}
