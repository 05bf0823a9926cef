// Package selection derives the styled scene for one selection state.
//
// [Render] is a pure function of the graph, the current positions, the
// viewport and the selected run. It never touches the graph or the layout,
// so scrubbing through runs restyles the scene without moving anything.
package selection

import (
	"github.com/matzehuels/hopgraph/pkg/graph"
	"github.com/matzehuels/hopgraph/pkg/scene"
)

// State is the caller-owned selection. A nil RunID selects nothing.
type State struct {
	RunID *int `json:"run_id"`
}

// None is the empty selection.
var None = State{}

// Run selects run id.
func Run(id int) State { return State{RunID: &id} }

// Selected returns the selected run id.
func (s State) Selected() (int, bool) {
	if s.RunID == nil {
		return 0, false
	}
	return *s.RunID, true
}

// Equal reports whether two selections select the same run.
func (s State) Equal(o State) bool {
	a, aok := s.Selected()
	b, bok := o.Selected()
	return aok == bok && a == b
}

// Dangling reports whether s selects a run that has no node in g.
func (s State) Dangling(g *graph.Graph) bool {
	id, ok := s.Selected()
	if !ok {
		return false
	}
	if id < 0 || id >= g.RunCount() {
		return true
	}
	for _, n := range g.Nodes() {
		if n.InRun(id) {
			return false
		}
	}
	return true
}

// Theme holds the colors, opacities and widths used to style a scene.
type Theme struct {
	HighlightColor string  `toml:"highlight_color" json:"highlight_color"`
	AnchorColor    string  `toml:"anchor_color" json:"anchor_color"`
	TransitColor   string  `toml:"transit_color" json:"transit_color"`
	EdgeColor      string  `toml:"edge_color" json:"edge_color"`
	MinOpacity     float64 `toml:"min_opacity" json:"min_opacity"`
	MaxOpacity     float64 `toml:"max_opacity" json:"max_opacity"`
	EdgeWidth      float64 `toml:"edge_width" json:"edge_width"`
	EmphasisWidth  float64 `toml:"emphasis_width" json:"emphasis_width"`
}

// DefaultTheme returns the default palette.
func DefaultTheme() Theme {
	return Theme{
		HighlightColor: "#ff4d4f",
		AnchorColor:    "#11939A",
		TransitColor:   "#47d3d9",
		EdgeColor:      "#ffa39e",
		MinOpacity:     0.3,
		MaxOpacity:     1.0,
		EdgeWidth:      1,
		EmphasisWidth:  3,
	}
}

// Frame carries the layout-side inputs of a render.
type Frame struct {
	Generation uint64
	Tick       int
	Settled    bool
	Width      float64
	Height     float64
	Viewport   scene.Viewport
}

// Render styles every node and edge of g for sel. Positions missing from
// positions fall back to the node's initial position. A dangling selection
// emphasizes nothing.
func Render(g *graph.Graph, positions map[string]graph.Point, frame Frame, sel State, theme Theme) scene.Scene {
	out := scene.Scene{
		Generation: frame.Generation,
		Tick:       frame.Tick,
		Settled:    frame.Settled,
		Width:      frame.Width,
		Height:     frame.Height,
		Viewport:   frame.Viewport,
		Nodes:      make([]scene.Node, 0, g.NodeCount()),
		Edges:      make([]scene.Edge, 0, g.EdgeCount()),
	}
	runID, selected := sel.Selected()
	if selected {
		out.Selected = &runID
	}

	maxDegree := g.MaxDegree()
	for _, n := range g.Nodes() {
		p, ok := positions[n.ID]
		if !ok {
			p = n.Position
		}
		emphasized := selected && n.InRun(runID)
		sn := scene.Node{
			ID:         n.ID,
			Kind:       n.Kind,
			X:          p.X,
			Y:          p.Y,
			Radius:     n.Radius,
			Color:      theme.TransitColor,
			Opacity:    theme.MaxOpacity,
			ShowLabel:  n.IsAnchor() || emphasized,
			Emphasized: emphasized,
			Degree:     n.Degree,
		}
		switch {
		case emphasized:
			sn.Color = theme.HighlightColor
		case n.IsAnchor():
			sn.Color = theme.AnchorColor
		default:
			sn.Opacity = theme.DegreeOpacity(n.Degree, maxDegree)
		}
		out.Nodes = append(out.Nodes, sn)
	}

	for _, e := range g.Edges() {
		emphasized := selected && e.RunID == runID
		se := scene.Edge{
			Source:     e.Source,
			Target:     e.Target,
			RunID:      e.RunID,
			Color:      theme.EdgeColor,
			Width:      theme.EdgeWidth,
			Emphasized: emphasized,
		}
		if emphasized {
			se.Color = theme.HighlightColor
			se.Width = theme.EmphasisWidth
			se.Flow = true
		}
		out.Edges = append(out.Edges, se)
	}
	return out
}

// DegreeOpacity interpolates linearly from MinOpacity at degree 1 to
// MaxOpacity at maxDegree, clamped to that range.
func (t Theme) DegreeOpacity(degree, maxDegree int) float64 {
	if maxDegree <= 1 {
		return t.MinOpacity
	}
	f := float64(degree-1) / float64(maxDegree-1)
	f = min(max(f, 0), 1)
	return t.MinOpacity + f*(t.MaxOpacity-t.MinOpacity)
}
