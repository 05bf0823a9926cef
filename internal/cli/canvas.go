package cli

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/hopgraph/pkg/graph"
	"github.com/matzehuels/hopgraph/pkg/scene"
)

// Terminal cells are about twice as tall as wide, so the canvas treats each
// row as two layout pixels.
const cellAspect = 2

// Draw layers; higher layers overwrite lower ones.
const (
	layerEdge = iota + 1
	layerEmphasizedEdge
	layerNode
	layerLabel
)

type cell struct {
	r     rune
	color string
	layer int
}

// canvas is a character grid for drawing a scene in the terminal.
type canvas struct {
	w, h  int
	cells []cell
}

func newCanvas(w, h int) *canvas {
	w, h = max(w, 1), max(h, 1)
	return &canvas{w: w, h: h, cells: make([]cell, w*h)}
}

func (c *canvas) set(x, y int, r rune, color string, layer int) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	i := y*c.w + x
	if layer < c.cells[i].layer {
		return
	}
	c.cells[i] = cell{r: r, color: color, layer: layer}
}

// line draws a segment with Bresenham's algorithm.
func (c *canvas) line(x0, y0, x1, y1 int, r rune, color string, layer int) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.set(x0, y0, r, color, layer)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (c *canvas) text(x, y int, s, color string, layer int) {
	for i, r := range []rune(s) {
		c.set(x+i, y, r, color, layer)
	}
}

// String renders the grid, styling runs of equally colored cells together.
func (c *canvas) String() string {
	var b strings.Builder
	for y := range c.h {
		row := c.cells[y*c.w : (y+1)*c.w]
		for x := 0; x < len(row); {
			color := row[x].color
			var run strings.Builder
			for ; x < len(row) && row[x].color == color; x++ {
				r := row[x].r
				if r == 0 {
					r = ' '
				}
				run.WriteRune(r)
			}
			if color == "" {
				b.WriteString(run.String())
			} else {
				b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(run.String()))
			}
		}
		if y < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// drawScene draws sc onto a canvas of w×h cells. The scene is expected to be
// fitted to a container of w by h*cellAspect.
func drawScene(sc scene.Scene, w, h int) string {
	c := newCanvas(w, h)
	vp := sc.Viewport
	if vp.Scale <= 0 {
		vp = scene.Identity
	}
	cellOf := func(n scene.Node) (int, int) {
		x, y := vp.Apply(n.X, n.Y)
		return int(math.Round(x)), int(math.Round(y / cellAspect))
	}

	idx := sc.NodeIndex()
	for _, e := range sc.Edges {
		si, ok1 := idx[e.Source]
		ti, ok2 := idx[e.Target]
		if !ok1 || !ok2 || e.Source == e.Target {
			continue
		}
		x0, y0 := cellOf(sc.Nodes[si])
		x1, y1 := cellOf(sc.Nodes[ti])
		if e.Emphasized {
			c.line(x0, y0, x1, y1, '•', e.Color, layerEmphasizedEdge)
		} else {
			c.line(x0, y0, x1, y1, '·', "240", layerEdge)
		}
	}
	for _, n := range sc.Nodes {
		x, y := cellOf(n)
		c.set(x, y, nodeRune(n), n.Color, layerNode)
	}
	for _, n := range sc.Nodes {
		if !n.ShowLabel {
			continue
		}
		x, y := cellOf(n)
		label := n.ID
		if len([]rune(label)) > 24 {
			label = string([]rune(label)[:23]) + "…"
		}
		lx := x + 2
		if lx+len([]rune(label)) > w {
			lx = x - 1 - len([]rune(label))
		}
		color := "250"
		if n.Emphasized {
			color = n.Color
		}
		c.text(lx, y, label, color, layerLabel)
	}
	return c.String()
}

func nodeRune(n scene.Node) rune {
	switch {
	case n.Kind == graph.KindAnchor:
		return '◆'
	case n.Emphasized || n.Opacity >= 0.75:
		return '●'
	case n.Opacity >= 0.5:
		return '•'
	default:
		return '∙'
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
