// Package svg writes a scene as a standalone SVG document.
//
// Everything is drawn inside one group carrying the scene viewport, so the
// output matches what an interactive view shows at that zoom. Edges of the
// selected run are drawn last with an arrow marker; nodes go on top of all
// edges and labels on top of nodes.
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"

	"github.com/matzehuels/hopgraph/pkg/scene"
)

const interactionCSS = `
    .edge { transition: stroke-opacity 0.2s ease; }
    svg.hovering .edge { stroke-opacity: 0.15; }
    svg.hovering .edge.hover { stroke-opacity: 1; }
    .node { cursor: pointer; }`

const interactionJS = `
    const root = document.currentScript.closest('svg');
    function hoverRun(run) {
      root.classList.toggle('hovering', run !== null);
      root.querySelectorAll('.edge').forEach(e => e.classList.toggle('hover', e.dataset.run === run));
    }
    root.querySelectorAll('.edge').forEach(el => {
      el.addEventListener('mouseenter', () => hoverRun(el.dataset.run));
      el.addEventListener('mouseleave', () => hoverRun(null));
    });`

// Option configures rendering.
type Option func(*renderer)

type renderer struct {
	background  string
	labels      bool
	fontSize    float64
	interactive bool
	title       string
}

// WithBackground fills the canvas with color.
func WithBackground(color string) Option { return func(r *renderer) { r.background = color } }

// WithoutLabels hides node labels.
func WithoutLabels() Option { return func(r *renderer) { r.labels = false } }

// WithFontSize sets the label size in layout units.
func WithFontSize(size float64) Option { return func(r *renderer) { r.fontSize = size } }

// WithInteraction embeds CSS and script that fade every run but the hovered one.
func WithInteraction() Option { return func(r *renderer) { r.interactive = true } }

// WithTitle sets the document title.
func WithTitle(title string) Option { return func(r *renderer) { r.title = title } }

// Render writes s as SVG sized to the scene container.
func Render(s scene.Scene, opts ...Option) []byte {
	r := renderer{labels: true, fontSize: 8}
	for _, opt := range opts {
		opt(&r)
	}

	w, h := s.Width, s.Height
	if w <= 0 || h <= 0 {
		w, h = 800, 600
	}
	vp := s.Viewport
	if vp.Scale <= 0 {
		vp = scene.Identity
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%.0f" height="%.0f">`+"\n",
		num(w), num(h), w, h)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escape(r.title))
	}
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", escape(r.background))
	}
	renderDefs(&buf, s)

	fmt.Fprintf(&buf, `  <g transform="translate(%s %s) scale(%s)">`+"\n",
		num(vp.TranslateX), num(vp.TranslateY), num(vp.Scale))

	idx := s.NodeIndex()
	for _, emphasized := range []bool{false, true} {
		for _, e := range s.Edges {
			if e.Emphasized == emphasized {
				renderEdge(&buf, s, idx, e)
			}
		}
	}
	for _, n := range s.Nodes {
		renderNode(&buf, n)
	}
	if r.labels {
		for _, n := range s.Nodes {
			if n.ShowLabel {
				renderLabel(&buf, n, r.fontSize)
			}
		}
	}
	buf.WriteString("  </g>\n")

	if r.interactive {
		fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", interactionCSS)
		fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", interactionJS)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderDefs(buf *bytes.Buffer, s scene.Scene) {
	color := ""
	for _, e := range s.Edges {
		if e.Flow {
			color = e.Color
			break
		}
	}
	if color == "" {
		return
	}
	buf.WriteString("  <defs>\n")
	fmt.Fprintf(buf, `    <marker id="flow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="4" markerHeight="4" orient="auto-start-reverse">`+
		`<path d="M0,0 L10,5 L0,10 z" fill="%s"/></marker>`+"\n", escape(color))
	buf.WriteString("  </defs>\n")
}

func renderEdge(buf *bytes.Buffer, s scene.Scene, idx map[string]int, e scene.Edge) {
	if e.Source == e.Target {
		return
	}
	si, ok1 := idx[e.Source]
	ti, ok2 := idx[e.Target]
	if !ok1 || !ok2 {
		return
	}
	src, dst := s.Nodes[si], s.Nodes[ti]

	x2, y2 := dst.X, dst.Y
	if e.Flow {
		x2, y2 = shorten(src.X, src.Y, dst.X, dst.Y, dst.Radius)
	}
	fmt.Fprintf(buf, `    <line class="edge" data-run="%d" x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s" stroke-linecap="round"`,
		e.RunID, num(src.X), num(src.Y), num(x2), num(y2), escape(e.Color), num(e.Width))
	if e.Flow {
		buf.WriteString(` marker-end="url(#flow)"`)
	}
	buf.WriteString("/>\n")
}

func renderNode(buf *bytes.Buffer, n scene.Node) {
	fmt.Fprintf(buf, `    <circle class="node %s" cx="%s" cy="%s" r="%s" fill="%s" fill-opacity="%s"`,
		n.Kind, num(n.X), num(n.Y), num(n.Radius), escape(n.Color), num(n.Opacity))
	if n.Emphasized {
		fmt.Fprintf(buf, ` stroke="%s" stroke-width="1"`, escape(n.Color))
	}
	fmt.Fprintf(buf, "><title>%s</title></circle>\n", escape(n.ID))
}

func renderLabel(buf *bytes.Buffer, n scene.Node, size float64) {
	fmt.Fprintf(buf, `    <text x="%s" y="%s" font-family="sans-serif" font-size="%s" text-anchor="middle" fill="#333">%s</text>`+"\n",
		num(n.X), num(n.Y-n.Radius-2), num(size), escape(n.ID))
}

// shorten moves the end of a segment back by r so that a marker stops at the
// rim of the target circle.
func shorten(x1, y1, x2, y2, r float64) (float64, float64) {
	dx, dy := x2-x1, y2-y1
	d := dx*dx + dy*dy
	if d == 0 || r <= 0 {
		return x2, y2
	}
	d = math.Sqrt(d)
	if r >= d {
		return x2, y2
	}
	f := (d - r) / d
	return x1 + dx*f, y1 + dy*f
}

// num formats v with at most two decimals.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
