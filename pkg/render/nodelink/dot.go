package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/hopgraph/pkg/graph"
	"github.com/matzehuels/hopgraph/pkg/scene"
)

// Options configures DOT generation.
type Options struct {
	// HideLabels drops the labels the scene asks for.
	HideLabels bool
	// MaxPenWidth caps the width of merged edges. Zero means 6.
	MaxPenWidth float64
}

const pointsPerInch = 72

// ToDOT converts a scene to Graphviz DOT with pinned node positions.
// Coordinates are container coordinates with the y axis flipped, since
// Graphviz puts the origin at the bottom left.
func ToDOT(s scene.Scene, opts Options) string {
	maxPen := opts.MaxPenWidth
	if maxPen <= 0 {
		maxPen = 6
	}
	vp := s.Viewport
	if vp.Scale <= 0 {
		vp = scene.Identity
	}
	height := s.Height

	var buf bytes.Buffer
	buf.WriteString("digraph hops {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  notranslate=true;\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	if s.Width > 0 && height > 0 {
		fmt.Fprintf(&buf, "  bb=\"0,0,%s,%s\";\n", num(s.Width), num(height))
	}
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=true, label=\"\", penwidth=0, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [arrowhead=none];\n\n")

	for _, n := range s.Nodes {
		x, y := vp.Apply(n.X, n.Y)
		diameter := 2 * vp.Length(n.Radius) / pointsPerInch
		attrs := []string{
			fmt.Sprintf("pos=\"%s,%s!\"", num(x), num(height-y)),
			fmt.Sprintf("width=%s", num(diameter)),
			fmt.Sprintf("fillcolor=%q", withAlpha(n.Color, n.Opacity)),
			fmt.Sprintf("tooltip=%q", n.ID),
		}
		if n.ShowLabel && !opts.HideLabels {
			attrs = append(attrs, fmt.Sprintf("xlabel=%q", n.ID))
		}
		if n.Emphasized {
			attrs = append(attrs, "penwidth=1", fmt.Sprintf("color=%q", n.Color))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}
	buf.WriteString("\n")

	plain, emphasized, style := splitEdges(s.Edges)
	for _, e := range graph.MergeEdges(plain) {
		st := style[hop{e.Source, e.Target, false}]
		pen := min(st.Width*math.Sqrt(float64(e.Weight())), maxPen)
		fmt.Fprintf(&buf, "  %q -> %q [color=%q, penwidth=%s, weight=%d];\n",
			e.Source, e.Target, st.Color, num(pen), e.Weight())
	}
	for _, e := range emphasized {
		st := style[hop{e.Source, e.Target, true}]
		fmt.Fprintf(&buf, "  %q -> %q [color=%q, penwidth=%s, arrowhead=normal, arrowsize=0.6];\n",
			e.Source, e.Target, st.Color, num(st.Width))
	}

	buf.WriteString("}\n")
	return buf.String()
}

type hop struct {
	source, target string
	emphasized     bool
}

func splitEdges(edges []scene.Edge) (plain, emphasized []graph.Edge, style map[hop]scene.Edge) {
	style = make(map[hop]scene.Edge)
	for _, e := range edges {
		if e.Source == e.Target {
			continue
		}
		ge := graph.Edge{Source: e.Source, Target: e.Target, RunID: e.RunID}
		k := hop{e.Source, e.Target, e.Emphasized}
		if _, ok := style[k]; !ok {
			style[k] = e
		}
		if e.Emphasized {
			emphasized = append(emphasized, ge)
		} else {
			plain = append(plain, ge)
		}
	}
	return plain, emphasized, style
}

// withAlpha appends an alpha channel to a #rgb or #rrggbb color.
func withAlpha(color string, opacity float64) string {
	hex := strings.TrimPrefix(color, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 || opacity >= 1 {
		return color
	}
	a := int(math.Round(min(max(opacity, 0), 1) * 255))
	return fmt.Sprintf("#%s%02x", hex, a)
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// RenderSVG renders DOT to SVG with the neato engine.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderDOT(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT to PNG with the neato engine.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderDOT(ctx, dot, graphviz.PNG)
}

func renderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one sized
// in pixels.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
