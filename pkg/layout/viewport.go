package layout

import "github.com/matzehuels/hopgraph/pkg/scene"

// Bounds is an axis-aligned box in layout space.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Union returns the smallest box containing b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		MinX: min(b.MinX, o.MinX),
		MinY: min(b.MinY, o.MinY),
		MaxX: max(b.MaxX, o.MaxX),
		MaxY: max(b.MaxY, o.MaxY),
	}
}

// Fit returns the viewport that centers b in a width×height container and
// scales it to fit inside the margins, never zooming past maxScale.
// A container smaller than its margins is treated as one unit wide.
func Fit(b Bounds, width, height, margin, maxScale float64) scene.Viewport {
	availW := max(width-2*margin, 1)
	availH := max(height-2*margin, 1)

	scale := maxScale
	if bw := b.Width(); bw > 0 {
		scale = min(scale, availW/bw)
	}
	if bh := b.Height(); bh > 0 {
		scale = min(scale, availH/bh)
	}

	cx := (b.MinX + b.MaxX) / 2
	cy := (b.MinY + b.MaxY) / 2
	return scene.Viewport{
		Scale:      scale,
		TranslateX: width/2 - scale*cx,
		TranslateY: height/2 - scale*cy,
	}
}
