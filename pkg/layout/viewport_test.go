package layout

import (
	"math"
	"testing"
)

const tol = 1e-9

func TestFitViewportFramesAllNodes(t *testing.T) {
	sizes := []struct{ w, h, margin float64 }{
		{800, 600, 20},
		{300, 900, 10},
		{1920, 1080, 0},
		{50, 40, 30},
	}
	e := New(DefaultConfig(), quietLogger())
	g := meshGraph(15)
	e.Install(g)
	e.Run()

	for _, sz := range sizes {
		vp := e.FitViewport(sz.w, sz.h, sz.margin)
		left, top := math.Inf(1), math.Inf(1)
		right, bottom := math.Inf(-1), math.Inf(-1)
		for _, n := range g.Nodes() {
			p, _ := e.Position(n.ID)
			x0, y0 := vp.Apply(p.X-n.Radius, p.Y-n.Radius)
			x1, y1 := vp.Apply(p.X+n.Radius, p.Y+n.Radius)
			left, top = min(left, x0), min(top, y0)
			right, bottom = max(right, x1), max(bottom, y1)
		}

		availW := max(sz.w-2*sz.margin, 1)
		availH := max(sz.h-2*sz.margin, 1)
		if right-left > availW+tol || bottom-top > availH+tol {
			t.Errorf("%vx%v: fitted box %vx%v exceeds %vx%v", sz.w, sz.h, right-left, bottom-top, availW, availH)
		}
		if sz.w-2*sz.margin >= 1 && (left < sz.margin-tol || right > sz.w-sz.margin+tol) {
			t.Errorf("%vx%v: x extent [%v, %v] outside margins", sz.w, sz.h, left, right)
		}
		if sz.h-2*sz.margin >= 1 && (top < sz.margin-tol || bottom > sz.h-sz.margin+tol) {
			t.Errorf("%vx%v: y extent [%v, %v] outside margins", sz.w, sz.h, top, bottom)
		}
		if math.Abs((left+right)/2-sz.w/2) > 1e-6 || math.Abs((top+bottom)/2-sz.h/2) > 1e-6 {
			t.Errorf("%vx%v: box not centered", sz.w, sz.h)
		}
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name      string
		b         Bounds
		wantScale float64
	}{
		{"wide", Bounds{-100, -10, 100, 10}, 3.8},
		{"tall", Bounds{-10, -50, 10, 50}, 5.6},
		{"point", Bounds{5, 5, 5, 5}, 8},
		{"tiny", Bounds{0, 0, 1, 1}, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp := Fit(tt.b, 800, 600, 20, 8)
			if math.Abs(vp.Scale-tt.wantScale) > tol {
				t.Errorf("scale = %v, want %v", vp.Scale, tt.wantScale)
			}
			cx, cy := vp.Apply((tt.b.MinX+tt.b.MaxX)/2, (tt.b.MinY+tt.b.MaxY)/2)
			if math.Abs(cx-400) > tol || math.Abs(cy-300) > tol {
				t.Errorf("center maps to (%v, %v), want (400, 300)", cx, cy)
			}
		})
	}
}

func TestBoundsUnion(t *testing.T) {
	b := Bounds{0, 0, 1, 1}.Union(Bounds{-2, 0.5, 0.5, 3})
	want := Bounds{-2, 0, 1, 3}
	if b != want {
		t.Errorf("Union = %+v, want %+v", b, want)
	}
	if b.Width() != 3 || b.Height() != 3 {
		t.Errorf("size = %vx%v", b.Width(), b.Height())
	}
}
