// Package nodelink renders scenes through Graphviz.
//
// [ToDOT] writes a scene as DOT for the neato engine with every node pinned
// at its scene position (`pos="x,y!"`, in points). Graphviz therefore draws
// the layout computed by the simulation instead of running its own. Hops
// taken by several runs collapse into one edge whose pen width grows with the
// number of runs; hops of the selected run stay separate, highlighted and
// arrowed.
//
//	dot := nodelink.ToDOT(sc, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// The DOT output is self-contained and renders the same with the Graphviz
// command line tools (`neato -n2 -Tsvg`).
//
// This package uses [github.com/goccy/go-graphviz], which runs Graphviz
// in-process, so no system installation is needed.
package nodelink
