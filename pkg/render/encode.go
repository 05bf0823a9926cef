package render

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/hopgraph/pkg/errors"
	"github.com/matzehuels/hopgraph/pkg/render/nodelink"
	"github.com/matzehuels/hopgraph/pkg/render/svg"
	"github.com/matzehuels/hopgraph/pkg/scene"
)

// Options configures [Encode].
type Options struct {
	Engine      Engine
	Title       string
	Background  string
	HideLabels  bool
	Interactive bool
}

// Encode renders s in format f. SVG uses the selected engine; PNG and DOT
// always go through Graphviz; JSON is the scene itself.
func Encode(ctx context.Context, s scene.Scene, f Format, opts Options) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.MarshalIndent(s, "", "  ")
	case FormatDOT:
		return []byte(nodelink.ToDOT(s, nodelink.Options{HideLabels: opts.HideLabels})), nil
	case FormatPNG:
		return wrap(nodelink.RenderPNG(ctx, nodelink.ToDOT(s, nodelink.Options{HideLabels: opts.HideLabels})))
	case FormatSVG:
		if opts.Engine == EngineGraphviz {
			return wrap(nodelink.RenderSVG(ctx, nodelink.ToDOT(s, nodelink.Options{HideLabels: opts.HideLabels})))
		}
		var svgOpts []svg.Option
		if opts.Title != "" {
			svgOpts = append(svgOpts, svg.WithTitle(opts.Title))
		}
		if opts.Background != "" {
			svgOpts = append(svgOpts, svg.WithBackground(opts.Background))
		}
		if opts.HideLabels {
			svgOpts = append(svgOpts, svg.WithoutLabels())
		}
		if opts.Interactive {
			svgOpts = append(svgOpts, svg.WithInteraction())
		}
		return svg.Render(s, svgOpts...), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown output format %q", f)
	}
}

func wrap(data []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "graphviz")
	}
	return data, nil
}
