package render

import (
	"slices"
	"strings"

	"github.com/matzehuels/hopgraph/pkg/errors"
)

// Format is an output file format.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatSVG, FormatPNG, FormatDOT, FormatJSON}

// Engine selects the renderer used for SVG output.
type Engine string

const (
	EngineNative   Engine = "native"
	EngineGraphviz Engine = "graphviz"
)

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatDOT:
		return "text/vnd.graphviz"
	default:
		return "application/json"
	}
}

// ParseFormats parses a comma-separated format list such as "svg,png".
// Duplicates are dropped and order is kept.
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		if f == "" {
			continue
		}
		if !slices.Contains(Formats, f) {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown output format %q (want svg, png, dot or json)", f)
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "no output format given")
	}
	return out, nil
}

// ParseEngine parses an engine name. An empty name selects the native engine.
func ParseEngine(s string) (Engine, error) {
	switch e := Engine(strings.ToLower(s)); e {
	case "", EngineNative:
		return EngineNative, nil
	case EngineGraphviz:
		return e, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown render engine %q (want native or graphviz)", s)
	}
}
