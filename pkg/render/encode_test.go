package render

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/matzehuels/hopgraph/pkg/errors"
	"github.com/matzehuels/hopgraph/pkg/graph"
	"github.com/matzehuels/hopgraph/pkg/scene"
)

func sampleScene() scene.Scene {
	return scene.Scene{
		Width: 100, Height: 100, Viewport: scene.Viewport{Scale: 1, TranslateX: 50, TranslateY: 50},
		Nodes: []scene.Node{
			{ID: "A", Kind: graph.KindAnchor, X: -10, Radius: 7, Color: "#11939A", Opacity: 1, ShowLabel: true},
			{ID: "B", Kind: graph.KindAnchor, X: 10, Radius: 7, Color: "#11939A", Opacity: 1, ShowLabel: true},
		},
		Edges: []scene.Edge{{Source: "A", Target: "B", Color: "#ffa39e", Width: 1}},
	}
}

func TestEncode(t *testing.T) {
	ctx := context.Background()

	out, err := Encode(ctx, sampleScene(), FormatSVG, Options{Title: "t"})
	if err != nil || !strings.HasPrefix(string(out), "<svg") {
		t.Errorf("svg = %.60s, %v", out, err)
	}

	out, err = Encode(ctx, sampleScene(), FormatDOT, Options{})
	if err != nil || !strings.HasPrefix(string(out), "digraph") {
		t.Errorf("dot = %.60s, %v", out, err)
	}

	out, err = Encode(ctx, sampleScene(), FormatJSON, Options{})
	if err != nil {
		t.Fatal(err)
	}
	var back scene.Scene
	if err := json.Unmarshal(out, &back); err != nil || len(back.Nodes) != 2 {
		t.Errorf("json round trip = %+v, %v", back, err)
	}

	_, err = Encode(ctx, sampleScene(), Format("pdf"), Options{})
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown format code = %v", errors.GetCode(err))
	}
}
