package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/matzehuels/hopgraph/pkg/errors"
)

// wireGraph is the JSON form of a Graph.
type wireGraph struct {
	Runs  int     `json:"runs"`
	Nodes []*Node `json:"nodes"`
	Edges []Edge  `json:"edges"`
}

// Marshal serializes g as indented JSON.
func Marshal(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes g as JSON to w.
func Write(g *Graph, w io.Writer) error {
	out := wireGraph{Runs: g.RunCount(), Nodes: g.Nodes(), Edges: g.Edges()}
	if out.Nodes == nil {
		out.Nodes = []*Node{}
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes g to a JSON file.
func WriteFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(g, f)
}

// Unmarshal decodes a graph from JSON and checks its structure: unique node
// ids, anchors listed before transit nodes, and edges between known nodes.
func Unmarshal(data []byte) (*Graph, error) {
	return Read(bytes.NewReader(data))
}

// Read decodes a graph from r. See [Unmarshal].
func Read(r io.Reader) (*Graph, error) {
	var in wireGraph
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph")
	}

	g := newGraph()
	g.runs = in.Runs
	for _, n := range in.Nodes {
		if n == nil || n.ID == "" {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "node without id")
		}
		if _, dup := g.index[n.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "duplicate node %q", n.ID)
		}
		switch n.Kind {
		case KindAnchor:
			if g.anchors != len(g.nodes) {
				return nil, errors.New(errors.ErrCodeInvalidFormat, "anchor %q listed after transit nodes", n.ID)
			}
			g.anchors++
		case KindTransit:
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "node %q has unknown kind %q", n.ID, n.Kind)
		}
		if n.MemberRuns == nil {
			n.MemberRuns = []int{}
		}
		slices.Sort(n.MemberRuns)
		n.MemberRuns = slices.Compact(n.MemberRuns)
		g.index[n.ID] = len(g.nodes)
		g.nodes = append(g.nodes, n)
	}
	for _, e := range in.Edges {
		if _, ok := g.index[e.Source]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "edge from unknown node %q", e.Source)
		}
		if _, ok := g.index[e.Target]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "edge to unknown node %q", e.Target)
		}
		g.edges = append(g.edges, e)
	}
	return g, nil
}

// ReadFile reads a graph from a JSON file.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "graph file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
