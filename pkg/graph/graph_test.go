package graph

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/hopgraph/pkg/errors"
	"github.com/matzehuels/hopgraph/pkg/runs"
)

func run(start, dest string, articles ...string) runs.Run {
	r := runs.Run{StartArticle: start, DestinationArticle: dest}
	for _, a := range articles {
		r.Steps = append(r.Steps, runs.Step{Article: a})
	}
	return r
}

func twoRuns() []runs.Run {
	return []runs.Run{
		run("X", "Z", "X", "Y", "Z"),
		run("X", "W", "X", "Y", "W"),
	}
}

func TestBuildTwoRuns(t *testing.T) {
	g, report := Build(twoRuns(), Options{})

	if report.Runs != 2 || report.Skipped != 0 {
		t.Errorf("report = %+v", report)
	}

	var anchors []string
	for _, n := range g.Anchors() {
		anchors = append(anchors, n.ID)
	}
	if want := []string{"X", "Z", "W"}; !slices.Equal(anchors, want) {
		t.Errorf("anchors = %v, want %v", anchors, want)
	}

	y, ok := g.Node("Y")
	if !ok {
		t.Fatal("node Y missing")
	}
	if y.Kind != KindTransit {
		t.Errorf("Y kind = %s, want transit", y.Kind)
	}
	if y.Degree != 4 {
		t.Errorf("degree(Y) = %d, want 4", y.Degree)
	}
	if !slices.Equal(y.MemberRuns, []int{0, 1}) {
		t.Errorf("Y member runs = %v", y.MemberRuns)
	}

	want := []Edge{
		{"X", "Y", 0},
		{"Y", "Z", 0},
		{"X", "Y", 1},
		{"Y", "W", 1},
	}
	if got := g.Edges(); !reflect.DeepEqual(got, want) {
		t.Errorf("edges = %v, want %v", got, want)
	}

	if g.NodeCount() != 4 || g.AnchorCount() != 3 {
		t.Errorf("nodes = %d anchors = %d", g.NodeCount(), g.AnchorCount())
	}
	if g.MaxDegree() != 4 {
		t.Errorf("MaxDegree = %d, want 4", g.MaxDegree())
	}
	if got := g.RunNodes(1); !slices.Equal(got, []string{"X", "W", "Y"}) {
		t.Errorf("RunNodes(1) = %v", got)
	}
}

func TestBuildClassificationIsOrderIndependent(t *testing.T) {
	// B is a hop in the first run and a start in the second.
	rs := []runs.Run{
		run("A", "C", "A", "B", "C"),
		run("B", "D", "B", "D"),
	}
	g, _ := Build(rs, Options{})
	b, _ := g.Node("B")
	if b.Kind != KindAnchor {
		t.Errorf("B kind = %s, want anchor", b.Kind)
	}
	if b.Pinned == nil {
		t.Error("anchor B should be pinned")
	}

	slices.Reverse(rs)
	g2, _ := Build(rs, Options{})
	b2, _ := g2.Node("B")
	if b2.Kind != KindAnchor {
		t.Errorf("reversed: B kind = %s, want anchor", b2.Kind)
	}
}

func TestBuildAnchorRing(t *testing.T) {
	rs := []runs.Run{
		run("A", "B", "A", "B"),
		run("C", "D", "C", "D"),
	}
	g, _ := Build(rs, Options{AnchorRadius: 100})

	anchors := g.Anchors()
	if len(anchors) != 4 {
		t.Fatalf("anchors = %d, want 4", len(anchors))
	}
	for i, n := range anchors {
		theta := float64(i) * math.Pi / 2
		want := Point{X: 100 * math.Cos(theta), Y: 100 * math.Sin(theta)}
		if math.Abs(n.Position.X-want.X) > 1e-9 || math.Abs(n.Position.Y-want.Y) > 1e-9 {
			t.Errorf("anchor %s at %v, want %v", n.ID, n.Position, want)
		}
		if n.Pinned == nil || *n.Pinned != n.Position {
			t.Errorf("anchor %s pinned = %v", n.ID, n.Pinned)
		}
		if n.Radius != DefaultAnchorNodeRadius {
			t.Errorf("anchor radius = %v", n.Radius)
		}
	}
}

func TestBuildEdgeCases(t *testing.T) {
	tests := []struct {
		name        string
		runs        []runs.Run
		wantNodes   int
		wantEdges   int
		wantAnchors int
		wantSkipped []int
	}{
		{name: "empty", runs: nil},
		{
			name:        "single step",
			runs:        []runs.Run{run("A", "B", "A")},
			wantNodes:   2,
			wantAnchors: 2,
		},
		{
			name:        "start equals destination",
			runs:        []runs.Run{run("A", "A", "A")},
			wantNodes:   1,
			wantAnchors: 1,
		},
		{
			name:        "self loop",
			runs:        []runs.Run{run("A", "B", "A", "M", "M", "B")},
			wantNodes:   3,
			wantEdges:   3,
			wantAnchors: 2,
		},
		{
			name: "malformed runs skipped",
			runs: []runs.Run{
				run("", "B", "A", "B"),
				run("A", "B", "A", "B"),
				run("A", "C"),
				run("A", "C", "A", "", "C"),
			},
			wantNodes:   2,
			wantEdges:   1,
			wantAnchors: 2,
			wantSkipped: []int{0, 2, 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, report := Build(tt.runs, Options{})
			if g.NodeCount() != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", g.NodeCount(), tt.wantNodes)
			}
			if g.EdgeCount() != tt.wantEdges {
				t.Errorf("edges = %d, want %d", g.EdgeCount(), tt.wantEdges)
			}
			if g.AnchorCount() != tt.wantAnchors {
				t.Errorf("anchors = %d, want %d", g.AnchorCount(), tt.wantAnchors)
			}
			if !slices.Equal(report.SkippedIndexes, tt.wantSkipped) {
				t.Errorf("skipped = %v, want %v", report.SkippedIndexes, tt.wantSkipped)
			}
			if report.Skipped != len(tt.wantSkipped) {
				t.Errorf("Skipped = %d", report.Skipped)
			}
		})
	}
}

func TestBuildSelfLoopDegree(t *testing.T) {
	g, _ := Build([]runs.Run{run("A", "B", "A", "M", "M", "B")}, Options{})
	m, _ := g.Node("M")
	if m.Degree != 4 {
		t.Errorf("degree(M) = %d, want 4", m.Degree)
	}
	loops := 0
	for _, e := range g.Edges() {
		if e.SelfLoop() {
			loops++
		}
	}
	if loops != 1 {
		t.Errorf("self loops = %d, want 1", loops)
	}
}

func TestBuildDegreeSumsEndpoints(t *testing.T) {
	rs := append(twoRuns(), run("Z", "X", "Z", "Y", "Q", "Y", "X"))
	g, _ := Build(rs, Options{})
	sum := 0
	for _, n := range g.Nodes() {
		sum += n.Degree
	}
	if sum != 2*g.EdgeCount() {
		t.Errorf("degree sum = %d, want %d", sum, 2*g.EdgeCount())
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	a, _ := Build(twoRuns(), Options{})
	b, _ := Build(twoRuns(), Options{})
	da, _ := Marshal(a)
	db, _ := Marshal(b)
	if !bytes.Equal(da, db) {
		t.Error("identical input produced different graphs")
	}
}

func TestMergeEdges(t *testing.T) {
	g, _ := Build(twoRuns(), Options{})
	merged := MergeEdges(g.Edges())
	if len(merged) != 3 {
		t.Fatalf("merged = %d edges, want 3", len(merged))
	}
	if merged[0].Source != "X" || merged[0].Target != "Y" || !slices.Equal(merged[0].RunIDs, []int{0, 1}) {
		t.Errorf("merged[0] = %+v", merged[0])
	}
	if merged[0].Weight() != 2 || merged[1].Weight() != 1 {
		t.Errorf("weights = %d, %d", merged[0].Weight(), merged[1].Weight())
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	g, _ := Build(twoRuns(), Options{})
	data, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.NodeCount() != g.NodeCount() || back.EdgeCount() != g.EdgeCount() || back.AnchorCount() != 3 {
		t.Errorf("round trip lost structure: %d nodes, %d edges", back.NodeCount(), back.EdgeCount())
	}
	if back.RunCount() != 2 {
		t.Errorf("RunCount = %d, want 2", back.RunCount())
	}
	x, _ := back.Node("X")
	if x.Pinned == nil {
		t.Error("pinned position lost")
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"invalid json", `{nodes`},
		{"missing id", `{"nodes":[{"kind":"anchor"}]}`},
		{"duplicate", `{"nodes":[{"id":"A","kind":"anchor"},{"id":"A","kind":"anchor"}]}`},
		{"unknown kind", `{"nodes":[{"id":"A","kind":"hub"}]}`},
		{"anchor after transit", `{"nodes":[{"id":"A","kind":"transit"},{"id":"B","kind":"anchor"}]}`},
		{"dangling edge", `{"nodes":[{"id":"A","kind":"anchor"}],"edges":[{"source":"A","target":"B"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.input))
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("err = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestWriteReadFile(t *testing.T) {
	g, _ := Build(twoRuns(), Options{})
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := WriteFile(g, path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	back, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if back.EdgeCount() != 4 {
		t.Errorf("edges = %d, want 4", back.EdgeCount())
	}

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
	_ = os.Remove(path)
}

func TestNilGraph(t *testing.T) {
	var g *Graph
	if g.NodeCount() != 0 || g.EdgeCount() != 0 || g.MaxDegree() != 0 || g.RunCount() != 0 {
		t.Error("nil graph should be empty")
	}
	if _, ok := g.Node("A"); ok {
		t.Error("nil graph has no nodes")
	}
}
