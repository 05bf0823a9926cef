// Package graph aggregates navigation runs into one shared article graph.
//
// # Building
//
// [Build] merges a run list into a [Graph] in two passes:
//
//  1. Every well-formed run contributes its start and destination article to
//     the anchor set, in first-encounter order (runs in input order, start
//     before destination).
//  2. Every consecutive step pair becomes one [Edge] tagged with the run's
//     index. Articles in the anchor set become [KindAnchor] nodes; all other
//     articles become [KindTransit] nodes.
//
// Classification is fixed by pass 1, so an article that is a start in one run
// and an intermediate hop in another is always an anchor, regardless of the
// order in which runs are listed.
//
// Anchors are pinned on a ring: anchor i of n sits at angle i·2π/n on a circle
// of radius [Options.AnchorRadius]. Transit nodes are left at the origin for
// the layout engine to seed.
//
// Malformed runs (empty start or destination, no steps, or a step without an
// article) are skipped and reported in [Report]; Build never fails.
//
//	g, report := graph.Build(rs, graph.Options{})
//	fmt.Println(g.NodeCount(), g.EdgeCount(), report.Skipped)
//
// # Edges
//
// Edges are kept per run: two runs that take the same hop produce two edges.
// [MergeEdges] collapses them into one [MergedEdge] per directed hop with the
// set of runs that took it, for exporters that draw each hop once.
//
// # Serialization
//
// Graphs use a node-link JSON format:
//
//	{
//	  "nodes": [{"id": "X", "kind": "anchor", "member_runs": [0, 1], "degree": 2, ...}],
//	  "edges": [{"source": "X", "target": "Y", "run_id": 0}]
//	}
//
// See [Marshal], [Unmarshal], [WriteFile] and [ReadFile].
//
// # Concurrency
//
// A Graph is immutable once built and safe for concurrent reads. A rebuild
// produces a new Graph; callers swap the pointer.
package graph
