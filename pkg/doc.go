// Package pkg holds the hopgraph libraries.
//
// Data flows from recorded runs to a rendered frame:
//
//	[runs]       decode results files, summaries, fingerprints
//	   ↓
//	[graph]      merge runs into a hop graph with anchors on a ring
//	   ↓
//	[layout]     force simulation with generation-tagged ticks
//	   ↓
//	[selection]  style a frame for the selected run
//	   ↓
//	[render]     SVG, PNG, DOT or JSON
//
// [scheduler] owns one simulation and its viewport and drives it frame by
// frame; [server] exposes a running scheduler over HTTP. [source], [cache]
// and [httputil] load run files from disk, stdin or HTTP. [config],
// [errors], [observability] and [buildinfo] are shared by every command.
package pkg
