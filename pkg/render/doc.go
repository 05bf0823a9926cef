// Package render turns scenes into files.
//
// Two engines draw a [scene.Scene]:
//
//   - [svg]: native SVG written directly from scene coordinates
//   - [nodelink]: Graphviz DOT with pinned positions, rendered to SVG or
//     PNG through go-graphviz
//
// This package holds what the CLI and HTTP server share: output format and
// engine names.
//
// [svg]: github.com/matzehuels/hopgraph/pkg/render/svg
// [nodelink]: github.com/matzehuels/hopgraph/pkg/render/nodelink
// [scene.Scene]: github.com/matzehuels/hopgraph/pkg/scene
package render
