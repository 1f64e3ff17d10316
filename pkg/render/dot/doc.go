// Package dot renders topology scenes as Graphviz diagrams.
//
// # Overview
//
// [ToDOT] converts a [scene.Scene] into DOT source. Node positions are
// pinned to the scene's normalized coordinates (pos="x,y!"), so the
// diagram keeps the fixed column layout instead of letting Graphviz place
// nodes. [RenderSVG] lays the DOT out with the neato engine, which honors
// pinned positions, and returns SVG bytes.
//
// # Usage
//
//	dot := dot.ToDOT(sc, dot.Options{})
//	svg, err := dot.RenderSVG(ctx, dot)
//
// # Appearance
//
// Each category has its own shape: servers are 3D boxes, switches are
// hexagons, storage units are cylinders and backup units are folders. The
// node outline and each outgoing edge use the node's health color. Edge
// labels carry the switch port, and every node has a tooltip with the full
// hover text, which browsers show on mouse-over in the SVG.
//
// Column headers and the health legend become plaintext nodes placed in
// the margins.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. No Graphviz installation is needed.
package dot
