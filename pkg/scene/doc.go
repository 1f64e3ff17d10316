// Package scene turns a laid-out topology document into a render-ready
// GraphScene.
//
// A [Scene] is plain data: positioned node marks, edge marks between nodes
// and the switches they connect to, fixed column annotations, a title and
// the health legend. Render adapters (the Graphviz adapter in render/dot, the
// terminal view, browser clients of the HTTP server) consume it without
// knowing anything about the topology document itself.
//
// # Coordinates
//
// Both axes are normalized to [0, 1] with y increasing upward. A node mark
// carries three vertical anchors derived from its layout position:
//
//	y        node anchor, used as the edge endpoint
//	y_text   y - 0.05, where the label is drawn
//	y_image  y + 0.03, center of the 0.08 x 0.08 icon
//
// # Ordering
//
// Node marks follow processing order (servers, switches, storage, backup).
// Edge marks are emitted for servers, then storage, then backup, each in
// connection order. Switches contribute no edges; their connected_components
// map is informational. Given the same input, [Build] output is identical.
//
// # Degradation
//
// Malformed optional fields never fail a build: hover fields fall back to
// "N/A", unknown health resolves to [topology.FallbackColor], and edges whose
// target has no position are dropped. Use [WithDanglingHandler] to observe
// dropped edges.
package scene
