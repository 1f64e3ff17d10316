// Package render holds the render adapters that turn a scene into output.
//
// The scene package produces a neutral, normalized GraphScene; the
// subpackages here draw it:
//
//   - [dot]: Graphviz DOT with pinned node positions, rendered to SVG
//     in-process through go-graphviz.
//   - [text]: a lipgloss terminal rendering used by the CLI and the
//     interactive watch view.
//
// This package itself only provides color handling shared by the adapters.
// Health colors arrive as whatever the backend put in its health color map,
// usually CSS color names ("green", "orange") and sometimes hex or rgb()
// values. [Hex] normalizes them so each adapter can map them onto its own
// palette.
//
// [dot]: github.com/matzehuels/topoview/pkg/render/dot
// [text]: github.com/matzehuels/topoview/pkg/render/text
package render
