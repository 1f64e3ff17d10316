package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/topoview/pkg/render"
	"github.com/matzehuels/topoview/pkg/scene"
	"github.com/matzehuels/topoview/pkg/topology"
)

// Default canvas size in inches. Scene coordinates in [0,1] are scaled to it.
const (
	DefaultWidth  = 12.0
	DefaultHeight = 8.0
)

// Options configures DOT generation.
type Options struct {
	// Width and Height set the canvas size in inches. Zero means default.
	Width  float64
	Height float64

	// NoLegend omits the health legend.
	NoLegend bool
}

func (o Options) size() (float64, float64) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

var shapes = map[topology.Category]string{
	topology.CategoryServer:  "box3d",
	topology.CategorySwitch:  "hexagon",
	topology.CategoryStorage: "cylinder",
	topology.CategoryBackup:  "folder",
}

// Shape returns the Graphviz node shape for c.
func Shape(c topology.Category) string {
	if s, ok := shapes[c]; ok {
		return s
	}
	return "box"
}

// ToDOT converts a scene to Graphviz DOT source with pinned positions.
// A nil scene yields an empty graph.
func ToDOT(s *scene.Scene, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph topology {\n")
	buf.WriteString("  bgcolor=\"white\";\n")
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	if s == nil {
		buf.WriteString("}\n")
		return buf.String()
	}

	fmt.Fprintf(&buf, "  label=%s;\n", quote(title(s)))
	buf.WriteString("  labelloc=t;\n")
	buf.WriteString("  fontsize=20;\n")
	buf.WriteString("  node [style=filled, fillcolor=white, penwidth=2, fontsize=11];\n")
	buf.WriteString("  edge [dir=none, fontsize=9];\n")
	buf.WriteString("\n")

	w, h := opts.size()
	for _, n := range s.Nodes {
		color := render.HexOr(n.Hover.HealthColor, render.FallbackHex)
		attrs := []string{
			"label=" + quote(n.Label),
			"shape=" + Shape(n.Category),
			"color=" + quote(color),
			"pos=" + quote(pos(n.X, n.Y, w, h)),
			"id=" + quote(n.NodeID),
			"tooltip=" + quote(scene.FormatHover(n.Hover)),
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", nodeID(n.NodeID), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range s.Edges {
		color := render.HexOr(e.Color, render.FallbackHex)
		fmt.Fprintf(&buf, "  %s -> %s [color=%s, penwidth=%d, label=%s, tooltip=%s];\n",
			nodeID(e.From), nodeID(e.To), quote(color), e.Width, quote(e.Port), quote(e.Name))
	}

	buf.WriteString("\n")
	for i, a := range s.Annotations {
		fmt.Fprintf(&buf, "  \"%s%d\" [shape=plaintext, style=\"\", fontsize=14, label=%s, pos=%s];\n",
			headerPrefix, i, quote(a.Text), quote(pos(a.X, a.Y, w, h)))
	}

	if !opts.NoLegend {
		for i, l := range s.Legend {
			color := render.HexOr(l.Color, render.FallbackHex)
			fmt.Fprintf(&buf, "  \"%s%d\" [shape=plaintext, style=\"\", fontcolor=%s, label=%s, pos=%s];\n",
				legendPrefix, i, quote(color), quote("● "+l.Status), quote(pos(1.05, 0.95-float64(i)*0.05, w, h)))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// Graph node ids are namespaced so the header and legend nodes can never
// collide with a topology node. The original id is kept in the id
// attribute, which becomes the SVG element id.
const (
	nodePrefix   = "node/"
	headerPrefix = "header/"
	legendPrefix = "legend/"
)

func nodeID(id string) string { return quote(nodePrefix + id) }

// quote returns s as a DOT double-quoted string. Newlines become the DOT
// line break escape; other control characters become spaces.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"':
			b.WriteString(`\"`)
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
		case unicode.IsControl(r), r == '\u2028', r == '\u2029':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func title(s *scene.Scene) string {
	if s.LastSync == "" {
		return s.Title
	}
	return s.Title + "\nLast sync: " + s.LastSync
}

// pos formats a pinned neato position in inches.
func pos(x, y, w, h float64) string {
	return strconv.FormatFloat(x*w, 'f', 3, 64) + "," + strconv.FormatFloat(y*h, 'f', 3, 64) + "!"
}

// RenderSVG lays out a DOT graph with neato and renders it to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// Render is ToDOT followed by RenderSVG.
func Render(ctx context.Context, s *scene.Scene, opts Options) ([]byte, error) {
	return RenderSVG(ctx, ToDOT(s, opts))
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's fixed-size svg element with one
// that scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="100%%" preserveAspectRatio="xMidYMid meet">`, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
