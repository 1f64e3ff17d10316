// Package text renders topology scenes for the terminal with lipgloss.
//
// The three layout columns are drawn side by side, each node as a
// health-colored bullet followed by its outgoing switch connections. The
// same rendering backs `topoview render --format text` and the watch view.
package text

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/topoview/pkg/render"
	"github.com/matzehuels/topoview/pkg/scene"
	"github.com/matzehuels/topoview/pkg/topology"
)

// DefaultColumnWidth is the width of one column in cells.
const DefaultColumnWidth = 30

const bullet = "●"

var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	styleHeader   = lipgloss.NewStyle().Bold(true).Underline(true)
	styleDim      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleSelected = lipgloss.NewStyle().Reverse(true)
	styleBox      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// Options configures text rendering.
type Options struct {
	// ColumnWidth is the width of each column. Zero means default.
	ColumnWidth int
	// Selected highlights the node with this id and appends its details.
	Selected string
	// NoLegend omits the health legend.
	NoLegend bool
}

// Render draws s as a multi-line string. A nil scene renders as empty.
func Render(s *scene.Scene, opts Options) string {
	if s == nil {
		return ""
	}
	width := opts.ColumnWidth
	if width <= 0 {
		width = DefaultColumnWidth
	}

	cols := Columns(s)
	headers := headers(s)
	blocks := make([]string, len(cols))
	for i, nodes := range cols {
		blocks[i] = column(s, headers[i], nodes, width, opts.Selected)
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render(s.Title))
	if s.LastSync != "" {
		b.WriteString(styleDim.Render("  last sync " + s.LastSync))
	}
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, blocks...))

	if !opts.NoLegend && len(s.Legend) > 0 {
		b.WriteString("\n\n")
		b.WriteString(Legend(s.Legend))
	}
	if opts.Selected != "" {
		if n, ok := s.Node(opts.Selected); ok {
			b.WriteString("\n\n")
			b.WriteString(Details(n))
		}
	}
	return b.String()
}

// Columns groups the scene's nodes into the server, switch and
// storage/backup columns, each ordered top to bottom.
func Columns(s *scene.Scene) [3][]scene.NodeMark {
	var cols [3][]scene.NodeMark
	for _, n := range s.Nodes {
		i := columnIndex(n.Category)
		cols[i] = append(cols[i], n)
	}
	for i := range cols {
		slices.SortStableFunc(cols[i], func(a, b scene.NodeMark) int {
			return cmp.Compare(b.Y, a.Y)
		})
	}
	return cols
}

func columnIndex(c topology.Category) int {
	switch c {
	case topology.CategoryServer:
		return 0
	case topology.CategorySwitch:
		return 1
	default:
		return 2
	}
}

func headers(s *scene.Scene) [3]string {
	h := [3]string{scene.ServersHeader, scene.SwitchesHeader, scene.StorageHeader}
	for i, a := range s.Annotations {
		if i < len(h) {
			h[i] = a.Text
		}
	}
	return h
}

func column(s *scene.Scene, header string, nodes []scene.NodeMark, width int, selected string) string {
	lines := []string{styleHeader.Render(header), ""}
	for _, n := range nodes {
		label := n.Label
		if n.NodeID == selected {
			label = styleSelected.Render(label)
		}
		lines = append(lines, swatch(n.Hover.HealthColor)+" "+label)
		for _, e := range s.EdgesFrom(n.NodeID) {
			lines = append(lines, styleDim.Render(fmt.Sprintf("  → %s:%s", e.To, e.Port)))
		}
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

// Legend renders the status/color legend on one line.
func Legend(entries []scene.LegendEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, swatch(e.Color)+" "+e.Status)
	}
	return strings.Join(parts, styleDim.Render("  ·  "))
}

// Details renders the hover text of n in a bordered box.
func Details(n scene.NodeMark) string {
	return styleBox.Render(scene.FormatHover(n.Hover))
}

func swatch(color string) string {
	hex := render.HexOr(color, render.FallbackHex)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render(bullet)
}
