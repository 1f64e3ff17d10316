package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/topoview/pkg/poller"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

// Exported styles are shared by the watch view and one-shot commands.
var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	StyleError   = lipgloss.NewStyle().Foreground(colorRed)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)

	// styleBanner replaces the diagram while no scene has ever loaded.
	styleBanner = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorRed).
			Foreground(colorRed).
			Padding(1, 2)
)

const (
	iconSuccess = "✓"
	iconInfo    = "›"
	iconArrow   = "→"
	iconState   = "●"
)

// stateStyle colors a poller state: green when current, amber when the
// shown data is stale, red when nothing could be loaded.
func stateStyle(s poller.State) lipgloss.Style {
	switch s {
	case poller.StateReady:
		return lipgloss.NewStyle().Foreground(colorGreen)
	case poller.StateStale:
		return StyleWarning
	case poller.StateFailed:
		return StyleError
	default:
		return StyleDim
	}
}

// stateBadge renders "● ready" in the state's color.
func stateBadge(s poller.State) string {
	return stateStyle(s).Render(iconState + " " + string(s))
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleKey.Render(key)+" "+StyleValue.Render(value))
}
