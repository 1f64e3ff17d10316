package render

import (
	"fmt"
	"strconv"
	"strings"
)

// cssColors covers the CSS named colors a health map is likely to use.
var cssColors = map[string]string{
	"black":     "#000000",
	"blue":      "#0000ff",
	"brown":     "#a52a2a",
	"crimson":   "#dc143c",
	"cyan":      "#00ffff",
	"darkgreen": "#006400",
	"darkred":   "#8b0000",
	"gold":      "#ffd700",
	"gray":      "#808080",
	"green":     "#008000",
	"grey":      "#808080",
	"lightgray": "#d3d3d3",
	"lime":      "#00ff00",
	"magenta":   "#ff00ff",
	"orange":    "#ffa500",
	"purple":    "#800080",
	"red":       "#ff0000",
	"silver":    "#c0c0c0",
	"white":     "#ffffff",
	"yellow":    "#ffff00",
}

// FallbackHex is the hex form of the default health fallback color.
const FallbackHex = "#808080"

// Hex converts a CSS color (name, #rgb, #rrggbb, rgb() or rgba()) to
// #rrggbb. Alpha is dropped. It reports false for anything it cannot read.
func Hex(color string) (string, bool) {
	c := strings.ToLower(strings.TrimSpace(color))
	if hex, ok := cssColors[c]; ok {
		return hex, true
	}

	switch {
	case strings.HasPrefix(c, "#"):
		return parseHex(c[1:])
	case strings.HasPrefix(c, "rgb(") || strings.HasPrefix(c, "rgba("):
		return parseRGB(c)
	}
	return "", false
}

// HexOr is [Hex] with a fallback for unreadable colors.
func HexOr(color, fallback string) string {
	if hex, ok := Hex(color); ok {
		return hex
	}
	return fallback
}

func parseHex(s string) (string, bool) {
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 8 {
		s = s[:6]
	}
	if len(s) != 6 {
		return "", false
	}
	if _, err := strconv.ParseUint(s, 16, 32); err != nil {
		return "", false
	}
	return "#" + s, true
}

func parseRGB(s string) (string, bool) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return "", false
	}
	parts := strings.Split(s[open+1:end], ",")
	if len(parts) < 3 {
		return "", false
	}
	var rgb [3]uint64
	for i := range rgb {
		v, err := strconv.ParseUint(strings.TrimSpace(parts[i]), 10, 8)
		if err != nil {
			return "", false
		}
		rgb[i] = v
	}
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2]), true
}
