package scene

import "github.com/matzehuels/topoview/pkg/topology"

// Legend returns the health color map of doc as legend entries, in the
// order the statuses appear in the document.
func Legend(doc *topology.Document) []LegendEntry {
	out := []LegendEntry{}
	if doc == nil {
		return out
	}
	doc.HealthColors.Each(func(status, color string) {
		out = append(out, LegendEntry{Status: status, Color: color})
	})
	return out
}
