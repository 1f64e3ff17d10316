package topology

import (
	"fmt"
	"sort"
)

// DanglingReference is a connection whose target id names no node.
//
// Dangling references never fail rendering; the edge is dropped. They are
// surfaced to operators through logs and metrics.
type DanglingReference struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Port     string   `json:"port"`
	Category Category `json:"category"`

	// Component is true for a switch's connected_components entry, false for
	// a node's connected_switches entry.
	Component bool `json:"component,omitempty"`
}

// String formats the reference for log lines.
func (r DanglingReference) String() string {
	kind := "switch"
	if r.Component {
		kind = "component"
	}
	return fmt.Sprintf("%s %s -> unknown %s %s (port %s)", r.Category, r.From, kind, r.To, r.Port)
}

// DanglingReferences lists every connection in d whose target id is not a
// node id, in processing order. Switch component maps are walked in port
// order.
func (d *Document) DanglingReferences() []DanglingReference {
	ids := make(map[string]struct{}, d.NodeCount())
	for _, c := range Categories() {
		for _, n := range d.Collection(c) {
			ids[n.ID] = struct{}{}
		}
	}

	var out []DanglingReference
	for _, c := range Categories() {
		for _, n := range d.Collection(c) {
			for _, conn := range n.ConnectedSwitches {
				if _, ok := ids[conn.SwitchID]; !ok {
					out = append(out, DanglingReference{From: n.ID, To: conn.SwitchID, Port: conn.Port, Category: c})
				}
			}
			ports := make([]string, 0, len(n.ConnectedComponents))
			for p := range n.ConnectedComponents {
				ports = append(ports, p)
			}
			sort.Strings(ports)
			for _, p := range ports {
				id := n.ConnectedComponents[p]
				if _, ok := ids[id]; !ok {
					out = append(out, DanglingReference{From: n.ID, To: id, Port: p, Category: c, Component: true})
				}
			}
		}
	}
	return out
}
