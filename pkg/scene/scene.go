package scene

import (
	"github.com/matzehuels/topoview/pkg/topology"
)

// Vertical offsets and icon geometry, in normalized units.
const (
	TextOffset  = -0.05
	ImageOffset = 0.03
	ImageSize   = 0.08
)

// Marker defaults. The marker only exists to catch hover; it is transparent.
const (
	MarkerSize  = 30
	MarkerColor = "rgba(0,0,0,0)"
	EdgeWidth   = 3
)

// NotAvailable is the placeholder for absent optional hover fields.
const NotAvailable = "N/A"

// Scene is the render-ready output of [Build].
type Scene struct {
	Title       string        `json:"title"`
	CloudName   string        `json:"cloud_name"`
	LastSync    string        `json:"last_sync,omitempty"`
	Nodes       []NodeMark    `json:"node_marks"`
	Edges       []EdgeMark    `json:"edges"`
	Annotations []Annotation  `json:"annotations"`
	Legend      []LegendEntry `json:"legend"`
}

// NodeMark positions one node.
type NodeMark struct {
	NodeID   string            `json:"node_id"`
	Category topology.Category `json:"category"`
	Label    string            `json:"label"`
	X        float64           `json:"x"`
	Y        float64           `json:"y"`
	YText    float64           `json:"y_text"`
	Image    ImageAnchor       `json:"image"`
	Hover    HoverText         `json:"hover"`
	Marker   MarkerStyle       `json:"marker"`
}

// ImageAnchor places a category icon. Source is the category name; adapters
// map it to an actual image.
type ImageAnchor struct {
	Source  string  `json:"source"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	SizeX   float64 `json:"size_x"`
	SizeY   float64 `json:"size_y"`
	XAnchor string  `json:"x_anchor"`
	YAnchor string  `json:"y_anchor"`
}

// MarkerStyle is the hover target drawn under a node label.
type MarkerStyle struct {
	Size  int    `json:"size"`
	Color string `json:"color"`
}

// EdgeMark is a line from a node to a switch. Color reflects the health of
// the source node.
type EdgeMark struct {
	From  string  `json:"from"`
	To    string  `json:"to"`
	X0    float64 `json:"x0"`
	Y0    float64 `json:"y0"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	Color string  `json:"color"`
	Width int     `json:"width"`
	Label string  `json:"label"`
	Name  string  `json:"name"`
	Port  string  `json:"port"`
}

// Annotation is a column header in paper coordinates.
type Annotation struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Ref  string  `json:"ref"`
}

// LegendEntry is one status/color pair of the health legend.
type LegendEntry struct {
	Status string `json:"status"`
	Color  string `json:"color"`
}

// Node returns the mark for id.
func (s *Scene) Node(id string) (NodeMark, bool) {
	for _, n := range s.Nodes {
		if n.NodeID == id {
			return n, true
		}
	}
	return NodeMark{}, false
}

// EdgesFrom returns the edges whose source is id, in emission order.
func (s *Scene) EdgesFrom(id string) []EdgeMark {
	var out []EdgeMark
	for _, e := range s.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}
