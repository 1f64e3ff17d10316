package scene

import (
	"fmt"

	"github.com/matzehuels/topoview/pkg/layout"
	"github.com/matzehuels/topoview/pkg/topology"
)

// Column header labels.
const (
	ServersHeader  = "Servers"
	SwitchesHeader = "Network Switches"
	StorageHeader  = "Storage & Backup"
)

// Option configures [Build] and [Generate].
type Option func(*builder)

type builder struct {
	onDangling func(topology.DanglingReference)
}

// WithDanglingHandler registers fn to be called for every edge dropped
// because its target has no position. fn runs synchronously, in edge order.
func WithDanglingHandler(fn func(topology.DanglingReference)) Option {
	return func(b *builder) { b.onDangling = fn }
}

// Build assembles a scene from doc and the positions computed for it.
//
// Build never fails. Nodes without a position are skipped, and edges whose
// target has no position are dropped and reported to the dangling handler.
// doc must be non-nil; required collections are assumed to have been
// checked by [topology.Document.Validate].
func Build(doc *topology.Document, pos layout.Positions, opts ...Option) *Scene {
	b := builder{}
	for _, opt := range opts {
		opt(&b)
	}

	cloud := doc.PrivateCloud.DisplayName()
	s := &Scene{
		Title:       cloud + " Architecture",
		CloudName:   cloud,
		Nodes:       make([]NodeMark, 0, doc.NodeCount()),
		Edges:       []EdgeMark{},
		Annotations: Annotations(),
		Legend:      Legend(doc),
	}
	if doc.PrivateCloud != nil {
		s.LastSync = doc.PrivateCloud.LastSync
	}

	for _, c := range topology.Categories() {
		for _, n := range doc.Collection(c) {
			p, ok := pos[n.ID]
			if !ok {
				continue
			}
			s.Nodes = append(s.Nodes, nodeMark(n, c, p, doc.HealthColors))
		}
	}

	for _, c := range []topology.Category{topology.CategoryServer, topology.CategoryStorage, topology.CategoryBackup} {
		for _, n := range doc.Collection(c) {
			s.Edges = b.appendEdges(s.Edges, n, c, pos, doc.HealthColors)
		}
	}

	return s
}

// Generate validates doc, lays it out and builds its scene. It returns a
// SCHEMA_ERROR and no scene when doc is structurally incomplete.
func Generate(doc *topology.Document, opts ...Option) (*Scene, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return Build(doc, layout.Compute(doc), opts...), nil
}

// Annotations returns the fixed column headers.
func Annotations() []Annotation {
	return []Annotation{
		{Text: ServersHeader, X: layout.ServerColumn, Y: 1, Ref: "paper"},
		{Text: SwitchesHeader, X: layout.SwitchColumn, Y: 1, Ref: "paper"},
		{Text: StorageHeader, X: layout.StorageColumn, Y: 1, Ref: "paper"},
	}
}

func nodeMark(n topology.Node, c topology.Category, p layout.Position, colors *topology.HealthColorMap) NodeMark {
	return NodeMark{
		NodeID:   n.ID,
		Category: c,
		Label:    orDefault(n.Name, n.ID),
		X:        p.X,
		Y:        p.Y,
		YText:    p.Y + TextOffset,
		Image: ImageAnchor{
			Source:  string(c),
			X:       p.X,
			Y:       p.Y + ImageOffset,
			SizeX:   ImageSize,
			SizeY:   ImageSize,
			XAnchor: "center",
			YAnchor: "middle",
		},
		Hover:  NewHoverText(n, colors),
		Marker: MarkerStyle{Size: MarkerSize, Color: MarkerColor},
	}
}

func (b *builder) appendEdges(edges []EdgeMark, n topology.Node, c topology.Category, pos layout.Positions, colors *topology.HealthColorMap) []EdgeMark {
	from, ok := pos[n.ID]
	if !ok {
		return edges
	}
	color := colors.Lookup(n.Health)
	for _, conn := range n.ConnectedSwitches {
		to, ok := pos[conn.SwitchID]
		if !ok {
			if b.onDangling != nil {
				b.onDangling(topology.DanglingReference{From: n.ID, To: conn.SwitchID, Port: conn.Port, Category: c})
			}
			continue
		}
		edges = append(edges, EdgeMark{
			From:  n.ID,
			To:    conn.SwitchID,
			X0:    from.X,
			Y0:    from.Y,
			X1:    to.X,
			Y1:    to.Y,
			Color: color,
			Width: EdgeWidth,
			Label: fmt.Sprintf("Port: %s", conn.Port),
			Name:  fmt.Sprintf("%s -> %s", n.Name, conn.SwitchID),
			Port:  conn.Port,
		})
	}
	return edges
}
