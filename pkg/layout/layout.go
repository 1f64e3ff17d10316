// Package layout assigns deterministic 2D coordinates to topology nodes.
//
// The layout is columnar: every category owns a fixed x, and nodes stack
// downward from the top of their column in input order.
//
//	servers       x = 0.15
//	switches      x = 0.50
//	storage       x = 0.85
//	backup        x = 0.85 (continues the storage stack)
//
// Within a column y = 0.9 - index*0.15. Backup nodes use
// index = len(storage) + backupIndex so they never share a slot with
// storage. Coordinates are normalized with y increasing upward.
//
// There is no collision handling: more than six nodes in a column run past
// the bottom of the frame and may overlap. Callers that need more rows should
// scale the frame, not expect reflow.
//
// [Compute] is a pure function of its input. It holds no state between
// calls and is safe for concurrent use as long as the document is not
// mutated concurrently.
package layout

import (
	"github.com/matzehuels/topoview/pkg/topology"
)

// Column x coordinates.
const (
	ServerColumn  = 0.15
	SwitchColumn  = 0.5
	StorageColumn = 0.85
	BackupColumn  = StorageColumn
)

// Vertical stacking.
const (
	Top  = 0.9
	Step = 0.15
)

// Position is a node's anchor in normalized coordinates.
type Position struct {
	NodeID string  `json:"node_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Positions maps node id to position.
type Positions map[string]Position

// Lookup returns the position of id.
func (p Positions) Lookup(id string) (Position, bool) {
	pos, ok := p[id]
	return pos, ok
}

// Column returns the x coordinate assigned to category c.
// Unknown categories return -1.
func Column(c topology.Category) float64 {
	switch c {
	case topology.CategoryServer:
		return ServerColumn
	case topology.CategorySwitch:
		return SwitchColumn
	case topology.CategoryStorage:
		return StorageColumn
	case topology.CategoryBackup:
		return BackupColumn
	default:
		return -1
	}
}

// Slot returns the y coordinate of the index-th node in a column.
func Slot(index int) float64 {
	return Top - float64(index)*Step
}

// Compute lays out every node of doc.
//
// Ids are expected to be unique (see [topology.Document.Validate]); if they
// are not, the node processed last wins.
func Compute(doc *topology.Document) Positions {
	if doc == nil {
		return Positions{}
	}
	out := make(Positions, doc.NodeCount())

	place := func(nodes []topology.Node, x float64, offset int) {
		for i, n := range nodes {
			out[n.ID] = Position{NodeID: n.ID, X: x, Y: Slot(offset + i)}
		}
	}

	place(doc.Servers, ServerColumn, 0)
	place(doc.Switches, SwitchColumn, 0)
	place(doc.Storage, StorageColumn, 0)
	place(doc.Backup, BackupColumn, len(doc.Storage))

	return out
}
