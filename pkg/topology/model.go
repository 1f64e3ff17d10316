package topology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// =============================================================================
// Categories
// =============================================================================

// Category is the kind of infrastructure a node represents.
type Category string

const (
	CategoryServer  Category = "server"
	CategorySwitch  Category = "switch"
	CategoryStorage Category = "storage"
	CategoryBackup  Category = "backup"
)

// Categories returns all categories in processing order.
func Categories() []Category {
	return []Category{CategoryServer, CategorySwitch, CategoryStorage, CategoryBackup}
}

// DisplayName returns the label used when a node has no explicit type.
func (c Category) DisplayName() string {
	switch c {
	case CategoryServer:
		return "Server"
	case CategorySwitch:
		return "Switch"
	case CategoryStorage:
		return "Storage"
	case CategoryBackup:
		return "Backup"
	default:
		return string(c)
	}
}

// =============================================================================
// Nodes
// =============================================================================

// Connection links a node to a switch port.
type Connection struct {
	SwitchID string `json:"switch_id"`
	Port     string `json:"port"`
}

// Node is a server, switch, storage unit or backup unit.
//
// Only ID is required. Optional string fields are empty when absent;
// CPUUtilization is nil when absent.
type Node struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Category       Category `json:"-"`
	Type           string   `json:"type,omitempty"`
	Role           string   `json:"role,omitempty"`
	Health         string   `json:"health,omitempty"`
	PowerStatus    string   `json:"power_status,omitempty"`
	MAC            string   `json:"mac,omitempty"`
	Location       string   `json:"location,omitempty"`
	IPAddress      string   `json:"ip_address,omitempty"`
	CPUUtilization *float64 `json:"cpu_utilization,omitempty"`

	ConnectedSwitches []Connection `json:"connected_switches,omitempty"`

	// ConnectedComponents maps switch port to component id. Only switches
	// carry it.
	ConnectedComponents map[string]string `json:"connected_components,omitempty"`
}

// PrivateCloud describes the cloud the topology belongs to.
type PrivateCloud struct {
	Name     string `json:"name,omitempty"`
	LastSync string `json:"last_sync,omitempty"`
}

// DefaultCloudName is shown when the private cloud has no name.
const DefaultCloudName = "Private Cloud"

// DisplayName returns the cloud name or [DefaultCloudName].
func (p *PrivateCloud) DisplayName() string {
	if p == nil || p.Name == "" {
		return DefaultCloudName
	}
	return p.Name
}

// =============================================================================
// Document
// =============================================================================

// Document is the full topology of one poll cycle.
//
// A nil collection means the collection was missing from the payload and
// fails [Document.Validate]; an empty one is valid.
type Document struct {
	Servers      []Node          `json:"servers"`
	Switches     []Node          `json:"network_switches"`
	Storage      []Node          `json:"storage"`
	Backup       []Node          `json:"backup"`
	PrivateCloud *PrivateCloud   `json:"private_cloud"`
	HealthColors *HealthColorMap `json:"health_color_map"`
}

// Collection returns the nodes of category c in input order.
func (d *Document) Collection(c Category) []Node {
	switch c {
	case CategoryServer:
		return d.Servers
	case CategorySwitch:
		return d.Switches
	case CategoryStorage:
		return d.Storage
	case CategoryBackup:
		return d.Backup
	}
	return nil
}

// Nodes returns every node in processing order: servers, switches, storage,
// then backup.
func (d *Document) Nodes() []Node {
	out := make([]Node, 0, d.NodeCount())
	for _, c := range Categories() {
		out = append(out, d.Collection(c)...)
	}
	return out
}

// NodeCount returns the number of nodes across all collections.
func (d *Document) NodeCount() int {
	return len(d.Servers) + len(d.Switches) + len(d.Storage) + len(d.Backup)
}

// Node looks up a node by id.
func (d *Document) Node(id string) (Node, bool) {
	for _, c := range Categories() {
		for _, n := range d.Collection(c) {
			if n.ID == id {
				return n, true
			}
		}
	}
	return Node{}, false
}

// =============================================================================
// Flexible scalars
// =============================================================================

// flexString decodes a JSON string or number into its textual form.
// Backends keyed by integer primary keys send ids and ports as numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	text, ok := scalarText(data)
	if !ok {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(text)
	return nil
}

// scalarText returns the text of a JSON string or number. null yields ""
// and true; anything else reports false.
func scalarText(data []byte) (string, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", true
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", false
		}
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", false
	}
	return n.String(), true
}

// lenientFloat decodes a number or numeric string and ignores anything else.
type lenientFloat struct {
	v *float64
}

func (l *lenientFloat) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		if f, err := n.Float64(); err == nil {
			l.v = &f
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			l.v = &f
		}
	}
	return nil
}

// lenientText decodes a JSON string and tolerates other scalars by keeping
// their literal text. Objects and arrays decode to empty.
type lenientText string

func (l *lenientText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = lenientText(s)
	case '{', '[':
		*l = ""
	default:
		*l = lenientText(data)
	}
	return nil
}

// lenientConnections decodes connected_switches. Anything but an array
// decodes to no connections. Entries that are not objects, or whose
// switch_id is missing or not a string or number, are dropped.
type lenientConnections []wireConnection

func (l *lenientConnections) UnmarshalJSON(data []byte) error {
	*l = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	for _, r := range raw {
		var e struct {
			SwitchID json.RawMessage `json:"switch_id"`
			Port     lenientText     `json:"port"`
		}
		if err := json.Unmarshal(r, &e); err != nil {
			continue
		}
		id, ok := scalarText(e.SwitchID)
		if !ok || id == "" {
			continue
		}
		*l = append(*l, wireConnection{SwitchID: id, Port: string(e.Port)})
	}
	return nil
}

// lenientComponents decodes connected_components. Anything but an object
// decodes to empty; ports mapped to a non-scalar or null are dropped.
type lenientComponents map[string]string

func (l *lenientComponents) UnmarshalJSON(data []byte) error {
	*l = nil
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	for port, v := range raw {
		id, ok := scalarText(v)
		if !ok || id == "" {
			continue
		}
		if *l == nil {
			*l = make(lenientComponents, len(raw))
		}
		(*l)[port] = id
	}
	return nil
}
