package topology

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/topoview/pkg/errors"
)

// validate is a singleton validator keyed by JSON field names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// =============================================================================
// Wire types
// =============================================================================

// wireDocument mirrors the payload before defaults are applied. Pointers and
// slices stay nil when the key is absent so "missing" and "empty" differ.
type wireDocument struct {
	Servers         []wireNode      `json:"servers" validate:"required,dive"`
	NetworkSwitches []wireNode      `json:"network_switches" validate:"required_without=Switches,dive"`
	Switches        []wireNode      `json:"switches" validate:"omitempty,dive"`
	Storage         []wireNode      `json:"storage" validate:"required,dive"`
	Backup          []wireNode      `json:"backup" validate:"required,dive"`
	PrivateCloud    *wireCloud      `json:"private_cloud" validate:"required"`
	HealthColorMap  *HealthColorMap `json:"health_color_map" validate:"required"`
}

type wireNode struct {
	ID                  flexString         `json:"id" validate:"required"`
	Name                lenientText        `json:"name"`
	Type                lenientText        `json:"type"`
	Role                lenientText        `json:"role"`
	Health              lenientText        `json:"health"`
	PowerStatus         lenientText        `json:"power_status"`
	MAC                 lenientText        `json:"mac"`
	Location            lenientText        `json:"location"`
	IPAddress           lenientText        `json:"ip_address"`
	CPUUtilization      lenientFloat       `json:"cpu_utilization"`
	ConnectedSwitches   lenientConnections `json:"connected_switches"`
	ConnectedComponents lenientComponents  `json:"connected_components"`
}

type wireConnection struct {
	SwitchID string
	Port     string
}

type wireCloud struct {
	Name     lenientText `json:"name"`
	LastSync lenientText `json:"last_sync"`
}

// =============================================================================
// Decoding API
// =============================================================================

// Parse decodes and validates a topology document from JSON bytes.
func Parse(data []byte) (*Document, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a topology document from r and validates it.
//
// Missing top-level collections, nodes without an id and duplicate ids fail
// with a SCHEMA_ERROR. Malformed optional node fields are tolerated,
// including connection lists: bad entries are dropped, not fatal.
func Decode(r io.Reader) (*Document, error) {
	var w wireDocument
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSchema, err, "decode topology document")
	}
	if err := validate.Struct(&w); err != nil {
		return nil, schemaError(err)
	}

	doc := w.toDocument()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// ReadFile reads a topology document from a JSON file.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// schemaError converts validator output into a SCHEMA_ERROR naming the
// first offending field by its JSON path.
func schemaError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(errors.ErrCodeSchema, err, "invalid topology document")
	}

	fe := verrs[0]
	path := fe.Namespace()
	if _, rest, ok := strings.Cut(path, "."); ok {
		path = rest
	}

	switch fe.Tag() {
	case "required", "required_without":
		if !strings.ContainsAny(path, ".[") {
			if fe.Field() == "network_switches" {
				return errors.New(errors.ErrCodeSchema, "missing required collection %q (or %q)", "network_switches", "switches")
			}
			return errors.New(errors.ErrCodeSchema, "missing required collection %q", path)
		}
		return errors.New(errors.ErrCodeSchema, "%s is required", path)
	default:
		return errors.New(errors.ErrCodeSchema, "%s failed %q validation", path, fe.Tag())
	}
}

func (w *wireDocument) toDocument() *Document {
	switches := w.NetworkSwitches
	if switches == nil {
		switches = w.Switches
	}
	return &Document{
		Servers:  toNodes(w.Servers, CategoryServer),
		Switches: toNodes(switches, CategorySwitch),
		Storage:  toNodes(w.Storage, CategoryStorage),
		Backup:   toNodes(w.Backup, CategoryBackup),
		PrivateCloud: &PrivateCloud{
			Name:     string(w.PrivateCloud.Name),
			LastSync: string(w.PrivateCloud.LastSync),
		},
		HealthColors: w.HealthColorMap,
	}
}

func toNodes(in []wireNode, c Category) []Node {
	out := make([]Node, len(in))
	for i, n := range in {
		out[i] = Node{
			ID:             string(n.ID),
			Name:           string(n.Name),
			Category:       c,
			Type:           string(n.Type),
			Role:           string(n.Role),
			Health:         string(n.Health),
			PowerStatus:    string(n.PowerStatus),
			MAC:            string(n.MAC),
			Location:       string(n.Location),
			IPAddress:      string(n.IPAddress),
			CPUUtilization: n.CPUUtilization.v,
		}
		if len(n.ConnectedSwitches) > 0 {
			conns := make([]Connection, len(n.ConnectedSwitches))
			for j, cs := range n.ConnectedSwitches {
				conns[j] = Connection{SwitchID: cs.SwitchID, Port: cs.Port}
			}
			out[i].ConnectedSwitches = conns
		}
		if len(n.ConnectedComponents) > 0 {
			comps := make(map[string]string, len(n.ConnectedComponents))
			for port, id := range n.ConnectedComponents {
				comps[port] = id
			}
			out[i].ConnectedComponents = comps
		}
	}
	return out
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks the structural invariants of d: every collection present,
// the private cloud and color map present, and node ids non-empty and unique.
// It returns a SCHEMA_ERROR on the first violation.
func (d *Document) Validate() error {
	if d == nil {
		return errors.New(errors.ErrCodeSchema, "nil topology document")
	}
	required := []struct {
		name    string
		missing bool
	}{
		{"servers", d.Servers == nil},
		{"network_switches", d.Switches == nil},
		{"storage", d.Storage == nil},
		{"backup", d.Backup == nil},
		{"private_cloud", d.PrivateCloud == nil},
		{"health_color_map", d.HealthColors == nil},
	}
	for _, r := range required {
		if r.missing {
			return errors.New(errors.ErrCodeSchema, "missing required collection %q", r.name)
		}
	}

	seen := make(map[string]Category, d.NodeCount())
	for _, c := range Categories() {
		for i, n := range d.Collection(c) {
			if n.ID == "" {
				return errors.New(errors.ErrCodeSchema, "%s[%d].id is required", c, i)
			}
			if prev, dup := seen[n.ID]; dup {
				return errors.New(errors.ErrCodeSchema, "duplicate node id %q (%s and %s)", n.ID, prev, c)
			}
			seen[n.ID] = c
		}
	}
	return nil
}
