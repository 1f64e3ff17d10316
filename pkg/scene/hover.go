package scene

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/topoview/pkg/topology"
)

// HoverText holds the details shown when a node is inspected.
//
// Every field except IPAddress and CPUUtilization is always set; absent
// values are [NotAvailable]. Health is kept verbatim, even when empty, and
// HealthColor is the resolved color for it.
type HoverText struct {
	Name           string   `json:"name"`
	ID             string   `json:"id"`
	Type           string   `json:"type"`
	Role           string   `json:"role"`
	Health         string   `json:"health"`
	HealthColor    string   `json:"health_color"`
	PowerStatus    string   `json:"power_status"`
	MAC            string   `json:"mac"`
	Location       string   `json:"location"`
	IPAddress      string   `json:"ip_address,omitempty"`
	CPUUtilization *float64 `json:"cpu_utilization,omitempty"`
}

// NewHoverText builds the hover record for n.
func NewHoverText(n topology.Node, colors *topology.HealthColorMap) HoverText {
	h := HoverText{
		Name:        n.Name,
		ID:          n.ID,
		Type:        orDefault(n.Type, n.Category.DisplayName()),
		Role:        orDefault(n.Role, NotAvailable),
		Health:      n.Health,
		HealthColor: colors.Lookup(n.Health),
		PowerStatus: orDefault(n.PowerStatus, NotAvailable),
		MAC:         orDefault(n.MAC, NotAvailable),
		Location:    orDefault(n.Location, NotAvailable),
		IPAddress:   n.IPAddress,
	}
	if n.CPUUtilization != nil {
		cpu := *n.CPUUtilization
		h.CPUUtilization = &cpu
	}
	return h
}

// FormatHover renders h as plain multi-line text, one field per line, with
// the name first.
func FormatHover(h HoverText) string {
	var b strings.Builder
	b.WriteString(h.Name)
	fmt.Fprintf(&b, "\nID: %s", h.ID)
	fmt.Fprintf(&b, "\nType: %s", h.Type)
	fmt.Fprintf(&b, "\nRole: %s", h.Role)
	fmt.Fprintf(&b, "\nHealth: %s", h.Health)
	fmt.Fprintf(&b, "\nPower: %s", h.PowerStatus)
	fmt.Fprintf(&b, "\nMAC: %s", h.MAC)
	fmt.Fprintf(&b, "\nLocation: %s", h.Location)
	if h.IPAddress != "" {
		fmt.Fprintf(&b, "\nIP: %s", h.IPAddress)
	}
	if h.CPUUtilization != nil {
		fmt.Fprintf(&b, "\nCPU: %s%%", strconv.FormatFloat(*h.CPUUtilization, 'f', -1, 64))
	}
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
