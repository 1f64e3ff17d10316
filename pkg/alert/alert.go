// Package alert raises notifications when topology nodes turn critical.
//
// A [Tracker] watches successive topology documents. The first document in
// which a node reports health "critical" produces one [Alert]; the node is
// not alerted again until it has left the critical state (or disappeared
// from the topology) and re-entered it.
//
// Alerts are delivered to [Notifier] implementations on a background
// goroutine. Delivery failures are logged and counted, never returned to
// the caller, so a broken mail relay cannot stall polling.
package alert

import (
	"bytes"
	"strings"
	"text/template"
	"time"

	"github.com/matzehuels/topoview/pkg/topology"
)

// CriticalHealth is the health status that triggers an alert.
const CriticalHealth = "critical"

// Unknown is shown for cloud fields the document does not carry.
const Unknown = "Unknown"

// Alert describes one node that entered the critical state.
type Alert struct {
	Node       topology.Node `json:"node"`
	CloudName  string        `json:"cloud_name"`
	LastSync   string        `json:"last_sync"`
	DetectedAt time.Time     `json:"detected_at"`
}

// Subject returns the notification subject line.
func (a Alert) Subject() string {
	return "Critical Alert: " + a.displayName()
}

func (a Alert) displayName() string {
	if a.Node.Name != "" {
		return a.Node.Name
	}
	return a.Node.ID
}

var bodyTemplate = template.Must(template.New("alert").Funcs(template.FuncMap{
	"na": func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	},
	"upper": strings.ToUpper,
}).Parse(`Critical Component Alert

Time of Detection: {{.DetectedAt.Format "2006-01-02 15:04:05"}}
Private Cloud: {{.CloudName}}
Last Sync: {{.LastSync}}

Component Details:
- Name: {{.Node.Name}}
- ID: {{.Node.ID}}
- Category: {{.Node.Category.DisplayName}}
- Type: {{na .Node.Type}}
- Role: {{na .Node.Role}}
- Health Status: {{upper .Node.Health}}
- Power Status: {{na .Node.PowerStatus}}
- MAC Address: {{na .Node.MAC}}
- IP Address: {{na .Node.IPAddress}}
- Location: {{na .Node.Location}}
- Connected Switches:
{{- range .Node.ConnectedSwitches}}
  - Switch ID: {{.SwitchID}}, Port: {{.Port}}
{{- else}}
  - None
{{- end}}

This is an automated alert from topoview.
`))

// Body renders the plain-text notification body.
func (a Alert) Body() string {
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, a); err != nil {
		return a.Subject()
	}
	return buf.String()
}

func newAlert(n topology.Node, cloud *topology.PrivateCloud, now time.Time) Alert {
	a := Alert{Node: n, CloudName: Unknown, LastSync: Unknown, DetectedAt: now}
	if cloud != nil {
		if cloud.Name != "" {
			a.CloudName = cloud.Name
		}
		if cloud.LastSync != "" {
			a.LastSync = cloud.LastSync
		}
	}
	return a
}
