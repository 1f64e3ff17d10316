package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/topoview/pkg/errors"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.PollCyclesTotal == nil || r.DanglingReferencesTotal == nil || r.HTTPRequestsTotal == nil {
		t.Error("metrics not initialized")
	}
	if r.GetPrometheusRegistry() == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestPollHooks(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	r.OnPollComplete(ctx, 1, 6, 10*time.Millisecond, nil)
	r.OnPollComplete(ctx, 2, 0, time.Millisecond, errors.New(errors.ErrCodeFetch, "refused"))
	r.OnPollComplete(ctx, 3, 0, time.Millisecond, errors.New(errors.ErrCodeSchema, "bad"))
	r.OnPollComplete(ctx, 4, 0, time.Millisecond, fmt.Errorf("plain"))
	r.OnPollSkipped(ctx, "in_flight")
	r.OnPollSkipped(ctx, "in_flight")
	r.OnOutOfOrder(ctx, 1)

	tests := []struct {
		result string
		want   float64
	}{
		{"ok", 1},
		{"FETCH_ERROR", 1},
		{"SCHEMA_ERROR", 1},
		{"INTERNAL_ERROR", 1},
	}
	for _, tt := range tests {
		t.Run(tt.result, func(t *testing.T) {
			if got := testutil.ToFloat64(r.PollCyclesTotal.WithLabelValues(tt.result)); got != tt.want {
				t.Errorf("poll_cycles_total{result=%q} = %v, want %v", tt.result, got, tt.want)
			}
		})
	}

	if got := testutil.ToFloat64(r.TopologyNodes); got != 6 {
		t.Errorf("topology_nodes = %v, want 6 (failures must not reset it)", got)
	}
	if got := testutil.ToFloat64(r.PollSkippedTotal.WithLabelValues("in_flight")); got != 2 {
		t.Errorf("poll_skipped_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.PollOutOfOrder); got != 1 {
		t.Errorf("poll_out_of_order_total = %v, want 1", got)
	}
}

func TestSceneAndAlertHooks(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	r.OnSceneBuilt(ctx, 6, 4, time.Millisecond)
	r.OnDanglingReference(ctx, "server", "s2", "sw9")
	r.OnDanglingReference(ctx, "switch", "sw1", "ghost")
	r.OnAlert(ctx, "server", "s2")
	r.OnDelivery(ctx, "smtp", fmt.Errorf("dial"))
	r.OnDelivery(ctx, "log", nil)

	if got := testutil.ToFloat64(r.SceneEdges); got != 4 {
		t.Errorf("scene_edges = %v, want 4", got)
	}
	if got := testutil.ToFloat64(r.DanglingReferencesTotal.WithLabelValues("server")); got != 1 {
		t.Errorf("dangling_references_total{server} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.AlertsTotal.WithLabelValues("server")); got != 1 {
		t.Errorf("alerts_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.AlertDeliveriesTotal.WithLabelValues("smtp", "error")); got != 1 {
		t.Errorf("alert_deliveries_total{smtp,error} = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.OnResponse(context.Background(), "GET", "localhost", "/api/topology_data", 200, time.Millisecond)
	r.RecordHTTPRequest("GET", "/api/scene", "200", time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`topoview_backend_requests_total{method="GET",status="200"} 1`,
		`topoview_http_requests_total{method="GET",route="/api/scene",status="200"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %s", want)
		}
	}
}
