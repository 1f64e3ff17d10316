package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/observability"
)

var (
	_ observability.PollHooks  = (*Registry)(nil)
	_ observability.SceneHooks = (*Registry)(nil)
	_ observability.AlertHooks = (*Registry)(nil)
	_ observability.HTTPHooks  = (*Registry)(nil)
)

// resultLabel maps err to a low-cardinality label: "ok" or its error code.
func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(errors.CodeOr(err, errors.ErrCodeInternal))
}

func (r *Registry) OnPollStart(context.Context, uint64) {}

func (r *Registry) OnPollComplete(_ context.Context, _ uint64, nodeCount int, d time.Duration, err error) {
	r.PollCyclesTotal.WithLabelValues(resultLabel(err)).Inc()
	r.PollDuration.Observe(d.Seconds())
	if err == nil {
		r.TopologyNodes.Set(float64(nodeCount))
		r.LastSuccessfulPoll.SetToCurrentTime()
	}
}

func (r *Registry) OnPollSkipped(_ context.Context, reason string) {
	r.PollSkippedTotal.WithLabelValues(reason).Inc()
}

func (r *Registry) OnOutOfOrder(context.Context, uint64) {
	r.PollOutOfOrder.Inc()
}

func (r *Registry) OnSceneBuilt(_ context.Context, _, edges int, d time.Duration) {
	r.SceneEdges.Set(float64(edges))
	r.SceneBuildDuration.Observe(d.Seconds())
}

func (r *Registry) OnDanglingReference(_ context.Context, category, _, _ string) {
	r.DanglingReferencesTotal.WithLabelValues(category).Inc()
}

func (r *Registry) OnAlert(_ context.Context, category, _ string) {
	r.AlertsTotal.WithLabelValues(category).Inc()
}

func (r *Registry) OnDelivery(_ context.Context, notifier string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.AlertDeliveriesTotal.WithLabelValues(notifier, result).Inc()
}

func (r *Registry) OnRequest(context.Context, string, string, string) {}

func (r *Registry) OnResponse(_ context.Context, method, _, _ string, status int, d time.Duration) {
	r.BackendRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	r.BackendRequestDuration.Observe(d.Seconds())
}

func (r *Registry) OnError(context.Context, string, string, string, error) {
	r.BackendErrorsTotal.Inc()
}
