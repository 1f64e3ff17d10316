// Package observability provides hooks for metrics and diagnostics.
//
// Libraries in this module emit events through small hook interfaces instead
// of depending on a metrics backend. The binary registers an implementation
// at startup (see the metrics package for the Prometheus one); until then
// every hook is a no-op.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    m := metrics.New(prometheus.DefaultRegisterer)
//	    observability.SetPollHooks(m)
//	    observability.SetSceneHooks(m)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Poll().OnPollStart(ctx, seq)
//	// ... fetch and build ...
//	observability.Poll().OnPollComplete(ctx, seq, nodeCount, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Poll Hooks
// =============================================================================

// PollHooks receives events from the polling loop.
type PollHooks interface {
	// OnPollStart records the start of fetch cycle seq.
	OnPollStart(ctx context.Context, seq uint64)

	// OnPollComplete records the end of cycle seq. err is nil on success.
	OnPollComplete(ctx context.Context, seq uint64, nodeCount int, duration time.Duration, err error)

	// OnPollSkipped records a tick dropped because a fetch was in flight.
	OnPollSkipped(ctx context.Context, reason string)

	// OnOutOfOrder records a completion discarded because a newer one was
	// already applied.
	OnOutOfOrder(ctx context.Context, seq uint64)
}

// =============================================================================
// Scene Hooks
// =============================================================================

// SceneHooks receives events from scene generation.
type SceneHooks interface {
	// OnSceneBuilt records a successfully built scene.
	OnSceneBuilt(ctx context.Context, nodes, edges int, duration time.Duration)

	// OnDanglingReference records a connection to an unknown node id.
	OnDanglingReference(ctx context.Context, category, from, to string)
}

// =============================================================================
// Alert Hooks
// =============================================================================

// AlertHooks receives events from critical-health alerting.
type AlertHooks interface {
	// OnAlert records a node entering the critical state.
	OnAlert(ctx context.Context, category, nodeID string)

	// OnDelivery records a notifier attempt. err is nil on success.
	OnDelivery(ctx context.Context, notifier string, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPollHooks is a no-op implementation of PollHooks.
type NoopPollHooks struct{}

func (NoopPollHooks) OnPollStart(context.Context, uint64)                               {}
func (NoopPollHooks) OnPollComplete(context.Context, uint64, int, time.Duration, error) {}
func (NoopPollHooks) OnPollSkipped(context.Context, string)                             {}
func (NoopPollHooks) OnOutOfOrder(context.Context, uint64)                              {}

// NoopSceneHooks is a no-op implementation of SceneHooks.
type NoopSceneHooks struct{}

func (NoopSceneHooks) OnSceneBuilt(context.Context, int, int, time.Duration)       {}
func (NoopSceneHooks) OnDanglingReference(context.Context, string, string, string) {}

// NoopAlertHooks is a no-op implementation of AlertHooks.
type NoopAlertHooks struct{}

func (NoopAlertHooks) OnAlert(context.Context, string, string)   {}
func (NoopAlertHooks) OnDelivery(context.Context, string, error) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pollHooks  PollHooks  = NoopPollHooks{}
	sceneHooks SceneHooks = NoopSceneHooks{}
	alertHooks AlertHooks = NoopAlertHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetPollHooks registers custom poll hooks. Nil is ignored.
func SetPollHooks(h PollHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pollHooks = h
	}
}

// SetSceneHooks registers custom scene hooks. Nil is ignored.
func SetSceneHooks(h SceneHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sceneHooks = h
	}
}

// SetAlertHooks registers custom alert hooks. Nil is ignored.
func SetAlertHooks(h AlertHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		alertHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Poll returns the registered poll hooks.
func Poll() PollHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pollHooks
}

// Scene returns the registered scene hooks.
func Scene() SceneHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sceneHooks
}

// Alert returns the registered alert hooks.
func Alert() AlertHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return alertHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pollHooks = NoopPollHooks{}
	sceneHooks = NoopSceneHooks{}
	alertHooks = NoopAlertHooks{}
	httpHooks = NoopHTTPHooks{}
}
