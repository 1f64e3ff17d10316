package alert

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/topoview/pkg/observability"
	"github.com/matzehuels/topoview/pkg/topology"
)

// DeliveryTimeout bounds the delivery of one alert to one notifier.
const DeliveryTimeout = 30 * time.Second

// Tracker turns health transitions into alerts. It is safe for concurrent
// use, though documents are expected to arrive one at a time.
type Tracker struct {
	notifiers []Notifier
	logger    *log.Logger
	now       func() time.Time

	mu      sync.Mutex
	alerted map[string]struct{}

	wg sync.WaitGroup
}

// TrackerOption configures a [Tracker].
type TrackerOption func(*Tracker)

// WithNotifier adds a delivery target.
func WithNotifier(n Notifier) TrackerOption {
	return func(t *Tracker) {
		if n != nil {
			t.notifiers = append(t.notifiers, n)
		}
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(l *log.Logger) TrackerOption {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTracker creates a tracker with no nodes alerted.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		logger:  log.Default(),
		now:     time.Now,
		alerted: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Observe compares doc with the previously observed state, dispatches an
// alert for every node that newly turned critical and returns those alerts
// in processing order. Delivery happens in the background; Observe never
// blocks on a notifier.
func (t *Tracker) Observe(ctx context.Context, doc *topology.Document) []Alert {
	if doc == nil {
		return nil
	}
	now := t.now()

	t.mu.Lock()
	present := make(map[string]struct{}, doc.NodeCount())
	var fresh []Alert
	for _, n := range doc.Nodes() {
		present[n.ID] = struct{}{}
		_, was := t.alerted[n.ID]
		switch {
		case n.Health == CriticalHealth && !was:
			t.alerted[n.ID] = struct{}{}
			fresh = append(fresh, newAlert(n, doc.PrivateCloud, now))
		case n.Health != CriticalHealth && was:
			delete(t.alerted, n.ID)
		}
	}
	for id := range t.alerted {
		if _, ok := present[id]; !ok {
			delete(t.alerted, id)
		}
	}
	t.mu.Unlock()

	for _, a := range fresh {
		t.logger.Warn("Node is critical", "id", a.Node.ID, "name", a.Node.Name, "category", a.Node.Category)
		observability.Alert().OnAlert(ctx, string(a.Node.Category), a.Node.ID)
	}
	t.dispatch(ctx, fresh)
	return fresh
}

// Alerted reports whether id is currently in the alerted set.
func (t *Tracker) Alerted(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.alerted[id]
	return ok
}

// Wait blocks until every dispatched delivery has finished.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// dispatch delivers alerts in order on one background goroutine.
func (t *Tracker) dispatch(ctx context.Context, alerts []Alert) {
	if len(t.notifiers) == 0 || len(alerts) == 0 {
		return
	}
	// Delivery outlives the poll cycle that detected the alert.
	ctx = context.WithoutCancel(ctx)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for _, a := range alerts {
			for _, n := range t.notifiers {
				t.deliver(ctx, n, a)
			}
		}
	}()
}

func (t *Tracker) deliver(ctx context.Context, n Notifier, a Alert) {
	dctx, cancel := context.WithTimeout(ctx, DeliveryTimeout)
	defer cancel()

	err := n.Notify(dctx, a)
	observability.Alert().OnDelivery(ctx, n.Name(), err)
	if err != nil {
		t.logger.Error("Alert delivery failed", "notifier", n.Name(), "id", a.Node.ID, "err", err)
		return
	}
	t.logger.Debug("Alert delivered", "notifier", n.Name(), "id", a.Node.ID)
}
