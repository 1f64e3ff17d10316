// Package poller keeps a topology scene current by polling the backend.
//
// A [Poller] fetches the topology document on a fixed interval, turns each
// accepted document into a scene, and publishes [Snapshot] values to
// subscribers. It owns all mutable display state; the layout and scene
// packages stay pure.
//
// # Overlap policy
//
// At most one fetch is in flight. A tick (or a [Poller.Refresh] call) that
// arrives while a fetch is outstanding is skipped, logged at debug level and
// counted through the observability hooks. Nothing is queued.
//
// # Ordering
//
// Every fetch carries a sequence number taken from a monotonic counter. A
// completion is applied only if its sequence is newer than the last applied
// one, so a slow response can never overwrite a newer scene.
//
// # Failures
//
// A failed fetch keeps the previous scene and marks the snapshot stale.
// Before the first success a failure moves the snapshot to [StateFailed],
// which is the only state in which a display should replace the diagram
// with an error banner.
//
// # Teardown
//
// Cancelling the context passed to [Poller.Run] stops the ticker, cancels
// the in-flight request and waits for it to return before Run returns.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/observability"
	"github.com/matzehuels/topoview/pkg/scene"
	"github.com/matzehuels/topoview/pkg/topology"
)

// DefaultInterval is the polling interval used when none is configured.
const DefaultInterval = 5 * time.Second

// SkipInFlight is the reason reported for ticks dropped by the overlap policy.
const SkipInFlight = "in_flight"

// Fetcher retrieves one topology document. *client.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context) (*topology.Document, error)
}

// DocumentObserver is called with every accepted document, after its scene
// has been published. Observers run on the fetch goroutine and should not
// block.
type DocumentObserver func(ctx context.Context, doc *topology.Document)

// Option configures a [Poller].
type Option func(*Poller)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithObserver registers fn to receive every accepted document.
func WithObserver(fn DocumentObserver) Option {
	return func(p *Poller) { p.observers = append(p.observers, fn) }
}

// Poller polls a [Fetcher] and publishes snapshots.
type Poller struct {
	fetcher   Fetcher
	interval  time.Duration
	logger    *log.Logger
	observers []DocumentObserver
	now       func() time.Time

	refresh chan struct{}

	mu       sync.Mutex
	snap     Snapshot
	running  bool
	inFlight bool
	cancel   context.CancelFunc
	lastSeq  uint64
	applied  uint64
	skipped  uint64
	subs     map[uint64]chan Snapshot
	nextSub  uint64
	dangling map[topology.DanglingReference]struct{}

	wg sync.WaitGroup
}

// New creates a poller for f. It does nothing until [Poller.Run] is called.
func New(f Fetcher, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  f,
		interval: DefaultInterval,
		logger:   log.Default(),
		now:      time.Now,
		refresh:  make(chan struct{}, 1),
		snap:     Snapshot{State: StateLoading},
		subs:     make(map[uint64]chan Snapshot),
		dangling: make(map[topology.DanglingReference]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the polling interval.
func (p *Poller) Interval() time.Duration { return p.interval }

// Run polls until ctx is cancelled. The first fetch starts immediately.
// Run returns nil after a clean shutdown, or an error if it is already
// running.
func (p *Poller) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New(errors.ErrCodeInternal, "poller already running")
	}
	p.running = true
	p.mu.Unlock()

	p.logger.Info("Polling topology", "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer p.shutdown(ticker)

	p.trigger(ctx, "start")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.trigger(ctx, "tick")
		case <-p.refresh:
			p.trigger(ctx, "refresh")
		}
	}
}

// Refresh asks for an immediate fetch. It never blocks; the request is
// skipped like any tick if a fetch is already in flight.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Snapshot returns the current snapshot.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Skipped returns how many fetches were skipped by the overlap policy.
func (p *Poller) Skipped() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.skipped
}

// Subscribe returns a channel that receives every published snapshot,
// starting with the current one. Only the latest undelivered snapshot is
// kept for slow readers. Call cancel to unsubscribe; it closes the channel.
func (p *Poller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	ch <- p.snap
	p.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if _, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// trigger starts a fetch unless one is in flight.
func (p *Poller) trigger(ctx context.Context, reason string) {
	p.mu.Lock()
	if p.inFlight {
		p.skipped++
		p.mu.Unlock()
		p.logger.Debug("Skipping fetch, previous one still in flight", "trigger", reason)
		observability.Poll().OnPollSkipped(ctx, SkipInFlight)
		return
	}
	p.inFlight = true
	p.lastSeq++
	seq := p.lastSeq
	fctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	go p.fetch(fctx, cancel, seq)
}

func (p *Poller) fetch(ctx context.Context, cancel context.CancelFunc, seq uint64) {
	defer p.wg.Done()
	defer cancel()

	cycleID := uuid.NewString()
	logger := p.logger.With("seq", seq, "cycle", cycleID[:8])
	hooks := observability.Poll()
	start := p.now()
	hooks.OnPollStart(ctx, seq)

	doc, sc, refs, err := p.build(ctx)

	if ctx.Err() != nil {
		// Torn down mid-flight: leave the published state alone.
		p.mu.Lock()
		p.inFlight = false
		p.mu.Unlock()
		logger.Debug("Fetch cancelled")
		return
	}

	nodes := 0
	if doc != nil {
		nodes = doc.NodeCount()
	}
	hooks.OnPollComplete(ctx, seq, nodes, p.now().Sub(start), err)

	if !p.apply(seq, cycleID, sc, err) {
		logger.Debug("Discarding out-of-order completion")
		hooks.OnOutOfOrder(ctx, seq)
		return
	}

	if err != nil {
		logger.Error("Fetch failed", "code", errors.GetCode(err), "err", err)
		return
	}
	p.reportDangling(ctx, logger, refs)
	logger.Debug("Scene updated", "nodes", nodes, "edges", len(sc.Edges), "took", p.now().Sub(start).Round(time.Millisecond))

	for _, obs := range p.observers {
		obs(ctx, doc)
	}
}

// build fetches one document and turns it into a scene. It also returns
// the dangling references found on the way; they are reported only once
// the scene has been applied.
func (p *Poller) build(ctx context.Context) (*topology.Document, *scene.Scene, []topology.DanglingReference, error) {
	doc, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	var refs []topology.DanglingReference
	start := p.now()
	sc, err := scene.Generate(doc, scene.WithDanglingHandler(func(r topology.DanglingReference) {
		refs = append(refs, r)
	}))
	if err != nil {
		return nil, nil, nil, err
	}
	observability.Scene().OnSceneBuilt(ctx, len(sc.Nodes), len(sc.Edges), p.now().Sub(start))

	for _, r := range doc.DanglingReferences() {
		if r.Component {
			refs = append(refs, r)
		}
	}
	return doc, sc, refs, nil
}

// reportDangling logs references not seen in the previous accepted document.
func (p *Poller) reportDangling(ctx context.Context, logger *log.Logger, refs []topology.DanglingReference) {
	current := make(map[topology.DanglingReference]struct{}, len(refs))
	p.mu.Lock()
	var fresh []topology.DanglingReference
	for _, r := range refs {
		current[r] = struct{}{}
		if _, seen := p.dangling[r]; !seen {
			fresh = append(fresh, r)
		}
	}
	p.dangling = current
	p.mu.Unlock()

	for _, r := range fresh {
		logger.Warn("Dropping connection to unknown node", "from", r.From, "to", r.To, "port", r.Port, "category", r.Category)
		observability.Scene().OnDanglingReference(ctx, string(r.Category), r.From, r.To)
	}
}

// apply publishes the result of fetch seq. It reports false when a newer
// fetch was already applied.
func (p *Poller) apply(seq uint64, cycleID string, sc *scene.Scene, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if seq == p.lastSeq {
		p.inFlight = false
	}
	if seq <= p.applied {
		return false
	}
	p.applied = seq
	p.snap = p.snap.next(seq, cycleID, sc, err, p.now())

	for _, ch := range p.subs {
		publish(ch, p.snap)
	}
	return true
}

// publish replaces any undelivered snapshot in ch with s.
func publish(ch chan Snapshot, s Snapshot) {
	select {
	case <-ch:
	default:
	}
	ch <- s
}

func (p *Poller) shutdown(ticker *time.Ticker) {
	ticker.Stop()

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()

	p.wg.Wait()

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	p.logger.Debug("Poller stopped")
}
