package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/topoview/pkg/alert"
	"github.com/matzehuels/topoview/pkg/client"
	"github.com/matzehuels/topoview/pkg/config"
	"github.com/matzehuels/topoview/pkg/httputil"
	"github.com/matzehuels/topoview/pkg/metrics"
	"github.com/matzehuels/topoview/pkg/observability"
	"github.com/matzehuels/topoview/pkg/poller"
	"github.com/matzehuels/topoview/pkg/topology"
)

// retryDelay is the first backoff delay between fetch attempts.
const retryDelay = 250 * time.Millisecond

// newClient builds the backend client from cfg.
func newClient(cfg *config.Config) (*client.Client, error) {
	return client.New(cfg.BackendURL,
		client.WithTimeout(cfg.Timeout),
		client.WithRetry(httputil.Policy{
			Attempts: cfg.Retries,
			Delay:    retryDelay,
			MaxDelay: cfg.Interval / 2,
		}),
	)
}

// newTracker builds the alert tracker, or returns nil when alerts are off.
// Alerts are always logged; mail is added when SMTP is configured.
func newTracker(cfg *config.Config, logger *log.Logger) (*alert.Tracker, error) {
	if !cfg.Alerts.Enabled {
		return nil, nil
	}
	opts := []alert.TrackerOption{
		alert.WithLogger(logger),
		alert.WithNotifier(alert.LogNotifier{Logger: logger}),
	}
	if cfg.Alerts.SMTP.Host != "" {
		n, err := alert.NewSMTPNotifier(cfg.Alerts.SMTP)
		if err != nil {
			return nil, err
		}
		opts = append(opts, alert.WithNotifier(n))
		logger.Info("Mailing critical alerts", "relay", cfg.Alerts.SMTP.Addr(), "to", cfg.Alerts.SMTP.To)
	}
	return alert.NewTracker(opts...), nil
}

// pipeline is the polling stack shared by watch and serve.
type pipeline struct {
	poller  *poller.Poller
	tracker *alert.Tracker
}

// newPipeline wires client, alert tracker and poller together.
func newPipeline(cfg *config.Config, logger *log.Logger) (*pipeline, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	tracker, err := newTracker(cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := []poller.Option{
		poller.WithInterval(cfg.Interval),
		poller.WithLogger(logger),
	}
	if tracker != nil {
		opts = append(opts, poller.WithObserver(func(ctx context.Context, doc *topology.Document) {
			tracker.Observe(ctx, doc)
		}))
	}
	logger.Debug("Using backend", "endpoint", c.Endpoint(), "interval", cfg.Interval, "retries", cfg.Retries)
	return &pipeline{poller: poller.New(c, opts...), tracker: tracker}, nil
}

// wait blocks until background alert deliveries have finished.
func (p *pipeline) wait() {
	if p.tracker != nil {
		p.tracker.Wait()
	}
}

// registerMetrics routes all observability hooks to the default registry.
func registerMetrics() *metrics.Registry {
	reg := metrics.DefaultRegistry()
	observability.SetPollHooks(reg)
	observability.SetSceneHooks(reg)
	observability.SetAlertHooks(reg)
	observability.SetHTTPHooks(reg)
	return reg
}
