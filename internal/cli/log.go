package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/topoview/pkg/poller"
)

// newLogger creates a logger with "HH:MM:SS.cc" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with a "took" field holding the elapsed time.
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "took", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

// logTransitions logs each change of display state read from snaps until
// the channel closes. Repeated snapshots in the same state are not logged;
// the poller already reports every failed fetch.
func logTransitions(logger *log.Logger, snaps <-chan poller.Snapshot) {
	var last poller.State
	for s := range snaps {
		if s.State == last {
			continue
		}
		switch s.State {
		case poller.StateReady:
			logger.Info("Topology ready", "nodes", len(s.Scene.Nodes), "edges", len(s.Scene.Edges))
		case poller.StateStale:
			logger.Warn("Serving stale topology", "since", s.UpdatedAt.Format(time.TimeOnly), "code", s.ErrorCode)
		case poller.StateFailed:
			logger.Warn("No topology available", "code", s.ErrorCode)
		}
		last = s.State
	}
}
