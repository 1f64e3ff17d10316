package poller

import (
	"time"

	"github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/scene"
)

// State is the display state derived from the fetch history.
type State string

const (
	// StateLoading means no fetch has completed yet.
	StateLoading State = "loading"
	// StateReady means the last fetch succeeded.
	StateReady State = "ready"
	// StateStale means a scene exists but the last fetch failed.
	StateStale State = "stale"
	// StateFailed means every fetch so far has failed; there is no scene.
	StateFailed State = "failed"
)

// Snapshot is an immutable view of the poller at one point in time.
//
// Scene is the last successfully built scene, or nil. It is shared between
// snapshots and must not be modified.
type Snapshot struct {
	Seq       uint64       `json:"seq"`
	CycleID   string       `json:"cycle_id,omitempty"`
	State     State        `json:"state"`
	Scene     *scene.Scene `json:"scene,omitempty"`
	Error     string       `json:"error,omitempty"`
	ErrorCode errors.Code  `json:"error_code,omitempty"`
	UpdatedAt time.Time    `json:"updated_at,omitzero"`
	CheckedAt time.Time    `json:"checked_at,omitzero"`
}

// HasScene reports whether a scene can be shown.
func (s Snapshot) HasScene() bool { return s.Scene != nil }

// Banner reports whether the error should replace the diagram. That is only
// the case before the first successful fetch.
func (s Snapshot) Banner() bool { return s.State == StateFailed }

// next derives the snapshot that follows s after a completed fetch.
func (s Snapshot) next(seq uint64, cycleID string, sc *scene.Scene, err error, now time.Time) Snapshot {
	n := s
	n.Seq = seq
	n.CycleID = cycleID
	n.CheckedAt = now

	if err == nil {
		n.State = StateReady
		n.Scene = sc
		n.Error = ""
		n.ErrorCode = ""
		n.UpdatedAt = now
		return n
	}

	n.Error = errors.UserMessage(err)
	n.ErrorCode = errors.CodeOr(err, errors.ErrCodeInternal)
	if n.Scene != nil {
		n.State = StateStale
	} else {
		n.State = StateFailed
	}
	return n
}
