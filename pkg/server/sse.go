package server

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/topoview/pkg/poller"
)

// SnapshotEvent is the SSE event name for snapshot updates.
const SnapshotEvent = "snapshot"

// writeEvent writes snap as one SSE message. The sequence number doubles
// as the event id.
func writeEvent(w io.Writer, snap poller.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", snap.Seq, SnapshotEvent, data)
	return err
}
