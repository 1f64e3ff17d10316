package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/poller"
	"github.com/matzehuels/topoview/pkg/scene"
	"github.com/matzehuels/topoview/pkg/topology"
)

func labSnapshot(t *testing.T, state poller.State) poller.Snapshot {
	t.Helper()
	doc, err := topology.ReadFile(labFile)
	if err != nil {
		t.Fatal(err)
	}
	sc, err := scene.Generate(doc)
	if err != nil {
		t.Fatal(err)
	}
	return poller.Snapshot{
		Seq:       1,
		State:     state,
		Scene:     sc,
		UpdatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func update(m watchModel, msg tea.Msg) watchModel {
	next, _ := m.Update(msg)
	return next.(watchModel)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestWatchViewStates(t *testing.T) {
	stale := labSnapshot(t, poller.StateStale)
	stale.Error = "connection refused"
	stale.ErrorCode = errors.ErrCodeFetch

	tests := []struct {
		name    string
		snap    poller.Snapshot
		want    []string
		notWant []string
	}{
		{
			name:    "Loading",
			snap:    poller.Snapshot{State: poller.StateLoading},
			want:    []string{"Loading topology", "Waiting for first response", "● loading"},
			notWant: []string{"Cannot load topology"},
		},
		{
			name: "FailedBeforeFirstSuccess",
			snap: poller.Snapshot{State: poller.StateFailed, Error: "connection refused", ErrorCode: errors.ErrCodeFetch},
			want: []string{"Cannot load topology", "FETCH_ERROR: connection refused", "● failed"},
		},
		{
			name:    "Ready",
			snap:    labSnapshot(t, poller.StateReady),
			want:    []string{"HPE Lab Architecture", "kvm-01", "Updated 10:00:00", "● ready"},
			notWant: []string{"Cannot load topology", "Loading topology"},
		},
		{
			name:    "StaleKeepsScene",
			snap:    stale,
			want:    []string{"kvm-01", "Showing data from 10:00:00", "connection refused", "● stale"},
			notWant: []string{"Cannot load topology"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := update(newWatchModel(nil, func() {}, "http://backend"), snapshotMsg(tt.snap))
			view := m.View()
			for _, w := range tt.want {
				if !strings.Contains(view, w) {
					t.Errorf("view missing %q\n%s", w, view)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(view, w) {
					t.Errorf("view should not contain %q\n%s", w, view)
				}
			}
		})
	}
}

func TestWatchRefreshKey(t *testing.T) {
	calls := 0
	m := newWatchModel(nil, func() { calls++ }, "")
	m = update(m, key("r"))
	if calls != 1 {
		t.Errorf("refresh calls = %d, want 1", calls)
	}
}

func TestWatchQuit(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		var msg tea.Msg = key(k)
		if k == "ctrl+c" {
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		}
		_, cmd := newWatchModel(nil, func() {}, "").Update(msg)
		if cmd == nil {
			t.Fatalf("%s: no command returned", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s should quit", k)
		}
	}
}

func TestWatchSelection(t *testing.T) {
	m := update(newWatchModel(nil, func() {}, ""), snapshotMsg(labSnapshot(t, poller.StateReady)))
	if m.selectedID() != "" {
		t.Fatal("nothing should be selected initially")
	}

	m = update(m, key("down"))
	if m.selectedID() != "s1" {
		t.Errorf("selected = %q, want s1", m.selectedID())
	}
	if !strings.Contains(m.View(), "MAC: aa:bb:cc:00:00:01") {
		t.Error("selected node details should be shown")
	}

	m = update(m, key("up"))
	if m.selectedID() != "b1" {
		t.Errorf("selected = %q, want wrap to last node b1", m.selectedID())
	}

	m = update(m, key("esc"))
	if m.selectedID() != "" {
		t.Error("esc should clear the selection")
	}
}

func TestWatchSelectionSurvivesShrink(t *testing.T) {
	m := update(newWatchModel(nil, func() {}, ""), snapshotMsg(labSnapshot(t, poller.StateReady)))
	for range 5 {
		m = update(m, key("down"))
	}

	small := labSnapshot(t, poller.StateReady)
	small.Scene.Nodes = small.Scene.Nodes[:2]
	m = update(m, snapshotMsg(small))
	if m.selectedID() != "" {
		t.Errorf("out-of-range selection should reset, got %q", m.selectedID())
	}
}

func TestWaitForSnapshot(t *testing.T) {
	ch := make(chan poller.Snapshot, 1)
	ch <- poller.Snapshot{Seq: 9}
	if msg, ok := waitForSnapshot(ch)().(snapshotMsg); !ok || msg.Seq != 9 {
		t.Errorf("msg = %#v", msg)
	}
	close(ch)
	if _, ok := waitForSnapshot(ch)().(closedMsg); !ok {
		t.Error("closed channel should yield closedMsg")
	}
}

func TestColumnWidth(t *testing.T) {
	tests := map[int]int{0: 30, 120: 39, 30: 16}
	for term, want := range tests {
		if got := columnWidth(term); got != want {
			t.Errorf("columnWidth(%d) = %d, want %d", term, got, want)
		}
	}
}
