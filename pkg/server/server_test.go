package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/metrics"
	"github.com/matzehuels/topoview/pkg/poller"
	"github.com/matzehuels/topoview/pkg/scene"
	"github.com/matzehuels/topoview/pkg/topology"
)

const labJSON = `{
	"servers": [{"id": "s1", "name": "web", "health": "healthy", "connected_switches": [{"switch_id": "sw1", "port": 3}]}],
	"network_switches": [{"id": "sw1", "name": "core"}],
	"storage": [],
	"backup": [],
	"private_cloud": {"name": "Lab"},
	"health_color_map": {"healthy": "green"}
}`

// fakeSource serves a fixed snapshot and lets tests push updates.
type fakeSource struct {
	mu        sync.Mutex
	snap      poller.Snapshot
	subs      []chan poller.Snapshot
	refreshes atomic.Int32
}

func (f *fakeSource) Snapshot() poller.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSource) Subscribe() (<-chan poller.Snapshot, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan poller.Snapshot, 1)
	ch <- f.snap
	f.subs = append(f.subs, ch)
	return ch, func() {}
}

func (f *fakeSource) Refresh() { f.refreshes.Add(1) }

func (f *fakeSource) push(s poller.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = s
	for _, ch := range f.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

func labScene(t *testing.T) *scene.Scene {
	t.Helper()
	doc, err := topology.Parse([]byte(labJSON))
	require.NoError(t, err)
	sc, err := scene.Generate(doc)
	require.NoError(t, err)
	return sc
}

func ready(t *testing.T) *fakeSource {
	return &fakeSource{snap: poller.Snapshot{Seq: 1, State: poller.StateReady, Scene: labScene(t)}}
}

func newTestServer(src Source, opts ...Option) *httptest.Server {
	opts = append([]Option{WithLogger(log.New(io.Discard))}, opts...)
	return httptest.NewServer(New(src, opts...).Handler())
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestScene(t *testing.T) {
	ts := newTestServer(ready(t))
	defer ts.Close()

	resp, body := get(t, ts.URL+"/api/scene")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "ready", resp.Header.Get(StateHeader))

	var sc scene.Scene
	require.NoError(t, json.Unmarshal(body, &sc))
	assert.Equal(t, "Lab Architecture", sc.Title)
	assert.Len(t, sc.Nodes, 2)
	assert.Len(t, sc.Edges, 1)
}

func TestSceneNotReady(t *testing.T) {
	tests := []struct {
		name     string
		snap     poller.Snapshot
		wantCode errors.Code
		wantMsg  string
	}{
		{"Loading", poller.Snapshot{State: poller.StateLoading}, errors.ErrCodeNotReady, "no topology fetched yet"},
		{"Failed", poller.Snapshot{State: poller.StateFailed, Error: "connection refused", ErrorCode: errors.ErrCodeFetch}, errors.ErrCodeFetch, "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(&fakeSource{snap: tt.snap})
			defer ts.Close()

			for _, path := range []string{"/api/scene", "/api/legend", "/api/scene.svg", "/api/scene.dot", "/api/nodes/s1"} {
				resp, body := get(t, ts.URL+path)
				assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, path)

				var e errorBody
				require.NoError(t, json.Unmarshal(body, &e), path)
				assert.Equal(t, tt.wantCode, e.Code, path)
				assert.Equal(t, tt.wantMsg, e.Error, path)
			}
		})
	}
}

func TestStaleSceneIsServed(t *testing.T) {
	src := &fakeSource{snap: poller.Snapshot{
		Seq: 4, State: poller.StateStale, Scene: labScene(t),
		Error: "timeout", ErrorCode: errors.ErrCodeFetch,
	}}
	ts := newTestServer(src)
	defer ts.Close()

	resp, _ := get(t, ts.URL+"/api/scene")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "stale", resp.Header.Get(StateHeader))
	assert.Equal(t, "FETCH_ERROR: timeout", resp.Header.Get(ErrorHeader))
}

func TestSnapshot(t *testing.T) {
	ts := newTestServer(ready(t))
	defer ts.Close()

	resp, body := get(t, ts.URL+"/api/snapshot")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap poller.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, poller.StateReady, snap.State)
	require.NotNil(t, snap.Scene)
	assert.Equal(t, "Lab", snap.Scene.CloudName)
}

func TestLegend(t *testing.T) {
	ts := newTestServer(ready(t))
	defer ts.Close()

	resp, body := get(t, ts.URL+"/api/legend")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var legend []scene.LegendEntry
	require.NoError(t, json.Unmarshal(body, &legend))
	assert.Equal(t, []scene.LegendEntry{{Status: "healthy", Color: "green"}}, legend)
}

func TestNode(t *testing.T) {
	ts := newTestServer(ready(t))
	defer ts.Close()

	resp, body := get(t, ts.URL+"/api/nodes/s1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Node  scene.NodeMark   `json:"node"`
		Edges []scene.EdgeMark `json:"edges"`
		Hover string           `json:"hover"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "s1", got.Node.NodeID)
	assert.Len(t, got.Edges, 1)
	assert.True(t, strings.HasPrefix(got.Hover, "web\nID: s1"))

	resp, body = get(t, ts.URL+"/api/nodes/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), `"code": "NOT_FOUND"`)
}

func TestSceneDOT(t *testing.T) {
	ts := newTestServer(ready(t))
	defer ts.Close()

	resp, body := get(t, ts.URL+"/api/scene.dot")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/vnd.graphviz")
	assert.Contains(t, string(body), `"node/s1" -> "node/sw1"`)
}

func TestSceneSVG(t *testing.T) {
	ts := newTestServer(ready(t))
	defer ts.Close()

	resp, body := get(t, ts.URL+"/api/scene.svg")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "<svg")
}

func TestRefresh(t *testing.T) {
	src := ready(t)
	ts := newTestServer(src)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/refresh", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, int32(1), src.refreshes.Load())

	resp, _ = get(t, ts.URL+"/api/refresh")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(ready(t))
	defer ts.Close()

	resp, body := get(t, ts.URL+"/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"state": "ready"`)
	assert.Contains(t, string(body), `"version": "dev"`)
}

// readEvent reads one SSE message, skipping comments.
func readEvent(t *testing.T, r *bufio.Reader) (string, poller.Snapshot) {
	t.Helper()
	var event string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			var snap poller.Snapshot
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snap))
			return event, snap
		}
	}
}

func TestEvents(t *testing.T) {
	src := ready(t)
	reg := metrics.NewRegistry()
	ts := newTestServer(src, WithMetrics(reg), WithHeartbeat(time.Hour))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	event, snap := readEvent(t, r)
	assert.Equal(t, SnapshotEvent, event)
	assert.Equal(t, uint64(1), snap.Seq)
	assert.Equal(t, poller.StateReady, snap.State)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.SSEClients))

	src.push(poller.Snapshot{Seq: 2, State: poller.StateStale, Scene: snap.Scene, Error: "timeout"})
	_, snap = readEvent(t, r)
	assert.Equal(t, uint64(2), snap.Seq)
	assert.Equal(t, poller.StateStale, snap.State)

	cancel()
	require.Eventually(t, func() bool { return testutil.ToFloat64(reg.SSEClients) == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	ts := newTestServer(ready(t), WithMetrics(reg))
	defer ts.Close()

	get(t, ts.URL+"/api/scene")
	get(t, ts.URL+"/api/nodes/s1")

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.HTTPRequestsTotal.WithLabelValues("GET", "/api/scene", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.HTTPRequestsTotal.WithLabelValues("GET", "/api/nodes/{id}", "200")))

	resp, body := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "topoview_http_requests_total")
}

func TestListenAndServe(t *testing.T) {
	s := New(ready(t), WithLogger(log.New(io.Discard)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ListenAndServe did not return")
	}
}
