package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/topoview/pkg/config"
	"github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/observability"
	"github.com/matzehuels/topoview/pkg/scene"
)

const labFile = "testdata/lab.json"

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr, logs bytes.Buffer
	c := New(&logs, LogInfo)
	c.Out = &stdout

	root := c.RootCommand()
	root.SetErr(&stderr)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{"watch", "serve", "render", "legend", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
	for _, flag := range []string{"config", "backend-url", "interval", "timeout", "retries"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestRenderFormats(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{formatJSON, []string{`"title": "HPE Lab Architecture"`, `"node_marks"`, `"label": "Port: 3"`}},
		{formatDOT, []string{"digraph topology {", `"node/s1" -> "node/sw1"`, "shape=cylinder"}},
		{formatText, []string{"HPE Lab Architecture", "kvm-01", "→ sw1:3", "Storage & Backup"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, _, err := execute(t, nil, "render", labFile, "--format", tt.format)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q\n%s", w, out)
				}
			}
		})
	}
}

func TestRenderJSONDropsDanglingEdges(t *testing.T) {
	out, _, err := execute(t, nil, "render", labFile, "--format", "json")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var sc scene.Scene
	if err := json.Unmarshal([]byte(out), &sc); err != nil {
		t.Fatalf("output is not scene JSON: %v", err)
	}
	for _, e := range sc.Edges {
		if e.To == "sw9" {
			t.Error("edge to unknown switch sw9 should be dropped")
		}
	}
	if len(sc.Nodes) != 6 {
		t.Errorf("nodes = %d, want 6", len(sc.Nodes))
	}
}

func TestRenderSVGToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lab.svg")
	out, stderr, err := execute(t, nil, "render", labFile, "-f", "svg", "-o", path)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "" {
		t.Errorf("stdout should be empty when writing a file, got %q", out)
	}
	if !strings.Contains(stderr, path) {
		t.Errorf("stderr should name the output file: %q", stderr)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Error("output file is not SVG")
	}
}

func TestRenderStdin(t *testing.T) {
	data, err := os.ReadFile(labFile)
	if err != nil {
		t.Fatal(err)
	}
	out, _, err := execute(t, bytes.NewReader(data), "render", "-", "--format", "text", "--select", "s1")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "IP: 10.0.0.11") {
		t.Errorf("selected node details missing\n%s", out)
	}
}

func TestRenderErrors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte(`{"servers": []}`), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want errors.Code
	}{
		{"UnknownFormat", []string{"render", labFile, "--format", "png"}, errors.ErrCodeInvalidFormat},
		{"IncompleteDocument", []string{"render", broken}, errors.ErrCodeSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, nil, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestRenderFetchesFromBackend(t *testing.T) {
	data, err := os.ReadFile(labFile)
	if err != nil {
		t.Fatal(err)
	}
	t.Chdir(t.TempDir())
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer backend.Close()

	out, _, err := execute(t, nil, "render", "--backend-url", backend.URL, "--format", "dot")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `"node/st1" -> "node/sw1"`) {
		t.Errorf("unexpected DOT\n%s", out)
	}
}

func TestRenderBackendDown(t *testing.T) {
	t.Chdir(t.TempDir())
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer backend.Close()

	_, _, err := execute(t, nil, "render", "--backend-url", backend.URL)
	if !errors.IsFetch(err) {
		t.Errorf("err = %v, want FETCH_ERROR", err)
	}
}

func TestLegend(t *testing.T) {
	out, _, err := execute(t, nil, "legend", labFile)
	if err != nil {
		t.Fatalf("legend: %v", err)
	}
	for _, w := range []string{"healthy", "degraded", "orange", "critical", "unknown"} {
		if !strings.Contains(out, w) {
			t.Errorf("legend missing %q\n%s", w, out)
		}
	}
	if strings.Index(out, "healthy") > strings.Index(out, "critical") {
		t.Error("legend should keep document order")
	}
}

func TestLegendDefaultsJSON(t *testing.T) {
	out, _, err := execute(t, nil, "legend", "--defaults", "--json")
	if err != nil {
		t.Fatalf("legend: %v", err)
	}
	var entries []scene.LegendEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("not JSON: %v\n%s", err, out)
	}
	if len(entries) == 0 || entries[0].Status != "healthy" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestCompletion(t *testing.T) {
	out, _, err := execute(t, nil, "completion", "bash")
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if !strings.Contains(out, "topoview") {
		t.Error("bash completion should mention the command name")
	}
}

func TestCompleteSelect(t *testing.T) {
	out, _, err := execute(t, nil, "__complete", "render", labFile, "--select", "sw")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !strings.Contains(out, "sw1") {
		t.Errorf("switch ids not offered:\n%s", out)
	}
	if strings.Contains(out, "s1\t") {
		t.Errorf("ids without the typed prefix offered:\n%s", out)
	}
}

func TestNewTracker(t *testing.T) {
	logger := newLogger(io.Discard, LogInfo)

	cfg := config.Default()
	tr, err := newTracker(&cfg, logger)
	if err != nil || tr != nil {
		t.Errorf("alerts off: tracker = %v, err = %v", tr, err)
	}

	cfg.Alerts.Enabled = true
	if tr, err = newTracker(&cfg, logger); err != nil || tr == nil {
		t.Errorf("log-only alerts: tracker = %v, err = %v", tr, err)
	}

	cfg.Alerts.SMTP.Host = "mail.example.com"
	if _, err = newTracker(&cfg, logger); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("incomplete smtp: err = %v, want INVALID_INPUT", err)
	}
}

func TestRegisterMetrics(t *testing.T) {
	defer observability.Reset()
	reg := registerMetrics()
	if observability.Poll() != reg || observability.Scene() != reg {
		t.Error("metrics registry should receive poll and scene hooks")
	}
}
