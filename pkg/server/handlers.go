package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/topoview/pkg/buildinfo"
	"github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/render/dot"
	"github.com/matzehuels/topoview/pkg/scene"
)

// Headers set on every scene response.
const (
	StateHeader = "X-Topology-State"
	ErrorHeader = "X-Topology-Error"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.src.Snapshot()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"state":  snap.State,
		"seq":    snap.Seq,
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.src.Snapshot())
}

// currentScene returns the scene to serve, or writes a 503 and returns nil.
func (s *Server) currentScene(w http.ResponseWriter) *scene.Scene {
	snap := s.src.Snapshot()
	w.Header().Set(StateHeader, string(snap.State))
	if snap.Error != "" {
		w.Header().Set(ErrorHeader, string(snap.ErrorCode)+": "+sanitizeHeader(snap.Error))
	}
	if snap.HasScene() {
		return snap.Scene
	}

	body := errorBody{Code: errors.ErrCodeNotReady, Error: "no topology fetched yet", State: string(snap.State)}
	if snap.Banner() {
		body.Code = snap.ErrorCode
		body.Error = snap.Error
	}
	w.Header().Set("Retry-After", "5")
	s.writeJSON(w, http.StatusServiceUnavailable, body)
	return nil
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	if sc := s.currentScene(w); sc != nil {
		s.writeJSON(w, http.StatusOK, sc)
	}
}

func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request) {
	if sc := s.currentScene(w); sc != nil {
		s.writeJSON(w, http.StatusOK, sc.Legend)
	}
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	sc := s.currentScene(w)
	if sc == nil {
		return
	}
	id := chi.URLParam(r, "id")
	n, ok := sc.Node(id)
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "unknown node %q", id))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"node":  n,
		"edges": sc.EdgesFrom(id),
		"hover": scene.FormatHover(n.Hover),
	})
}

func (s *Server) handleSceneDOT(w http.ResponseWriter, r *http.Request) {
	sc := s.currentScene(w)
	if sc == nil {
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.Write([]byte(dot.ToDOT(sc, dot.Options{})))
}

func (s *Server) handleSceneSVG(w http.ResponseWriter, r *http.Request) {
	sc := s.currentScene(w)
	if sc == nil {
		return
	}
	svg, err := dot.Render(r.Context(), sc, dot.Options{})
	if err != nil {
		s.logger.Error("Render SVG", "err", err)
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render failed"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.src.Refresh()
	s.writeJSON(w, http.StatusAccepted, map[string]any{"status": "refresh requested"})
}

// handleEvents streams snapshots as server-sent events. The current
// snapshot is sent first; slow clients only receive the latest one.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeInternal, "streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ch, cancel := s.src.Subscribe()
	defer cancel()

	if s.metrics != nil {
		s.metrics.SSEClients.Inc()
		defer s.metrics.SSEClients.Dec()
	}

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case snap, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, snap); err != nil {
				s.logger.Debug("Event stream closed", "err", err)
				return
			}
			flusher.Flush()
		}
	}
}

func sanitizeHeader(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s)
}
