package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/poller"
	"github.com/matzehuels/topoview/pkg/render/text"
)

func (c *CLI) watchCommand() *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the topology in an interactive terminal view",
		Long: `Poll the backend and show the topology in the terminal.

The view refreshes on every poll. If a fetch fails after the first success
the last topology stays on screen with a notice; only a failure before the
first success replaces it with an error.

Keys: r refresh, up/down select a node, esc clear selection, q quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}

			// Log lines would tear the full-screen view, so they go to a
			// file or nowhere.
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return errors.Wrap(errors.ErrCodeInvalidInput, err, "open log file")
				}
				defer f.Close()
				logOut = f
			}
			c.Logger.SetOutput(logOut)

			registerMetrics()
			p, err := newPipeline(cfg, c.Logger)
			if err != nil {
				return err
			}
			return c.runWatch(cmd.Context(), cmd.OutOrStdout(), p, cfg.BackendURL)
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while the view is open")
	cmd.Flags().Bool("alerts", false, "alert on nodes turning critical")
	return cmd
}

func (c *CLI) runWatch(ctx context.Context, out io.Writer, p *pipeline, backend string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.poller.Run(ctx); err != nil {
			c.Logger.Error("Poller stopped", "err", err)
		}
	}()

	updates, unsubscribe := p.poller.Subscribe()
	defer unsubscribe()

	m := newWatchModel(updates, p.poller.Refresh, backend)
	_, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(out), tea.WithAltScreen()).Run()

	cancel()
	<-done
	p.wait()

	if ctx.Err() != nil && cmdCancelled(err) {
		return context.Canceled
	}
	return err
}

// cmdCancelled reports whether err only says the program was stopped.
func cmdCancelled(err error) bool {
	return err == nil || stderrors.Is(err, tea.ErrProgramKilled) || stderrors.Is(err, context.Canceled)
}

// =============================================================================
// Model
// =============================================================================

type snapshotMsg poller.Snapshot

type closedMsg struct{}

// watchModel is the bubbletea model of the watch view.
type watchModel struct {
	snap     poller.Snapshot
	updates  <-chan poller.Snapshot
	refresh  func()
	backend  string
	selected int // index into the scene's nodes, -1 for none
	width    int
}

func newWatchModel(updates <-chan poller.Snapshot, refresh func(), backend string) watchModel {
	return watchModel{
		snap:     poller.Snapshot{State: poller.StateLoading},
		updates:  updates,
		refresh:  refresh,
		backend:  backend,
		selected: -1,
	}
}

func waitForSnapshot(ch <-chan poller.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return snapshotMsg(s)
	}
}

func (m watchModel) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snap = poller.Snapshot(msg)
		if m.selected >= m.nodeCount() {
			m.selected = -1
		}
		return m, waitForSnapshot(m.updates)
	case closedMsg:
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.refresh()
		case "esc":
			m.selected = -1
		case "down", "j", "tab":
			if n := m.nodeCount(); n > 0 {
				m.selected = (m.selected + 1) % n
			}
		case "up", "k", "shift+tab":
			if n := m.nodeCount(); n > 0 {
				m.selected = (m.selected - 1 + n) % n
			}
		}
	}
	return m, nil
}

func (m watchModel) nodeCount() int {
	if m.snap.Scene == nil {
		return 0
	}
	return len(m.snap.Scene.Nodes)
}

func (m watchModel) selectedID() string {
	if m.selected < 0 || m.selected >= m.nodeCount() {
		return ""
	}
	return m.snap.Scene.Nodes[m.selected].NodeID
}

func (m watchModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(appName) + " " + StyleDim.Render(m.backend) + "  " + stateBadge(m.snap.State))
	b.WriteString("\n\n")

	switch {
	case m.snap.Banner():
		b.WriteString(styleBanner.Render(fmt.Sprintf("Cannot load topology\n\n%s: %s", m.snap.ErrorCode, m.snap.Error)))
	case !m.snap.HasScene():
		b.WriteString(StyleDim.Render("Loading topology…"))
	default:
		b.WriteString(text.Render(m.snap.Scene, text.Options{
			ColumnWidth: columnWidth(m.width),
			Selected:    m.selectedID(),
		}))
	}

	b.WriteString("\n\n")
	b.WriteString(m.status())
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("r refresh · ↑/↓ select · esc clear · q quit"))
	return b.String()
}

func (m watchModel) status() string {
	s := m.snap
	var msg string
	switch s.State {
	case poller.StateReady:
		msg = "Updated " + s.UpdatedAt.Format(time.TimeOnly)
	case poller.StateStale:
		msg = fmt.Sprintf("Showing data from %s, last fetch failed: %s", s.UpdatedAt.Format(time.TimeOnly), s.Error)
	case poller.StateFailed:
		msg = "Retrying at the next poll"
	default:
		msg = "Waiting for first response"
	}
	if s.State == poller.StateReady {
		return StyleDim.Render(msg)
	}
	return stateStyle(s.State).Render(msg)
}

// columnWidth splits the terminal into three columns.
func columnWidth(termWidth int) int {
	if termWidth <= 0 {
		return text.DefaultColumnWidth
	}
	return max(termWidth/3-1, 16)
}
