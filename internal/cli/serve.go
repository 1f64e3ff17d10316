package cli

import (
	"context"
	"sync"

	"github.com/spf13/cobra"

	"github.com/matzehuels/topoview/pkg/config"
	"github.com/matzehuels/topoview/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Poll the backend and serve scenes over HTTP",
		Long: `Poll the topology backend and serve the current scene over HTTP.

Browsers and dashboards read /api/scene (JSON), /api/scene.svg or the
/api/events stream. Prometheus metrics are served on /metrics.`,
		Example: `  topoview serve --backend-url http://topology:5000 --listen :8080
  topoview serve --alerts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			reg := registerMetrics()
			p, err := newPipeline(cfg, c.Logger)
			if err != nil {
				return err
			}
			srv := server.New(p.poller, server.WithLogger(c.Logger), server.WithMetrics(reg))
			return c.runServe(cmd.Context(), p, srv, cfg.Listen)
		},
	}

	cmd.Flags().String("listen", config.DefaultListen, "HTTP listen address")
	cmd.Flags().Bool("alerts", false, "alert on nodes turning critical")
	return cmd
}

// runServe runs poller and server until ctx ends or the server fails.
func (c *CLI) runServe(ctx context.Context, p *pipeline, srv *server.Server, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snaps, unsubscribe := p.poller.Subscribe()
	defer unsubscribe()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		logTransitions(c.Logger, snaps)
	}()
	go func() {
		defer wg.Done()
		if err := p.poller.Run(ctx); err != nil {
			c.Logger.Error("Poller stopped", "err", err)
		}
	}()

	err := srv.ListenAndServe(ctx, addr)
	cancel()
	unsubscribe()
	wg.Wait()
	p.wait()
	return err
}
