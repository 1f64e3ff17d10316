// Package cli implements the topoview command-line interface.
//
// # Commands
//
//   - watch: interactive terminal view that follows the backend
//   - serve: poll the backend and serve scenes over HTTP
//   - render: one-shot rendering of a topology document (json, dot, svg, text)
//   - legend: print the health legend
//
// # Configuration
//
// Settings come from defaults, topoview.toml (or --config), TOPOVIEW_*
// environment variables and flags, in that order of precedence. See
// package config.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Logs go to
// stderr so they never mix with rendered output on stdout.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/topoview/pkg/buildinfo"
	"github.com/matzehuels/topoview/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "topoview"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives rendered output. It defaults to stdout.
	Out io.Writer

	configFile string
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Topoview shows the live topology of a private cloud",
		Long:         `Topoview polls a topology backend and lays servers, network switches, storage and backup units out in fixed columns, with connections colored by health.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	if c.Out != nil {
		root.SetOut(c.Out)
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configFile, "config", "", "config file (default "+config.DefaultFile+" if present)")
	pf.String("backend-url", config.DefaultBackendURL, "topology backend base URL")
	pf.Duration("interval", config.DefaultInterval, "polling interval")
	pf.Duration("timeout", 0, "request timeout (0 for none)")
	pf.Int("retries", config.DefaultRetries, "attempts per fetch for transient failures")

	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.legendCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig resolves settings for cmd, including its inherited flags.
func (c *CLI) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Loader{File: c.configFile}.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if cfg.Verbose {
		c.SetLogLevel(LogDebug)
	}
	return cfg, nil
}
