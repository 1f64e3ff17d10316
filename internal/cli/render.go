package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/render/dot"
	"github.com/matzehuels/topoview/pkg/render/text"
	"github.com/matzehuels/topoview/pkg/scene"
	"github.com/matzehuels/topoview/pkg/topology"
)

// Output formats.
const (
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
	formatText = "text"
)

var formats = []string{formatJSON, formatDOT, formatSVG, formatText}

// renderOpts holds the flags of the render command.
type renderOpts struct {
	format   string
	output   string
	width    float64
	height   float64
	noLegend bool
	selected string
}

func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: formatText}

	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render a topology document once",
		Long: `Render a topology document as scene JSON, Graphviz DOT, SVG or a terminal view.

Without an argument the document is fetched once from the backend. A file
argument reads it from disk, and "-" reads it from stdin.`,
		Example: `  topoview render --format svg -o topology.svg
  topoview render topology.json --format json
  curl -s localhost:5000/api/topology_data | topoview render - --format text`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format); err != nil {
				return err
			}
			doc, err := c.loadDocument(cmd, args)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), doc, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", opts.format, "output format: "+strings.Join(formats, ", "))
	f.StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	f.Float64Var(&opts.width, "width", dot.DefaultWidth, "canvas width in inches (dot, svg)")
	f.Float64Var(&opts.height, "height", dot.DefaultHeight, "canvas height in inches (dot, svg)")
	f.BoolVar(&opts.noLegend, "no-legend", false, "omit the health legend")
	f.StringVar(&opts.selected, "select", "", "node id to highlight and describe (text)")
	cmd.RegisterFlagCompletionFunc("format", completeFormats)
	cmd.RegisterFlagCompletionFunc("select", completeNodeIDs)
	return cmd
}

func validateFormat(f string) error {
	for _, known := range formats {
		if f == known {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want one of %s)", f, strings.Join(formats, ", "))
}

// loadDocument reads the document named by args, or fetches it from the
// backend when args is empty.
func (c *CLI) loadDocument(cmd *cobra.Command, args []string) (*topology.Document, error) {
	switch {
	case len(args) == 1 && args[0] == "-":
		return topology.Decode(cmd.InOrStdin())
	case len(args) == 1:
		return topology.ReadFile(args[0])
	}

	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	backend, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	prog := newProgress(c.Logger)
	var doc *topology.Document
	err = withSpinner(cmd.Context(), cmd.ErrOrStderr(), "Fetching "+backend.Endpoint(), func(ctx context.Context) error {
		doc, err = backend.Fetch(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	prog.done("Fetched topology", "nodes", doc.NodeCount())
	return doc, nil
}

func (c *CLI) runRender(ctx context.Context, stdout, stderr io.Writer, doc *topology.Document, opts renderOpts) error {
	sc, err := scene.Generate(doc, scene.WithDanglingHandler(func(r topology.DanglingReference) {
		c.Logger.Warn("Dropping connection to unknown node", "from", r.From, "to", r.To, "port", r.Port)
	}))
	if err != nil {
		return err
	}

	data, err := encode(ctx, sc, opts)
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", opts.output)
	}
	printSuccess(stderr, "Rendered %s (%d nodes, %d edges)", sc.Title, len(sc.Nodes), len(sc.Edges))
	printFile(stderr, opts.output)
	return nil
}

func encode(ctx context.Context, sc *scene.Scene, opts renderOpts) ([]byte, error) {
	dotOpts := dot.Options{Width: opts.width, Height: opts.height, NoLegend: opts.noLegend}

	switch opts.format {
	case formatJSON:
		data, err := scene.RenderJSON(sc)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode scene")
		}
		return append(data, '\n'), nil
	case formatDOT:
		return []byte(dot.ToDOT(sc, dotOpts)), nil
	case formatSVG:
		svg, err := dot.Render(ctx, sc, dotOpts)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
		}
		return svg, nil
	default:
		out := text.Render(sc, text.Options{NoLegend: opts.noLegend, Selected: opts.selected})
		return []byte(fmt.Sprintln(out)), nil
	}
}
