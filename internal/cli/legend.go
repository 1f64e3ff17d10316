package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/render/text"
	"github.com/matzehuels/topoview/pkg/scene"
	"github.com/matzehuels/topoview/pkg/topology"
)

func (c *CLI) legendCommand() *cobra.Command {
	var (
		defaults bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "legend [file|-]",
		Short: "Print the health legend",
		Long: `Print the health status colors of a topology document.

The document is fetched from the backend unless a file or "-" is given.
--defaults prints the backend's built-in color map without fetching.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc *topology.Document
			if defaults {
				doc = &topology.Document{HealthColors: topology.DefaultHealthColors()}
			} else {
				var err error
				if doc, err = c.loadDocument(cmd, args); err != nil {
					return err
				}
			}
			return writeLegend(cmd.OutOrStdout(), scene.Legend(doc), asJSON)
		},
	}

	cmd.Flags().BoolVar(&defaults, "defaults", false, "print the default color map")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func writeLegend(w io.Writer, legend []scene.LegendEntry, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(legend); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode legend")
		}
		return nil
	}
	if len(legend) == 0 {
		printInfo(w, "No health statuses defined")
		return nil
	}
	for _, e := range legend {
		printKeyValue(w, text.Legend([]scene.LegendEntry{e}), e.Color)
	}
	return nil
}
