package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/topoview/pkg/topology"
)

var completionShells = map[string]func(cmd *cobra.Command) error{
	"bash": func(cmd *cobra.Command) error { return cmd.Root().GenBashCompletionV2(cmd.OutOrStdout(), true) },
	"zsh":  func(cmd *cobra.Command) error { return cmd.Root().GenZshCompletion(cmd.OutOrStdout()) },
	"fish": func(cmd *cobra.Command) error { return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true) },
	"powershell": func(cmd *cobra.Command) error {
		return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
	},
}

func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for topoview.

  $ source <(topoview completion bash)
  $ topoview completion zsh > "${fpath[1]}/_topoview"
  $ topoview completion fish | source
  PS> topoview completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionShells[args[0]](cmd)
		},
	}
}

func completeFormats(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
	return formats, cobra.ShellCompDirectiveNoFileComp
}

// completeNodeIDs offers the node ids of the document file given as the
// first argument. Nothing is offered for stdin or a live backend.
func completeNodeIDs(_ *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
	if len(args) == 0 || args[0] == "-" {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	doc, err := topology.ReadFile(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []cobra.Completion
	for _, n := range doc.Nodes() {
		if strings.HasPrefix(n.ID, toComplete) {
			out = append(out, cobra.CompletionWithDesc(n.ID, n.Name))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
