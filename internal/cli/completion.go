package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/platepack/pkg/arith"
	"github.com/matzehuels/platepack/pkg/pipeline"
	"github.com/matzehuels/platepack/pkg/render"
)

func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for platepack and print it to stdout.

  $ source <(platepack completion bash)
  $ platepack completion zsh > "${fpath[1]}/_platepack"
  $ platepack completion fish > ~/.config/fish/completions/platepack.fish
  PS> platepack completion powershell | Out-String | Invoke-Expression

Completions cover subcommands, flags and the fixed value sets of
--strategy, --format, --style and --domain.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// registerValueCompletions offers the fixed value sets of the solve flags.
func registerValueCompletions(cmd *cobra.Command) {
	values := map[string][]string{
		"strategy": pipeline.Strategies,
		"format":   {pipeline.FormatText, pipeline.FormatJSON, pipeline.FormatSVG, pipeline.FormatASCII, pipeline.FormatBlocks, pipeline.FormatDOT, pipeline.FormatNeato},
		"style":    render.StyleNames,
		"domain":   arith.Domains,
	}
	for flag, vals := range values {
		if cmd.Flags().Lookup(flag) == nil {
			continue
		}
		_ = cmd.RegisterFlagCompletionFunc(flag, cobra.FixedCompletions(vals, cobra.ShellCompDirectiveNoFileComp))
	}
}
