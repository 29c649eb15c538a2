package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for snapsweep.

To load completions:

Bash:
  $ source <(snapsweep completion bash)

  # To load completions for each session, execute once:
  $ snapsweep completion bash > /etc/bash_completion.d/snapsweep

Zsh:
  $ snapsweep completion zsh > "${fpath[1]}/_snapsweep"

Fish:
  $ snapsweep completion fish > ~/.config/fish/completions/snapsweep.fish
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			}
			return nil
		},
	}
}
