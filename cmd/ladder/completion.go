package main

import (
	"github.com/spf13/cobra"
	"mercator-hq/ladder/pkg/cli"
)

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for ladder.

To load completions:

Bash:
  $ source <(ladder completion bash)

Zsh:
  $ ladder completion zsh > "${fpath[1]}/_ladder"
  $ compinit

Fish:
  $ ladder completion fish | source

PowerShell:
  PS> ladder completion powershell | Out-String | Invoke-Expression
`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(w)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			case "powershell":
				return root.GenPowerShellCompletion(w)
			default:
				return cli.Usagef("unsupported shell: %s", args[0])
			}
		},
	}
}
