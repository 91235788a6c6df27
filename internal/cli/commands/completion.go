package commands

import (
	"github.com/spf13/cobra"
)

// NewCompletionCommand creates the completion command for shell completions
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for topickey.

To load completions:

Bash:

  $ source <(topickey completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ topickey completion bash > /etc/bash_completion.d/topickey
  # macOS:
  $ topickey completion bash > $(brew --prefix)/etc/bash_completion.d/topickey

Zsh:

  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:

  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ topickey completion zsh > "${fpath[1]}/_topickey"

  # You will need to start a new shell for this setup to take effect.

Fish:

  $ topickey completion fish | source

  # To load completions for each session, execute once:
  $ topickey completion fish > ~/.config/fish/completions/topickey.fish

PowerShell:

  PS> topickey completion powershell | Out-String | Invoke-Expression

The --type flag of encode completes the types of the schema files
already on the command line.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			root := cmd.Root()

			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// completeTypes completes --type with the identifiers registered from
// the schema files in args
func completeTypes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	env, err := setup(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer env.close()

	reg, _, err := loadRegistry(env, args)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return reg.List(), cobra.ShellCompDirectiveNoFileComp
}
