package cli

import (
	"github.com/spf13/cobra"
)

// Fixed values offered for flag completion.
var (
	metadataCacheValues = []string{"file", "memory", "none", "redis://"}
	updatePolicyValues  = []string{"always", "daily", "never", "interval:"}
)

func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for mvnfetch and write it to stdout.

  $ source <(mvnfetch completion bash)
  $ mvnfetch completion zsh > "${fpath[1]}/_mvnfetch"
  $ mvnfetch completion fish > ~/.config/fish/completions/mvnfetch.fish
  PS> mvnfetch completion powershell | Out-String | Invoke-Expression

Besides commands and flags, the scripts complete the values of
--metadata-cache and --update-policy.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(c.Out, true)
			case "zsh":
				return root.GenZshCompletion(c.Out)
			case "fish":
				return root.GenFishCompletion(c.Out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(c.Out)
			}
		},
	}
}

// registerFlagCompletions attaches value completion to the persistent
// flags that take a fixed vocabulary.
func registerFlagCompletions(root *cobra.Command) {
	fixed := func(values []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return values, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
		}
	}
	_ = root.RegisterFlagCompletionFunc("metadata-cache", fixed(metadataCacheValues))
	_ = root.RegisterFlagCompletionFunc("update-policy", fixed(updatePolicyValues))
	_ = root.RegisterFlagCompletionFunc("settings", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"xml"}, cobra.ShellCompDirectiveFilterFileExt
	})
}
