package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lspmux/lspmux/internal/lsp/install"
)

var installCmd = &cobra.Command{
	Use:   "install [server-id]",
	Short: "Install a managed language server",
	Long: `Installs a language server into ~/.lspmux/bin using its registered
strategy (go install, npm, or a GitHub release download). Without arguments,
lists every server lspmux knows how to install.`,
	Example: `
  lspmux install
  lspmux install gopls
  lspmux install typescript
  `,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return listManaged(cmd)
		}

		serverID := args[0]
		if !install.Managed(serverID) {
			return fmt.Errorf("no install strategy for %q, run `lspmux install` to list managed servers", serverID)
		}
		if err := install.Install(cmd.Context(), serverID); err != nil {
			return err
		}
		fmt.Printf("installed %s into %s\n", serverID, install.BinDir())
		return nil
	},
}

func listManaged(cmd *cobra.Command) error {
	installed := install.Installed()

	tools := make([]install.Tool, len(install.ManagedTools))
	copy(tools, install.ManagedTools)
	sort.Slice(tools, func(i, j int) bool { return tools[i].ServerID < tools[j].ServerID })

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVER\tSTRATEGY\tINSTALLED")
	for _, tool := range tools {
		state := "no"
		if installed[tool.ServerID] {
			state = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", tool.ServerID, tool.Strategy, state)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(installCmd)
}
