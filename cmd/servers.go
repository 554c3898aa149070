package cmd

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lspmux/lspmux/internal/lsp/install"
)

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "List configured language servers",
	Long: `Lists every configured language server with the languages routed to it,
its command, and whether the command resolves to a runnable binary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		startLogPrinter(cmd.Context())

		// Invert the language routes so each server lists its languages.
		languages := make(map[string][]string)
		for lang, ids := range cfg.LanguageServers {
			for _, id := range ids {
				languages[id] = append(languages[id], lang)
			}
		}

		ids := make([]string, 0, len(cfg.Servers))
		for id := range cfg.Servers {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SERVER\tCOMMAND\tSTATUS\tLANGUAGES")
		for _, id := range ids {
			desc := cfg.Servers[id]
			status := "ok"
			if _, err := install.ResolveCommand(desc.Command); err != nil {
				if install.Managed(id) {
					status = "missing (lspmux install " + id + ")"
				} else {
					status = "missing"
				}
			}
			langs := languages[id]
			sort.Strings(langs)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, desc.Command, status, strings.Join(langs, ", "))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(serversCmd)
}
