package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lspmux/lspmux/internal/config"
	"github.com/lspmux/lspmux/internal/logging"
	"github.com/lspmux/lspmux/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "lspmux",
	Short: "Multiplexing client for language servers",
	Long: `lspmux starts, supervises, and talks to language servers over their
standard input and output. It routes files to the servers configured for
their language, scopes each server to an inferred project root, and exposes
diagnostics, completions, hovers, and definitions from all of them.`,
	Example: `
  # Report diagnostics for files
  lspmux diagnose main.go pkg/util.go

  # Show configured servers and whether their binaries resolve
  lspmux servers

  # Install a managed language server
  lspmux install gopls

  # Print version
  lspmux -v
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flag("version").Changed {
			fmt.Println(version.Version)
			return nil
		}
		return cmd.Help()
	},
}

// loadConfig applies the --cwd and --debug flags and loads the effective
// configuration. Shared by every subcommand.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	cwd, _ := cmd.Flags().GetString("cwd")

	if cwd != "" {
		if err := os.Chdir(cwd); err != nil {
			return nil, fmt.Errorf("failed to change directory: %v", err)
		}
	} else {
		c, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %v", err)
		}
		cwd = c
	}

	return config.Load(cwd, debug)
}

// startLogPrinter mirrors published log records to stderr. After
// config.Load the slog handler writes into the log broker so library
// consumers can subscribe; the CLI is one such consumer.
func startLogPrinter(ctx context.Context) {
	go func() {
		defer logging.RecoverPanic("log-printer", nil)
		for ev := range logging.Subscribe(ctx) {
			rec := ev.Payload
			var b strings.Builder
			fmt.Fprintf(&b, "%s %s", strings.ToUpper(rec.Level), rec.Message)
			for _, attr := range rec.Attributes {
				fmt.Fprintf(&b, " %s=%s", attr.Key, attr.Value)
			}
			fmt.Fprintln(os.Stderr, b.String())
		}
	}()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug logging")
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Working directory (defaults to the current directory)")
	rootCmd.Flags().BoolP("version", "v", false, "Version")
}
