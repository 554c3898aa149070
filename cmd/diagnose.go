package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lspmux/lspmux/internal/app"
	"github.com/lspmux/lspmux/internal/format"
	"github.com/lspmux/lspmux/internal/logging"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <file>...",
	Short: "Report language server diagnostics for files",
	Long: `Opens each file in the language servers configured for its language,
waits for diagnostics to settle, and prints them grouped per file.

` + format.GetHelpText(),
	Example: `
  lspmux diagnose main.go
  lspmux diagnose --wait 10s internal/server.go internal/client.go
  `,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logging.RecoverPanic("diagnose", nil)

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		wait, _ := cmd.Flags().GetDuration("wait")
		formatStr, _ := cmd.Flags().GetString("format")
		outputFormat, err := format.Parse(formatStr)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		startLogPrinter(ctx)

		application, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer application.ForceShutdown()

		report, err := application.Diagnose(ctx, args, wait)
		if err != nil {
			return err
		}
		out, err := format.Render(report.Text(), report, outputFormat)
		if err != nil {
			return err
		}
		fmt.Println(out)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		application.Shutdown(shutdownCtx)
		return nil
	},
}

func init() {
	diagnoseCmd.Flags().Duration("wait", 5*time.Second, "How long to wait for diagnostics to settle")
	diagnoseCmd.Flags().StringP("format", "f", format.Text.String(), "Output format (text, json)")
	rootCmd.AddCommand(diagnoseCmd)
}
