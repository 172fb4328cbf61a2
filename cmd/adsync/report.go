package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/reporting"
)

func newReportCommand(flags *globalFlags) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize recent imports from the ClickHouse audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return &usageError{msg: fmt.Sprintf("invalid --days %d", days)}
			}
			if days > 365 {
				days = 365
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, flags, appOptions{audit: true})
			if err != nil {
				return err
			}
			defer a.Close()

			ch := a.auditDB()
			if ch == nil {
				return errors.New("clickhouse unavailable")
			}
			summary, err := reporting.GenerateImportReport(ctx, ch, days)
			if err != nil {
				return fmt.Errorf("generate report: %w", err)
			}

			fmt.Fprintf(os.Stdout, "Import report: last %d days (generated %s)\n", days, time.Now().Format("2006-01-02 15:04:05"))
			renderImportReport(os.Stdout, summary)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "number of days to include (max 365)")
	return cmd
}
