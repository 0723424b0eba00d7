package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"erpdash/internal/dashboard"
	"erpdash/internal/logger"
)

var revenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Revenue (TTC) report: daily/monthly series and top customers",
	Long: `Fetch sales invoices for the selected companies and period, aggregate
them into per-company daily and monthly revenue series, and rank the top
customers by total TTC (tax-inclusive total in company base currency).

Tables are written as CSV. With no --daily/--monthly/--top-out paths the
daily series goes to stdout.`,
	Example: `  # Daily series for all companies, last 3 months, to stdout
  erpdash revenue

  # One company, fixed period, all three tables to files
  erpdash revenue --companies "Acme SA" --from 2026-01-01 --to 2026-03-31 \
    --daily daily.csv --monthly monthly.csv --top-out top_customers.csv

  # Include draft invoices
  erpdash revenue --include-drafts`,
	Args: cobra.NoArgs,
	RunE: runRevenue,
}

func init() {
	rootCmd.AddCommand(revenueCmd)

	revenueCmd.Flags().Int("top", 10, "Number of top customers to rank")
	revenueCmd.Flags().String("daily", "", "Output file for the daily series (default: stdout)")
	revenueCmd.Flags().String("monthly", "", "Output file for the monthly series")
	revenueCmd.Flags().String("top-out", "", "Output file for the top-customer ranking")
}

func runRevenue(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("revenue")

	topN, _ := cmd.Flags().GetInt("top")
	dailyPath, _ := cmd.Flags().GetString("daily")
	monthlyPath, _ := cmd.Flags().GetString("monthly")
	topPath, _ := cmd.Flags().GetString("top-out")

	query, err := queryFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	session, logout, err := openSession(ctx, log)
	if err != nil {
		return err
	}
	defer logout()

	service := dashboard.NewService(session)
	query.Companies, err = resolveCompanies(ctx, service, query.Companies)
	if err != nil {
		return err
	}

	report, err := service.Revenue(ctx, query, topN)
	if err != nil {
		return err
	}
	if report.InvoiceCount == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No invoices found for the selected filters.")
		return nil
	}

	log.Info().
		Str("total_ttc", report.TotalTTC.String()).
		Str("avg_invoice", report.AvgInvoice.String()).
		Int("invoices", report.InvoiceCount).
		Int("active_days", report.ActiveDays).
		Msg("Revenue report ready")

	if err := writeTable(dailyPath, report.Daily); err != nil {
		return err
	}
	if monthlyPath != "" {
		if err := writeTable(monthlyPath, report.Monthly); err != nil {
			return err
		}
	}
	if topPath != "" {
		if err := writeTable(topPath, report.TopCustomers); err != nil {
			return err
		}
	}
	return nil
}
