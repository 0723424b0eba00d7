package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"erpdash/internal/dashboard"
	"erpdash/internal/logger"
)

var receivablesCmd = &cobra.Command{
	Use:   "receivables",
	Short: "Accounts receivable report: open invoices and per-customer debt",
	Long: `Fetch the point-in-time snapshot of open invoices (submitted documents
with a positive outstanding amount, no date bound) and roll them up per
(company, customer): outstanding in base currency, invoice count and the
maximum days overdue.

The rollup is written as CSV to stdout or --output.`,
	Example: `  # Full rollup for all companies
  erpdash receivables

  # Top 15 debtors only, to a file
  erpdash receivables --top 15 --top-only -o debts.csv`,
	Args: cobra.NoArgs,
	RunE: runReceivables,
}

func init() {
	rootCmd.AddCommand(receivablesCmd)

	receivablesCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	receivablesCmd.Flags().Int("top", 15, "Size of the top-debtor slice")
	receivablesCmd.Flags().Bool("top-only", false, "Write only the top-debtor slice")
}

func runReceivables(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("receivables")

	outputPath, _ := cmd.Flags().GetString("output")
	topN, _ := cmd.Flags().GetInt("top")
	topOnly, _ := cmd.Flags().GetBool("top-only")

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

	report, err := service.Receivables(ctx, query, time.Now(), topN)
	if err != nil {
		return err
	}
	if report.OpenCount == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No open debts found.")
		return nil
	}

	log.Info().
		Str("total_outstanding", report.TotalOutstanding.String()).
		Int("open_invoices", report.OpenCount).
		Msg("Receivables report ready")

	table := report.Rollup
	if topOnly {
		table = report.Top
	}
	return writeTable(outputPath, table)
}
