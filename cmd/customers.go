package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"erpdash/internal/dashboard"
	"erpdash/internal/logger"
)

var customersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Customers overview: period sales joined with current outstanding",
	Long: `Join the per-customer sales rollup for the selected period with the
current outstanding snapshot. Each row carries the (company, customer)
pair, summed period TTC, invoice count, last invoice date and the
customer's current outstanding balance; pairs present on only one side
appear with zeros on the other.`,
	Example: `  # Overview for all companies, last 3 months
  erpdash customers

  # Overview plus a top-20 ranking by period sales
  erpdash customers --top 20 --top-out top_customers.csv -o customers.csv`,
	Args: cobra.NoArgs,
	RunE: runCustomers,
}

func init() {
	rootCmd.AddCommand(customersCmd)

	customersCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	customersCmd.Flags().Int("top", 20, "Number of customers in the sales ranking")
	customersCmd.Flags().String("top-out", "", "Output file for the sales ranking")
}

func runCustomers(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("customers")

	outputPath, _ := cmd.Flags().GetString("output")
	topN, _ := cmd.Flags().GetInt("top")
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

	report, err := service.CustomersOverview(ctx, query, topN)
	if err != nil {
		return err
	}
	if len(report.Rows) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No data for the selected filters.")
		return nil
	}

	log.Info().
		Str("total_sales", report.TotalSales.String()).
		Str("total_outstanding", report.TotalOutstanding.String()).
		Int("rows", len(report.Rows)).
		Msg("Customers overview ready")

	if err := writeTable(outputPath, report.Rows); err != nil {
		return err
	}
	if topPath != "" {
		if err := writeTable(topPath, report.Top); err != nil {
			return err
		}
	}
	return nil
}
