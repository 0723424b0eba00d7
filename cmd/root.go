package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"erpdash/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "erpdash",
	Short: "erpdash - ERPNext reporting from the command line",
	Long: `erpdash pulls sales, purchase, customer and supplier records from an
ERPNext instance and aggregates them into the dashboard tables: revenue
time series, receivables rollups, customer overviews, map point sets and
supplier-to-company flow edges.

Connection settings come from the environment (or a .env file):
  ERPNEXT_BASE_URL   - ERPNext instance URL
  ERPNEXT_USER       - Login user
  ERPNEXT_PASSWORD   - Login password
  ERPNEXT_VERIFY_SSL - Set to false for self-signed certificates
  ERPNEXT_PAGE_SIZE  - Listing page-size hint (default 1000)`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("erpdash executed")

		fmt.Println("Welcome to erpdash!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")

	rootCmd.PersistentFlags().StringSlice("companies", nil,
		"Companies to report on (default: all companies)")
	rootCmd.PersistentFlags().String("from", "",
		"Period start date (YYYY-MM-DD, default: 3 months ago)")
	rootCmd.PersistentFlags().String("to", "",
		"Period end date (YYYY-MM-DD, default: today)")
	rootCmd.PersistentFlags().Bool("include-drafts", false,
		"Include draft invoices (revenue only)")
	rootCmd.PersistentFlags().Int("timeout", 300,
		"Overall fetch timeout in seconds")
}
