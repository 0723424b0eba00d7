package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"erpdash/internal/config"
	"erpdash/internal/dashboard"
	"erpdash/internal/erpnext"
)

const flagDateLayout = "2006-01-02"

// queryFromFlags assembles the shared filter tuple from the persistent flags.
// Companies may still be empty here; resolveCompanies fills in "all".
func queryFromFlags(cmd *cobra.Command) (dashboard.Query, error) {
	companies, _ := cmd.Flags().GetStringSlice("companies")
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	includeDrafts, _ := cmd.Flags().GetBool("include-drafts")

	now := time.Now()
	start := now.AddDate(0, -3, 0)
	end := now

	if fromStr != "" {
		parsed, err := time.Parse(flagDateLayout, fromStr)
		if err != nil {
			return dashboard.Query{}, fmt.Errorf("invalid --from date %q: %w", fromStr, err)
		}
		start = parsed
	}
	if toStr != "" {
		parsed, err := time.Parse(flagDateLayout, toStr)
		if err != nil {
			return dashboard.Query{}, fmt.Errorf("invalid --to date %q: %w", toStr, err)
		}
		end = parsed
	}

	return dashboard.Query{
		Companies:     companies,
		Start:         start,
		End:           end,
		IncludeDrafts: includeDrafts,
	}, nil
}

// commandContext creates a context honoring the --timeout flag and SIGINT/
// SIGTERM, so a long multi-company fetch can be interrupted cleanly.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	ctx, cancelTimeout := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)
	ctx, cancelSignal := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	return ctx, func() {
		cancelSignal()
		cancelTimeout()
	}
}

// openSession logs in to ERPNext using the environment configuration and
// returns the session plus a logout function.
func openSession(ctx context.Context, log zerolog.Logger) (*erpnext.Session, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	clientCfg := erpnext.DefaultClientConfig(cfg.ERPNextBaseURL)
	clientCfg.VerifySSL = cfg.VerifySSL

	session, err := erpnext.NewSession(clientCfg, cfg.PageSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := session.Login(ctx, cfg.ERPNextUser, cfg.ERPNextPassword); err != nil {
		log.Error().Err(err).Msg("ERPNext login failed")
		return nil, nil, err
	}

	return session, func() { session.Logout(context.Background()) }, nil
}

// resolveCompanies expands an empty selection into the full company list.
func resolveCompanies(ctx context.Context, service *dashboard.Service, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}
	companies, err := service.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot load companies: %w", err)
	}
	ids := make([]string, 0, len(companies))
	for _, c := range companies {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// writeTable renders a table as CSV to a file, or to stdout when path is "".
func writeTable(path string, table dashboard.Table) error {
	if path == "" {
		return dashboard.WriteCSV(os.Stdout, table)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := dashboard.WriteCSV(file, table); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
