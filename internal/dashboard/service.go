package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"erpdash/internal/erpnext"
	"erpdash/internal/logger"
)

// Query is the user-facing filter tuple every report is a function of.
type Query struct {
	Companies     []string
	Start         time.Time
	End           time.Time
	IncludeDrafts bool
}

// normalized swaps a reversed date range. Bounds are inclusive on both ends.
func (q Query) normalized() Query {
	if !q.Start.IsZero() && !q.End.IsZero() && q.Start.After(q.End) {
		q.Start, q.End = q.End, q.Start
	}
	return q
}

// filterKey is the canonical filter-tuple string used for the conservative
// whole-cache flush on filter change.
func (q Query) filterKey() string {
	q = q.normalized()
	return fmt.Sprintf("%s|%s|%s|%t",
		strings.Join(q.Companies, ","),
		formatDate(q.Start), formatDate(q.End), q.IncludeDrafts)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// Field-selection lists per doctype.
var (
	invoiceFields = []string{
		"name", "posting_date", "company", "customer", "due_date",
		"base_grand_total", "grand_total", "currency",
		"outstanding_amount", "status", "conversion_rate", "docstatus",
	}
	purchaseFields = []string{
		"name", "posting_date", "company", "supplier",
		"base_grand_total", "grand_total", "currency", "status", "docstatus",
	}
	customerFields = []string{"name", "customer_name", "mobile_no", "territory", "custom_lat", "custom_lon"}
	supplierFields = []string{"name", "supplier_name", "supplier_group", "mobile_no", "custom_lat", "custom_lon"}
	companyFields  = []string{"name", "custom_lat", "custom_lon"}
)

const invoiceOrder = "posting_date asc, name asc"

// Session is the fetching surface the service runs on: memoized listing
// fetches plus the filter-change flush hook. *erpnext.Session satisfies it.
type Session interface {
	FetchAll(ctx context.Context, q erpnext.ListQuery) ([]erpnext.Row, error)
	SetActiveFilters(filters string)
}

// Service runs the retrieval/normalization/aggregation pipeline on top of an
// authenticated session. All fetches are sequential, per company then per
// page, and results concatenate in that order.
type Service struct {
	session Session
	log     zerolog.Logger
}

// NewService creates a reporting service bound to a session.
func NewService(session Session) *Service {
	return &Service{
		session: session,
		log:     logger.WithComponent("dashboard"),
	}
}

// ListCompanies fetches all companies with their optional coordinates.
func (s *Service) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := s.session.FetchAll(ctx, erpnext.ListQuery{
		Doctype: "Company",
		Fields:  companyFields,
		OrderBy: "name asc",
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(r erpnext.Row, _ int) Company { return NormalizeCompany(r) }), nil
}

// ListCustomers fetches all customers.
func (s *Service) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := s.session.FetchAll(ctx, erpnext.ListQuery{
		Doctype: "Customer",
		Fields:  customerFields,
		OrderBy: "name asc",
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(r erpnext.Row, _ int) Customer { return NormalizeCustomer(r) }), nil
}

// ListSuppliers fetches all suppliers.
func (s *Service) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := s.session.FetchAll(ctx, erpnext.ListQuery{
		Doctype: "Supplier",
		Fields:  supplierFields,
		OrderBy: "name asc",
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(r erpnext.Row, _ int) Supplier { return NormalizeSupplier(r) }), nil
}

// FetchInvoices retrieves sales invoices matching the query, one company at
// a time. An empty company list yields an empty result with no network call.
func (s *Service) FetchInvoices(ctx context.Context, q Query, extraFilters []erpnext.Filter) ([]Invoice, error) {
	q = q.normalized()

	var invoices []Invoice
	for _, company := range q.Companies {
		rows, err := s.session.FetchAll(ctx, erpnext.ListQuery{
			Doctype: "Sales Invoice",
			Fields:  invoiceFields,
			Filters: append(invoiceFilters(company, q), extraFilters...),
			OrderBy: invoiceOrder,
		})
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			invoices = append(invoices, NormalizeInvoice(row))
		}
	}
	return invoices, nil
}

// FetchOutstandingInvoices retrieves the point-in-time snapshot of open
// invoices: submitted documents with outstanding_amount > 0, no date bound.
func (s *Service) FetchOutstandingInvoices(ctx context.Context, companies []string) ([]Invoice, error) {
	return s.FetchInvoices(ctx,
		Query{Companies: companies},
		[]erpnext.Filter{{Field: "outstanding_amount", Op: ">", Value: 0}})
}

// FetchPurchaseInvoices retrieves purchase invoices matching the query.
func (s *Service) FetchPurchaseInvoices(ctx context.Context, q Query) ([]PurchaseInvoice, error) {
	q = q.normalized()

	var purchases []PurchaseInvoice
	for _, company := range q.Companies {
		rows, err := s.session.FetchAll(ctx, erpnext.ListQuery{
			Doctype: "Purchase Invoice",
			Fields:  purchaseFields,
			Filters: invoiceFilters(company, q),
			OrderBy: invoiceOrder,
		})
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			purchases = append(purchases, NormalizePurchaseInvoice(row))
		}
	}
	return purchases, nil
}

func invoiceFilters(company string, q Query) []erpnext.Filter {
	filters := []erpnext.Filter{{Field: "company", Op: "=", Value: company}}
	if !q.Start.IsZero() && !q.End.IsZero() {
		filters = append(filters,
			erpnext.Filter{Field: "posting_date", Op: ">=", Value: q.Start.Format(dateLayout)},
			erpnext.Filter{Field: "posting_date", Op: "<=", Value: q.End.Format(dateLayout)})
	}
	if q.IncludeDrafts {
		filters = append(filters, erpnext.Filter{Field: "docstatus", Op: "in", Value: []int{DocstatusDraft, DocstatusSubmitted}})
	} else {
		filters = append(filters, erpnext.Filter{Field: "docstatus", Op: "=", Value: DocstatusSubmitted})
	}
	return filters
}

// RevenueReport is the TTC screen: daily and monthly series plus the
// top-customer ranking and headline measures.
type RevenueReport struct {
	Invoices     []Invoice
	Daily        SeriesTable
	Monthly      MonthlyTable
	TopCustomers RankingTable

	TotalTTC     decimal.Decimal
	InvoiceCount int
	AvgInvoice   decimal.Decimal
	ActiveDays   int
}

// Revenue builds the revenue report for the query.
func (s *Service) Revenue(ctx context.Context, q Query, topN int) (*RevenueReport, error) {
	s.session.SetActiveFilters(q.filterKey())

	invoices, err := s.FetchInvoices(ctx, q, nil)
	if err != nil {
		return nil, err
	}

	daily := DailySeries(invoices)
	report := &RevenueReport{
		Invoices:     invoices,
		Daily:        daily,
		Monthly:      MonthlySeries(daily),
		TopCustomers: TopCustomersBySales(invoices, topN),
		InvoiceCount: len(invoices),
		ActiveDays:   len(lo.UniqBy(daily, func(p SeriesPoint) time.Time { return p.Date })),
	}
	for _, inv := range invoices {
		report.TotalTTC = report.TotalTTC.Add(inv.BaseGrandTotal)
	}
	if report.InvoiceCount > 0 {
		report.AvgInvoice = report.TotalTTC.DivRound(decimal.NewFromInt(int64(report.InvoiceCount)), 2)
	}

	s.log.Info().
		Int("invoices", report.InvoiceCount).
		Str("total_ttc", report.TotalTTC.String()).
		Msg("Revenue report built")
	return report, nil
}

// ReceivablesReport is the A/R screen: the open-invoice snapshot, its
// per-customer rollup and the top slice of that rollup.
type ReceivablesReport struct {
	OpenInvoices []Invoice
	Rollup       ReceivablesTable
	Top          ReceivablesTable

	TotalOutstanding decimal.Decimal
	OpenCount        int
}

// Receivables builds the A/R report. The snapshot ignores the query's date
// range; overdue days are computed against asOf.
func (s *Service) Receivables(ctx context.Context, q Query, asOf time.Time, topN int) (*ReceivablesReport, error) {
	s.session.SetActiveFilters(q.filterKey())

	open, err := s.FetchOutstandingInvoices(ctx, q.Companies)
	if err != nil {
		return nil, err
	}

	rollup := ReceivablesRollup(open, asOf)
	report := &ReceivablesReport{
		OpenInvoices: open,
		Rollup:       rollup,
		Top:          rollup[:min(max(topN, 0), len(rollup))],
		OpenCount:    len(open),
	}
	for _, inv := range open {
		report.TotalOutstanding = report.TotalOutstanding.Add(inv.BaseOutstanding)
	}

	s.log.Info().
		Int("open_invoices", report.OpenCount).
		Str("total_outstanding", report.TotalOutstanding.String()).
		Msg("Receivables report built")
	return report, nil
}

// OverviewReport is the customers screen: period sales joined with current
// outstanding per (company, customer).
type OverviewReport struct {
	Rows OverviewTable
	Top  RankingTable

	TotalSales       decimal.Decimal
	TotalOutstanding decimal.Decimal
}

// CustomersOverview builds the customers report. Period sales exclude
// drafts; the outstanding side is the dateless snapshot.
func (s *Service) CustomersOverview(ctx context.Context, q Query, topN int) (*OverviewReport, error) {
	s.session.SetActiveFilters(q.filterKey())

	period, err := s.FetchInvoices(ctx, Query{Companies: q.Companies, Start: q.Start, End: q.End}, nil)
	if err != nil {
		return nil, err
	}
	open, err := s.FetchOutstandingInvoices(ctx, q.Companies)
	if err != nil {
		return nil, err
	}

	rows := OverviewJoin(PeriodRollup(period), ReceivablesRollup(open, time.Now()))
	report := &OverviewReport{
		Rows: rows,
		Top: topByTotal(rows, topN, func(r OverviewRow) (string, decimal.Decimal) {
			return r.Customer, r.SalesTTC
		}),
	}
	for _, r := range rows {
		report.TotalSales = report.TotalSales.Add(r.SalesTTC)
		report.TotalOutstanding = report.TotalOutstanding.Add(r.Outstanding)
	}

	s.log.Info().Int("rows", len(rows)).Msg("Customers overview built")
	return report, nil
}

// MapOptions selects which point sets to build.
type MapOptions struct {
	ShowCustomers bool
	ShowSuppliers bool
	Jitter        bool
}

// MapReport carries the plottable point sets with validated coordinates only.
type MapReport struct {
	Customers PointSet
	Suppliers PointSet
}

// MapData builds the map point sets: customers tagged by period sales
// activity, suppliers by period purchase activity.
func (s *Service) MapData(ctx context.Context, q Query, opts MapOptions) (*MapReport, error) {
	s.session.SetActiveFilters(q.filterKey())

	report := &MapReport{}
	periodQuery := Query{Companies: q.Companies, Start: q.Start, End: q.End}

	if opts.ShowCustomers {
		invoices, err := s.FetchInvoices(ctx, periodQuery, nil)
		if err != nil {
			return nil, err
		}
		customers, err := s.ListCustomers(ctx)
		if err != nil {
			return nil, err
		}
		buyers := idSet(invoices, func(inv Invoice) string { return inv.Customer })
		report.Customers = CustomerPoints(customers, buyers, opts.Jitter)
	}

	if opts.ShowSuppliers {
		purchases, err := s.FetchPurchaseInvoices(ctx, periodQuery)
		if err != nil {
			return nil, err
		}
		suppliers, err := s.ListSuppliers(ctx)
		if err != nil {
			return nil, err
		}
		active := idSet(purchases, func(p PurchaseInvoice) string { return p.Supplier })
		report.Suppliers = SupplierPoints(suppliers, active, opts.Jitter)
	}

	return report, nil
}

// Flows builds the supplier→company flow edges for the period.
func (s *Service) Flows(ctx context.Context, q Query, baseWidth float64) (*FlowResult, error) {
	s.session.SetActiveFilters(q.filterKey())

	purchases, err := s.FetchPurchaseInvoices(ctx, Query{Companies: q.Companies, Start: q.Start, End: q.End})
	if err != nil {
		return nil, err
	}
	suppliers, err := s.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	companies, err := s.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}

	result := FlowJoin(purchases, suppliers, companies, baseWidth)
	s.log.Info().
		Int("pairs", result.Pairs).
		Int("edges", result.WithEnds).
		Msg("Flow join completed")
	return &result, nil
}

func idSet[T any](items []T, pick func(T) string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if id := pick(item); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}
