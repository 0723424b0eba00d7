package dashboard

import (
	"sort"
	"strconv"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// SeriesPoint is one calendar-day bucket of a per-company revenue series.
type SeriesPoint struct {
	Date    time.Time
	Company string
	Total   decimal.Decimal
}

// DailySeries resamples invoice TTC totals by calendar day per company. For
// each company the buckets run from its first to its last posting date with
// zero-filled gaps; a company with no invoices in the input contributes no
// rows at all. Companies are ordered alphabetically, days ascending.
func DailySeries(invoices []Invoice) []SeriesPoint {
	byCompany := lo.GroupBy(invoices, func(inv Invoice) string { return inv.Company })
	companies := lo.Keys(byCompany)
	sort.Strings(companies)

	var series []SeriesPoint
	for _, company := range companies {
		totals := map[time.Time]decimal.Decimal{}
		var first, last time.Time
		for _, inv := range byCompany[company] {
			day := truncateToDay(inv.PostingDate)
			if day.IsZero() {
				continue
			}
			totals[day] = totals[day].Add(inv.BaseGrandTotal)
			if first.IsZero() || day.Before(first) {
				first = day
			}
			if day.After(last) {
				last = day
			}
		}
		if first.IsZero() {
			continue
		}
		for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
			series = append(series, SeriesPoint{Date: day, Company: company, Total: totals[day]})
		}
	}
	return series
}

// MonthlyPoint is one calendar-month bucket of a per-company revenue series.
type MonthlyPoint struct {
	Month   string // "2006-01"
	Company string
	Total   decimal.Decimal
}

// MonthlySeries re-buckets a daily series into calendar months, preserving
// the per-company ordering of the input.
func MonthlySeries(daily []SeriesPoint) []MonthlyPoint {
	type key struct{ company, month string }

	totals := map[key]decimal.Decimal{}
	var order []key
	for _, p := range daily {
		k := key{p.Company, p.Date.Format("2006-01")}
		if _, seen := totals[k]; !seen {
			order = append(order, k)
		}
		totals[k] = totals[k].Add(p.Total)
	}

	monthly := make([]MonthlyPoint, 0, len(order))
	for _, k := range order {
		monthly = append(monthly, MonthlyPoint{Month: k.month, Company: k.company, Total: totals[k]})
	}
	return monthly
}

// RankedTotal is one row of a top-N ranking.
type RankedTotal struct {
	Key   string
	Total decimal.Decimal
}

// TopCustomersBySales ranks customers by summed TTC, descending, truncated to
// n. Ties keep first-seen input order: the sort is stable and groups are
// collected in encounter order, so repeated runs on the same input produce
// identical rankings.
func TopCustomersBySales(invoices []Invoice, n int) []RankedTotal {
	return topByTotal(invoices, n, func(inv Invoice) (string, decimal.Decimal) {
		return inv.Customer, inv.BaseGrandTotal
	})
}

func topByTotal[T any](items []T, n int, measure func(T) (string, decimal.Decimal)) []RankedTotal {
	totals := map[string]decimal.Decimal{}
	var order []string
	for _, item := range items {
		key, amount := measure(item)
		if key == "" {
			continue
		}
		if _, seen := totals[key]; !seen {
			order = append(order, key)
		}
		totals[key] = totals[key].Add(amount)
	}

	ranked := lo.Map(order, func(key string, _ int) RankedTotal {
		return RankedTotal{Key: key, Total: totals[key]}
	})
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total.GreaterThan(ranked[j].Total)
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// ReceivableRow is one (company, customer) rollup of open invoices.
type ReceivableRow struct {
	Company     string
	Customer    string
	Outstanding decimal.Decimal
	Invoices    int
	MaxOverdue  int
}

// ReceivablesRollup groups open invoices by (company, customer), summing
// base-currency outstanding amounts, counting invoices and taking the maximum
// days-overdue. Rows are sorted by outstanding descending; ties keep
// first-seen order.
func ReceivablesRollup(invoices []Invoice, asOf time.Time) []ReceivableRow {
	type key struct{ company, customer string }

	rows := map[key]*ReceivableRow{}
	var order []key
	for _, inv := range invoices {
		k := key{inv.Company, inv.Customer}
		row, seen := rows[k]
		if !seen {
			row = &ReceivableRow{Company: inv.Company, Customer: inv.Customer}
			rows[k] = row
			order = append(order, k)
		}
		row.Outstanding = row.Outstanding.Add(inv.BaseOutstanding)
		row.Invoices++
		if overdue := DaysOverdue(inv, asOf); row.Invoices == 1 || overdue > row.MaxOverdue {
			row.MaxOverdue = overdue
		}
	}

	result := lo.Map(order, func(k key, _ int) ReceivableRow { return *rows[k] })
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Outstanding.GreaterThan(result[j].Outstanding)
	})
	return result
}

// DaysOverdue is whole days between the due date and asOf, negative when the
// invoice is not yet due. A missing due date counts as zero days overdue;
// upstream conflates "no due date" with "not overdue" and the behavior is
// preserved for compatibility.
func DaysOverdue(inv Invoice, asOf time.Time) int {
	if inv.DueDate == nil {
		return 0
	}
	due := truncateToDay(*inv.DueDate)
	today := truncateToDay(asOf)
	return int(today.Sub(due).Hours() / 24)
}

// CustomerSalesRow is one (company, customer) rollup of period sales.
type CustomerSalesRow struct {
	Company     string
	Customer    string
	SalesTTC    decimal.Decimal
	Invoices    int
	LastInvoice time.Time
}

// PeriodRollup groups period invoices by (company, customer), summing TTC,
// counting invoices and tracking the latest posting date.
func PeriodRollup(invoices []Invoice) []CustomerSalesRow {
	type key struct{ company, customer string }

	rows := map[key]*CustomerSalesRow{}
	var order []key
	for _, inv := range invoices {
		k := key{inv.Company, inv.Customer}
		row, seen := rows[k]
		if !seen {
			row = &CustomerSalesRow{Company: inv.Company, Customer: inv.Customer}
			rows[k] = row
			order = append(order, k)
		}
		row.SalesTTC = row.SalesTTC.Add(inv.BaseGrandTotal)
		row.Invoices++
		if inv.PostingDate.After(row.LastInvoice) {
			row.LastInvoice = inv.PostingDate
		}
	}

	return lo.Map(order, func(k key, _ int) CustomerSalesRow { return *rows[k] })
}

// OverviewRow joins period sales and current outstanding for one
// (company, customer) pair. Either side may be zero-valued when the pair only
// appears in the other input.
type OverviewRow struct {
	Company     string
	Customer    string
	SalesTTC    decimal.Decimal
	Invoices    int
	LastInvoice time.Time
	Outstanding decimal.Decimal
}

// OverviewJoin is a full outer join of the period rollup and the receivables
// rollup on (company, customer). Pairs from the period side come first in
// input order, then outstanding-only pairs in their input order.
func OverviewJoin(period []CustomerSalesRow, open []ReceivableRow) []OverviewRow {
	type key struct{ company, customer string }

	rows := map[key]*OverviewRow{}
	var order []key
	for _, p := range period {
		k := key{p.Company, p.Customer}
		rows[k] = &OverviewRow{
			Company:     p.Company,
			Customer:    p.Customer,
			SalesTTC:    p.SalesTTC,
			Invoices:    p.Invoices,
			LastInvoice: p.LastInvoice,
		}
		order = append(order, k)
	}
	for _, o := range open {
		k := key{o.Company, o.Customer}
		row, seen := rows[k]
		if !seen {
			row = &OverviewRow{Company: o.Company, Customer: o.Customer}
			rows[k] = row
			order = append(order, k)
		}
		row.Outstanding = row.Outstanding.Add(o.Outstanding)
	}

	return lo.Map(order, func(k key, _ int) OverviewRow { return *rows[k] })
}

func truncateToDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ---- CSV table views ----

// SeriesTable is the CSV view of a daily series.
type SeriesTable []SeriesPoint

// Header implements Table.
func (t SeriesTable) Header() []string { return []string{"date", "company", "ttc"} }

// Rows implements Table.
func (t SeriesTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, p := range t {
		rows = append(rows, []string{p.Date.Format(dateLayout), p.Company, p.Total.String()})
	}
	return rows
}

// MonthlyTable is the CSV view of a monthly series.
type MonthlyTable []MonthlyPoint

// Header implements Table.
func (t MonthlyTable) Header() []string { return []string{"month", "company", "ttc"} }

// Rows implements Table.
func (t MonthlyTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, p := range t {
		rows = append(rows, []string{p.Month, p.Company, p.Total.String()})
	}
	return rows
}

// RankingTable is the CSV view of a top-N ranking.
type RankingTable []RankedTotal

// Header implements Table.
func (t RankingTable) Header() []string { return []string{"customer", "total"} }

// Rows implements Table.
func (t RankingTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{r.Key, r.Total.String()})
	}
	return rows
}

// ReceivablesTable is the CSV view of a receivables rollup.
type ReceivablesTable []ReceivableRow

// Header implements Table.
func (t ReceivablesTable) Header() []string {
	return []string{"company", "customer", "outstanding", "invoices", "max_overdue_days"}
}

// Rows implements Table.
func (t ReceivablesTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{
			r.Company, r.Customer, r.Outstanding.String(),
			strconv.Itoa(r.Invoices), strconv.Itoa(r.MaxOverdue),
		})
	}
	return rows
}

// OverviewTable is the CSV view of a customer overview.
type OverviewTable []OverviewRow

// Header implements Table.
func (t OverviewTable) Header() []string {
	return []string{"company", "customer", "sales_ttc", "invoices", "last_invoice", "outstanding"}
}

// Rows implements Table.
func (t OverviewTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		lastInvoice := ""
		if !r.LastInvoice.IsZero() {
			lastInvoice = r.LastInvoice.Format(dateLayout)
		}
		rows = append(rows, []string{
			r.Company, r.Customer, r.SalesTTC.String(),
			strconv.Itoa(r.Invoices), lastInvoice, r.Outstanding.String(),
		})
	}
	return rows
}
