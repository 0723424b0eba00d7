package dashboard

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func saleInvoice(id, company, customer string, posting time.Time, ttc float64) Invoice {
	return Invoice{
		ID:             id,
		Company:        company,
		Customer:       customer,
		PostingDate:    posting,
		BaseGrandTotal: decimal.NewFromFloat(ttc),
		Docstatus:      DocstatusSubmitted,
	}
}

func openInvoice(id, company, customer string, outstanding float64, due *time.Time) Invoice {
	inv := Invoice{
		ID:              id,
		Company:         company,
		Customer:        customer,
		Outstanding:     decimal.NewFromFloat(outstanding),
		ConversionRate:  decimal.NewFromInt(1),
		BaseOutstanding: decimal.NewFromFloat(outstanding),
		DueDate:         due,
		Docstatus:       DocstatusSubmitted,
	}
	return inv
}

func TestDailySeriesZeroFillsPerCompany(t *testing.T) {
	invoices := []Invoice{
		saleInvoice("A1", "Acme SA", "CUST-1", day(2026, 3, 1), 100),
		saleInvoice("A2", "Acme SA", "CUST-2", day(2026, 3, 4), 40),
		saleInvoice("A3", "Acme SA", "CUST-1", day(2026, 3, 4), 10),
		saleInvoice("B1", "Borealis", "CUST-3", day(2026, 3, 10), 75),
	}

	series := DailySeries(invoices)

	// Acme spans 4 days (two zero-filled), Borealis exactly one.
	require.Len(t, series, 5)
	assert.Equal(t, day(2026, 3, 1), series[0].Date)
	assert.Equal(t, "Acme SA", series[0].Company)
	assert.True(t, series[0].Total.Equal(decimal.NewFromInt(100)), "got %s", series[0].Total)
	assert.True(t, series[1].Total.IsZero(), "2026-03-02 has no activity")
	assert.True(t, series[2].Total.IsZero(), "2026-03-03 has no activity")
	assert.True(t, series[3].Total.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "Borealis", series[4].Company)
	assert.Equal(t, day(2026, 3, 10), series[4].Date)

	// A company absent from the input contributes no rows at all, not zeros.
	for _, p := range series {
		assert.NotEqual(t, "Chronos", p.Company)
	}
}

func TestMonthlySeriesRebucketsDaily(t *testing.T) {
	invoices := []Invoice{
		saleInvoice("A1", "Acme SA", "CUST-1", day(2026, 1, 30), 100),
		saleInvoice("A2", "Acme SA", "CUST-1", day(2026, 2, 2), 60),
		saleInvoice("A3", "Acme SA", "CUST-2", day(2026, 2, 27), 40),
	}

	monthly := MonthlySeries(DailySeries(invoices))

	require.Len(t, monthly, 2)
	assert.Equal(t, "2026-01", monthly[0].Month)
	assert.True(t, monthly[0].Total.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "2026-02", monthly[1].Month)
	assert.True(t, monthly[1].Total.Equal(decimal.NewFromInt(100)))
}

func TestTopCustomersTruncatesAndBreaksTiesByFirstSeen(t *testing.T) {
	invoices := []Invoice{
		saleInvoice("A1", "Acme SA", "CUST-B", day(2026, 3, 1), 50),
		saleInvoice("A2", "Acme SA", "CUST-A", day(2026, 3, 2), 50),
		saleInvoice("A3", "Acme SA", "CUST-C", day(2026, 3, 3), 80),
		saleInvoice("A4", "Acme SA", "CUST-D", day(2026, 3, 4), 10),
	}

	top := TopCustomersBySales(invoices, 3)

	require.Len(t, top, 3)
	assert.Equal(t, "CUST-C", top[0].Key)
	// CUST-B and CUST-A are tied at 50; CUST-B appeared first in the input.
	assert.Equal(t, "CUST-B", top[1].Key)
	assert.Equal(t, "CUST-A", top[2].Key)

	// Deterministic across repeated runs on the same input ordering.
	assert.Equal(t, top, TopCustomersBySales(invoices, 3))
}

func TestDaysOverdue(t *testing.T) {
	asOf := day(2026, 8, 31)

	past := day(2026, 8, 21)
	future := day(2026, 9, 10)

	assert.Equal(t, 10, DaysOverdue(Invoice{DueDate: &past}, asOf))
	assert.Equal(t, -10, DaysOverdue(Invoice{DueDate: &future}, asOf))
	assert.Equal(t, 0, DaysOverdue(Invoice{DueDate: &asOf}, asOf))
	// Missing due date counts as zero, matching upstream behavior.
	assert.Equal(t, 0, DaysOverdue(Invoice{}, asOf))
}

func TestReceivablesRollup(t *testing.T) {
	asOf := day(2026, 8, 31)
	due1 := day(2026, 8, 1)  // 30 days overdue
	due2 := day(2026, 8, 26) // 5 days overdue

	invoices := []Invoice{
		openInvoice("I1", "Acme SA", "CUST-1", 200, &due1),
		openInvoice("I2", "Acme SA", "CUST-1", 100, &due2),
		openInvoice("I3", "Acme SA", "CUST-2", 500, nil),
		openInvoice("I4", "Borealis", "CUST-1", 50, &due2),
	}

	rollup := ReceivablesRollup(invoices, asOf)

	require.Len(t, rollup, 3)
	// Sorted by outstanding descending. Decimals compare by value, not by
	// internal representation, so fields are asserted individually.
	assert.Equal(t, "Acme SA", rollup[0].Company)
	assert.Equal(t, "CUST-2", rollup[0].Customer)
	assert.True(t, rollup[0].Outstanding.Equal(decimal.NewFromInt(500)), "got %s", rollup[0].Outstanding)
	assert.Equal(t, 1, rollup[0].Invoices)
	assert.Equal(t, 0, rollup[0].MaxOverdue)
	assert.Equal(t, "CUST-1", rollup[1].Customer)
	assert.True(t, rollup[1].Outstanding.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, 2, rollup[1].Invoices)
	assert.Equal(t, 30, rollup[1].MaxOverdue)
	assert.Equal(t, "Borealis", rollup[2].Company)
}

func TestReceivablesRollupKeepsNegativeOverdue(t *testing.T) {
	asOf := day(2026, 8, 31)
	future := day(2026, 9, 30)

	rollup := ReceivablesRollup([]Invoice{
		openInvoice("I1", "Acme SA", "CUST-1", 100, &future),
	}, asOf)

	require.Len(t, rollup, 1)
	assert.Equal(t, -30, rollup[0].MaxOverdue, "an invoice not yet due reports negative overdue days")
}

func TestOverviewJoinFillsMissingSides(t *testing.T) {
	period := []CustomerSalesRow{
		{Company: "Acme SA", Customer: "CUST-1", SalesTTC: decimal.NewFromInt(900), Invoices: 3, LastInvoice: day(2026, 3, 20)},
		{Company: "Acme SA", Customer: "CUST-2", SalesTTC: decimal.NewFromInt(150), Invoices: 1, LastInvoice: day(2026, 3, 5)},
	}
	open := []ReceivableRow{
		{Company: "Acme SA", Customer: "CUST-1", Outstanding: decimal.NewFromInt(300)},
		{Company: "Acme SA", Customer: "CUST-9", Outstanding: decimal.NewFromInt(80)},
	}

	rows := OverviewJoin(period, open)

	require.Len(t, rows, 3)
	assert.True(t, rows[0].Outstanding.Equal(decimal.NewFromInt(300)))
	assert.True(t, rows[1].Outstanding.IsZero(), "no open invoices for CUST-2")
	// CUST-9 only has outstanding: zero sales side.
	assert.Equal(t, "CUST-9", rows[2].Customer)
	assert.True(t, rows[2].SalesTTC.IsZero())
	assert.Equal(t, 0, rows[2].Invoices)
	assert.True(t, rows[2].LastInvoice.IsZero())
}

func TestAggregationIsByteIdenticalAcrossRuns(t *testing.T) {
	due := day(2026, 4, 10)
	invoices := []Invoice{
		saleInvoice("A1", "Acme SA", "CUST-B", day(2026, 3, 1), 50),
		saleInvoice("A2", "Acme SA", "CUST-A", day(2026, 3, 3), 50),
		openInvoice("A3", "Borealis", "CUST-C", 120, &due),
		saleInvoice("A4", "Borealis", "CUST-A", day(2026, 3, 2), 75),
	}
	asOf := day(2026, 8, 31)

	render := func() []byte {
		var buf bytes.Buffer
		daily := DailySeries(invoices)
		require.NoError(t, WriteCSV(&buf, SeriesTable(daily)))
		require.NoError(t, WriteCSV(&buf, MonthlyTable(MonthlySeries(daily))))
		require.NoError(t, WriteCSV(&buf, RankingTable(TopCustomersBySales(invoices, 10))))
		require.NoError(t, WriteCSV(&buf, ReceivablesTable(ReceivablesRollup(invoices, asOf))))
		return buf.Bytes()
	}

	assert.Equal(t, render(), render())
}

func TestCSVOutputShape(t *testing.T) {
	table := ReceivablesTable{
		{Company: "Acme SA", Customer: "CUST-1", Outstanding: decimal.RequireFromString("1234.56"), Invoices: 2, MaxOverdue: 12},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))

	assert.Equal(t,
		"company,customer,outstanding,invoices,max_overdue_days\n"+
			"Acme SA,CUST-1,1234.56,2,12\n",
		buf.String())
}
