// Package dashboard turns raw ERPNext listing rows into the typed records and
// aggregate tables the reporting surface consumes: revenue time series,
// receivables rollups, customer overviews, plottable point sets and
// supplier→company flow edges.
package dashboard

import (
	"time"

	"github.com/shopspring/decimal"
)

// Docstatus values of the upstream document lifecycle.
const (
	DocstatusDraft     = 0
	DocstatusSubmitted = 1
	DocstatusCancelled = 2
)

// Coordinate is a validated geographic position. The zero pair (0,0) is an
// unset sentinel upstream, never a real business location, so it is rejected
// at parse time along with partial or unparseable pairs.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Invoice is a normalized sales invoice snapshot. Amounts are in the document
// currency unless the field name says otherwise; BaseGrandTotal (the TTC
// measure) and BaseOutstanding are in the owning company's base currency.
type Invoice struct {
	ID          string
	PostingDate time.Time
	DueDate     *time.Time
	Company     string
	Customer    string

	GrandTotal     decimal.Decimal
	BaseGrandTotal decimal.Decimal
	Currency       string
	Outstanding    decimal.Decimal
	ConversionRate decimal.Decimal

	// BaseOutstanding = Outstanding × ConversionRate, derived post-coercion.
	BaseOutstanding decimal.Decimal

	Status    string
	Docstatus int
}

// PurchaseInvoice is a normalized purchase invoice snapshot, the flow join's
// input.
type PurchaseInvoice struct {
	ID          string
	PostingDate time.Time
	Company     string
	Supplier    string

	GrandTotal     decimal.Decimal
	BaseGrandTotal decimal.Decimal
	Currency       string

	Status    string
	Docstatus int
}

// Customer is a normalized customer master record.
type Customer struct {
	ID string

	// DisplayName falls back to ID when the upstream name is blank or absent.
	DisplayName string

	Territory string
	Phone     string

	// Coords is nil unless both components parse and the pair is not (0,0).
	Coords *Coordinate
}

// Supplier is a normalized supplier master record.
type Supplier struct {
	ID          string
	DisplayName string
	Group       string
	Phone       string
	Coords      *Coordinate
}

// Company is a normalized company record: an invoice-grouping key and, for
// flows, an endpoint.
type Company struct {
	ID     string
	Coords *Coordinate
}
