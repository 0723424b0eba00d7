package dashboard

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"erpdash/internal/erpnext"
)

// Normalization is the trust boundary: rows arrive as loosely-typed maps and
// leave as typed records. Data-quality problems (unparseable numbers, blank
// names, degenerate coordinates) are coerced to conservative defaults here
// and never surface as errors.

const dateLayout = "2006-01-02"

// NormalizeInvoice converts a raw sales-invoice row into an Invoice.
// Conversion rate defaults to 1.0 and outstanding to 0.0 when absent or
// unparseable; BaseOutstanding is derived after coercion.
func NormalizeInvoice(row erpnext.Row) Invoice {
	outstanding := decimalField(row, "outstanding_amount", decimal.Zero)
	rate := decimalField(row, "conversion_rate", decimal.NewFromInt(1))

	return Invoice{
		ID:              stringField(row, "name"),
		PostingDate:     dateField(row, "posting_date"),
		DueDate:         optionalDateField(row, "due_date"),
		Company:         stringField(row, "company"),
		Customer:        stringField(row, "customer"),
		GrandTotal:      decimalField(row, "grand_total", decimal.Zero),
		BaseGrandTotal:  decimalField(row, "base_grand_total", decimal.Zero),
		Currency:        stringField(row, "currency"),
		Outstanding:     outstanding,
		ConversionRate:  rate,
		BaseOutstanding: outstanding.Mul(rate),
		Status:          stringField(row, "status"),
		Docstatus:       intField(row, "docstatus", DocstatusSubmitted),
	}
}

// NormalizePurchaseInvoice converts a raw purchase-invoice row.
func NormalizePurchaseInvoice(row erpnext.Row) PurchaseInvoice {
	return PurchaseInvoice{
		ID:             stringField(row, "name"),
		PostingDate:    dateField(row, "posting_date"),
		Company:        stringField(row, "company"),
		Supplier:       stringField(row, "supplier"),
		GrandTotal:     decimalField(row, "grand_total", decimal.Zero),
		BaseGrandTotal: decimalField(row, "base_grand_total", decimal.Zero),
		Currency:       stringField(row, "currency"),
		Status:         stringField(row, "status"),
		Docstatus:      intField(row, "docstatus", DocstatusSubmitted),
	}
}

// NormalizeCustomer converts a raw customer row, applying the display-name
// fallback and the coordinate validity filter.
func NormalizeCustomer(row erpnext.Row) Customer {
	id := stringField(row, "name")
	return Customer{
		ID:          id,
		DisplayName: displayName(stringField(row, "customer_name"), id),
		Territory:   stringField(row, "territory"),
		Phone:       stringField(row, "mobile_no"),
		Coords:      coordinateField(row, "custom_lat", "custom_lon"),
	}
}

// NormalizeSupplier converts a raw supplier row.
func NormalizeSupplier(row erpnext.Row) Supplier {
	id := stringField(row, "name")
	return Supplier{
		ID:          id,
		DisplayName: displayName(stringField(row, "supplier_name"), id),
		Group:       stringField(row, "supplier_group"),
		Phone:       stringField(row, "mobile_no"),
		Coords:      coordinateField(row, "custom_lat", "custom_lon"),
	}
}

// NormalizeCompany converts a raw company row.
func NormalizeCompany(row erpnext.Row) Company {
	return Company{
		ID:     stringField(row, "name"),
		Coords: coordinateField(row, "custom_lat", "custom_lon"),
	}
}

// displayName substitutes the identifier when the preferred name is blank or
// absent. Blank and absent behave identically; an empty name is never shown.
func displayName(preferred, id string) string {
	if strings.TrimSpace(preferred) == "" {
		return id
	}
	return preferred
}

func stringField(row erpnext.Row, key string) string {
	value, ok := row[key]
	if !ok || value == nil {
		return ""
	}
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return s
}

// floatField parses a numeric field permissively. JSON decoding yields
// float64 for numbers, but coordinate custom fields regularly arrive as
// strings; both are accepted.
func floatField(row erpnext.Row, key string) (float64, bool) {
	value, ok := row[key]
	if !ok || value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// decimalField parses a monetary field, returning fallback when the value is
// absent or unparseable.
func decimalField(row erpnext.Row, key string, fallback decimal.Decimal) decimal.Decimal {
	value, ok := row[key]
	if !ok || value == nil {
		return fallback
	}
	switch v := value.(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return fallback
		}
		return d
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return fallback
		}
		return d
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	default:
		return fallback
	}
}

func intField(row erpnext.Row, key string, fallback int) int {
	f, ok := floatField(row, key)
	if !ok {
		return fallback
	}
	return int(f)
}

func dateField(row erpnext.Row, key string) time.Time {
	t := optionalDateField(row, key)
	if t == nil {
		return time.Time{}
	}
	return *t
}

func optionalDateField(row erpnext.Row, key string) *time.Time {
	s := stringField(row, key)
	if s == "" {
		return nil
	}
	// Listing endpoints return bare dates; datetime fields carry a time part.
	for _, layout := range []string{dateLayout, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func coordinateField(row erpnext.Row, latKey, lonKey string) *Coordinate {
	lat, latOK := floatField(row, latKey)
	lon, lonOK := floatField(row, lonKey)
	if !latOK || !lonOK {
		return nil
	}
	if !ValidCoordinate(lat, lon) {
		return nil
	}
	return &Coordinate{Lat: lat, Lon: lon}
}
