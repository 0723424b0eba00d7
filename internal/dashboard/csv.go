package dashboard

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Table is any aggregate representable as delimited text: a header row of
// logical column names followed by one row per aggregate entity.
type Table interface {
	Header() []string
	Rows() [][]string
}

// WriteCSV renders a table as UTF-8 CSV, header first.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range t.Rows() {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
