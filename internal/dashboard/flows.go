package dashboard

import (
	"strconv"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// FlowEdge is one supplier→company purchase relationship for the period, with
// both endpoints' validated coordinates and a render line width.
type FlowEdge struct {
	Supplier string
	Company  string
	Amount   decimal.Decimal

	SupplierCoords Coordinate
	CompanyCoords  Coordinate

	// WidthPx scales linearly from the configured minimum to double that
	// minimum with the edge's share of the maximum amount.
	WidthPx float64
}

// FlowResult carries the joined edges plus the coverage of the join: how many
// (supplier, company) pairs had purchase activity vs. how many survived both
// coordinate joins.
type FlowResult struct {
	Edges    []FlowEdge
	Pairs    int
	WithEnds int
}

// FlowJoin aggregates purchase rows into supplier→company edges. Rows missing
// a supplier or company are skipped; pairs whose supplier or company lacks
// valid coordinates are silently dropped (visualization-only output, recorded
// in the coverage counts). Edge order is first-seen pair order.
func FlowJoin(purchases []PurchaseInvoice, suppliers []Supplier, companies []Company, baseWidth float64) FlowResult {
	type key struct{ supplier, company string }

	amounts := map[key]decimal.Decimal{}
	var order []key
	for _, p := range purchases {
		if p.Supplier == "" || p.Company == "" {
			continue
		}
		k := key{p.Supplier, p.Company}
		if _, seen := amounts[k]; !seen {
			order = append(order, k)
		}
		amounts[k] = amounts[k].Add(p.BaseGrandTotal)
	}

	supplierCoords := coordsByID(suppliers, func(s Supplier) (string, *Coordinate) { return s.ID, s.Coords })
	companyCoords := coordsByID(companies, func(c Company) (string, *Coordinate) { return c.ID, c.Coords })

	result := FlowResult{Pairs: len(order)}
	for _, k := range order {
		sup, okS := supplierCoords[k.supplier]
		comp, okC := companyCoords[k.company]
		if !okS || !okC {
			continue
		}
		result.Edges = append(result.Edges, FlowEdge{
			Supplier:       k.supplier,
			Company:        k.company,
			Amount:         amounts[k],
			SupplierCoords: sup,
			CompanyCoords:  comp,
		})
	}
	result.WithEnds = len(result.Edges)

	applyFlowWidths(result.Edges, baseWidth)
	return result
}

func coordsByID[T any](items []T, pick func(T) (string, *Coordinate)) map[string]Coordinate {
	coords := make(map[string]Coordinate, len(items))
	for _, item := range items {
		id, c := pick(item)
		if c != nil {
			coords[id] = *c
		}
	}
	return coords
}

// applyFlowWidths assigns each edge a width between baseWidth and twice
// baseWidth, proportional to its share of the maximum amount. When the
// maximum is not positive every edge gets the minimum.
func applyFlowWidths(edges []FlowEdge, baseWidth float64) {
	if len(edges) == 0 {
		return
	}

	max := lo.MaxBy(edges, func(a, b FlowEdge) bool { return a.Amount.GreaterThan(b.Amount) }).Amount
	if !max.IsPositive() {
		for i := range edges {
			edges[i].WidthPx = baseWidth
		}
		return
	}

	maxF, _ := max.Float64()
	for i := range edges {
		amount, _ := edges[i].Amount.Float64()
		width := amount / maxF * (baseWidth * 2)
		if width < baseWidth {
			width = baseWidth
		}
		if width > baseWidth*2 {
			width = baseWidth * 2
		}
		edges[i].WidthPx = width
	}
}

// FlowTable is the CSV view of a flow result.
type FlowTable []FlowEdge

// Header implements Table.
func (t FlowTable) Header() []string {
	return []string{"supplier", "company", "amount", "sup_lat", "sup_lon", "comp_lat", "comp_lon", "width_px"}
}

// Rows implements Table.
func (t FlowTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, e := range t {
		rows = append(rows, []string{
			e.Supplier,
			e.Company,
			e.Amount.String(),
			strconv.FormatFloat(e.SupplierCoords.Lat, 'f', -1, 64),
			strconv.FormatFloat(e.SupplierCoords.Lon, 'f', -1, 64),
			strconv.FormatFloat(e.CompanyCoords.Lat, 'f', -1, 64),
			strconv.FormatFloat(e.CompanyCoords.Lon, 'f', -1, 64),
			strconv.FormatFloat(e.WidthPx, 'f', -1, 64),
		})
	}
	return rows
}
