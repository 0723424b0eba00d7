package dashboard

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func purchase(id, company, supplier string, amount float64) PurchaseInvoice {
	return PurchaseInvoice{
		ID:             id,
		Company:        company,
		Supplier:       supplier,
		PostingDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		BaseGrandTotal: decimal.NewFromFloat(amount),
		Docstatus:      DocstatusSubmitted,
	}
}

func TestFlowJoinDropsPairsMissingEitherEndpoint(t *testing.T) {
	purchases := []PurchaseInvoice{
		purchase("P1", "C1", "S1", 100),
		purchase("P2", "C2", "S2", 50),
	}
	suppliers := []Supplier{
		{ID: "S1", Coords: &Coordinate{Lat: 34.02, Lon: -6.83}},
		{ID: "S2"}, // no coordinates
	}
	companies := []Company{
		{ID: "C1", Coords: &Coordinate{Lat: 33.58, Lon: -7.61}},
		{ID: "C2", Coords: &Coordinate{Lat: 31.63, Lon: -8.0}},
	}

	result := FlowJoin(purchases, suppliers, companies, 4)

	assert.Equal(t, 2, result.Pairs)
	assert.Equal(t, 1, result.WithEnds)
	require.Len(t, result.Edges, 1)

	edge := result.Edges[0]
	assert.Equal(t, "S1", edge.Supplier)
	assert.Equal(t, "C1", edge.Company)
	assert.True(t, edge.Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, Coordinate{Lat: 34.02, Lon: -6.83}, edge.SupplierCoords)
	assert.Equal(t, Coordinate{Lat: 33.58, Lon: -7.61}, edge.CompanyCoords)
}

func TestFlowJoinSumsPerPair(t *testing.T) {
	purchases := []PurchaseInvoice{
		purchase("P1", "C1", "S1", 100),
		purchase("P2", "C1", "S1", 150),
		purchase("P3", "C1", "", 40), // no supplier, skipped
	}
	suppliers := []Supplier{{ID: "S1", Coords: &Coordinate{Lat: 34.02, Lon: -6.83}}}
	companies := []Company{{ID: "C1", Coords: &Coordinate{Lat: 33.58, Lon: -7.61}}}

	result := FlowJoin(purchases, suppliers, companies, 4)

	require.Len(t, result.Edges, 1)
	assert.True(t, result.Edges[0].Amount.Equal(decimal.NewFromInt(250)))
}

func TestFlowWidthsScaleBetweenBaseAndDouble(t *testing.T) {
	purchases := []PurchaseInvoice{
		purchase("P1", "C1", "S1", 1000), // max -> double width
		purchase("P2", "C1", "S2", 500),  // half -> base width (clamped from 4)
		purchase("P3", "C1", "S3", 900),  // 0.9 -> 7.2
	}
	suppliers := []Supplier{
		{ID: "S1", Coords: &Coordinate{Lat: 1, Lon: 1}},
		{ID: "S2", Coords: &Coordinate{Lat: 2, Lon: 2}},
		{ID: "S3", Coords: &Coordinate{Lat: 3, Lon: 3}},
	}
	companies := []Company{{ID: "C1", Coords: &Coordinate{Lat: 9, Lon: 9}}}

	result := FlowJoin(purchases, suppliers, companies, 4)

	require.Len(t, result.Edges, 3)
	assert.InDelta(t, 8.0, result.Edges[0].WidthPx, 1e-9)
	assert.InDelta(t, 4.0, result.Edges[1].WidthPx, 1e-9)
	assert.InDelta(t, 7.2, result.Edges[2].WidthPx, 1e-9)
}

func TestFlowWidthsWhenMaxIsZero(t *testing.T) {
	purchases := []PurchaseInvoice{
		purchase("P1", "C1", "S1", 0),
		purchase("P2", "C1", "S2", 0),
	}
	suppliers := []Supplier{
		{ID: "S1", Coords: &Coordinate{Lat: 1, Lon: 1}},
		{ID: "S2", Coords: &Coordinate{Lat: 2, Lon: 2}},
	}
	companies := []Company{{ID: "C1", Coords: &Coordinate{Lat: 9, Lon: 9}}}

	result := FlowJoin(purchases, suppliers, companies, 4)

	require.Len(t, result.Edges, 2)
	for _, edge := range result.Edges {
		assert.Equal(t, 4.0, edge.WidthPx)
	}
}
