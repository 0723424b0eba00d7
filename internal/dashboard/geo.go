package dashboard

import (
	"hash/fnv"
	"strconv"
)

// ValidCoordinate reports whether an already-parsed pair is a real location.
// (0,0) is the upstream "unset" sentinel, not a place any customer or
// supplier does business, so it counts as no data. Presence and numeric
// parsing are enforced earlier, at the normalization boundary.
func ValidCoordinate(lat, lon float64) bool {
	return !(lat == 0 && lon == 0)
}

// Point statuses for map point sets.
const (
	StatusSold     = "Sold (period)"
	StatusNoSale   = "No sale in period"
	StatusActive   = "Supplier active (period)"
	StatusInactive = "Supplier inactive (period)"
)

// Point is one plottable entity. Lat/Lon carry the (optionally jittered)
// render position; the raw validated coordinate stays in Coords.
type Point struct {
	ID     string
	Label  string
	Status string
	Phone  string
	Coords Coordinate
	Lat    float64
	Lon    float64
}

// Coverage makes silent geo exclusions visible: how many entities exist vs.
// how many carried valid coordinates.
type Coverage struct {
	Total      int
	WithCoords int
}

// PointSet is a plottable point table with its coverage counts.
type PointSet struct {
	Points   []Point
	Coverage Coverage
}

// Header implements Table.
func (ps PointSet) Header() []string {
	return []string{"name", "label", "status", "lat", "lon", "phone"}
}

// Rows implements Table.
func (ps PointSet) Rows() [][]string {
	rows := make([][]string, 0, len(ps.Points))
	for _, p := range ps.Points {
		rows = append(rows, []string{
			p.ID,
			p.Label,
			p.Status,
			strconv.FormatFloat(p.Coords.Lat, 'f', -1, 64),
			strconv.FormatFloat(p.Coords.Lon, 'f', -1, 64),
			p.Phone,
		})
	}
	return rows
}

// CustomerPoints builds the customer point set. Customers without valid
// coordinates are excluded from Points but counted in Coverage. Status is
// Sold when the customer ID appears in the period buyer set.
func CustomerPoints(customers []Customer, buyers map[string]struct{}, jitter bool) PointSet {
	set := PointSet{Coverage: Coverage{Total: len(customers)}}
	for _, c := range customers {
		if c.Coords == nil {
			continue
		}
		set.Coverage.WithCoords++

		status := StatusNoSale
		if _, ok := buyers[c.ID]; ok {
			status = StatusSold
		}
		set.Points = append(set.Points, newPoint(c.ID, c.ID, "Customer: "+c.DisplayName, status, c.Phone, *c.Coords, jitter))
	}
	return set
}

// SupplierPoints builds the supplier point set; active means the supplier had
// purchase invoices in the period.
func SupplierPoints(suppliers []Supplier, active map[string]struct{}, jitter bool) PointSet {
	set := PointSet{Coverage: Coverage{Total: len(suppliers)}}
	for _, s := range suppliers {
		if s.Coords == nil {
			continue
		}
		set.Coverage.WithCoords++

		status := StatusInactive
		if _, ok := active[s.ID]; ok {
			status = StatusActive
		}
		// "S" prefix keeps supplier jitter independent from a customer
		// sharing the same identifier.
		set.Points = append(set.Points, newPoint(s.ID, "S"+s.ID, "Supplier: "+s.DisplayName, status, s.Phone, *s.Coords, jitter))
	}
	return set
}

func newPoint(id, seed, label, status, phone string, coords Coordinate, jitter bool) Point {
	p := Point{
		ID:     id,
		Label:  label,
		Status: status,
		Phone:  phone,
		Coords: coords,
		Lat:    coords.Lat,
		Lon:    coords.Lon,
	}
	if jitter {
		p.Lat += JitterOffset(seed)
		p.Lon += JitterOffset(seed + "x")
	}
	return p
}

// JitterOffset derives a tiny deterministic offset (±2.5e-5 degrees) from an
// entity identifier so nearby points de-overlap the same way on every render.
// Presentation-only; aggregates never depend on it.
func JitterOffset(seed string) float64 {
	h := fnv.New32a()
	h.Write([]byte(seed))
	return (float64(h.Sum32()%10_000)/10_000.0 - 0.5) * 0.00005
}
