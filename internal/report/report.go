package report

import (
	"github.com/shopspring/decimal"
	"github.com/ukydev/fleet-trips/internal/models"
)

// NotAvailable fills absent descriptive fields.
const NotAvailable = "N/A"

// DefaultGoal is the minimum profit line drawn on the performance charts.
var DefaultGoal = decimal.NewFromInt(30000)

// Point is one trip in a per-truck profit series.
type Point struct {
	Date        models.Date
	Profit      decimal.Decimal
	Origin      string
	Destination string
	Driver      string
	Client      string
}

// Groups maps plates to their series. Plates keeps first-seen order so that
// callers can iterate deterministically.
type Groups struct {
	Plates []string
	Series map[string][]Point
}

// GroupByPlate groups finalized trips per truck. Order inside each group is
// the input order; nothing is re-sorted.
func GroupByPlate(trips []models.Trip) Groups {
	g := Groups{Series: make(map[string][]Point)}
	for _, t := range trips {
		if _, seen := g.Series[t.Plate]; !seen {
			g.Plates = append(g.Plates, t.Plate)
		}
		g.Series[t.Plate] = append(g.Series[t.Plate], Point{
			Date:        t.EndDate,
			Profit:      t.TotalProfit.Decimal,
			Origin:      t.Origin,
			Destination: t.Destination,
			Driver:      t.DriverName,
			Client:      t.ClientName,
		})
	}
	return g
}

// Row is one flat export line with preformatted values.
type Row struct {
	Plate       string
	TruckName   string
	Driver      string
	Client      string
	Origin      string
	Destination string
	StartDate   string
	EndDate     string
	Freight     string
	Costs       string
	Profit      string
	Status      string
}

// Headers are the export column titles, in Row field order.
var Headers = []string{
	"Placa", "Nome Caminhão", "Motorista", "Cliente", "Origem", "Destino",
	"Data Início", "Data Fim", "Frete", "Custos", "Lucro Total (R$)", "Status",
}

// Values returns the row cells in Headers order.
func (r Row) Values() []string {
	return []string{
		r.Plate, r.TruckName, r.Driver, r.Client, r.Origin, r.Destination,
		r.StartDate, r.EndDate, r.Freight, r.Costs, r.Profit, r.Status,
	}
}

// ToExportRows flattens trips for the table and document writers.
func ToExportRows(trips []models.Trip) []Row {
	rows := make([]Row, 0, len(trips))
	for _, t := range trips {
		rows = append(rows, Row{
			Plate:       t.Plate,
			TruckName:   orNA(t.TruckName),
			Driver:      orNA(t.DriverName),
			Client:      orNA(t.ClientName),
			Origin:      orNA(t.Origin),
			Destination: orNA(t.Destination),
			StartDate:   t.StartDate.String(),
			EndDate:     t.EndDate.String(),
			Freight:     t.Freight.StringFixed(2),
			Costs:       t.Costs.StringFixed(2),
			Profit:      t.TotalProfit.Decimal.StringFixed(2),
			Status:      string(t.Status),
		})
	}
	return rows
}

func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
