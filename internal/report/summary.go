package report

import (
	"github.com/shopspring/decimal"
	"github.com/ukydev/fleet-trips/internal/models"
)

// SummaryEntry is one bar of the financial summary.
type SummaryEntry struct {
	Plate       string
	Origin      string
	Destination string
	EndDate     models.Date
	Profit      decimal.Decimal
	MeetsGoal   bool
}

// Summary aggregates finalized trips against a profit goal.
type Summary struct {
	Goal        decimal.Decimal
	Entries     []SummaryEntry
	Freight     decimal.Decimal
	Costs       decimal.Decimal
	TotalProfit decimal.Decimal
	AboveGoal   int
	Losses      int
}

// Summarize builds the financial summary. Trips without a computed profit
// are skipped.
func Summarize(trips []models.Trip, goal decimal.Decimal) Summary {
	s := Summary{Goal: goal}
	for _, t := range trips {
		if !t.TotalProfit.Valid {
			continue
		}
		profit := t.TotalProfit.Decimal
		entry := SummaryEntry{
			Plate:       t.Plate,
			Origin:      t.Origin,
			Destination: t.Destination,
			EndDate:     t.EndDate,
			Profit:      profit,
			MeetsGoal:   profit.GreaterThanOrEqual(goal),
		}
		s.Entries = append(s.Entries, entry)
		s.Freight = s.Freight.Add(t.Freight)
		s.Costs = s.Costs.Add(t.Costs)
		s.TotalProfit = s.TotalProfit.Add(profit)
		if entry.MeetsGoal {
			s.AboveGoal++
		}
		if profit.IsNegative() {
			s.Losses++
		}
	}
	return s
}
