// Package urgency classifies inventory items by restock urgency from stock
// levels and sales velocity. Classification is a pure function of its inputs
// with no side effects, so it is safe for unbounded concurrent use.
package urgency

import (
	"time"

	"github.com/tailored-agentic-units/procure/core/domain"
)

// Lead-time multipliers mapping stock coverage to priority bands.
const (
	criticalCoverage = 1.0
	highCoverage     = 1.5
	mediumCoverage   = 2.0
)

// Assessment is the full classification outcome for one item. DailyRate and
// DaysOfStock are zero when no sales history exists for the SKU.
type Assessment struct {
	SKU         string          `json:"sku"`
	Priority    domain.Priority `json:"priority"`
	DailyRate   float64         `json:"daily_rate"`
	DaysOfStock float64         `json:"days_of_stock"`
	TotalSold   int             `json:"total_sold"`
}

// Classify maps an inventory item and its sales history to a restock
// priority. Sales records for other SKUs are ignored.
func Classify(item domain.InventoryItem, sales []domain.SalesRecord) domain.Priority {
	return Assess(item, sales).Priority
}

// Assess computes the sales velocity behind Classify along with the
// resulting priority, for callers that need the numbers (prompts, reports).
func Assess(item domain.InventoryItem, sales []domain.SalesRecord) Assessment {
	a := Assessment{SKU: item.SKU}

	var (
		total    int
		minDate  time.Time
		maxDate  time.Time
		haveDate bool
	)
	for _, rec := range sales {
		if rec.SKU != item.SKU {
			continue
		}
		total += rec.Quantity
		if !haveDate || rec.Date.Before(minDate) {
			minDate = rec.Date
		}
		if !haveDate || rec.Date.After(maxDate) {
			maxDate = rec.Date
		}
		haveDate = true
	}

	if !haveDate {
		a.Priority = classifyWithoutSales(item)
		return a
	}

	a.TotalSold = total

	daySpan := maxDate.Sub(minDate).Hours() / 24
	if daySpan < 1 {
		daySpan = 1
	}
	a.DailyRate = float64(total) / daySpan

	// An empty shelf is critical no matter what the velocity says.
	if item.CurrentStock == 0 {
		a.Priority = domain.PriorityCritical
		return a
	}

	// Sales exist but show no movement: an ambiguous signal. Stale listings
	// still warrant review, so this is Medium rather than Low.
	if a.DailyRate == 0 {
		a.Priority = domain.PriorityMedium
		return a
	}

	a.DaysOfStock = float64(item.CurrentStock) / a.DailyRate
	lead := float64(item.LeadTimeDays)

	switch {
	case a.DaysOfStock <= lead*criticalCoverage:
		a.Priority = domain.PriorityCritical
	case a.DaysOfStock <= lead*highCoverage:
		a.Priority = domain.PriorityHigh
	case a.DaysOfStock <= lead*mediumCoverage:
		a.Priority = domain.PriorityMedium
	default:
		a.Priority = domain.PriorityLow
	}
	return a
}

func classifyWithoutSales(item domain.InventoryItem) domain.Priority {
	switch {
	case item.CurrentStock == 0:
		return domain.PriorityCritical
	case item.CurrentStock <= item.MinThreshold:
		return domain.PriorityHigh
	default:
		return domain.PriorityLow
	}
}
