package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Priority describes how soon an inventory item needs attention.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// priorityRanks orders priorities from least to most urgent.
var priorityRanks = map[Priority]int{
	PriorityLow:      1,
	PriorityMedium:   2,
	PriorityHigh:     3,
	PriorityCritical: 4,
}

// Rank returns a numeric severity for ordering; unknown priorities rank 0.
func (p Priority) Rank() int {
	return priorityRanks[p]
}

// AtLeast reports whether p is as urgent as other or more so.
func (p Priority) AtLeast(other Priority) bool {
	return p.Rank() >= other.Rank()
}

// ParsePriority maps free-form text to a Priority. Unknown values map to
// PriorityMedium so malformed recommendation payloads still classify.
func ParsePriority(s string) Priority {
	switch Priority(normalizeTag(s)) {
	case PriorityLow:
		return PriorityLow
	case PriorityMedium:
		return PriorityMedium
	case PriorityHigh:
		return PriorityHigh
	case PriorityCritical:
		return PriorityCritical
	default:
		return PriorityMedium
	}
}

// InventoryItem is a stocked SKU with its replenishment parameters.
type InventoryItem struct {
	SKU          string          `json:"sku"`
	CurrentStock int             `json:"current_stock"`
	MinThreshold int             `json:"min_threshold"`
	MaxCapacity  int             `json:"max_capacity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	LeadTimeDays int             `json:"lead_time_days"`
}

// SalesRecord is one day's sales for a SKU. Many records may exist per SKU
// and per date; there is no uniqueness constraint.
type SalesRecord struct {
	SKU      string    `json:"sku"`
	Date     time.Time `json:"date"`
	Quantity int       `json:"quantity"`
}
