package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ActionType is the closed set of actions a decision can recommend.
type ActionType string

const (
	ActionRestock     ActionType = "restock"
	ActionNegotiate   ActionType = "negotiate"
	ActionMonitor     ActionType = "monitor"
	ActionDiscontinue ActionType = "discontinue"
	ActionAlert       ActionType = "alert"
)

// ParseActionType maps free-form text to an ActionType. Unknown values map
// to ActionAlert so the decision still surfaces for human review.
func ParseActionType(s string) ActionType {
	switch ActionType(normalizeTag(s)) {
	case ActionRestock:
		return ActionRestock
	case ActionNegotiate:
		return ActionNegotiate
	case ActionMonitor:
		return ActionMonitor
	case ActionDiscontinue:
		return ActionDiscontinue
	case ActionAlert:
		return ActionAlert
	default:
		return ActionAlert
	}
}

// Decision is a validated, structured recommendation. Decisions are created
// by the decision validator and never mutated afterwards; approval and
// execution happen downstream.
type Decision struct {
	ID             string           `json:"id"`
	Role           string           `json:"role"`
	SKU            string           `json:"sku"`
	Action         ActionType       `json:"action"`
	Priority       Priority         `json:"priority"`
	Confidence     float64          `json:"confidence"`
	Reasoning      string           `json:"reasoning"`
	RecommendedQty *int             `json:"recommended_qty,omitempty"`
	EstimatedCost  *decimal.Decimal `json:"estimated_cost,omitempty"`
	Deadline       *time.Time       `json:"deadline,omitempty"`
	Metadata       map[string]any   `json:"metadata,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

func normalizeTag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
