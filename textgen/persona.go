package textgen

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tailored-agentic-units/procure/core/domain"
)

// Role is the closed set of personas the engine asks the collaborator to
// play. Behavior is selected by matching on the tag; there is no open-ended
// persona registration.
type Role string

const (
	// RoleVendor answers as the selling counterpart in a negotiation.
	RoleVendor Role = "vendor"
	// RoleBuyer answers as the procurement side of a negotiation.
	RoleBuyer Role = "buyer"
	// RoleAnalyst produces structured restock recommendations.
	RoleAnalyst Role = "analyst"
)

// Instruction returns the persona's system instruction.
func (r Role) Instruction() string {
	switch r {
	case RoleVendor:
		return "You are a sales representative negotiating the sale of wholesale inventory. " +
			"Respond in character with a single short message. Defend your margin but stay " +
			"open to reasonable counter-offers. State any price you propose as a plain number."
	case RoleBuyer:
		return "You are a procurement buyer negotiating a purchase toward a target price. " +
			"Respond with a single short counter-offer message stating your price as a plain number."
	case RoleAnalyst:
		return "You are an inventory analyst. Respond with only a JSON object of the form " +
			`{"decisions": [{"item_sku", "action_type", "priority", "confidence_score", ` +
			`"reasoning", "recommended_quantity", "estimated_cost", "deadline"}], "summary"}. ` +
			"action_type is one of restock, negotiate, monitor, discontinue, alert; " +
			"priority is one of low, medium, high, critical."
	default:
		return ""
	}
}

// Exchange is one prior message in a negotiation transcript.
type Exchange struct {
	Sender  domain.Sender
	Content string
}

// NegotiationTurn carries everything the vendor persona needs to produce
// its next reply.
type NegotiationTurn struct {
	VendorID     string
	SKU          string
	Quantity     int
	InitialPrice decimal.Decimal
	CurrentOffer *decimal.Decimal
	History      []Exchange
}

// VendorReply builds the generation request for the vendor persona's next
// message in a negotiation.
func VendorReply(turn NegotiationTurn) Request {
	var b strings.Builder

	fmt.Fprintf(&b, "You are vendor %s selling %d units of item %s, listed at %s.\n",
		turn.VendorID, turn.Quantity, turn.SKU, turn.InitialPrice)
	if turn.CurrentOffer != nil {
		fmt.Fprintf(&b, "The price currently on the table is %s.\n", turn.CurrentOffer)
	}

	b.WriteString("Conversation so far:\n")
	for _, ex := range turn.History {
		fmt.Fprintf(&b, "- %s: %s\n", ex.Sender, ex.Content)
	}
	b.WriteString("Write your next reply to the buyer.")

	return Request{Prompt: b.String(), System: RoleVendor.Instruction()}
}

// RestockItem is one urgent item presented to the analyst persona.
type RestockItem struct {
	Item        domain.InventoryItem
	Priority    domain.Priority
	DailyRate   float64
	DaysOfStock float64
}

// RestockAdvice builds the generation request asking the analyst persona
// for structured restock decisions covering the given items.
func RestockAdvice(items []RestockItem) Request {
	var b strings.Builder

	b.WriteString("Recommend actions for the following inventory items:\n")
	for _, it := range items {
		fmt.Fprintf(&b,
			"- sku %s: stock %d (min %d, max %d), unit cost %s, lead time %d days, "+
				"daily sales rate %.2f, days of stock %.1f, urgency %s\n",
			it.Item.SKU, it.Item.CurrentStock, it.Item.MinThreshold, it.Item.MaxCapacity,
			it.Item.UnitCost, it.Item.LeadTimeDays, it.DailyRate, it.DaysOfStock, it.Priority)
	}
	b.WriteString("Return one decision per item.")

	return Request{Prompt: b.String(), System: RoleAnalyst.Instruction()}
}
