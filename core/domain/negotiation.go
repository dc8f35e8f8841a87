package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Phase is the lifecycle state of a negotiation session.
type Phase string

const (
	PhaseInitiated Phase = "initiated"
	PhaseActive    Phase = "active"
	PhaseAgreed    Phase = "agreed"
	PhaseFailed    Phase = "failed"
	PhaseExpired   Phase = "expired"
)

// Terminal reports whether a session in this phase accepts further messages.
// Agreed, Failed, and Expired sessions are immutable.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseAgreed, PhaseFailed, PhaseExpired:
		return true
	default:
		return false
	}
}

// Sender identifies which side of a negotiation produced a message.
type Sender string

const (
	SenderBuyer  Sender = "buyer"
	SenderVendor Sender = "vendor"
)

// NegotiationMessage is one entry in a session's append-only history.
// Messages are never mutated after creation. Price holds the first
// currency-like value extracted from Content, if any.
type NegotiationMessage struct {
	ID        string           `json:"id"`
	SessionID string           `json:"session_id"`
	Sender    Sender           `json:"sender"`
	Content   string           `json:"content"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	SentAt    time.Time        `json:"sent_at"`
}

// SessionRecord is a persistence-ready snapshot of a negotiation session.
type SessionRecord struct {
	ID           string           `json:"id"`
	SKU          string           `json:"sku"`
	VendorID     string           `json:"vendor_id"`
	Quantity     int              `json:"quantity"`
	Phase        Phase            `json:"phase"`
	InitialPrice decimal.Decimal  `json:"initial_price"`
	TargetPrice  decimal.Decimal  `json:"target_price"`
	CurrentOffer *decimal.Decimal `json:"current_offer,omitempty"`
	Rounds       int              `json:"rounds"`
	MessageCount int              `json:"message_count"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
