package negotiation

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/tailored-agentic-units/procure/core/domain"
)

// session owns all mutable state for one negotiation. The mutex serializes
// rounds: at most one SendMessage against a session is in flight at a time.
// Sessions are only ever handed out as opaque ids; no caller holds a direct
// reference to this struct.
type session struct {
	mu sync.Mutex

	id       string
	sku      string
	vendorID string
	quantity int

	initialPrice decimal.Decimal
	targetPrice  decimal.Decimal
	currentOffer *decimal.Decimal

	phase    domain.Phase
	messages []domain.NegotiationMessage
	rounds   int

	// Per-round collaborator failures are recorded here without
	// terminating the session; the caller may retry the round.
	replyFailures int
	lastFailure   string

	createdAt time.Time
	updatedAt time.Time
}

// append adds a message to the history, extracting a price and advancing
// currentOffer when one is found. Caller holds s.mu.
func (s *session) append(sender domain.Sender, content string, at time.Time) domain.NegotiationMessage {
	msg := domain.NegotiationMessage{
		ID:        ulid.Make().String(),
		SessionID: s.id,
		Sender:    sender,
		Content:   content,
		SentAt:    at,
	}

	if price, ok := ExtractPrice(content); ok {
		msg.Price = &price
		s.currentOffer = &price
	}

	s.messages = append(s.messages, msg)
	s.updatedAt = at
	return msg
}

// record snapshots the session for persistence. Caller holds s.mu.
func (s *session) record() domain.SessionRecord {
	return domain.SessionRecord{
		ID:           s.id,
		SKU:          s.sku,
		VendorID:     s.vendorID,
		Quantity:     s.quantity,
		Phase:        s.phase,
		InitialPrice: s.initialPrice,
		TargetPrice:  s.targetPrice,
		CurrentOffer: s.currentOffer,
		Rounds:       s.rounds,
		MessageCount: len(s.messages),
		CreatedAt:    s.createdAt,
		UpdatedAt:    s.updatedAt,
	}
}

// Summary is the caller-facing view of a session's progress. Savings is
// initial price minus the current offer, present once an offer exists.
type Summary struct {
	SessionID    string           `json:"session_id"`
	Phase        domain.Phase     `json:"phase"`
	CurrentOffer *decimal.Decimal `json:"current_offer,omitempty"`
	MessageCount int              `json:"message_count"`
	Rounds       int              `json:"rounds"`
	Savings      *decimal.Decimal `json:"savings,omitempty"`
	LastFailure  string           `json:"last_failure,omitempty"`
}

// summary builds the Summary view. Caller holds s.mu.
func (s *session) summary() Summary {
	sum := Summary{
		SessionID:    s.id,
		Phase:        s.phase,
		CurrentOffer: s.currentOffer,
		MessageCount: len(s.messages),
		Rounds:       s.rounds,
		LastFailure:  s.lastFailure,
	}
	if s.currentOffer != nil {
		savings := s.initialPrice.Sub(*s.currentOffer)
		sum.Savings = &savings
	}
	return sum
}
