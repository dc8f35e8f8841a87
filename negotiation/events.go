package negotiation

import "github.com/tailored-agentic-units/procure/observability"

// Negotiation event types emitted during session lifecycles.
const (
	EventSessionStart   observability.EventType = "negotiation.session.start"
	EventRound          observability.EventType = "negotiation.round"
	EventReplyFailed    observability.EventType = "negotiation.round.reply_failed"
	EventSessionAgreed  observability.EventType = "negotiation.session.agreed"
	EventSessionFailed  observability.EventType = "negotiation.session.failed"
	EventSessionExpired observability.EventType = "negotiation.session.expired"
)
