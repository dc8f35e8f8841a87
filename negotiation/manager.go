// Package negotiation drives multi-round price negotiations between a buyer
// and a vendor persona synthesized by the text-generation collaborator.
//
// A session moves through Initiated → Active → {Agreed | Failed | Expired}.
// All state is session-scoped and serialized by a per-session mutex; the only
// shared structure is the (item, vendor) active-session index, which
// guarantees at most one non-terminal session per pair.
package negotiation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tailored-agentic-units/procure/core/domain"
	"github.com/tailored-agentic-units/procure/observability"
	"github.com/tailored-agentic-units/procure/textgen"
)

type pairKey struct {
	sku      string
	vendorID string
}

// Manager owns negotiation sessions and the active (item, vendor) index.
// Safe for concurrent use: calls against different sessions run in parallel,
// calls against the same session are serialized.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session
	active   map[pairKey]string

	cfg      Config
	gen      textgen.Generator
	observer observability.Observer
	clock    func() time.Time
}

// Option configures a Manager after construction.
type Option func(*Manager)

// WithObserver overrides the default slog observer.
func WithObserver(o observability.Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// WithClock overrides the time source, for expiry tests.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

// NewManager creates a Manager that uses gen to synthesize vendor replies.
func NewManager(cfg Config, gen textgen.Generator, opts ...Option) *Manager {
	def := DefaultConfig()
	def.Merge(&cfg)

	m := &Manager{
		sessions: make(map[string]*session),
		active:   make(map[pairKey]string),
		cfg:      def,
		gen:      gen,
		observer: observability.NewSlogObserver(nil),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Round is the outcome of one SendMessage call. Reply carries the vendor
// persona's counterpart message when one was synthesized. ReplyErr records a
// collaborator failure for this round; the session itself stays open and the
// round can be retried.
type Round struct {
	Message  domain.NegotiationMessage
	Reply    *domain.NegotiationMessage
	Phase    domain.Phase
	ReplyErr error
}

// Start creates a session in the Initiated phase and returns its id. Fails
// with ErrDuplicateSession while a non-terminal session exists for the same
// (sku, vendor) pair.
func (m *Manager) Start(sku, vendorID string, initialPrice, targetPrice decimal.Decimal, quantity int) (string, error) {
	if sku == "" || vendorID == "" {
		return "", fmt.Errorf("sku and vendor id are required")
	}
	if !initialPrice.IsPositive() || !targetPrice.IsPositive() {
		return "", fmt.Errorf("initial and target prices must be positive")
	}
	if quantity <= 0 {
		return "", fmt.Errorf("quantity must be positive")
	}

	key := pairKey{sku: sku, vendorID: vendorID}

	// An idle session occupying the key may have expired since its last
	// message; give it a lazy expiry check before refusing the start.
	if sid, ok := m.lookupActive(key); ok {
		if s, err := m.get(sid); err == nil {
			s.mu.Lock()
			m.expireLocked(s)
			s.mu.Unlock()
		}
	}

	now := m.clock()
	s := &session{
		id:           uuid.Must(uuid.NewV7()).String(),
		sku:          sku,
		vendorID:     vendorID,
		quantity:     quantity,
		initialPrice: initialPrice,
		targetPrice:  targetPrice,
		phase:        domain.PhaseInitiated,
		createdAt:    now,
		updatedAt:    now,
	}

	m.mu.Lock()
	if existing, ok := m.active[key]; ok {
		m.mu.Unlock()
		return "", fmt.Errorf("%w: session %s for item %s and vendor %s",
			ErrDuplicateSession, existing, sku, vendorID)
	}
	m.sessions[s.id] = s
	m.active[key] = s.id
	m.mu.Unlock()

	m.emit(context.Background(), EventSessionStart, observability.LevelInfo, map[string]any{
		"session_id": s.id,
		"sku":        sku,
		"vendor_id":  vendorID,
		"initial":    initialPrice.String(),
		"target":     targetPrice.String(),
	})

	return s.id, nil
}

// SendMessage appends a message to the session and advances the state
// machine. Buyer messages consume a round and trigger a vendor-persona reply
// through the collaborator; a collaborator failure after retries is recorded
// on the returned Round, not raised, unless the round budget is exhausted.
// Fails with ErrSessionClosed once the session is terminal.
func (m *Manager) SendMessage(ctx context.Context, sessionID string, sender domain.Sender, text string) (Round, error) {
	s, err := m.get(sessionID)
	if err != nil {
		return Round{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if m.expireLocked(s) {
		return Round{}, fmt.Errorf("%w: session %s expired", ErrSessionClosed, sessionID)
	}
	if s.phase.Terminal() {
		return Round{}, fmt.Errorf("%w: session %s is %s", ErrSessionClosed, sessionID, s.phase)
	}

	if s.phase == domain.PhaseInitiated {
		s.phase = domain.PhaseActive
	}

	msg := s.append(sender, text, m.clock())
	round := Round{Message: msg}
	m.applyTransitions(s, msg)

	if sender == domain.SenderBuyer && !s.phase.Terminal() {
		s.rounds++
		if s.rounds > m.cfg.MaxRounds {
			m.terminate(ctx, s, domain.PhaseFailed, "round budget exhausted")
		} else {
			m.vendorRound(ctx, s, &round)
		}
	}

	if s.phase.Terminal() {
		m.release(s)
	}
	round.Phase = s.phase

	m.emit(ctx, EventRound, observability.LevelVerbose, map[string]any{
		"session_id": s.id,
		"sender":     string(sender),
		"phase":      string(s.phase),
		"rounds":     s.rounds,
	})

	return round, nil
}

// vendorRound synthesizes the vendor persona's reply and applies its
// transitions. Collaborator failure is recorded per-round. Caller holds s.mu.
func (m *Manager) vendorRound(ctx context.Context, s *session, round *Round) {
	content, err := m.gen.Generate(ctx, textgen.VendorReply(m.turn(s)))
	if err != nil {
		s.replyFailures++
		s.lastFailure = err.Error()
		round.ReplyErr = err

		m.emit(ctx, EventReplyFailed, observability.LevelWarning, map[string]any{
			"session_id": s.id,
			"failures":   s.replyFailures,
			"error":      err.Error(),
		})
		return
	}

	reply := s.append(domain.SenderVendor, content, m.clock())
	round.Reply = &reply
	m.applyTransitions(s, reply)
}

// turn assembles the vendor prompt context from the trailing history window.
// Caller holds s.mu.
func (m *Manager) turn(s *session) textgen.NegotiationTurn {
	start := len(s.messages) - m.cfg.HistoryWindow
	if start < 0 {
		start = 0
	}

	history := make([]textgen.Exchange, 0, len(s.messages)-start)
	for _, msg := range s.messages[start:] {
		history = append(history, textgen.Exchange{Sender: msg.Sender, Content: msg.Content})
	}

	return textgen.NegotiationTurn{
		VendorID:     s.vendorID,
		SKU:          s.sku,
		Quantity:     s.quantity,
		InitialPrice: s.initialPrice,
		CurrentOffer: s.currentOffer,
		History:      history,
	}
}

// applyTransitions checks one message for termination conditions: explicit
// rejection fails the session; explicit acceptance with a price within
// tolerance of the target agrees it. Caller holds s.mu.
func (m *Manager) applyTransitions(s *session, msg domain.NegotiationMessage) {
	switch DetectOutcome(msg.Content) {
	case OutcomeReject:
		m.terminate(context.Background(), s, domain.PhaseFailed, "explicit rejection")
	case OutcomeAccept:
		price := msg.Price
		if price == nil {
			price = s.currentOffer
		}
		if price != nil && m.withinTolerance(*price, s.targetPrice) {
			m.terminate(context.Background(), s, domain.PhaseAgreed, "accepted within tolerance")
		}
	}
}

func (m *Manager) withinTolerance(price, target decimal.Decimal) bool {
	band := target.Mul(decimal.NewFromFloat(m.cfg.Tolerance))
	return price.Sub(target).Abs().LessThanOrEqual(band)
}

// terminate moves the session to a terminal phase and emits the matching
// event. Caller holds s.mu.
func (m *Manager) terminate(ctx context.Context, s *session, phase domain.Phase, reason string) {
	s.phase = phase
	s.updatedAt = m.clock()

	event := EventSessionFailed
	level := observability.LevelWarning
	switch phase {
	case domain.PhaseAgreed:
		event = EventSessionAgreed
		level = observability.LevelInfo
	case domain.PhaseExpired:
		event = EventSessionExpired
	}

	m.emit(ctx, event, level, map[string]any{
		"session_id": s.id,
		"reason":     reason,
		"rounds":     s.rounds,
	})
}

// Close forces an open session to Failed, releasing its (item, vendor) key.
// Idempotent on already-terminal sessions.
func (m *Manager) Close(sessionID string) error {
	s, err := m.get(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase.Terminal() {
		return nil
	}

	m.terminate(context.Background(), s, domain.PhaseFailed, "closed by caller")
	m.release(s)
	return nil
}

// Summary returns the caller-facing view of a session's progress, applying
// the lazy expiry check first.
func (m *Manager) Summary(sessionID string) (Summary, error) {
	s, err := m.get(sessionID)
	if err != nil {
		return Summary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m.expireLocked(s)
	return s.summary(), nil
}

// Record snapshots a session for persistence.
func (m *Manager) Record(sessionID string) (domain.SessionRecord, error) {
	s, err := m.get(sessionID)
	if err != nil {
		return domain.SessionRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(), nil
}

// Messages returns a defensive copy of a session's history.
func (m *Manager) Messages(sessionID string) ([]domain.NegotiationMessage, error) {
	s, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]domain.NegotiationMessage, len(s.messages))
	copy(copied, s.messages)
	return copied, nil
}

// SweepExpired expires every non-terminal session idle past the configured
// timeout and returns their ids. Intended to be called periodically by the
// owner; expiry is also checked lazily on access.
func (m *Manager) SweepExpired() []string {
	m.mu.RLock()
	snapshot := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		snapshot = append(snapshot, s)
	}
	m.mu.RUnlock()

	var expired []string
	for _, s := range snapshot {
		s.mu.Lock()
		if m.expireLocked(s) {
			expired = append(expired, s.id)
		}
		s.mu.Unlock()
	}
	return expired
}

// expireLocked transitions an idle non-terminal session to Expired,
// releasing its key. Reports whether the session expired on this check.
// Caller holds s.mu.
func (m *Manager) expireLocked(s *session) bool {
	if s.phase.Terminal() {
		return false
	}
	if m.clock().Sub(s.updatedAt) <= m.cfg.idleTimeout() {
		return false
	}

	m.terminate(context.Background(), s, domain.PhaseExpired, "idle timeout")
	m.release(s)
	return true
}

// release drops the session's (item, vendor) key from the active index.
// Caller holds s.mu; the manager lock is taken after the session lock
// everywhere, so this ordering is deadlock-free.
func (m *Manager) release(s *session) {
	key := pairKey{sku: s.sku, vendorID: s.vendorID}

	m.mu.Lock()
	if m.active[key] == s.id {
		delete(m.active, key)
	}
	m.mu.Unlock()
}

func (m *Manager) get(sessionID string) (*session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return s, nil
}

func (m *Manager) lookupActive(key pairKey) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sid, ok := m.active[key]
	return sid, ok
}

func (m *Manager) emit(ctx context.Context, event observability.EventType, level observability.Level, data map[string]any) {
	m.observer.OnEvent(ctx, observability.Event{
		Type:      event,
		Level:     level,
		Timestamp: m.clock(),
		Source:    "negotiation.Manager",
		Data:      data,
	})
}
