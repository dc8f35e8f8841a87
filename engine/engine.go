// Package engine composes the evaluator, classifier, validator, and
// negotiation manager into the batch analysis pass: inventory and sales in,
// persisted decisions and dispatched alerts out.
//
// The engine initializes from configuration via New, creating all subsystems
// internally. Functional options allow test overrides of any subsystem.
//
//	e, err := engine.New(cfg)
//	analysis, err := e.AnalyzeInventory(ctx, items, sales)
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tailored-agentic-units/procure/core/domain"
	"github.com/tailored-agentic-units/procure/decision"
	"github.com/tailored-agentic-units/procure/evaluate"
	"github.com/tailored-agentic-units/procure/negotiation"
	"github.com/tailored-agentic-units/procure/notify"
	"github.com/tailored-agentic-units/procure/observability"
	"github.com/tailored-agentic-units/procure/storage"
	"github.com/tailored-agentic-units/procure/textgen"
	"github.com/tailored-agentic-units/procure/urgency"
)

// analystRole tags decisions produced by the batch analysis pass.
const analystRole = "inventory_analyst"

// Option configures an Engine after config-driven initialization.
// Applied by New after cold start — overrides replace config-created defaults.
type Option func(*Engine)

// WithGenerator overrides the config-created text generator.
func WithGenerator(g textgen.Generator) Option {
	return func(e *Engine) { e.gen = g }
}

// WithStore overrides the config-created persistence store.
func WithStore(s storage.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithDispatcher overrides the config-created notification dispatcher.
func WithDispatcher(d notify.Dispatcher) Option {
	return func(e *Engine) { e.dispatcher = d }
}

// WithObserver overrides the config-resolved observer.
func WithObserver(o observability.Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithSessionManager overrides the config-created negotiation manager.
func WithSessionManager(m *negotiation.Manager) Option {
	return func(e *Engine) { e.sessions = m }
}

// Engine is the composition root sequencing the analysis subsystems.
type Engine struct {
	evaluator  *evaluate.Evaluator
	weights    evaluate.Weights
	parser     *decision.Parser
	sessions   *negotiation.Manager
	gen        textgen.Generator
	store      storage.Store
	dispatcher notify.Dispatcher
	observer   observability.Observer
	workers    int
	negCfg     negotiation.Config
}

// New creates an Engine from configuration. Subsystems are initialized from
// their respective config sections; functional options applied afterwards
// can override any of them for testing.
func New(cfg *Config, opts ...Option) (*Engine, error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}

	store, err := storage.NewStore(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	dispatcher, err := notify.NewDispatcher(&cfg.Notify)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	e := &Engine{
		evaluator:  evaluate.New(cfg.Evaluator),
		weights:    cfg.Evaluator.Weights,
		parser:     decision.New(analystRole, slog.Default()),
		gen:        textgen.WithRetry(textgen.NewHTTPGenerator(cfg.TextGen, nil), cfg.TextGen.Retry, nil),
		store:      store,
		dispatcher: dispatcher,
		observer:   observer,
		workers:    cfg.Workers,
		negCfg:     cfg.Negotiation,
	}
	if e.weights == (evaluate.Weights{}) {
		e.weights = evaluate.DefaultWeights()
	}

	for _, opt := range opts {
		opt(e)
	}

	// The manager is built last so it picks up any generator or observer
	// override.
	if e.sessions == nil {
		e.sessions = negotiation.NewManager(e.negCfg, e.gen,
			negotiation.WithObserver(e.observer))
	}

	return e, nil
}

// Sessions returns the engine's negotiation session manager.
func (e *Engine) Sessions() *negotiation.Manager {
	return e.sessions
}

// Evaluator returns the engine's offer evaluator.
func (e *Engine) Evaluator() *evaluate.Evaluator {
	return e.evaluator
}

// Analysis holds the outcome of one batch analysis pass.
type Analysis struct {
	RunID       string               `json:"run_id"`
	Assessments []urgency.Assessment `json:"assessments"`
	Decisions   []domain.Decision    `json:"decisions"`
	Dispatched  int                  `json:"dispatched"`
}

// AnalyzeInventory runs the full pass: classify every item by restock
// urgency, request structured recommendations for the urgent ones from the
// analyst persona, validate them into decisions, persist the batch, and
// dispatch high/critical decisions best-effort. A collaborator failure
// degrades to the guaranteed fallback decision; a dispatch failure is
// observed but never propagated.
func (e *Engine) AnalyzeInventory(ctx context.Context, items []domain.InventoryItem, sales []domain.SalesRecord) (*Analysis, error) {
	analysis := &Analysis{RunID: uuid.Must(uuid.NewV7()).String()}

	e.emit(ctx, EventRunStart, observability.LevelInfo, map[string]any{
		"run_id":     analysis.RunID,
		"item_count": len(items),
	})

	analysis.Assessments = e.classifyAll(ctx, items, sales)
	if err := ctx.Err(); err != nil {
		return analysis, err
	}

	urgent := e.urgentItems(items, analysis.Assessments)
	if len(urgent) > 0 {
		analysis.Decisions = e.recommend(ctx, urgent)
	}

	if len(analysis.Decisions) > 0 {
		if err := e.store.SaveDecisions(ctx, analysis.Decisions); err != nil {
			return analysis, fmt.Errorf("persist decisions: %w", err)
		}
		analysis.Dispatched = e.dispatchUrgent(ctx, analysis.Decisions)
	}

	e.emit(ctx, EventRunComplete, observability.LevelInfo, map[string]any{
		"run_id":     analysis.RunID,
		"decisions":  len(analysis.Decisions),
		"dispatched": analysis.Dispatched,
	})

	return analysis, nil
}

// recommend asks the analyst persona for decisions covering the urgent
// items. The validator guarantees a non-empty result; generation failure
// after the retry budget degrades to the synthetic fallback decision.
func (e *Engine) recommend(ctx context.Context, urgent []textgen.RestockItem) []domain.Decision {
	content, err := e.gen.Generate(ctx, textgen.RestockAdvice(urgent))
	if err != nil {
		e.emit(ctx, EventRecommendationFailed, observability.LevelWarning, map[string]any{
			"items": len(urgent),
			"error": err.Error(),
		})
		return []domain.Decision{e.parser.Fallback("text generation failed: " + err.Error())}
	}

	decisions := e.parser.Parse(content)
	e.emit(ctx, EventRecommendation, observability.LevelInfo, map[string]any{
		"items":     len(urgent),
		"decisions": len(decisions),
	})
	return decisions
}

// dispatchUrgent delivers high/critical decisions to the notifier. Failures
// are observed, never returned.
func (e *Engine) dispatchUrgent(ctx context.Context, decisions []domain.Decision) int {
	urgent := make([]domain.Decision, 0, len(decisions))
	for _, d := range decisions {
		if d.Priority.AtLeast(domain.PriorityHigh) {
			urgent = append(urgent, d)
		}
	}
	if len(urgent) == 0 {
		return 0
	}

	if err := e.dispatcher.Dispatch(ctx, urgent); err != nil {
		e.emit(ctx, EventDispatchFailed, observability.LevelWarning, map[string]any{
			"decisions": len(urgent),
			"error":     err.Error(),
		})
	}
	return len(urgent)
}

func (e *Engine) urgentItems(items []domain.InventoryItem, assessments []urgency.Assessment) []textgen.RestockItem {
	bySku := make(map[string]domain.InventoryItem, len(items))
	for _, item := range items {
		bySku[item.SKU] = item
	}

	var urgent []textgen.RestockItem
	for _, a := range assessments {
		if !a.Priority.AtLeast(domain.PriorityHigh) {
			continue
		}
		urgent = append(urgent, textgen.RestockItem{
			Item:        bySku[a.SKU],
			Priority:    a.Priority,
			DailyRate:   a.DailyRate,
			DaysOfStock: a.DaysOfStock,
		})
	}
	return urgent
}

// NegotiateOptimalOffer evaluates competing offers for an item, selects the
// best one, and opens a negotiation session with that vendor toward the
// target price. Returns the session id alongside the winning selection.
func (e *Engine) NegotiateOptimalOffer(ctx context.Context, item domain.InventoryItem, offers []domain.Offer, quantity int, targetPrice decimal.Decimal) (string, evaluate.Selection, error) {
	eval, err := e.evaluator.Evaluate(offers, e.weights)
	if err != nil {
		return "", evaluate.Selection{}, err
	}

	selection, err := e.evaluator.SelectOptimal(eval.Results)
	if err != nil {
		return "", evaluate.Selection{}, err
	}

	sessionID, err := e.sessions.Start(item.SKU, selection.Offer.VendorID,
		selection.Offer.Price, targetPrice, quantity)
	if err != nil {
		return "", evaluate.Selection{}, err
	}

	return sessionID, selection, nil
}

// PersistSession snapshots a negotiation session into the store.
func (e *Engine) PersistSession(ctx context.Context, sessionID string) error {
	rec, err := e.sessions.Record(sessionID)
	if err != nil {
		return err
	}
	return e.store.SaveSession(ctx, rec)
}

// Close releases the store and dispatcher.
func (e *Engine) Close() error {
	if err := e.store.Close(); err != nil {
		e.dispatcher.Close()
		return err
	}
	return e.dispatcher.Close()
}

func (e *Engine) emit(ctx context.Context, event observability.EventType, level observability.Level, data map[string]any) {
	e.observer.OnEvent(ctx, observability.Event{
		Type:      event,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "engine",
		Data:      data,
	})
}
