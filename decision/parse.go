// Package decision turns free-form recommendation text into validated,
// structured decision records. Parse never fails and never returns an empty
// list: every fallible step in the chain collapses to a synthetic fallback
// decision, so callers always have something actionable even on garbage
// input. Malformed entries inside an otherwise valid payload are skipped
// individually rather than discarding the batch.
package decision

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tailored-agentic-units/procure/core/domain"
)

const (
	// fallbackConfidence marks synthetic decisions as low-trust.
	fallbackConfidence = 0.3
	// defaultConfidence applies when an entry omits a usable confidence.
	defaultConfidence = 0.5
	// fallbackSKU tags decisions that do not belong to a real item.
	fallbackSKU = "SYSTEM"
	// rawExcerptLimit bounds how much of the raw input is echoed into
	// fallback reasoning.
	rawExcerptLimit = 200
)

// Parser validates recommendation payloads into domain decisions.
type Parser struct {
	role   string
	logger *slog.Logger
}

// New creates a Parser. Decisions produced without an explicit role carry
// role; a nil logger falls back to slog.Default.
func New(role string, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{role: role, logger: logger}
}

// payload is the expected shape of a recommendation response. Entries are
// decoded as loose maps so unrecognized fields can be preserved in metadata.
type payload struct {
	Decisions []map[string]any `json:"decisions"`
	Summary   string           `json:"summary"`
}

// Parse converts raw recommendation text into at least one decision.
//
// The attempt chain: strict JSON parse of the whole input; then a strict
// parse of the outermost balanced brace-delimited substring; then the
// synthetic fallback. Entries that fail field coercion are logged and
// skipped; if every entry is skipped the fallback applies as well.
func (p *Parser) Parse(raw string) []domain.Decision {
	pl, ok := p.decode(raw)
	if !ok || len(pl.Decisions) == 0 {
		return []domain.Decision{p.Fallback(raw)}
	}

	decisions := make([]domain.Decision, 0, len(pl.Decisions))
	for i, entry := range pl.Decisions {
		d, err := p.coerce(entry)
		if err != nil {
			p.logger.Warn("skipping malformed decision entry",
				"index", i, "error", err)
			continue
		}
		decisions = append(decisions, d)
	}

	if len(decisions) == 0 {
		return []domain.Decision{p.Fallback(raw)}
	}
	return decisions
}

// Fallback synthesizes the guaranteed alert decision for input that could
// not be parsed. The raw text is echoed (truncated) into the reasoning so a
// reviewer can see what the collaborator actually produced.
func (p *Parser) Fallback(raw string) domain.Decision {
	return domain.Decision{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Role:       p.role,
		SKU:        fallbackSKU,
		Action:     domain.ActionAlert,
		Priority:   domain.PriorityMedium,
		Confidence: fallbackConfidence,
		Reasoning:  "recommendation payload could not be parsed; raw output: " + truncate(raw, rawExcerptLimit),
		CreatedAt:  time.Now().UTC(),
	}
}

func (p *Parser) decode(raw string) (payload, bool) {
	var pl payload
	if err := json.Unmarshal([]byte(raw), &pl); err == nil {
		return pl, true
	}

	candidate := extractObject(raw)
	if candidate == "" {
		return payload{}, false
	}

	pl = payload{}
	if err := json.Unmarshal([]byte(candidate), &pl); err != nil {
		return payload{}, false
	}
	return pl, true
}

// Known entry fields. Anything else is preserved in metadata.
var knownFields = map[string]bool{
	"item_sku":             true,
	"sku":                  true,
	"role":                 true,
	"action_type":          true,
	"priority":             true,
	"confidence_score":     true,
	"confidence":           true,
	"reasoning":            true,
	"recommended_quantity": true,
	"estimated_cost":       true,
	"deadline":             true,
}

func (p *Parser) coerce(entry map[string]any) (domain.Decision, error) {
	sku := stringField(entry, "item_sku")
	if sku == "" {
		sku = stringField(entry, "sku")
	}
	if sku == "" {
		return domain.Decision{}, fmt.Errorf("entry has no item sku")
	}

	role := stringField(entry, "role")
	if role == "" {
		role = p.role
	}

	d := domain.Decision{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Role:       role,
		SKU:        sku,
		Action:     domain.ParseActionType(stringField(entry, "action_type")),
		Priority:   domain.ParsePriority(stringField(entry, "priority")),
		Confidence: confidence(entry),
		Reasoning:  stringField(entry, "reasoning"),
		CreatedAt:  time.Now().UTC(),
	}

	if qty, ok, err := intField(entry, "recommended_quantity"); err != nil {
		return domain.Decision{}, err
	} else if ok {
		if qty < 0 {
			return domain.Decision{}, fmt.Errorf("recommended_quantity %d is negative", qty)
		}
		d.RecommendedQty = &qty
	}

	if cost, ok, err := decimalField(entry, "estimated_cost"); err != nil {
		return domain.Decision{}, err
	} else if ok {
		if cost.IsNegative() {
			return domain.Decision{}, fmt.Errorf("estimated_cost %s is negative", cost)
		}
		d.EstimatedCost = &cost
	}

	if deadline := parseDeadline(stringField(entry, "deadline")); deadline != nil {
		d.Deadline = deadline
	}

	for k, v := range entry {
		if knownFields[k] {
			continue
		}
		if d.Metadata == nil {
			d.Metadata = make(map[string]any)
		}
		d.Metadata[k] = v
	}

	return d, nil
}

// confidence coerces confidence_score (or confidence) into [0, 1], clamping
// out-of-range values and defaulting when absent or unparseable.
func confidence(entry map[string]any) float64 {
	v, ok := entry["confidence_score"]
	if !ok {
		v, ok = entry["confidence"]
	}
	if !ok {
		return defaultConfidence
	}

	var c float64
	switch t := v.(type) {
	case float64:
		c = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return defaultConfidence
		}
		c = parsed
	default:
		return defaultConfidence
	}

	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

func stringField(entry map[string]any, key string) string {
	if v, ok := entry[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func intField(entry map[string]any, key string) (int, bool, error) {
	v, ok := entry[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch t := v.(type) {
	case float64:
		return int(t), true, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false, fmt.Errorf("%s: %w", key, err)
		}
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("%s: unsupported type %T", key, v)
	}
}

func decimalField(entry map[string]any, key string) (decimal.Decimal, bool, error) {
	v, ok := entry[key]
	if !ok || v == nil {
		return decimal.Decimal{}, false, nil
	}
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t), true, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Decimal{}, false, fmt.Errorf("%s: %w", key, err)
		}
		return d, true, nil
	default:
		return decimal.Decimal{}, false, fmt.Errorf("%s: unsupported type %T", key, v)
	}
}

// parseDeadline accepts RFC 3339 timestamps or bare dates; anything else is
// treated as no deadline.
func parseDeadline(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// truncate cuts s to at most limit bytes, backing up to a rune boundary so
// the result stays valid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + "..."
}
