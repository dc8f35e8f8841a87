package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tailored-agentic-units/procure/core/domain"
	"github.com/tailored-agentic-units/procure/storage"
)

func openSQLite(t *testing.T) storage.Store {
	t.Helper()
	s, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "procure.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_DecisionRoundTrip(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	want := decisionFixture("dec-1", "SKU-1")
	if err := s.SaveDecisions(ctx, []domain.Decision{want}); err != nil {
		t.Fatalf("SaveDecisions() error: %v", err)
	}

	got, err := s.Decision(ctx, "dec-1")
	if err != nil {
		t.Fatalf("Decision() error: %v", err)
	}

	if got.Role != want.Role || got.SKU != want.SKU ||
		got.Action != want.Action || got.Priority != want.Priority {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.Confidence != want.Confidence {
		t.Errorf("confidence %v, want %v", got.Confidence, want.Confidence)
	}
	if got.RecommendedQty == nil || *got.RecommendedQty != *want.RecommendedQty {
		t.Errorf("recommended quantity %v, want %v", got.RecommendedQty, want.RecommendedQty)
	}
	if got.EstimatedCost == nil || !got.EstimatedCost.Equal(*want.EstimatedCost) {
		t.Errorf("estimated cost %v, want %v", got.EstimatedCost, want.EstimatedCost)
	}
	if got.Deadline == nil || !got.Deadline.Equal(*want.Deadline) {
		t.Errorf("deadline %v, want %v", got.Deadline, want.Deadline)
	}
	if got.Metadata["vendor_hint"] != "acme" {
		t.Errorf("metadata %v, want vendor_hint preserved", got.Metadata)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("created at %v, want %v", got.CreatedAt, want.CreatedAt)
	}
}

func TestSQLite_NullableFieldsAbsent(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	d := domain.Decision{
		ID:        "dec-min",
		Role:      "inventory_analyst",
		SKU:       "SKU-2",
		Action:    domain.ActionMonitor,
		Priority:  domain.PriorityLow,
		Reasoning: "no action needed",
		CreatedAt: time.Now().UTC(),
	}
	if err := s.SaveDecisions(ctx, []domain.Decision{d}); err != nil {
		t.Fatalf("SaveDecisions() error: %v", err)
	}

	got, err := s.Decision(ctx, "dec-min")
	if err != nil {
		t.Fatalf("Decision() error: %v", err)
	}
	if got.RecommendedQty != nil || got.EstimatedCost != nil || got.Deadline != nil {
		t.Errorf("optional fields should stay nil: %+v", got)
	}
	if got.Metadata != nil {
		t.Errorf("metadata should stay nil, got %v", got.Metadata)
	}
}

func TestSQLite_DecisionsBySKU(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	batch := []domain.Decision{
		decisionFixture("dec-1", "SKU-1"),
		decisionFixture("dec-2", "SKU-1"),
		decisionFixture("dec-3", "SKU-2"),
	}
	if err := s.SaveDecisions(ctx, batch); err != nil {
		t.Fatalf("SaveDecisions() error: %v", err)
	}

	got, err := s.DecisionsBySKU(ctx, "SKU-1")
	if err != nil {
		t.Fatalf("DecisionsBySKU() error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d decisions, want 2", len(got))
	}
}

func TestSQLite_NotFound(t *testing.T) {
	s := openSQLite(t)

	if _, err := s.Decision(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Decision() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Session(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Session() error = %v, want ErrNotFound", err)
	}
}

func TestSQLite_SessionRoundTrip(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	offer := decimal.RequireFromString("118.75")
	want := domain.SessionRecord{
		ID:           "sess-1",
		SKU:          "SKU-1",
		VendorID:     "vendor-1",
		Quantity:     50,
		Phase:        domain.PhaseAgreed,
		InitialPrice: decimal.RequireFromString("150"),
		TargetPrice:  decimal.RequireFromString("120"),
		CurrentOffer: &offer,
		Rounds:       4,
		MessageCount: 8,
		CreatedAt:    time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC),
	}

	if err := s.SaveSession(ctx, want); err != nil {
		t.Fatalf("SaveSession() error: %v", err)
	}

	got, err := s.Session(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Session() error: %v", err)
	}
	if got.Phase != want.Phase || got.Rounds != want.Rounds || got.Quantity != want.Quantity {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if !got.InitialPrice.Equal(want.InitialPrice) || !got.TargetPrice.Equal(want.TargetPrice) {
		t.Errorf("prices %v/%v, want %v/%v",
			got.InitialPrice, got.TargetPrice, want.InitialPrice, want.TargetPrice)
	}
	if got.CurrentOffer == nil || !got.CurrentOffer.Equal(offer) {
		t.Errorf("current offer %v, want %v", got.CurrentOffer, offer)
	}
	if !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("updated at %v, want %v", got.UpdatedAt, want.UpdatedAt)
	}
}

func TestSQLite_SessionUpsert(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	rec := domain.SessionRecord{
		ID:           "sess-1",
		SKU:          "SKU-1",
		VendorID:     "vendor-1",
		Quantity:     10,
		Phase:        domain.PhaseActive,
		InitialPrice: decimal.RequireFromString("150"),
		TargetPrice:  decimal.RequireFromString("120"),
		Rounds:       1,
		MessageCount: 2,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.SaveSession(ctx, rec); err != nil {
		t.Fatalf("SaveSession() error: %v", err)
	}

	rec.Phase = domain.PhaseAgreed
	rec.Rounds = 3
	if err := s.SaveSession(ctx, rec); err != nil {
		t.Fatalf("SaveSession() update error: %v", err)
	}

	got, err := s.Session(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Session() error: %v", err)
	}
	if got.Phase != domain.PhaseAgreed || got.Rounds != 3 {
		t.Errorf("phase %s rounds %d, want agreed 3 after upsert", got.Phase, got.Rounds)
	}
}

func TestSQLite_ReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procure.db")
	ctx := context.Background()

	s, err := storage.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	if err := s.SaveDecisions(ctx, []domain.Decision{decisionFixture("dec-1", "SKU-1")}); err != nil {
		t.Fatalf("SaveDecisions() error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := storage.OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.Decision(ctx, "dec-1"); err != nil {
		t.Errorf("Decision() after reopen error: %v", err)
	}
}
