package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/tailored-agentic-units/procure/core/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id              TEXT PRIMARY KEY,
	role            TEXT NOT NULL,
	sku             TEXT NOT NULL,
	action          TEXT NOT NULL,
	priority        TEXT NOT NULL,
	confidence      REAL NOT NULL,
	reasoning       TEXT NOT NULL,
	recommended_qty INTEGER,
	estimated_cost  TEXT,
	deadline        TEXT,
	metadata        TEXT,
	created_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_sku ON decisions(sku);

CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	sku           TEXT NOT NULL,
	vendor_id     TEXT NOT NULL,
	quantity      INTEGER NOT NULL,
	phase         TEXT NOT NULL,
	initial_price TEXT NOT NULL,
	target_price  TEXT NOT NULL,
	current_offer TEXT,
	rounds        INTEGER NOT NULL,
	message_count INTEGER NOT NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
`

// sqliteStore persists records in a sqlite database.
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a sqlite-backed Store at path.
// WAL mode and a single connection avoid database-locked errors under
// concurrent engine runs.
func OpenSQLite(path string) (Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init schema: %v", ErrLoadFailed, err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) SaveDecisions(ctx context.Context, decisions []domain.Decision) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	defer tx.Rollback()

	for _, d := range decisions {
		if d.ID == "" {
			return fmt.Errorf("%w: decision has no id", ErrSaveFailed)
		}

		var metadata any
		if len(d.Metadata) > 0 {
			data, err := json.Marshal(d.Metadata)
			if err != nil {
				return fmt.Errorf("%w: marshal metadata: %v", ErrSaveFailed, err)
			}
			metadata = string(data)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO decisions
			(id, role, sku, action, priority, confidence, reasoning,
			 recommended_qty, estimated_cost, deadline, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.Role, d.SKU, string(d.Action), string(d.Priority),
			d.Confidence, d.Reasoning,
			nullableInt(d.RecommendedQty),
			nullableDecimal(d.EstimatedCost),
			nullableTime(d.Deadline),
			metadata,
			d.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("%w: decision %s: %v", ErrSaveFailed, d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	return nil
}

func (s *sqliteStore) Decision(ctx context.Context, id string) (domain.Decision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, role, sku, action, priority, confidence, reasoning,
		       recommended_qty, estimated_cost, deadline, metadata, created_at
		FROM decisions WHERE id = ?`, id)

	d, err := scanDecision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Decision{}, fmt.Errorf("%w: decision %s", ErrNotFound, id)
	}
	if err != nil {
		return domain.Decision{}, fmt.Errorf("%w: decision %s: %v", ErrLoadFailed, id, err)
	}
	return d, nil
}

func (s *sqliteStore) DecisionsBySKU(ctx context.Context, sku string) ([]domain.Decision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, sku, action, priority, confidence, reasoning,
		       recommended_qty, estimated_cost, deadline, metadata, created_at
		FROM decisions WHERE sku = ? ORDER BY created_at`, sku)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	defer rows.Close()

	var out []domain.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *sqliteStore) SaveSession(ctx context.Context, rec domain.SessionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: session has no id", ErrSaveFailed)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions
		(id, sku, vendor_id, quantity, phase, initial_price, target_price,
		 current_offer, rounds, message_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SKU, rec.VendorID, rec.Quantity, string(rec.Phase),
		rec.InitialPrice.String(), rec.TargetPrice.String(),
		nullableDecimal(rec.CurrentOffer),
		rec.Rounds, rec.MessageCount,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: session %s: %v", ErrSaveFailed, rec.ID, err)
	}
	return nil
}

func (s *sqliteStore) Session(ctx context.Context, id string) (domain.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, sku, vendor_id, quantity, phase, initial_price, target_price,
		       current_offer, rounds, message_count, created_at, updated_at
		FROM sessions WHERE id = ?`, id)

	var (
		rec          domain.SessionRecord
		phase        string
		initial      string
		target       string
		currentOffer sql.NullString
		createdAt    string
		updatedAt    string
	)
	err := row.Scan(&rec.ID, &rec.SKU, &rec.VendorID, &rec.Quantity, &phase,
		&initial, &target, &currentOffer, &rec.Rounds, &rec.MessageCount,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SessionRecord{}, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	if err != nil {
		return domain.SessionRecord{}, fmt.Errorf("%w: session %s: %v", ErrLoadFailed, id, err)
	}

	rec.Phase = domain.Phase(phase)
	if rec.InitialPrice, err = decimal.NewFromString(initial); err != nil {
		return domain.SessionRecord{}, fmt.Errorf("%w: initial price: %v", ErrLoadFailed, err)
	}
	if rec.TargetPrice, err = decimal.NewFromString(target); err != nil {
		return domain.SessionRecord{}, fmt.Errorf("%w: target price: %v", ErrLoadFailed, err)
	}
	if currentOffer.Valid {
		offer, err := decimal.NewFromString(currentOffer.String)
		if err != nil {
			return domain.SessionRecord{}, fmt.Errorf("%w: current offer: %v", ErrLoadFailed, err)
		}
		rec.CurrentOffer = &offer
	}
	rec.CreatedAt = parseStoredTime(createdAt)
	rec.UpdatedAt = parseStoredTime(updatedAt)

	return rec, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDecision(row rowScanner) (domain.Decision, error) {
	var (
		d         domain.Decision
		action    string
		priority  string
		qty       sql.NullInt64
		cost      sql.NullString
		deadline  sql.NullString
		metadata  sql.NullString
		createdAt string
	)
	err := row.Scan(&d.ID, &d.Role, &d.SKU, &action, &priority, &d.Confidence,
		&d.Reasoning, &qty, &cost, &deadline, &metadata, &createdAt)
	if err != nil {
		return domain.Decision{}, err
	}

	d.Action = domain.ActionType(action)
	d.Priority = domain.Priority(priority)
	if qty.Valid {
		n := int(qty.Int64)
		d.RecommendedQty = &n
	}
	if cost.Valid {
		c, err := decimal.NewFromString(cost.String)
		if err != nil {
			return domain.Decision{}, fmt.Errorf("estimated cost: %w", err)
		}
		d.EstimatedCost = &c
	}
	if deadline.Valid {
		if t, err := time.Parse(time.RFC3339Nano, deadline.String); err == nil {
			d.Deadline = &t
		}
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &d.Metadata); err != nil {
			return domain.Decision{}, fmt.Errorf("metadata: %w", err)
		}
	}
	d.CreatedAt = parseStoredTime(createdAt)

	return d, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableDecimal(v *decimal.Decimal) any {
	if v == nil {
		return nil
	}
	return v.String()
}

func nullableTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(time.RFC3339Nano)
}

func parseStoredTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
