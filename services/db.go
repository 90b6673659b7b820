package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tadeyemo32/lead-scraper/models"
)

// RunStore records an audit row per search. Leads themselves are never
// stored. A nil *RunStore is valid and records nothing.
type RunStore struct {
	db *sql.DB
}

func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Record inserts one run.
func (s *RunStore) Record(ctx context.Context, r models.RunRecord) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, query, caller, status, results_count, total_processed, items_without_emails, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Query, r.Caller, r.Status, r.ResultsCount, r.TotalProcessed, r.ItemsWithoutEmails,
		r.StartedAt.UTC(), r.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.ID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. limit <= 0 means 50.
func (s *RunStore) Recent(ctx context.Context, limit int) ([]models.RunRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, caller, status, results_count, total_processed, items_without_emails, started_at, duration_ms
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []models.RunRecord
	for rows.Next() {
		var r models.RunRecord
		var ms int64
		if err := rows.Scan(&r.ID, &r.Query, &r.Caller, &r.Status, &r.ResultsCount,
			&r.TotalProcessed, &r.ItemsWithoutEmails, &r.StartedAt, &ms); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}
