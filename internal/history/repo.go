package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run is one recorded ingest batch.
type Run struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Source     string    `json:"source"`
	Selected   int       `json:"selected"`
	Published  int       `json:"published"`
	HaltReason string    `json:"halt_reason,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Item is one record a run published.
type Item struct {
	RunID    string `json:"run_id"`
	RecordID string `json:"record_id"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Src      string `json:"src"`
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Insert stores a finished run and its published items in one transaction.
func (r *Repo) Insert(ctx context.Context, run Run, items []Item) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ingest_runs (id, kind, source, selected, published, halt_reason, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Kind, run.Source, run.Selected, run.Published, nullIfEmpty(run.HaltReason), run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, it := range items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ingest_items (run_id, record_id, title, date, src)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, it.RecordID, it.Title, it.Date, it.Src)
		if err != nil {
			return fmt.Errorf("insert item %s: %w", it.RecordID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (r *Repo) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, kind, source, selected, published, halt_reason, started_at, finished_at
		FROM ingest_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]Run, 0, limit)
	for rows.Next() {
		var (
			run  Run
			halt sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Kind, &run.Source, &run.Selected, &run.Published,
			&halt, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.HaltReason = halt.String
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// ItemsForRun returns the records one run published, in insertion order.
func (r *Repo) ItemsForRun(ctx context.Context, runID string) ([]Item, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT run_id, record_id, title, date, src
		FROM ingest_items
		WHERE run_id = ?
		ORDER BY date, record_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.RunID, &it.RecordID, &it.Title, &it.Date, &it.Src); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
