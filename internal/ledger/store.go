// Package ledger keeps an append-only record of pipeline runs in PostgreSQL.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"contractflow/internal/pipeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS contract_runs (
	run_id        TEXT PRIMARY KEY,
	received_at   TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ NOT NULL,
	source        TEXT NOT NULL,
	company       TEXT NOT NULL,
	variant       TEXT NOT NULL,
	amount_cents  BIGINT NOT NULL,
	success       BOOLEAN NOT NULL,
	failed_stage  TEXT NOT NULL DEFAULT '',
	error         TEXT NOT NULL DEFAULT '',
	document_id   TEXT NOT NULL DEFAULT '',
	invoice_id    TEXT NOT NULL DEFAULT '',
	task_id       TEXT NOT NULL DEFAULT '',
	stage_errors  TEXT[] NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS contract_runs_received_at_idx ON contract_runs (received_at DESC);
`

// Entry is one recorded run.
type Entry struct {
	RunID       string    `json:"run_id"`
	ReceivedAt  time.Time `json:"received_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Source      string    `json:"source"`
	Company     string    `json:"company"`
	Variant     string    `json:"variant"`
	AmountCents int64     `json:"amount_cents"`
	Success     bool      `json:"success"`
	FailedStage string    `json:"failed_stage,omitempty"`
	Error       string    `json:"error,omitempty"`
	DocumentID  string    `json:"document_id,omitempty"`
	InvoiceID   string    `json:"invoice_id,omitempty"`
	TaskID      string    `json:"task_id,omitempty"`
	StageErrors []string  `json:"stage_errors,omitempty"`
}

// Store implements pipeline.Ledger.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate ledger: %w", err)
	}
	return nil
}

// Record inserts one run. A redelivered job keeps its first record.
func (s *Store) Record(ctx context.Context, job pipeline.Job, res *pipeline.Result) error {
	e := entryFor(job, res)
	query := `
		INSERT INTO contract_runs (
			run_id, received_at, finished_at, source, company, variant, amount_cents,
			success, failed_stage, error, document_id, invoice_id, task_id, stage_errors
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (run_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		e.RunID, e.ReceivedAt, e.FinishedAt, e.Source, e.Company, e.Variant, e.AmountCents,
		e.Success, e.FailedStage, e.Error, e.DocumentID, e.InvoiceID, e.TaskID,
		pq.Array(e.StageErrors),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", e.RunID, err)
	}
	return nil
}

// Recent returns the newest runs first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, received_at, finished_at, source, company, variant, amount_cents,
			success, failed_stage, error, document_id, invoice_id, task_id, stage_errors
		FROM contract_runs
		ORDER BY received_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var stageErrors pq.StringArray
		if err := rows.Scan(&e.RunID, &e.ReceivedAt, &e.FinishedAt, &e.Source, &e.Company, &e.Variant,
			&e.AmountCents, &e.Success, &e.FailedStage, &e.Error, &e.DocumentID, &e.InvoiceID,
			&e.TaskID, &stageErrors); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.StageErrors = stageErrors
		out = append(out, e)
	}
	return out, rows.Err()
}

func entryFor(job pipeline.Job, res *pipeline.Result) Entry {
	e := Entry{
		RunID:       res.RunID,
		ReceivedAt:  job.ReceivedAt,
		FinishedAt:  res.FinishedAt,
		Source:      res.Source,
		Company:     res.Request.Company,
		Variant:     string(res.Request.Variant),
		AmountCents: res.Request.AmountCents,
		Success:     res.Success,
		FailedStage: string(res.Stage),
		Error:       res.Error,
		StageErrors: res.StageErrors(),
	}
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = res.StartedAt
	}
	if e.FinishedAt.IsZero() {
		e.FinishedAt = e.ReceivedAt
	}
	if res.ESign != nil {
		e.DocumentID = res.ESign.DocumentID
	}
	if res.Payment != nil {
		e.InvoiceID = res.Payment.InvoiceID
	}
	if res.Task != nil {
		e.TaskID = res.Task.TaskID
	}
	if e.StageErrors == nil {
		e.StageErrors = []string{}
	}
	return e
}
