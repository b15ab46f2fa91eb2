// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dbwatch polls the financial_items table and pushes snapshots to the
// event sink so the UI can render live data without its own database
// connection. The loop is bounded: it stops after a fixed number of polls or
// when the context is canceled, and always announces that it stopped.
package dbwatch

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledgerlens/cli/internal/events"
)

// Row is one financial line item as the UI consumes it.
type Row struct {
	ID           int64    `json:"id"`
	Label        string   `json:"label"`
	CurrentYear  *float64 `json:"currentYear"`
	PreviousYear *float64 `json:"previousYear"`
}

// Update is the payload emitted on each poll that returns rows.
type Update struct {
	Action    string `json:"action"` // "initial" or "incremental"
	Rows      []Row  `json:"rows"`
	Iteration int    `json:"iteration"`
}

// Querier fetches the latest rows. Satisfied by Store; tests supply fakes.
type Querier interface {
	Latest(ctx context.Context) ([]Row, error)
}

// Store reads financial items from Postgres through a connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an existing pool. The caller owns the pool's lifecycle.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Latest returns up to 50 most recently inserted financial items.
func (s *Store) Latest(ctx context.Context) ([]Row, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, label, value_current, value_previous
		   FROM financial_items
		  ORDER BY row_index DESC
		  LIMIT 50`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Row, error) {
		var r Row
		err := row.Scan(&r.ID, &r.Label, &r.CurrentYear, &r.PreviousYear)
		return r, err
	})
}

// Defaults for the polling loop.
const (
	DefaultInterval      = 2 * time.Second
	DefaultMaxIterations = 100
)

// Watcher runs the bounded polling loop.
type Watcher struct {
	Querier  Querier
	Sink     events.Sink
	Interval time.Duration
	// MaxIterations caps the loop so an abandoned watch session cannot poll
	// the database forever.
	MaxIterations int
	Logf          func(format string, args ...any)
}

// Run polls until the iteration cap or context cancellation, emitting a
// db-update event per successful poll and db-streaming-stopped exactly once on
// the way out. Query errors are logged and the loop continues; a flaky
// connection should not end the session.
func (w *Watcher) Run(ctx context.Context) error {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxIter := w.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	sink := w.Sink
	if sink == nil {
		sink = events.Discard
	}

	defer sink.Emit(events.TopicDBStopped, nil)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; i < maxIter; i++ {
		rows, err := w.Querier.Latest(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logf("db poll failed: %v", err)
		} else {
			action := "incremental"
			if i == 0 {
				action = "initial"
			}
			sink.Emit(events.TopicDBUpdate, Update{
				Action:    action,
				Rows:      rows,
				Iteration: i,
			})
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (w *Watcher) logf(format string, args ...any) {
	if w.Logf != nil {
		w.Logf(format, args...)
	}
}
