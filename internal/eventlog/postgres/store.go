// Package postgres provides a PostgreSQL-backed [eventlog.Sink]. Session
// logs are canonical in memory during a live session; this sink exists so
// downstream reporting keeps the decision audit trail after teardown.
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn)
//	if err != nil { … }
//	defer store.Close()
//
//	_ = log.Flush(ctx, store)
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/attune/internal/eventlog"
)

const ddlEventLog = `
CREATE TABLE IF NOT EXISTS event_log (
    id          UUID         PRIMARY KEY,
    session_id  TEXT         NOT NULL,
    kind        TEXT         NOT NULL,
    occurred_at TIMESTAMPTZ  NOT NULL,
    payload     JSONB        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_event_log_session_id
    ON event_log (session_id);

CREATE INDEX IF NOT EXISTS idx_event_log_session_occurred
    ON event_log (session_id, occurred_at);
`

// Compile-time interface check.
var _ eventlog.Sink = (*Store)(nil)

// Store persists event log entries in an event_log table. All methods are
// safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the database at dsn, verifies the connection, and
// ensures the event_log table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("eventlog store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("eventlog store: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, ddlEventLog); err != nil {
		pool.Close()
		return nil, fmt.Errorf("eventlog store: migrate: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Persist implements [eventlog.Sink]. Entries are written in one batch;
// re-flushing the same entries is an upsert no-op so teardown retries are
// safe.
func (s *Store) Persist(ctx context.Context, entries []eventlog.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	const q = `
		INSERT INTO event_log (id, session_id, kind, occurred_at, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`

	batch := &pgx.Batch{}
	for _, e := range entries {
		payload, err := payloadJSON(e)
		if err != nil {
			return err
		}
		batch.Queue(q, e.ID, e.SessionID, string(e.Kind), e.At, payload)
	}

	res := s.pool.SendBatch(ctx, batch)
	defer res.Close()
	for range entries {
		if _, err := res.Exec(); err != nil {
			return fmt.Errorf("eventlog store: persist: %w", err)
		}
	}
	return nil
}

// payloadJSON encodes the variant half of the entry.
func payloadJSON(e eventlog.Entry) ([]byte, error) {
	var v any
	switch {
	case e.Decision != nil:
		v = e.Decision
	case e.Insight != nil:
		v = e.Insight
	default:
		v = struct{}{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("eventlog store: encode entry %s: %w", e.ID, err)
	}
	return data, nil
}

// Ping verifies database connectivity. Used by readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
