// Package audit provides optional PostgreSQL persistence of tool
// invocations. The store is write-only history: results are never replayed,
// every invocation re-runs its underlying tools.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Record is one persisted tool invocation.
type Record struct {
	CallID     string    `json:"call_id"`
	TraceID    string    `json:"trace_id"`
	Tool       string    `json:"tool"`
	Status     string    `json:"status"`
	Summary    string    `json:"summary"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store wraps the underlying connection pool.
type Store struct {
	conn *sql.DB
}

// Open connects to PostgreSQL, verifies connectivity, and applies the schema.
func Open(databaseURL string) (*Store, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("audit db open: %w", err)
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit db ping: %w", err)
	}
	if err := migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit db migrate: %w", err)
	}
	return &Store{conn: conn}, nil
}

func migrate(ctx context.Context, conn *sql.DB) error {
	_, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tool_calls (
			call_id     UUID PRIMARY KEY,
			trace_id    TEXT NOT NULL,
			tool        TEXT NOT NULL,
			status      TEXT NOT NULL,
			summary     TEXT NOT NULL,
			duration_ms BIGINT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Record persists one tool invocation and returns its generated call ID.
func (s *Store) Record(ctx context.Context, rec Record) (string, error) {
	if rec.CallID == "" {
		rec.CallID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO tool_calls (call_id, trace_id, tool, status, summary, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.CallID, rec.TraceID, rec.Tool, rec.Status, rec.Summary, rec.DurationMS, rec.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert tool call: %w", err)
	}
	return rec.CallID, nil
}

// ListRecent returns the most recent tool invocations, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT call_id, trace_id, tool, status, summary, duration_ms, created_at
		 FROM tool_calls ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list tool calls: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.CallID, &rec.TraceID, &rec.Tool, &rec.Status, &rec.Summary, &rec.DurationMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tool call: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
