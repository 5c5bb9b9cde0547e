package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
	// Fixed-width UTC so the column sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Execution is one recorded statement run.
type Execution struct {
	ID           string        `json:"id"`
	ConnectionID int64         `json:"connectionId,omitempty"`
	SQL          string        `json:"sql"`
	ExecutedAt   time.Time     `json:"executedAt"`
	Duration     time.Duration `json:"-"`
	DurationMS   int64         `json:"durationMs"`
	Success      bool          `json:"success"`
	Error        string        `json:"error,omitempty"`
}

// RecordExecution appends e to the history and returns its id. A zero
// ConnectionID records an ad-hoc connection.
func (s *Store) RecordExecution(ctx context.Context, e Execution) (string, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.ExecutedAt.IsZero() {
		e.ExecutedAt = time.Now()
	}
	var connID any
	if e.ConnectionID > 0 {
		connID = e.ConnectionID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO query_history (id, connection_id, sql, executed_at, duration_ms, success, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, connID, e.SQL, e.ExecutedAt.UTC().Format(timeLayout),
		e.Duration.Milliseconds(), e.Success, nullIfEmpty(e.Error),
	)
	if err != nil {
		return "", fmt.Errorf("record execution: %w", err)
	}
	return e.ID, nil
}

// ListHistory returns the most recent executions, newest first. A zero
// connectionID lists every connection.
func (s *Store) ListHistory(ctx context.Context, connectionID int64, limit int) ([]Execution, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	query := `SELECT id, connection_id, sql, executed_at, duration_ms, success, error_message
		FROM query_history`
	args := []any{}
	if connectionID > 0 {
		query += " WHERE connection_id = ?"
		args = append(args, connectionID)
	}
	query += " ORDER BY executed_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []Execution{}
	for rows.Next() {
		var e Execution
		var connID sql.NullInt64
		var executedAt string
		var errMsg sql.NullString
		if err := rows.Scan(&e.ID, &connID, &e.SQL, &executedAt, &e.DurationMS, &e.Success, &errMsg); err != nil {
			return nil, err
		}
		e.ConnectionID = connID.Int64
		e.Error = errMsg.String
		e.Duration = time.Duration(e.DurationMS) * time.Millisecond
		if e.ExecutedAt, err = time.Parse(timeLayout, executedAt); err != nil {
			return nil, fmt.Errorf("parse executed_at: %w", err)
		}
		history = append(history, e)
	}
	return history, rows.Err()
}
