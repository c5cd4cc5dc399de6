// Package state keeps the execution journal of one session in an in-memory
// SQLite database. Nothing outlives the process.
package state

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/glebarez/sqlite"
	"github.com/google/uuid"
)

// Execution statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusRejected  = "rejected" // a precondition failed, nothing was sent
)

type DB struct {
	SQL *sql.DB
}

// Open creates a fresh journal.
func Open() (*DB, error) {
	sqldb, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database.
	sqldb.SetMaxOpenConns(1)
	if err := initSchema(sqldb); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return &DB{SQL: sqldb}, nil
}

// Close releases the journal. Safe on nil.
func (db *DB) Close() error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Close()
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS executions (
			id TEXT PRIMARY KEY,
			mapping_id TEXT NOT NULL,
			file_name TEXT,
			file_size INTEGER,
			status TEXT NOT NULL,
			http_status INTEGER,
			result_path TEXT,
			result_size INTEGER,
			error TEXT,
			started_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_executions_started ON executions(started_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

type ExecutionRow struct {
	ID         string
	MappingID  string
	FileName   string
	FileSize   int64
	Status     string
	HTTPStatus int
	ResultPath string
	ResultSize int64
	Error      string
	StartedAt  time.Time
	Duration   time.Duration
}

// NewExecutionID returns a random id for a journal row.
func NewExecutionID() string {
	return uuid.NewString()
}

// RecordExecution inserts or replaces a journal row. A nil DB records nothing.
func (db *DB) RecordExecution(ctx context.Context, row ExecutionRow) error {
	if db == nil {
		return nil
	}
	if row.ID == "" {
		row.ID = NewExecutionID()
	}
	_, err := db.SQL.ExecContext(ctx, `INSERT INTO executions(id, mapping_id, file_name, file_size, status, http_status, result_path, result_size, error, started_at, duration_ms)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET status=excluded.status, http_status=excluded.http_status, result_path=excluded.result_path,
			result_size=excluded.result_size, error=excluded.error, duration_ms=excluded.duration_ms`,
		row.ID, row.MappingID, row.FileName, row.FileSize, row.Status, row.HTTPStatus, row.ResultPath, row.ResultSize, row.Error,
		row.StartedAt.UnixMilli(), row.Duration.Milliseconds())
	return err
}

// ListExecutions returns the journal, newest first.
func (db *DB) ListExecutions(ctx context.Context) ([]ExecutionRow, error) {
	if db == nil {
		return nil, nil
	}
	rows, err := db.SQL.QueryContext(ctx, `SELECT id, mapping_id,
		COALESCE(file_name, ''),
		COALESCE(file_size, 0),
		status,
		COALESCE(http_status, 0),
		COALESCE(result_path, ''),
		COALESCE(result_size, 0),
		COALESCE(error, ''),
		started_at,
		duration_ms
	FROM executions
	ORDER BY started_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ExecutionRow
	for rows.Next() {
		var r ExecutionRow
		var started, dur int64
		if err := rows.Scan(&r.ID, &r.MappingID, &r.FileName, &r.FileSize, &r.Status, &r.HTTPStatus, &r.ResultPath, &r.ResultSize, &r.Error, &started, &dur); err != nil {
			return nil, err
		}
		r.StartedAt = time.UnixMilli(started)
		r.Duration = time.Duration(dur) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summary counts journal rows per status.
func (db *DB) Summary(ctx context.Context) (map[string]int, error) {
	out := map[string]int{}
	if db == nil {
		return out, nil
	}
	rows, err := db.SQL.QueryContext(ctx, `SELECT status, COUNT(*) FROM executions GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}
