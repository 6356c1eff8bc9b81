// Package audit persists forecast-run records. Two backends are provided:
// a SQLite database and an append-only JSONL file.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wiltonn/productfolio-sub002/core/forecast"
)

// RunQuery filters persisted runs. Zero fields match everything.
type RunQuery struct {
	Mode       string
	ScenarioID string
	Since      time.Time
}

// SQLiteStore persists forecast runs to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS forecast_runs (
        id TEXT PRIMARY KEY,
        ts INTEGER,
        mode TEXT,
        scenario_id TEXT,
        record TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Record writes the run to the database and returns its id.
func (s *SQLiteStore) Record(ctx context.Context, run forecast.Run) (string, error) {
	b, err := json.Marshal(run)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO forecast_runs (id, ts, mode, scenario_id, record) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.At.Unix(), run.Mode, run.ScenarioID, string(b))
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// Runs returns records matching q in timestamp order.
func (s *SQLiteStore) Runs(ctx context.Context, q RunQuery) ([]forecast.Run, error) {
	var args []any
	query := `SELECT record FROM forecast_runs WHERE 1=1`
	if q.Mode != "" {
		query += ` AND mode = ?`
		args = append(args, q.Mode)
	}
	if q.ScenarioID != "" {
		query += ` AND scenario_id = ?`
		args = append(args, q.ScenarioID)
	}
	if !q.Since.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Since.Unix())
	}
	query += ` ORDER BY ts`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []forecast.Run
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r forecast.Run
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal run: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
