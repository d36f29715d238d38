// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists activity log entries and request outcomes in
// SQLite so they survive the process. It backs the history and stats
// commands and history export.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-tools/pkg/types"
)

const dbFile = "history.db"

// Store manages the history database.
type Store struct {
	db      *sql.DB
	session string
	logger  *zap.Logger
}

// Open opens or creates stateDir/history.db and its schema. Entries written
// through this Store are tagged with a fresh session id so sequence numbers
// from different processes do not collide.
func Open(stateDir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dbPath := filepath.Join(stateDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer; the sink and the completion callback run on different goroutines.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, session: uuid.NewString(), logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Session returns the id tagging entries written by this Store.
func (s *Store) Session() string {
	return s.session
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session TEXT NOT NULL,
			seq INTEGER NOT NULL,
			time TEXT NOT NULL,
			severity TEXT NOT NULL,
			message TEXT NOT NULL,
			request_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_request ON entries(request_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_severity ON entries(severity)`,
		`CREATE TABLE IF NOT EXISTS requests (
			id TEXT PRIMARY KEY,
			session TEXT NOT NULL,
			kind TEXT NOT NULL,
			state TEXT NOT NULL,
			inputs TEXT,
			outputs TEXT,
			documents INTEGER,
			pages INTEGER,
			bytes_in INTEGER,
			bytes_out INTEGER,
			error_kind TEXT,
			error TEXT,
			submitted_at TEXT,
			started_at TEXT,
			finished_at TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_kind ON requests(kind)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Write stores one activity log entry. It satisfies activity.Sink.
func (s *Store) Write(e types.LogEntry) error {
	_, err := s.db.Exec(
		`INSERT INTO entries (session, seq, time, severity, message, request_id) VALUES (?, ?, ?, ?, ?, ?)`,
		s.session, e.Seq, formatTime(e.Time), string(e.Severity), e.Message, e.RequestID,
	)
	if err != nil {
		return fmt.Errorf("inserting entry %d: %w", e.Seq, err)
	}
	return nil
}

// RecordCompletion stores the outcome of a request. Recording the same
// request twice keeps the later outcome.
func (s *Store) RecordCompletion(ctx context.Context, c types.Completion) error {
	inputs, err := json.Marshal(c.Request.InputPaths())
	if err != nil {
		return fmt.Errorf("encoding inputs: %w", err)
	}
	outputs, err := json.Marshal(c.Result.Outputs)
	if err != nil {
		return fmt.Errorf("encoding outputs: %w", err)
	}
	var errKind, errMsg string
	if c.Err != nil {
		errKind = string(c.ErrorKind())
		errMsg = c.Err.Error()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO requests (id, session, kind, state, inputs, outputs, documents, pages,
			bytes_in, bytes_out, error_kind, error, submitted_at, started_at, finished_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			state=excluded.state, outputs=excluded.outputs, pages=excluded.pages,
			bytes_in=excluded.bytes_in, bytes_out=excluded.bytes_out,
			error_kind=excluded.error_kind, error=excluded.error,
			started_at=excluded.started_at, finished_at=excluded.finished_at,
			duration_ms=excluded.duration_ms`,
		c.Request.ID, s.session, string(c.Request.Kind), string(c.State),
		string(inputs), string(outputs), len(c.Request.Inputs), c.Result.Pages,
		c.Result.BytesIn, c.Result.BytesOut, errKind, errMsg,
		formatTime(c.Request.SubmittedAt), formatTime(c.StartedAt), formatTime(c.FinishedAt),
		c.Result.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("recording request %s: %w", c.Request.ID, err)
	}
	s.logger.Debug("recorded request", zap.String("id", c.Request.ID), zap.String("state", string(c.State)))
	return nil
}

// Filter narrows entry queries. Zero values match everything.
type Filter struct {
	Severity  types.Severity
	RequestID string
	// Limit keeps the most recent entries; 0 means no limit.
	Limit int
}

// Entries returns stored entries in the order they were written.
func (s *Store) Entries(ctx context.Context, f Filter) ([]types.LogEntry, error) {
	var where []string
	var args []any
	if f.Severity != "" {
		where = append(where, "severity = ?")
		args = append(args, string(f.Severity))
	}
	if f.RequestID != "" {
		where = append(where, "request_id = ?")
		args = append(args, f.RequestID)
	}

	q := `SELECT id, seq, time, severity, message, request_id FROM entries`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var out []types.LogEntry
	for rows.Next() {
		var (
			id        int64
			e         types.LogEntry
			ts, sev   string
			requestID sql.NullString
		)
		if err := rows.Scan(&id, &e.Seq, &ts, &sev, &e.Message, &requestID); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Time = parseTime(ts)
		e.Severity = types.Severity(sev)
		e.RequestID = requestID.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Record is a stored request outcome.
type Record struct {
	ID          string              `json:"id" yaml:"id"`
	Kind        types.OperationKind `json:"kind" yaml:"kind"`
	State       types.JobState      `json:"state" yaml:"state"`
	Inputs      []string            `json:"inputs" yaml:"inputs"`
	Outputs     []string            `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Pages       int                 `json:"pages" yaml:"pages"`
	BytesIn     int64               `json:"bytes_in" yaml:"bytes_in"`
	BytesOut    int64               `json:"bytes_out" yaml:"bytes_out"`
	ErrorKind   types.ErrorKind     `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Error       string              `json:"error,omitempty" yaml:"error,omitempty"`
	SubmittedAt time.Time           `json:"submitted_at" yaml:"submitted_at"`
	FinishedAt  time.Time           `json:"finished_at" yaml:"finished_at"`
	DurationMS  int64               `json:"duration_ms" yaml:"duration_ms"`
}

// Requests returns stored request outcomes, most recent first. limit 0
// returns all of them.
func (s *Store) Requests(ctx context.Context, limit int) ([]Record, error) {
	q := `SELECT id, kind, state, inputs, outputs, pages, bytes_in, bytes_out,
			error_kind, error, submitted_at, finished_at, duration_ms
		  FROM requests ORDER BY finished_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying requests: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r                   Record
			kind, state         string
			inputs, outputs     sql.NullString
			errKind, errMsg     sql.NullString
			submitted, finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &kind, &state, &inputs, &outputs, &r.Pages, &r.BytesIn, &r.BytesOut,
			&errKind, &errMsg, &submitted, &finished, &r.DurationMS); err != nil {
			return nil, fmt.Errorf("scanning request: %w", err)
		}
		r.Kind = types.OperationKind(kind)
		r.State = types.JobState(state)
		if err := decodePaths(inputs, &r.Inputs); err != nil {
			return nil, fmt.Errorf("decoding inputs of request %s: %w", r.ID, err)
		}
		if err := decodePaths(outputs, &r.Outputs); err != nil {
			return nil, fmt.Errorf("decoding outputs of request %s: %w", r.ID, err)
		}
		r.ErrorKind = types.ErrorKind(errKind.String)
		r.Error = errMsg.String
		r.SubmittedAt = parseTime(submitted.String)
		r.FinishedAt = parseTime(finished.String)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats aggregates every recorded request. Documents and bytes count only
// successful requests; compression savings count only compress requests.
func (s *Store) Stats(ctx context.Context) (types.ProcessingStats, error) {
	var st types.ProcessingStats
	err := s.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN state = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = ? THEN documents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = ? THEN bytes_in ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = ? AND kind = ? AND bytes_out < bytes_in
				THEN bytes_in - bytes_out ELSE 0 END), 0)
		 FROM requests`,
		string(types.StateSucceeded), string(types.StateFailed),
		string(types.StateSucceeded), string(types.StateSucceeded),
		string(types.StateSucceeded), string(types.OpCompress),
	).Scan(&st.Requests, &st.Succeeded, &st.Failed, &st.DocumentsProcessed, &st.BytesProcessed, &st.CompressionSaved)
	if err != nil {
		return types.ProcessingStats{}, fmt.Errorf("computing stats: %w", err)
	}
	return st, nil
}

// decodePaths reads a JSON path list column. NULL and empty columns
// decode to nil.
func decodePaths(col sql.NullString, dst *[]string) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), dst)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
