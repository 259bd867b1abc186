// Package store keeps provenance records in a SQLite database so sessions
// can be listed and queried after the fact.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/bethropolis/provtrace/internal/event"
	"github.com/bethropolis/provtrace/internal/logger"
)

// DefaultFileName is the database file created inside a log directory.
const DefaultFileName = "records.db"

const schema = `
CREATE TABLE IF NOT EXISTS records (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	session TEXT    NOT NULL,
	kind    TEXT    NOT NULL,
	actor   TEXT    NOT NULL,
	ts      INTEGER NOT NULL,
	payload TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_session ON records(session, seq);
`

// Store is a SQLite database of records grouped by session.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Records are appended in session order; one writer keeps it that way.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	logger.DebugTagf("store", "Opened %s", path)
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Sink returns an event.Sink that appends to the given session.
func (s *Store) Sink(sessionID string) event.Sink {
	return event.SinkFunc(func(r event.Record) error {
		return s.Append(context.Background(), sessionID, r)
	})
}

// Append stores r under sessionID.
func (s *Store) Append(ctx context.Context, sessionID string, r event.Record) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (session, kind, actor, ts, payload) VALUES (?, ?, ?, ?, ?)`,
		sessionID, r.Kind().String(), r.Actor().String(), r.Timestamp().UnixMilli(), string(payload))
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// Records returns the records of a session in the order they were appended.
func (s *Store) Records(ctx context.Context, sessionID string) ([]event.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM records WHERE session = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []event.Record
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		var r event.Record
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SessionSummary counts the records of one session.
type SessionSummary struct {
	ID      string
	Records int
	First   int64 // Unix milliseconds
	Last    int64
}

// Sessions lists the stored sessions, oldest first.
func (s *Store) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session, COUNT(*), MIN(ts), MAX(ts)
		FROM records
		GROUP BY session
		ORDER BY MIN(seq)`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.ID, &sum.Records, &sum.First, &sum.Last); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
