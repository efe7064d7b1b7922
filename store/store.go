// Package store persists compiled programs and a ledger of their runs in
// SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chazu/bcvm/pkg/dist"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the requested chunk doesn't exist.
var ErrNotFound = errors.New("store: not found")

var log = commonlog.GetLogger("bcvm.store")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS programs (
		hash    BLOB PRIMARY KEY,
		id      TEXT NOT NULL,
		chunk   BLOB NOT NULL,
		created INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		hash        BLOB NOT NULL,
		result      INTEGER NOT NULL,
		err_kind    TEXT NOT NULL DEFAULT '',
		err_msg     TEXT NOT NULL DEFAULT '',
		steps       INTEGER NOT NULL,
		started     INTEGER NOT NULL,
		duration_ns INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS runs_by_hash ON runs (hash, started)`,
}

// Run is one recorded execution of a program.
type Run struct {
	ID        string
	Hash      [32]byte
	Result    int32
	ErrKind   string // empty on success
	ErrMsg    string
	Steps     int
	StartedAt time.Time
	Duration  time.Duration
}

// Failed reports whether the run ended in an error.
func (r Run) Failed() bool { return r.ErrKind != "" }

// Store handles SQLite storage for chunks and runs.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Create tables if needed
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating tables: %w", err)
		}
	}

	log.Debugf("opened %s", path)
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// PutChunk stores c. Storing the same chunk twice is a no-op.
func (s *Store) PutChunk(c *dist.Chunk) error {
	data, err := dist.MarshalChunk(c)
	if err != nil {
		return fmt.Errorf("encoding chunk: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT OR IGNORE INTO programs (hash, id, chunk, created) VALUES (?, ?, ?, ?)",
		c.Hash[:], c.ID(), data, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving chunk: %w", err)
	}
	return nil
}

// Chunk retrieves the chunk with the given hash.
func (s *Store) Chunk(hash [32]byte) (*dist.Chunk, error) {
	var data []byte
	err := s.db.QueryRow("SELECT chunk FROM programs WHERE hash = ?", hash[:]).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying chunk: %w", err)
	}
	return dist.UnmarshalChunk(data)
}

// RecordRun appends r to the ledger. An empty ID is filled with a new UUID,
// and a zero StartedAt with the current time.
func (s *Store) RecordRun(r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO runs (id, hash, result, err_kind, err_msg, steps, started, duration_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Hash[:], r.Result, r.ErrKind, r.ErrMsg, r.Steps,
		r.StartedAt.UnixNano(), int64(r.Duration),
	)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// Runs returns the recorded runs of a program, newest first.
func (s *Store) Runs(hash [32]byte) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, hash, result, err_kind, err_msg, steps, started, duration_ns
		 FROM runs WHERE hash = ? ORDER BY started DESC, id`, hash[:])
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			h        []byte
			started  int64
			duration int64
		)
		if err := rows.Scan(&r.ID, &h, &r.Result, &r.ErrKind, &r.ErrMsg, &r.Steps, &started, &duration); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		copy(r.Hash[:], h)
		r.StartedAt = time.Unix(0, started)
		r.Duration = time.Duration(duration)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
