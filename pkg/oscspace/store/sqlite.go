package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists bindings to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (or creates) a binding database.
// The path should be a file path (e.g., "./routes.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// every pooled connection to ":memory:" would see its own empty database
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bindings (
			address TEXT NOT NULL,
			handler TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (address, handler)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bindings_sequence
		ON bindings(sequence)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(address, handler string) error {
	if err := validate(address, handler); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	// Re-saving keeps the first sequence so restore order is stable
	_, err := s.db.Exec(`
		INSERT INTO bindings (address, handler, sequence, created_at)
		VALUES (
			?, ?,
			COALESCE((SELECT MAX(sequence) FROM bindings), 0) + 1,
			?
		)
		ON CONFLICT(address, handler) DO NOTHING
	`, address, handler, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save binding: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(address, handler string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		DELETE FROM bindings
		WHERE address = ? AND handler = ?
	`, address, handler)
	if err != nil {
		return fmt.Errorf("delete binding: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List() ([]Binding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT address, handler, sequence, created_at
		FROM bindings
		ORDER BY sequence
	`)
	if err != nil {
		return nil, fmt.Errorf("list bindings: %w", err)
	}
	defer rows.Close()

	bindings := []Binding{}
	for rows.Next() {
		var b Binding
		var created string
		if err := rows.Scan(&b.Address, &b.Handler, &b.Sequence, &created); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		b.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bindings: %w", err)
	}
	return bindings, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
