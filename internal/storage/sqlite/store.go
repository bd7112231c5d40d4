// Package sqlite is the canonical store's sole implementation: a
// single-writer SQLite database with a full-text index over the catalog
// and constraint-enforced Merkle nodes (spec.md §4.A, §6).
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/vetcore/vetcore/internal/storage"
	"github.com/vetcore/vetcore/internal/storage/sqlite/migrations"
)

var _ storage.Store = (*Store)(nil)

// Store is the SQLite-backed storage.Store implementation. A single
// *sql.DB with one open connection enforces the core's single-writer
// model (spec.md §5); every mutating statement is therefore implicitly
// serialized without explicit application-level locking.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path, running migrations and
// enabling WAL mode and foreign-key enforcement.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}
	escaped := strings.ReplaceAll(path, " ", "%20")
	return open("file:" + escaped)
}

// OpenInMemory opens a private, in-process-only database, used by tests
// and short-lived tooling.
func OpenInMemory() (*Store, error) {
	return open("file::memory:")
}

func open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection total: the core is specified as single-writer, and
	// a second pooled connection against the same WAL file would let two
	// goroutines race on the same logical store (spec.md §5).
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}
