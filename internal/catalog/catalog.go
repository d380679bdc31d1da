// Package catalog implements the relational system of record for excavator:
// files, chunks, entity occurrences, consolidated entities, patterns,
// discoveries, and the durable job queue's backing tables.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/excavator/excavator/internal/logging"
)

// Store wraps the single SQLite handle shared by the catalog and, in the
// same file, the vector store. Single-writer, concurrent-reader semantics
// per busy_timeout/WAL.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// Open opens (creating if needed) the catalog database at path and runs
// schema migrations.
func Open(path string, busyTimeout string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryCatalog, "Open")
	defer timer.Stop()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}

	db, err := sql.Open(sqlDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.CatalogDebug("failed to set journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.CatalogDebug("failed to set synchronous=NORMAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logging.CatalogDebug("failed to set foreign_keys=ON: %v", err)
	}
	if busyTimeout != "" {
		if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
			logging.CatalogDebug("failed to set busy_timeout: %v", err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate catalog schema: %w", err)
	}

	logging.Catalog("catalog opened at %s", path)
	return s, nil
}

// DB exposes the underlying handle for the vector store, which must share
// it (one file, two logical stores).
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
