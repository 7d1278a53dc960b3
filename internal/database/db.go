// Package database is the persistence adapter: typed wrappers over an
// embedded document store, one physical SQLite database per logical
// namespace ("primary" for entity stores, "data" for per-collection document
// tables). The adapter never leaks *sql.DB to callers; everything goes
// through Store's document-oriented methods.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rs/zerolog/log"
)

// Config configures a physical SQLite-backed namespace.
type Config struct {
	// Path to the SQLite file. ":memory:" is accepted for tests.
	Path string

	BusyTimeout     time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (c Config) withDefaults() Config {
	if c.BusyTimeout == 0 {
		c.BusyTimeout = 5 * time.Second
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 10
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	return c
}

// Store is a namespace-scoped handle on the document store: either the
// "primary" namespace (builders/users/queries/query_runs/config/collections) or the
// "data" namespace (one table per registered collection).
type Store struct {
	db     *sql.DB
	cfg    Config
	mu     sync.RWMutex
	closed bool
}

// Open opens (creating if needed) the SQLite file at cfg.Path and returns a
// Store ready for EnsureCollection/insert/find calls.
func Open(cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()

	if cfg.Path != ":memory:" {
		if err := ensureDir(cfg.Path); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: sqlDB, cfg: cfg}

	if err := s.configure(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("configuring database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	log.Debug().Str("path", cfg.Path).Msg("document store opened")

	return s, nil
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) configure() error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", s.cfg.BusyTimeout.Milliseconds()),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("executing %q: %w", p, err)
		}
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Now returns the current UTC instant, used by every Touch() call site so
// that tests can assert monotonic timestamps without mocking the clock type.
func Now() time.Time {
	return time.Now().UTC()
}
