// Package store provides the SQLite storage layer for chat-manage.
//
// Every personal record lives in a single SQLite database file:
// - Contacts and website credentials, merged on their natural keys
// - Goals, schedules and numerical facts, append-only
// - A usage log with one row per handled chat message
//
// Every row carries an owner id and every read or write is filtered by it.
// Times are written in UTC.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/sth00619/chat-manage/internal/logging"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.chatmanage/chatmanage.db"

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("record not found")

// Config holds configuration for New.
type Config struct {
	DBPath string
	Logger ectologger.Logger
}

// Store is the SQLite-backed record store. Its embedded conn runs reads and
// writes outside a transaction; Transaction runs them inside one.
type Store struct {
	conn
	db     *sqlx.DB
	dbPath string
	logger ectologger.Logger
}

// Tx is an open transaction. It exposes the same record operations as Store.
type Tx struct {
	conn
	tx *sqlx.Tx
}

// conn carries the query code shared by Store and Tx.
type conn struct {
	ext sqlx.ExtContext
}

// New opens (creating if needed) the database and runs migrations.
// Pass ":memory:" for in-memory databases (testing).
func New(cfg Config) (*Store, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = expandPath(DefaultDBPath)
	}
	cfg.DBPath = expandPath(cfg.DBPath)

	// Create parent directory for non-memory databases
	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	// _time_format=sqlite makes time.Time parameters sortable text.
	db, err := sqlx.Open("sqlite", cfg.DBPath+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if cfg.DBPath == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Enable WAL mode and foreign keys
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Store{
		conn:   conn{ext: db},
		db:     db,
		dbPath: cfg.DBPath,
		logger: logger,
	}

	// Run migrations
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Transaction runs fn inside a single transaction. It commits when fn
// returns nil and rolls back on an error, a panic, or a cancelled ctx.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Tx) error) (err error) {
	sqlTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("error while beginning transaction")
		return fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.logger.WithContext(ctx).WithError(rbErr).Warn("error while rolling back transaction")
		}
	}()

	if err := fn(&Tx{conn: conn{ext: sqlTx}, tx: sqlTx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}

	if err := sqlTx.Commit(); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("error while committing transaction")
		return fmt.Errorf("committing transaction: %w", err)
	}
	committed = true
	return nil
}

// DB returns the underlying handle for tests and maintenance commands.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Path returns the resolved database path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// utc normalizes a time for storage.
func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
