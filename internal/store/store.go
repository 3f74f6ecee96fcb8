package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migrations[i] upgrades a journal from user_version i to i+1. The schema
// version of a fully migrated journal is len(migrations).
var migrations = []func(*sql.Tx) error{
	// 0 -> 1: index calls by outcome for CountByOutcome and --outcome listings.
	func(tx *sql.Tx) error {
		_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_calls_outcome ON calls(outcome, seq)`)
		return err
	},
}

// Store is a SQLite-backed call journal.
//
// Writable stores run in WAL mode with a single connection, so one process
// appends while others read.
type Store struct {
	db       *sql.DB
	readOnly bool
}

// OpenOption configures Open.
type OpenOption func(*openConfig)

type openConfig struct {
	readOnly bool
}

// ReadOnly opens an existing journal without creating or migrating it.
// Writes through the returned Store fail.
func ReadOnly() OpenOption {
	return func(c *openConfig) {
		c.readOnly = true
	}
}

// Open opens the journal at path, creating and migrating it unless ReadOnly
// is given. Opening the same path repeatedly is safe.
func Open(path string, opts ...OpenOption) (*Store, error) {
	var cfg openConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := path
	if cfg.readOnly {
		dsn = "file:" + path + "?mode=ro"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, readOnly: cfg.readOnly}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) init() error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	if !s.readOnly {
		pragmas = append(pragmas,
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
		)
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	version, err := s.schemaVersion()
	if err != nil {
		return err
	}
	if version > len(migrations) {
		return fmt.Errorf("journal schema version %d is newer than supported version %d", version, len(migrations))
	}
	if s.readOnly {
		if version < len(migrations) {
			return fmt.Errorf("journal schema version %d needs migration; open it writable first", version)
		}
		return nil
	}
	return s.migrate(version)
}

// migrate creates missing tables, then applies every migration after from in
// a single transaction.
func (s *Store) migrate(from int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	for v := from; v < len(migrations); v++ {
		if err := migrations[v](tx); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", len(migrations))); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return tx.Commit()
}

func (s *Store) schemaVersion() (int, error) {
	var v int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return v, nil
}

// Close closes the database. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for ad-hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
