// Package store persists saved connection profiles and query history in a
// local SQLite file.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"querydeck/internal/secret"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

// ErrNotFound is returned when a connection id does not exist.
var ErrNotFound = errors.New("connection not found")

// Store is the application database. It is opened once at startup and
// closed at shutdown.
type Store struct {
	db     *sql.DB
	path   string
	cipher *secret.Cipher
	logger *slog.Logger
}

// Open opens (or creates) the store at path and applies pending migrations.
// Passwords written through the store are encrypted with c.
func Open(ctx context.Context, path string, c *secret.Cipher, logger *slog.Logger) (*Store, error) {
	if c == nil {
		return nil, errors.New("store requires a cipher")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path, cipher: c, logger: logger}, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// openDB opens the SQLite file with foreign keys and WAL enabled, creating
// the parent directory when needed.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// PRAGMAs are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Version returns the applied migration version.
func (s *Store) Version(ctx context.Context) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		return 0, fmt.Errorf("set dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, s.db)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
