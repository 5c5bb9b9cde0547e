// Package app ties the connection store, password cipher and database
// pipeline together. Every operation resolves its target connection, opens
// one handle, runs and closes the handle before returning.
package app

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"querydeck/internal/dbconn"
	"querydeck/internal/schema"
	"querydeck/internal/secret"
	"querydeck/internal/sqlx"
	"querydeck/internal/store"
)

// Opener opens a handle for a connection whose password is plaintext.
// *dbconn.Factory implements it.
type Opener interface {
	Open(ctx context.Context, conn dbconn.Connection, d *dbconn.Dialect) (*dbconn.Handle, error)
}

// Target selects the connection of one request: a saved profile by id, or
// inline parameters.
type Target struct {
	ConnectionID int64
	Connection   *dbconn.Connection
}

// Options configures New.
type Options struct {
	Version         string
	Store           *store.Store
	Cipher          *secret.Cipher
	Opener          Opener
	DefaultPageSize int64
	Logger          *slog.Logger
}

// App serves the HTTP handlers and CLI commands.
type App struct {
	version  string
	store    *store.Store
	cipher   *secret.Cipher
	opener   Opener
	pageSize int64
	logger   *slog.Logger
}

// New returns an App. Store may be nil, in which case only inline
// connections are accepted and nothing is recorded.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opener := opts.Opener
	if opener == nil {
		opener = &dbconn.Factory{Logger: logger}
	}
	pageSize := opts.DefaultPageSize
	if pageSize <= 0 {
		pageSize = dbconn.DefaultPageSize
	}
	return &App{
		version:  opts.Version,
		store:    opts.Store,
		cipher:   opts.Cipher,
		opener:   opener,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Version returns the application version.
func (a *App) Version() string { return a.version }

// DefaultPageSize is applied by callers when a request omits the page size.
func (a *App) DefaultPageSize() int64 { return a.pageSize }

// ResolveConnection returns the connection t refers to. The password is left
// as stored.
func (a *App) ResolveConnection(ctx context.Context, t Target) (dbconn.Connection, error) {
	switch {
	case t.ConnectionID > 0:
		if a.store == nil {
			return dbconn.Connection{}, dbconn.ValidationError("saved connections are not available")
		}
		return a.store.GetConnection(ctx, t.ConnectionID)
	case t.Connection != nil:
		return *t.Connection, nil
	}
	return dbconn.Connection{}, dbconn.ValidationError("connection is required")
}

// Introspect returns the schema model of the target's database.
func (a *App) Introspect(ctx context.Context, t Target) (*schema.Model, error) {
	conn, err := a.ResolveConnection(ctx, t)
	if err != nil {
		return nil, err
	}
	h, err := a.open(ctx, conn)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return dbconn.Introspect(ctx, h, conn.DatabaseName)
}

// ExportDDL introspects the target and renders its tables as CREATE TABLE
// statements for dialect. An empty dialect uses the target's own type.
func (a *App) ExportDDL(ctx context.Context, t Target, dialect string) (string, error) {
	conn, err := a.ResolveConnection(ctx, t)
	if err != nil {
		return "", err
	}
	if dialect == "" {
		dialect = conn.ConnectionType
	}
	if !slices.Contains(sqlx.Dialects(), dialect) {
		return "", dbconn.ValidationError("unsupported DDL dialect: " + dialect)
	}
	m, err := a.Introspect(ctx, Target{Connection: &conn})
	if err != nil {
		return "", err
	}
	return sqlx.Export(dialect, m)
}

// Execute runs one statement against the target and records it in the
// history when a store is configured.
func (a *App) Execute(ctx context.Context, t Target, req dbconn.Request) (*dbconn.QueryResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	conn, err := a.ResolveConnection(ctx, t)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := a.execute(ctx, conn, req)
	a.record(ctx, t.ConnectionID, req.Query, start, err)
	return res, err
}

func (a *App) execute(ctx context.Context, conn dbconn.Connection, req dbconn.Request) (*dbconn.QueryResult, error) {
	h, err := a.open(ctx, conn)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return dbconn.Execute(ctx, h, req)
}

// ListDatabases lists the databases visible on the target's server.
func (a *App) ListDatabases(ctx context.Context, t Target) ([]string, error) {
	conn, err := a.ResolveConnection(ctx, t)
	if err != nil {
		return nil, err
	}
	h, err := a.open(ctx, conn)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return dbconn.ListDatabases(ctx, h)
}

// open resolves the dialect before anything else, so an unsupported type
// never reaches a driver, then decrypts the password for the driver only.
func (a *App) open(ctx context.Context, conn dbconn.Connection) (*dbconn.Handle, error) {
	d, err := dbconn.Resolve(conn.ConnectionType)
	if err != nil {
		return nil, err
	}
	conn.Password, err = a.reveal(conn.Password)
	if err != nil {
		return nil, err
	}
	return a.opener.Open(ctx, conn, d)
}

func (a *App) reveal(password string) (string, error) {
	if !secret.IsEncrypted(password) {
		return password, nil
	}
	if a.cipher == nil {
		return "", &dbconn.Error{Kind: dbconn.ErrConnection, Err: errors.New("encrypted password but no secret key configured")}
	}
	plain, err := a.cipher.Reveal(password)
	if err != nil {
		return "", &dbconn.Error{Kind: dbconn.ErrConnection, Err: err}
	}
	return plain, nil
}

func (a *App) record(ctx context.Context, connID int64, query string, start time.Time, execErr error) {
	if a.store == nil {
		return
	}
	e := store.Execution{
		ConnectionID: connID,
		SQL:          query,
		ExecutedAt:   start,
		Duration:     time.Since(start),
		Success:      execErr == nil,
	}
	if execErr != nil {
		e.Error = execErr.Error()
	}
	// Record even when the request context was cancelled.
	if _, err := a.store.RecordExecution(context.WithoutCancel(ctx), e); err != nil {
		a.logger.Warn("failed to record execution", "error", err)
	}
}
