package app

import (
	"context"

	"querydeck/internal/dbconn"
	"querydeck/internal/store"
)

func (a *App) requireStore() error {
	if a.store == nil {
		return dbconn.ValidationError("saved connections are not available")
	}
	return nil
}

// ListConnections returns the saved profiles with passwords in ENC: form.
func (a *App) ListConnections(ctx context.Context) ([]dbconn.Connection, error) {
	if err := a.requireStore(); err != nil {
		return nil, err
	}
	return a.store.ListConnections(ctx)
}

// SaveConnection creates c when it has no id and updates it otherwise. It
// returns the profile id.
func (a *App) SaveConnection(ctx context.Context, c dbconn.Connection) (int64, error) {
	if err := a.requireStore(); err != nil {
		return 0, err
	}
	if c.ID > 0 {
		return c.ID, a.store.UpdateConnection(ctx, c)
	}
	return a.store.CreateConnection(ctx, c)
}

// DeleteConnection removes a saved profile.
func (a *App) DeleteConnection(ctx context.Context, id int64) error {
	if err := a.requireStore(); err != nil {
		return err
	}
	return a.store.DeleteConnection(ctx, id)
}

// History returns recent executions, optionally for one saved profile.
func (a *App) History(ctx context.Context, connectionID int64, limit int) ([]store.Execution, error) {
	if err := a.requireStore(); err != nil {
		return nil, err
	}
	return a.store.ListHistory(ctx, connectionID, limit)
}

// Encrypt returns the ENC: form of plain.
func (a *App) Encrypt(plain string) (string, error) {
	if a.cipher == nil {
		return "", dbconn.ValidationError("no secret key configured")
	}
	return a.cipher.Encrypt(plain)
}
