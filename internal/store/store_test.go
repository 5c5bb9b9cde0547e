package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydeck/internal/dbconn"
	"querydeck/internal/secret"
	"querydeck/internal/testutil"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestStore(t *testing.T) (*Store, *secret.Cipher) {
	t.Helper()
	c, err := secret.NewFromHex(testKey)
	require.NoError(t, err)
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "querydeck.db"), c, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, c
}

func mysqlProfile() dbconn.Connection {
	return dbconn.Connection{
		ConnectionName: "shop",
		ConnectionType: "mysql",
		Server:         "db.internal",
		Port:           3306,
		DatabaseName:   "shop",
		Username:       "app",
		Password:       "s3cret",
	}
}

func TestOpen_AppliesMigrations(t *testing.T) {
	s, _ := newTestStore(t)
	v, err := s.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestOpen_Reopen(t *testing.T) {
	c, err := secret.NewFromHex(testKey)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "q.db")
	ctx := context.Background()

	s, err := Open(ctx, path, c, nil)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())
	id, err := s.CreateConnection(ctx, mysqlProfile())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, c, nil)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.GetConnection(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "shop", got.ConnectionName)
}

func TestOpen_RequiresCipher(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "q.db"), nil, nil)
	require.Error(t, err)
}

func TestConnections_CRUD(t *testing.T) {
	s, c := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateConnection(ctx, mysqlProfile())
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.GetConnection(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, dbconn.Port(3306), got.Port)
	assert.Equal(t, "db.internal", got.Server)
	assert.True(t, secret.IsEncrypted(got.Password))
	plain, err := c.Decrypt(got.Password)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", plain)

	got.DatabaseName = "shop_v2"
	require.NoError(t, s.UpdateConnection(ctx, got))
	updated, err := s.GetConnection(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "shop_v2", updated.DatabaseName)
	assert.Equal(t, got.Password, updated.Password, "encrypted password is not re-encrypted")

	second, err := s.CreateConnection(ctx, dbconn.Connection{
		ConnectionName: "local",
		ConnectionType: "sqlite",
		FilePath:       "/tmp/app.db",
	})
	require.NoError(t, err)

	list, err := s.ListConnections(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, id, list[1].ID)
	assert.Empty(t, list[0].Password)
	assert.Equal(t, dbconn.Port(0), list[0].Port)

	require.NoError(t, s.DeleteConnection(ctx, id))
	_, err = s.GetConnection(ctx, id)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestConnections_ListEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	list, err := s.ListConnections(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestConnections_NotFound(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	p := mysqlProfile()
	p.ID = 99
	assert.True(t, errors.Is(s.UpdateConnection(ctx, p), ErrNotFound))
	assert.True(t, errors.Is(s.DeleteConnection(ctx, 99), ErrNotFound))

	_, err := s.GetConnection(ctx, 99)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestConnections_IDRequired(t *testing.T) {
	s, _ := newTestStore(t)
	assert.True(t, errors.Is(s.UpdateConnection(context.Background(), mysqlProfile()), dbconn.ErrValidation))
	assert.True(t, errors.Is(s.DeleteConnection(context.Background(), 0), dbconn.ErrValidation))
}

func TestValidateConnection(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *dbconn.Connection)
		wantErr error
		wantMsg string
	}{
		{name: "valid", mutate: func(c *dbconn.Connection) {}},
		{name: "no name", mutate: func(c *dbconn.Connection) { c.ConnectionName = " " }, wantErr: dbconn.ErrValidation},
		{name: "no type", mutate: func(c *dbconn.Connection) { c.ConnectionType = "" }, wantErr: dbconn.ErrValidation},
		{name: "unsupported type", mutate: func(c *dbconn.Connection) { c.ConnectionType = "oracle" }, wantErr: dbconn.ErrUnsupportedDialect},
		{
			name:    "server fields",
			mutate:  func(c *dbconn.Connection) { c.Server, c.Port, c.Password = "", 0, "" },
			wantErr: dbconn.ErrValidation,
			wantMsg: "missing required fields: server, port, password",
		},
		{
			name:    "sqlite needs file",
			mutate:  func(c *dbconn.Connection) { c.ConnectionType = "sqlite" },
			wantErr: dbconn.ErrValidation,
			wantMsg: "missing required fields: file_path",
		},
		{
			name: "sqlite ignores server fields",
			mutate: func(c *dbconn.Connection) {
				c.ConnectionType = "sqlite"
				c.FilePath = "x.db"
				c.Server = "db.internal"
				c.Port = 5432
				c.Username = "ignored"
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mysqlProfile()
			tt.mutate(&c)
			err := ValidateConnection(c)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}
		})
	}
}

func TestHistory_RecordAndList(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	connID, err := s.CreateConnection(ctx, mysqlProfile())
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err = s.RecordExecution(ctx, Execution{ConnectionID: connID, SQL: "SELECT 1", ExecutedAt: base, Duration: 12 * time.Millisecond, Success: true})
	require.NoError(t, err)
	failedID, err := s.RecordExecution(ctx, Execution{SQL: "SELECT nope", ExecutedAt: base.Add(time.Second), Error: "no such column"})
	require.NoError(t, err)
	assert.Len(t, failedID, 36)

	all, err := s.ListHistory(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, failedID, all[0].ID)
	assert.False(t, all[0].Success)
	assert.Equal(t, "no such column", all[0].Error)
	assert.Zero(t, all[0].ConnectionID)
	assert.Equal(t, "SELECT 1", all[1].SQL)
	assert.Equal(t, int64(12), all[1].DurationMS)
	assert.True(t, all[1].ExecutedAt.Equal(base))

	scoped, err := s.ListHistory(ctx, connID, 10)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, connID, scoped[0].ConnectionID)

	limited, err := s.ListHistory(ctx, 0, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestHistory_SurvivesConnectionDelete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	connID, err := s.CreateConnection(ctx, mysqlProfile())
	require.NoError(t, err)
	_, err = s.RecordExecution(ctx, Execution{ConnectionID: connID, SQL: "SELECT 1", Success: true})
	require.NoError(t, err)
	require.NoError(t, s.DeleteConnection(ctx, connID))

	all, err := s.ListHistory(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Zero(t, all[0].ConnectionID)
}
