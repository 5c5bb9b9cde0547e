package cli

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydeck/internal/dbconn"
	"querydeck/internal/schema"
	"querydeck/internal/secret"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// setupWorkspace writes a config file and a seeded SQLite target into a
// fresh working directory.
func setupWorkspace(t *testing.T) (cfgPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	dbPath = filepath.Join(dir, "target.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	for _, stmt := range []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`,
		`INSERT INTO users (id, name) VALUES (1, 'ann'), (2, 'bob'), (3, NULL)`,
		`CREATE INDEX idx_users_name ON users (name)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	cfgPath = filepath.Join(dir, "querydeck.yaml")
	cfg := "store:\n  path: " + filepath.Join(dir, "store.db") + "\n" +
		"secret:\n  key: " + testKey + "\n  keyring: false\n" +
		"log:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath, dbPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestQueryCommand_Table(t *testing.T) {
	_, dbPath := setupWorkspace(t)

	out, err := run(t, "query", "SELECT * FROM users ORDER BY id", "--type", "sqlite", "--file", dbPath, "--page-size", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "ann")
	assert.Contains(t, out, "bob")
	assert.NotContains(t, out, "NULL")
	assert.Contains(t, out, "(2 of 3 rows, page 0)")

	out, err = run(t, "query", "SELECT * FROM users ORDER BY id", "--type", "sqlite", "--file", dbPath, "--page-size", "2", "--page", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(1 of 3 rows, page 1)")
}

func TestQueryCommand_JSONAndNonSelect(t *testing.T) {
	_, dbPath := setupWorkspace(t)

	out, err := run(t, "query", "UPDATE users SET name = 'x'", "--type", "sqlite", "--file", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "(3 rows affected)")

	out, err = run(t, "query", "SELECT id FROM users WHERE id = 1", "--type", "sqlite", "--file", dbPath, "-f", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"paginated": true`)
	assert.Contains(t, out, `"total": 1`)
}

func TestQueryCommand_Errors(t *testing.T) {
	_, dbPath := setupWorkspace(t)

	_, err := run(t, "query", "SELECT 1", "--type", "oracle")
	require.Error(t, err)
	assert.Equal(t, "unsupported connection type: oracle", err.Error())

	_, err = run(t, "query", "SELECT 1")
	require.Error(t, err, "a connection selector is required")

	_, err = run(t, "query", "SELECT 1", "--type", "sqlite", "--file", dbPath, "--connection-id", "1")
	require.Error(t, err)

	_, err = run(t, "query", "SELECT * FROM nope", "--type", "sqlite", "--file", dbPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such table")

	_, err = run(t, "query", "SELECT 1", "--type", "sqlite", "--file", dbPath, "-f", "xml")
	require.Error(t, err)
}

func TestObjectsAndDatabasesCommands(t *testing.T) {
	_, dbPath := setupWorkspace(t)

	out, err := run(t, "objects", "--type", "sqlite", "--file", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "users")
	assert.Contains(t, out, "2 columns")
	assert.Contains(t, out, "idx_users_name")
	assert.Contains(t, out, "on users")

	out, err = run(t, "objects", "--type", "sqlite", "--file", dbPath, "-f", "ddl", "--dialect", "mysql")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE `users`")

	out, err = run(t, "databases", "--type", "sqlite", "--file", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "main")
}

func TestEncryptAndConnectionsCommands(t *testing.T) {
	setupWorkspace(t)

	out, err := run(t, "encrypt", "hunter2")
	require.NoError(t, err)
	enc := strings.TrimSpace(out)
	require.True(t, secret.IsEncrypted(enc))

	c, err := secret.NewFromHex(testKey)
	require.NoError(t, err)
	plain, err := c.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plain)

	out, err = run(t, "connections")
	require.NoError(t, err)
	assert.Contains(t, out, "(no saved connections)")
}

func TestConnectionsCommand_RequiresKey(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	_, err := run(t, "connections", "--no-keyring", "--store", filepath.Join(dir, "s.db"))
	require.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	cfgPath, _ := setupWorkspace(t)
	_, err := run(t, "connections", "--config", cfgPath, "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{"text", "text"},
		{int64(42), "42"},
		{1.5, "1.5"},
		{[]byte{0xde, 0xad}, "0xdead"},
		{time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), "2026-01-02T03:04:05Z"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatValue(tt.in))
	}
}

func TestRenderConnectionsOmitsPasswords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderConnections(&buf, []dbconn.Connection{{
		ID: 1, ConnectionName: "prod", ConnectionType: "mysql", Server: "db", Port: 3306, Password: "ENC:aa:bb",
	}}))
	assert.Contains(t, buf.String(), "prod")
	assert.Contains(t, buf.String(), "3306")
	assert.NotContains(t, buf.String(), "ENC:")
}

func TestRenderModel(t *testing.T) {
	m := schema.New()
	m.Tables = append(m.Tables, schema.Table{Name: "orders", Columns: []schema.Column{{Name: "id"}}})
	m.Views = append(m.Views, schema.Object{Name: "recent_orders"})

	var buf bytes.Buffer
	require.NoError(t, renderModel(&buf, m, "table"))
	assert.Contains(t, buf.String(), "orders")
	assert.Contains(t, buf.String(), "1 columns")
	assert.Contains(t, buf.String(), "recent_orders")
}
