//go:build integration

package dbconn

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"querydeck/internal/testutil"
)

func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) (string, int) {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)
	n, err := strconv.Atoi(mapped.Port())
	require.NoError(t, err)
	return host, n
}

func runScenario(t *testing.T, conn Connection, setup []string, database string) {
	t.Helper()
	ctx := context.Background()
	f := &Factory{ConnectTimeout: 30 * time.Second, QueryTimeout: 30 * time.Second, Logger: testutil.NewTestLogger(t)}

	h, err := f.Open(ctx, conn, nil)
	require.NoError(t, err)
	defer h.Close()

	for _, stmt := range setup {
		_, err := Execute(ctx, h, Request{Query: stmt, PageSize: 1})
		require.NoError(t, err, stmt)
	}

	res, err := Execute(ctx, h, Request{Query: "SELECT * FROM users", PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
	assert.Equal(t, []string{"id", "name"}, res.Columns)
	require.Len(t, res.Rows, 2)

	m, err := Introspect(ctx, h, database)
	require.NoError(t, err)
	require.Len(t, m.Tables, 1)
	assert.Equal(t, "users", m.Tables[0].Name)
	assert.Len(t, m.Tables[0].Columns, 2)

	again, err := Introspect(ctx, h, database)
	require.NoError(t, err)
	assert.Equal(t, m, again)

	names, err := ListDatabases(ctx, h)
	require.NoError(t, err)
	assert.Contains(t, names, database)
}

func TestIntegration_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432/tcp")

	runScenario(t, Connection{
		ConnectionType: "postgresql",
		Server:         host,
		Port:           Port(port),
		DatabaseName:   "testdb",
		Username:       "test",
		Password:       "test",
	}, []string{
		"CREATE TABLE users (id INT PRIMARY KEY, name VARCHAR(50))",
		"INSERT INTO users VALUES (1, 'ann'), (2, 'bob')",
	}, "testdb")
}

func TestIntegration_MySQL(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mysql:8.4",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "test",
			"MYSQL_DATABASE":      "testdb",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").
			WithStartupTimeout(120 * time.Second),
	}, "3306/tcp")

	runScenario(t, Connection{
		ConnectionType: "mysql",
		Server:         host,
		Port:           Port(port),
		DatabaseName:   "testdb",
		Username:       "root",
		Password:       "test",
	}, []string{
		"CREATE TABLE users (id INT PRIMARY KEY, name VARCHAR(50))",
		"INSERT INTO users VALUES (1, 'ann'), (2, 'bob')",
	}, "testdb")
}
