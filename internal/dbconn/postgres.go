package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"querydeck/internal/schema"
)

const (
	postgresDefaultPort = 5432
	postgresSchema      = "public"
)

// postgresConfig builds driver parameters from a URL with escaped credentials.
func postgresConfig(c Connection) (*pgx.ConnConfig, error) {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   net.JoinHostPort(c.Server, strconv.Itoa(portOrDefault(c.Port, postgresDefaultPort))),
		Path:   "/" + c.DatabaseName,
	}
	q := url.Values{}
	q.Set("sslmode", "prefer")
	u.RawQuery = q.Encode()

	cfg, err := pgx.ParseConfig(u.String())
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	return cfg, nil
}

func openPostgres(c Connection) (*sql.DB, error) {
	cfg, err := postgresConfig(c)
	if err != nil {
		return nil, err
	}
	return stdlib.OpenDB(*cfg), nil
}

// postgresCatalog reads information_schema and pg_catalog for the public schema.
type postgresCatalog struct{}

func (postgresCatalog) prepare(context.Context, *Handle, string) error { return nil }

func (postgresCatalog) tables(ctx context.Context, h *Handle, _ string) ([]string, error) {
	return h.queryStrings(ctx, fmt.Sprintf(`SELECT table_name FROM information_schema.tables
		WHERE table_schema = %s AND table_type = 'BASE TABLE'
		ORDER BY table_name`, pgPlaceholder(1)), postgresSchema)
}

func (postgresCatalog) columns(ctx context.Context, h *Handle, _, table string) ([]schema.Column, error) {
	query := fmt.Sprintf(`SELECT column_name, data_type, udt_name, character_maximum_length, numeric_precision, numeric_scale
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position`, pgPlaceholder(1), pgPlaceholder(2))
	return queryColumns(ctx, h, query, true, postgresSchema, table)
}

func (postgresCatalog) views(ctx context.Context, h *Handle, _ string) ([]string, error) {
	return h.queryStrings(ctx,
		"SELECT table_name FROM information_schema.views WHERE table_schema = $1 ORDER BY table_name",
		postgresSchema)
}

func (postgresCatalog) procedures(ctx context.Context, h *Handle, _ string) ([]string, error) {
	return h.queryStrings(ctx,
		"SELECT routine_name FROM information_schema.routines WHERE specific_schema = $1 ORDER BY routine_name",
		postgresSchema)
}

func (postgresCatalog) triggers(ctx context.Context, h *Handle, _ string) ([]string, error) {
	return h.queryStrings(ctx,
		"SELECT DISTINCT trigger_name FROM information_schema.triggers WHERE trigger_schema = $1 ORDER BY trigger_name",
		postgresSchema)
}

func (postgresCatalog) events(context.Context, *Handle, string) ([]string, error) {
	return []string{}, nil
}

func (postgresCatalog) indexes(ctx context.Context, h *Handle, _ string) ([]schema.Index, error) {
	return queryIndexes(ctx, h, `SELECT DISTINCT i.relname AS index_name, t.relname AS table_name
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r' AND n.nspname = $1
		ORDER BY t.relname, i.relname`, postgresSchema)
}
