package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"

	mssql "github.com/microsoft/go-mssqldb"

	"querydeck/internal/schema"
)

const mssqlDefaultPort = 1433

// mssqlDSN builds a sqlserver:// URL. The server certificate is trusted and
// the database is selected for every pooled session.
func mssqlDSN(c Connection) string {
	q := url.Values{}
	if c.DatabaseName != "" {
		q.Set("database", c.DatabaseName)
	}
	q.Set("TrustServerCertificate", "true")
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Server, strconv.Itoa(portOrDefault(c.Port, mssqlDefaultPort))),
		RawQuery: q.Encode(),
	}
	return u.String()
}

func openMSSQL(c Connection) (*sql.DB, error) {
	connector, err := mssql.NewConnector(mssqlDSN(c))
	if err != nil {
		return nil, fmt.Errorf("mssql connect: %w", err)
	}
	connector.SessionInitSQL = "SET ARITHABORT ON"
	return sql.OpenDB(connector), nil
}

// mssqlCatalog reads INFORMATION_SCHEMA and sys views of the selected database.
type mssqlCatalog struct{}

// prepare switches to the target database before any catalog query.
func (mssqlCatalog) prepare(ctx context.Context, h *Handle, database string) error {
	_, err := h.exec(ctx, "USE "+quoteBracket(database))
	return err
}

func (mssqlCatalog) tables(ctx context.Context, h *Handle, _ string) ([]string, error) {
	return h.queryStrings(ctx,
		"SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME")
}

func (mssqlCatalog) columns(ctx context.Context, h *Handle, _, table string) ([]schema.Column, error) {
	query := fmt.Sprintf(`SELECT COLUMN_NAME, DATA_TYPE, CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION, NUMERIC_SCALE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_NAME = %s
		ORDER BY ORDINAL_POSITION`, mssqlPlaceholder(1))
	return queryColumns(ctx, h, query, false, table)
}

func (mssqlCatalog) views(ctx context.Context, h *Handle, _ string) ([]string, error) {
	return h.queryStrings(ctx, "SELECT TABLE_NAME FROM INFORMATION_SCHEMA.VIEWS ORDER BY TABLE_NAME")
}

func (mssqlCatalog) procedures(ctx context.Context, h *Handle, _ string) ([]string, error) {
	return h.queryStrings(ctx,
		"SELECT ROUTINE_NAME FROM INFORMATION_SCHEMA.ROUTINES WHERE ROUTINE_TYPE = 'PROCEDURE' ORDER BY ROUTINE_NAME")
}

func (mssqlCatalog) triggers(ctx context.Context, h *Handle, _ string) ([]string, error) {
	return h.queryStrings(ctx,
		"SELECT name FROM sys.triggers WHERE parent_class_desc = 'OBJECT_OR_COLUMN' ORDER BY name")
}

func (mssqlCatalog) events(context.Context, *Handle, string) ([]string, error) {
	return []string{}, nil
}

func (mssqlCatalog) indexes(ctx context.Context, h *Handle, _ string) ([]schema.Index, error) {
	return queryIndexes(ctx, h, `SELECT ind.name, obj.name
		FROM sys.indexes ind
		INNER JOIN sys.objects obj ON ind.object_id = obj.object_id
		WHERE obj.type = 'U' AND ind.is_primary_key = 0 AND ind.is_unique = 0 AND ind.name IS NOT NULL
		ORDER BY obj.name, ind.name`)
}
