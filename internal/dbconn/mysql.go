package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"querydeck/internal/schema"
)

const mysqlDefaultPort = 3306

// mysqlConfig builds driver parameters for MySQL and MariaDB.
func mysqlConfig(c Connection) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Server, strconv.Itoa(portOrDefault(c.Port, mysqlDefaultPort)))
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.DBName = c.DatabaseName
	cfg.ParseTime = true
	return cfg
}

func openMySQL(c Connection) (*sql.DB, error) {
	connector, err := mysql.NewConnector(mysqlConfig(c))
	if err != nil {
		return nil, fmt.Errorf("mysql connect: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// mysqlCatalog reads SHOW FULL TABLES and information_schema.
type mysqlCatalog struct{}

func (mysqlCatalog) prepare(context.Context, *Handle, string) error { return nil }

func (mysqlCatalog) tables(ctx context.Context, h *Handle, _ string) ([]string, error) {
	return h.queryStrings(ctx, "SHOW FULL TABLES WHERE Table_type = 'BASE TABLE'")
}

func (mysqlCatalog) views(ctx context.Context, h *Handle, _ string) ([]string, error) {
	return h.queryStrings(ctx, "SHOW FULL TABLES WHERE Table_type = 'VIEW'")
}

func (mysqlCatalog) columns(ctx context.Context, h *Handle, database, table string) ([]schema.Column, error) {
	query := fmt.Sprintf(`SELECT COLUMN_NAME, DATA_TYPE, COLUMN_TYPE, CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION, NUMERIC_SCALE
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = %s AND TABLE_NAME = %s
		ORDER BY ORDINAL_POSITION`, mysqlPlaceholder(1), mysqlPlaceholder(2))
	return queryColumns(ctx, h, query, true, database, table)
}

func (mysqlCatalog) procedures(ctx context.Context, h *Handle, database string) ([]string, error) {
	return h.queryStrings(ctx,
		"SELECT ROUTINE_NAME FROM information_schema.ROUTINES WHERE ROUTINE_SCHEMA = ? ORDER BY ROUTINE_NAME",
		database)
}

func (mysqlCatalog) triggers(ctx context.Context, h *Handle, database string) ([]string, error) {
	return h.queryStrings(ctx,
		"SELECT TRIGGER_NAME FROM information_schema.TRIGGERS WHERE TRIGGER_SCHEMA = ? ORDER BY TRIGGER_NAME",
		database)
}

func (mysqlCatalog) events(ctx context.Context, h *Handle, database string) ([]string, error) {
	return h.queryStrings(ctx,
		"SELECT EVENT_NAME FROM information_schema.EVENTS WHERE EVENT_SCHEMA = ? ORDER BY EVENT_NAME",
		database)
}

func (mysqlCatalog) indexes(ctx context.Context, h *Handle, database string) ([]schema.Index, error) {
	return queryIndexes(ctx, h,
		"SELECT DISTINCT INDEX_NAME, TABLE_NAME FROM information_schema.STATISTICS WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME, INDEX_NAME",
		database)
}
