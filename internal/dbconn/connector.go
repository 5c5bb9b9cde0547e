// Package dbconn connects to MySQL/MariaDB, PostgreSQL, SQL Server and SQLite
// targets, introspects their catalogs into a schema.Model and executes raw
// statements with uniform pagination.
package dbconn

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"querydeck/internal/schema"
	"querydeck/internal/sqlx"
)

// DialectID identifies an engine family in the strategy table.
type DialectID string

const (
	MySQL     DialectID = "mysql"
	Postgres  DialectID = "postgresql"
	SQLServer DialectID = "sqlserver"
	SQLite    DialectID = "sqlite"
)

// Connection describes one target database as sent by the client or stored
// as a saved profile. Password is either plaintext or an ENC: value.
type Connection struct {
	ID             int64  `json:"id,omitempty"`
	ConnectionName string `json:"connection_name,omitempty"`
	ConnectionType string `json:"connection_type"`
	Server         string `json:"server,omitempty"`
	Port           Port   `json:"port,omitempty"`
	DatabaseName   string `json:"database_name,omitempty"`
	Username       string `json:"username,omitempty"`
	Password       string `json:"password,omitempty"`
	FilePath       string `json:"file_path,omitempty"`
}

// UnmarshalJSON accepts "host" as an alias for "server".
func (c *Connection) UnmarshalJSON(b []byte) error {
	type plain Connection
	var aux struct {
		plain
		Host string `json:"host"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*c = Connection(aux.plain)
	if c.Server == "" {
		c.Server = aux.Host
	}
	return nil
}

// Port is a TCP port that decodes from a JSON number or a numeric string.
type Port int

func (p *Port) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*p = 0
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" {
		*p = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid port %s", b)
	}
	*p = Port(n)
	return nil
}

// catalog reads one engine's catalog. Every method runs through the handle
// of the current operation.
type catalog interface {
	prepare(ctx context.Context, h *Handle, database string) error
	tables(ctx context.Context, h *Handle, database string) ([]string, error)
	columns(ctx context.Context, h *Handle, database, table string) ([]schema.Column, error)
	views(ctx context.Context, h *Handle, database string) ([]string, error)
	procedures(ctx context.Context, h *Handle, database string) ([]string, error)
	triggers(ctx context.Context, h *Handle, database string) ([]string, error)
	events(ctx context.Context, h *Handle, database string) ([]string, error)
	indexes(ctx context.Context, h *Handle, database string) ([]schema.Index, error)
}

// Dialect is one entry of the strategy table. The resolver returns shared
// pointers; entries are never mutated.
type Dialect struct {
	ID          DialectID
	DriverName  string
	DefaultPort int

	// open builds an unconnected pool from connection parameters.
	open func(c Connection) (*sql.DB, error)
	// paginate appends the engine's paging clause to a cleaned SELECT.
	paginate       func(clean string, limit, offset int64) string
	catalog        catalog
	databasesQuery string
}

// Paginate appends the engine's paging clause to a cleaned SELECT.
func (d *Dialect) Paginate(clean string, limit, offset int64) string {
	return d.paginate(clean, limit, offset)
}

// DatabasesQuery returns the statement listing databases on the server.
func (d *Dialect) DatabasesQuery() string { return d.databasesQuery }

var (
	mysqlDialect = &Dialect{
		ID:             MySQL,
		DriverName:     "mysql",
		DefaultPort:    3306,
		open:           openMySQL,
		paginate:       sqlx.LimitOffset,
		catalog:        mysqlCatalog{},
		databasesQuery: "SHOW DATABASES",
	}
	postgresDialect = &Dialect{
		ID:             Postgres,
		DriverName:     "pgx",
		DefaultPort:    5432,
		open:           openPostgres,
		paginate:       sqlx.LimitOffset,
		catalog:        postgresCatalog{},
		databasesQuery: "SELECT datname FROM pg_database WHERE datistemplate = false",
	}
	mssqlDialect = &Dialect{
		ID:             SQLServer,
		DriverName:     "sqlserver",
		DefaultPort:    1433,
		open:           openMSSQL,
		paginate:       sqlx.OffsetFetch,
		catalog:        mssqlCatalog{},
		databasesQuery: "SELECT name FROM sys.databases",
	}
	sqliteDialect = &Dialect{
		ID:             SQLite,
		DriverName:     "sqlite",
		open:           openSQLite,
		paginate:       sqlx.LimitOffset,
		catalog:        sqliteCatalog{},
		databasesQuery: "SELECT name FROM pragma_database_list ORDER BY seq",
	}
)

// dialects maps accepted connection_type values to their strategy.
var dialects = map[string]*Dialect{
	"mysql":      mysqlDialect,
	"mariadb":    mysqlDialect,
	"postgresql": postgresDialect,
	"sqlserver":  mssqlDialect,
	"sqlite":     sqliteDialect,
}

// Resolve maps a connection_type string to its dialect. Matching is exact
// and case-sensitive; anything else fails with ErrUnsupportedDialect.
func Resolve(connectionType string) (*Dialect, error) {
	d, ok := dialects[connectionType]
	if !ok {
		return nil, &Error{
			Kind: ErrUnsupportedDialect,
			Err:  fmt.Errorf("unsupported connection type: %s", connectionType),
		}
	}
	return d, nil
}

// ConnectionTypes lists the accepted connection_type values.
func ConnectionTypes() []string {
	return []string{"mysql", "mariadb", "postgresql", "sqlserver", "sqlite"}
}

// portOrDefault returns the connection's port, or def when unset.
func portOrDefault(p Port, def int) int {
	if p == 0 {
		return def
	}
	return int(p)
}
