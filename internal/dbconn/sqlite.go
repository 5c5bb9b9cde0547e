package dbconn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	_ "modernc.org/sqlite"

	"querydeck/internal/schema"
	"querydeck/internal/sqlx"
)

// openSQLite opens an existing database file. Only FilePath is used; a
// missing file is an error rather than an implicitly created database.
func openSQLite(c Connection) (*sql.DB, error) {
	if c.FilePath == "" {
		return nil, errors.New("sqlite file path is required")
	}
	info, err := os.Stat(c.FilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("sqlite database file not found: %s", c.FilePath)
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("sqlite database path is a directory: %s", c.FilePath)
	}
	return sql.Open("sqlite", c.FilePath)
}

// sqliteCatalog reads sqlite_master and PRAGMA table_info.
type sqliteCatalog struct{}

func (sqliteCatalog) prepare(context.Context, *Handle, string) error { return nil }

func (sqliteCatalog) tables(ctx context.Context, h *Handle, _ string) ([]string, error) {
	return h.queryStrings(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
}

// columns parses each declared type into base name and dimensions; the raw
// declaration is kept as fullType.
func (sqliteCatalog) columns(ctx context.Context, h *Handle, _, table string) ([]schema.Column, error) {
	rows, err := h.queryRows(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteDouble(table)))
	if err != nil {
		return nil, err
	}
	cols := make([]schema.Column, 0, len(rows))
	for _, r := range rows {
		name, _ := r.Get("name")
		declared, _ := r.Get("type")
		raw := fmt.Sprint(nonNil(declared))
		base, length, precision, scale := sqlx.ParseDeclared(raw)
		cols = append(cols, schema.Column{
			Name:      fmt.Sprint(nonNil(name)),
			Type:      base,
			FullType:  raw,
			Length:    length,
			Precision: precision,
			Scale:     scale,
		})
	}
	return cols, nil
}

func (sqliteCatalog) views(ctx context.Context, h *Handle, _ string) ([]string, error) {
	return h.queryStrings(ctx, "SELECT name FROM sqlite_master WHERE type = 'view' ORDER BY name")
}

func (sqliteCatalog) procedures(context.Context, *Handle, string) ([]string, error) {
	return []string{}, nil
}

func (sqliteCatalog) triggers(context.Context, *Handle, string) ([]string, error) {
	return []string{}, nil
}

func (sqliteCatalog) events(context.Context, *Handle, string) ([]string, error) {
	return []string{}, nil
}

func (sqliteCatalog) indexes(ctx context.Context, h *Handle, _ string) ([]schema.Index, error) {
	return queryIndexes(ctx, h,
		"SELECT name, tbl_name FROM sqlite_master WHERE type = 'index' ORDER BY tbl_name, name")
}

func nonNil(v any) any {
	if v == nil {
		return ""
	}
	return v
}
