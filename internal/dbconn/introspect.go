package dbconn

import (
	"context"
	"database/sql"
	"time"

	"golang.org/x/sync/errgroup"

	"querydeck/internal/schema"
)

// Introspect reads the catalog of database through h and returns it as one
// model. Column queries run concurrently, bounded by the handle's connection
// limit, and tables keep catalog order. Any failure aborts the whole call with
// ErrIntrospection; no partial model is returned.
func Introspect(ctx context.Context, h *Handle, database string) (*schema.Model, error) {
	if h == nil || h.dialect == nil {
		return nil, ValidationError("introspection requires an open handle")
	}
	if database == "" {
		database = h.database
	}
	start := time.Now()
	m, err := introspect(ctx, h, database)
	if err != nil {
		h.logger.Warn("introspection failed", "dialect", h.dialect.ID, "database", database, "error", err)
		return nil, wrap(ErrIntrospection, err)
	}
	h.logger.Debug("introspection complete",
		"dialect", h.dialect.ID,
		"database", database,
		"tables", len(m.Tables),
		"duration", time.Since(start))
	return m, nil
}

func introspect(ctx context.Context, h *Handle, database string) (*schema.Model, error) {
	cat := h.dialect.catalog
	if err := cat.prepare(ctx, h, database); err != nil {
		return nil, err
	}

	names, err := cat.tables(ctx, h, database)
	if err != nil {
		return nil, err
	}

	tables := make([]schema.Table, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.maxConns)
	for i, name := range names {
		g.Go(func() error {
			cols, err := cat.columns(gctx, h, database, name)
			if err != nil {
				return err
			}
			tables[i] = schema.Table{Name: name, Columns: cols}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := schema.New()
	m.Tables = tables

	views, err := cat.views(ctx, h, database)
	if err != nil {
		return nil, err
	}
	m.Views = schema.Objects(views)

	procs, err := cat.procedures(ctx, h, database)
	if err != nil {
		return nil, err
	}
	m.Procedures = schema.Objects(procs)

	triggers, err := cat.triggers(ctx, h, database)
	if err != nil {
		return nil, err
	}
	m.Triggers = schema.Objects(triggers)

	events, err := cat.events(ctx, h, database)
	if err != nil {
		return nil, err
	}
	m.Events = schema.Objects(events)

	indexes, err := cat.indexes(ctx, h, database)
	if err != nil {
		return nil, err
	}
	m.Indexes = indexes

	return m, nil
}

// queryColumns scans column metadata rows of the form
// (name, type, [fullType,] length, precision, scale).
func queryColumns(ctx context.Context, h *Handle, query string, withFullType bool, args ...any) (cols []schema.Column, err error) {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	defer func() { h.logQuery(query, start, err) }()

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols = []schema.Column{}
	for rows.Next() {
		var (
			c                        schema.Column
			fullType                 sql.NullString
			length, precision, scale sql.NullInt64
		)
		dest := []any{&c.Name, &c.Type}
		if withFullType {
			dest = append(dest, &fullType)
		}
		dest = append(dest, &length, &precision, &scale)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		c.FullType = fullType.String
		c.Length = intOrNil(length)
		c.Precision = intOrNil(precision)
		c.Scale = intOrNil(scale)
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// queryIndexes scans (index name, table name) rows.
func queryIndexes(ctx context.Context, h *Handle, query string, args ...any) (out []schema.Index, err error) {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	defer func() { h.logQuery(query, start, err) }()

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out = []schema.Index{}
	for rows.Next() {
		var ix schema.Index
		if err := rows.Scan(&ix.Name, &ix.TableName); err != nil {
			return nil, err
		}
		out = append(out, ix)
	}
	return out, rows.Err()
}

func intOrNil(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

// ListDatabases returns the database names visible to the handle's login.
func ListDatabases(ctx context.Context, h *Handle) ([]string, error) {
	names, err := h.queryStrings(ctx, h.dialect.databasesQuery)
	if err != nil {
		return nil, wrap(ErrQuery, err)
	}
	return names, nil
}
