package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// withTimeout derives the per-query context. The deadline covers reading
// the result set, so callers must drain rows before cancel runs.
func (h *Handle) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.queryTimeout)
}

func (h *Handle) logQuery(query string, start time.Time, err error) {
	if err != nil {
		h.logger.Debug("query failed", "sql", query, "duration", time.Since(start), "error", err)
		return
	}
	h.logger.Debug("query", "sql", query, "duration", time.Since(start))
}

// queryRows runs a row-returning statement and normalizes its first result set.
func (h *Handle) queryRows(ctx context.Context, query string, args ...any) (rows []Row, err error) {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	defer func() { h.logQuery(query, start, err) }()

	rs, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return Normalize(rs)
}

// queryStrings returns the first column of every row. NULLs become "".
func (h *Handle) queryStrings(ctx context.Context, query string, args ...any) (out []string, err error) {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	defer func() { h.logQuery(query, start, err) }()

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("query returned no columns: %s", query)
	}
	dest := make([]any, len(cols))
	for i := range dest {
		dest[i] = new(sql.NullString)
	}

	out = []string{}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, dest[0].(*sql.NullString).String)
	}
	return out, rows.Err()
}

// queryInt64 scans a single integer value.
func (h *Handle) queryInt64(ctx context.Context, query string, args ...any) (n int64, err error) {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	defer func() { h.logQuery(query, start, err) }()

	err = h.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// exec runs a statement that returns no rows.
func (h *Handle) exec(ctx context.Context, query string, args ...any) (res sql.Result, err error) {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	defer func() { h.logQuery(query, start, err) }()

	return h.db.ExecContext(ctx, query, args...)
}

// mysqlPlaceholder returns ? style placeholders.
func mysqlPlaceholder(_ int) string {
	return "?"
}

// pgPlaceholder returns $N style placeholders.
func pgPlaceholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// mssqlPlaceholder returns @pN style placeholders.
func mssqlPlaceholder(n int) string {
	return fmt.Sprintf("@p%d", n)
}

// quoteBracket quotes a SQL Server identifier.
func quoteBracket(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// quoteDouble quotes an identifier with double quotes (SQLite, PostgreSQL).
func quoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
