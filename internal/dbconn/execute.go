package dbconn

import (
	"context"
	"math"
	"strings"

	"querydeck/internal/sqlx"
)

// DefaultPageSize is used when a request leaves the page size unset.
const DefaultPageSize = 50

// Request is one raw statement to execute. Page is 0-based.
type Request struct {
	Query    string
	Page     int64
	PageSize int64
}

// QueryResult is the normalized outcome of Execute. Columns is empty exactly
// when Rows is empty. Total is only meaningful when Paginated is true.
type QueryResult struct {
	Rows         []Row    `json:"result"`
	Columns      []string `json:"columns"`
	Total        int64    `json:"total"`
	Page         int64    `json:"page"`
	PageSize     int64    `json:"pageSize"`
	Paginated    bool     `json:"paginated"`
	RowsAffected *int64   `json:"rowsAffected,omitempty"`
}

// Validate checks paging parameters before any SQL is generated.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ValidationError("query is required")
	}
	if r.Page < 0 {
		return ValidationError("page must not be negative")
	}
	if r.PageSize <= 0 {
		return ValidationError("pageSize must be positive")
	}
	if r.Page > math.MaxInt64/r.PageSize {
		return ValidationError("page offset out of range")
	}
	return nil
}

// Execute runs req through h. Statements starting with SELECT are paginated:
// a count query runs first and, only if it succeeds, the paged data query.
// Anything else runs verbatim without pagination. Failures are ErrQuery
// carrying the driver message.
func Execute(ctx context.Context, h *Handle, req Request) (*QueryResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if sqlx.IsSelect(req.Query) {
		return executePaged(ctx, h, req)
	}
	return executeDirect(ctx, h, req)
}

func executePaged(ctx context.Context, h *Handle, req Request) (*QueryResult, error) {
	clean := sqlx.TrimStatement(req.Query)
	offset := req.Page * req.PageSize

	total, err := h.queryInt64(ctx, sqlx.CountQuery(clean))
	if err != nil {
		return nil, wrap(ErrQuery, err)
	}

	rows, err := h.queryRows(ctx, h.dialect.Paginate(clean, req.PageSize, offset))
	if err != nil {
		return nil, wrap(ErrQuery, err)
	}

	return &QueryResult{
		Rows:      rows,
		Columns:   columnsOf(rows),
		Total:     total,
		Page:      req.Page,
		PageSize:  req.PageSize,
		Paginated: true,
	}, nil
}

func executeDirect(ctx context.Context, h *Handle, req Request) (*QueryResult, error) {
	res := &QueryResult{Page: req.Page, PageSize: req.PageSize}

	if sqlx.ReturnsRows(req.Query) {
		rows, err := h.queryRows(ctx, req.Query)
		if err != nil {
			return nil, wrap(ErrQuery, err)
		}
		res.Rows = rows
		res.Columns = columnsOf(rows)
		return res, nil
	}

	result, err := h.exec(ctx, req.Query)
	if err != nil {
		return nil, wrap(ErrQuery, err)
	}
	rows, err := Normalize(result)
	if err != nil {
		return nil, wrap(ErrQuery, err)
	}
	res.Rows = rows
	res.Columns = columnsOf(rows)
	if n, err := result.RowsAffected(); err == nil {
		res.RowsAffected = &n
	}
	return res, nil
}
