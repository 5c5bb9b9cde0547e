package dbconn

import (
	"database/sql"
	"fmt"
	"strconv"
	"unicode/utf8"

	"querydeck/internal/sqlx"
)

// RowStream is the read side of a driver result set. *sql.Rows satisfies it.
type RowStream interface {
	Columns() ([]string, error)
	ColumnTypes() ([]*sql.ColumnType, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Normalize turns a driver result into ordered rows. The accepted shapes
// are []Row (returned as is), a RowStream (first result set only, consumed
// and closed) and sql.Result (no rows). Any other shape fails with
// ErrUnrecognizedResult.
func Normalize(result any) ([]Row, error) {
	switch r := result.(type) {
	case []Row:
		if r == nil {
			return []Row{}, nil
		}
		return r, nil
	case RowStream:
		return readRows(r)
	case sql.Result:
		return []Row{}, nil
	default:
		return nil, &Error{
			Kind: ErrUnrecognizedResult,
			Err:  fmt.Errorf("unrecognized result shape %T", result),
		}
	}
}

func readRows(rs RowStream) ([]Row, error) {
	defer rs.Close()

	cols, err := rs.Columns()
	if err != nil {
		return nil, err
	}

	// Column types are only needed to decode raw bytes, so they are read
	// lazily on the first []byte cell.
	var dbTypes []string
	typesFor := func(i int) string {
		if dbTypes == nil {
			dbTypes = make([]string, len(cols))
			if cts, err := rs.ColumnTypes(); err == nil {
				for j, ct := range cts {
					if j < len(dbTypes) {
						dbTypes[j] = ct.DatabaseTypeName()
					}
				}
			}
		}
		return dbTypes[i]
	}

	out := []Row{}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rs.Next() {
		for i := range vals {
			vals[i] = nil
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := NewRow(len(cols))
		for i, c := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = decodeBytes(b, typesFor(i))
			}
			row.Set(c, v)
		}
		out = append(out, row)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeBytes converts a raw cell according to its column database type:
// integers and floats become numbers, valid UTF-8 becomes a string and
// anything else stays as bytes.
func decodeBytes(b []byte, dbType string) any {
	s := string(b)
	switch sqlx.Family(dbType) {
	case sqlx.FamilyInteger:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return n
		}
	case sqlx.FamilyFloat:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	if utf8.Valid(b) {
		return s
	}
	return b
}
