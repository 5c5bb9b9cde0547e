package sqlx

import (
	"fmt"
	"strings"

	"querydeck/internal/schema"
)

// pgType maps a column to a PostgreSQL type. Known families are renamed to
// their PostgreSQL spelling; length and precision are carried over from the
// catalog.
func pgType(c schema.Column) string {
	t := strings.ToUpper(strings.TrimSpace(c.Type))
	switch t {
	case "INT", "INTEGER", "INT4", "MEDIUMINT":
		return "INTEGER"
	case "BIGINT", "INT8":
		return "BIGINT"
	case "SMALLINT", "INT2", "TINYINT":
		return "SMALLINT"
	case "VARCHAR", "NVARCHAR", "CHARACTER VARYING":
		if c.Length != nil && *c.Length > 0 {
			return fmt.Sprintf("VARCHAR(%d)", *c.Length)
		}
		return "TEXT"
	case "STRING", "TEXT", "NTEXT", "LONGTEXT", "MEDIUMTEXT", "TINYTEXT":
		return "TEXT"
	case "NUMERIC", "DECIMAL":
		if c.Precision != nil && c.Scale != nil {
			return fmt.Sprintf("NUMERIC(%d,%d)", *c.Precision, *c.Scale)
		}
		return "NUMERIC"
	case "FLOAT", "REAL", "FLOAT4":
		return "REAL"
	case "DOUBLE", "FLOAT8", "DOUBLE PRECISION":
		return "DOUBLE PRECISION"
	case "BOOL", "BOOLEAN", "BIT":
		return "BOOLEAN"
	case "DATE":
		return "DATE"
	case "TIMESTAMP", "DATETIME", "DATETIME2":
		return "TIMESTAMP"
	case "UUID", "UNIQUEIDENTIFIER":
		return "UUID"
	case "BLOB", "BYTEA", "VARBINARY", "BINARY", "LONGBLOB":
		return "BYTEA"
	case "":
		return "TEXT"
	}
	return t
}
