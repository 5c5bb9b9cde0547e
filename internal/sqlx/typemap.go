package sqlx

import (
	"regexp"
	"strconv"
	"strings"
)

// Type families reported by Family.
const (
	FamilyString   = "string"
	FamilyInteger  = "integer"
	FamilyFloat    = "float"
	FamilyNumeric  = "numeric"
	FamilyBoolean  = "boolean"
	FamilyTemporal = "temporal"
	FamilyBytes    = "bytes"
	FamilyOther    = "other"
)

// Family classifies a driver-reported database type name (e.g. "BIGINT",
// "varchar(255)", "DOUBLE PRECISION", "UNSIGNED INT") into a coarse family
// used when decoding raw cell bytes.
func Family(dbType string) string {
	raw := strings.TrimSpace(dbType)
	if raw == "" {
		return FamilyOther
	}

	base := strings.ToUpper(raw)
	if i := strings.Index(base, "("); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	base = strings.Join(strings.Fields(base), " ")
	base = strings.TrimPrefix(base, "UNSIGNED ")

	switch base {
	case "VARCHAR", "CHAR", "CHARACTER", "TEXT", "NVARCHAR", "NCHAR", "BPCHAR",
		"CHARACTER VARYING", "NTEXT", "LONGTEXT", "MEDIUMTEXT", "TINYTEXT",
		"ENUM", "SET", "CIDR", "INET", "MACADDR", "XML", "JSON", "JSONB",
		"UUID", "UNIQUEIDENTIFIER", "INTERVAL", "NAME":
		return FamilyString

	case "INT", "INTEGER", "INT2", "INT4", "INT8", "SMALLINT", "BIGINT",
		"TINYINT", "MEDIUMINT", "SERIAL", "SMALLSERIAL", "BIGSERIAL",
		"OID", "YEAR":
		return FamilyInteger

	case "FLOAT", "REAL", "DOUBLE", "DOUBLE PRECISION", "FLOAT4", "FLOAT8":
		return FamilyFloat

	case "NUMERIC", "DECIMAL", "MONEY", "SMALLMONEY":
		return FamilyNumeric

	case "BOOL", "BOOLEAN", "BIT":
		return FamilyBoolean

	case "DATE", "TIME", "TIMETZ", "TIMESTAMP", "TIMESTAMPTZ", "DATETIME",
		"DATETIME2", "SMALLDATETIME", "DATETIMEOFFSET":
		return FamilyTemporal

	case "BYTEA", "BINARY", "VARBINARY", "BLOB", "LONGBLOB", "MEDIUMBLOB",
		"TINYBLOB", "IMAGE", "GEOMETRY":
		return FamilyBytes

	default:
		switch {
		case strings.Contains(base, "INT"):
			return FamilyInteger
		case strings.Contains(base, "CHAR"), strings.Contains(base, "TEXT"), strings.Contains(base, "CLOB"):
			return FamilyString
		case strings.Contains(base, "FLOA"), strings.Contains(base, "DOUB"), strings.Contains(base, "REAL"):
			return FamilyFloat
		case strings.Contains(base, "BLOB"):
			return FamilyBytes
		}
		return FamilyOther
	}
}

var declaredTypePattern = regexp.MustCompile(`(\w+)\s*(?:\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\))?`)

// ParseDeclared splits a declared column type such as "VARCHAR(255)" or
// "DECIMAL(10,2)" into its base name and dimensions. A single parameter is
// reported as both length and precision; a second one is the scale. The base
// keeps the declared case. When nothing matches, base is raw unchanged.
func ParseDeclared(raw string) (base string, length, precision, scale *int) {
	m := declaredTypePattern.FindStringSubmatch(raw)
	if m == nil {
		return raw, nil, nil, nil
	}
	base = m[1]
	if first := parseInt(m[2]); first != nil {
		length = first
		p := *first
		precision = &p
	}
	scale = parseInt(m[3])
	return base, length, precision, scale
}

func parseInt(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}
