package sqlx

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// IsSelect reports whether the statement is paginated: its trimmed,
// lowercased text starts with "select".
func IsSelect(query string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(query)), "select")
}

// TrimStatement trims surrounding whitespace and removes at most one
// trailing semicolon.
func TrimStatement(query string) string {
	q := strings.TrimSpace(query)
	q = strings.TrimSuffix(q, ";")
	return strings.TrimRightFunc(q, unicode.IsSpace)
}

// CountQuery wraps a cleaned SELECT so that it yields its total row count.
func CountQuery(clean string) string {
	return fmt.Sprintf("SELECT COUNT(*) AS total FROM (%s) AS total_count", clean)
}

// LimitOffset appends a LIMIT/OFFSET clause (MySQL, PostgreSQL, SQLite).
func LimitOffset(clean string, limit, offset int64) string {
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", clean, limit, offset)
}

// OffsetFetch appends the SQL Server paging clause. SQL Server requires an
// ORDER BY for OFFSET/FETCH; ordering is by the id column.
func OffsetFetch(clean string, limit, offset int64) string {
	return fmt.Sprintf("%s ORDER BY id OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", clean, offset, limit)
}

// rowKeywords are leading keywords of non-SELECT statements that produce a
// result set.
var rowKeywords = map[string]bool{
	"with":     true,
	"show":     true,
	"pragma":   true,
	"exec":     true,
	"execute":  true,
	"call":     true,
	"describe": true,
	"desc":     true,
	"explain":  true,
	"values":   true,
	"select":   true,
}

// dmlKeywords lead statements that return rows only with a RETURNING
// (PostgreSQL, SQLite, MariaDB) or OUTPUT (SQL Server) clause.
var dmlKeywords = map[string]bool{
	"insert":  true,
	"update":  true,
	"delete":  true,
	"merge":   true,
	"replace": true,
}

var returningClause = regexp.MustCompile(`(?i)\b(returning|output)\b`)

// ReturnsRows reports whether the statement produces rows: its leading
// keyword does, or it is DML carrying a RETURNING or OUTPUT clause.
func ReturnsRows(query string) bool {
	kw := LeadingKeyword(query)
	if rowKeywords[kw] {
		return true
	}
	return dmlKeywords[kw] && returningClause.MatchString(skipComments(query))
}

// LeadingKeyword returns the first word of the statement, lowercased, with
// leading parentheses and comments skipped.
func LeadingKeyword(query string) string {
	q := skipComments(query)
	q = strings.TrimLeft(q, "( \t\r\n")
	end := strings.IndexFunc(q, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	if end < 0 {
		end = len(q)
	}
	return strings.ToLower(q[:end])
}

func skipComments(q string) string {
	for {
		q = strings.TrimSpace(q)
		switch {
		case strings.HasPrefix(q, "--"):
			i := strings.IndexByte(q, '\n')
			if i < 0 {
				return ""
			}
			q = q[i+1:]
		case strings.HasPrefix(q, "/*"):
			i := strings.Index(q, "*/")
			if i < 0 {
				return ""
			}
			q = q[i+2:]
		default:
			return q
		}
	}
}
