package sqlx

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"querydeck/internal/schema"
)

// Exporter generates CREATE TABLE statements for an introspected model.
type Exporter interface {
	Dialect() string
	Export(m *schema.Model) (string, error)
}

var registry = map[string]Exporter{
	"mysql":      &ddlExporter{dialect: "mysql", quote: quoteBacktick, columnType: declaredType},
	"mariadb":    &ddlExporter{dialect: "mariadb", quote: quoteBacktick, columnType: declaredType},
	"postgresql": &ddlExporter{dialect: "postgresql", quote: quoteIdent, columnType: pgType},
	"sqlserver":  &ddlExporter{dialect: "sqlserver", quote: quoteBracket, columnType: declaredType},
	"sqlite":     &ddlExporter{dialect: "sqlite", quote: quoteIdent, columnType: declaredType},
}

// Export returns DDL for the given dialect, or an error if unknown.
func Export(dialect string, m *schema.Model) (string, error) {
	e, ok := registry[strings.ToLower(dialect)]
	if !ok {
		return "", fmt.Errorf("unknown dialect: %s", dialect)
	}
	return e.Export(m)
}

// Dialects returns the registered dialect names in sorted order.
func Dialects() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ddlExporter writes one CREATE TABLE per table, columns in catalog order.
// Views, routines and indexes carry no definition in the model and are
// listed as comments.
type ddlExporter struct {
	dialect    string
	quote      func(string) string
	columnType func(schema.Column) string
}

func (e *ddlExporter) Dialect() string { return e.dialect }

func (e *ddlExporter) Export(m *schema.Model) (string, error) {
	if m == nil {
		return "", fmt.Errorf("no model to export")
	}
	var b bytes.Buffer
	for _, t := range m.Tables {
		b.WriteString("CREATE TABLE ")
		b.WriteString(e.quote(t.Name))
		b.WriteString(" (\n")
		for i, c := range t.Columns {
			if i > 0 {
				b.WriteString(",\n")
			}
			b.WriteString("  ")
			b.WriteString(e.quote(c.Name))
			if typ := e.columnType(c); typ != "" {
				b.WriteString(" ")
				b.WriteString(typ)
			}
		}
		b.WriteString("\n);\n\n")
	}
	for _, v := range m.Views {
		fmt.Fprintf(&b, "-- view %s\n", e.quote(v.Name))
	}
	for _, idx := range m.Indexes {
		fmt.Fprintf(&b, "-- index %s on %s\n", e.quote(idx.Name), e.quote(idx.TableName))
	}
	return b.String(), nil
}

// declaredType prefers the full declared type, which keeps length and
// precision. Catalogs that only report the base type get the dimensions
// rebuilt: a character length (-1 is MAX), or precision and scale for exact
// numerics.
func declaredType(c schema.Column) string {
	if c.FullType != "" {
		return c.FullType
	}
	switch {
	case c.Type == "":
		return ""
	case c.Length != nil && *c.Length == -1:
		return c.Type + "(max)"
	case c.Length != nil && *c.Length > 0:
		return fmt.Sprintf("%s(%d)", c.Type, *c.Length)
	case c.Precision != nil && exactNumeric(c.Type):
		if c.Scale != nil {
			return fmt.Sprintf("%s(%d,%d)", c.Type, *c.Precision, *c.Scale)
		}
		return fmt.Sprintf("%s(%d)", c.Type, *c.Precision)
	}
	return c.Type
}

func exactNumeric(t string) bool {
	switch strings.ToLower(t) {
	case "decimal", "numeric", "dec":
		return true
	}
	return false
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteBacktick(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

func quoteBracket(s string) string {
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}
