package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"querydeck/internal/dbconn"
	"querydeck/internal/schema"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderResult(w io.Writer, res *dbconn.QueryResult, format string) error {
	if format == "json" {
		return renderJSON(w, res)
	}
	if format != "table" {
		return fmt.Errorf("unknown format %q", format)
	}

	if len(res.Rows) > 0 {
		t := newTable(w)
		header := make(table.Row, len(res.Columns))
		for i, col := range res.Columns {
			header[i] = col
		}
		t.AppendHeader(header)
		for _, r := range res.Rows {
			row := make(table.Row, 0, r.Len())
			for _, v := range r.Values() {
				row = append(row, formatValue(v))
			}
			t.AppendRow(row)
		}
		t.Render()
	}

	switch {
	case res.Paginated:
		_, _ = fmt.Fprintf(w, "(%d of %d rows, page %d)\n", len(res.Rows), res.Total, res.Page)
	case res.RowsAffected != nil:
		_, _ = fmt.Fprintf(w, "(%d rows affected)\n", *res.RowsAffected)
	default:
		_, _ = fmt.Fprintf(w, "(%d rows)\n", len(res.Rows))
	}
	return nil
}

func renderModel(w io.Writer, m *schema.Model, format string) error {
	if format == "json" {
		return renderJSON(w, m)
	}
	if format != "table" {
		return fmt.Errorf("unknown format %q", format)
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Kind", "Name", "Detail"})
	for _, tbl := range m.Tables {
		t.AppendRow(table.Row{"table", tbl.Name, fmt.Sprintf("%d columns", len(tbl.Columns))})
	}
	for _, group := range []struct {
		kind    string
		objects []schema.Object
	}{
		{"view", m.Views},
		{"procedure", m.Procedures},
		{"trigger", m.Triggers},
		{"event", m.Events},
	} {
		for _, o := range group.objects {
			t.AppendRow(table.Row{group.kind, o.Name, ""})
		}
	}
	for _, idx := range m.Indexes {
		t.AppendRow(table.Row{"index", idx.Name, "on " + idx.TableName})
	}
	t.Render()
	return nil
}

func renderList(w io.Writer, header string, values []string) error {
	t := newTable(w)
	t.AppendHeader(table.Row{header})
	for _, v := range values {
		t.AppendRow(table.Row{v})
	}
	t.Render()
	return nil
}

// renderConnections never prints passwords.
func renderConnections(w io.Writer, conns []dbconn.Connection) error {
	if len(conns) == 0 {
		_, _ = fmt.Fprintln(w, "(no saved connections)")
		return nil
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Type", "Server", "Port", "Database", "File"})
	for _, c := range conns {
		port := ""
		if c.Port != 0 {
			port = strconv.Itoa(int(c.Port))
		}
		t.AppendRow(table.Row{c.ID, c.ConnectionName, c.ConnectionType, c.Server, port, c.DatabaseName, c.FilePath})
	}
	t.Render()
	return nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return "0x" + hex.EncodeToString(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case string:
		return x
	}
	return fmt.Sprint(v)
}
