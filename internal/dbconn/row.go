package dbconn

import (
	"bytes"
	"encoding/json"
)

// Row is one result row keyed by column name. Keys keep the order in which
// they were first set; setting an existing key replaces its value in place.
type Row struct {
	keys []string
	vals map[string]any
}

// NewRow returns an empty row with room for n columns.
func NewRow(n int) Row {
	return Row{keys: make([]string, 0, n), vals: make(map[string]any, n)}
}

// Set assigns v to key. A repeated key keeps its first position and takes
// the last value.
func (r *Row) Set(key string, v any) {
	if r.vals == nil {
		r.vals = make(map[string]any)
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = v
}

// Get returns the value stored under key.
func (r Row) Get(key string) (any, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Keys returns the column names in order.
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len is the number of distinct keys.
func (r Row) Len() int { return len(r.keys) }

// Values returns the values in key order.
func (r Row) Values() []any {
	out := make([]any, len(r.keys))
	for i, k := range r.keys {
		out[i] = r.vals[k]
	}
	return out
}

// MarshalJSON writes the row as an object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// columnsOf derives the result's column list from its first row.
func columnsOf(rows []Row) []string {
	if len(rows) == 0 {
		return []string{}
	}
	return rows[0].Keys()
}
