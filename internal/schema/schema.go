package schema

import "encoding/json"

// Model is the dialect-neutral catalog of one database.
type Model struct {
	Tables     []Table  `json:"tables"`
	Views      []Object `json:"views"`
	Procedures []Object `json:"procedures"`
	Triggers   []Object `json:"triggers"`
	Events     []Object `json:"events"`
	Indexes    []Index  `json:"indexes"`
}

// Table is a base table with its columns in ordinal order.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Column describes one table column. Dimensions are nil when the engine
// does not report them.
type Column struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	FullType  string `json:"fullType,omitempty"`
	Length    *int   `json:"length,omitempty"`
	Precision *int   `json:"precision,omitempty"`
	Scale     *int   `json:"scale,omitempty"`
}

// Object is a named catalog entry (view, procedure, trigger, event).
type Object struct {
	Name string `json:"name"`
}

// Index is a named index attached to a table.
type Index struct {
	Name      string `json:"name"`
	TableName string `json:"tableName"`
}

// New returns an empty model whose collections are all non-nil.
func New() *Model {
	return &Model{
		Tables:     []Table{},
		Views:      []Object{},
		Procedures: []Object{},
		Triggers:   []Object{},
		Events:     []Object{},
		Indexes:    []Index{},
	}
}

// Objects wraps names as catalog objects, never returning nil.
func Objects(names []string) []Object {
	out := make([]Object, 0, len(names))
	for _, n := range names {
		out = append(out, Object{Name: n})
	}
	return out
}

// MarshalJSON writes every collection as an array, including empty ones.
func (m Model) MarshalJSON() ([]byte, error) {
	type plain Model
	p := plain(m)
	if p.Tables == nil {
		p.Tables = []Table{}
	}
	for i := range p.Tables {
		if p.Tables[i].Columns == nil {
			p.Tables[i].Columns = []Column{}
		}
	}
	if p.Views == nil {
		p.Views = []Object{}
	}
	if p.Procedures == nil {
		p.Procedures = []Object{}
	}
	if p.Triggers == nil {
		p.Triggers = []Object{}
	}
	if p.Events == nil {
		p.Events = []Object{}
	}
	if p.Indexes == nil {
		p.Indexes = []Index{}
	}
	return json.Marshal(p)
}

// Counts reports the size of each collection, keyed by its JSON name.
func (m *Model) Counts() map[string]int {
	cols := 0
	for _, t := range m.Tables {
		cols += len(t.Columns)
	}
	return map[string]int{
		"tables":     len(m.Tables),
		"columns":    cols,
		"views":      len(m.Views),
		"procedures": len(m.Procedures),
		"triggers":   len(m.Triggers),
		"events":     len(m.Events),
		"indexes":    len(m.Indexes),
	}
}
