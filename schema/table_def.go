// table_def.go - Table definition holding the ordered column list
package schema

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// TableDef is a parsed table definition: the ordered columns whose
// tags drive tuple decoding.
type TableDef struct {
	Name    string
	Columns []Column

	byName map[string]int
}

func NewTableDef(name string) *TableDef {
	return &TableDef{Name: name, byName: make(map[string]int)}
}

// AddColumn appends a column, rejecting duplicate names.
func (t *TableDef) AddColumn(col Column) error {
	if _, exists := t.byName[col.Name]; exists {
		return errors.Newf("column %s listed twice", col.Name)
	}
	t.byName[col.Name] = len(t.Columns)
	t.Columns = append(t.Columns, col)
	return nil
}

// Lookup finds a column by name.
func (t *TableDef) Lookup(name string) (Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Column{}, false
	}
	return t.Columns[i], true
}

// TypeList renders the columns as the comma-separated tag list the
// decoder is built from.
func (t *TableDef) TypeList() string {
	tags := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		tags[i] = col.Tag
	}
	return strings.Join(tags, ",")
}
