package models

// Column is one named column of a parsed table. Nil cells are nulls.
type Column struct {
	Name   string
	Values []*string
}

// NonNull returns the non-null cells in source order.
func (c Column) NonNull() []string {
	out := make([]string, 0, len(c.Values))
	for _, v := range c.Values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Table is a rectangular snapshot handed to the engine by the tabular source.
// All columns share the same row count.
type Table struct {
	Columns   []Column
	RowCount  int
	Encoding  string
	Separator string
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	return len(t.Columns)
}

// StringPtr is a small helper for building optional cells.
func StringPtr(s string) *string {
	return &s
}
