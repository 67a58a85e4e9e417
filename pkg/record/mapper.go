package record

import "sort"

// Mapper projects the configured columns out of parsed lines.
type Mapper struct {
	columns []Column
}

// NewMapper returns a mapper over columns. The columns are copied and
// sorted once here so Map never sorts.
func NewMapper(columns []Column) *Mapper {
	cols := make([]Column, len(columns))
	copy(cols, columns)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Number < cols[j].Number })
	return &Mapper{columns: cols}
}

// Columns returns the mapped columns in output order.
func (m *Mapper) Columns() []Column {
	return m.columns
}

// Map returns one field per mapped column in ascending column order. A
// column past the end of line maps to the empty string.
func (m *Mapper) Map(line ParsedLine) []Field {
	return m.AppendFields(make([]Field, 0, len(m.columns)), line)
}

// AppendFields is Map appending to dst, so callers can reuse one slice
// across records.
func (m *Mapper) AppendFields(dst []Field, line ParsedLine) []Field {
	for _, c := range m.columns {
		var v string
		if c.Number >= 1 && c.Number <= len(line) {
			v = line[c.Number-1]
		}
		dst = append(dst, Field{Name: c.Name, Value: v})
	}
	return dst
}
