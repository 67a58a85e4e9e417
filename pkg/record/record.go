// Package record holds the per-record data model of flatindex together with
// the two pure steps applied to every data line: splitting it into fields
// (Parser) and projecting the configured columns out of those fields
// (Mapper).
package record

import "sort"

// ParsedLine is the ordered field list of one input line. Index 0 holds
// column 1.
type ParsedLine []string

// Location is the position of a record relative to the first byte after
// the header line.
type Location struct {
	// Offset is the byte offset of the first byte of the record.
	Offset int64
	// Length is the record length in bytes without its line terminator.
	Length int64
}

// Column is one mapped input column.
type Column struct {
	// Number is the 1-based column number.
	Number int
	// Name is the output field name.
	Name string
}

// Field is one emitted (name, value) pair.
type Field struct {
	Name  string
	Value string
}

// Entry is everything written to the index for one record.
type Entry struct {
	Fields   []Field
	Location Location
	// Path is the input file path as given on the command line.
	Path string
}

// SortColumns normalizes a sparse column map into a list ordered by
// ascending column number.
func SortColumns(m map[int]string) []Column {
	cols := make([]Column, 0, len(m))
	for n, name := range m {
		cols = append(cols, Column{Number: n, Name: name})
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Number < cols[j].Number })
	return cols
}
