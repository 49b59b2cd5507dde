package core

import (
	"errors"
	"slices"
)

// ErrRowOutOfRange is returned when a row index does not exist.
var ErrRowOutOfRange = errors.New("row index out of range")

// Table is an ordered, index-addressable collection of records. It owns
// its records; accessors hand out copies.
type Table struct {
	records []Record
}

// NewTable creates a table holding the given records in order.
func NewTable(records ...Record) *Table {
	t := &Table{records: make([]Record, 0, len(records))}
	for _, r := range records {
		t.records = append(t.records, r.Clone())
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.records)
}

// At returns a copy of row i.
func (t *Table) At(i int) (Record, error) {
	if i < 0 || i >= len(t.records) {
		return Record{}, ErrRowOutOfRange
	}
	return t.records[i].Clone(), nil
}

// Records returns copies of all rows.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	for i, r := range t.records {
		out[i] = r.Clone()
	}
	return out
}

// Headers returns the field names of the first row, or nil when the table
// is empty or positional.
func (t *Table) Headers() []string {
	if len(t.records) == 0 || t.records[0].IsPositional() {
		return nil
	}
	return t.records[0].Keys()
}

// AppendRow inserts row at position 0.
func (t *Table) AppendRow(row Record) {
	t.records = slices.Insert(t.records, 0, row.Clone())
}

// PrependRow adds row after the last row.
func (t *Table) PrependRow(row Record) {
	t.records = append(t.records, row.Clone())
}

// RemoveRow deletes row i.
func (t *Table) RemoveRow(i int) error {
	if i < 0 || i >= len(t.records) {
		return ErrRowOutOfRange
	}
	t.records = slices.Delete(t.records, i, i+1)
	return nil
}

// ColumnExists reports whether the first row has a field named column.
func (t *Table) ColumnExists(column string) bool {
	if len(t.records) == 0 {
		return false
	}
	return t.records[0].Index(column) >= 0
}

// MapColumn replaces every value of column with fn(value). Rows without the
// column are left alone.
func (t *Table) MapColumn(column string, fn func(string) string) {
	for i := range t.records {
		if v, ok := t.records[i].Get(column); ok {
			t.records[i].Set(column, fn(v))
		}
	}
}

// MapRows replaces every row with fn(row).
func (t *Table) MapRows(fn func(Record) Record) {
	for i, r := range t.records {
		t.records[i] = fn(r.Clone())
	}
}

// FilterRows keeps only the rows for which keep returns true.
func (t *Table) FilterRows(keep func(Record) bool) {
	t.records = slices.DeleteFunc(t.records, func(r Record) bool {
		return !keep(r.Clone())
	})
}

// Chunks splits the table into consecutive tables of at most size rows.
// A size below 1 yields a single chunk.
func (t *Table) Chunks(size int) []*Table {
	if size < 1 {
		size = max(len(t.records), 1)
	}
	var chunks []*Table
	for start := 0; start < len(t.records); start += size {
		end := min(start+size, len(t.records))
		chunks = append(chunks, NewTable(t.records[start:end]...))
	}
	return chunks
}
