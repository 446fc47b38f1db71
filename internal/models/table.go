package models

import (
	"math"
	"sort"
	"strconv"
	"time"
)

// ColumnKind describes how a column's values are stored
type ColumnKind string

const (
	KindNumeric ColumnKind = "numeric"
	KindText    ColumnKind = "text"
)

// Column describes one measurement column of a Table
type Column struct {
	Name string     `json:"name"`
	Unit string     `json:"unit,omitempty"` // e.g. "m/s", empty when the file has no units row
	Kind ColumnKind `json:"kind"`
}

// Value is a single cell. Valid is false for missing measurements.
type Value struct {
	Number float64 `json:"number,omitempty"`
	Text   string  `json:"text,omitempty"`
	Valid  bool    `json:"valid"`
}

// Num returns a valid numeric value
func Num(f float64) Value {
	return Value{Number: f, Valid: true}
}

// Str returns a valid text value
func Str(s string) Value {
	return Value{Text: s, Valid: true}
}

// Missing is the zero Value
var Missing = Value{}

// Row is one timestamped observation
type Row struct {
	Time   time.Time
	Values []Value
	URL    string // listing path the row came from
	TxtURL string // URL the text was fetched from
}

// Table is a time-indexed set of observations
type Table struct {
	Columns []Column
	Rows    []Row
}

// NewTable creates an empty table with the given columns
func NewTable(columns ...Column) *Table {
	return &Table{Columns: columns}
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the index of the named column or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// ColumnNames returns the column names in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// NumericColumns returns the names of numeric columns
func (t *Table) NumericColumns() []string {
	var names []string
	for _, c := range t.Columns {
		if c.Kind == KindNumeric {
			names = append(names, c.Name)
		}
	}
	return names
}

// Numbers returns the named column as a float series, NaN where missing.
// Text columns and unknown names return an all-NaN series.
func (t *Table) Numbers(name string) []float64 {
	out := make([]float64, len(t.Rows))
	idx := t.ColumnIndex(name)
	numeric := idx >= 0 && t.Columns[idx].Kind == KindNumeric
	for i, r := range t.Rows {
		if !numeric || !r.Values[idx].Valid {
			out[i] = math.NaN()
			continue
		}
		out[i] = r.Values[idx].Number
	}
	return out
}

// Value returns the cell at row i for the named column
func (t *Table) Value(i int, name string) (Value, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return Missing, false
	}
	return t.Rows[i].Values[idx], true
}

// SetSource tags every row with the listing path and text URL it came from
func (t *Table) SetSource(url, txtURL string) {
	for i := range t.Rows {
		t.Rows[i].URL = url
		t.Rows[i].TxtURL = txtURL
	}
}

// Append adds the rows of other to t. Columns are unioned by name; cells
// for columns a row did not have are missing. A column that is text in
// either table becomes text, with numbers kept as their decimal form.
func (t *Table) Append(other *Table) {
	if other == nil {
		return
	}
	mapping := make([]int, len(other.Columns))
	toText := make([]bool, len(other.Columns))
	grown := false
	for i, c := range other.Columns {
		idx := t.ColumnIndex(c.Name)
		if idx < 0 {
			t.Columns = append(t.Columns, c)
			idx = len(t.Columns) - 1
			grown = true
		} else if t.Columns[idx].Unit == "" {
			t.Columns[idx].Unit = c.Unit
		}
		if c.Kind == KindText && t.Columns[idx].Kind == KindNumeric {
			t.Columns[idx].Kind = KindText
			for r := range t.Rows {
				if idx < len(t.Rows[r].Values) {
					t.Rows[r].Values[idx] = asText(t.Rows[r].Values[idx])
				}
			}
		}
		toText[i] = c.Kind != KindText && t.Columns[idx].Kind == KindText
		mapping[i] = idx
	}

	if grown {
		for i := range t.Rows {
			padded := make([]Value, len(t.Columns))
			copy(padded, t.Rows[i].Values)
			t.Rows[i].Values = padded
		}
	}

	for _, r := range other.Rows {
		values := make([]Value, len(t.Columns))
		for i, v := range r.Values {
			if toText[i] {
				v = asText(v)
			}
			values[mapping[i]] = v
		}
		t.Rows = append(t.Rows, Row{Time: r.Time, Values: values, URL: r.URL, TxtURL: r.TxtURL})
	}
}

func asText(v Value) Value {
	if !v.Valid || v.Text != "" {
		return v
	}
	return Str(strconv.FormatFloat(v.Number, 'f', -1, 64))
}

// DropDuplicateTimes removes rows whose timestamp was already seen,
// keeping the first occurrence
func (t *Table) DropDuplicateTimes() {
	seen := make(map[int64]struct{}, len(t.Rows))
	kept := t.Rows[:0]
	for _, r := range t.Rows {
		key := r.Time.UnixNano()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, r)
	}
	t.Rows = kept
}

// SortByTime orders rows by ascending time, keeping input order for ties
func (t *Table) SortByTime() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return t.Rows[i].Time.Before(t.Rows[j].Time)
	})
}

// Tail returns a table holding the last n rows
func (t *Table) Tail(n int) *Table {
	if n >= len(t.Rows) {
		return t
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[len(t.Rows)-n:]}
}

// Between returns rows with from <= Time < to
func (t *Table) Between(from, to time.Time) *Table {
	out := &Table{Columns: t.Columns}
	for _, r := range t.Rows {
		if !r.Time.Before(from) && r.Time.Before(to) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}
