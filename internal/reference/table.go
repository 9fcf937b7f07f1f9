package reference

import (
	"strings"
)

// Row is one data row of a reference sheet. Values are keyed by normalised header.
type Row struct {
	Line  int
	Key   string
	cells map[string]string
}

// Value returns the trimmed cell under header, or "" when the column is absent.
func (r Row) Value(header string) string {
	if r.cells == nil {
		return ""
	}
	return r.cells[NormalizeHeader(header)]
}

// Lookup returns the first non-empty value among the candidate headers.
func (r Row) Lookup(headers ...string) string {
	for _, h := range headers {
		if v := r.Value(h); v != "" {
			return v
		}
	}
	return ""
}

// Table is a loaded reference sheet: rows in sheet order plus an index by key.
// A key may repeat (material lists carry one row per item of a drawing).
type Table struct {
	Source    string
	Sheet     string
	KeyColumn string

	headers []string
	labels  map[string]string
	rows    []Row
	index   map[string][]int
}

func newTable(source, sheet, keyColumn string, headers []string, labels map[string]string) *Table {
	return &Table{
		Source:    source,
		Sheet:     sheet,
		KeyColumn: keyColumn,
		headers:   headers,
		labels:    labels,
		index:     map[string][]int{},
	}
}

func (t *Table) add(row Row) {
	k := normalizeKey(row.Key)
	t.index[k] = append(t.index[k], len(t.rows))
	t.rows = append(t.rows, row)
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

func (t *Table) Rows() []Row {
	if t == nil {
		return nil
	}
	return t.rows
}

// Headers returns the normalised column names in sheet order.
func (t *Table) Headers() []string {
	if t == nil {
		return nil
	}
	return t.headers
}

// Label returns the header text as it appeared in the file.
func (t *Table) Label(header string) string {
	if t == nil {
		return header
	}
	if l, ok := t.labels[NormalizeHeader(header)]; ok {
		return l
	}
	return header
}

func (t *Table) HasColumn(header string) bool {
	if t == nil {
		return false
	}
	_, ok := t.labels[NormalizeHeader(header)]
	return ok
}

// Resolve returns the first candidate header present in the table.
func (t *Table) Resolve(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if t.HasColumn(c) {
			return NormalizeHeader(c), true
		}
	}
	return "", false
}

// First returns the first row whose key matches. Keys compare case-insensitively.
func (t *Table) First(key string) (Row, bool) {
	if t == nil {
		return Row{}, false
	}
	positions := t.index[normalizeKey(key)]
	if len(positions) == 0 {
		return Row{}, false
	}
	return t.rows[positions[0]], true
}

// All returns every row whose key matches, in sheet order.
func (t *Table) All(key string) []Row {
	if t == nil {
		return nil
	}
	positions := t.index[normalizeKey(key)]
	out := make([]Row, 0, len(positions))
	for _, p := range positions {
		out = append(out, t.rows[p])
	}
	return out
}

func (t *Table) Contains(key string) bool {
	if t == nil {
		return false
	}
	return len(t.index[normalizeKey(key)]) > 0
}

// NormalizeHeader folds case and whitespace and drops trailing punctuation so
// "REV.", "Rev" and " rev " address the same column.
func NormalizeHeader(header string) string {
	h := strings.ToLower(strings.Join(strings.Fields(header), " "))
	return strings.TrimRight(h, ".:")
}

func normalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}
