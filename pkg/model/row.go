package model

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Column is one header-labelled cell of a raw table row.
type Column struct {
	Label string
	Value string
}

// Row is one entity's line of a source table. Columns keeps every header
// column of the file, in file order, including geo/country/region.
type Row struct {
	Geo     string
	Country string
	Region  string
	Columns []Column
}

// Value returns the raw string stored under label and whether the column
// exists.
func (r *Row) Value(label string) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, c := range r.Columns {
		if c.Label == label {
			return c.Value, true
		}
	}
	return "", false
}

// Number parses the cell under label. A nil row, a missing column, an empty
// cell or a non-numeric value all yield NaN.
func (r *Row) Number(label string) float64 {
	v, ok := r.Value(label)
	if !ok {
		return math.NaN()
	}
	return ParseNumber(v)
}

// Entries returns the cells in object-key enumeration order: integer-like
// labels first in ascending numeric order, then all other labels in file
// order. Year columns therefore always lead and metadata columns trail.
func (r *Row) Entries() []Column {
	if r == nil {
		return nil
	}
	type indexed struct {
		n   uint64
		col Column
	}
	var ints []indexed
	var rest []Column
	for _, c := range r.Columns {
		if n, ok := arrayIndex(c.Label); ok {
			ints = append(ints, indexed{n: n, col: c})
			continue
		}
		rest = append(rest, c)
	}
	sort.SliceStable(ints, func(i, j int) bool { return ints[i].n < ints[j].n })

	out := make([]Column, 0, len(r.Columns))
	for _, e := range ints {
		out = append(out, e.col)
	}
	return append(out, rest...)
}

// arrayIndex reports whether label is a canonical non-negative integer
// ("0", "1999" but not "01" or "+5").
func arrayIndex(label string) (uint64, bool) {
	if label == "" || (len(label) > 1 && label[0] == '0') {
		return 0, false
	}
	for _, ch := range label {
		if ch < '0' || ch > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(label, 10, 32)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseNumber converts a raw cell to float64. Blank and unparsable values
// are NaN.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// IsYearLabel reports whether label looks like a four-digit year column.
func IsYearLabel(label string) bool {
	if len(label) != 4 {
		return false
	}
	_, ok := arrayIndex(label)
	return ok
}
