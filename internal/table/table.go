// Package table models tabular query results and their canonical form for
// order-independent comparison.
package table

import (
	"slices"
	"strings"
)

// Result is the output of executing a query: named columns and the rows of
// values beneath them. Cell values are nil, int64, float64 or string.
type Result struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Normalize returns a canonical copy of r insensitive to column and row
// order: columns sorted by name ascending, rows sorted by the full value
// tuple in the new column order. Empty and nil results are returned
// unchanged. r itself is never modified.
func Normalize(r *Result) *Result {
	if r == nil || len(r.Rows) == 0 {
		return r
	}

	// Column permutation sorted by name.
	perm := make([]int, len(r.Columns))
	for i := range perm {
		perm[i] = i
	}
	slices.SortStableFunc(perm, func(a, b int) int {
		return strings.Compare(r.Columns[a], r.Columns[b])
	})

	out := &Result{
		Columns: make([]string, len(r.Columns)),
		Rows:    make([][]any, len(r.Rows)),
	}
	for i, p := range perm {
		out.Columns[i] = r.Columns[p]
	}
	for i, row := range r.Rows {
		remapped := make([]any, len(row))
		for j, p := range perm {
			remapped[j] = row[p]
		}
		out.Rows[i] = remapped
	}

	slices.SortStableFunc(out.Rows, compareRows)
	return out
}

// Equal reports deep structural equality: same column names in the same
// order, same rows in the same order, cell values compared with native
// equality (an int64 never equals a float64). Two nil results are equal;
// nil never equals non-nil.
func Equal(a, b *Result) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !slices.Equal(a.Columns, b.Columns) {
		return false
	}
	if len(a.Rows) != len(b.Rows) {
		return false
	}
	for i := range a.Rows {
		if len(a.Rows[i]) != len(b.Rows[i]) {
			return false
		}
		for j := range a.Rows[i] {
			if a.Rows[i][j] != b.Rows[i][j] {
				return false
			}
		}
	}
	return true
}

func compareRows(a, b []any) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := compareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

// Type ranks give a total order across mixed-type columns: nulls first,
// then numbers, then text.
const (
	rankNull = iota
	rankNumber
	rankText
	rankOther
)

func valueRank(v any) int {
	switch v.(type) {
	case nil:
		return rankNull
	case int64, float64:
		return rankNumber
	case string:
		return rankText
	default:
		return rankOther
	}
}

func compareValues(a, b any) int {
	ra, rb := valueRank(a), valueRank(b)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case rankNumber:
		fa, fb := toFloat(a), toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		// Numerically equal but possibly different concrete types
		// (int64 1 vs float64 1.0). Order integers first so every
		// permutation of the same multiset sorts to the same sequence;
		// Equal still distinguishes the types cell by cell.
		return numericTypeOrder(a) - numericTypeOrder(b)
	case rankText:
		return strings.Compare(a.(string), b.(string))
	}
	return 0
}

func numericTypeOrder(v any) int {
	if _, ok := v.(int64); ok {
		return 0
	}
	return 1
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
