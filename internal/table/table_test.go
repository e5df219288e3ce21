package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Result {
	return &Result{
		Columns: []string{"canal", "total"},
		Rows: [][]any{
			{"Instagram", int64(195)},
			{"Facebook", int64(160)},
			{"Google Ads", int64(300)},
		},
	}
}

func TestNormalizeSortsRowsAndColumns(t *testing.T) {
	got := Normalize(sample())

	assert.Equal(t, []string{"canal", "total"}, got.Columns)
	assert.Equal(t, [][]any{
		{"Facebook", int64(160)},
		{"Google Ads", int64(300)},
		{"Instagram", int64(195)},
	}, got.Rows)
}

func TestNormalizeRowPermutationInvariant(t *testing.T) {
	a := sample()
	b := &Result{
		Columns: a.Columns,
		Rows:    [][]any{a.Rows[2], a.Rows[0], a.Rows[1]},
	}

	assert.True(t, Equal(Normalize(a), Normalize(b)))
}

func TestNormalizeColumnPermutationInvariant(t *testing.T) {
	a := sample()
	b := &Result{
		Columns: []string{"total", "canal"},
		Rows: [][]any{
			{int64(195), "Instagram"},
			{int64(160), "Facebook"},
			{int64(300), "Google Ads"},
		},
	}

	assert.True(t, Equal(Normalize(a), Normalize(b)))
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	a := sample()
	Normalize(a)

	assert.Equal(t, sample(), a)
}

func TestNormalizeEmptyUnchanged(t *testing.T) {
	empty := &Result{Columns: []string{"b", "a"}, Rows: [][]any{}}
	got := Normalize(empty)

	require.Same(t, empty, got)
	assert.Equal(t, []string{"b", "a"}, got.Columns)
}

func TestNormalizeNil(t *testing.T) {
	assert.Nil(t, Normalize(nil))
}

func TestEqualNativeTypes(t *testing.T) {
	a := &Result{Columns: []string{"v"}, Rows: [][]any{{int64(3)}}}
	b := &Result{Columns: []string{"v"}, Rows: [][]any{{float64(3)}}}

	// Exact native equality: an integer never equals a real.
	assert.False(t, Equal(a, b))
	assert.True(t, Equal(a, &Result{Columns: []string{"v"}, Rows: [][]any{{int64(3)}}}))
}

func TestEqualEmptyResults(t *testing.T) {
	a := &Result{Columns: []string{"x", "y"}, Rows: [][]any{}}
	b := &Result{Columns: []string{"x", "y"}, Rows: [][]any{}}
	c := &Result{Columns: []string{"y", "x"}, Rows: [][]any{}}

	assert.True(t, Equal(Normalize(a), Normalize(b)))
	// Empty results keep their column order, so differently shaped empties
	// do not match.
	assert.False(t, Equal(Normalize(a), Normalize(c)))
}

func TestEqualNil(t *testing.T) {
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, &Result{}))
}

func TestNormalizeMixedNumericTypesPermutationInvariant(t *testing.T) {
	// SQLite can hand back numerically equal INTEGER and REAL values in one
	// column (SELECT 1 UNION ALL SELECT 1.0). Every permutation of that
	// multiset must normalize to the same sequence.
	a := &Result{Columns: []string{"v"}, Rows: [][]any{{int64(1)}, {float64(1)}}}
	b := &Result{Columns: []string{"v"}, Rows: [][]any{{float64(1)}, {int64(1)}}}

	na, nb := Normalize(a), Normalize(b)
	assert.True(t, Equal(na, nb))
	// Integers sort before equal reals.
	assert.Equal(t, [][]any{{int64(1)}, {float64(1)}}, na.Rows)
	assert.Equal(t, na.Rows, nb.Rows)
}

func TestCompareValuesMixedTypes(t *testing.T) {
	// Nulls sort before numbers, numbers before text.
	rows := [][]any{
		{"abc"},
		{int64(5)},
		{nil},
		{float64(2.5)},
	}
	r := Normalize(&Result{Columns: []string{"v"}, Rows: rows})

	assert.Equal(t, [][]any{
		{nil},
		{float64(2.5)},
		{int64(5)},
		{"abc"},
	}, r.Rows)
}
