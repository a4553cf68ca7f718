package exec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revred/sharc/exec"
	"github.com/revred/sharc/record"
)

func idRows(lo, hi int) []exec.Row {
	rows := make([]exec.Row, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		rows = append(rows, exec.Row{intVal(int64(i))})
	}
	return rows
}

func TestUnionOfOverlappingRangesDedupsTo4500(t *testing.T) {
	a := idRows(1, 2500)
	b := idRows(2001, 4500)
	out := exec.SetOperate(exec.SetUnion, a, b)
	assert.Len(t, out, 4500)
}

func TestSetOpIdempotence(t *testing.T) {
	a := idRows(1, 10)
	empty := []exec.Row{}

	union := exec.SetOperate(exec.SetUnion, a, a)
	assert.Len(t, union, 10)

	intersect := exec.SetOperate(exec.SetIntersect, a, a)
	assert.Len(t, intersect, 10)

	except := exec.SetOperate(exec.SetExcept, a, a)
	assert.Empty(t, except)

	unionEmpty := exec.SetOperate(exec.SetUnion, a, empty)
	assert.Len(t, unionEmpty, 10)

	intersectEmpty := exec.SetOperate(exec.SetIntersect, a, empty)
	assert.Empty(t, intersectEmpty)
}

func TestUnionAllNoDedup(t *testing.T) {
	a := idRows(1, 3)
	out := exec.SetOperate(exec.SetUnionAll, a, a)
	require.Len(t, out, 6)
}

func TestRowEqualityTreatsTwoNullsAsEqual(t *testing.T) {
	a := []exec.Row{{record.ColumnValue{Kind: record.KindNull}}}
	b := []exec.Row{{record.ColumnValue{Kind: record.KindNull}}}
	out := exec.SetOperate(exec.SetIntersect, a, b)
	assert.Len(t, out, 1)
}
