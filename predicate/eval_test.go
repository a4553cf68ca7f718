package predicate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revred/sharc/predicate"
	"github.com/revred/sharc/record"
)

type fakeRow map[string]record.ColumnValue

func (r fakeRow) ColumnValue(name string) (record.ColumnValue, bool) {
	v, ok := r[name]
	return v, ok
}

type fakeParams map[string]record.ColumnValue

func (p fakeParams) Lookup(name string) (record.ColumnValue, bool) {
	v, ok := p[name]
	return v, ok
}

func intCol(v int64) record.ColumnValue { return record.ColumnValue{Kind: record.KindInt64, Int: v} }
func nullCol() record.ColumnValue       { return record.ColumnValue{Kind: record.KindNull} }

func TestEvaluateSimpleComparison(t *testing.T) {
	it := &predicate.Intent{}
	root := it.Add(predicate.Node{Op: predicate.OpGt, ColumnName: "age", Value: predicate.Int64Value(28)})
	it.Root = root

	tri, err := predicate.Evaluate(it, root, fakeRow{"age": intCol(30)}, nil)
	require.NoError(t, err)
	assert.Equal(t, predicate.True, tri)

	tri, err = predicate.Evaluate(it, root, fakeRow{"age": intCol(20)}, nil)
	require.NoError(t, err)
	assert.Equal(t, predicate.False, tri)
}

func TestEvaluateNullPropagatesUnknown(t *testing.T) {
	it := &predicate.Intent{}
	root := it.Add(predicate.Node{Op: predicate.OpEq, ColumnName: "age", Value: predicate.Int64Value(28)})

	tri, err := predicate.Evaluate(it, root, fakeRow{"age": nullCol()}, nil)
	require.NoError(t, err)
	assert.Equal(t, predicate.Unknown, tri)
}

func TestEvaluateAndShortCircuitsOnFalse(t *testing.T) {
	it := &predicate.Intent{}
	left := it.Add(predicate.Node{Op: predicate.OpEq, ColumnName: "age", Value: predicate.Int64Value(1)})
	right := it.Add(predicate.Node{Op: predicate.OpEq, ColumnName: "missing", Value: predicate.Int64Value(1)})
	root := it.Add(predicate.Node{Op: predicate.OpAnd, LeftIndex: left, RightIndex: right})

	tri, err := predicate.Evaluate(it, root, fakeRow{"age": intCol(99)}, nil)
	require.NoError(t, err)
	assert.Equal(t, predicate.False, tri)
}

func TestEvaluateParameterNotBound(t *testing.T) {
	it := &predicate.Intent{}
	root := it.Add(predicate.Node{Op: predicate.OpEq, ColumnName: "age", Value: predicate.ParamValue("minAge")})

	_, err := predicate.Evaluate(it, root, fakeRow{"age": intCol(30)}, nil)
	require.Error(t, err)

	tri, err := predicate.Evaluate(it, root, fakeRow{"age": intCol(30)}, fakeParams{"minAge": intCol(30)})
	require.NoError(t, err)
	assert.Equal(t, predicate.True, tri)
}

func TestSargableConditionsStopsAtOr(t *testing.T) {
	it := &predicate.Intent{}
	a := it.Add(predicate.Node{Op: predicate.OpEq, ColumnName: "a", Value: predicate.Int64Value(1)})
	b := it.Add(predicate.Node{Op: predicate.OpEq, ColumnName: "b", Value: predicate.Int64Value(2)})
	or := it.Add(predicate.Node{Op: predicate.OpOr, LeftIndex: a, RightIndex: b})
	c := it.Add(predicate.Node{Op: predicate.OpGte, ColumnName: "c", Value: predicate.Int64Value(3)})
	root := it.Add(predicate.Node{Op: predicate.OpAnd, LeftIndex: or, RightIndex: c})

	conds, residual := predicate.SargableConditions(it, root)
	require.Len(t, conds, 1)
	assert.Equal(t, "c", conds[0].ColumnName)
	assert.True(t, residual)
}
