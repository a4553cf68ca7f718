package planner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revred/sharc/catalog"
	"github.com/revred/sharc/planner"
	"github.com/revred/sharc/predicate"
)

func eqCond(col string, v int64) predicate.SargableCondition {
	return predicate.SargableCondition{ColumnName: col, Op: predicate.OpEq, Value: predicate.Int64Value(v)}
}

func gtCond(col string, v int64) predicate.SargableCondition {
	return predicate.SargableCondition{ColumnName: col, Op: predicate.OpGt, Value: predicate.Int64Value(v)}
}

func betweenCond(col string, lo, hi int64) predicate.SargableCondition {
	return predicate.SargableCondition{
		ColumnName: col, Op: predicate.OpBetween,
		Value: predicate.Int64Value(lo), HighValue: predicate.Int64Value(hi), HasHigh: true,
	}
}

func TestSelectFullScanWhenNoIndexMatches(t *testing.T) {
	plan := planner.Select([]predicate.SargableCondition{gtCond("age", 10)}, nil)
	assert.Equal(t, planner.FullScan, plan.Strategy)
	assert.Len(t, plan.Residual, 1)
}

func TestSelectPrimaryLegPrefersEqualityOverRange(t *testing.T) {
	indexes := []catalog.Index{
		{Name: "idx_age", TableName: "users", Columns: []catalog.IndexColumn{{Name: "age", Ordinal: 0}}},
		{Name: "idx_name", TableName: "users", Columns: []catalog.IndexColumn{{Name: "name", Ordinal: 0}}},
	}
	conds := []predicate.SargableCondition{gtCond("age", 10), eqCond("name", 0)}
	plan := planner.Select(conds, indexes)
	require.Equal(t, planner.RowIdIntersection, plan.Strategy)
	assert.Equal(t, "idx_name", plan.Primary.Index.Name)
}

func TestSelectPrefersUniqueIndex(t *testing.T) {
	indexes := []catalog.Index{
		{Name: "idx_a", TableName: "t", Columns: []catalog.IndexColumn{{Name: "x", Ordinal: 0}}, IsUnique: false},
		{Name: "idx_b", TableName: "t", Columns: []catalog.IndexColumn{{Name: "x", Ordinal: 0}}, IsUnique: true},
	}
	plan := planner.Select([]predicate.SargableCondition{eqCond("x", 5)}, indexes)
	require.Equal(t, planner.SingleIndex, plan.Strategy)
	assert.Equal(t, "idx_b", plan.Primary.Index.Name)
}

func TestSelectRowIdIntersectionForTwoEqualityIndexes(t *testing.T) {
	indexes := []catalog.Index{
		{Name: "idx_age", TableName: "users", Columns: []catalog.IndexColumn{{Name: "age", Ordinal: 0}}},
		{Name: "idx_name", TableName: "users", Columns: []catalog.IndexColumn{{Name: "name", Ordinal: 0}}},
	}
	conds := []predicate.SargableCondition{eqCond("age", 30), eqCond("name", 0)}
	plan := planner.Select(conds, indexes)
	require.Equal(t, planner.RowIdIntersection, plan.Strategy)
	require.NotNil(t, plan.Secondary)
}

// TestSelectRowIdIntersectionForTwoBetweenIndexes covers spec.md §8
// scenario 6: two single-column indexes each matched by a BETWEEN range,
// neither side an equality, must still produce RowIdIntersection rather
// than demoting the second column to a residual filter.
func TestSelectRowIdIntersectionForTwoBetweenIndexes(t *testing.T) {
	indexes := []catalog.Index{
		{Name: "idx_x", TableName: "t", Columns: []catalog.IndexColumn{{Name: "x", Ordinal: 0}}},
		{Name: "idx_y", TableName: "t", Columns: []catalog.IndexColumn{{Name: "y", Ordinal: 0}}},
	}
	conds := []predicate.SargableCondition{betweenCond("x", 10, 20), betweenCond("y", 100, 200)}
	plan := planner.Select(conds, indexes)
	require.Equal(t, planner.RowIdIntersection, plan.Strategy)
	require.NotNil(t, plan.Secondary)
	assert.Empty(t, plan.Residual)
}

func TestSelectCompositeIndexExtraColumnBecomesResidual(t *testing.T) {
	indexes := []catalog.Index{
		{Name: "idx_composite", TableName: "t", Columns: []catalog.IndexColumn{
			{Name: "a", Ordinal: 0}, {Name: "b", Ordinal: 1},
		}},
	}
	conds := []predicate.SargableCondition{eqCond("a", 1), eqCond("b", 2)}
	plan := planner.Select(conds, indexes)
	require.Equal(t, planner.SingleIndex, plan.Strategy)
	assert.Equal(t, "a", plan.Primary.ConsumedColumn)
	require.Len(t, plan.Primary.ResidualConstraints, 1)
	assert.Equal(t, "b", plan.Primary.ResidualConstraints[0].ColumnName)
}
