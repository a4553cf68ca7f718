package exec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revred/sharc/exec"
	"github.com/revred/sharc/record"
)

func textVal(s string) record.ColumnValue {
	return record.ColumnValue{Kind: record.KindText, Span: []byte(s)}
}

func intVal(v int64) record.ColumnValue {
	return record.ColumnValue{Kind: record.KindInt64, Int: v}
}

func TestAggregatorGroupByDeptCountAvg(t *testing.T) {
	cfg := exec.AggregateConfig{
		Aggregates:      []exec.AggregateSpec{{Func: exec.AggCountStar}, {Func: exec.AggAvg, ColumnName: "score"}},
		AggregateSource: []int{-1, 1},
		GroupBy:         []int{0},
	}
	agg := exec.NewAggregator(cfg)
	rows := []exec.Row{
		{textVal("eng"), intVal(100)},
		{textVal("eng"), intVal(200)},
		{textVal("sales"), intVal(300)},
		{textVal("sales"), intVal(400)},
	}
	for _, r := range rows {
		agg.Accumulate(r)
	}

	out := agg.Finalize()
	require.Len(t, out, 2)
	byDept := make(map[string]exec.Row)
	for _, r := range out {
		byDept[string(r[0].Span)] = r
	}
	require.Contains(t, byDept, "eng")
	require.Contains(t, byDept, "sales")
	assert.Equal(t, int64(2), byDept["eng"][1].Int)
	assert.Equal(t, 150.0, byDept["eng"][2].Float)
	assert.Equal(t, int64(2), byDept["sales"][1].Int)
	assert.Equal(t, 350.0, byDept["sales"][2].Float)
}

func TestAggregatorCountSkipsNull(t *testing.T) {
	cfg := exec.AggregateConfig{
		Aggregates:      []exec.AggregateSpec{{Func: exec.AggCount, ColumnName: "x"}},
		AggregateSource: []int{0},
	}
	agg := exec.NewAggregator(cfg)
	agg.Accumulate(exec.Row{record.ColumnValue{Kind: record.KindNull}})
	agg.Accumulate(exec.Row{intVal(1)})
	out := agg.Finalize()
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0][0].Int)
}
