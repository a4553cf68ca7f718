package exec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revred/sharc/exec"
	"github.com/revred/sharc/record"
)

func keyRow(k int64, payload string) exec.Row {
	return exec.Row{intVal(k), textVal(payload)}
}

func TestFullOuterJoinTierISmall(t *testing.T) {
	build := []exec.Row{keyRow(1, "b1"), keyRow(2, "b2")}
	probe := []exec.Row{keyRow(1, "p1"), keyRow(3, "p3")}
	rows, tier := exec.FullOuterJoin(build, probe, []int{0}, []int{0}, 2, 2, false)
	assert.Equal(t, exec.TierI, tier)
	assert.Len(t, rows, 3) // 1 match + 1 probe-unmatched + 1 build-unmatched
}

func TestFullOuterJoinTierIIRowCount(t *testing.T) {
	build := make([]exec.Row, 300)
	for i := 0; i < 300; i++ {
		build[i] = keyRow(int64(i), "b")
	}
	probe := make([]exec.Row, 0, 151)
	for i := 0; i < 150; i++ {
		probe = append(probe, keyRow(int64(i*2), "p"))
	}
	probe = append(probe, keyRow(9999, "disjoint"))

	rows, tier := exec.FullOuterJoin(build, probe, []int{0}, []int{0}, 2, 2, false)
	assert.Equal(t, exec.TierII, tier)
	assert.Len(t, rows, 301)
}

func TestFullOuterJoinNullKeyNeverMatches(t *testing.T) {
	nullKeyRow := exec.Row{record.ColumnValue{Kind: record.KindNull}, textVal("b")}
	build := []exec.Row{nullKeyRow}
	probe := []exec.Row{exec.Row{record.ColumnValue{Kind: record.KindNull}, textVal("p")}}
	rows, _ := exec.FullOuterJoin(build, probe, []int{0}, []int{0}, 2, 2, false)
	require.Len(t, rows, 2) // probe-unmatched + build-unmatched, no match
}

func TestFullOuterJoinBuildIsLeftControlsColumnOrder(t *testing.T) {
	build := []exec.Row{keyRow(1, "b1")}
	probe := []exec.Row{keyRow(1, "p1")}
	rows, _ := exec.FullOuterJoin(build, probe, []int{0}, []int{0}, 2, 2, true)
	require.Len(t, rows, 1)
	assert.Equal(t, "b1", string(rows[0][1].Span))
	assert.Equal(t, "p1", string(rows[0][3].Span))
}
