package exec_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/revred/sharc/exec"
)

func ascByFirstCol(a, b exec.Row) bool { return a[0].Int < b[0].Int }

func TestTopNMatchesSortedPrefix(t *testing.T) {
	var rows []exec.Row
	for i := 99; i >= 0; i-- {
		rows = append(rows, exec.Row{intVal(int64(i))})
	}

	top := exec.NewTopN(5, ascByFirstCol)
	for _, r := range rows {
		top.TryInsert(r)
	}
	got := top.ExtractSorted()
	want := []int64{0, 1, 2, 3, 4}
	for i, r := range got {
		assert.Equal(t, want[i], r[0].Int)
	}

	sorted := append([]exec.Row{}, rows...)
	sort.Slice(sorted, func(i, j int) bool { return ascByFirstCol(sorted[i], sorted[j]) })
	for i := 0; i < 5; i++ {
		assert.Equal(t, sorted[i][0].Int, got[i][0].Int)
	}
}
