package btree_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revred/sharc/btree"
	"github.com/revred/sharc/internal/testfixture"
	"github.com/revred/sharc/page"
)

func buildRows(n int) map[int64][]byte {
	rows := make(map[int64][]byte, n)
	for i := 1; i <= n; i++ {
		rows[int64(i)] = testfixture.EncodeRecord([]testfixture.FieldValue{
			testfixture.TextField("row"),
			testfixture.Int64Field(int64(i * 10)),
		})
	}
	return rows
}

func TestTableCursorFullScanAscendingRowID(t *testing.T) {
	rows := buildRows(40)
	buf, root := testfixture.MultiLeafTableFile(rows, 5)
	src, err := page.NewMemorySource(buf, true)
	require.NoError(t, err)

	cur, err := btree.OpenTable(context.Background(), src, root)
	require.NoError(t, err)

	var seen []int64
	for {
		ok, err := cur.MoveNext()
		require.NoError(t, err)
		if !ok {
			break
		}
		seen = append(seen, cur.RowID())
	}
	require.Len(t, seen, 40)
	for i, id := range seen {
		assert.Equal(t, int64(i+1), id)
	}
}

func TestTableCursorSeekExactAndMiss(t *testing.T) {
	rows := buildRows(100)
	buf, root := testfixture.MultiLeafTableFile(rows, 7)
	src, err := page.NewMemorySource(buf, true)
	require.NoError(t, err)

	cur, err := btree.OpenTable(context.Background(), src, root)
	require.NoError(t, err)

	exact, err := cur.Seek(btree.RowIDComparator(42))
	require.NoError(t, err)
	assert.True(t, exact)
	assert.Equal(t, int64(42), cur.RowID())

	cur2, err := btree.OpenTable(context.Background(), src, root)
	require.NoError(t, err)
	exact, err = cur2.Seek(btree.RowIDComparator(1000))
	require.NoError(t, err)
	assert.False(t, exact)

	cur3, err := btree.OpenTable(context.Background(), src, root)
	require.NoError(t, err)
	found, err := cur3.SeekGe(btree.RowIDComparator(95))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(95), cur3.RowID())
}

func TestTableCursorSeekGtSkipsExact(t *testing.T) {
	rows := buildRows(30)
	buf, root := testfixture.MultiLeafTableFile(rows, 3)
	src, err := page.NewMemorySource(buf, true)
	require.NoError(t, err)

	cur, err := btree.OpenTable(context.Background(), src, root)
	require.NoError(t, err)
	found, err := cur.SeekGt(btree.RowIDComparator(10))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(11), cur.RowID())
}

func TestTableCursorSingleLeafRoundTrip(t *testing.T) {
	rows := buildRows(3)
	buf := testfixture.SingleLeafTableFile(rows)
	src, err := page.NewMemorySource(buf, true)
	require.NoError(t, err)

	cur, err := btree.OpenTable(context.Background(), src, 2)
	require.NoError(t, err)
	ok, err := cur.MoveNext()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), cur.RowID())
	values := cur.Values()
	require.Len(t, values, 2)
	assert.Equal(t, "row", string(values[0].Span))
	assert.Equal(t, int64(10), values[1].Int)
}
