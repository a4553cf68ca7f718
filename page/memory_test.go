package page_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revred/sharc/internal/testfixture"
	"github.com/revred/sharc/page"
	"github.com/revred/sharc/sharcerr"
)

func TestMemorySourceReadsBackWhatItWrote(t *testing.T) {
	buf := testfixture.EmptyFile(2)
	src, err := page.NewMemorySource(buf, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), src.PageCount())
	assert.Equal(t, testfixture.PageSize, src.PageSize())

	ctx := context.Background()
	p1, err := src.GetPage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, byte(0x0D), p1[100])

	newPage := make([]byte, testfixture.PageSize)
	newPage[0] = 0xAA
	require.NoError(t, src.WritePage(ctx, 2, newPage))
	assert.Equal(t, uint64(1), src.DataVersion())

	got, err := src.GetPage(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, byte(0xAA), got[0])
}

func TestMemorySourceRejectsOutOfRangePage(t *testing.T) {
	buf := testfixture.EmptyFile(1)
	src, err := page.NewMemorySource(buf, false)
	require.NoError(t, err)

	_, err = src.GetPage(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, sharcerr.Is(err, sharcerr.KindInvalidPage))
}

func TestMemorySourceReadOnlyRejectsWrites(t *testing.T) {
	buf := testfixture.EmptyFile(1)
	src, err := page.NewMemorySource(buf, true)
	require.NoError(t, err)

	err = src.WritePage(context.Background(), 1, make([]byte, testfixture.PageSize))
	require.Error(t, err)
	assert.True(t, sharcerr.Is(err, sharcerr.KindReadOnly))
}
