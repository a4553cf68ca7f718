package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revred/sharc/internal/testfixture"
	"github.com/revred/sharc/record"
	"github.com/revred/sharc/sharcerr"
)

func TestDecodeRoundTrip(t *testing.T) {
	payload := testfixture.EncodeRecord([]testfixture.FieldValue{
		testfixture.Int64Field(42),
		testfixture.TextField("hello"),
		testfixture.NullField(),
	})

	values, err := record.Decode(payload)
	require.NoError(t, err)
	require.Len(t, values, 3)

	assert.Equal(t, record.KindInt64, values[0].Kind)
	assert.Equal(t, int64(42), values[0].Int)

	assert.Equal(t, record.KindText, values[1].Kind)
	assert.Equal(t, "hello", string(values[1].Span))

	assert.True(t, values[2].IsNull())
}

func TestDecodeTruncatedRecordIsCorrupt(t *testing.T) {
	payload := testfixture.EncodeRecord([]testfixture.FieldValue{testfixture.Int64Field(1)})
	_, err := record.Decode(payload[:len(payload)-4])
	require.Error(t, err)
	assert.True(t, sharcerr.Is(err, sharcerr.KindCorruptRecord))
}

func TestDecodeZeroAndOneConstants(t *testing.T) {
	payload := testfixture.EncodeRecord([]testfixture.FieldValue{
		{SerialType: 8},
		{SerialType: 9},
	})
	values, err := record.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, int64(0), values[0].Int)
	assert.Equal(t, int64(1), values[1].Int)
}
