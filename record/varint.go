package record

import "github.com/revred/sharc/sharcerr"

// ReadVarint decodes a SQLite-style variable-length integer at offset in
// data, returning its value and the number of bytes consumed. Up to 9
// bytes are read; the 9th byte contributes all 8 of its bits.
func ReadVarint(data []byte, offset int) (value uint64, n int, err error) {
	var result uint64
	for i := 0; i < 9; i++ {
		if offset+i >= len(data) {
			return 0, 0, sharcerr.New("record.ReadVarint", sharcerr.KindCorruptRecord,
				errTruncatedVarint, "offset", offset)
		}
		b := data[offset+i]
		if i == 8 {
			result = (result << 8) | uint64(b)
			return result, 9, nil
		}
		result = (result << 7) | uint64(b&0x7F)
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
	}
	return 0, 0, sharcerr.New("record.ReadVarint", sharcerr.KindCorruptRecord, errTruncatedVarint, "offset", offset)
}

type simpleError string

func (e simpleError) Error() string { return string(e) }

var errTruncatedVarint = simpleError("truncated varint")
