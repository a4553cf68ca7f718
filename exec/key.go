package exec

import (
	"encoding/binary"
	"math"

	"github.com/dchest/siphash"

	"github.com/revred/sharc/record"
)

// siphash keys are fixed per process: the join kernel only needs internal
// hash-table distribution, not a cryptographic or cross-process-stable
// hash.
const (
	sipK0 = 0x0123456789abcdef
	sipK1 = 0xfedcba9876543210
)

// joinKeyHasNull reports whether any column of key is NULL; NULL keys
// never match in a join (spec §4.8.2).
func joinKeyHasNull(key Row) bool {
	for _, v := range key {
		if v.IsNull() {
			return true
		}
	}
	return false
}

// hashKey hashes the column values of key into a 64-bit bucket hash.
func hashKey(key Row) uint64 {
	var buf []byte
	for _, v := range key {
		buf = appendKeyBytes(buf, v)
	}
	return siphash.Hash(sipK0, sipK1, buf)
}

func appendKeyBytes(buf []byte, v record.ColumnValue) []byte {
	var tag [1]byte
	tag[0] = byte(v.Kind)
	buf = append(buf, tag[0])
	switch v.Kind {
	case record.KindInt64:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(v.Int))
		buf = append(buf, b[:]...)
	case record.KindFloat64:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(v.Float))
		buf = append(buf, b[:]...)
	case record.KindText, record.KindBlob:
		buf = append(buf, v.Span...)
	}
	return buf
}

// keyEqualJoin compares two keys column-by-column, NULL never equal to
// anything (including another NULL) — the join semantics.
func keyEqualJoin(a, b Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].IsNull() || b[i].IsNull() {
			return false
		}
		if !valueEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// rowEqualSetOp compares two rows for set-operation row equality, where
// two NULLs in the same position are considered equal.
func rowEqualSetOp(a, b Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		an, bn := a[i].IsNull(), b[i].IsNull()
		if an && bn {
			continue
		}
		if an != bn {
			return false
		}
		if !valueEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func valueEqual(a, b record.ColumnValue) bool {
	switch {
	case a.Kind == record.KindText || a.Kind == record.KindBlob:
		return string(a.Span) == string(b.Span)
	case a.Kind == record.KindFloat64 || b.Kind == record.KindFloat64:
		return asFloat(a) == asFloat(b)
	default:
		return a.Int == b.Int
	}
}

func asFloat(v record.ColumnValue) float64 {
	if v.Kind == record.KindFloat64 {
		return v.Float
	}
	return float64(v.Int)
}

// rowHashForSetOp hashes a full row for set-operation dedup, treating NULL
// as a distinct, stable value (so two NULLs hash identically, matching
// rowEqualSetOp's NULL-equals-NULL rule).
func rowHashForSetOp(row Row) uint64 {
	var buf []byte
	for _, v := range row {
		if v.IsNull() {
			buf = append(buf, 0xFF)
			continue
		}
		buf = appendKeyBytes(buf, v)
	}
	return siphash.Hash(sipK0, sipK1, buf)
}
