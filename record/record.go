// Package record decodes SQLite record payloads into typed column values,
// per the serial-type scheme of the on-disk format: the varint header
// declares a serial type per column, and the body is the concatenation of
// each column's encoded bytes.
package record

import (
	"encoding/binary"
	"math"

	"github.com/revred/sharc/sharcerr"
)

// Kind tags the variant held by a ColumnValue.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt64
	KindFloat64
	KindText
	KindBlob
)

// ColumnValue is a tagged union over a decoded column: {Null, Int64,
// Float64, Text(span), Blob(span)}. Text and Blob carry spans into the
// original payload and must be copied before the owning cursor advances.
type ColumnValue struct {
	Kind    Kind
	Int     int64
	Float   float64
	Span    []byte
	RawSize int // declared size in bytes, 0 for Null/constant types
}

// IsNull reports whether the value is SQL NULL.
func (c ColumnValue) IsNull() bool { return c.Kind == KindNull }

// Clone returns a ColumnValue whose Span (if any) is an owned copy,
// detached from the source payload.
func (c ColumnValue) Clone() ColumnValue {
	if c.Span == nil {
		return c
	}
	cp := make([]byte, len(c.Span))
	copy(cp, c.Span)
	c.Span = cp
	return c
}

// serialTypeSize returns the encoded width in bytes for a serial type, or
// -1 if the type is out of the defined range.
func serialTypeSize(serialType uint64) int {
	switch serialType {
	case 0, 8, 9:
		return 0
	case 1:
		return 1
	case 2:
		return 2
	case 3:
		return 3
	case 4:
		return 4
	case 5:
		return 6
	case 6, 7:
		return 8
	case 10, 11:
		return -1 // reserved, never legal
	default:
		if serialType >= 12 && serialType%2 == 0 {
			return int((serialType - 12) / 2)
		}
		if serialType >= 13 && serialType%2 == 1 {
			return int((serialType - 13) / 2)
		}
		return -1
	}
}

// Decode parses a record payload (header-length varint, serial-type
// varints, then concatenated column bytes) into a ColumnValue per column.
// Text and Blob values are spans into payload; they are valid only as long
// as payload itself is not reused by the caller.
func Decode(payload []byte) ([]ColumnValue, error) {
	headerSize, n, err := ReadVarint(payload, 0)
	if err != nil {
		return nil, err
	}
	if headerSize == 0 || int(headerSize) > len(payload) {
		return nil, sharcerr.New("record.Decode", sharcerr.KindCorruptRecord,
			simpleError("header size out of range"), "headerSize", headerSize, "payloadLen", len(payload))
	}

	var serialTypes []uint64
	offset := n
	headerEnd := int(headerSize)
	for offset < headerEnd {
		st, read, err := ReadVarint(payload, offset)
		if err != nil {
			return nil, err
		}
		serialTypes = append(serialTypes, st)
		offset += read
	}

	values := make([]ColumnValue, len(serialTypes))
	bodyOffset := headerEnd
	for i, st := range serialTypes {
		size := serialTypeSize(st)
		if size < 0 {
			return nil, sharcerr.New("record.Decode", sharcerr.KindCorruptRecord,
				simpleError("serial type out of range"), "serialType", st, "column", i)
		}
		if bodyOffset+size > len(payload) {
			return nil, sharcerr.New("record.Decode", sharcerr.KindCorruptRecord,
				simpleError("column body truncated"), "column", i, "need", bodyOffset+size, "have", len(payload))
		}
		values[i] = decodeValue(st, payload[bodyOffset:bodyOffset+size])
		bodyOffset += size
	}
	return values, nil
}

func decodeValue(serialType uint64, span []byte) ColumnValue {
	switch serialType {
	case 0:
		return ColumnValue{Kind: KindNull}
	case 8:
		return ColumnValue{Kind: KindInt64, Int: 0}
	case 9:
		return ColumnValue{Kind: KindInt64, Int: 1}
	case 1:
		return ColumnValue{Kind: KindInt64, Int: int64(int8(span[0])), RawSize: 1}
	case 2:
		return ColumnValue{Kind: KindInt64, Int: int64(int16(binary.BigEndian.Uint16(span))), RawSize: 2}
	case 3:
		v := int64(span[0])<<16 | int64(span[1])<<8 | int64(span[2])
		if v&0x800000 != 0 {
			v |= ^int64(0xFFFFFF)
		}
		return ColumnValue{Kind: KindInt64, Int: v, RawSize: 3}
	case 4:
		return ColumnValue{Kind: KindInt64, Int: int64(int32(binary.BigEndian.Uint32(span))), RawSize: 4}
	case 5:
		v := int64(span[0])<<40 | int64(span[1])<<32 | int64(span[2])<<24 |
			int64(span[3])<<16 | int64(span[4])<<8 | int64(span[5])
		if v&0x800000000000 != 0 {
			v |= ^int64(0xFFFFFFFFFFFF)
		}
		return ColumnValue{Kind: KindInt64, Int: v, RawSize: 6}
	case 6:
		return ColumnValue{Kind: KindInt64, Int: int64(binary.BigEndian.Uint64(span)), RawSize: 8}
	case 7:
		bits := binary.BigEndian.Uint64(span)
		return ColumnValue{Kind: KindFloat64, Float: math.Float64frombits(bits), RawSize: 8}
	default:
		if serialType%2 == 0 {
			return ColumnValue{Kind: KindBlob, Span: span, RawSize: len(span)}
		}
		return ColumnValue{Kind: KindText, Span: span, RawSize: len(span)}
	}
}
