// Package testfixture builds minimal synthetic SQLite-compatible page
// buffers for unit tests, so packages never need a real file on disk.
package testfixture

import "encoding/binary"

// PageSize is the fixed page size used by every fixture built here.
const PageSize = 4096

var magic = [16]byte{'S', 'Q', 'L', 'i', 't', 'e', ' ', 'f', 'o', 'r', 'm', 'a', 't', ' ', '3', 0}

// EmptyFile builds an empty database: just the 100-byte header
// followed by an empty leaf-table page 1 (the schema table, with zero
// rows), padded to pageCount pages of zero bytes.
func EmptyFile(pageCount uint32) []byte {
	buf := make([]byte, int(pageCount)*PageSize)
	writeHeader(buf, pageCount)
	writeLeafTablePageHeader(buf[:PageSize], 100, 0, PageSize)
	return buf
}

func writeHeader(buf []byte, pageCount uint32) {
	copy(buf[0:16], magic[:])
	binary.BigEndian.PutUint16(buf[16:18], PageSize)
	buf[18] = 1 // write version
	buf[19] = 1 // read version
	buf[21] = 64
	buf[22] = 32
	buf[23] = 32
	binary.BigEndian.PutUint32(buf[28:32], pageCount)
	binary.BigEndian.PutUint32(buf[44:48], 4) // schema format
	binary.BigEndian.PutUint32(buf[56:60], 1) // text encoding UTF-8
}

// writeLeafTablePageHeader writes a B-tree leaf-table page header
// (type 0x0D) at headerOffset within page, with the given cell count and
// content-area start.
func writeLeafTablePageHeader(page []byte, headerOffset int, cellCount uint16, contentStart uint16) {
	page[headerOffset] = 0x0D
	binary.BigEndian.PutUint16(page[headerOffset+1:headerOffset+3], 0)
	binary.BigEndian.PutUint16(page[headerOffset+3:headerOffset+5], cellCount)
	binary.BigEndian.PutUint16(page[headerOffset+5:headerOffset+7], contentStart)
	page[headerOffset+7] = 0
}

// AppendVarint appends the SQLite varint encoding of v to buf.
func AppendVarint(buf []byte, v uint64) []byte {
	var tmp [9]byte
	if v > 0x00FFFFFFFFFFFFFF {
		tmp[8] = byte(v)
		v >>= 8
		for i := 7; i >= 0; i-- {
			tmp[i] = byte(v&0x7F) | 0x80
			v >>= 7
		}
		return append(buf, tmp[:9]...)
	}
	n := 0
	for {
		tmp[n] = byte(v & 0x7F)
		v >>= 7
		n++
		if v == 0 {
			break
		}
	}
	out := buf
	for i := n - 1; i >= 0; i-- {
		b := tmp[i]
		if i != 0 {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

// EncodeRecord builds an SQLite record payload from a sequence of
// already-serial-typed values: pass (serialType, bytes) pairs via cols.
func EncodeRecord(cols []FieldValue) []byte {
	var body []byte
	var headerTail []byte
	for _, c := range cols {
		headerTail = AppendVarint(headerTail, c.SerialType)
		body = append(body, c.Bytes...)
	}
	// header size varint is self-inclusive; try increasing widths until stable.
	hdrSizeFieldLen := 1
	for {
		total := hdrSizeFieldLen + len(headerTail)
		candidate := AppendVarint(nil, uint64(total))
		if len(candidate) == hdrSizeFieldLen {
			break
		}
		hdrSizeFieldLen = len(candidate)
	}
	header := AppendVarint(nil, uint64(hdrSizeFieldLen+len(headerTail)))
	out := make([]byte, 0, len(header)+len(headerTail)+len(body))
	out = append(out, header...)
	out = append(out, headerTail...)
	out = append(out, body...)
	return out
}

// FieldValue is one column's serial type plus its raw big-endian body.
type FieldValue struct {
	SerialType uint64
	Bytes      []byte
}

// Int64Field builds a FieldValue for an 8-byte big-endian integer.
func Int64Field(v int64) FieldValue {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return FieldValue{SerialType: 6, Bytes: b}
}

// TextField builds a FieldValue for a TEXT column.
func TextField(s string) FieldValue {
	return FieldValue{SerialType: uint64(13 + 2*len(s)), Bytes: []byte(s)}
}

// NullField builds a FieldValue for NULL.
func NullField() FieldValue {
	return FieldValue{SerialType: 0}
}
