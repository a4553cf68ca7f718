// Package btree implements typed cursors over SQLite-compatible table and
// index B-trees: interior descent by binary search, ascending-order
// traversal, and overflow-page payload materialization.
package btree

import (
	"encoding/binary"

	"github.com/revred/sharc/sharcerr"
)

// Page type bytes, per the on-disk format.
const (
	TypeInteriorIndex = 0x02
	TypeInteriorTable = 0x05
	TypeLeafIndex     = 0x0A
	TypeLeafTable     = 0x0D
)

type pageHeader struct {
	pageType         byte
	firstFreeblock   uint16
	cellCount        uint16
	contentStart     uint16
	fragmentedBytes  byte
	rightmostPointer uint32 // only for interior pages
	headerEnd        int    // offset within page where header ends (8 or 12 bytes on from base)
}

func isInterior(pageType byte) bool {
	return pageType == TypeInteriorIndex || pageType == TypeInteriorTable
}

func isIndexPage(pageType byte) bool {
	return pageType == TypeInteriorIndex || pageType == TypeLeafIndex
}

// parsePageHeader reads the B-tree page header located at base within raw
// (base is 0 for every page except page 1, where it is 100).
func parsePageHeader(raw []byte, base int) (pageHeader, error) {
	if base+8 > len(raw) {
		return pageHeader{}, sharcerr.New("btree.parsePageHeader", sharcerr.KindCorruptBTree,
			simpleError("page too small for header"))
	}
	h := pageHeader{
		pageType:        raw[base],
		firstFreeblock:  binary.BigEndian.Uint16(raw[base+1 : base+3]),
		cellCount:       binary.BigEndian.Uint16(raw[base+3 : base+5]),
		contentStart:    binary.BigEndian.Uint16(raw[base+5 : base+7]),
		fragmentedBytes: raw[base+7],
	}
	switch h.pageType {
	case TypeInteriorIndex, TypeInteriorTable, TypeLeafIndex, TypeLeafTable:
	default:
		return pageHeader{}, sharcerr.New("btree.parsePageHeader", sharcerr.KindCorruptBTree,
			simpleError("unrecognized page type"), "type", h.pageType)
	}
	h.headerEnd = base + 8
	if isInterior(h.pageType) {
		if base+12 > len(raw) {
			return pageHeader{}, sharcerr.New("btree.parsePageHeader", sharcerr.KindCorruptBTree,
				simpleError("interior page too small for header"))
		}
		h.rightmostPointer = binary.BigEndian.Uint32(raw[base+8 : base+12])
		h.headerEnd = base + 12
	}
	return h, nil
}

func parseCellPointers(raw []byte, h pageHeader) ([]uint16, error) {
	out := make([]uint16, h.cellCount)
	off := h.headerEnd
	for i := 0; i < int(h.cellCount); i++ {
		if off+2 > len(raw) {
			return nil, sharcerr.New("btree.parseCellPointers", sharcerr.KindCorruptBTree,
				simpleError("cell pointer array truncated"))
		}
		out[i] = binary.BigEndian.Uint16(raw[off : off+2])
		off += 2
	}
	return out, nil
}

type simpleError string

func (e simpleError) Error() string { return string(e) }
