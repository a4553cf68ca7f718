package btree

import (
	"context"
	"encoding/binary"

	"github.com/revred/sharc/page"
	"github.com/revred/sharc/record"
	"github.com/revred/sharc/sharcerr"
)

// cellInfo is the decoded shape of one cell, uniform across the four page
// types. For interior-table cells, payload is nil (pure routing, per the
// rowid-separator scheme); every other cell kind carries a decoded record.
type cellInfo struct {
	childPage uint32
	rowID     int64
	payload   []byte // record bytes, fully materialized (overflow resolved)
	values    []record.ColumnValue
}

// localPayloadLimits returns (maxLocal, minLocal) per the on-disk overflow
// formula. isIndex selects the table-cell vs index-cell constant.
func localPayloadLimits(usable int, isIndex bool) (maxLocal, minLocal int) {
	if isIndex {
		maxLocal = ((usable-12)*64)/255 - 23
	} else {
		maxLocal = usable - 35
	}
	minLocal = ((usable-12)*32)/255 - 23
	return maxLocal, minLocal
}

// localSize computes how many bytes of a payload of totalSize are stored
// in-cell before overflow, per the on-disk format's formula.
func localSize(usable int, isIndex bool, totalSize int) int {
	maxLocal, minLocal := localPayloadLimits(usable, isIndex)
	if totalSize <= maxLocal {
		return totalSize
	}
	k := minLocal + (totalSize-minLocal)%(usable-4)
	if k <= maxLocal {
		return k
	}
	return minLocal
}

// materializePayload resolves a (possibly overflowing) payload of
// totalSize bytes starting at offset in pageData, following the
// overflow-page chain through src. Non-overflowing payloads are returned
// as a view into pageData; an overflowing payload gets its own freshly
// allocated buffer, since a page frame holds many decoded cells at once
// and cannot share one scratch slice across them.
func materializePayload(ctx context.Context, src page.Source, pageData []byte, offset int, totalSize int, isIndex bool) ([]byte, int, error) {
	usable := len(pageData)

	local := localSize(usable, isIndex, totalSize)
	if offset+local > len(pageData) {
		return nil, 0, sharcerr.New("btree.materializePayload", sharcerr.KindCorruptBTree,
			simpleError("local payload exceeds page boundary"))
	}

	if local == totalSize {
		// No overflow: return a view directly; caller treats it as final.
		return pageData[offset : offset+local], offset + local, nil
	}

	if offset+local+4 > len(pageData) {
		return nil, 0, sharcerr.New("btree.materializePayload", sharcerr.KindCorruptBTree,
			simpleError("missing overflow pointer"))
	}
	firstOverflow := binary.BigEndian.Uint32(pageData[offset+local : offset+local+4])
	endOfCell := offset + local + 4

	buf := make([]byte, 0, totalSize)
	buf = append(buf, pageData[offset:offset+local]...)

	remaining := totalSize - local
	nextPage := firstOverflow
	for remaining > 0 {
		if nextPage == 0 {
			return nil, 0, sharcerr.New("btree.materializePayload", sharcerr.KindCorruptBTree,
				simpleError("overflow chain truncated"))
		}
		ovf, err := src.GetPage(ctx, nextPage)
		if err != nil {
			return nil, 0, err
		}
		if len(ovf) < 4 {
			return nil, 0, sharcerr.New("btree.materializePayload", sharcerr.KindCorruptBTree,
				simpleError("overflow page too small"))
		}
		nextPage = binary.BigEndian.Uint32(ovf[0:4])
		chunk := len(ovf) - 4
		if chunk > remaining {
			chunk = remaining
		}
		buf = append(buf, ovf[4:4+chunk]...)
		remaining -= chunk
	}
	return buf, endOfCell, nil
}

// readCell parses one cell at cellOffset in pageData, per pageType. src and
// ctx are only used when overflow pages must be chased.
func readCell(ctx context.Context, src page.Source, pageData []byte, cellOffset int, pageType byte) (cellInfo, error) {
	switch pageType {
	case TypeInteriorTable:
		if cellOffset+4 > len(pageData) {
			return cellInfo{}, sharcerr.New("btree.readCell", sharcerr.KindCorruptBTree, simpleError("interior cell truncated"))
		}
		child := binary.BigEndian.Uint32(pageData[cellOffset : cellOffset+4])
		rowID, _, err := record.ReadVarint(pageData, cellOffset+4)
		if err != nil {
			return cellInfo{}, err
		}
		return cellInfo{childPage: child, rowID: int64(rowID)}, nil

	case TypeLeafTable:
		payloadSize, n, err := record.ReadVarint(pageData, cellOffset)
		if err != nil {
			return cellInfo{}, err
		}
		rowID, n2, err := record.ReadVarint(pageData, cellOffset+n)
		if err != nil {
			return cellInfo{}, err
		}
		payload, _, err := materializePayload(ctx, src, pageData, cellOffset+n+n2, int(payloadSize), false)
		if err != nil {
			return cellInfo{}, err
		}
		values, err := record.Decode(payload)
		if err != nil {
			return cellInfo{}, err
		}
		return cellInfo{rowID: int64(rowID), payload: payload, values: values}, nil

	case TypeInteriorIndex:
		if cellOffset+4 > len(pageData) {
			return cellInfo{}, sharcerr.New("btree.readCell", sharcerr.KindCorruptBTree, simpleError("interior index cell truncated"))
		}
		child := binary.BigEndian.Uint32(pageData[cellOffset : cellOffset+4])
		payloadSize, n, err := record.ReadVarint(pageData, cellOffset+4)
		if err != nil {
			return cellInfo{}, err
		}
		payload, _, err := materializePayload(ctx, src, pageData, cellOffset+4+n, int(payloadSize), true)
		if err != nil {
			return cellInfo{}, err
		}
		values, err := record.Decode(payload)
		if err != nil {
			return cellInfo{}, err
		}
		return cellInfo{childPage: child, payload: payload, values: values, rowID: trailingRowID(values)}, nil

	case TypeLeafIndex:
		payloadSize, n, err := record.ReadVarint(pageData, cellOffset)
		if err != nil {
			return cellInfo{}, err
		}
		payload, _, err := materializePayload(ctx, src, pageData, cellOffset+n, int(payloadSize), true)
		if err != nil {
			return cellInfo{}, err
		}
		values, err := record.Decode(payload)
		if err != nil {
			return cellInfo{}, err
		}
		return cellInfo{payload: payload, values: values, rowID: trailingRowID(values)}, nil

	default:
		return cellInfo{}, sharcerr.New("btree.readCell", sharcerr.KindCorruptBTree, simpleError("unrecognized page type"))
	}
}

// trailingRowID extracts the rowid that an index record always carries as
// its final column.
func trailingRowID(values []record.ColumnValue) int64 {
	if len(values) == 0 {
		return 0
	}
	last := values[len(values)-1]
	if last.Kind == record.KindInt64 {
		return last.Int
	}
	return 0
}
