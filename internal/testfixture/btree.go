package testfixture

import "encoding/binary"

// layoutPage writes cells (already-encoded cell bytes, in the order they
// should appear in the cell-pointer array) into page, back-to-front from
// the end of the page, and fills in the page header at headerOffset.
// pageType selects 0x02/0x05/0x0A/0x0D; rightmostPointer is only written
// for interior page types.
func layoutPage(page []byte, headerOffset int, pageType byte, cells [][]byte, rightmostPointer uint32) {
	interior := pageType == 0x02 || pageType == 0x05
	hdrLen := 8
	if interior {
		hdrLen = 12
	}
	ptrArrayStart := headerOffset + hdrLen
	contentEnd := len(page)
	offsets := make([]uint16, len(cells))
	for i := len(cells) - 1; i >= 0; i-- {
		contentEnd -= len(cells[i])
		copy(page[contentEnd:], cells[i])
		offsets[i] = uint16(contentEnd)
	}

	page[headerOffset] = pageType
	binary.BigEndian.PutUint16(page[headerOffset+1:headerOffset+3], 0)
	binary.BigEndian.PutUint16(page[headerOffset+3:headerOffset+5], uint16(len(cells)))
	binary.BigEndian.PutUint16(page[headerOffset+5:headerOffset+7], uint16(contentEnd))
	page[headerOffset+7] = 0
	if interior {
		binary.BigEndian.PutUint32(page[headerOffset+8:headerOffset+12], rightmostPointer)
	}
	for i, off := range offsets {
		binary.BigEndian.PutUint16(page[ptrArrayStart+2*i:ptrArrayStart+2*i+2], off)
	}
}

// LeafTableCell encodes one (rowid, record-payload) table leaf cell.
func LeafTableCell(rowid int64, payload []byte) []byte {
	var out []byte
	out = AppendVarint(out, uint64(len(payload)))
	out = AppendVarint(out, zigzagRowid(rowid))
	out = append(out, payload...)
	return out
}

// InteriorTableCell encodes one (childPage, rowid-separator) interior cell.
func InteriorTableCell(childPage uint32, rowid int64) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, childPage)
	return AppendVarint(out, zigzagRowid(rowid))
}

func zigzagRowid(rowid int64) uint64 {
	// rowids in these fixtures are always non-negative; store as-is.
	return uint64(rowid)
}

// LeafIndexCell encodes one index leaf cell from an already-built record
// payload (key columns followed by trailing rowid column).
func LeafIndexCell(payload []byte) []byte {
	var out []byte
	out = AppendVarint(out, uint64(len(payload)))
	out = append(out, payload...)
	return out
}

// InteriorIndexCell encodes one interior index cell.
func InteriorIndexCell(childPage uint32, payload []byte) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, childPage)
	out = AppendVarint(out, uint64(len(payload)))
	return append(out, payload...)
}

// SingleLeafTableFile builds a one-page-1-schema + one data-page database
// where page 2 is a leaf-table page holding the given cells, page 1 is an
// empty schema leaf.
func SingleLeafTableFile(rows map[int64][]byte) []byte {
	buf := make([]byte, 2*PageSize)
	writeHeader(buf, 2)
	layoutPage(buf[:PageSize], 100, 0x0D, nil, 0)

	ids := sortedKeys(rows)
	cells := make([][]byte, len(ids))
	for i, id := range ids {
		cells[i] = LeafTableCell(id, rows[id])
	}
	layoutPage(buf[PageSize:2*PageSize], 0, 0x0D, cells, 0)
	return buf
}

// MultiLeafTableFile builds a database with one interior root page (page
// 2) fanning out to leaf pages 3..N+2, each holding a contiguous run of
// rowid-ordered rows from rows. Page 1 is an empty schema leaf. Returns
// the buffer and the root page number (always 2).
func MultiLeafTableFile(rows map[int64][]byte, leafCount int) ([]byte, uint32) {
	ids := sortedKeys(rows)
	totalPages := uint32(2 + leafCount)
	buf := make([]byte, int(totalPages)*PageSize)
	writeHeader(buf, totalPages)
	layoutPage(buf[:PageSize], 100, 0x0D, nil, 0)

	chunkSize := (len(ids) + leafCount - 1) / leafCount
	var interiorCells [][]byte
	var rightmost uint32
	leafPageBase := uint32(3)
	for leaf := 0; leaf < leafCount; leaf++ {
		start := leaf * chunkSize
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		pageNum := leafPageBase + uint32(leaf)
		var cells [][]byte
		var maxRowID int64
		for _, id := range ids[start:end] {
			cells = append(cells, LeafTableCell(id, rows[id]))
			maxRowID = id
		}
		pageOffset := int(pageNum-1) * PageSize
		layoutPage(buf[pageOffset:pageOffset+PageSize], 0, 0x0D, cells, 0)

		if leaf == leafCount-1 {
			rightmost = pageNum
		} else {
			interiorCells = append(interiorCells, InteriorTableCell(pageNum, maxRowID))
		}
	}
	pageOffset := PageSize // page 2
	layoutPage(buf[pageOffset:pageOffset+PageSize], 0, 0x05, interiorCells, rightmost)
	return buf, 2
}

// SchemaRow is one row of the sqlite_master schema table used by
// SchemaFile.
type SchemaRow struct {
	Type     string
	Name     string
	TblName  string
	RootPage int64
	SQL      string
}

// SchemaFile builds a database whose page 1 is a leaf-table page holding
// the given schema rows (rowid = 1-based row order), used by catalog
// tests to avoid needing a real sqlite_master page on disk.
func SchemaFile(rows []SchemaRow) []byte {
	buf := make([]byte, PageSize)
	writeHeader(buf, 1)

	cells := make([][]byte, len(rows))
	for i, r := range rows {
		payload := EncodeRecord([]FieldValue{
			TextField(r.Type),
			TextField(r.Name),
			TextField(r.TblName),
			Int64Field(r.RootPage),
			TextField(r.SQL),
		})
		cells[i] = LeafTableCell(int64(i+1), payload)
	}
	layoutPage(buf, 100, 0x0D, cells, 0)
	return buf
}

// Database builds a multi-table fixture: page 1 holds schema (built the
// same way SchemaFile does), and each entry of dataPages lays out a single
// leaf-table (0x0D) page at the given 1-indexed page number.
// Callers pick page numbers matching the RootPage declared in their
// SchemaRow entries. Pages not named in dataPages are left zeroed.
func Database(schema []SchemaRow, dataPages map[uint32][][]byte) []byte {
	maxPage := uint32(1)
	for p := range dataPages {
		if p > maxPage {
			maxPage = p
		}
	}
	buf := make([]byte, int(maxPage)*PageSize)
	writeHeader(buf, maxPage)

	schemaCells := make([][]byte, len(schema))
	for i, r := range schema {
		payload := EncodeRecord([]FieldValue{
			TextField(r.Type),
			TextField(r.Name),
			TextField(r.TblName),
			Int64Field(r.RootPage),
			TextField(r.SQL),
		})
		schemaCells[i] = LeafTableCell(int64(i+1), payload)
	}
	layoutPage(buf[:PageSize], 100, 0x0D, schemaCells, 0)

	for page, cells := range dataPages {
		offset := int(page-1) * PageSize
		layoutPage(buf[offset:offset+PageSize], 0, 0x0D, cells, 0)
	}
	return buf
}

func sortedKeys(rows map[int64][]byte) []int64 {
	ids := make([]int64, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}
