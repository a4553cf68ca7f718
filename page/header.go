package page

import (
	"bytes"
	"encoding/binary"

	"github.com/revred/sharc/sharcerr"
)

// HeaderSize is the fixed size of the file header at offset 0.
const HeaderSize = 100

var magicPrefix = [16]byte{'S', 'Q', 'L', 'i', 't', 'e', ' ', 'f', 'o', 'r', 'm', 'a', 't', ' ', '3', 0}

// Header is the 100-byte file header living at the start of page 1.
type Header struct {
	Magic           [16]byte
	PageSizeRaw     uint16
	WriteVersion    uint8
	ReadVersion     uint8
	ReservedBytes   uint8
	MaxPayloadFrac  uint8
	MinPayloadFrac  uint8
	LeafPayloadFrac uint8
	FileChangeCount uint32
	PageCountRaw    uint32
	FirstFreePage   uint32
	FreePageCount   uint32
	SchemaCookie    uint32
	SchemaFormat    uint32
	DefaultCacheKiB uint32
	LargestRootPage uint32
	TextEncoding    uint32
	UserVersion     uint32
	IncrVacuum      uint32
	AppID           uint32
	_               [20]byte
	VersionValid    uint32
	SQLiteVersion   uint32
}

// ParseHeader decodes the 100-byte header from the start of page 1.
func ParseHeader(raw []byte) (*Header, error) {
	if len(raw) < HeaderSize {
		return nil, sharcerr.New("page.ParseHeader", sharcerr.KindCorruptPage,
			simpleError("short file header"), "have", len(raw), "need", HeaderSize)
	}
	h := &Header{}
	if err := binary.Read(bytes.NewReader(raw[:HeaderSize]), binary.BigEndian, h); err != nil {
		return nil, sharcerr.New("page.ParseHeader", sharcerr.KindCorruptPage, err)
	}
	if h.Magic != magicPrefix {
		return nil, sharcerr.New("page.ParseHeader", sharcerr.KindCorruptPage,
			simpleError("bad magic number"))
	}
	size := h.ActualPageSize()
	if size < MinSize || size > MaxSize || (size&(size-1)) != 0 {
		return nil, sharcerr.New("page.ParseHeader", sharcerr.KindCorruptPage,
			simpleError("invalid page size"), "pageSize", size)
	}
	return h, nil
}

// ActualPageSize resolves the stored 16-bit field, where the legacy value 1
// means 65536 bytes.
func (h *Header) ActualPageSize() int {
	if h.PageSizeRaw == 1 {
		return MaxSize
	}
	return int(h.PageSizeRaw)
}
