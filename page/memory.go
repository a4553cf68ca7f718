package page

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/revred/sharc/sharcerr"
)

// MemorySource is a page source over a fixed in-memory byte buffer, the way
// a test fixture or an in-process snapshot would be built.
type MemorySource struct {
	mu       sync.RWMutex
	buf      []byte
	pageSize int
	count    uint32
	version  uint64
	readOnly bool
}

// NewMemorySource wraps buf, whose length must be a multiple of the page
// size declared in its own header.
func NewMemorySource(buf []byte, readOnly bool) (*MemorySource, error) {
	hdr, err := ParseHeader(buf)
	if err != nil {
		return nil, err
	}
	pageSize := hdr.ActualPageSize()
	if len(buf)%pageSize != 0 {
		return nil, sharcerr.New("page.NewMemorySource", sharcerr.KindCorruptPage,
			simpleError("buffer length not a multiple of page size"))
	}
	return &MemorySource{
		buf:      buf,
		pageSize: pageSize,
		count:    uint32(len(buf) / pageSize),
		readOnly: readOnly,
	}, nil
}

func (s *MemorySource) PageCount() uint32 { return atomic.LoadUint32(&s.count) }
func (s *MemorySource) PageSize() int     { return s.pageSize }
func (s *MemorySource) DataVersion() uint64 { return atomic.LoadUint64(&s.version) }

func (s *MemorySource) GetPage(ctx context.Context, n uint32) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, sharcerr.New("page.MemorySource.GetPage", sharcerr.KindCanceled, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := atomic.LoadUint32(&s.count)
	if n == 0 || n > count {
		return nil, invalidPage("page.MemorySource.GetPage", n, count)
	}
	start := int(n-1) * s.pageSize
	out := make([]byte, s.pageSize)
	copy(out, s.buf[start:start+s.pageSize])
	return out, nil
}

func (s *MemorySource) WritePage(ctx context.Context, n uint32, data []byte) error {
	if err := ctx.Err(); err != nil {
		return sharcerr.New("page.MemorySource.WritePage", sharcerr.KindCanceled, err)
	}
	if s.readOnly {
		return sharcerr.New("page.MemorySource.WritePage", sharcerr.KindReadOnly, simpleError("source is read-only"))
	}
	if len(data) != s.pageSize {
		return sharcerr.New("page.MemorySource.WritePage", sharcerr.KindCorruptPage,
			simpleError("page write size mismatch"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n == 0 {
		return invalidPage("page.MemorySource.WritePage", n, s.count)
	}
	if n > s.count {
		grown := make([]byte, int(n)*s.pageSize)
		copy(grown, s.buf)
		s.buf = grown
		s.count = n
	}
	start := int(n-1) * s.pageSize
	copy(s.buf[start:start+s.pageSize], data)
	atomic.AddUint64(&s.version, 1)
	return nil
}

func (s *MemorySource) Invalidate(uint32) {}
