package page

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/revred/sharc/sharcerr"
)

// FileSource is a page source backed by an os.File, with a fixed-capacity
// LRU cache of whole pages. Reader-dominant: the cache lock is only held
// across the slot lookup and the LRU pointer update, never across disk I/O.
type FileSource struct {
	file     *os.File
	pageSize int
	mu       sync.RWMutex
	count    uint32
	version  uint64
	cache    *lru.Cache[uint32, []byte]
	log      *zap.Logger
	readOnly bool
}

// OpenFile opens path and parses its header. cacheCapacity is the number of
// whole pages the LRU cache retains.
func OpenFile(path string, cacheCapacity int, readOnly bool, log *zap.Logger) (*FileSource, error) {
	if log == nil {
		log = zap.NewNop()
	}
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, sharcerr.New("page.OpenFile", sharcerr.KindInvalidPage, err, "path", path)
	}
	hdrBuf := make([]byte, HeaderSize)
	if _, err := f.ReadAt(hdrBuf, 0); err != nil {
		f.Close()
		return nil, sharcerr.New("page.OpenFile", sharcerr.KindCorruptPage, err)
	}
	hdr, err := ParseHeader(hdrBuf)
	if err != nil {
		f.Close()
		return nil, err
	}
	pageSize := hdr.ActualPageSize()

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, sharcerr.New("page.OpenFile", sharcerr.KindCorruptPage, err)
	}
	declared := hdr.PageCountRaw
	if maxByBacking := uint32(info.Size() / int64(pageSize)); declared > maxByBacking {
		f.Close()
		return nil, sharcerr.New("page.OpenFile", sharcerr.KindCorruptPage,
			simpleError("declared page count exceeds backing file size"),
			"declared", declared, "backing", maxByBacking)
	}

	if cacheCapacity <= 0 {
		cacheCapacity = 128
	}
	cache, err := lru.New[uint32, []byte](cacheCapacity)
	if err != nil {
		f.Close()
		return nil, sharcerr.New("page.OpenFile", sharcerr.KindCorruptPage, err)
	}

	return &FileSource{
		file:     f,
		pageSize: pageSize,
		count:    declared,
		cache:    cache,
		log:      log,
		readOnly: readOnly,
	}, nil
}

func (s *FileSource) Close() error { return s.file.Close() }

func (s *FileSource) PageCount() uint32     { return atomic.LoadUint32(&s.count) }
func (s *FileSource) PageSize() int         { return s.pageSize }
func (s *FileSource) DataVersion() uint64   { return atomic.LoadUint64(&s.version) }

func (s *FileSource) GetPage(ctx context.Context, n uint32) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, sharcerr.New("page.FileSource.GetPage", sharcerr.KindCanceled, err)
	}
	count := atomic.LoadUint32(&s.count)
	if n == 0 || n > count {
		return nil, invalidPage("page.FileSource.GetPage", n, count)
	}

	s.mu.RLock()
	cached, ok := s.cache.Get(n)
	s.mu.RUnlock()
	if ok {
		out := make([]byte, s.pageSize)
		copy(out, cached)
		return out, nil
	}

	buf := make([]byte, s.pageSize)
	offset := int64(n-1) * int64(s.pageSize)
	read, err := s.file.ReadAt(buf, offset)
	if err != nil {
		return nil, sharcerr.New("page.FileSource.GetPage", sharcerr.KindCorruptPage, err, "page", n)
	}
	if read != s.pageSize {
		return nil, sharcerr.New("page.FileSource.GetPage", sharcerr.KindCorruptPage,
			simpleError("short page read"), "page", n, "read", read)
	}

	s.mu.Lock()
	s.cache.Add(n, buf)
	s.mu.Unlock()
	s.log.Debug("page fault", zap.Uint32("page", n))

	out := make([]byte, s.pageSize)
	copy(out, buf)
	return out, nil
}

func (s *FileSource) WritePage(ctx context.Context, n uint32, data []byte) error {
	if err := ctx.Err(); err != nil {
		return sharcerr.New("page.FileSource.WritePage", sharcerr.KindCanceled, err)
	}
	if s.readOnly {
		return sharcerr.New("page.FileSource.WritePage", sharcerr.KindReadOnly, simpleError("source is read-only"))
	}
	if len(data) != s.pageSize {
		return sharcerr.New("page.FileSource.WritePage", sharcerr.KindCorruptPage, simpleError("page write size mismatch"))
	}
	offset := int64(n-1) * int64(s.pageSize)
	if _, err := s.file.WriteAt(data, offset); err != nil {
		return sharcerr.New("page.FileSource.WritePage", sharcerr.KindCorruptPage, err, "page", n)
	}

	s.mu.Lock()
	if n > s.count {
		s.count = n
	}
	s.cache.Remove(n)
	s.mu.Unlock()
	atomic.AddUint64(&s.version, 1)
	s.log.Debug("page written", zap.Uint32("page", n))
	return nil
}

func (s *FileSource) Invalidate(n uint32) {
	s.mu.Lock()
	s.cache.Remove(n)
	s.mu.Unlock()
	s.log.Debug("page cache evicted", zap.Uint32("page", n))
}
