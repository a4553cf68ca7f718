// Package page implements the byte-addressable page source that every
// higher layer of Sharc reads through: header parsing, whole-page caching,
// and the read/write surface for a single SQLite-compatible file.
package page

import (
	"context"

	"github.com/revred/sharc/sharcerr"
)

// MinSize and MaxSize are the minimum and maximum legal SQLite page sizes.
const (
	MinSize = 512
	MaxSize = 65536
)

// Source is a byte-addressable page store. Pages are 1-indexed, matching
// the on-disk format. Implementations must be safe for concurrent GetPage
// calls from independent cursors.
type Source interface {
	// PageCount returns the number of pages currently in the store.
	PageCount() uint32
	// PageSize returns the fixed page size in bytes.
	PageSize() int
	// GetPage returns the bytes of page n (1-indexed). The returned slice
	// must not be mutated by the caller and is only guaranteed stable
	// until the next write through this Source.
	GetPage(ctx context.Context, n uint32) ([]byte, error)
	// DataVersion returns a counter bumped on every successful write.
	DataVersion() uint64
	// Invalidate drops any cached copy of page n, forcing a re-read.
	Invalidate(n uint32)
}

// Writer is implemented by page sources that accept writes. A Source that
// does not implement Writer is read-only.
type Writer interface {
	WritePage(ctx context.Context, n uint32, data []byte) error
}

func invalidPage(op string, n uint32, count uint32) error {
	return sharcerr.New(op, sharcerr.KindInvalidPage, errInvalidPage,
		"page", n, "pageCount", count)
}

var errInvalidPage = simpleError("page number out of range")

type simpleError string

func (e simpleError) Error() string { return string(e) }
