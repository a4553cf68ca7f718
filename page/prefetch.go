package page

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Prefetch warms src's page cache for every page number in pages,
// fetching them concurrently bounded by maxConcurrency (a non-positive
// value disables the bound, fetching everything at once). Grounded on the
// teacher's readCellsFromPage1's per-cell sync.WaitGroup/semaphore fan-out
// over a fixed page's cells; here the fan-out is over whole root pages
// instead, using errgroup's SetLimit rather than a hand-rolled wait group
// and error slice. A GetPage failure on one page cancels the remaining
// fetches and is returned.
func Prefetch(ctx context.Context, src Source, pages []uint32, maxConcurrency int) error {
	g, ctx := errgroup.WithContext(ctx)
	if maxConcurrency > 0 {
		g.SetLimit(maxConcurrency)
	}
	for _, n := range pages {
		n := n
		g.Go(func() error {
			_, err := src.GetPage(ctx, n)
			return err
		})
	}
	return g.Wait()
}
