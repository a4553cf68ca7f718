package exec

import "container/heap"

// LessFunc orders two rows for Top-N retention: Less(a, b) reports whether
// a sorts before b under the query's orderBy comparator (NULL-last by
// default is the caller's responsibility to encode here).
type LessFunc func(a, b Row) bool

// TopN is a bounded heap of capacity n retaining the n best rows seen via
// TryInsert under less, discarding the current worst retained row once
// full. The heap root always holds the worst currently-retained row so an
// arriving row that beats the root replaces it (spec §4.8.3).
type TopN struct {
	capacity int
	less     LessFunc
	h        *topHeap
}

// NewTopN builds a TopN of the given capacity ordered by less.
func NewTopN(capacity int, less LessFunc) *TopN {
	h := &topHeap{less: less}
	heap.Init(h)
	return &TopN{capacity: capacity, less: less, h: h}
}

// TryInsert offers row to the heap.
func (t *TopN) TryInsert(row Row) {
	if t.capacity <= 0 {
		return
	}
	if t.h.Len() < t.capacity {
		heap.Push(t.h, row)
		return
	}
	root := t.h.rows[0]
	// worse than root: root holds the currently-worst retained row (i.e.
	// the row that sorts *last* among retained rows); row replaces it only
	// if row sorts before root.
	if t.less(row, root) {
		t.h.rows[0] = row
		heap.Fix(t.h, 0)
	}
}

// ExtractSorted drains the heap into ascending (best-first) order.
func (t *TopN) ExtractSorted() []Row {
	n := t.h.Len()
	out := make([]Row, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = heap.Pop(t.h).(Row)
	}
	return out
}

// topHeap is a max-heap under less (root = worst retained row, i.e. the
// row that is NOT less than every other retained row).
type topHeap struct {
	rows []Row
	less LessFunc
}

func (h *topHeap) Len() int { return len(h.rows) }
func (h *topHeap) Less(i, j int) bool {
	// inverted: heap root should be the "largest" (worst) under less, so
	// container/heap's min-heap becomes a max-heap over `less`.
	return h.less(h.rows[j], h.rows[i])
}
func (h *topHeap) Swap(i, j int) { h.rows[i], h.rows[j] = h.rows[j], h.rows[i] }
func (h *topHeap) Push(x any)    { h.rows = append(h.rows, x.(Row)) }
func (h *topHeap) Pop() any {
	n := len(h.rows)
	x := h.rows[n-1]
	h.rows = h.rows[:n-1]
	return x
}
