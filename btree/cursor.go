package btree

import (
	"context"

	"github.com/revred/sharc/page"
	"github.com/revred/sharc/record"
	"github.com/revred/sharc/sharcerr"
)

// frame is one level of cursor descent: the page's decoded cells plus the
// child index currently (or most recently) being explored.
type frame struct {
	pageNum    uint32
	pageType   byte
	cells      []cellInfo
	rightChild uint32
	cur        int // child index in progress; see advance() for semantics
}

func (f *frame) childCount() int { return len(f.cells) + 1 }

func (f *frame) childAt(idx int) uint32 {
	if idx < len(f.cells) {
		return f.cells[idx].childPage
	}
	return f.rightChild
}

// Cursor is a typed cursor over a table or index B-tree rooted at one
// page. It is not safe for concurrent use.
type Cursor struct {
	ctx     context.Context
	src     page.Source
	root    uint32
	isIndex bool // true: index B-tree (interior cells carry real rows); false: table B-tree

	stack []frame
	eof   bool
	atBOF bool // true before the first MoveNext call

	curRowID  int64
	curValues []record.ColumnValue
}

// OpenTable opens a cursor over a table B-tree rooted at root.
func OpenTable(ctx context.Context, src page.Source, root uint32) (*Cursor, error) {
	c := &Cursor{ctx: ctx, src: src, root: root, isIndex: false, atBOF: true}
	if err := c.reset(); err != nil {
		return nil, err
	}
	return c, nil
}

// OpenIndex opens a cursor over an index B-tree rooted at root.
func OpenIndex(ctx context.Context, src page.Source, root uint32) (*Cursor, error) {
	c := &Cursor{ctx: ctx, src: src, root: root, isIndex: true, atBOF: true}
	if err := c.reset(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cursor) loadFrame(pageNum uint32) (frame, error) {
	raw, err := c.src.GetPage(c.ctx, pageNum)
	if err != nil {
		return frame{}, err
	}
	base := 0
	if pageNum == 1 {
		base = 100
	}
	hdr, err := parsePageHeader(raw, base)
	if err != nil {
		return frame{}, err
	}
	if c.isIndex != isIndexPage(hdr.pageType) {
		return frame{}, sharcerr.New("btree.loadFrame", sharcerr.KindCorruptBTree,
			simpleError("page type does not match cursor kind"), "page", pageNum, "type", hdr.pageType)
	}
	offsets, err := parseCellPointers(raw, hdr)
	if err != nil {
		return frame{}, err
	}
	cells := make([]cellInfo, len(offsets))
	for i, off := range offsets {
		cell, err := readCell(c.ctx, c.src, raw, int(off), hdr.pageType)
		if err != nil {
			return frame{}, err
		}
		cells[i] = cell
	}
	return frame{
		pageNum:    pageNum,
		pageType:   hdr.pageType,
		cells:      cells,
		rightChild: hdr.rightmostPointer,
		cur:        0,
	}, nil
}

// emitsOwnRows reports whether interior cells of this cursor's kind carry
// a real output row (true B-tree index semantics) or are pure routing
// (table B-tree rowid separators).
func (c *Cursor) emitsOwnRows() bool { return c.isIndex }

func (c *Cursor) reset() error {
	c.stack = c.stack[:0]
	c.eof = false
	c.atBOF = true
	return c.descendToLeftmost(c.root)
}

func (c *Cursor) descendToLeftmost(pageNum uint32) error {
	for {
		fr, err := c.loadFrame(pageNum)
		if err != nil {
			return err
		}
		fr.cur = 0
		c.stack = append(c.stack, fr)
		if !isInterior(fr.pageType) {
			return nil
		}
		if len(c.stack) > maxDepth {
			return sharcerr.New("btree.descendToLeftmost", sharcerr.KindCorruptBTree, simpleError("descent depth exceeded, likely a page cycle"))
		}
		pageNum = fr.childAt(0)
	}
}

const maxDepth = 64

// MoveNext advances to the next cell in key order. It returns false once
// the traversal is exhausted.
func (c *Cursor) MoveNext() (bool, error) {
	if c.eof {
		return false, nil
	}
	c.atBOF = false
	for {
		if len(c.stack) == 0 {
			c.eof = true
			return false, nil
		}
		top := &c.stack[len(c.stack)-1]
		if err := c.ctx.Err(); err != nil {
			return false, sharcerr.New("btree.MoveNext", sharcerr.KindCanceled, err)
		}

		if !isInterior(top.pageType) {
			if top.cur < len(top.cells) {
				cell := top.cells[top.cur]
				top.cur++
				c.curRowID = cell.rowID
				c.curValues = cell.values
				return true, nil
			}
			c.stack = c.stack[:len(c.stack)-1]
			continue
		}

		n := len(top.cells)
		childJustDone := top.cur
		emit := c.emitsOwnRows() && childJustDone < n
		if emit {
			cell := top.cells[childJustDone]
			top.cur = childJustDone + 1
			if err := c.descendToLeftmost(top.childAt(top.cur)); err != nil {
				return false, err
			}
			c.curRowID = cell.rowID
			c.curValues = cell.values
			return true, nil
		}
		top.cur = childJustDone + 1
		if top.cur <= n {
			if err := c.descendToLeftmost(top.childAt(top.cur)); err != nil {
				return false, err
			}
			continue
		}
		c.stack = c.stack[:len(c.stack)-1]
	}
}

// RowID returns the rowid of the current cell.
func (c *Cursor) RowID() int64 { return c.curRowID }

// Values returns the decoded column values of the current cell's record.
func (c *Cursor) Values() []record.ColumnValue { return c.curValues }

// Comparator compares a cell's decoded key against a target, returning
// <0, 0, or >0. For table cursors the comparison is over RowID alone; for
// index cursors it runs over the decoded record (including the trailing
// rowid column, so a target that omits it should treat a missing column
// as matching any value in that position).
type Comparator func(rowID int64, values []record.ColumnValue) int

// seek positions the cursor using cmp as the ordering function, then
// returns the first qualifying cell via a single MoveNext. It is the
// shared implementation behind Seek/SeekGe/SeekGt; acceptExact controls whether
// an exact (cmp==0) match is accepted as-is or skipped (SeekGt semantics).
func (c *Cursor) seek(cmp Comparator, acceptExact bool) (bool, error) {
	c.stack = c.stack[:0]
	c.eof = false
	c.atBOF = true

	pageNum := c.root
	for {
		fr, err := c.loadFrame(pageNum)
		if err != nil {
			return false, err
		}
		idx := firstGE(fr.cells, cmp, acceptExact)
		fr.cur = idx
		c.stack = append(c.stack, fr)
		if !isInterior(fr.pageType) {
			break
		}
		if len(c.stack) > maxDepth {
			return false, sharcerr.New("btree.seek", sharcerr.KindCorruptBTree, simpleError("descent depth exceeded, likely a page cycle"))
		}
		pageNum = fr.childAt(idx)
	}

	return c.MoveNext()
}

// firstGE returns the smallest index i such that cmp(cells[i]) >= 0 (or,
// when acceptExact is false, > 0), and len(cells) if none qualify.
func firstGE(cells []cellInfo, cmp Comparator, acceptExact bool) int {
	lo, hi := 0, len(cells)
	for lo < hi {
		mid := (lo + hi) / 2
		c := cmp(cells[mid].rowID, cells[mid].values)
		qualifies := c > 0 || (acceptExact && c == 0)
		if qualifies {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// Seek descends to the leaf cell whose key equals the comparator's target;
// if absent, it positions at the first cell with key > target. It reports
// true on an exact hit.
func (c *Cursor) Seek(cmp Comparator) (bool, error) {
	found, err := c.seek(cmp, true)
	if err != nil || !found {
		return false, err
	}
	return cmp(c.curRowID, c.curValues) == 0, nil
}

// SeekGe positions the cursor at the first cell with key >= target.
func (c *Cursor) SeekGe(cmp Comparator) (bool, error) {
	return c.seek(cmp, true)
}

// SeekGt positions the cursor at the first cell with key > target.
func (c *Cursor) SeekGt(cmp Comparator) (bool, error) {
	return c.seek(cmp, false)
}

// Close releases the cursor's state. Cursors hold no external resources
// beyond page-source spans, which the source itself owns.
func (c *Cursor) Close() {
	c.stack = nil
}
