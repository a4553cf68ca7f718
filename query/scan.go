package query

import (
	"context"

	"github.com/RoaringBitmap/roaring"

	"github.com/revred/sharc/btree"
	"github.com/revred/sharc/catalog"
	"github.com/revred/sharc/page"
	"github.com/revred/sharc/predicate"
	"github.com/revred/sharc/planner"
	"github.com/revred/sharc/record"
)

// qualify prefixes every column name with alias (or the table's own name
// when alias is empty), matching the "alias.column" lookup form frames use
// once a join is in play.
func qualify(table catalog.Table, alias string) []string {
	if alias == "" {
		alias = table.Name
	}
	cols := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = alias + "." + c.Name
	}
	return cols
}

// scanTable reads every row of table through the plan chosen by
// planner.Select, re-validating every candidate against the full filter
// (the plan only narrows which rows are fetched; it never substitutes for
// evaluating the complete predicate, since extra columns on a composite
// index leg, Or-branches, and overlay rows all still need a full pass).
func scanTable(ctx context.Context, db *Database, table catalog.Table, alias string, filter *predicate.Intent, params predicate.Params) ([][]record.ColumnValue, error) {
	cols := qualify(table, alias)

	var conds []predicate.SargableCondition
	if filter != nil {
		conds, _ = predicate.SargableConditions(filter, filter.Root)
	}
	// Sargable conditions are expressed in possibly-qualified column names;
	// the planner matches them against bare catalog column names, so strip
	// any leading "alias." before selecting a plan.
	bare := make([]predicate.SargableCondition, len(conds))
	for i, c := range conds {
		bare[i] = c
		bare[i].ColumnName = bareColumn(c.ColumnName)
	}

	plan := planner.Select(bare, db.cat.IndexesFor(table.Name))

	var rowIDs *roaring.Bitmap
	switch plan.Strategy {
	case planner.SingleIndex:
		ids, err := seekIndexRowIDs(ctx, db.src, *plan.Primary, params)
		if err != nil {
			return nil, err
		}
		rowIDs = ids
	case planner.RowIdIntersection:
		primary, err := seekIndexRowIDs(ctx, db.src, *plan.Primary, params)
		if err != nil {
			return nil, err
		}
		secondary, err := seekIndexRowIDs(ctx, db.src, *plan.Secondary, params)
		if err != nil {
			return nil, err
		}
		rowIDs = roaring.And(primary, secondary)
	}

	var out [][]record.ColumnValue
	if rowIDs == nil {
		rows, err := fullTableScan(ctx, db.src, table)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			ok, err := evalFilter(filter, cols, row, params)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, row)
			}
		}
	} else {
		cur, err := btree.OpenTable(ctx, db.src, table.RootPage)
		if err != nil {
			return nil, err
		}
		defer cur.Close()
		it := rowIDs.Iterator()
		for it.HasNext() {
			id := int64(it.Next())
			found, err := cur.Seek(btree.RowIDComparator(id))
			if err != nil {
				return nil, err
			}
			if !found {
				continue
			}
			row := withRowID(table, cur.RowID(), cur.Values())
			ok, err := evalFilter(filter, cols, row, params)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, row)
			}
		}
	}

	overlay := db.overlayRows(table.Name)
	for _, row := range overlay {
		ok, err := evalFilter(filter, cols, row, params)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}

	return out, nil
}

func bareColumn(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}

// withRowID substitutes the table's own INTEGER PRIMARY KEY alias column
// (never physically stored) with the cell's rowid.
func withRowID(table catalog.Table, rowID int64, values []record.ColumnValue) []record.ColumnValue {
	out := append([]record.ColumnValue{}, values...)
	if aliasName, ok := table.RowIDAliasColumn(); ok {
		if idx := table.ColumnIndex(aliasName); idx >= 0 && idx < len(out) {
			out[idx] = record.ColumnValue{Kind: record.KindInt64, Int: rowID}
		}
	}
	return out
}

func fullTableScan(ctx context.Context, src page.Source, table catalog.Table) ([][]record.ColumnValue, error) {
	cur, err := btree.OpenTable(ctx, src, table.RootPage)
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	var rows [][]record.ColumnValue
	for {
		ok, err := cur.MoveNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rows = append(rows, withRowID(table, cur.RowID(), cur.Values()))
	}
	return rows, nil
}

// seekIndexRowIDs walks leg's index B-tree collecting the rowids of every
// entry that satisfies the leg's seek condition, into a roaring.Bitmap
// (rowids truncated to uint32, consistent with this codebase's other
// roaring.Bitmap usage in exec.joinHashed). Lt/Lte read from the start of
// the (ascending) index and stop once the bound is exceeded; Eq/Gt/Gte/
// Between seek to the lower bound first. The stop condition is an
// efficiency cutoff only — scanTable re-validates every fetched row
// against the full filter regardless.
func seekIndexRowIDs(ctx context.Context, src page.Source, leg planner.Leg, params predicate.Params) (*roaring.Bitmap, error) {
	cur, err := btree.OpenIndex(ctx, src, leg.Index.RootPage)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	seekKey, err := resolveSeekValue(leg.SeekKey, params)
	if err != nil {
		return nil, err
	}
	var highKey record.ColumnValue
	if leg.HasUpperBound {
		highKey, err = resolveSeekValue(leg.UpperBound, params)
		if err != nil {
			return nil, err
		}
	}

	ids := roaring.New()

	switch leg.SeekOp {
	case predicate.OpLt, predicate.OpLte, predicate.OpNeq:
		ok, err := cur.MoveNext()
		if err != nil || !ok {
			return ids, err
		}
	default:
		ok, err := cur.SeekGe(btree.IndexKeyComparator([]record.ColumnValue{seekKey}))
		if err != nil || !ok {
			return ids, err
		}
	}

	for {
		values := cur.Values()
		if len(values) == 0 {
			break
		}
		leadCol := values[0]
		stop := false
		switch leg.SeekOp {
		case predicate.OpEq:
			stop = compareValues(leadCol, seekKey) != 0
		case predicate.OpLt:
			stop = compareValues(leadCol, seekKey) >= 0
		case predicate.OpLte:
			stop = compareValues(leadCol, seekKey) > 0
		case predicate.OpBetween:
			stop = compareValues(leadCol, highKey) > 0
		}
		if stop {
			break
		}
		include := true
		switch leg.SeekOp {
		case predicate.OpLt:
			include = compareValues(leadCol, seekKey) < 0
		case predicate.OpLte:
			include = compareValues(leadCol, seekKey) <= 0
		case predicate.OpGt:
			include = compareValues(leadCol, seekKey) > 0
		case predicate.OpNeq:
			include = compareValues(leadCol, seekKey) != 0
		case predicate.OpGte, predicate.OpEq, predicate.OpBetween:
			include = true
		}
		if include {
			ids.Add(uint32(cur.RowID()))
		}
		ok, err := cur.MoveNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
	}
	return ids, nil
}
