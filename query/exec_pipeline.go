package query

import (
	"context"
	"sort"

	"github.com/revred/sharc/exec"
	"github.com/revred/sharc/predicate"
	"github.com/revred/sharc/record"
	"github.com/revred/sharc/sharcerr"
)

// Result is the output of a completed query: column names followed by
// their values, one slice per row.
type Result struct {
	Columns []string
	Rows    [][]record.ColumnValue
}

// runIntent executes a fully compiled (and view-resolved) intent against
// db's current snapshot, producing a Result.
func runIntent(ctx context.Context, db *Database, intent CompiledIntent, params paramsView) (Result, error) {
	table, err := db.cat.Table(intent.From.TableName)
	if err != nil {
		return Result{}, err
	}

	// A filter may reference a joined table's column, which the primary
	// table's row view cannot resolve: only hand the filter to the base
	// scan (so it can also drive index selection) when there is no join to
	// run first. Joined queries apply the whole filter once, below, after
	// every side has been merged into one frame.
	var scanFilter *predicate.Intent
	if len(intent.Joins) == 0 {
		scanFilter = intent.Filter
	}

	fr := frame{cols: qualify(table, intent.From.Alias)}
	rows, err := scanTable(ctx, db, table, intent.From.Alias, scanFilter, params)
	if err != nil {
		return Result{}, err
	}
	fr.rows = rows

	for _, j := range intent.Joins {
		fr, err = applyJoin(ctx, db, fr, j, params)
		if err != nil {
			return Result{}, err
		}
	}

	if len(intent.Joins) > 0 && intent.Filter != nil {
		var kept [][]record.ColumnValue
		for _, row := range fr.rows {
			ok, err := evalFilter(intent.Filter, fr.cols, row, params)
			if err != nil {
				return Result{}, err
			}
			if ok {
				kept = append(kept, row)
			}
		}
		fr.rows = kept
	}

	if len(intent.GroupBy) > 0 || len(intent.Aggregates) > 0 {
		fr, err = applyAggregate(fr, intent)
		if err != nil {
			return Result{}, err
		}
		if intent.Having != nil {
			var kept [][]record.ColumnValue
			for _, row := range fr.rows {
				ok, err := evalFilter(intent.Having, fr.cols, row, params)
				if err != nil {
					return Result{}, err
				}
				if ok {
					kept = append(kept, row)
				}
			}
			fr.rows = kept
		}
	}

	fr, err = applyProjection(fr, intent.Projection)
	if err != nil {
		return Result{}, err
	}

	if len(intent.OrderBy) > 0 {
		applyOrderBy(fr, intent.OrderBy)
	}

	if intent.CompoundTail != nil {
		tail, err := runIntent(ctx, db, *intent.CompoundTail.Next, params)
		if err != nil {
			return Result{}, err
		}
		fr.rows = toRecordRows(exec.SetOperate(intent.CompoundTail.Op, toExecRows(fr.rows), toExecRows(tail.Rows)))
	}

	if intent.Offset != nil {
		off := int(*intent.Offset)
		if off >= len(fr.rows) {
			fr.rows = nil
		} else {
			fr.rows = fr.rows[off:]
		}
	}
	if intent.Limit != nil && int(*intent.Limit) < len(fr.rows) {
		fr.rows = fr.rows[:*intent.Limit]
	}

	return Result{Columns: fr.cols, Rows: fr.rows}, nil
}

func toExecRows(rows [][]record.ColumnValue) []exec.Row {
	out := make([]exec.Row, len(rows))
	for i, r := range rows {
		out[i] = exec.Row(r)
	}
	return out
}

func toRecordRows(rows []exec.Row) [][]record.ColumnValue {
	out := make([][]record.ColumnValue, len(rows))
	for i, r := range rows {
		out[i] = []record.ColumnValue(r)
	}
	return out
}

// applyJoin executes one JoinSpec against the running frame using the
// FULL OUTER kernel (spec §4.8.2), then drops whichever synthetic filler
// rows the requested join kind does not call for. A filler row is
// distinguished from a genuinely all-NULL match by checking whether an
// entire side's segment is NULL — an approximation documented in
// DESIGN.md, accurate except for the degenerate case of a join side whose
// matched row happens to be NULL in every selected column.
func applyJoin(ctx context.Context, db *Database, left frame, j JoinSpec, params paramsView) (frame, error) {
	rightTable, err := db.cat.Table(j.TableName)
	if err != nil {
		return frame{}, err
	}
	rightCols := qualify(rightTable, j.Alias)
	rightRows, err := scanTable(ctx, db, rightTable, j.Alias, nil, params)
	if err != nil {
		return frame{}, err
	}

	leftKeyName := qualifiedOrFallback(j.OnLeftAlias, j.OnLeftColumn)
	rightKeyName := qualifiedOrFallback(j.OnRightAlias, j.OnRightColumn)
	leftIdx := columnIndex(left.cols, leftKeyName)
	rightIdx := columnIndex(rightCols, rightKeyName)
	if leftIdx < 0 {
		return frame{}, sharcerr.New("query.applyJoin", sharcerr.KindUnknownColumn, nil, "column", j.OnLeftColumn)
	}
	if rightIdx < 0 {
		return frame{}, sharcerr.New("query.applyJoin", sharcerr.KindUnknownColumn, nil, "column", j.OnRightColumn)
	}

	buildWidth, probeWidth := len(left.cols), len(rightCols)
	out, _ := exec.FullOuterJoin(
		toExecRows(left.rows), toExecRows(rightRows),
		[]int{leftIdx}, []int{rightIdx},
		buildWidth, probeWidth, true,
	)

	var kept [][]record.ColumnValue
	for _, row := range out {
		buildSeg, probeSeg := row[:buildWidth], row[buildWidth:]
		buildFiller := allNull([]record.ColumnValue(buildSeg))
		probeFiller := allNull([]record.ColumnValue(probeSeg))
		switch j.Kind {
		case JoinInner:
			if buildFiller || probeFiller {
				continue
			}
		case JoinLeft:
			if buildFiller && !probeFiller {
				continue
			}
		}
		kept = append(kept, []record.ColumnValue(row))
	}

	return frame{cols: append(append([]string{}, left.cols...), rightCols...), rows: kept}, nil
}

func qualifiedOrFallback(alias, column string) string {
	if alias == "" {
		return column
	}
	return alias + "." + column
}

func applyAggregate(fr frame, intent CompiledIntent) (frame, error) {
	groupOrds := make([]int, len(intent.GroupBy))
	for i, name := range intent.GroupBy {
		idx := columnIndex(fr.cols, name)
		if idx < 0 {
			return frame{}, sharcerr.New("query.applyAggregate", sharcerr.KindUnknownColumn, nil, "column", name)
		}
		groupOrds[i] = idx
	}
	srcOrds := make([]int, len(intent.Aggregates))
	outCols := make([]string, 0, len(intent.GroupBy)+len(intent.Aggregates))
	outCols = append(outCols, intent.GroupBy...)
	for i, agg := range intent.Aggregates {
		if agg.Func == exec.AggCountStar {
			srcOrds[i] = -1
		} else {
			idx := columnIndex(fr.cols, agg.ColumnName)
			if idx < 0 {
				return frame{}, sharcerr.New("query.applyAggregate", sharcerr.KindUnknownColumn, nil, "column", agg.ColumnName)
			}
			srcOrds[i] = idx
		}
		name := agg.OutputName
		if name == "" {
			name = agg.ColumnName
		}
		outCols = append(outCols, name)
	}

	agg := exec.NewAggregator(exec.AggregateConfig{
		Aggregates:      intent.Aggregates,
		AggregateSource: srcOrds,
		GroupBy:         groupOrds,
		OutputColumns:   outCols,
	})
	for _, row := range fr.rows {
		agg.Accumulate(exec.Row(row))
	}
	return frame{cols: outCols, rows: toRecordRows(agg.Finalize())}, nil
}

func applyProjection(fr frame, items []ProjectionItem) (frame, error) {
	if len(items) == 0 {
		return fr, nil
	}
	var outCols []string
	var outIdx []int
	star := false
	for _, item := range items {
		if item.IsStar {
			star = true
			break
		}
	}
	if star {
		return fr, nil
	}
	for _, item := range items {
		name := item.ColumnName
		if item.TableAlias != "" {
			name = item.TableAlias + "." + item.ColumnName
		}
		idx := columnIndex(fr.cols, name)
		if idx < 0 {
			return frame{}, sharcerr.New("query.applyProjection", sharcerr.KindUnknownColumn, nil, "column", name)
		}
		out := item.OutputName
		if out == "" {
			out = item.ColumnName
		}
		outCols = append(outCols, out)
		outIdx = append(outIdx, idx)
	}
	rows := make([][]record.ColumnValue, len(fr.rows))
	for i, row := range fr.rows {
		projected := make([]record.ColumnValue, len(outIdx))
		for j, idx := range outIdx {
			projected[j] = row[idx]
		}
		rows[i] = projected
	}
	return frame{cols: outCols, rows: rows}, nil
}

func applyOrderBy(fr frame, order []OrderBySpec) {
	ords := make([]int, len(order))
	for i, o := range order {
		ords[i] = columnIndex(fr.cols, o.ColumnName)
	}
	sort.SliceStable(fr.rows, func(i, j int) bool {
		for k, ord := range ords {
			if ord < 0 {
				continue
			}
			c := compareValues(fr.rows[i][ord], fr.rows[j][ord])
			if order[k].Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}
