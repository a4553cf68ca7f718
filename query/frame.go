package query

import (
	"strings"

	"github.com/revred/sharc/predicate"
	"github.com/revred/sharc/record"
	"github.com/revred/sharc/sharcerr"
)

func paramNotBound(name string) error {
	return sharcerr.New("query.resolveSeekValue", sharcerr.KindParameterNotBound, nil, "param", name)
}

// frame is the working row set passed between execution stages: a set of
// named columns (qualified "alias.column" once a join has run) and the
// rows themselves.
type frame struct {
	cols []string
	rows [][]record.ColumnValue
}

// columnIndex finds name in cols, matching either the fully-qualified
// form or, when name carries no alias, the bare column suffix after the
// last '.'. Returns -1 if absent or ambiguous.
func columnIndex(cols []string, name string) int {
	found := -1
	for i, c := range cols {
		if strings.EqualFold(c, name) {
			return i
		}
		if dot := strings.LastIndexByte(c, '.'); dot >= 0 && strings.EqualFold(c[dot+1:], name) {
			if found != -1 {
				return -1 // ambiguous
			}
			found = i
		}
	}
	return found
}

// rowView adapts one frame row to predicate.Row.
type rowView struct {
	cols []string
	row  []record.ColumnValue
}

func (v rowView) ColumnValue(name string) (record.ColumnValue, bool) {
	idx := columnIndex(v.cols, name)
	if idx < 0 {
		return record.ColumnValue{}, false
	}
	return v.row[idx], true
}

// paramsView adapts a bound-parameter map to predicate.Params.
type paramsView map[string]record.ColumnValue

func (p paramsView) Lookup(name string) (record.ColumnValue, bool) {
	v, ok := p[name]
	return v, ok
}

// evalFilter runs a predicate intent against one row, treating a nil
// intent as always-true and Unknown as rejecting the row (standard SQL
// WHERE semantics).
func evalFilter(it *predicate.Intent, cols []string, row []record.ColumnValue, params predicate.Params) (bool, error) {
	if it == nil {
		return true, nil
	}
	tri, err := predicate.Evaluate(it, it.Root, rowView{cols: cols, row: row}, params)
	if err != nil {
		return false, err
	}
	return tri == predicate.True, nil
}

// resolveSeekValue turns a predicate.Value (possibly a bound-parameter
// reference) into the record.ColumnValue a btree.Comparator compares
// against.
func resolveSeekValue(v predicate.Value, params predicate.Params) (record.ColumnValue, error) {
	if v.Kind == predicate.ValueParameterName {
		if params == nil {
			return record.ColumnValue{}, paramNotBound(v.ParamID)
		}
		cv, ok := params.Lookup(v.ParamID)
		if !ok {
			return record.ColumnValue{}, paramNotBound(v.ParamID)
		}
		return cv, nil
	}
	switch v.Kind {
	case predicate.ValueInt64:
		return record.ColumnValue{Kind: record.KindInt64, Int: v.Int}, nil
	case predicate.ValueFloat64:
		return record.ColumnValue{Kind: record.KindFloat64, Float: v.Float}, nil
	case predicate.ValueText:
		return record.ColumnValue{Kind: record.KindText, Span: []byte(v.Text)}, nil
	case predicate.ValueBlob:
		return record.ColumnValue{Kind: record.KindBlob, Span: v.Blob}, nil
	default:
		return record.ColumnValue{Kind: record.KindNull}, nil
	}
}

// compareValues orders two decoded column values the same way the B-tree
// comparators do: NULL sorts lowest, numeric types compare numerically,
// text/blob compare byte-wise.
func compareValues(a, b record.ColumnValue) int {
	an, bn := a.IsNull(), b.IsNull()
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}
	if a.Kind == record.KindText || a.Kind == record.KindBlob || b.Kind == record.KindText || b.Kind == record.KindBlob {
		return strings.Compare(string(a.Span), string(b.Span))
	}
	af, bf := numeric(a), numeric(b)
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}

func numeric(v record.ColumnValue) float64 {
	if v.Kind == record.KindFloat64 {
		return v.Float
	}
	return float64(v.Int)
}

func allNull(row []record.ColumnValue) bool {
	for _, v := range row {
		if !v.IsNull() {
			return false
		}
	}
	return true
}
