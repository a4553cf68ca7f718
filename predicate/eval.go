package predicate

import (
	"strings"

	"github.com/revred/sharc/record"
	"github.com/revred/sharc/sharcerr"
)

// Tri is a three-valued logic result: True, False, or Unknown (SQL NULL
// propagation).
type Tri uint8

const (
	Unknown Tri = iota
	True
	False
)

// Not3 implements three-valued NOT.
func (t Tri) Not3() Tri {
	switch t {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

// Row is whatever the evaluator needs to resolve a column name to a value.
// Implemented by the query package's rowView.
type Row interface {
	ColumnValue(name string) (record.ColumnValue, bool)
}

// Params resolves a bound parameter name to a value.
type Params interface {
	Lookup(name string) (record.ColumnValue, bool)
}

// Evaluate walks Intent starting at root and returns its three-valued
// truth value against row, resolving any ValueParameterName leaves via
// params. Returns a sharcerr.KindParameterNotBound error if a referenced
// parameter was never bound.
func Evaluate(it *Intent, root int, row Row, params Params) (Tri, error) {
	n, ok := it.NodeAt(root)
	if !ok {
		return Unknown, sharcerr.New("predicate.Evaluate", sharcerr.KindCorruptRecord, nil, "node", root)
	}
	switch n.Op {
	case OpAnd:
		return evalAnd(it, n, row, params)
	case OpOr:
		return evalOr(it, n, row, params)
	case OpNot:
		inner, err := Evaluate(it, n.ChildIndex, row, params)
		if err != nil {
			return Unknown, err
		}
		return inner.Not3(), nil
	case OpIsNull, OpIsNotNull:
		v, present := row.ColumnValue(n.ColumnName)
		if !present {
			return Unknown, sharcerr.New("predicate.Evaluate", sharcerr.KindUnknownColumn, nil, "column", n.ColumnName)
		}
		isNull := v.IsNull()
		if n.Op == OpIsNull {
			return boolTri(isNull), nil
		}
		return boolTri(!isNull), nil
	default:
		return evalComparison(n, row, params)
	}
}

func evalAnd(it *Intent, n Node, row Row, params Params) (Tri, error) {
	left, err := Evaluate(it, n.LeftIndex, row, params)
	if err != nil {
		return Unknown, err
	}
	if left == False {
		return False, nil
	}
	right, err := Evaluate(it, n.RightIndex, row, params)
	if err != nil {
		return Unknown, err
	}
	if right == False {
		return False, nil
	}
	if left == True && right == True {
		return True, nil
	}
	return Unknown, nil
}

func evalOr(it *Intent, n Node, row Row, params Params) (Tri, error) {
	left, err := Evaluate(it, n.LeftIndex, row, params)
	if err != nil {
		return Unknown, err
	}
	if left == True {
		return True, nil
	}
	right, err := Evaluate(it, n.RightIndex, row, params)
	if err != nil {
		return Unknown, err
	}
	if right == True {
		return True, nil
	}
	if left == False && right == False {
		return False, nil
	}
	return Unknown, nil
}

func evalComparison(n Node, row Row, params Params) (Tri, error) {
	col, present := row.ColumnValue(n.ColumnName)
	if !present {
		return Unknown, sharcerr.New("predicate.Evaluate", sharcerr.KindUnknownColumn, nil, "column", n.ColumnName)
	}
	if col.IsNull() {
		return Unknown, nil
	}
	val, err := resolveValue(n.Value, params)
	if err != nil {
		return Unknown, err
	}
	switch n.Op {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpBetween:
		// A numeric column against a text/blob value, or the reverse, is a
		// type mismatch and evaluates to Unknown.
		colNumeric := col.Kind == record.KindInt64 || col.Kind == record.KindFloat64
		valNumeric := val.Kind == ValueInt64 || val.Kind == ValueFloat64
		valBytes := val.Kind == ValueText || val.Kind == ValueBlob
		if (colNumeric && valBytes) || (!colNumeric && valNumeric) {
			return Unknown, nil
		}
	}
	switch n.Op {
	case OpEq:
		return boolTri(compareColumnValue(col, val) == 0), nil
	case OpNeq:
		return boolTri(compareColumnValue(col, val) != 0), nil
	case OpLt:
		return boolTri(compareColumnValue(col, val) < 0), nil
	case OpLte:
		return boolTri(compareColumnValue(col, val) <= 0), nil
	case OpGt:
		return boolTri(compareColumnValue(col, val) > 0), nil
	case OpGte:
		return boolTri(compareColumnValue(col, val) >= 0), nil
	case OpBetween:
		high, err := resolveValue(n.HighValue, params)
		if err != nil {
			return Unknown, err
		}
		return boolTri(compareColumnValue(col, val) >= 0 && compareColumnValue(col, high) <= 0), nil
	case OpIn:
		return evalIn(col, val), nil
	case OpLike:
		return boolTri(likeMatch(columnText(col), val.Text)), nil
	case OpStartsWith:
		return boolTri(strings.HasPrefix(columnText(col), val.Text)), nil
	case OpEndsWith:
		return boolTri(strings.HasSuffix(columnText(col), val.Text)), nil
	case OpContains:
		return boolTri(strings.Contains(columnText(col), val.Text)), nil
	default:
		return Unknown, sharcerr.New("predicate.Evaluate", sharcerr.KindTypeError, nil, "op", n.Op)
	}
}

func evalIn(col record.ColumnValue, val Value) Tri {
	switch val.Kind {
	case ValueInt64Set:
		for _, v := range val.Ints {
			if compareColumnValue(col, Int64Value(v)) == 0 {
				return True
			}
		}
		return False
	case ValueTextSet:
		for _, v := range val.Texts {
			if compareColumnValue(col, TextValue(v)) == 0 {
				return True
			}
		}
		return False
	default:
		return boolTri(compareColumnValue(col, val) == 0)
	}
}

func resolveValue(v Value, params Params) (Value, error) {
	if v.Kind != ValueParameterName {
		return v, nil
	}
	if params == nil {
		return Value{}, sharcerr.New("predicate.resolveValue", sharcerr.KindParameterNotBound, nil, "param", v.ParamID)
	}
	cv, ok := params.Lookup(v.ParamID)
	if !ok {
		return Value{}, sharcerr.New("predicate.resolveValue", sharcerr.KindParameterNotBound, nil, "param", v.ParamID)
	}
	switch cv.Kind {
	case record.KindInt64:
		return Int64Value(cv.Int), nil
	case record.KindFloat64:
		return Float64Value(cv.Float), nil
	case record.KindText:
		return TextValue(string(cv.Span)), nil
	case record.KindBlob:
		return BlobValue(cv.Span), nil
	default:
		return Value{}, nil
	}
}

func compareColumnValue(col record.ColumnValue, val Value) int {
	switch val.Kind {
	case ValueInt64:
		return compareNumeric(col, float64(val.Int))
	case ValueFloat64:
		return compareNumeric(col, val.Float)
	case ValueText:
		return strings.Compare(columnText(col), val.Text)
	case ValueBlob:
		return compareBlob(col.Span, val.Blob)
	default:
		return 0
	}
}

func compareNumeric(col record.ColumnValue, want float64) int {
	var have float64
	switch col.Kind {
	case record.KindInt64:
		have = float64(col.Int)
	case record.KindFloat64:
		have = col.Float
	default:
		have = 0
	}
	switch {
	case have < want:
		return -1
	case have > want:
		return 1
	default:
		return 0
	}
}

func compareBlob(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func columnText(col record.ColumnValue) string {
	if col.Kind == record.KindText || col.Kind == record.KindBlob {
		return string(col.Span)
	}
	return ""
}

// likeMatch implements SQL LIKE with % and _ wildcards (no ESCAPE clause).
func likeMatch(s, pattern string) bool {
	return likeMatchRunes([]rune(s), []rune(pattern))
}

func likeMatchRunes(s, p []rune) bool {
	if len(p) == 0 {
		return len(s) == 0
	}
	if p[0] == '%' {
		for i := 0; i <= len(s); i++ {
			if likeMatchRunes(s[i:], p[1:]) {
				return true
			}
		}
		return false
	}
	if len(s) == 0 {
		return false
	}
	if p[0] == '_' || p[0] == s[0] {
		return likeMatchRunes(s[1:], p[1:])
	}
	return false
}

func boolTri(b bool) Tri {
	if b {
		return True
	}
	return False
}
