package sqlparse

import (
	"strconv"
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/revred/sharc/predicate"
	"github.com/revred/sharc/sharcerr"
)

// compileExpr walks a sqlparser.Expr and appends nodes to it, returning the
// index of the node representing expr. Grounded on the teacher's
// evaluateWhereClause/evaluateComparison switch over
// ComparisonExpr/AndExpr/OrExpr/ParenExpr.
func compileExpr(it *predicate.Intent, expr sqlparser.Expr) (int, error) {
	switch e := expr.(type) {
	case *sqlparser.AndExpr:
		left, err := compileExpr(it, e.Left)
		if err != nil {
			return 0, err
		}
		right, err := compileExpr(it, e.Right)
		if err != nil {
			return 0, err
		}
		return it.Add(predicate.Node{Op: predicate.OpAnd, LeftIndex: left, RightIndex: right}), nil

	case *sqlparser.OrExpr:
		left, err := compileExpr(it, e.Left)
		if err != nil {
			return 0, err
		}
		right, err := compileExpr(it, e.Right)
		if err != nil {
			return 0, err
		}
		return it.Add(predicate.Node{Op: predicate.OpOr, LeftIndex: left, RightIndex: right}), nil

	case *sqlparser.ParenExpr:
		return compileExpr(it, e.Expr)

	case *sqlparser.NotExpr:
		inner, err := compileExpr(it, e.Expr)
		if err != nil {
			return 0, err
		}
		return it.Add(predicate.Node{Op: predicate.OpNot, ChildIndex: inner}), nil

	case *sqlparser.IsExpr:
		col, err := columnName(e.Expr)
		if err != nil {
			return 0, err
		}
		op := predicate.OpIsNull
		if strings.Contains(strings.ToLower(e.Operator), "not") {
			op = predicate.OpIsNotNull
		}
		return it.Add(predicate.Node{Op: op, ColumnName: col}), nil

	case *sqlparser.RangeCond:
		col, err := columnName(e.Left)
		if err != nil {
			return 0, err
		}
		lo, err := literalValue(e.From)
		if err != nil {
			return 0, err
		}
		hi, err := literalValue(e.To)
		if err != nil {
			return 0, err
		}
		node := predicate.Node{Op: predicate.OpBetween, ColumnName: col, Value: lo, HighValue: hi, HasHigh: true}
		idx := it.Add(node)
		if strings.EqualFold(e.Operator, "not between") {
			return it.Add(predicate.Node{Op: predicate.OpNot, ChildIndex: idx}), nil
		}
		return idx, nil

	case *sqlparser.ComparisonExpr:
		return compileComparison(it, e)

	default:
		return 0, sharcerr.New("sqlparse.compileExpr", sharcerr.KindTypeError, nil, "expr", expr)
	}
}

func compileComparison(it *predicate.Intent, e *sqlparser.ComparisonExpr) (int, error) {
	col, err := columnName(e.Left)
	if err != nil {
		return 0, err
	}

	if e.Operator == sqlparser.InStr || e.Operator == sqlparser.NotInStr {
		set, err := literalSet(e.Right)
		if err != nil {
			return 0, err
		}
		node := predicate.Node{Op: predicate.OpIn, ColumnName: col, Value: set}
		idx := it.Add(node)
		if e.Operator == sqlparser.NotInStr {
			return it.Add(predicate.Node{Op: predicate.OpNot, ChildIndex: idx}), nil
		}
		return idx, nil
	}

	val, err := literalValue(e.Right)
	if err != nil {
		return 0, err
	}

	op, negate, err := comparisonOp(e.Operator)
	if err != nil {
		return 0, err
	}
	node := predicate.Node{Op: op, ColumnName: col, Value: val}
	idx := it.Add(node)
	if negate {
		return it.Add(predicate.Node{Op: predicate.OpNot, ChildIndex: idx}), nil
	}
	return idx, nil
}

func comparisonOp(operator string) (predicate.Op, bool, error) {
	switch operator {
	case sqlparser.EqualStr:
		return predicate.OpEq, false, nil
	case sqlparser.NotEqualStr:
		return predicate.OpNeq, false, nil
	case sqlparser.LessThanStr:
		return predicate.OpLt, false, nil
	case sqlparser.LessEqualStr:
		return predicate.OpLte, false, nil
	case sqlparser.GreaterThanStr:
		return predicate.OpGt, false, nil
	case sqlparser.GreaterEqualStr:
		return predicate.OpGte, false, nil
	case sqlparser.LikeStr:
		return predicate.OpLike, false, nil
	case sqlparser.NotLikeStr:
		return predicate.OpLike, true, nil
	default:
		return 0, false, sharcerr.New("sqlparse.comparisonOp", sharcerr.KindTypeError, nil, "operator", operator)
	}
}

func columnName(expr sqlparser.Expr) (string, error) {
	col, ok := expr.(*sqlparser.ColName)
	if !ok {
		return "", sharcerr.New("sqlparse.columnName", sharcerr.KindTypeError, nil, "expr", expr)
	}
	if !col.Qualifier.IsEmpty() {
		return col.Qualifier.Name.String() + "." + col.Name.String(), nil
	}
	return col.Name.String(), nil
}

func literalValue(expr sqlparser.Expr) (predicate.Value, error) {
	sqlVal, ok := expr.(*sqlparser.SQLVal)
	if !ok {
		return predicate.Value{}, sharcerr.New("sqlparse.literalValue", sharcerr.KindTypeError, nil, "expr", expr)
	}
	switch sqlVal.Type {
	case sqlparser.StrVal:
		return predicate.TextValue(string(sqlVal.Val)), nil
	case sqlparser.IntVal:
		n, err := strconv.ParseInt(string(sqlVal.Val), 10, 64)
		if err != nil {
			return predicate.Value{}, sharcerr.New("sqlparse.literalValue", sharcerr.KindTypeError, err, "val", string(sqlVal.Val))
		}
		return predicate.Int64Value(n), nil
	case sqlparser.FloatVal:
		f, err := strconv.ParseFloat(string(sqlVal.Val), 64)
		if err != nil {
			return predicate.Value{}, sharcerr.New("sqlparse.literalValue", sharcerr.KindTypeError, err, "val", string(sqlVal.Val))
		}
		return predicate.Float64Value(f), nil
	case sqlparser.ValArg:
		return predicate.ParamValue(strings.TrimPrefix(string(sqlVal.Val), ":")), nil
	default:
		return predicate.TextValue(string(sqlVal.Val)), nil
	}
}

func literalSet(expr sqlparser.Expr) (predicate.Value, error) {
	tuple, ok := expr.(sqlparser.ValTuple)
	if !ok {
		return predicate.Value{}, sharcerr.New("sqlparse.literalSet", sharcerr.KindTypeError, nil, "expr", expr)
	}
	var ints []int64
	var texts []string
	allInt := true
	for _, e := range tuple {
		v, err := literalValue(e)
		if err != nil {
			return predicate.Value{}, err
		}
		switch v.Kind {
		case predicate.ValueInt64:
			ints = append(ints, v.Int)
			texts = append(texts, strconv.FormatInt(v.Int, 10))
		default:
			allInt = false
			texts = append(texts, v.Text)
		}
	}
	if allInt {
		return predicate.Value{Kind: predicate.ValueInt64Set, Ints: ints}, nil
	}
	return predicate.Value{Kind: predicate.ValueTextSet, Texts: texts}, nil
}
