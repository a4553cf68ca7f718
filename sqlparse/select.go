package sqlparse

import (
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/revred/sharc/exec"
	"github.com/revred/sharc/predicate"
	"github.com/revred/sharc/query"
	"github.com/revred/sharc/sharcerr"
)

// compileSelectStatement dispatches a parsed top-level statement into a
// query.CompiledIntent, following the chain of Union nodes (if any) into
// CompoundSpec tails.
func compileSelectStatement(stmt sqlparser.SelectStatement) (query.CompiledIntent, error) {
	switch s := stmt.(type) {
	case *sqlparser.Select:
		return compileSelect(s)
	case *sqlparser.Union:
		left, err := compileSelectStatement(s.Left)
		if err != nil {
			return query.CompiledIntent{}, err
		}
		right, err := compileSelectStatement(s.Right)
		if err != nil {
			return query.CompiledIntent{}, err
		}
		left.CompoundTail = &query.CompoundSpec{Op: setOpFromUnionType(s.Type), Next: &right}
		return left, nil
	default:
		return query.CompiledIntent{}, sharcerr.New("sqlparse.compileSelectStatement", sharcerr.KindTypeError, nil, "stmt", stmt)
	}
}

func setOpFromUnionType(t string) exec.SetOp {
	switch strings.ToLower(t) {
	case sqlparser.UnionAllStr:
		return exec.SetUnionAll
	case sqlparser.IntersectStr:
		return exec.SetIntersect
	case sqlparser.ExceptStr:
		return exec.SetExcept
	default:
		return exec.SetUnion
	}
}

func compileSelect(stmt *sqlparser.Select) (query.CompiledIntent, error) {
	intent := query.CompiledIntent{}

	from, joins, err := compileFrom(stmt.From)
	if err != nil {
		return intent, err
	}
	intent.From = from
	intent.Joins = joins

	proj, aggs, err := compileSelectExprs(stmt.SelectExprs)
	if err != nil {
		return intent, err
	}
	intent.Projection = proj
	intent.Aggregates = aggs

	if stmt.Where != nil {
		it := &predicate.Intent{}
		root, err := compileExpr(it, stmt.Where.Expr)
		if err != nil {
			return intent, err
		}
		it.Root = root
		intent.Filter = it
	}

	if stmt.Having != nil {
		it := &predicate.Intent{}
		root, err := compileExpr(it, stmt.Having.Expr)
		if err != nil {
			return intent, err
		}
		it.Root = root
		intent.Having = it
	}

	for _, g := range stmt.GroupBy {
		name, err := columnName(g)
		if err != nil {
			return intent, err
		}
		intent.GroupBy = append(intent.GroupBy, name)
	}

	for _, o := range stmt.OrderBy {
		name, err := columnName(o.Expr)
		if err != nil {
			return intent, err
		}
		intent.OrderBy = append(intent.OrderBy, query.OrderBySpec{
			ColumnName: name,
			Descending: strings.EqualFold(o.Direction, sqlparser.DescScr),
		})
	}

	if stmt.Limit != nil {
		if stmt.Limit.Rowcount != nil {
			n, err := intLiteral(stmt.Limit.Rowcount)
			if err != nil {
				return intent, err
			}
			intent.Limit = &n
		}
		if stmt.Limit.Offset != nil {
			n, err := intLiteral(stmt.Limit.Offset)
			if err != nil {
				return intent, err
			}
			intent.Offset = &n
		}
	}

	return intent, nil
}

func intLiteral(expr sqlparser.Expr) (int64, error) {
	v, err := literalValue(expr)
	if err != nil {
		return 0, err
	}
	if v.Kind != predicate.ValueInt64 {
		return 0, sharcerr.New("sqlparse.intLiteral", sharcerr.KindTypeError, nil, "value", v)
	}
	return v.Int, nil
}

func compileFrom(exprs sqlparser.TableExprs) (query.FromSpec, []query.JoinSpec, error) {
	if len(exprs) == 0 {
		return query.FromSpec{}, nil, sharcerr.New("sqlparse.compileFrom", sharcerr.KindSchemaMismatch, nil, "reason", "empty FROM")
	}
	from, err := tableSpecFrom(exprs[0])
	if err != nil {
		return query.FromSpec{}, nil, err
	}

	var joins []query.JoinSpec
	for _, e := range exprs[0:] {
		joins = append(joins, collectJoins(e)...)
	}
	return from, joins, nil
}

func tableSpecFrom(expr sqlparser.TableExpr) (query.FromSpec, error) {
	switch t := expr.(type) {
	case *sqlparser.AliasedTableExpr:
		name, err := tableNameOf(t.Expr)
		if err != nil {
			return query.FromSpec{}, err
		}
		return query.FromSpec{TableName: name, Alias: t.As.String()}, nil
	case *sqlparser.JoinTableExpr:
		return tableSpecFrom(t.LeftExpr)
	default:
		return query.FromSpec{}, sharcerr.New("sqlparse.tableSpecFrom", sharcerr.KindTypeError, nil, "expr", expr)
	}
}

func tableNameOf(expr sqlparser.SimpleTableExpr) (string, error) {
	tn, ok := expr.(sqlparser.TableName)
	if !ok {
		return "", sharcerr.New("sqlparse.tableNameOf", sharcerr.KindTypeError, nil, "expr", expr)
	}
	return tn.Name.String(), nil
}

func collectJoins(expr sqlparser.TableExpr) []query.JoinSpec {
	jt, ok := expr.(*sqlparser.JoinTableExpr)
	if !ok {
		return nil
	}
	joins := collectJoins(jt.LeftExpr)

	var spec query.JoinSpec
	spec.Kind = query.JoinInner
	if strings.Contains(strings.ToLower(jt.Join), "left") {
		spec.Kind = query.JoinLeft
	}
	if ate, ok := jt.RightExpr.(*sqlparser.AliasedTableExpr); ok {
		if name, err := tableNameOf(ate.Expr); err == nil {
			spec.TableName = name
			spec.Alias = ate.As.String()
		}
	}
	if cmp, ok := jt.Condition.On.(*sqlparser.ComparisonExpr); ok {
		if lc, ok := cmp.Left.(*sqlparser.ColName); ok {
			spec.OnLeftAlias = lc.Qualifier.Name.String()
			spec.OnLeftColumn = lc.Name.String()
		}
		if rc, ok := cmp.Right.(*sqlparser.ColName); ok {
			spec.OnRightAlias = rc.Qualifier.Name.String()
			spec.OnRightColumn = rc.Name.String()
		}
	}
	return append(joins, spec)
}

func compileSelectExprs(exprs sqlparser.SelectExprs) ([]query.ProjectionItem, []exec.AggregateSpec, error) {
	var proj []query.ProjectionItem
	var aggs []exec.AggregateSpec
	for _, expr := range exprs {
		switch e := expr.(type) {
		case *sqlparser.StarExpr:
			proj = append(proj, query.ProjectionItem{IsStar: true})
		case *sqlparser.AliasedExpr:
			switch inner := e.Expr.(type) {
			case *sqlparser.ColName:
				alias := string(e.As)
				name := inner.Name.String()
				item := query.ProjectionItem{ColumnName: name, OutputName: alias}
				if !inner.Qualifier.IsEmpty() {
					item.TableAlias = inner.Qualifier.Name.String()
				}
				if item.OutputName == "" {
					item.OutputName = name
				}
				proj = append(proj, item)
			case *sqlparser.FuncExpr:
				agg, err := compileAggregate(inner, string(e.As))
				if err != nil {
					return nil, nil, err
				}
				aggs = append(aggs, agg)
			default:
				return nil, nil, sharcerr.New("sqlparse.compileSelectExprs", sharcerr.KindTypeError, nil, "expr", e.Expr)
			}
		default:
			return nil, nil, sharcerr.New("sqlparse.compileSelectExprs", sharcerr.KindTypeError, nil, "expr", expr)
		}
	}
	return proj, aggs, nil
}

func compileAggregate(fn *sqlparser.FuncExpr, alias string) (exec.AggregateSpec, error) {
	name := strings.ToLower(fn.Name.String())
	var col string
	if len(fn.Exprs) > 0 {
		if ae, ok := fn.Exprs[0].(*sqlparser.AliasedExpr); ok {
			if cn, ok := ae.Expr.(*sqlparser.ColName); ok {
				col = cn.Name.String()
			}
		}
	}

	var f exec.AggregateFunc
	switch name {
	case "count":
		if _, star := fn.Exprs[0].(*sqlparser.StarExpr); star || col == "" {
			f = exec.AggCountStar
		} else {
			f = exec.AggCount
		}
	case "sum":
		f = exec.AggSum
	case "avg":
		f = exec.AggAvg
	case "min":
		f = exec.AggMin
	case "max":
		f = exec.AggMax
	default:
		return exec.AggregateSpec{}, sharcerr.New("sqlparse.compileAggregate", sharcerr.KindTypeError, nil, "func", name)
	}

	out := alias
	if out == "" {
		out = name + "(" + col + ")"
	}
	return exec.AggregateSpec{Func: f, ColumnName: col, OutputName: out}, nil
}
