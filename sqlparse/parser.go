package sqlparse

import (
	"github.com/xwb1989/sqlparser"

	"github.com/revred/sharc/predicate"
	"github.com/revred/sharc/query"
	"github.com/revred/sharc/sharcerr"
)

// Parser is the default query.Parser / catalog.DDLParser implementation,
// adapting github.com/xwb1989/sqlparser the way the teacher's SqliteEngine
// and QueryOptimizer did: normalize SQLite syntax to the MySQL dialect the
// grammar understands, parse, then walk the resulting AST.
type Parser struct{}

// New returns a ready-to-use Parser. It holds no state.
func New() *Parser { return &Parser{} }

// DefaultOptions wires this package's Parser as both the query.Config
// parser and DDL-parser collaborators, the pairing query.Open/OpenBytes
// require since the query package cannot import sqlparse directly (doing
// so would cycle back through query.Parser, which sqlparse implements).
func DefaultOptions() []query.Option {
	p := New()
	return []query.Option{query.WithParser(p), query.WithDDLParser(p)}
}

// Parse compiles query text into a query.CompiledIntent.
func (p *Parser) Parse(queryText string) (query.CompiledIntent, error) {
	normalized := normalizeSQLiteToMySQL(queryText)
	stmt, err := sqlparser.Parse(normalized)
	if err != nil {
		return query.CompiledIntent{}, sharcerr.New("sqlparse.Parse", sharcerr.KindSchemaMismatch, err, "query", queryText)
	}

	selStmt, ok := stmt.(sqlparser.SelectStatement)
	if !ok {
		return query.CompiledIntent{}, sharcerr.New("sqlparse.Parse", sharcerr.KindTypeError, nil, "statement", stmt)
	}
	return compileSelectStatement(selStmt)
}

// ParseExpression compiles a standalone boolean expression (used by JIT
// handle Where chaining) into a predicate.Intent.
func (p *Parser) ParseExpression(text string) (predicate.Intent, error) {
	normalized := normalizeSQLiteToMySQL(text)
	wrapped := "select 1 from t where " + normalized
	stmt, err := sqlparser.Parse(wrapped)
	if err != nil {
		return predicate.Intent{}, sharcerr.New("sqlparse.ParseExpression", sharcerr.KindSchemaMismatch, err, "expr", text)
	}
	sel, ok := stmt.(*sqlparser.Select)
	if !ok || sel.Where == nil {
		return predicate.Intent{}, sharcerr.New("sqlparse.ParseExpression", sharcerr.KindTypeError, nil, "expr", text)
	}

	it := predicate.Intent{}
	root, err := compileExpr(&it, sel.Where.Expr)
	if err != nil {
		return predicate.Intent{}, err
	}
	it.Root = root
	return it, nil
}
