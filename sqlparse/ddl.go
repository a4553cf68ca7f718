package sqlparse

import (
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/revred/sharc/catalog"
	"github.com/revred/sharc/sharcerr"
)

// ParseCreateTable parses a CREATE TABLE statement's SQL text into
// catalog.TableDDL, the way the teacher's parseTableSchema extracted columns
// via sqlparser.DDL.TableSpec after normalizing SQLite syntax to MySQL.
func (p *Parser) ParseCreateTable(sql string) (catalog.TableDDL, error) {
	normalized := normalizeSQLiteToMySQL(sql)
	stmt, err := sqlparser.Parse(normalized)
	if err != nil {
		return catalog.TableDDL{}, sharcerr.New("sqlparse.ParseCreateTable", sharcerr.KindSchemaMismatch, err, "sql", sql)
	}

	ddl, ok := stmt.(*sqlparser.DDL)
	if !ok || ddl.Action != "create" || ddl.TableSpec == nil {
		return catalog.TableDDL{}, sharcerr.New("sqlparse.ParseCreateTable", sharcerr.KindSchemaMismatch, nil, "sql", sql)
	}

	columns := make([]catalog.ColumnDDL, len(ddl.TableSpec.Columns))
	for i, col := range ddl.TableSpec.Columns {
		isPK := false
		isNotNull := false
		if col.Type.KeyOpt == sqlparser.ColumnKeyPrimary {
			isPK = true
		}
		if bool(col.Type.NotNull) {
			isNotNull = true
		}
		columns[i] = catalog.ColumnDDL{
			Name:         col.Name.String(),
			DeclaredType: strings.ToUpper(col.Type.Type),
			Ordinal:      i,
			IsPrimaryKey: isPK,
			IsNotNull:    isNotNull,
		}
	}

	tableName := ""
	if !ddl.NewName.IsEmpty() {
		tableName = ddl.NewName.Name.String()
	} else if !ddl.Table.IsEmpty() {
		tableName = ddl.Table.Name.String()
	}

	return catalog.TableDDL{TableName: tableName, Columns: columns}, nil
}

// ParseCreateIndex parses a CREATE [UNIQUE] INDEX statement. The grammar
// xwb1989/sqlparser embeds does not reliably round-trip SQLite's CREATE
// INDEX syntax (it targets MySQL DDL), so this is a small hand-rolled
// tokenizer over the fixed "CREATE [UNIQUE] INDEX name ON table (cols)"
// shape rather than an AST walk; every other statement kind in this
// package goes through the real parser.
func (p *Parser) ParseCreateIndex(sql string) (catalog.IndexDDL, error) {
	fields := tokenizeCreateIndex(sql)
	if len(fields) < 4 {
		return catalog.IndexDDL{}, sharcerr.New("sqlparse.ParseCreateIndex", sharcerr.KindSchemaMismatch, nil, "sql", sql)
	}

	idx := 0
	unique := false
	if strings.EqualFold(fields[idx], "create") {
		idx++
	}
	if strings.EqualFold(fields[idx], "unique") {
		unique = true
		idx++
	}
	if strings.EqualFold(fields[idx], "index") {
		idx++
	}
	if idx >= len(fields) {
		return catalog.IndexDDL{}, sharcerr.New("sqlparse.ParseCreateIndex", sharcerr.KindSchemaMismatch, nil, "sql", sql)
	}
	indexName := stripQuotes(fields[idx])
	idx++
	if idx < len(fields) && strings.EqualFold(fields[idx], "if") {
		for idx < len(fields) && !strings.EqualFold(fields[idx], "on") {
			idx++
		}
	}
	if idx >= len(fields) || !strings.EqualFold(fields[idx], "on") {
		return catalog.IndexDDL{}, sharcerr.New("sqlparse.ParseCreateIndex", sharcerr.KindSchemaMismatch, nil, "sql", sql)
	}
	idx++
	if idx >= len(fields) {
		return catalog.IndexDDL{}, sharcerr.New("sqlparse.ParseCreateIndex", sharcerr.KindSchemaMismatch, nil, "sql", sql)
	}
	rest := strings.Join(fields[idx:], " ")
	open := strings.IndexByte(rest, '(')
	close := strings.LastIndexByte(rest, ')')
	if open < 0 || close < 0 || close < open {
		return catalog.IndexDDL{}, sharcerr.New("sqlparse.ParseCreateIndex", sharcerr.KindSchemaMismatch, nil, "sql", sql)
	}
	tableName := stripQuotes(strings.TrimSpace(rest[:open]))
	colList := rest[open+1 : close]

	var columns []catalog.IndexColumnDDL
	for i, raw := range strings.Split(colList, ",") {
		parts := strings.Fields(strings.TrimSpace(raw))
		if len(parts) == 0 {
			continue
		}
		desc := len(parts) > 1 && strings.EqualFold(parts[1], "desc")
		columns = append(columns, catalog.IndexColumnDDL{
			Name:         stripQuotes(parts[0]),
			Ordinal:      i,
			IsDescending: desc,
		})
	}

	return catalog.IndexDDL{
		IndexName: indexName,
		TableName: tableName,
		Columns:   columns,
		IsUnique:  unique,
	}, nil
}

func tokenizeCreateIndex(sql string) []string {
	var fields []string
	var cur strings.Builder
	depth := 0
	for _, r := range sql {
		switch {
		case r == '(':
			depth++
			cur.WriteRune(r)
		case r == ')':
			depth--
			cur.WriteRune(r)
		case (r == ' ' || r == '\t' || r == '\n') && depth == 0:
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}
