// Package catalog builds the schema catalog — tables, their columns, and
// their indexes — by scanning the schema B-tree at page 1 and handing each
// row's `sql` text to a DDL parser collaborator.
package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/revred/sharc/btree"
	"github.com/revred/sharc/page"
	"github.com/revred/sharc/record"
	"github.com/revred/sharc/sharcerr"
)

const schemaRootPage = 1

// DDLParser extracts column/index definitions from schema SQL text, used
// by Build when constructing table and index descriptors.
type DDLParser interface {
	ParseCreateTable(sql string) (TableDDL, error)
	ParseCreateIndex(sql string) (IndexDDL, error)
}

// ColumnDDL is one column definition extracted from a CREATE TABLE body.
type ColumnDDL struct {
	Name         string
	DeclaredType string
	Ordinal      int
	IsPrimaryKey bool
	IsNotNull    bool
}

// TableDDL is the parsed shape of a CREATE TABLE statement.
type TableDDL struct {
	TableName string
	Columns   []ColumnDDL
}

// IndexColumnDDL is one column of a CREATE INDEX column list.
type IndexColumnDDL struct {
	Name         string
	Ordinal      int
	IsDescending bool
}

// IndexDDL is the parsed shape of a CREATE INDEX statement.
type IndexDDL struct {
	IndexName string
	TableName string
	Columns   []IndexColumnDDL
	IsUnique  bool
}

// Column is one column of a table.
type Column struct {
	Name         string
	DeclaredType string
	Ordinal      int
	IsPrimaryKey bool
	IsNotNull    bool
}

// IndexColumn is one column of an index's key.
type IndexColumn struct {
	Name         string
	Ordinal      int
	IsDescending bool
}

// Table is a table's schema descriptor.
type Table struct {
	Name     string
	RootPage uint32
	Columns  []Column
}

// ColumnIndex returns the ordinal of name, or -1 if not present.
func (t Table) ColumnIndex(name string) int {
	for _, c := range t.Columns {
		if c.Name == name {
			return c.Ordinal
		}
	}
	return -1
}

// RowIDAliasColumn returns the name of the INTEGER PRIMARY KEY column, if
// any (its values are not physically stored in the payload).
func (t Table) RowIDAliasColumn() (string, bool) {
	for _, c := range t.Columns {
		if c.IsPrimaryKey && strings.EqualFold(c.DeclaredType, "INTEGER") {
			return c.Name, true
		}
	}
	return "", false
}

// Index is an index's schema descriptor.
type Index struct {
	Name      string
	TableName string
	RootPage  uint32
	Columns   []IndexColumn
	IsUnique  bool
}

// View is a registered named query whose body is kept as unresolved SQL
// text until the orchestrator resolves it against the catalog.
type View struct {
	Name string
	Body string
}

// Catalog is the immutable, per-snapshot set of tables/indexes/views
// discovered from the schema B-tree.
type Catalog struct {
	Tables  map[string]Table
	Indexes map[string][]Index // keyed by table name
	Views   map[string]View
}

// Table looks up a table by name, returning sharcerr.KindUnknownTable if
// absent.
func (c *Catalog) Table(name string) (Table, error) {
	t, ok := c.Tables[name]
	if !ok {
		return Table{}, sharcerr.New("catalog.Table", sharcerr.KindUnknownTable, nil, "table", name)
	}
	return t, nil
}

// IndexesFor returns the indexes declared on table name, sorted by name.
func (c *Catalog) IndexesFor(name string) []Index {
	idxs := append([]Index(nil), c.Indexes[name]...)
	sort.Slice(idxs, func(i, j int) bool { return idxs[i].Name < idxs[j].Name })
	return idxs
}

type schemaRow struct {
	Type     string
	Name     string
	TblName  string
	RootPage uint32
	SQL      string
}

// Build scans the schema B-tree through src and parses each row's SQL
// using ddl, producing an immutable Catalog snapshot.
func Build(ctx context.Context, src page.Source, ddl DDLParser) (*Catalog, error) {
	cur, err := btree.OpenTable(ctx, src, schemaRootPage)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	cat := &Catalog{
		Tables:  make(map[string]Table),
		Indexes: make(map[string][]Index),
		Views:   make(map[string]View),
	}

	var rows []schemaRow
	for {
		ok, err := cur.MoveNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		row, err := decodeSchemaRow(cur.Values())
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	for _, row := range rows {
		switch row.Type {
		case "table":
			cols, err := ddl.ParseCreateTable(row.SQL)
			if err != nil {
				return nil, err
			}
			cat.Tables[row.Name] = Table{
				Name:     row.Name,
				RootPage: row.RootPage,
				Columns:  toColumns(cols.Columns),
			}
		case "view":
			cat.Views[row.Name] = View{Name: row.Name, Body: row.SQL}
		}
	}

	for _, row := range rows {
		if row.Type != "index" || row.SQL == "" {
			continue
		}
		idxDDL, err := ddl.ParseCreateIndex(row.SQL)
		if err != nil {
			return nil, err
		}
		idx := Index{
			Name:      row.Name,
			TableName: row.TblName,
			RootPage:  row.RootPage,
			IsUnique:  idxDDL.IsUnique,
		}
		for _, c := range idxDDL.Columns {
			idx.Columns = append(idx.Columns, IndexColumn{Name: c.Name, Ordinal: c.Ordinal, IsDescending: c.IsDescending})
		}
		cat.Indexes[row.TblName] = append(cat.Indexes[row.TblName], idx)
	}

	return cat, nil
}

func toColumns(cols []ColumnDDL) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = Column{
			Name:         c.Name,
			DeclaredType: c.DeclaredType,
			Ordinal:      c.Ordinal,
			IsPrimaryKey: c.IsPrimaryKey,
			IsNotNull:    c.IsNotNull,
		}
	}
	return out
}

func decodeSchemaRow(values []record.ColumnValue) (schemaRow, error) {
	if len(values) < 5 {
		return schemaRow{}, sharcerr.New("catalog.decodeSchemaRow", sharcerr.KindSchemaMismatch, nil, "columns", len(values))
	}
	text := func(v record.ColumnValue) string {
		if v.Kind == record.KindText || v.Kind == record.KindBlob {
			return string(v.Span)
		}
		return ""
	}
	rootPage := uint32(0)
	if values[3].Kind == record.KindInt64 {
		rootPage = uint32(values[3].Int)
	}
	return schemaRow{
		Type:     text(values[0]),
		Name:     text(values[1]),
		TblName:  text(values[2]),
		RootPage: rootPage,
		SQL:      text(values[4]),
	}, nil
}
