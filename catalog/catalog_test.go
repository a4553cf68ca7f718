package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revred/sharc/catalog"
	"github.com/revred/sharc/internal/testfixture"
	"github.com/revred/sharc/page"
	"github.com/revred/sharc/sqlparse"
)

func TestBuildCatalogFromSchemaRows(t *testing.T) {
	buf := testfixture.SchemaFile([]testfixture.SchemaRow{
		{Type: "table", Name: "users", TblName: "users", RootPage: 2,
			SQL: "CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER)"},
		{Type: "table", Name: "orders", TblName: "orders", RootPage: 3,
			SQL: "CREATE TABLE orders (id INTEGER PRIMARY KEY AUTOINCREMENT, user_id INTEGER, amount REAL)"},
		{Type: "index", Name: "idx_orders_user", TblName: "orders", RootPage: 4,
			SQL: "CREATE INDEX idx_orders_user ON orders (user_id)"},
	})
	src, err := page.NewMemorySource(buf, true)
	require.NoError(t, err)

	cat, err := catalog.Build(context.Background(), src, sqlparse.New())
	require.NoError(t, err)

	users, err := cat.Table("users")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), users.RootPage)
	require.Len(t, users.Columns, 3)
	assert.Equal(t, 0, users.ColumnIndex("id"))
	assert.Equal(t, 2, users.ColumnIndex("age"))
	pkCol, ok := users.RowIDAliasColumn()
	require.True(t, ok)
	assert.Equal(t, "id", pkCol)

	_, err = cat.Table("nonexistent")
	require.Error(t, err)

	idxs := cat.IndexesFor("orders")
	require.Len(t, idxs, 1)
	assert.Equal(t, "idx_orders_user", idxs[0].Name)
	assert.Equal(t, "user_id", idxs[0].Columns[0].Name)
}
