package sqlparse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revred/sharc/exec"
	"github.com/revred/sharc/predicate"
	"github.com/revred/sharc/query"
	"github.com/revred/sharc/sqlparse"
)

func TestParseCreateTableExtractsColumns(t *testing.T) {
	p := sqlparse.New()
	ddl, err := p.ParseCreateTable("CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER)")
	require.NoError(t, err)
	assert.Equal(t, "users", ddl.TableName)
	require.Len(t, ddl.Columns, 3)
	assert.Equal(t, "id", ddl.Columns[0].Name)
	assert.True(t, ddl.Columns[0].IsPrimaryKey)
	assert.Equal(t, "name", ddl.Columns[1].Name)
	assert.Equal(t, "age", ddl.Columns[2].Name)
}

func TestParseCreateIndexExtractsColumns(t *testing.T) {
	p := sqlparse.New()
	ddl, err := p.ParseCreateIndex("CREATE UNIQUE INDEX idx_users_name ON users (name)")
	require.NoError(t, err)
	assert.Equal(t, "idx_users_name", ddl.IndexName)
	assert.Equal(t, "users", ddl.TableName)
	assert.True(t, ddl.IsUnique)
	require.Len(t, ddl.Columns, 1)
	assert.Equal(t, "name", ddl.Columns[0].Name)
}

func TestParseSimpleSelectWithWhereAndOrderBy(t *testing.T) {
	p := sqlparse.New()
	intent, err := p.Parse("SELECT name, age FROM users WHERE age > 28 ORDER BY age ASC")
	require.NoError(t, err)
	assert.Equal(t, "users", intent.From.TableName)
	require.Len(t, intent.Projection, 2)
	assert.Equal(t, "name", intent.Projection[0].ColumnName)
	require.NotNil(t, intent.Filter)
	node, ok := intent.Filter.NodeAt(intent.Filter.Root)
	require.True(t, ok)
	assert.Equal(t, predicate.OpGt, node.Op)
	assert.Equal(t, "age", node.ColumnName)
	require.Len(t, intent.OrderBy, 1)
	assert.Equal(t, "age", intent.OrderBy[0].ColumnName)
	assert.False(t, intent.OrderBy[0].Descending)
}

func TestParseLeftJoin(t *testing.T) {
	p := sqlparse.New()
	intent, err := p.Parse("SELECT u.name, o.amount FROM users u LEFT JOIN orders o ON u.id = o.user_id ORDER BY u.id, o.id")
	require.NoError(t, err)
	assert.Equal(t, "users", intent.From.TableName)
	assert.Equal(t, "u", intent.From.Alias)
	require.Len(t, intent.Joins, 1)
	assert.Equal(t, query.JoinLeft, intent.Joins[0].Kind)
	assert.Equal(t, "orders", intent.Joins[0].TableName)
	assert.Equal(t, "id", intent.Joins[0].OnLeftColumn)
	assert.Equal(t, "user_id", intent.Joins[0].OnRightColumn)
	require.Len(t, intent.OrderBy, 2)
}

func TestParseGroupByAggregate(t *testing.T) {
	p := sqlparse.New()
	intent, err := p.Parse("SELECT user_id, SUM(amount) AS total FROM orders GROUP BY user_id")
	require.NoError(t, err)
	require.Len(t, intent.Aggregates, 1)
	assert.Equal(t, exec.AggSum, intent.Aggregates[0].Func)
	assert.Equal(t, "amount", intent.Aggregates[0].ColumnName)
	assert.Equal(t, "total", intent.Aggregates[0].OutputName)
	assert.Equal(t, []string{"user_id"}, intent.GroupBy)
}

func TestParseExpressionStandalone(t *testing.T) {
	p := sqlparse.New()
	intent, err := p.ParseExpression("age > 28 AND name = 'Bob'")
	require.NoError(t, err)
	root, ok := intent.NodeAt(intent.Root)
	require.True(t, ok)
	assert.Equal(t, predicate.OpAnd, root.Op)
}
