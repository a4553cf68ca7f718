package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revred/sharc/internal/testfixture"
	"github.com/revred/sharc/query"
	"github.com/revred/sharc/record"
	"github.com/revred/sharc/sqlparse"
)

// usersFixture builds a users(id INTEGER PRIMARY KEY, name TEXT, age
// INTEGER) table at root page 2 with three rows, plus an orders(id, user_id,
// amount) table at root page 3 with two rows referencing users.id.
func usersFixture() []byte {
	userRow := func(id int64, name string, age int64) []byte {
		return testfixture.EncodeRecord([]testfixture.FieldValue{
			testfixture.NullField(), // rowid alias column, not physically stored
			testfixture.TextField(name),
			testfixture.Int64Field(age),
		})
	}
	orderRow := func(id, userID int64, amount int64) []byte {
		return testfixture.EncodeRecord([]testfixture.FieldValue{
			testfixture.NullField(),
			testfixture.Int64Field(userID),
			testfixture.Int64Field(amount),
		})
	}

	usersCells := [][]byte{
		testfixture.LeafTableCell(1, userRow(1, "alice", 30)),
		testfixture.LeafTableCell(2, userRow(2, "bob", 25)),
		testfixture.LeafTableCell(3, userRow(3, "carol", 40)),
	}
	ordersCells := [][]byte{
		testfixture.LeafTableCell(1, orderRow(1, 1, 100)),
		testfixture.LeafTableCell(2, orderRow(2, 2, 200)),
	}

	schema := []testfixture.SchemaRow{
		{Type: "table", Name: "users", TblName: "users", RootPage: 2,
			SQL: "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, age INTEGER)"},
		{Type: "table", Name: "orders", TblName: "orders", RootPage: 3,
			SQL: "CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER, amount INTEGER)"},
	}
	return testfixture.Database(schema, map[uint32][][]byte{
		2: usersCells,
		3: ordersCells,
	})
}

func openFixture(t *testing.T) *query.Database {
	t.Helper()
	buf := usersFixture()
	db, err := query.OpenBytes(buf, false, sqlparse.DefaultOptions()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestExecuteDirectTierFiltersAndProjects(t *testing.T) {
	db := openFixture(t)

	res, err := db.Execute(context.Background(), "SELECT name, age FROM users WHERE age > 28", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, res.Columns)
	require.Len(t, res.Rows, 2)

	names := map[string]bool{}
	for _, row := range res.Rows {
		names[string(row[0].Span)] = true
	}
	assert.True(t, names["alice"])
	assert.True(t, names["carol"])
	assert.False(t, names["bob"])
}

func TestExecuteJoinAppliesFilterAfterMerge(t *testing.T) {
	db := openFixture(t)

	res, err := db.Execute(context.Background(),
		"SELECT users.name, orders.amount FROM users JOIN orders ON users.id = orders.user_id WHERE orders.amount > 150",
		nil)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "bob", string(res.Rows[0][0].Span))
	assert.Equal(t, int64(200), res.Rows[0][1].Int)
}

func TestPrepareReusesCachedPlan(t *testing.T) {
	db := openFixture(t)

	stmt, err := db.Prepare("SELECT name FROM users WHERE age > 28")
	require.NoError(t, err)

	res, err := stmt.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)

	again, err := db.Prepare("select   name   from users   where age > 28")
	require.NoError(t, err)
	res2, err := again.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, res2.Rows, 2)
}

func TestTableHandleJITChaining(t *testing.T) {
	db := openFixture(t)

	handle, err := db.Table("users")
	require.NoError(t, err)

	handle, err = handle.Where("age > 20")
	require.NoError(t, err)
	handle = handle.OrderBy("age", false).Limit(2)

	res, err := handle.Rows(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	ageIdx := -1
	for i, c := range res.Columns {
		if c == "users.age" || c == "age" {
			ageIdx = i
		}
	}
	require.GreaterOrEqual(t, ageIdx, 0)
	assert.LessOrEqual(t, res.Rows[0][ageIdx].Int, res.Rows[1][ageIdx].Int)
}

func TestViewRegistrationResolvesInFrom(t *testing.T) {
	db := openFixture(t)
	db.RegisterView("adults", "SELECT id, name, age FROM users WHERE age >= 30")

	res, err := db.Execute(context.Background(), "SELECT name FROM adults", nil)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	db.UnregisterView("adults")
	_, err = db.Execute(context.Background(), "SELECT name FROM adults", nil)
	assert.Error(t, err)
}

func TestBeginCommitInsertVisibleAfterCommit(t *testing.T) {
	db := openFixture(t)

	tx, err := db.Begin(context.Background())
	require.NoError(t, err)
	err = tx.Insert("users", map[string]record.ColumnValue{
		"id":   {Kind: record.KindInt64, Int: 4},
		"name": {Kind: record.KindText, Span: []byte("dave")},
		"age":  {Kind: record.KindInt64, Int: 50},
	})
	require.NoError(t, err)

	before := db.DataVersion()
	require.NoError(t, tx.Commit(context.Background()))

	res, err := db.Execute(context.Background(), "SELECT name FROM users WHERE name = 'dave'", nil)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "dave", string(res.Rows[0][0].Span))
	_ = before
}

func TestRollbackDiscardsStagedRows(t *testing.T) {
	db := openFixture(t)

	tx, err := db.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Insert("users", map[string]record.ColumnValue{
		"name": {Kind: record.KindText, Span: []byte("erin")},
	}))
	require.NoError(t, tx.Rollback())

	res, err := db.Execute(context.Background(), "SELECT name FROM users WHERE name = 'erin'", nil)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 0)
}

func TestBeginSerializesWriters(t *testing.T) {
	db := openFixture(t)

	tx1, err := db.Begin(context.Background())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		tx2, err := db.Begin(context.Background())
		require.NoError(t, err)
		require.NoError(t, tx2.Rollback())
		close(done)
	}()

	require.NoError(t, tx1.Rollback())
	<-done
}
