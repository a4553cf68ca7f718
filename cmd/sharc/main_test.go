package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/revred/sharc/internal/testfixture"
)

// writeFixtureDB builds a tiny users(id, name, age) database on disk so
// runProgram can open it exactly like a real .db file.
func writeFixtureDB(t *testing.T) string {
	t.Helper()
	row := func(name string, age int64) []byte {
		return testfixture.EncodeRecord([]testfixture.FieldValue{
			testfixture.NullField(),
			testfixture.TextField(name),
			testfixture.Int64Field(age),
		})
	}
	cells := [][]byte{
		testfixture.LeafTableCell(1, row("alice", 30)),
		testfixture.LeafTableCell(2, row("bob", 25)),
	}
	buf := testfixture.Database([]testfixture.SchemaRow{
		{Type: "table", Name: "users", TblName: "users", RootPage: 2,
			SQL: "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, age INTEGER)"},
	}, map[uint32][][]byte{2: cells})

	path := filepath.Join(t.TempDir(), "fixture.db")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write fixture db: %v", err)
	}
	return path
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	runErr := fn()
	w.Close()
	os.Stdout = old

	out, _ := io.ReadAll(r)
	return string(out), runErr
}

func TestRunProgramDBInfo(t *testing.T) {
	dbPath := writeFixtureDB(t)
	out, err := captureStdout(t, func() error {
		return runProgram([]string{"sharc", dbPath, ".dbinfo"})
	})
	if err != nil {
		t.Fatalf("runProgram: %v", err)
	}
	if !strings.Contains(out, "database page size:") || !strings.Contains(out, "number of tables: 1") {
		t.Errorf("unexpected .dbinfo output: %q", out)
	}
}

func TestRunProgramTables(t *testing.T) {
	dbPath := writeFixtureDB(t)
	out, err := captureStdout(t, func() error {
		return runProgram([]string{"sharc", dbPath, ".tables"})
	})
	if err != nil {
		t.Fatalf("runProgram: %v", err)
	}
	if !strings.Contains(out, "users") {
		t.Errorf("expected users table listed, got: %q", out)
	}
}

func TestRunProgramSelectQuery(t *testing.T) {
	dbPath := writeFixtureDB(t)
	out, err := captureStdout(t, func() error {
		return runProgram([]string{"sharc", dbPath, "SELECT", "name", "FROM", "users", "WHERE", "age", ">", "26"})
	})
	if err != nil {
		t.Fatalf("runProgram: %v", err)
	}
	if !strings.Contains(out, "alice") || strings.Contains(out, "bob") {
		t.Errorf("unexpected SELECT output: %q", out)
	}
}

func TestRunProgramMissingArgs(t *testing.T) {
	if err := runProgram([]string{"sharc"}); err == nil {
		t.Error("expected error for missing arguments")
	}
}

func TestRunProgramNonexistentDatabase(t *testing.T) {
	if err := runProgram([]string{"sharc", "/nonexistent/database.db", ".dbinfo"}); err == nil {
		t.Error("expected error for nonexistent database")
	}
}
