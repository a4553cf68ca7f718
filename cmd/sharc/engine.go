package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/revred/sharc/query"
	"github.com/revred/sharc/sqlparse"
)

// Engine is the CLI's command dispatcher, grounded on the teacher's
// SqliteEngine but backed by the query package's full DIRECT-tier
// execution pipeline instead of a single-table, no-join handleSelect.
type Engine struct {
	db        *query.Database
	formatter OutputFormatter
}

// NewEngine opens dbPath read-only and wires the default SQL parser.
func NewEngine(dbPath string) (*Engine, error) {
	db, err := query.Open(dbPath, true, sqlparse.DefaultOptions()...)
	if err != nil {
		return nil, err
	}
	return &Engine{db: db, formatter: NewConsoleFormatter(os.Stdout)}, nil
}

// Close releases the underlying database.
func (e *Engine) Close() error {
	return e.db.Close()
}

// ExecuteCommand dispatches one top-level command: the two dot-commands
// the teacher supported, or an arbitrary SQL statement.
func (e *Engine) ExecuteCommand(command, args string) error {
	switch command {
	case ".dbinfo":
		return e.handleDBInfo()
	case ".tables":
		return e.handleTables()
	default:
		return e.handleSQL(command + " " + args)
	}
}

func (e *Engine) handleDBInfo() error {
	_, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Printf("database page size: %v\n", e.db.PageSize())
	tables := e.db.Tables()
	fmt.Printf("number of tables: %v\n", len(tables))
	return nil
}

func (e *Engine) handleTables() error {
	for _, name := range e.db.Tables() {
		fmt.Printf("%s ", name)
	}
	fmt.Println()
	return nil
}

func (e *Engine) handleSQL(text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := e.db.Execute(ctx, text, nil)
	if err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	fmt.Print(e.formatter.FormatResult(res))
	return nil
}
