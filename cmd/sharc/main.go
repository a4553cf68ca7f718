package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Usage: sharc sample.db .dbinfo
//        sharc sample.db .tables
//        sharc sample.db "SELECT * FROM users WHERE age > 21"
func main() {
	if err := runProgram(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runProgram is the testable core of main, grounded on the teacher's own
// runProgram split (args-in, error-out) so tests can drive it without a
// subprocess.
func runProgram(args []string) error {
	if len(args) < 3 {
		return errors.New("usage: sharc <database-file> <command-or-sql>")
	}

	dbPath := args[1]
	command := args[2]
	rest := strings.Join(args[3:], " ")

	engine, err := NewEngine(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer engine.Close()

	return engine.ExecuteCommand(command, rest)
}
