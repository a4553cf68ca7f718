package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/revred/sharc/query"
	"github.com/revred/sharc/record"
)

// OutputFormatter renders a query.Result for display, generalized from the
// teacher's row/schema-pair formatter into one that works directly off a
// Result's columns and record.ColumnValue rows.
type OutputFormatter interface {
	FormatValue(v record.ColumnValue) string
	FormatResult(res query.Result) string
}

// ConsoleFormatter formats a Result as "|"-separated rows, one per line.
type ConsoleFormatter struct {
	io.Writer
}

// NewConsoleFormatter creates a new console formatter.
func NewConsoleFormatter(w io.Writer) *ConsoleFormatter {
	return &ConsoleFormatter{Writer: w}
}

// FormatValue formats a single column value the way the teacher's
// row-printing path did: empty string for NULL, plain text otherwise.
func (cf *ConsoleFormatter) FormatValue(v record.ColumnValue) string {
	switch v.Kind {
	case record.KindNull:
		return ""
	case record.KindInt64:
		return strconv.FormatInt(v.Int, 10)
	case record.KindFloat64:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return string(v.Span)
	}
}

// FormatResult renders every row as a "|"-separated line.
func (cf *ConsoleFormatter) FormatResult(res query.Result) string {
	var b strings.Builder
	for _, row := range res.Rows {
		parts := make([]string, len(row))
		for i, v := range row {
			parts[i] = cf.FormatValue(v)
		}
		b.WriteString(strings.Join(parts, "|"))
		b.WriteString("\n")
	}
	return b.String()
}

// JSONFormatter formats a Result as a JSON array of objects, keyed by
// column name.
type JSONFormatter struct {
	io.Writer
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{Writer: w}
}

// FormatValue formats a single column value as a JSON scalar.
func (jf *JSONFormatter) FormatValue(v record.ColumnValue) string {
	switch v.Kind {
	case record.KindNull:
		return "null"
	case record.KindInt64:
		return strconv.FormatInt(v.Int, 10)
	case record.KindFloat64:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return fmt.Sprintf("%q", string(v.Span))
	}
}

// FormatResult renders the Result as a JSON array of row objects.
func (jf *JSONFormatter) FormatResult(res query.Result) string {
	var rows []string
	for _, row := range res.Rows {
		var pairs []string
		for i, v := range row {
			name := ""
			if i < len(res.Columns) {
				name = res.Columns[i]
			}
			pairs = append(pairs, fmt.Sprintf("%q: %s", name, jf.FormatValue(v)))
		}
		rows = append(rows, fmt.Sprintf("{%s}", strings.Join(pairs, ", ")))
	}
	return fmt.Sprintf("[%s]\n", strings.Join(rows, ", "))
}
