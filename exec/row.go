// Package exec implements the streaming execution kernels: the aggregator,
// the tiered FULL OUTER hash-join, the bounded Top-N heap, and the set
// operations, each operating over a row type that is a thin, resolver-free
// slice of decoded column values.
package exec

import "github.com/revred/sharc/record"

// Row is one decoded, materialized row: column values in a fixed schema
// order. Kernels never resolve column names themselves — callers pass a
// column index (or schema slice) alongside.
type Row []record.ColumnValue

// Clone deep-copies every span-bearing column so the row outlives the
// cursor position it was read from.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for i, v := range r {
		out[i] = v.Clone()
	}
	return out
}

// nullRow returns a Row of width n where every column is NULL.
func nullRow(n int) Row {
	out := make(Row, n)
	for i := range out {
		out[i] = record.ColumnValue{Kind: record.KindNull}
	}
	return out
}

func concatRows(left, right Row) Row {
	out := make(Row, 0, len(left)+len(right))
	out = append(out, left...)
	out = append(out, right...)
	return out
}
