// Package query ties the parser collaborator's compiled intent to a plan,
// an executor, and a fully materialized Result (every row is collected
// before it is returned; there is no lazy iterator): the plan cache, the DIRECT/CACHED/JIT
// execution tiers, view resolution, and the programmatic surface of the
// engine all live here.
package query

import (
	"github.com/revred/sharc/catalog"
	"github.com/revred/sharc/exec"
	"github.com/revred/sharc/predicate"
)

// JoinKind distinguishes an inner join from a left outer join; the engine
// only ever executes FULL OUTER kernels internally, projecting unmatched
// rows away for Inner/Left as required.
type JoinKind uint8

const (
	JoinInner JoinKind = iota
	JoinLeft
)

// ProjectionItem is one output column of a SELECT list.
type ProjectionItem struct {
	ColumnName string
	TableAlias string
	OutputName string
	IsStar     bool
}

// FromSpec names the primary table (or view) a query reads from.
type FromSpec struct {
	TableName string
	Alias     string
}

// JoinSpec is one additional table joined against the running result.
type JoinSpec struct {
	Kind           JoinKind
	TableName      string
	Alias          string
	OnLeftColumn   string
	OnRightColumn  string
	OnLeftAlias    string
	OnRightAlias   string
}

// OrderBySpec is one ORDER BY key.
type OrderBySpec struct {
	ColumnName string
	Descending bool
}

// CompoundSpec chains a UNION/INTERSECT/EXCEPT tail onto a compiled query.
type CompoundSpec struct {
	Op   exec.SetOp
	Next *CompiledIntent
}

// CompiledIntent is the output of the parser collaborator: everything the
// orchestrator needs to build a plan and execute it, independent of any
// particular SQL grammar.
type CompiledIntent struct {
	Projection   []ProjectionItem
	From         FromSpec
	Joins        []JoinSpec
	Filter       *predicate.Intent
	GroupBy      []string
	Aggregates   []exec.AggregateSpec
	Having       *predicate.Intent
	OrderBy      []OrderBySpec
	Limit        *int64
	Offset       *int64
	CompoundTail *CompoundSpec
}

// Parser is the external parser collaborator interface (spec §6): it turns
// query text into a CompiledIntent, or a standalone expression into a
// PredicateIntent (used for JIT-handle Where chaining; view bodies go
// through Parse).
type Parser interface {
	Parse(queryText string) (CompiledIntent, error)
	ParseExpression(text string) (predicate.Intent, error)
}

// DDLParser is catalog.DDLParser, re-exported here for call sites that
// only otherwise depend on this package's Parser interface.
type DDLParser = catalog.DDLParser
