// Package planner implements the rule-based index selector (spec §4.6): it
// turns a table's sargable conditions and declared indexes into a Plan the
// executor can run, favoring full scans, single-index seeks, or two-index
// rowid intersection.
package planner

import (
	"sort"

	"github.com/revred/sharc/catalog"
	"github.com/revred/sharc/predicate"
)

// Strategy names the chosen execution shape.
type Strategy uint8

const (
	FullScan Strategy = iota
	SingleIndex
	RowIdIntersection
)

// KeyKind classifies a seek key's comparison domain.
type KeyKind uint8

const (
	IntegerKey KeyKind = iota
	RealKey
	TextKey
)

func keyKindOf(v predicate.Value) KeyKind {
	switch v.Kind {
	case predicate.ValueFloat64:
		return RealKey
	case predicate.ValueText, predicate.ValueBlob, predicate.ValueTextSet:
		return TextKey
	default:
		return IntegerKey
	}
}

// Leg is one index-driven side of a Plan.
type Leg struct {
	Index               catalog.Index
	ConsumedColumn       string
	SeekOp               predicate.Op
	SeekKey              predicate.Value
	UpperBound           predicate.Value
	HasUpperBound        bool
	KeyKind              KeyKind
	ResidualConstraints  []predicate.SargableCondition
}

// Plan is the selector's output.
type Plan struct {
	Strategy  Strategy
	Primary   *Leg
	Secondary *Leg
	Residual  []predicate.SargableCondition
}

// candidate is an index paired with the conditions it can consume.
type candidate struct {
	index       catalog.Index
	leadingOp   predicate.Op
	consumed    []predicate.SargableCondition // conditions on index's columns, in index column order, contiguous from column 0
}

// Select chooses a Plan for one table given its sargable conditions and
// declared indexes. conds must already be the output of
// predicate.SargableConditions for this table (any alias stripped).
func Select(conds []predicate.SargableCondition, indexes []catalog.Index) Plan {
	byColumn := make(map[string][]predicate.SargableCondition, len(conds))
	for _, c := range conds {
		byColumn[c.ColumnName] = append(byColumn[c.ColumnName], c)
	}

	var candidates []candidate
	for _, idx := range indexes {
		if len(idx.Columns) == 0 {
			continue
		}
		consumed := consumedPrefix(idx, byColumn)
		if len(consumed) == 0 {
			continue
		}
		candidates = append(candidates, candidate{
			index:     idx,
			leadingOp: consumed[0].Op,
			consumed:  consumed,
		})
	}

	if len(candidates) == 0 {
		return Plan{Strategy: FullScan, Residual: conds}
	}

	best := pickBest(candidates)

	// RowIdIntersection: two distinct single-column indexes, each matching a
	// different column via any sargable op (spec §4.6, §8 scenario 6 — e.g.
	// BETWEEN on both sides), neither the chosen best's own column.
	for _, c := range candidates {
		if c.index.Name == best.index.Name {
			continue
		}
		if len(c.index.Columns) != 1 || len(best.index.Columns) != 1 {
			continue
		}
		if c.index.Columns[0].Name == best.index.Columns[0].Name {
			continue
		}
		primary := legFromCandidate(best)
		secondary := legFromCandidate(c)
		residual := residualOutsideIndexes(conds, best, c)
		return Plan{Strategy: RowIdIntersection, Primary: &primary, Secondary: &secondary, Residual: residual}
	}

	primary := legFromCandidate(best)
	residual := residualOutsideIndexes(conds, best)
	return Plan{Strategy: SingleIndex, Primary: &primary, Residual: residual}
}

// consumedPrefix returns, for idx, the leading run of its columns (starting
// at column 0) that have a matching condition, each contributing the first
// condition found for that column. Other conditions on a consumed column
// are not carried in the plan: residualOutsideIndexes keeps only
// conditions on columns no chosen index consumed.
func consumedPrefix(idx catalog.Index, byColumn map[string][]predicate.SargableCondition) []predicate.SargableCondition {
	var out []predicate.SargableCondition
	cols := append([]catalog.IndexColumn{}, idx.Columns...)
	sort.Slice(cols, func(i, j int) bool { return cols[i].Ordinal < cols[j].Ordinal })
	for _, col := range cols {
		matches, ok := byColumn[col.Name]
		if !ok || len(matches) == 0 {
			break
		}
		out = append(out, matches[0])
	}
	return out
}

// pickBest applies spec §4.6's preference order: equality over range,
// unique over non-unique, an index whose every column is constrained over
// one only partly constrained, then shorter consumed-column count, then
// lexicographic index name.
func pickBest(candidates []candidate) candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if better(c, best) {
			best = c
		}
	}
	return best
}

func better(a, b candidate) bool {
	aEq, bEq := a.leadingOp == predicate.OpEq, b.leadingOp == predicate.OpEq
	if aEq != bEq {
		return aEq
	}
	if a.index.IsUnique != b.index.IsUnique {
		return a.index.IsUnique
	}
	aFull, bFull := len(a.consumed) == len(a.index.Columns), len(b.consumed) == len(b.index.Columns)
	if aFull != bFull {
		return aFull
	}
	if len(a.consumed) != len(b.consumed) {
		return len(a.consumed) < len(b.consumed)
	}
	return a.index.Name < b.index.Name
}

func legFromCandidate(c candidate) Leg {
	lead := c.consumed[0]
	leg := Leg{
		Index:          c.index,
		ConsumedColumn: lead.ColumnName,
		SeekOp:         lead.Op,
		SeekKey:        lead.Value,
		KeyKind:        keyKindOf(lead.Value),
	}
	if lead.Op == predicate.OpBetween {
		leg.UpperBound = lead.HighValue
		leg.HasUpperBound = true
	}
	// Extra conditions on later columns of the same composite index become
	// residual constraints attached to this leg (evaluated after key
	// decoding, before row fetch).
	leg.ResidualConstraints = append([]predicate.SargableCondition{}, c.consumed[1:]...)
	return leg
}

// residualOutsideIndexes returns every condition in all that targets a
// column not consumed by any of the given candidates, so it still gets
// applied as a full residual filter pass.
func residualOutsideIndexes(all []predicate.SargableCondition, used ...candidate) []predicate.SargableCondition {
	consumedCols := make(map[string]bool)
	for _, c := range used {
		for _, cond := range c.consumed {
			consumedCols[cond.ColumnName] = true
		}
	}
	var out []predicate.SargableCondition
	for _, cond := range all {
		if !consumedCols[cond.ColumnName] {
			out = append(out, cond)
		}
	}
	return out
}
