package predicate

// SargableCondition is one equality/range condition on a single column
// that the planner may be able to satisfy with an index, extracted from
// an And-conjunction prefix of a predicate intent.
type SargableCondition struct {
	ColumnName string
	Op         Op
	Value      Value
	HighValue  Value
	HasHigh    bool
}

// SargableConditions descends through And nodes starting at root,
// collecting every Eq/Neq/Lt/Lte/Gt/Gte/Between leaf it finds along the
// way. Descent stops (without recursing further) at Or and Not nodes,
// since no useful index restriction can be derived across an Or branch
// or through a negation; whatever remains becomes residual filter.
// Residual reports whether any part of the tree was not represented as a
// SargableCondition (so the caller must still apply Evaluate to the full
// Intent even after using the extracted conditions to pick an index).
func SargableConditions(it *Intent, root int) (conds []SargableCondition, residual bool) {
	n, ok := it.NodeAt(root)
	if !ok {
		return nil, true
	}
	switch n.Op {
	case OpAnd:
		lc, lr := SargableConditions(it, n.LeftIndex)
		rc, rr := SargableConditions(it, n.RightIndex)
		return append(lc, rc...), lr || rr
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte:
		return []SargableCondition{{ColumnName: n.ColumnName, Op: n.Op, Value: n.Value}}, false
	case OpBetween:
		return []SargableCondition{{ColumnName: n.ColumnName, Op: n.Op, Value: n.Value, HighValue: n.HighValue, HasHigh: true}}, false
	default:
		return nil, true
	}
}
