package exec

import (
	"github.com/revred/sharc/record"
)

// AggregateConfig configures a streaming Aggregator: which source column
// ordinal feeds each aggregate, the grouping column ordinals (empty for a
// single ungrouped total), and the output column names.
type AggregateConfig struct {
	Aggregates      []AggregateSpec
	AggregateSource []int // source column ordinal for each entry in Aggregates (-1 for CountStar)
	GroupBy         []int // source column ordinals forming the group key, in declared order
	OutputColumns   []string
}

type accState struct {
	count   int64
	sumInt  int64
	sumF    float64
	isFloat bool
	min     record.ColumnValue
	max     record.ColumnValue
	hasMM   bool
}

type groupState struct {
	key   Row
	accs  []accState
}

// Aggregator implements the streaming aggregator of spec §4.8.1: rows are
// delivered one at a time via Accumulate, and Finalize produces the output
// rows once the input is exhausted.
type Aggregator struct {
	cfg    AggregateConfig
	groups map[uint64][]*groupState
	order  []uint64
}

// NewAggregator builds an Aggregator for cfg.
func NewAggregator(cfg AggregateConfig) *Aggregator {
	return &Aggregator{cfg: cfg, groups: make(map[uint64][]*groupState)}
}

// Accumulate folds one row into the aggregator's running state.
func (a *Aggregator) Accumulate(row Row) {
	key := make(Row, len(a.cfg.GroupBy))
	for i, ord := range a.cfg.GroupBy {
		key[i] = row[ord]
	}
	gs := a.groupFor(key)
	for i, spec := range a.cfg.Aggregates {
		srcOrd := a.cfg.AggregateSource[i]
		var val record.ColumnValue
		if srcOrd >= 0 {
			val = row[srcOrd]
		}
		accumulateOne(&gs.accs[i], spec.Func, val)
	}
}

func (a *Aggregator) groupFor(key Row) *groupState {
	h := rowHashForSetOp(key)
	for _, gs := range a.groups[h] {
		if rowEqualSetOp(gs.key, key) {
			return gs
		}
	}
	gs := &groupState{key: key, accs: make([]accState, len(a.cfg.Aggregates))}
	a.groups[h] = append(a.groups[h], gs)
	a.order = append(a.order, h)
	return gs
}

func accumulateOne(st *accState, fn AggregateFunc, val record.ColumnValue) {
	switch fn {
	case AggCountStar:
		st.count++
	case AggCount:
		if !val.IsNull() {
			st.count++
		}
	case AggSum, AggAvg:
		if val.IsNull() {
			return
		}
		if val.Kind == record.KindFloat64 {
			if !st.isFloat {
				st.sumF = float64(st.sumInt)
				st.isFloat = true
			}
			st.sumF += val.Float
		} else if st.isFloat {
			st.sumF += float64(val.Int)
		} else {
			st.sumInt += val.Int
		}
		st.count++
	case AggMin:
		if val.IsNull() {
			return
		}
		if !st.hasMM || lessColumnValue(val, st.min) {
			st.min = val
			st.hasMM = true
		}
	case AggMax:
		if val.IsNull() {
			return
		}
		if !st.hasMM || lessColumnValue(st.max, val) {
			st.max = val
			st.hasMM = true
		}
	}
}

func lessColumnValue(a, b record.ColumnValue) bool {
	if a.Kind == record.KindText || a.Kind == record.KindBlob {
		return string(a.Span) < string(b.Span)
	}
	return asFloat(a) < asFloat(b)
}

// Finalize drains every group into an output row, in arbitrary but
// deterministic (insertion) order.
func (a *Aggregator) Finalize() []Row {
	var rows []Row
	for _, h := range a.order {
		for _, gs := range a.groups[h] {
			row := make(Row, 0, len(gs.key)+len(a.cfg.Aggregates))
			row = append(row, gs.key...)
			for i, spec := range a.cfg.Aggregates {
				row = append(row, finalizeOne(&gs.accs[i], spec.Func))
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func finalizeOne(st *accState, fn AggregateFunc) record.ColumnValue {
	switch fn {
	case AggCountStar, AggCount:
		return record.ColumnValue{Kind: record.KindInt64, Int: st.count}
	case AggSum:
		if st.isFloat {
			return record.ColumnValue{Kind: record.KindFloat64, Float: st.sumF}
		}
		return record.ColumnValue{Kind: record.KindInt64, Int: st.sumInt}
	case AggAvg:
		if st.count == 0 {
			return record.ColumnValue{Kind: record.KindNull}
		}
		sum := st.sumF
		if !st.isFloat {
			sum = float64(st.sumInt)
		}
		return record.ColumnValue{Kind: record.KindFloat64, Float: sum / float64(st.count)}
	case AggMin:
		if !st.hasMM {
			return record.ColumnValue{Kind: record.KindNull}
		}
		return st.min
	case AggMax:
		if !st.hasMM {
			return record.ColumnValue{Kind: record.KindNull}
		}
		return st.max
	default:
		return record.ColumnValue{Kind: record.KindNull}
	}
}
