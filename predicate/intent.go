// Package predicate defines the flat predicate-intent AST shared by the
// parser collaborator, the sargable-condition analyzer, and the residual
// filter evaluator, plus the three-valued evaluator itself.
package predicate

// Op is a predicate operator.
type Op uint8

const (
	OpEq Op = iota
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpBetween
	OpIn
	OpLike
	OpStartsWith
	OpEndsWith
	OpContains
	OpIsNull
	OpIsNotNull
	OpAnd
	OpOr
	OpNot
)

// IsSargable reports whether Op can ever contribute a SargableCondition.
func (o Op) IsSargable() bool {
	switch o {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpBetween:
		return true
	default:
		return false
	}
}

// IsBoolean reports whether Op combines child nodes rather than comparing
// a column to a value.
func (o Op) IsBoolean() bool {
	return o == OpAnd || o == OpOr || o == OpNot
}

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	ValueInt64 ValueKind = iota
	ValueFloat64
	ValueText
	ValueBlob
	ValueInt64Set
	ValueTextSet
	ValueParameterName
)

// Value is the tagged union carried by comparison nodes.
type Value struct {
	Kind    ValueKind
	Int     int64
	Float   float64
	Text    string
	Blob    []byte
	Ints    []int64
	Texts   []string
	ParamID string
}

// Int64Value builds an integer Value.
func Int64Value(v int64) Value { return Value{Kind: ValueInt64, Int: v} }

// Float64Value builds a real Value.
func Float64Value(v float64) Value { return Value{Kind: ValueFloat64, Float: v} }

// TextValue builds a text Value.
func TextValue(v string) Value { return Value{Kind: ValueText, Text: v} }

// BlobValue builds a blob Value.
func BlobValue(v []byte) Value { return Value{Kind: ValueBlob, Blob: v} }

// ParamValue builds a reference to a named query parameter.
func ParamValue(name string) Value { return Value{Kind: ValueParameterName, ParamID: name} }

// Node is one entry of the flat predicate-intent array. Boolean nodes
// reference children by index into the same Intent.Nodes slice.
type Node struct {
	Op         Op
	ColumnName string
	Value      Value
	HighValue  Value
	HasHigh    bool
	LeftIndex  int
	RightIndex int
	ChildIndex int // for Not
}

// Intent is a flat array-of-nodes predicate AST with an explicit root.
type Intent struct {
	Nodes []Node
	Root  int
}

// NodeAt returns the node at idx; idx < 0 yields the zero Node and false.
func (it *Intent) NodeAt(idx int) (Node, bool) {
	if idx < 0 || idx >= len(it.Nodes) {
		return Node{}, false
	}
	return it.Nodes[idx], true
}

// Add appends a node and returns its index.
func (it *Intent) Add(n Node) int {
	it.Nodes = append(it.Nodes, n)
	return len(it.Nodes) - 1
}
