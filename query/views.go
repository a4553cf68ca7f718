package query

import (
	"sync"

	"github.com/revred/sharc/predicate"
	"github.com/revred/sharc/sharcerr"
)

// maxViewDepth bounds recursive view substitution (spec §4.10).
const maxViewDepth = 8

// ViewRegistry holds named queries substituted in place of a table
// reference during compilation. It is populated both from CREATE VIEW
// rows discovered by the catalog and from explicit RegisterView calls.
type ViewRegistry struct {
	mu    sync.RWMutex
	views map[string]string // name -> body SQL text
}

// NewViewRegistry returns an empty registry.
func NewViewRegistry() *ViewRegistry {
	return &ViewRegistry{views: make(map[string]string)}
}

// Register adds or replaces a view's body text.
func (r *ViewRegistry) Register(name, bodySQL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[name] = bodySQL
}

// Unregister removes a view; a no-op if absent.
func (r *ViewRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.views, name)
}

func (r *ViewRegistry) lookup(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	body, ok := r.views[name]
	return body, ok
}

// resolveViews substitutes the FROM table of intent (and of each compound
// tail) that names a view with the view's own compiled body, keeping the
// outer projection and composing residual predicates with AND. Joined
// table names that are views are only checked for recursion depth and are
// not substituted. Recursion beyond maxViewDepth surfaces ViewRecursion.
func resolveViews(parser Parser, views *ViewRegistry, intent CompiledIntent, depth int) (CompiledIntent, error) {
	if depth > maxViewDepth {
		return CompiledIntent{}, sharcerr.New("query.resolveViews", sharcerr.KindViewRecursion, nil, "depth", depth)
	}

	if body, ok := views.lookup(intent.From.TableName); ok {
		viewIntent, err := parser.Parse(body)
		if err != nil {
			return CompiledIntent{}, err
		}
		viewIntent, err = resolveViews(parser, views, viewIntent, depth+1)
		if err != nil {
			return CompiledIntent{}, err
		}
		intent = mergeViewBody(intent, viewIntent)
	}

	// Joined table references that name a view are only checked for
	// recursion depth here, not substituted in place: merging a joined
	// view's own FROM/filter would require remapping its column names
	// under the join's alias, which the flat CompiledIntent shape does not
	// carry. applyJoin looks a joined name up as a catalog table, so a join
	// against a view name fails with UnknownTable.
	for _, j := range intent.Joins {
		if body, ok := views.lookup(j.TableName); ok {
			if _, err := resolveViewJoinBody(parser, views, body, depth+1); err != nil {
				return CompiledIntent{}, err
			}
		}
	}

	if intent.CompoundTail != nil {
		next, err := resolveViews(parser, views, *intent.CompoundTail.Next, depth+1)
		if err != nil {
			return CompiledIntent{}, err
		}
		intent.CompoundTail.Next = &next
	}

	return intent, nil
}

func resolveViewJoinBody(parser Parser, views *ViewRegistry, body string, depth int) (CompiledIntent, error) {
	intent, err := parser.Parse(body)
	if err != nil {
		return CompiledIntent{}, err
	}
	return resolveViews(parser, views, intent, depth)
}

// mergeViewBody substitutes outer's FROM with the view's FROM/joins/filter,
// preserving the outer query's own projection, ordering, and limit (ORDER
// BY / LIMIT inside the view body bind inside the view's own subtree and
// are otherwise dropped here since the outer query's clauses take
// precedence per spec §4.10).
func mergeViewBody(outer, view CompiledIntent) CompiledIntent {
	merged := outer
	merged.From = view.From
	merged.Joins = append(append([]JoinSpec{}, view.Joins...), outer.Joins...)
	merged.Filter = andFilters(view.Filter, outer.Filter)
	return merged
}

// andFilters composes two predicate intents with AND, copying both node
// arrays into a fresh Intent so neither input is mutated.
func andFilters(a, b *predicate.Intent) *predicate.Intent {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	merged := &predicate.Intent{}
	merged.Nodes = append(merged.Nodes, a.Nodes...)
	offset := len(merged.Nodes)
	for _, n := range b.Nodes {
		if n.Op.IsBoolean() {
			if n.Op != predicate.OpNot {
				n.LeftIndex += offset
				n.RightIndex += offset
			} else {
				n.ChildIndex += offset
			}
		}
		merged.Nodes = append(merged.Nodes, n)
	}
	bRoot := b.Root + offset
	root := merged.Add(predicate.Node{Op: predicate.OpAnd, LeftIndex: a.Root, RightIndex: bRoot})
	merged.Root = root
	return merged
}
