package rulegen

// ControlFlowKind discriminates the four ways an EvalStep's result can
// branch the generated code.
type ControlFlowKind byte

const (
	// FlowMatch branches on Constraint tests over Source, one arm per
	// constraint, falling through to the next Block step if no arm's
	// constraint matches and the match isn't exhaustive.
	FlowMatch ControlFlowKind = iota
	// FlowEqual asserts that bindings A and B denote equal values,
	// continuing into Body if so.
	FlowEqual
	// FlowLoop draws successive elements from the iterator bound at
	// Source into Result, running Body once per element.
	FlowLoop
	// FlowReturn yields Result as one output of the term being compiled.
	FlowReturn
)

// MatchArm is one case of a FlowMatch: a Constraint to test, the
// sub-bindings it yields on success (aligned with Constraint.Arity,
// with bindingIdInvalid marking an elided sub-pattern), and the nested
// Block to run if it matches.
type MatchArm struct {
	Constraint Constraint
	Bindings   []BindingId
	Body       *Block
}

// ControlFlow is the terminal action of an EvalStep.
type ControlFlow struct {
	Kind ControlFlowKind

	// Source: FlowMatch's scrutinee, FlowLoop's iterator.
	Source BindingId

	// Arms: FlowMatch.
	Arms []MatchArm

	// A, B: FlowEqual.
	A, B BindingId

	// Body: FlowEqual's continuation, FlowLoop's per-element body.
	Body *Block

	// Result: FlowLoop's per-element binding, FlowReturn's yielded
	// value.
	Result BindingId

	// Pos: FlowReturn's source position, for diagnostics.
	Pos Pos
}

// EvalStep binds zero or more values (BindOrder, in the order they must be
// emitted so that later bindings in the same step may reference earlier
// ones) before taking its terminal Check action.
type EvalStep struct {
	BindOrder []BindingId
	Check     ControlFlow
}

// Block is a straight-line sequence of EvalSteps. It is the unit a
// decision-tree serializer produces for the root of a rule set and for
// every nested branch (MatchArm.Body, FlowEqual.Body, FlowLoop.Body).
type Block struct {
	Steps []EvalStep
}

// RuleSet is one term's fully-compiled decision tree: the shared binding
// table every BindingId in Root indexes into, plus the tree itself. Root
// is produced by an upstream decision-tree compiler/serializer; this
// package only consumes it.
type RuleSet struct {
	Bindings []Binding
	Root     *Block
}

// FindBinding returns the BindingId of an existing binding structurally
// equal to query, if one exists. Used to recover the canonical binding
// for a term argument so its is_ref state can be looked up by identity
// rather than by recomputing it.
func (rs *RuleSet) FindBinding(query Binding) (BindingId, bool) {
	for i, b := range rs.Bindings {
		if b.Equal(query) {
			return BindingId(i), true
		}
	}
	return 0, false
}

// Binding resolves id against this rule set's binding table.
func (rs *RuleSet) Binding(id BindingId) Binding {
	return rs.Bindings[id.index()]
}

func (id BindingId) index() int { return int(id) }
