package rulegen

import "reflect"

// BindingKind discriminates the shape of a Binding's value.
type BindingKind byte

const (
	// BindConstInt is a literal integer constant.
	BindConstInt BindingKind = iota
	// BindConstPrim is a literal primitive symbol (e.g. a named constant).
	BindConstPrim
	// BindArgument is the Index'th argument of the term being matched.
	BindArgument
	// BindExtractor is the result of calling an extractor term on Source.
	BindExtractor
	// BindConstructor is the result of calling a constructor term on
	// Fields.
	BindConstructor
	// BindMakeVariant builds an enum value of VariantTy/VariantIdx from
	// Fields.
	BindMakeVariant
	// BindMakeSome wraps Source in an Option.
	BindMakeSome
	// BindMatchSome unwraps the Option bound at Source.
	BindMatchSome
	// BindMatchTuple projects field FieldIdx out of the tuple bound at
	// Source.
	BindMatchTuple
	// BindMatchVariant projects field FieldIdx out of variant VariantIdx
	// of the enum bound at Source.
	BindMatchVariant
	// BindIterator draws the next element from the iterator bound at
	// Source.
	BindIterator
)

// Binding is one node of a RuleSet's binding DAG: a single tagged struct
// whose fields are reused across Kinds, rather than a family of distinct
// Go types. The binding table is dense and homogeneous, so one shape
// with a discriminant is simpler to index and compare than an interface
// hierarchy.
type Binding struct {
	Kind BindingKind

	// Val, Ty: BindConstInt.
	Val int64
	Ty  TypeId

	// Sym: BindConstPrim.
	Sym Sym

	// Index: BindArgument.
	Index uint32

	// Term: BindExtractor, BindConstructor.
	Term TermId

	// Source: BindExtractor's argument, BindMakeSome's wrapped value,
	// BindMatchSome/BindMatchTuple/BindMatchVariant/BindIterator's
	// operand.
	Source BindingId

	// Fields: BindConstructor's arguments, BindMakeVariant's fields.
	Fields []BindingId

	// VariantTy, VariantIdx: BindMakeVariant, BindMatchVariant.
	VariantTy  TypeId
	VariantIdx uint32

	// FieldIdx: BindMatchTuple, BindMatchVariant.
	FieldIdx uint32
}

// Equal reports structural equality, used by RuleSet.FindBinding to
// locate an existing binding matching a freshly-constructed query
// binding (e.g. "the Argument binding for index i").
func (b Binding) Equal(other Binding) bool {
	return reflect.DeepEqual(b, other)
}

// ConstraintKind discriminates the shape of a Constraint's test.
type ConstraintKind byte

const (
	// ConstraintConstInt tests for equality with a literal integer.
	ConstraintConstInt ConstraintKind = iota
	// ConstraintConstPrim tests for equality with a literal primitive
	// symbol.
	ConstraintConstPrim
	// ConstraintVariant tests that the bound enum value is VariantIdx of
	// VariantTy.
	ConstraintVariant
	// ConstraintSome tests that the bound Option is non-empty.
	ConstraintSome
)

// Constraint is the test half of a MatchArm. It carries no sub-bindings of
// its own; MatchArm's Bindings slice holds whatever sub-bindings the
// matched sub-patterns need, aligned positionally with the constraint's
// arity (Variant's field count, or 1 for Some, 0 otherwise).
type Constraint struct {
	Kind ConstraintKind

	Val int64
	Ty  TypeId

	Sym Sym

	VariantTy  TypeId
	VariantIdx uint32
}

// Arity returns how many sub-bindings this constraint's MatchArm expects
// in its Bindings slice.
func (c Constraint) Arity(env *TypeEnv) int {
	switch c.Kind {
	case ConstraintVariant:
		return len(env.Types[c.VariantTy.index()].Variants[c.VariantIdx].Fields)
	case ConstraintSome:
		return 1
	default:
		return 0
	}
}
