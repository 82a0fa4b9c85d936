package rulegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// syms/types helpers build a minimal TypeEnv for tests without needing a
// real frontend.
func u32Env() (*TypeEnv, TypeId) {
	env := &TypeEnv{Syms: []string{"u32"}, Types: []Type{{Kind: KindPrimitive, Name: 0}}}
	return env, 0
}

func TestGenerate_identityReturnsItsOnlyArgument(t *testing.T) {
	env, u32 := u32Env()
	termEnv := &TermEnv{Terms: []Term{{
		Name: 0,
		ConstructorSig: &ExternalSig{
			FuncName: "identity", FullName: "identity",
			ParamTys: []TypeId{u32}, RetTys: []TypeId{u32}, RetKind: ReturnPlain,
		},
	}}}
	env.Syms = append(env.Syms, "identity")
	termEnv.Terms[0].Name = 1

	rs := &RuleSet{
		Bindings: []Binding{{Kind: BindArgument, Index: 0}},
		Root: &Block{Steps: []EvalStep{{
			Check: ControlFlow{Kind: FlowReturn, Result: 0},
		}}},
	}

	out, err := Generate(env, termEnv, []TermRuleSet{{Term: 0, Rules: rs}}, CodegenOptions{ExcludeGeneratedFileComment: true})
	require.NoError(t, err)
	require.Contains(t, out, "pub fn identity<C: Context>(ctx: &mut C, arg0: u32) -> u32 {")
	require.Contains(t, out, "return arg0;", "a reference to Argument(0) must use the same identifier the parameter was declared with")
	require.NotContains(t, out, "unreachable!", "a step ending in Return needs no fallback")
}

func TestGenerate_exhaustiveVariantMatchOmitsFallback(t *testing.T) {
	env := &TypeEnv{
		Syms: []string{"Shape", "Circle", "Square", "radius", "side", "f64", "classify"},
		Types: []Type{
			{Kind: KindEnum, Name: 0, Variants: []Variant{
				{Name: 1, Fields: []Field{{Name: 3, Ty: 1}}},
				{Name: 2, Fields: []Field{{Name: 4, Ty: 1}}},
			}},
			{Kind: KindPrimitive, Name: 5},
		},
	}
	shapeTy := TypeId(0)
	f64Ty := TypeId(1)

	termEnv := &TermEnv{Terms: []Term{{
		Name: 6,
		ConstructorSig: &ExternalSig{
			FuncName: "classify", FullName: "classify",
			ParamTys: []TypeId{shapeTy}, RetTys: []TypeId{f64Ty}, RetKind: ReturnPlain,
		},
	}}}

	argId := BindingId(0)
	circleField := BindingId(1)
	squareField := BindingId(2)
	rs := &RuleSet{
		Bindings: []Binding{
			{Kind: BindArgument, Index: 0},
			{Kind: BindMatchVariant, Source: argId, VariantTy: shapeTy, VariantIdx: 0, FieldIdx: 0},
			{Kind: BindMatchVariant, Source: argId, VariantTy: shapeTy, VariantIdx: 1, FieldIdx: 0},
		},
		Root: &Block{Steps: []EvalStep{{
			Check: ControlFlow{
				Kind:   FlowMatch,
				Source: argId,
				Arms: []MatchArm{
					{
						Constraint: Constraint{Kind: ConstraintVariant, VariantTy: shapeTy, VariantIdx: 0},
						Bindings:   []BindingId{circleField},
						Body: &Block{Steps: []EvalStep{{
							BindOrder: []BindingId{circleField},
							Check:     ControlFlow{Kind: FlowReturn, Result: circleField},
						}}},
					},
					{
						Constraint: Constraint{Kind: ConstraintVariant, VariantTy: shapeTy, VariantIdx: 1},
						Bindings:   []BindingId{squareField},
						Body: &Block{Steps: []EvalStep{{
							BindOrder: []BindingId{squareField},
							Check:     ControlFlow{Kind: FlowReturn, Result: squareField},
						}}},
					},
				},
			},
		}}},
	}

	out, err := Generate(env, termEnv, []TermRuleSet{{Term: 0, Rules: rs}}, CodegenOptions{ExcludeGeneratedFileComment: true})
	require.NoError(t, err)
	require.Contains(t, out, "match arg0 {", "the argument is already a reference, so the scrutinee needs no extra &")
	require.Contains(t, out, "&Shape::Circle { .. } => {")
	require.Contains(t, out, "&Shape::Square { .. } => {")
	require.NotContains(t, out, "_ => {}", "a match covering every variant needs no catch-all arm")
	require.NotContains(t, out, `unreachable!("no rule matched`)
}

// TestGenerate_singleArmConstIntMatchRendersAsIf covers a FlowMatch with
// exactly one ConstInt arm: it must render as a plain `if`, not a `match`
// (which would need a redundant catch-all arm to compile), and the
// constant itself must be emitted in hex. Falling through the `if` must
// still reach the diagnostic fallback, which must name the term and its
// declaration position.
func TestGenerate_singleArmConstIntMatchRendersAsIf(t *testing.T) {
	env, u32 := u32Env()
	env.Syms = append(env.Syms, "classify")
	termEnv := &TermEnv{Terms: []Term{{
		Name:    1,
		DeclPos: Pos{File: 0, Line: 5},
		ConstructorSig: &ExternalSig{
			FuncName: "classify", FullName: "classify",
			ParamTys: []TypeId{u32}, RetTys: []TypeId{u32}, RetKind: ReturnPlain,
		},
	}}}
	env.Filenames = []string{"rules.isle"}

	argId := BindingId(0)
	rs := &RuleSet{
		Bindings: []Binding{{Kind: BindArgument, Index: 0}},
		Root: &Block{Steps: []EvalStep{{
			Check: ControlFlow{
				Kind:   FlowMatch,
				Source: argId,
				Arms: []MatchArm{{
					Constraint: Constraint{Kind: ConstraintConstInt, Val: 0},
					Body: &Block{Steps: []EvalStep{{
						Check: ControlFlow{Kind: FlowReturn, Result: argId},
					}}},
				}},
			},
		}}},
	}

	out, err := Generate(env, termEnv, []TermRuleSet{{Term: 0, Rules: rs}}, CodegenOptions{ExcludeGeneratedFileComment: true})
	require.NoError(t, err)
	require.Contains(t, out, "if arg0 == 0x0 {")
	require.NotContains(t, out, "match arg0 {")
	require.NotContains(t, out, "_ => {}")
	require.Contains(t, out, `unreachable!("no rule matched for term {} at {}; should it be partial?", "classify", "rules.isle line 5")`,
		"falling off a non-exhaustive if must still panic, naming the term and its position")
}

// TestGenerate_negativeSignedConstIntIsRenderedAsNegatedHex covers the
// negative-constant hex rule: a negative value whose type's name starts
// with "i" (the signed-integer naming convention) gets a negated hex
// literal instead of Rust's own two's-complement hex formatting.
func TestGenerate_negativeSignedConstIntIsRenderedAsNegatedHex(t *testing.T) {
	env := &TypeEnv{Syms: []string{"i32", "classify"}, Types: []Type{{Kind: KindPrimitive, Name: 0}}}
	i32 := TypeId(0)
	termEnv := &TermEnv{Terms: []Term{{
		Name: 1,
		ConstructorSig: &ExternalSig{
			FuncName: "classify", FullName: "classify",
			ParamTys: []TypeId{i32}, RetTys: []TypeId{i32}, RetKind: ReturnPlain,
		},
	}}}

	argId := BindingId(0)
	rs := &RuleSet{
		Bindings: []Binding{{Kind: BindArgument, Index: 0}},
		Root: &Block{Steps: []EvalStep{{
			Check: ControlFlow{
				Kind:   FlowMatch,
				Source: argId,
				Arms: []MatchArm{{
					Constraint: Constraint{Kind: ConstraintConstInt, Val: -1, Ty: i32},
					Body: &Block{Steps: []EvalStep{{
						Check: ControlFlow{Kind: FlowReturn, Result: argId},
					}}},
				}},
			},
		}}},
	}

	out, err := Generate(env, termEnv, []TermRuleSet{{Term: 0, Rules: rs}}, CodegenOptions{ExcludeGeneratedFileComment: true})
	require.NoError(t, err)
	require.Contains(t, out, "if arg0 == -0x1 {")
}

// TestGenerate_returnOptionDoesNotWrapInSome covers a term whose
// constructor signature is ReturnOption: the return site itself must
// never add a Some(...) wrapper, since the bound value already carries
// whatever Option-ness it needs from wherever it was produced.
func TestGenerate_returnOptionDoesNotWrapInSome(t *testing.T) {
	env, u32 := u32Env()
	env.Syms = append(env.Syms, "maybe_identity")
	termEnv := &TermEnv{Terms: []Term{{
		Name: 1,
		ConstructorSig: &ExternalSig{
			FuncName: "maybe_identity", FullName: "maybe_identity",
			ParamTys: []TypeId{u32}, RetTys: []TypeId{u32}, RetKind: ReturnOption,
		},
	}}}

	rs := &RuleSet{
		Bindings: []Binding{{Kind: BindArgument, Index: 0}},
		Root: &Block{Steps: []EvalStep{{
			Check: ControlFlow{Kind: FlowReturn, Result: 0},
		}}},
	}

	out, err := Generate(env, termEnv, []TermRuleSet{{Term: 0, Rules: rs}}, CodegenOptions{ExcludeGeneratedFileComment: true})
	require.NoError(t, err)
	require.Contains(t, out, "-> Option<u32> {")
	require.Contains(t, out, "return arg0;")
	require.NotContains(t, out, "Some(arg0)")
}

func TestGenerate_externalConstructorEmitsNoFunction(t *testing.T) {
	env, u32 := u32Env()
	termEnv := &TermEnv{Terms: []Term{{
		Name: 1,
		ConstructorSig: &ExternalSig{
			FuncName: "make_thing", FullName: "make_thing",
			ParamTys: []TypeId{u32}, RetTys: []TypeId{u32}, RetKind: ReturnPlain,
		},
		HasExternalConstructor: true,
	}}}
	env.Syms = append(env.Syms, "make_thing")

	out, err := Generate(env, termEnv, nil, CodegenOptions{ExcludeGeneratedFileComment: true})
	require.NoError(t, err)
	require.Contains(t, out, "fn make_thing(&mut self, arg0: u32) -> u32;", "external terms are declared as trait methods")
	require.NotContains(t, out, "pub fn make_thing")
}

// TestGenerate_internalIteratorConstructorUsesExtendParameter covers an
// internal (non-external) term whose constructor signature is
// ReturnIterator: it must return unit and take a trailing `returns`
// parameter typed as `impl Extend<T> + Length`, and a result reached via
// FlowReturn must be folded into it with the MAX_ISLE_RETURNS cap checked
// on every iteration rather than returned directly.
func TestGenerate_internalIteratorConstructorUsesExtendParameter(t *testing.T) {
	env, u32 := u32Env()
	env.Syms = append(env.Syms, "each_digit")
	termEnv := &TermEnv{Terms: []Term{{
		Name: 1,
		ConstructorSig: &ExternalSig{
			FuncName: "each_digit", FullName: "each_digit",
			ParamTys: []TypeId{u32}, RetTys: []TypeId{u32}, RetKind: ReturnIterator,
		},
	}}}

	argId := BindingId(0)
	rs := &RuleSet{
		Bindings: []Binding{{Kind: BindArgument, Index: 0}},
		Root: &Block{Steps: []EvalStep{{
			Check: ControlFlow{Kind: FlowReturn, Result: argId},
		}}},
	}

	out, err := Generate(env, termEnv, []TermRuleSet{{Term: 0, Rules: rs}}, CodegenOptions{ExcludeGeneratedFileComment: true})
	require.NoError(t, err)
	require.Contains(t, out, "pub fn each_digit<C: Context>(ctx: &mut C, arg0: u32, returns: &mut (impl Extend<u32> + Length)) -> ()")
	require.Contains(t, out, "returns.extend(Some(arg0));")
	require.Contains(t, out, "if returns.len() >= MAX_ISLE_RETURNS { return; }")
	require.NotContains(t, out, "return arg0;")
}

// TestGenerate_externalIteratorTraitMethodDeclaresAssociatedReturnsType
// covers a host-provided (external) iterator-returning term: its trait
// method needs an associated `{name}_returns` type ahead of it, and its
// trailing parameter is typed against that associated type rather than
// the free-standing Extend/Length bound generated functions use.
func TestGenerate_externalIteratorTraitMethodDeclaresAssociatedReturnsType(t *testing.T) {
	env, u32 := u32Env()
	env.Syms = append(env.Syms, "each_digit")
	termEnv := &TermEnv{Terms: []Term{{
		Name: 1,
		ConstructorSig: &ExternalSig{
			FuncName: "each_digit", FullName: "each_digit",
			ParamTys: []TypeId{u32}, RetTys: []TypeId{u32}, RetKind: ReturnIterator,
		},
		HasExternalConstructor: true,
	}}}

	out, err := Generate(env, termEnv, nil, CodegenOptions{ExcludeGeneratedFileComment: true})
	require.NoError(t, err)
	require.Contains(t, out, "type each_digit_returns: Default + IntoContextIter<Context = Self, Output = u32>;")
	require.Contains(t, out, "fn each_digit(&mut self, arg0: u32, returns: &mut Self::each_digit_returns) -> ();")
}

// TestGenerate_flowLoopConsumesExternalIteratorExtractor covers the full
// iterator-extractor-to-loop pipeline: a host-provided extractor whose
// signature is ReturnIterator gets its result collected via a default-
// constructed associated-type value and a call with a trailing `&mut`
// argument, and a FlowLoop over that bound value is driven by
// `.into_context_iter()` plus `.next(ctx)`, never the bespoke push-based
// plumbing the iterator machinery replaced.
func TestGenerate_flowLoopConsumesExternalIteratorExtractor(t *testing.T) {
	env, u32 := u32Env()
	env.Syms = append(env.Syms, "each_digit", "sum_digits")
	termEnv := &TermEnv{Terms: []Term{
		{
			Name: 1,
			ExtractorSig: &ExternalSig{
				FuncName: "each_digit", FullName: "each_digit",
				ParamTys: []TypeId{u32}, RetTys: []TypeId{u32}, RetKind: ReturnIterator,
			},
			HasExternalExtractor: true,
		},
		{
			Name: 2,
			ConstructorSig: &ExternalSig{
				FuncName: "sum_digits", FullName: "sum_digits",
				ParamTys: []TypeId{u32}, RetTys: []TypeId{u32}, RetKind: ReturnPlain,
			},
		},
	}}

	argId := BindingId(0)
	iterId := BindingId(1)
	loopResultId := BindingId(2)
	rs := &RuleSet{
		Bindings: []Binding{
			{Kind: BindArgument, Index: 0},
			{Kind: BindExtractor, Term: 0, Source: argId},
			{Kind: BindConstInt, Val: 0},
		},
		Root: &Block{Steps: []EvalStep{{
			BindOrder: []BindingId{iterId},
			Check: ControlFlow{
				Kind:   FlowLoop,
				Source: iterId,
				Result: loopResultId,
				Body: &Block{Steps: []EvalStep{{
					Check: ControlFlow{Kind: FlowReturn, Result: loopResultId},
				}}},
			},
		}}},
	}

	out, err := Generate(env, termEnv, []TermRuleSet{{Term: 1, Rules: rs}}, CodegenOptions{ExcludeGeneratedFileComment: true})
	require.NoError(t, err)
	require.Contains(t, out, "let mut v1 = C::each_digit_returns::default();")
	require.Contains(t, out, "each_digit(ctx, arg0, &mut v1);")
	require.Contains(t, out, "let mut v1 = v1.into_context_iter();")
	require.Contains(t, out, "while let Some(v2) = v1.next(ctx) {")
	require.Contains(t, out, "return v2;")
	require.NotContains(t, out, "CollectingIter")
	require.NotContains(t, out, "push(")
}

func TestFindBinding_locatesArgumentByIndex(t *testing.T) {
	rs := &RuleSet{Bindings: []Binding{
		{Kind: BindArgument, Index: 0},
		{Kind: BindArgument, Index: 1},
	}}
	id, ok := rs.FindBinding(Binding{Kind: BindArgument, Index: 1})
	require.True(t, ok)
	require.Equal(t, BindingId(1), id)

	_, ok = rs.FindBinding(Binding{Kind: BindArgument, Index: 5})
	require.False(t, ok)
}

func TestBindingIdValid(t *testing.T) {
	require.False(t, bindingIdInvalid.Valid())
	require.True(t, BindingId(0).Valid())
}

func TestConstraintArity(t *testing.T) {
	env := &TypeEnv{
		Syms: []string{"Shape", "Circle"},
		Types: []Type{{Kind: KindEnum, Name: 0, Variants: []Variant{
			{Name: 1, Fields: []Field{{Name: 1, Ty: 0}, {Name: 1, Ty: 0}}},
		}}},
	}
	c := Constraint{Kind: ConstraintVariant, VariantTy: 0, VariantIdx: 0}
	require.Equal(t, 2, c.Arity(env))

	some := Constraint{Kind: ConstraintSome}
	require.Equal(t, 1, some.Arity(env))

	lit := Constraint{Kind: ConstraintConstInt}
	require.Equal(t, 0, lit.Arity(env))
}

func TestPrettyPrintLine(t *testing.T) {
	files := []string{"rules.isle"}
	p := Pos{File: 0, Line: 42}
	require.Equal(t, "rules.isle line 42", p.PrettyPrintLine(files))

	bad := Pos{File: 5, Line: 1}
	require.Contains(t, bad.PrettyPrintLine(files), "<unknown>")
}

func TestGenerate_internalEnumTypeIsRendered(t *testing.T) {
	env := &TypeEnv{
		Syms: []string{"Shape", "Circle", "radius", "f64"},
		Types: []Type{
			{Kind: KindEnum, Name: 0, Variants: []Variant{
				{Name: 1, Fields: []Field{{Name: 2, Ty: 1}}},
			}},
			{Kind: KindPrimitive, Name: 3},
		},
	}
	termEnv := &TermEnv{}

	out, err := Generate(env, termEnv, nil, CodegenOptions{ExcludeGeneratedFileComment: true})
	require.NoError(t, err)
	require.True(t, strings.Contains(out, "pub enum Shape {"))
	require.Contains(t, out, "radius: f64,")
}
