package rulegen

import (
	"fmt"
	"strings"
)

// emitBlock walks block's steps in order, emitting a `let` for each
// not-yet-bound binding a step needs before emitting the step's terminal
// control-flow action. lastExpr is the fallback tail expression written if
// control falls off the end of block; it is suppressed when every path
// through block already ends in a FlowReturn, and threaded unchanged into
// every nested block so a rule-less fallthrough anywhere panics the same
// way.
func (g *Codegen) emitBlock(ctx *BodyContext, block *Block, retKind ReturnKind, lastExpr string) error {
	for _, step := range block.Steps {
		for _, id := range step.BindOrder {
			if ctx.IsBound.Contains(id) {
				continue
			}
			binding := ctx.Ruleset.Binding(id)
			if binding.Kind == BindArgument {
				// Bound by the function's own parameter list; nothing to
				// emit, but still mark it seen in case this rule set
				// reaches it from more than one path.
				ctx.IsBound.Insert(id)
				continue
			}
			if sig, targetTy, ok := g.iteratorCallTarget(binding); ok {
				if err := ctx.writeLine("let mut v%d = %s::default();", id.Index(), targetTy); err != nil {
					return err
				}
				stmt, err := g.emitIteratorCallStatement(ctx, sig, binding, id)
				if err != nil {
					return fmt.Errorf("binding v%d: %w", id.Index(), err)
				}
				if err := ctx.writeLine("%s;", stmt); err != nil {
					return err
				}
				ctx.IsBound.Insert(id)
				continue
			}
			expr, isRef, err := g.emitExpr(ctx, binding)
			if err != nil {
				return fmt.Errorf("binding v%d: %w", id.Index(), err)
			}
			if err := ctx.writeLine("let v%d = %s;", id.Index(), expr); err != nil {
				return err
			}
			ctx.IsBound.Insert(id)
			if isRef {
				ctx.IsRef.Insert(id)
			}
		}
		if err := g.emitControlFlow(ctx, step.Check, retKind, lastExpr); err != nil {
			return err
		}
	}
	if lastExpr != "" && !g.blockAlwaysReturns(block) {
		if err := ctx.writeLine("%s", lastExpr); err != nil {
			return err
		}
	}
	return nil
}

func (g *Codegen) emitControlFlow(ctx *BodyContext, cf ControlFlow, retKind ReturnKind, lastExpr string) error {
	switch cf.Kind {
	case FlowReturn:
		return g.emitReturn(ctx, cf, retKind)

	case FlowEqual:
		a := g.emitSource(ctx, cf.A, false)
		b := g.emitSource(ctx, cf.B, false)
		if err := ctx.beginBlock(fmt.Sprintf("if %s == %s {", a, b)); err != nil {
			return err
		}
		saved := ctx.enterScope()
		if err := g.emitBlock(ctx, cf.Body, retKind, lastExpr); err != nil {
			return err
		}
		ctx.exitScope(saved)
		return ctx.endBlock("")

	case FlowLoop:
		if !cf.Result.Valid() {
			return fmt.Errorf("rulegen: loop step has no result binding")
		}
		source := bindingIdent(ctx, cf.Source)
		if err := ctx.writeLine("let mut %s = %s.into_context_iter();", source, source); err != nil {
			return err
		}
		if err := ctx.beginBlock(fmt.Sprintf("while let Some(v%d) = %s.next(ctx) {", cf.Result.Index(), source)); err != nil {
			return err
		}
		saved := ctx.enterScope()
		ctx.IsBound.Insert(cf.Result)
		if err := g.emitBlock(ctx, cf.Body, retKind, lastExpr); err != nil {
			return err
		}
		ctx.exitScope(saved)
		return ctx.endBlock("")

	case FlowMatch:
		return g.emitMatch(ctx, cf, retKind, lastExpr)

	default:
		return fmt.Errorf("rulegen: unknown control-flow kind %d", cf.Kind)
	}
}

func (g *Codegen) emitReturn(ctx *BodyContext, cf ControlFlow, retKind ReturnKind) error {
	result := g.emitSource(ctx, cf.Result, false)
	if retKind == ReturnIterator {
		if err := ctx.writeLine("returns.extend(Some(%s));", result); err != nil {
			return err
		}
		return ctx.writeLine("if returns.len() >= MAX_ISLE_RETURNS { return; }")
	}
	// ReturnOption's Some(...) wrapping already happened wherever the
	// result value was produced (e.g. a BindMakeSome upstream); the return
	// site itself never adds it.
	return ctx.writeLine("return %s;", result)
}

func (g *Codegen) emitMatch(ctx *BodyContext, cf ControlFlow, retKind ReturnKind, lastExpr string) error {
	if len(cf.Arms) == 1 {
		return g.emitSingleArmMatch(ctx, cf, retKind, lastExpr)
	}

	// Only a Variant match needs the scrutinee by reference (to destructure
	// without moving it); constant and Option matches work fine by value.
	wantRef := len(cf.Arms) > 0 && cf.Arms[0].Constraint.Kind == ConstraintVariant
	scrutinee := g.emitSource(ctx, cf.Source, wantRef)
	if err := ctx.beginBlock(fmt.Sprintf("match %s {", scrutinee)); err != nil {
		return err
	}
	for _, arm := range cf.Arms {
		pattern, err := g.renderArmPattern(arm.Constraint)
		if err != nil {
			return err
		}
		if err := ctx.beginBlock(pattern + " => {"); err != nil {
			return err
		}
		saved := ctx.enterScope()
		if err := g.emitBlock(ctx, arm.Body, retKind, lastExpr); err != nil {
			return err
		}
		ctx.exitScope(saved)
		if err := ctx.endBlockWith("", ","); err != nil {
			return err
		}
	}
	if !g.matchArmsExhaustive(cf) {
		if err := ctx.writeLine("_ => {}"); err != nil {
			return err
		}
	}
	return ctx.endBlock("")
}

// emitSingleArmMatch renders a FlowMatch with exactly one arm as an `if`
// (for a constant test) or an `if let` (for a destructuring test) instead
// of a `match`, since a single-arm match with no catch-all would otherwise
// either be rejected as non-exhaustive or need a redundant `_ => {}`.
func (g *Codegen) emitSingleArmMatch(ctx *BodyContext, cf ControlFlow, retKind ReturnKind, lastExpr string) error {
	arm := cf.Arms[0]
	var openLine string
	switch arm.Constraint.Kind {
	case ConstraintConstInt, ConstraintConstPrim:
		source := g.emitSource(ctx, cf.Source, false)
		lit, err := g.renderArmPattern(arm.Constraint)
		if err != nil {
			return err
		}
		openLine = fmt.Sprintf("if %s == %s {", source, lit)
	case ConstraintVariant, ConstraintSome:
		pattern, err := g.renderArmPattern(arm.Constraint)
		if err != nil {
			return err
		}
		source := g.emitSource(ctx, cf.Source, arm.Constraint.Kind == ConstraintVariant)
		openLine = fmt.Sprintf("if let %s = %s {", pattern, source)
	default:
		return fmt.Errorf("rulegen: unknown constraint kind %d", arm.Constraint.Kind)
	}
	if err := ctx.beginBlock(openLine); err != nil {
		return err
	}
	saved := ctx.enterScope()
	if err := g.emitBlock(ctx, arm.Body, retKind, lastExpr); err != nil {
		return err
	}
	ctx.exitScope(saved)
	return ctx.endBlock("")
}

// renderArmPattern renders a MatchArm's Rust pattern. Sub-bindings
// (MatchVariant/MatchSome) are deliberately not pattern-destructured here;
// they are re-derived as ordinary `let` expressions the first time
// emitBlock's BindOrder loop reaches them, so the pattern itself only
// needs to discriminate which case matched.
func (g *Codegen) renderArmPattern(c Constraint) (string, error) {
	switch c.Kind {
	case ConstraintConstInt:
		return formatHexLiteral(c.Val, g.isSignedTypeName(c.Ty)), nil
	case ConstraintConstPrim:
		return g.TypeEnv.Syms[int(c.Sym)], nil
	case ConstraintSome:
		return "Some(_)", nil
	case ConstraintVariant:
		t := g.TypeEnv.Types[int(c.VariantTy)]
		v := t.Variants[c.VariantIdx]
		name := fmt.Sprintf("&%s::%s", g.TypeEnv.Syms[int(t.Name)], g.TypeEnv.Syms[int(v.Name)])
		if len(v.Fields) > 0 {
			name += " { .. }"
		}
		return name, nil
	default:
		return "", fmt.Errorf("rulegen: unknown constraint kind %d", c.Kind)
	}
}

// emitExpr renders the right-hand side of a `let v{id} = ...;` for a
// binding, and reports whether the produced value is a reference (so the
// caller can mark it in IsRef) rather than an owned value.
func (g *Codegen) emitExpr(ctx *BodyContext, b Binding) (expr string, isRef bool, err error) {
	switch b.Kind {
	case BindConstInt:
		return formatHexLiteral(b.Val, g.isSignedTypeName(b.Ty)), false, nil

	case BindConstPrim:
		return g.TypeEnv.Syms[int(b.Sym)], false, nil

	case BindExtractor:
		term := g.TermEnv.Terms[int(b.Term)]
		if term.ExtractorSig == nil {
			return "", false, fmt.Errorf("term %q has no extractor signature", g.TypeEnv.Syms[int(term.Name)])
		}
		call, err := g.emitCall(ctx, term.ExtractorSig, []BindingId{b.Source})
		return call, false, err

	case BindConstructor:
		term := g.TermEnv.Terms[int(b.Term)]
		if term.ConstructorSig == nil {
			return "", false, fmt.Errorf("term %q has no constructor signature", g.TypeEnv.Syms[int(term.Name)])
		}
		call, err := g.emitCall(ctx, term.ConstructorSig, b.Fields)
		return call, false, err

	case BindMakeVariant:
		t := g.TypeEnv.Types[int(b.VariantTy)]
		v := t.Variants[b.VariantIdx]
		name := fmt.Sprintf("%s::%s", g.TypeEnv.Syms[int(t.Name)], g.TypeEnv.Syms[int(v.Name)])
		if len(v.Fields) == 0 {
			return name, false, nil
		}
		parts := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			parts[i] = fmt.Sprintf("%s: %s", g.TypeEnv.Syms[int(f.Name)], g.emitSource(ctx, b.Fields[i], false))
		}
		return fmt.Sprintf("%s { %s }", name, strings.Join(parts, ", ")), false, nil

	case BindMakeSome:
		return fmt.Sprintf("Some(%s)", g.emitSource(ctx, b.Source, false)), false, nil

	case BindMatchSome:
		// The enclosing ConstraintSome arm already established that this
		// source is Some; re-deriving it here keeps binding emission
		// uniform instead of threading the arm's matched value down.
		return fmt.Sprintf("%s.clone().unwrap()", g.emitSource(ctx, b.Source, false)), false, nil

	case BindMatchTuple:
		return fmt.Sprintf("%s.%d.clone()", g.emitSource(ctx, b.Source, false), b.FieldIdx), false, nil

	case BindMatchVariant:
		t := g.TypeEnv.Types[int(b.VariantTy)]
		v := t.Variants[b.VariantIdx]
		f := v.Fields[b.FieldIdx]
		fieldIsEnum := g.TypeEnv.Types[int(f.Ty)].Kind == KindEnum
		src := g.emitSource(ctx, b.Source, true)
		pattern := fmt.Sprintf("%s::%s { %s: field, .. }", g.TypeEnv.Syms[int(t.Name)], g.TypeEnv.Syms[int(v.Name)], g.TypeEnv.Syms[int(f.Name)])
		expr := fmt.Sprintf("match %s { %s => field, _ => unreachable!() }", src, pattern)
		return expr, fieldIsEnum, nil

	case BindIterator:
		src := g.emitSource(ctx, b.Source, false)
		return fmt.Sprintf("%s.next(ctx).unwrap()", src), false, nil

	default:
		return "", false, fmt.Errorf("unknown binding kind %d", b.Kind)
	}
}

// renderCallArgs renders the argument list (each reconciled against sig's
// declared parameter types the way emitCall needs) prefixed with ", " so
// it can be appended directly after "(ctx".
func (g *Codegen) renderCallArgs(ctx *BodyContext, sig *ExternalSig, params []BindingId) (string, error) {
	if len(params) != len(sig.ParamTys) {
		return "", fmt.Errorf("%s: %d arguments bound, signature wants %d", sig.FuncName, len(params), len(sig.ParamTys))
	}
	args := make([]string, len(params))
	for i, pid := range params {
		wantRef := g.TypeEnv.Types[int(sig.ParamTys[i])].Kind == KindEnum
		args[i] = g.emitSource(ctx, pid, wantRef)
	}
	if len(args) == 0 {
		return "", nil
	}
	return ", " + strings.Join(args, ", "), nil
}

// emitCall renders a call to sig with the given argument bindings,
// adapting its return value down to a plain expression regardless of
// ReturnKind: an Option-returning call is unwrapped (valid only because a
// rule compiler never emits such a binding except downstream of an
// already-checked ConstraintSome). An iterator-returning call is never
// rendered here; emitBlock's BindOrder loop special-cases it before
// reaching emitExpr, since it needs two statements (a `let mut` default
// plus the call itself) rather than a single expression.
func (g *Codegen) emitCall(ctx *BodyContext, sig *ExternalSig, params []BindingId) (string, error) {
	argList, err := g.renderCallArgs(ctx, sig, params)
	if err != nil {
		return "", err
	}
	switch sig.RetKind {
	case ReturnOption:
		return fmt.Sprintf("%s(ctx%s).unwrap()", sig.FullName, argList), nil
	case ReturnIterator:
		panic("rulegen: iterator-returning call must be emitted by emitBlock's BindOrder loop, not emitCall")
	default:
		return fmt.Sprintf("%s(ctx%s)", sig.FullName, argList), nil
	}
}

// iteratorCallTarget reports whether binding is an Extractor/Constructor
// call whose callee's signature returns an iterator, and if so the
// signature plus the Rust type expression to default-construct for it: a
// host-provided term's associated return type, or the shared wrapper
// around a Vec for an internally generated one.
func (g *Codegen) iteratorCallTarget(b Binding) (sig *ExternalSig, targetTy string, ok bool) {
	var term Term
	var hasExternal bool
	switch b.Kind {
	case BindExtractor:
		term = g.TermEnv.Terms[int(b.Term)]
		sig, hasExternal = term.ExtractorSig, term.HasExternalExtractor
	case BindConstructor:
		term = g.TermEnv.Terms[int(b.Term)]
		sig, hasExternal = term.ConstructorSig, term.HasExternalConstructor
	default:
		return nil, "", false
	}
	if sig == nil || sig.RetKind != ReturnIterator {
		return nil, "", false
	}
	if hasExternal {
		return sig, fmt.Sprintf("C::%s_returns", sig.FuncName), true
	}
	return sig, fmt.Sprintf("ContextIterWrapper::<Vec<%s>, C>", renderReturnTuple(g.TypeEnv, sig.RetTys)), true
}

// emitIteratorCallStatement renders the call statement for an
// iterator-returning BindExtractor/BindConstructor binding: the call
// itself, passing `&mut v{id}` as the trailing argument that collects its
// results, rather than an assignment.
func (g *Codegen) emitIteratorCallStatement(ctx *BodyContext, sig *ExternalSig, b Binding, id BindingId) (string, error) {
	params := b.Fields
	if b.Kind == BindExtractor {
		params = []BindingId{b.Source}
	}
	argList, err := g.renderCallArgs(ctx, sig, params)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(ctx%s, &mut v%d)", sig.FullName, argList, id.Index()), nil
}

// bindingIdent renders the bare identifier a binding is known by: arg{i}
// for a BindArgument (matching the parameter name renderParams declares),
// v{id} for everything else.
func bindingIdent(ctx *BodyContext, id BindingId) string {
	if b := ctx.Ruleset.Binding(id); b.Kind == BindArgument {
		return fmt.Sprintf("arg%d", b.Index)
	}
	return fmt.Sprintf("v%d", id.Index())
}

// isSignedTypeName reports whether ty's declared name follows the
// signed-integer naming convention (starts with "i"), the detail
// formatHexLiteral needs to decide whether a negative constant gets a
// leading "-".
func (g *Codegen) isSignedTypeName(ty TypeId) bool {
	name := g.TypeEnv.Syms[int(g.TypeEnv.Types[int(ty)].Name)]
	return strings.HasPrefix(name, "i")
}

// emitSource renders a reference to an already-bound binding (a function
// argument or the left side of a prior `let`), inserting `&` or `.clone()`
// as needed to reconcile wantRef against what IsRef already recorded for
// it.
func (g *Codegen) emitSource(ctx *BodyContext, id BindingId, wantRef bool) string {
	if !id.Valid() {
		return "_"
	}
	name := bindingIdent(ctx, id)
	isRef := ctx.IsRef.Contains(id)
	switch {
	case wantRef && !isRef:
		return "&" + name
	case !wantRef && isRef:
		return name + ".clone()"
	default:
		return name
	}
}
