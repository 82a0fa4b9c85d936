package rulegen

import (
	"fmt"
	"strings"
)

// typeName renders id's name. byRef requests a reference (`&T`) when the
// type is an Enum, since enums are passed and matched by reference
// throughout generated code; primitives are always by value regardless of
// byRef.
func typeName(env *TypeEnv, id TypeId, byRef bool) string {
	t := env.Types[int(id)]
	name := env.Syms[int(t.Name)]
	if byRef && t.Kind == KindEnum {
		return "&" + name
	}
	return name
}

// formatHexLiteral renders an integer constant the way generated code
// spells it: hexadecimal, lowercase "0x" prefix with uppercase digits. A
// negative value whose type name starts with "i" (the signed-integer
// naming convention) is rendered as a negated hex literal; any other
// negative value (an unsigned type should never actually hold one) falls
// back to the hex of its raw bit pattern rather than panicking.
func formatHexLiteral(val int64, isSignedType bool) string {
	if val < 0 && isSignedType {
		return fmt.Sprintf("-0x%X", -val)
	}
	return fmt.Sprintf("0x%X", uint64(val))
}

// renderReturnTuple renders a term's declared result types as a single
// Rust type: the bare type for arity one, else a tuple.
func renderReturnTuple(env *TypeEnv, tys []TypeId) string {
	if len(tys) == 1 {
		return typeName(env, tys[0], false)
	}
	parts := make([]string, len(tys))
	for i, ty := range tys {
		parts[i] = typeName(env, ty, false)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// renderReturnType renders sig's return type for a trait method or
// generated function signature, reflecting its ReturnKind. Iterator-kind
// signatures return unit; their results are delivered through a trailing
// `returns` parameter instead (see renderParams).
func renderReturnType(env *TypeEnv, sig *ExternalSig) string {
	switch sig.RetKind {
	case ReturnOption:
		return "Option<" + renderReturnTuple(env, sig.RetTys) + ">"
	case ReturnIterator:
		return "()"
	default:
		return renderReturnTuple(env, sig.RetTys)
	}
}

// renderParams renders sig's parameter list, each prefixed with ", " so it
// can be appended directly after a leading `&mut self` or `ctx: &mut C`.
// Arguments are named arg0, arg1, ... matching the identifier emitExpr
// uses for every reference to a BindArgument binding, so a generated body
// that reads its own parameter compiles. Iterator-kind signatures get a
// trailing `returns` parameter; isTraitMethod picks which of the two
// conventions applies, since a host-provided (trait) method and a
// generated (free) function are driven by different generics.
func renderParams(env *TypeEnv, sig *ExternalSig, isTraitMethod bool) string {
	var b strings.Builder
	for i, ty := range sig.ParamTys {
		fmt.Fprintf(&b, ", arg%d: %s", i, typeName(env, ty, true))
	}
	if sig.RetKind == ReturnIterator {
		if isTraitMethod {
			fmt.Fprintf(&b, ", returns: &mut Self::%s_returns", sig.FuncName)
		} else {
			fmt.Fprintf(&b, ", returns: &mut (impl Extend<%s> + Length)", renderReturnTuple(env, sig.RetTys))
		}
	}
	return b.String()
}

// renderFnSignature renders a complete generated function signature (not a
// trait method): `pub fn name<C: Context>(ctx: &mut C, ...) -> Ret`.
func renderFnSignature(env *TypeEnv, sig *ExternalSig) string {
	return fmt.Sprintf("pub fn %s<C: Context>(ctx: &mut C%s) -> %s",
		sig.FuncName, renderParams(env, sig, false), renderReturnType(env, sig))
}
