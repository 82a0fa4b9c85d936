package rulegen

import (
	"fmt"
	"io"
	"strings"
)

// TermRuleSet pairs a term with the compiled decision tree implementing
// its internal constructor body.
type TermRuleSet struct {
	Term  TermId
	Rules *RuleSet
}

// Codegen holds the two environments every rendering decision consults.
type Codegen struct {
	TypeEnv *TypeEnv
	TermEnv *TermEnv
}

// Generate renders Rust source implementing every internal term in terms
// against typeEnv/termEnv. Terms whose constructor is host-provided
// (HasExternalConstructor) are skipped; their only generated artifact is
// the Context trait method declared by writeContextTrait.
func Generate(typeEnv *TypeEnv, termEnv *TermEnv, terms []TermRuleSet, opts CodegenOptions) (string, error) {
	g := &Codegen{TypeEnv: typeEnv, TermEnv: termEnv}
	var out strings.Builder

	if err := writeHeader(&out, opts); err != nil {
		return "", err
	}
	if err := writeContextTrait(&out, typeEnv, termEnv); err != nil {
		return "", err
	}
	if err := g.writeInternalTypes(&out); err != nil {
		return "", err
	}
	for _, tr := range terms {
		if err := g.writeTermConstructor(&out, tr, opts); err != nil {
			return "", err
		}
	}
	return out.String(), nil
}

func (g *Codegen) writeInternalTypes(w io.Writer) error {
	for _, t := range g.TypeEnv.Types {
		if t.Kind != KindEnum || t.IsExtern {
			continue
		}
		derive := "#[derive(Clone"
		if !t.IsNoDebug {
			derive += ", Debug"
		}
		derive += ")]"
		if _, err := fmt.Fprintf(w, "%s\npub enum %s {\n", derive, g.TypeEnv.Syms[int(t.Name)]); err != nil {
			return err
		}
		for _, v := range t.Variants {
			if len(v.Fields) == 0 {
				if _, err := fmt.Fprintf(w, "\t%s,\n", g.TypeEnv.Syms[int(v.Name)]); err != nil {
					return err
				}
				continue
			}
			if _, err := fmt.Fprintf(w, "\t%s {\n", g.TypeEnv.Syms[int(v.Name)]); err != nil {
				return err
			}
			for _, f := range v.Fields {
				if _, err := fmt.Fprintf(w, "\t\t%s: %s,\n", g.TypeEnv.Syms[int(f.Name)], typeName(g.TypeEnv, f.Ty, false)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, "\t},\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "}\n\n"); err != nil {
			return err
		}
	}
	return nil
}

func (g *Codegen) writeTermConstructor(w io.Writer, tr TermRuleSet, opts CodegenOptions) error {
	if tr.Term.index() < 0 || tr.Term.index() >= len(g.TermEnv.Terms) {
		return fmt.Errorf("rulegen: term id %d out of range", tr.Term)
	}
	term := g.TermEnv.Terms[tr.Term.index()]
	if term.HasExternalConstructor {
		return nil
	}
	sig := term.ConstructorSig
	if sig == nil {
		return fmt.Errorf("rulegen: term %q has no constructor signature", g.TypeEnv.Syms[int(term.Name)])
	}
	if tr.Rules == nil || tr.Rules.Root == nil {
		return fmt.Errorf("rulegen: term %q has no compiled rule set", g.TypeEnv.Syms[int(term.Name)])
	}

	if opts.IncludeRuleDocs {
		if _, err := fmt.Fprintf(w, "// %s, declared at %s\n", g.TypeEnv.Syms[int(term.Name)], term.DeclPos.PrettyPrintLine(g.TypeEnv.Filenames)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%s {\n", renderFnSignature(g.TypeEnv, sig)); err != nil {
		return err
	}

	bc := NewBodyContext(w, tr.Rules)
	for i, ty := range sig.ParamTys {
		id, ok := tr.Rules.FindBinding(Binding{Kind: BindArgument, Index: uint32(i)})
		if !ok {
			// No rule in this rule set ever inspects this argument; it is
			// unused, and there is no BindingId to pre-seed.
			continue
		}
		bc.IsBound.Insert(id)
		if t := g.TypeEnv.Types[int(ty)]; t.Kind == KindEnum {
			bc.IsRef.Insert(id)
		}
	}

	var lastExpr string
	switch sig.RetKind {
	case ReturnOption:
		lastExpr = "None"
	case ReturnIterator:
		// Falling off the end of an iterator-returning function just means
		// no more results; there is nothing to return and no failure to
		// report.
	default:
		lastExpr = fmt.Sprintf(`unreachable!("no rule matched for term {} at {}; should it be partial?", %q, %q)`,
			g.TypeEnv.Syms[int(term.Name)], term.DeclPos.PrettyPrintLine(g.TypeEnv.Filenames))
	}
	if err := g.emitBlock(bc, tr.Rules.Root, sig.RetKind, lastExpr); err != nil {
		return err
	}
	_, err := io.WriteString(w, "}\n\n")
	return err
}

// blockAlwaysReturns reports whether every control path through b ends in
// a FlowReturn, making a trailing fallback expression unreachable (and
// thus better omitted, since Rust would warn on dead code after it).
func (g *Codegen) blockAlwaysReturns(b *Block) bool {
	if len(b.Steps) == 0 {
		return false
	}
	last := b.Steps[len(b.Steps)-1].Check
	switch last.Kind {
	case FlowReturn:
		return true
	case FlowEqual:
		// Rendered as an `if`, so control falls through when the two
		// values differ, whatever its body does.
		return false
	case FlowLoop:
		// A loop body may finish without ever looping (empty iterator),
		// so control can always fall through a Loop step.
		return false
	case FlowMatch:
		return g.matchArmsExhaustive(last) && g.allArmsReturn(last.Arms)
	default:
		return false
	}
}

func (g *Codegen) allArmsReturn(arms []MatchArm) bool {
	for _, arm := range arms {
		if !g.blockAlwaysReturns(arm.Body) {
			return false
		}
	}
	return true
}

// matchArmsExhaustive reports whether a FlowMatch's arms cover every
// possibility for their shared constraint kind. Only a Variant match
// covering every declared variant of its enum is exhaustive; constant and
// Option matches always leave an implicit "no match" fallthrough. A
// single-arm match is never considered exhaustive here: it renders as an
// `if`/`if let` (see emitSingleArmMatch), which always has an implicit
// fallthrough regardless of what it tests.
func (g *Codegen) matchArmsExhaustive(cf ControlFlow) bool {
	if len(cf.Arms) < 2 {
		return false
	}
	if cf.Arms[0].Constraint.Kind != ConstraintVariant {
		return false
	}
	variantTy := cf.Arms[0].Constraint.VariantTy
	seen := make(map[uint32]bool, len(cf.Arms))
	for _, arm := range cf.Arms {
		if arm.Constraint.Kind != ConstraintVariant || arm.Constraint.VariantTy != variantTy {
			return false
		}
		seen[arm.Constraint.VariantIdx] = true
	}
	return len(seen) == len(g.TypeEnv.Types[int(variantTy)].Variants)
}
