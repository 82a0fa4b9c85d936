// Package rulegen is the rule-trie code emitter: it consumes a decision-
// tree representation of a term-rewriting rule set plus a typed-symbol
// environment and emits target-language (Rust) source text implementing
// the rewrite relation.
package rulegen

import "fmt"

// Sym is a dense index into a TypeEnv's symbol table.
type Sym uint32

// TypeId is a dense index into a TypeEnv's type table.
type TypeId uint32

// TermId is a dense index into a TermEnv's term table.
type TermId uint32

// BindingId is a dense index into a RuleSet's binding table.
type BindingId uint32

// bindingIdInvalid marks the absence of a binding, used for elided
// sub-patterns in a MatchArm's binding vector and for Binding/ControlFlow
// fields that a particular Kind does not populate.
const bindingIdInvalid BindingId = 1<<32 - 1

// Valid reports whether id refers to an actual binding.
func (id BindingId) Valid() bool { return id != bindingIdInvalid }

// Index exposes the raw integer, used purely for formatting (`v{id}`).
func (id BindingId) Index() uint32 { return uint32(id) }

func (id TypeId) index() int { return int(id) }
func (id TermId) index() int { return int(id) }
func (id Sym) index() int    { return int(id) }

// ReturnKind classifies how many results a term's extractor/constructor
// signature may produce: exactly one, zero-or-one, or zero-or-more.
type ReturnKind byte

const (
	// ReturnPlain yields exactly one value.
	ReturnPlain ReturnKind = iota
	// ReturnOption yields zero or one value.
	ReturnOption
	// ReturnIterator yields zero or more values, delivered through a
	// trailing `returns` parameter instead of an ordinary return value.
	ReturnIterator
)

// Pos is a source position in one of TypeEnv's input files, used only to
// annotate generated comments ("// classify, declared at foo.isle line
// 12") and the unreachable! fallback message.
type Pos struct {
	File int
	Line int
}

// PrettyPrintLine renders the position against the given filename table.
func (p Pos) PrettyPrintLine(filenames []string) string {
	name := "<unknown>"
	if p.File >= 0 && p.File < len(filenames) {
		name = filenames[p.File]
	}
	return fmt.Sprintf("%s line %d", name, p.Line)
}

// TypeKind distinguishes a Type's two shapes.
type TypeKind byte

const (
	// KindPrimitive is a scalar type passed by value in signatures.
	KindPrimitive TypeKind = iota
	// KindEnum is a sum type passed by reference in signatures.
	KindEnum
)

// Field is one named field of an Enum variant.
type Field struct {
	Name Sym
	Ty   TypeId
}

// Variant is one case of an Enum type. A variant with no Fields is
// field-less; otherwise it is a record with named fields.
type Variant struct {
	Name   Sym
	Fields []Field
}

// Type is either Primitive(symbol) or Enum(symbol, variants). Enums are
// passed by reference in generated signatures; primitives by value.
type Type struct {
	Kind      TypeKind
	Name      Sym // the type's own name, for both Primitive and Enum
	IsExtern  bool
	IsNoDebug bool
	Variants  []Variant // only meaningful for KindEnum
	Pos       Pos
}

// ExternalSig is an extractor's or constructor's call signature, whether
// it is backed by host (external) code or is purely internal.
type ExternalSig struct {
	// FuncName is the bare function name (used as the Context trait
	// method name).
	FuncName string
	// FullName is the fully-qualified call target (used at call sites;
	// for internal terms this is the generated constructor function's
	// name, identical to FuncName).
	FullName  string
	ParamTys  []TypeId
	RetTys    []TypeId
	RetKind   ReturnKind
}

// Term is a named relation in the rewrite DSL. ConstructorSig and
// ExtractorSig are populated for every term that has one (internal terms
// get a synthesized signature too; only HasExternalConstructor/
// HasExternalExtractor distinguish whether the body is host-provided).
type Term struct {
	Name    Sym
	DeclPos Pos

	ConstructorSig *ExternalSig
	ExtractorSig   *ExternalSig

	HasExternalConstructor bool
	HasExternalExtractor   bool
}

// TypeEnv is the immutable environment of symbol names, type definitions,
// and source filenames that the emitter renders names and positions
// against. It is supplied by an upstream type-checking pass.
type TypeEnv struct {
	Syms      []string
	Types     []Type
	Filenames []string
}

// TermEnv is the immutable environment of term declarations, supplied by
// an upstream type-checking pass.
type TermEnv struct {
	Terms []Term
}
