package rulegen

import (
	"fmt"
	"io"
)

const generatedFileBanner = `// GENERATED CODE - DO NOT EDIT
// This file was produced by the rule-trie code emitter from a compiled
// rule set. Edit the rule source instead and regenerate.
`

// maxIsleReturns caps how many results an iterator-returning term
// constructor accumulates into its `returns` sink before giving up; it
// guards against a host-provided iterator-returning extractor looping
// forever. There is no one true value for this cap; generated code just
// needs some finite bound, so it is emitted as a plain constant rather
// than threaded through from anywhere upstream.
const maxIsleReturns = 1024

// fixedIteratorPlumbingTemplate is emitted verbatim (aside from the
// MAX_ISLE_RETURNS cap) once per output: the trait
// and wrapper type family that let both host-provided (trait-method) and
// generated (free-function) iterator-returning terms share one `.next(ctx)`
// shaped interface, and let a `Vec` stand in directly as the common
// zero-to-many result collection.
const fixedIteratorPlumbingTemplate = `
pub const MAX_ISLE_RETURNS: usize = %d;

pub trait ContextIter {
	type Context;
	type Output;
	fn next(&mut self, ctx: &mut Self::Context) -> Option<Self::Output>;
	fn size_hint(&self) -> (usize, Option<usize>) { (0, None) }
}

pub trait IntoContextIter {
	type Context;
	type Output;
	type IntoIter: ContextIter<Context = Self::Context, Output = Self::Output>;
	fn into_context_iter(self) -> Self::IntoIter;
}

pub trait Length {
	fn len(&self) -> usize;
}

impl<T> Length for std::vec::Vec<T> {
	fn len(&self) -> usize {
		std::vec::Vec::len(self)
	}
}

pub struct ContextIterWrapper<I, C> {
	iter: I,
	_ctx: std::marker::PhantomData<C>,
}

impl<I: Default, C> Default for ContextIterWrapper<I, C> {
	fn default() -> Self {
		ContextIterWrapper { iter: I::default(), _ctx: std::marker::PhantomData }
	}
}

impl<I, C> std::ops::Deref for ContextIterWrapper<I, C> {
	type Target = I;
	fn deref(&self) -> &I {
		&self.iter
	}
}

impl<I, C> std::ops::DerefMut for ContextIterWrapper<I, C> {
	fn deref_mut(&mut self) -> &mut I {
		&mut self.iter
	}
}

impl<I: Iterator, C: Context> From<I> for ContextIterWrapper<I, C> {
	fn from(iter: I) -> Self {
		Self { iter, _ctx: std::marker::PhantomData }
	}
}

impl<I: Iterator, C: Context> ContextIter for ContextIterWrapper<I, C> {
	type Context = C;
	type Output = I::Item;
	fn next(&mut self, _ctx: &mut Self::Context) -> Option<Self::Output> {
		self.iter.next()
	}
	fn size_hint(&self) -> (usize, Option<usize>) {
		self.iter.size_hint()
	}
}

impl<I: IntoIterator, C: Context> IntoContextIter for ContextIterWrapper<I, C> {
	type Context = C;
	type Output = I::Item;
	type IntoIter = ContextIterWrapper<I::IntoIter, C>;
	fn into_context_iter(self) -> Self::IntoIter {
		ContextIterWrapper { iter: self.iter.into_iter(), _ctx: std::marker::PhantomData }
	}
}

impl<T, E: Extend<T>, C> Extend<T> for ContextIterWrapper<E, C> {
	fn extend<I: IntoIterator<Item = T>>(&mut self, iter: I) {
		self.iter.extend(iter);
	}
}

impl<L: Length, C> Length for ContextIterWrapper<L, C> {
	fn len(&self) -> usize {
		self.iter.len()
	}
}
`

func writeHeader(w io.Writer, opts CodegenOptions) error {
	if !opts.ExcludeGeneratedFileComment {
		if _, err := io.WriteString(w, generatedFileBanner); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "#![allow(dead_code, unreachable_code, unused_variables)]\n\n"); err != nil {
		return err
	}
	return nil
}

// writeContextTrait renders the Context trait that every generated
// constructor/extractor function is generic over: one method per
// term whose constructor or extractor is host-provided, plus the fixed
// iterator-plumbing block.
func writeContextTrait(w io.Writer, env *TypeEnv, termEnv *TermEnv) error {
	if _, err := io.WriteString(w, "pub trait Context {\n"); err != nil {
		return err
	}
	for _, term := range termEnv.Terms {
		if term.HasExternalConstructor {
			if err := writeTraitMethod(w, env, term.ConstructorSig); err != nil {
				return err
			}
		}
		if term.HasExternalExtractor {
			if err := writeTraitMethod(w, env, term.ExtractorSig); err != nil {
				return err
			}
		}
	}
	if _, err := io.WriteString(w, "}\n"); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, fixedIteratorPlumbingTemplate, maxIsleReturns)
	return err
}

// writeTraitMethod renders one Context trait method. A host-provided
// iterator-returning term also needs an associated type declared ahead of
// its method: the concrete iterator type the host chooses to accumulate
// results into, constrained to be default-constructible and convertible
// into the shared ContextIter machinery.
func writeTraitMethod(w io.Writer, env *TypeEnv, sig *ExternalSig) error {
	if sig == nil {
		return fmt.Errorf("rulegen: external term is missing its signature")
	}
	if sig.RetKind == ReturnIterator {
		if _, err := fmt.Fprintf(w, "\ttype %s_returns: Default + IntoContextIter<Context = Self, Output = %s>;\n",
			sig.FuncName, renderReturnTuple(env, sig.RetTys)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\tfn %s(&mut self%s) -> %s;\n",
		sig.FuncName, renderParams(env, sig, true), renderReturnType(env, sig))
	return err
}
