package rulegen

// CodegenOptions configures the emitted source's cosmetics. None of these
// affect the decision-tree walk itself.
type CodegenOptions struct {
	// ExcludeGeneratedFileComment omits the "GENERATED CODE" banner atop
	// the output, useful for tests that diff generated fragments.
	ExcludeGeneratedFileComment bool
	// IncludeRuleDocs precedes each generated term constructor with a
	// comment naming the term and its declaration position.
	IncludeRuleDocs bool
}
