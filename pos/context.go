package pos

import "text2phenotype.com/melt/features"

// ContextGenerator computes the features of a token in two phases so that the hypothesis
// independent part is computed once per token. features.Extractor implements it.
type ContextGenerator interface {
	Static(index int, words []string) *features.Static
	Sequential(static *features.Static, labels []string) features.Vector
}
