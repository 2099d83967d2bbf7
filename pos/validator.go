package pos

import "text2phenotype.com/melt/lexicon"

type SequenceValidator interface {
	// LegalTags returns the tags a word may receive, or nil when every class is allowed.
	LegalTags(word string) map[string]bool
}

type defaultSequenceValidator struct {
	tagDictionary *lexicon.Lexicon
	lexicon       *lexicon.Lexicon
}

func (v defaultSequenceValidator) LegalTags(word string) map[string]bool {
	var legal map[string]bool
	for _, table := range []*lexicon.Lexicon{v.tagDictionary, v.lexicon} {
		entry, _ := table.Lookup(word)
		for _, tc := range entry {
			if legal == nil {
				legal = make(map[string]bool, len(entry))
			}
			legal[tc.Tag] = true
		}
	}
	return legal
}

// NewSequenceValidator restricts a word to the union of its tag dictionary and lexicon tags.
// Words known to neither table are open.
func NewSequenceValidator(tagDictionary *lexicon.Lexicon, lex *lexicon.Lexicon) SequenceValidator {
	return defaultSequenceValidator{tagDictionary: tagDictionary, lexicon: lex}
}
