package pos

import (
	"errors"
	"fmt"
	"sort"
	"text2phenotype.com/melt/types"
)

var (
	ErrDegenerateBeam  = errors.New("degenerate beam: no legal tag left")
	ErrInvalidBeamSize = errors.New("beam size must be positive")
)

type BeamSearch struct {
	model      Classifier
	contextGen ContextGenerator
	validator  SequenceValidator
}

func NewBeamSearch(model Classifier, contextGen ContextGenerator, validator SequenceValidator) *BeamSearch {
	return &BeamSearch{
		model:      model,
		contextGen: contextGen,
		validator:  validator,
	}
}

// Search returns the best scoring hypothesis covering all tokens.
func (bs *BeamSearch) Search(tokens []types.Token, size int) (Sequence, error) {
	if size < 1 {
		return Sequence{}, fmt.Errorf("%w: %d", ErrInvalidBeamSize, size)
	}

	words := types.Words(tokens)
	prev := []Sequence{{}}

	for i, token := range tokens {
		static := bs.contextGen.Static(i, words)
		legal := bs.validator.LegalTags(token.Text)

		next := make([]Sequence, 0, len(prev)*8)
		for _, top := range prev {
			fv := bs.contextGen.Sequential(static, top.Labels())
			distribution := bs.model.ClassDistribution(fv)

			for _, lp := range distribution {
				if legal != nil && !legal[lp.Label] {
					continue
				}
				var ns Sequence
				ns.ExpandFrom(top, token.Labelled(lp.Label, lp.Prob, distribution))
				next = append(next, ns)
			}
		}

		if len(next) == 0 {
			return Sequence{}, fmt.Errorf("%w: token %d %q", ErrDegenerateBeam, i, token.Text)
		}

		sort.SliceStable(next, func(a, b int) bool {
			return next[a].Score < next[b].Score
		})
		if len(next) > size {
			next = next[len(next)-size:]
		}
		prev = next
	}

	return prev[len(prev)-1], nil
}

// TagSequence labels every token with the tags of the best hypothesis.
func (bs *BeamSearch) TagSequence(tokens []types.Token, size int) ([]types.Token, error) {
	best, err := bs.Search(tokens, size)
	if err != nil {
		return nil, err
	}
	if best.Tokens == nil {
		return []types.Token{}, nil
	}
	return best.Tokens, nil
}
