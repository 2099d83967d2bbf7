package pos

import (
	"math"
	"text2phenotype.com/melt/types"
)

// Sequence is a beam hypothesis: the labelled prefix of a sentence and its cumulative
// log-probability.
type Sequence struct {
	Score  float64
	Tokens []types.Token
}

func (seq *Sequence) ExpandFrom(src Sequence, token types.Token) {
	seq.Tokens = make([]types.Token, len(src.Tokens)+1)
	copy(seq.Tokens, src.Tokens)
	seq.Tokens[len(seq.Tokens)-1] = token

	seq.Score = src.Score + math.Log(token.Prob)
}

func (seq Sequence) Labels() []string {
	return types.Labels(seq.Tokens)
}
