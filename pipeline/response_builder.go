package pipeline

import (
	"sort"
	"text2phenotype.com/melt/pos"
	"text2phenotype.com/melt/types"
)

type TokenResult struct {
	Word         string            `json:"word"`
	Tag          string            `json:"tag"`
	Prob         float64           `json:"prob,omitempty"`
	Distribution []types.LabelProb `json:"distribution,omitempty"`
}

type SentenceResult struct {
	Index  int           `json:"index"`
	Tagged string        `json:"tagged"`
	Tokens []TokenResult `json:"tokens"`
	Error  string        `json:"error,omitempty"`
}

type Response struct {
	Tid       string           `json:"tid"`
	Sentences []SentenceResult `json:"sentences"`
	Tokens    int              `json:"tokens"`
	Errors    int              `json:"errors"`
}

// NewTaggingResult gathers the tagged sentences back into input order.
func NewTaggingResult() func(in <-chan Sentence, tid string, verbose bool) <-chan Response {
	return func(in <-chan Sentence, tid string, verbose bool) <-chan Response {
		out := make(chan Response, 1)
		go func() {
			defer close(out)
			var sentences []Sentence
			for sent := range in {
				sentences = append(sentences, sent)
			}
			sort.Slice(sentences, func(i, j int) bool { return sentences[i].Index < sentences[j].Index })

			response := Response{
				Tid:       tid,
				Sentences: make([]SentenceResult, len(sentences)),
			}
			for i, sent := range sentences {
				response.Sentences[i] = sentenceResult(sent, verbose)
				response.Tokens += len(sent.Tokens)
				if sent.Err != nil {
					response.Errors++
				}
			}
			out <- response
		}()
		return out
	}
}

func sentenceResult(sent Sentence, verbose bool) SentenceResult {
	result := SentenceResult{
		Index:  sent.Index,
		Tokens: make([]TokenResult, len(sent.Tokens)),
	}
	if sent.Err != nil {
		result.Error = sent.Err.Error()
		return result
	}
	result.Tagged = pos.Format(sent.Tokens, verbose)
	for i, token := range sent.Tokens {
		tr := TokenResult{Word: token.Surface(), Tag: token.Label()}
		if verbose {
			tr.Prob = token.Prob
			tr.Distribution = token.Distribution
		}
		result.Tokens[i] = tr
	}
	return result
}
