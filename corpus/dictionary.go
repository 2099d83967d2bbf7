package corpus

import (
	"context"
	"text2phenotype.com/melt/lexicon"
)

// BuildTagDictionary collects every tag seen with every word of the corpus.
func BuildTagDictionary(ctx context.Context, reader Reader) (*lexicon.Lexicon, error) {
	builder := lexicon.NewBuilder()
	sentences, errc := reader.Sentences(ctx)
	for sent := range sentences {
		for _, token := range sent.Tokens {
			builder.Add(token.Text, token.Label(), "1")
		}
	}
	if err := <-errc; err != nil {
		return nil, err
	}
	return builder.Build(), nil
}

// WordList counts word occurrences and keeps the words seen at least threshold times.
func WordList(ctx context.Context, reader Reader, threshold int) (map[string]int, error) {
	counts := map[string]int{}
	sentences, errc := reader.Sentences(ctx)
	for sent := range sentences {
		for _, token := range sent.Tokens {
			counts[token.Text]++
		}
	}
	if err := <-errc; err != nil {
		return nil, err
	}

	for word, count := range counts {
		if count < threshold {
			delete(counts, word)
		}
	}
	return counts, nil
}
