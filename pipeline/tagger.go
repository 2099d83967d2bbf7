package pipeline

import (
	"strings"
	"sync"
	"text2phenotype.com/melt/logger"
	"text2phenotype.com/melt/pos"
	"text2phenotype.com/melt/types"
	"text2phenotype.com/melt/utils"
)

// NewPOSTagger tags every sentence in its own goroutine. A beam size below one selects the
// tagger's configured beam. Failures are attached to the sentence instead of stopping the stage.
func NewPOSTagger(tagger *pos.Tagger, metrics *Metrics) func(in <-chan Sentence, beamSize int) <-chan Sentence {
	log := logger.NewLogger("POS tagger stage")

	return func(in <-chan Sentence, beamSize int) <-chan Sentence {
		if beamSize < 1 {
			beamSize = tagger.BeamSize()
		}
		out := make(chan Sentence)
		go func() {
			defer close(out)
			var wg sync.WaitGroup
			for sent := range in {
				wg.Add(1)
				go func(sent Sentence) {
					defer wg.Done()
					sent.Tokens, sent.Err = tagSentence(tagger, sent.Text, beamSize)
					if sent.Err != nil {
						log.Warn().Err(sent.Err).Int("sentence", sent.Index).Msg("Failed to tag sentence")
						metrics.sentenceFailed()
					} else {
						metrics.sentenceTagged(len(sent.Tokens))
					}
					out <- sent
				}(sent)
			}
			wg.Wait()
		}()
		return out
	}
}

func tagSentence(tagger *pos.Tagger, text string, beamSize int) (tokens []types.Token, err error) {
	defer utils.RecoverWithError(&err)
	return tagger.Tag(strings.Fields(text), beamSize)
}
