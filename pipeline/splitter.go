package pipeline

import "strings"

// NewSentenceSplitter emits one sentence per input line. Empty lines are kept so that the
// response lines up with the input.
func NewSentenceSplitter() func(in <-chan string) <-chan Sentence {
	return func(in <-chan string) <-chan Sentence {
		out := make(chan Sentence)
		go func() {
			defer close(out)
			index := 0
			for text := range in {
				text = strings.TrimSuffix(text, "\n")
				if text == "" {
					continue
				}
				for _, line := range strings.Split(text, "\n") {
					out <- Sentence{Index: index, Text: strings.TrimSuffix(line, "\r")}
					index++
				}
			}
		}()
		return out
	}
}
