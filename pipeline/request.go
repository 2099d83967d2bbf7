package pipeline

import "text2phenotype.com/melt/types"

type Request struct {
	Text     string `json:"text"`
	Tid      string `json:"tid"`
	BeamSize int    `json:"beam_size,omitempty"`

	// nil falls back to the print_probas setting of the tagger
	Verbose *bool `json:"verbose,omitempty"`
}

// Pipeline tags the text of a request. The json encoded response is sent on the returned
// channel, which is closed without a value when no response could be built.
type Pipeline func(request Request) <-chan string

// Sentence is one input line travelling through the stages.
type Sentence struct {
	Index  int
	Text   string
	Tokens []types.Token
	Err    error
}
