package types

import (
	"strconv"
	"strings"
)

type LabelProb struct {
	Label string  `json:"label"`
	Prob  float64 `json:"prob"`
}

type Token struct {
	Text         string
	WasCapOnly   bool
	Index        int
	Tag          *string
	Prob         float64
	Distribution []LabelProb

	// input form echoed on output; empty when Text is the input form
	Raw string
}

// NewToken builds an unlabelled token from a raw input word.
func NewToken(text string, index int, wasCapOnly bool) Token {
	return Token{
		Text:       text,
		Index:      index,
		WasCapOnly: wasCapOnly,
	}
}

// NewTaggedToken builds a token from a word/tag pair read from a corpus.
func NewTaggedToken(text string, tag string, index int) Token {
	t := tag
	return Token{
		Text:  text,
		Index: index,
		Tag:   &t,
		Prob:  1,
	}
}

// Labelled returns a copy of the token carrying the decoder's decision.
func (token Token) Labelled(tag string, prob float64, distribution []LabelProb) Token {
	t := tag
	return Token{
		Text:         token.Text,
		Raw:          token.Raw,
		WasCapOnly:   token.WasCapOnly,
		Index:        token.Index,
		Tag:          &t,
		Prob:         prob,
		Distribution: distribution,
	}
}

func (token Token) Label() string {
	if token.Tag == nil {
		return ""
	}
	return *token.Tag
}

func (token Token) HasLabel() bool {
	return token.Tag != nil
}

// Surface is the output form of the word: the raw input when known, otherwise re-uppercased
// when the input line was caps only.
func (token Token) Surface() string {
	if token.Raw != "" {
		return token.Raw
	}
	if token.WasCapOnly {
		return strings.ToUpper(token.Text)
	}
	return token.Text
}

func (token Token) String() string {
	return token.Surface() + "/" + token.Label()
}

func (token Token) VerboseString() string {
	return token.String() + "/" + strconv.FormatFloat(token.Prob, 'g', -1, 64)
}

func Words(tokens []Token) []string {
	words := make([]string, len(tokens))
	for i, token := range tokens {
		words[i] = token.Text
	}
	return words
}

func Labels(tokens []Token) []string {
	labels := make([]string, len(tokens))
	for i, token := range tokens {
		labels[i] = token.Label()
	}
	return labels
}
