package pos

import (
	"fmt"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"
	"regexp"
	"strings"
	"text2phenotype.com/melt/logger"
	"text2phenotype.com/melt/types"
	"unicode/utf8"
)

// lines shorter than this are never treated as caps only
const capOnlyMinLength = 10

var capOnlyRe = regexp.MustCompile(`^[^a-z]+$`)

type Tagger struct {
	search           *BeamSearch
	beamSize         int
	printProbas      bool
	lowerCaseCapOnly bool
	log              zerolog.Logger
}

func NewTagger(model Classifier, contextGen ContextGenerator, validator SequenceValidator, cfg types.TaggerConfig) (*Tagger, error) {
	if cfg.BeamSize < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBeamSize, cfg.BeamSize)
	}
	return &Tagger{
		search:           NewBeamSearch(model, contextGen, validator),
		beamSize:         cfg.BeamSize,
		printProbas:      cfg.PrintProbas,
		lowerCaseCapOnly: cfg.LowerCaseCapOnly,
		log:              logger.NewLogger("POS Tagger"),
	}, nil
}

func (t *Tagger) BeamSize() int {
	return t.beamSize
}

// PrintProbas is the configured default for verbose output.
func (t *Tagger) PrintProbas() bool {
	return t.printProbas
}

// PrepareTokens normalises raw words into tokens, keeping the raw form for output. When
// lowerCaseCapOnly is set, a line of more than ten characters without any lower case letter is
// lowercased and its tokens remember it.
func PrepareTokens(words []string, lowerCaseCapOnly bool) []types.Token {
	normalized := make([]string, len(words))
	for i, word := range words {
		normalized[i] = norm.NFC.String(word)
	}

	capOnly := false
	if lowerCaseCapOnly {
		line := strings.Join(normalized, " ")
		capOnly = utf8.RuneCountInString(line) > capOnlyMinLength && capOnlyRe.MatchString(line)
	}

	tokens := make([]types.Token, len(normalized))
	for i, word := range normalized {
		if capOnly {
			word = strings.ToLower(word)
		}
		tokens[i] = types.NewToken(word, i, capOnly)
		if word != words[i] {
			tokens[i].Raw = words[i]
		}
	}
	return tokens
}

// Tag tags one sentence with an explicit beam size.
func (t *Tagger) Tag(words []string, beamSize int) ([]types.Token, error) {
	tokens := PrepareTokens(words, t.lowerCaseCapOnly)
	tagged, err := t.search.TagSequence(tokens, beamSize)
	if err != nil {
		t.log.Debug().Err(err).Int("tokens", len(tokens)).Msg("Sentence could not be tagged")
		return nil, err
	}
	return tagged, nil
}

func (t *Tagger) TagWords(words []string) ([]types.Token, error) {
	return t.Tag(words, t.beamSize)
}

// TagLine tags a whitespace tokenized sentence.
func (t *Tagger) TagLine(line string) ([]types.Token, error) {
	return t.TagWords(strings.Fields(line))
}

// Format renders tagged tokens as space separated word/TAG items, with the label probability
// appended in verbose mode.
func Format(tokens []types.Token, verbose bool) string {
	items := make([]string, len(tokens))
	for i, token := range tokens {
		if verbose {
			items[i] = token.VerboseString()
		} else {
			items[i] = token.String()
		}
	}
	return strings.Join(items, " ")
}
