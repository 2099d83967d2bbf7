package corpus

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"text2phenotype.com/melt/logger"
	"text2phenotype.com/melt/types"
	"unicode/utf8"
)

// DevMarker separates the training part of a corpus from its development part. It is copied
// verbatim into the training instances.
const DevMarker = "DEV"

var (
	wordTagRe   = regexp.MustCompile(`^(.+)/([^/]+)$`)
	capOnlyLine = regexp.MustCompile(`^[^a-z]+$`)
)

// Sentence is one corpus line. Special is set, and Tokens empty, for marker lines.
type Sentence struct {
	Weight  float64
	Tokens  []types.Token
	Special string
}

func (s Sentence) IsSpecial() bool {
	return s.Special != ""
}

// Reader streams the sentences of a training corpus. Every call to Sentences restarts from the
// first line; the sentence channel is closed at the end of the corpus and the error channel
// then receives at most one error.
type Reader interface {
	Sentences(ctx context.Context) (<-chan Sentence, <-chan error)
}

type lineParser func(line string, lineNo int) (Sentence, bool, error)

func stream(ctx context.Context, path string, parse lineParser) (<-chan Sentence, <-chan error) {
	out := make(chan Sentence)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		defer close(out)

		file, err := os.Open(path)
		if err != nil {
			errc <- err
			return
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			sent, ok, err := parse(scanner.Text(), lineNo)
			if err != nil {
				errc <- fmt.Errorf("%s:%d: %w", path, lineNo, err)
				return
			}
			if !ok {
				continue
			}
			select {
			case out <- sent:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errc <- err
		}
	}()

	return out, errc
}

// BrownReader reads `word/TAG word/TAG ...` lines.
type BrownReader struct {
	path             string
	lowerCaseCapOnly bool
}

func NewBrownReader(path string, lowerCaseCapOnly bool) *BrownReader {
	return &BrownReader{path: path, lowerCaseCapOnly: lowerCaseCapOnly}
}

func (r *BrownReader) Sentences(ctx context.Context) (<-chan Sentence, <-chan error) {
	log := logger.NewLogger("Brown Reader").With().Str("path", r.path).Logger()

	return stream(ctx, r.path, func(line string, lineNo int) (Sentence, bool, error) {
		line = strings.Trim(line, " \r")
		if line == DevMarker {
			return Sentence{Weight: 1, Special: line}, true, nil
		}

		capOnly := r.lowerCaseCapOnly && utf8.RuneCountInString(line) > 10 && capOnlyLine.MatchString(line)
		tokens := make([]types.Token, 0, 32)
		for _, item := range strings.Split(line, " ") {
			if item == "" {
				continue
			}
			groups := wordTagRe.FindStringSubmatch(item)
			if groups == nil {
				log.Warn().Int("line", lineNo).Str("item", item).Msg("Incorrect token/tag pair")
				continue
			}
			word := groups[1]
			if capOnly {
				word = strings.ToLower(word)
			}
			tokens = append(tokens, types.NewTaggedToken(word, groups[2], len(tokens)))
		}
		if len(tokens) == 0 {
			return Sentence{}, false, nil
		}
		return Sentence{Weight: 1, Tokens: tokens}, true, nil
	})
}

// WeightedReader reads `count<TAB>word_TAG word_TAG ...` lines; a sentence weighs 1/count.
type WeightedReader struct {
	path string
}

func NewWeightedReader(path string) *WeightedReader {
	return &WeightedReader{path: path}
}

func (r *WeightedReader) Sentences(ctx context.Context) (<-chan Sentence, <-chan error) {
	log := logger.NewLogger("Weighted Reader").With().Str("path", r.path).Logger()

	return stream(ctx, r.path, func(line string, lineNo int) (Sentence, bool, error) {
		line = strings.TrimSpace(line)
		if line == "" {
			return Sentence{}, false, nil
		}

		count, rest, found := strings.Cut(line, "\t")
		if !found {
			return Sentence{}, false, fmt.Errorf("missing weight separator")
		}
		c, err := strconv.ParseFloat(strings.TrimSpace(count), 64)
		if err != nil {
			return Sentence{}, false, fmt.Errorf("invalid weight %q: %w", count, err)
		}
		if c == 0 {
			return Sentence{}, false, fmt.Errorf("weight count must not be zero")
		}

		fields := strings.Fields(rest)
		tokens := make([]types.Token, 0, len(fields))
		for _, item := range fields {
			sep := strings.LastIndex(item, "_")
			if sep < 0 {
				log.Warn().Int("line", lineNo).Str("item", item).Msg("Incorrect token_tag pair")
				continue
			}
			tokens = append(tokens, types.NewTaggedToken(item[:sep], item[sep+1:], len(tokens)))
		}
		return Sentence{Weight: 1 / c, Tokens: tokens}, true, nil
	})
}

// Collect drains a sentence stream. It is meant for small corpora and tests.
func Collect(ctx context.Context, reader Reader) ([]Sentence, error) {
	sentences, errc := reader.Sentences(ctx)
	var res []Sentence
	for sent := range sentences {
		res = append(res, sent)
	}
	if err := <-errc; err != nil {
		return res, err
	}
	return res, nil
}
