package features

import (
	"fmt"
	"strconv"
	"strings"
	"text2phenotype.com/melt/lexicon"
	"text2phenotype.com/melt/types"
	"text2phenotype.com/melt/utils"
	"unicode"
	"unicode/utf8"
)

const (
	SentenceStart = "<s>"
	SentenceEnd   = "</s>"
)

// Vector is an ordered list of feature identifiers, `family=key` or `family=key=value`.
type Vector []string

// Extractor builds MElt feature vectors. Static features depend only on the words of the
// sentence and are computed once per token; sequential features depend on the labels of the
// hypothesis being extended.
type Extractor struct {
	opts        types.FeatureOptions
	lexicon     *lexicon.Lexicon
	cache       Cache
	fingerprint string
}

// NewExtractor stores word features in cache under the extractor fingerprint, so one cache
// may serve extractors built with different options or lexicons.
func NewExtractor(opts types.FeatureOptions, lex *lexicon.Lexicon, cache Cache) *Extractor {
	e := &Extractor{
		opts:        opts,
		lexicon:     lex,
		fingerprint: fingerprint(opts, lex),
	}
	switch cache.(type) {
	case nil, NopCache:
		e.cache = NopCache{}
	default:
		e.cache = scopedCache{cache: cache, scope: e.fingerprint}
	}
	return e
}

// Fingerprint identifies the options and lexicon content the features depend on.
func (e *Extractor) Fingerprint() string {
	return e.fingerprint
}

func fingerprint(opts types.FeatureOptions, lex *lexicon.Lexicon) string {
	return fmt.Sprintf("%016x", utils.HashString(fmt.Sprintf("%+v/%016x", opts, lex.Digest())))
}

// Static holds the hypothesis independent part of a token's features.
type Static struct {
	Index    int
	Features Vector

	// lexicon tag strings of the right context words, without boundary markers
	rightTags []string
}

func (e *Extractor) Static(index int, words []string) *Static {
	word := words[index]
	b := &builder{fv: make(Vector, 0, 48)}

	e.appendWordFeatures(b, word)
	appendShapeFeatures(b, word, index)

	win := e.newWindow(index, words)
	e.appendContextFeatures(b, win)
	if !e.lexicon.Empty() {
		e.appendLexiconFeatures(b, index, word, win)
	}

	return &Static{
		Index:     index,
		Features:  b.fv,
		rightTags: win.rightTags,
	}
}

// Sequential returns a fresh vector made of the static features followed by the features
// derived from the labels already assigned to the tokens before static.Index.
func (e *Extractor) Sequential(static *Static, labels []string) Vector {
	b := &builder{fv: make(Vector, len(static.Features), len(static.Features)+2*e.opts.PWin+1)}
	copy(b.fv, static.Features)

	lwin := e.opts.LeftWindow()
	prev := labels
	if len(prev) > static.Index {
		prev = prev[:static.Index]
	}
	if len(prev) > lwin {
		prev = prev[len(prev)-lwin:]
	}

	for n := 1; n <= e.opts.PWin; n++ {
		if len(prev) < n {
			break
		}
		b.add("ptag-"+strconv.Itoa(n), prev[len(prev)-n])
		if n > 1 {
			b.add("ptagS-"+strconv.Itoa(n), strings.Join(prev[len(prev)-n:], "#"))
		}
	}

	if e.opts.LexRHS && len(prev) >= 1 && len(static.rightTags) >= 1 {
		b.add("lpred-rlex-surr", prev[len(prev)-1]+"#"+static.rightTags[0])
	}
	return b.fv
}

// Extract computes the full feature vector of words[index] given the labels of the preceding
// tokens.
func (e *Extractor) Extract(index int, words []string, labels []string) Vector {
	return e.Sequential(e.Static(index, words), labels)
}

func (e *Extractor) appendWordFeatures(b *builder, word string) {
	if cached, ok := e.cache.Get(word); ok {
		b.fv = append(b.fv, cached...)
		return
	}

	start := len(b.fv)
	b.add("wd", word)

	runes := []rune(word)
	for i := 1; i <= e.opts.PLn && i <= len(runes); i++ {
		b.add("pref"+strconv.Itoa(i), string(runes[:i]))
	}
	if e.opts.SLn > 0 {
		val := e.suffixConfidence(word)
		for i := 1; i <= e.opts.SLn && i <= len(runes); i++ {
			b.addValue("suff"+strconv.Itoa(i), string(runes[len(runes)-i:]), val)
		}
	}

	wordFeatures := make(Vector, len(b.fv)-start)
	copy(wordFeatures, b.fv[start:])
	e.cache.Put(word, wordFeatures)
}

// suffixConfidence qualifies suffix features with the lexicon ambiguity of the word.
func (e *Extractor) suffixConfidence(word string) string {
	entry, _ := e.lexicon.Lookup(word)
	if len(entry) == 1 {
		return entry[0].Confidence
	}
	if entry.HasZeroConfidence() {
		return "0"
	}
	return "1"
}

func appendShapeFeatures(b *builder, word string, index int) {
	uc := upperRe.MatchString(word)
	b.addBool("nb", digitRe.MatchString(word))
	b.addBool("hyph", strings.ContainsRune(word, '-'))
	b.addBool("uc", uc)
	b.addBool("niuc", uc && index > 0)
	b.addBool("auc", allCapsRe.MatchString(word))
}

func (e *Extractor) appendContextFeatures(b *builder, win *window) {
	lwds, rwds := win.leftWords, win.rightWords
	for n := 1; n <= e.opts.Win; n++ {
		suffix := strconv.Itoa(n)
		if len(lwds) >= n {
			b.add("wd-"+suffix, lwds[len(lwds)-n])
		}
		if len(rwds) >= n {
			right := rwds[n-1]
			b.add("wd+"+suffix, right)
			if n == 1 {
				runes := []rune(right)
				for i := 1; i <= e.opts.RPLn && i <= len(runes); i++ {
					b.add("pref+1-"+strconv.Itoa(i), string(runes[:i]))
				}
				for i := 1; i <= e.opts.RSLn && i <= len(runes); i++ {
					b.add("suff+1-"+strconv.Itoa(i), string(runes[len(runes)-i:]))
				}
			}
		}
	}

	if e.opts.Win%2 != 0 {
		return
	}
	for n := 1; n <= e.opts.Win/2; n++ {
		if len(lwds) < n || len(rwds) < n {
			continue
		}
		surr := make([]string, 0, 2*n)
		surr = append(surr, lwds[len(lwds)-n:]...)
		surr = append(surr, rwds[:n]...)
		b.add("surr_wds-"+strconv.Itoa(n), strings.Join(surr, "#"))
	}
}

func (e *Extractor) appendLexiconFeatures(b *builder, index int, word string, win *window) {
	if e.opts.LexWd {
		entry, _ := e.lexicon.Lookup(word)
		if len(entry) == 0 && index == 0 {
			entry, _ = e.lexicon.Lookup(strings.ToLower(word))
		}
		appendEntryFeatures(b, entry, "lex", "", "unk")

		if first, _ := utf8.DecodeRuneInString(word); unicode.IsUpper(first) {
			lowered, _ := e.lexicon.Lookup(strings.ToLower(word))
			appendEntryFeatures(b, lowered, "lex", "-uc", "uc-unk")
		}
	}

	if !e.opts.LexRHS {
		return
	}
	rtags := win.rightTags
	for n := 1; n <= e.opts.Win && n <= len(rtags); n++ {
		b.add("lex+"+strconv.Itoa(n), rtags[n-1])
		if n > 1 {
			b.add("lexS+"+strconv.Itoa(n), strings.Join(rtags[:n], "#"))
		}
	}
}

// appendEntryFeatures emits the unknown / unique / disjunctive lexicon features of an entry.
func appendEntryFeatures(b *builder, entry lexicon.Entry, family string, variant string, unknown string) {
	switch len(entry) {
	case 0:
		b.add(family, unknown)
	case 1:
		b.addValue(family+variant+"-u", entry[0].Tag, entry[0].Confidence)
	default:
		b.add(family+variant+"-disj", entry.Join("|"))
		for _, tc := range entry {
			b.add(family+variant+"-in", tc.Tag)
		}
	}
}

type window struct {
	leftWords  []string
	rightWords []string
	rightTags  []string
}

func (e *Extractor) newWindow(index int, words []string) *window {
	lwin := e.opts.LeftWindow()
	rwin := e.opts.Win

	lstart := index - lwin
	if lstart < 0 {
		lstart = 0
	}
	left := words[lstart:index]
	leftWords := make([]string, 0, len(left)+1)
	if len(left) < lwin {
		leftWords = append(leftWords, SentenceStart)
	}
	leftWords = append(leftWords, left...)

	rend := index + 1 + rwin
	if rend > len(words) {
		rend = len(words)
	}
	right := words[index+1 : rend]
	rightWords := make([]string, 0, len(right)+1)
	rightWords = append(rightWords, right...)
	if len(right) < rwin {
		rightWords = append(rightWords, SentenceEnd)
	}

	var rightTags []string
	if !e.lexicon.Empty() {
		rightTags = make([]string, len(right))
		for i, w := range right {
			rightTags[i] = e.lexicon.TagString(w)
		}
	}

	return &window{
		leftWords:  leftWords,
		rightWords: rightWords,
		rightTags:  rightTags,
	}
}
