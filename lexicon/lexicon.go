package lexicon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/twmb/murmur3"
	"os"
	"sort"
	"strconv"
	"strings"
	"text2phenotype.com/melt/types"
)

const (
	UnknownTags = "unk"

	zeroConfidence = "0"
)

type TagConfidence struct {
	Tag        string
	Confidence string
}

// Entry holds the candidate tags of one word, sorted by tag name.
type Entry []TagConfidence

func (entry Entry) Tags() []string {
	tags := make([]string, len(entry))
	for i, tc := range entry {
		tags[i] = tc.Tag
	}
	return tags
}

func (entry Entry) Join(sep string) string {
	return strings.Join(entry.Tags(), sep)
}

// HasZeroConfidence reports whether any candidate tag is marked with a zero confidence.
func (entry Entry) HasZeroConfidence() bool {
	for _, tc := range entry {
		if tc.Confidence == zeroConfidence {
			return true
		}
	}
	return false
}

// Lexicon maps word forms to candidate tags. It is read-only once loaded; a nil *Lexicon is
// a valid empty lexicon.
type Lexicon struct {
	entries map[string]Entry
}

func New(words map[string]map[string]string) *Lexicon {
	lex := &Lexicon{entries: make(map[string]Entry, len(words))}
	for word, tags := range words {
		entry := make(Entry, 0, len(tags))
		for tag, conf := range tags {
			entry = append(entry, TagConfidence{Tag: tag, Confidence: conf})
		}
		sort.Slice(entry, func(i, j int) bool { return entry[i].Tag < entry[j].Tag })
		lex.entries[word] = entry
	}
	return lex
}

func Load(path string) (*Lexicon, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewArtifactError("lexicon", path, err)
	}

	lex, err := Unmarshal(buf)
	if err != nil {
		return nil, types.NewArtifactError("lexicon", path, err)
	}
	return lex, nil
}

func Unmarshal(buf []byte) (*Lexicon, error) {
	var raw map[string]map[string]json.RawMessage
	if err := json.Unmarshal(buf, &raw); err != nil {
		return nil, err
	}

	words := make(map[string]map[string]string, len(raw))
	for word, tags := range raw {
		confs := make(map[string]string, len(tags))
		for tag, value := range tags {
			conf, err := decodeConfidence(value)
			if err != nil {
				return nil, fmt.Errorf("word %q, tag %q: %w", word, tag, err)
			}
			confs[tag] = conf
		}
		words[word] = confs
	}
	return New(words), nil
}

// confidences are opaque: numbers keep their literal text, strings are unquoted
func decodeConfidence(value json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", fmt.Errorf("confidence must be a number or a string, got %s", trimmed)
	}
	return n.String(), nil
}

func (lex *Lexicon) Marshal() ([]byte, error) {
	out := make(map[string]map[string]interface{}, lex.Len())
	if lex != nil {
		for word, entry := range lex.entries {
			tags := make(map[string]interface{}, len(entry))
			for _, tc := range entry {
				if _, err := strconv.ParseFloat(tc.Confidence, 64); err == nil {
					tags[tc.Tag] = json.Number(tc.Confidence)
				} else {
					tags[tc.Tag] = tc.Confidence
				}
			}
			out[word] = tags
		}
	}
	return json.Marshal(out)
}

func (lex *Lexicon) Save(path string) error {
	buf, err := lex.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

func (lex *Lexicon) Lookup(word string) (Entry, bool) {
	if lex == nil {
		return nil, false
	}
	entry, ok := lex.entries[word]
	return entry, ok
}

// TagString is the `|`-joined tag set of a word, or `unk` when the word is absent.
func (lex *Lexicon) TagString(word string) string {
	entry, ok := lex.Lookup(word)
	if !ok || len(entry) == 0 {
		return UnknownTags
	}
	return entry.Join("|")
}

func (lex *Lexicon) Len() int {
	if lex == nil {
		return 0
	}
	return len(lex.entries)
}

func (lex *Lexicon) Empty() bool {
	return lex.Len() == 0
}

func (lex *Lexicon) Words() []string {
	words := make([]string, 0, lex.Len())
	if lex != nil {
		for word := range lex.entries {
			words = append(words, word)
		}
	}
	sort.Strings(words)
	return words
}

// Digest hashes the lexicon content. Lexicons with the same entries have the same digest
// whatever file they were loaded from.
func (lex *Lexicon) Digest() uint64 {
	hash := murmur3.New64()
	for _, word := range lex.Words() {
		entry, _ := lex.Lookup(word)
		fmt.Fprintf(hash, "%q", word)
		for _, tc := range entry {
			fmt.Fprintf(hash, " %q=%q", tc.Tag, tc.Confidence)
		}
		fmt.Fprintln(hash)
	}
	return hash.Sum64()
}
