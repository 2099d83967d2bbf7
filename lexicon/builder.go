package lexicon

// Builder accumulates word/tag pairs, e.g. when deriving a tag dictionary from a corpus.
type Builder struct {
	words map[string]map[string]string
}

func NewBuilder() *Builder {
	return &Builder{words: map[string]map[string]string{}}
}

func (b *Builder) Add(word string, tag string, confidence string) {
	tags, ok := b.words[word]
	if !ok {
		tags = map[string]string{}
		b.words[word] = tags
	}
	tags[tag] = confidence
}

func (b *Builder) Build() *Lexicon {
	return New(b.words)
}
