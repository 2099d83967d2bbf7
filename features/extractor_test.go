package features

import (
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
	"text2phenotype.com/melt/lexicon"
	"text2phenotype.com/melt/types"
	"time"
)

func sampleLexicon() *lexicon.Lexicon {
	return lexicon.New(map[string]map[string]string{
		"le":   {"DET": "1", "CLO": "0"},
		"chat": {"NC": "1"},
		"dort": {"V": "0.5"},
	})
}

func withPrefix(fv Vector, prefix string) Vector {
	var res Vector
	for _, f := range fv {
		if strings.HasPrefix(f, prefix) {
			res = append(res, f)
		}
	}
	return res
}

func TestExtractMiddleToken(t *testing.T) {
	extractor := NewExtractor(types.DefaultFeatureOptions(), sampleLexicon(), nil)
	words := []string{"le", "chat", "dort"}

	expected := Vector{
		"wd=chat",
		"pref1=c", "pref2=ch", "pref3=cha", "pref4=chat",
		"suff1=t=1", "suff2=at=1", "suff3=hat=1", "suff4=chat=1",
		"nb=False", "hyph=False", "uc=False", "niuc=False", "auc=False",
		"wd-1=le", "wd+1=dort",
		"pref+1-1=d", "pref+1-2=do", "pref+1-3=dor",
		"suff+1-1=t", "suff+1-2=rt", "suff+1-3=ort",
		"wd-2=<s>", "wd+2=</s>",
		"surr_wds-1=le#dort", "surr_wds-2=<s>#le#dort#</s>",
		"lex-u=NC=1",
		"lex+1=V",
		"ptag-1=DET",
		"lpred-rlex-surr=DET#V",
	}

	actual := extractor.Extract(1, words, []string{"DET"})
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSentenceBoundaries(t *testing.T) {
	extractor := NewExtractor(types.DefaultFeatureOptions(), nil, nil)
	fv := extractor.Extract(0, []string{"dort"}, nil)

	require.Equal(t, Vector{"wd-1=<s>"}, withPrefix(fv, "wd-"))
	require.Equal(t, Vector{"wd+1=</s>"}, withPrefix(fv, "wd+"))
	require.Equal(t, Vector{"pref+1-1=<", "pref+1-2=</", "pref+1-3=</s"}, withPrefix(fv, "pref+1-"))
	require.Equal(t, Vector{"suff+1-1=>", "suff+1-2=s>", "suff+1-3=/s>"}, withPrefix(fv, "suff+1-"))
	require.Equal(t, Vector{"surr_wds-1=<s>#</s>"}, withPrefix(fv, "surr_wds"))
	require.Empty(t, withPrefix(fv, "ptag"))
	require.Empty(t, withPrefix(fv, "lex"), "no lexicon features without a lexicon")
}

func TestExtractOddWindowHasNoSurroundingWords(t *testing.T) {
	opts := types.DefaultFeatureOptions()
	opts.Win = 3
	extractor := NewExtractor(opts, nil, nil)
	fv := extractor.Extract(2, []string{"a", "b", "c", "d", "e"}, []string{"X", "Y"})
	require.Empty(t, withPrefix(fv, "surr_wds"))
	require.Equal(t, Vector{"wd-1=b", "wd-2=a", "wd-3=<s>"}, withPrefix(fv, "wd-"))
	require.Equal(t, Vector{"wd+1=d", "wd+2=e", "wd+3=</s>"}, withPrefix(fv, "wd+"))
}

func TestExtractCapitalisedFirstWord(t *testing.T) {
	extractor := NewExtractor(types.DefaultFeatureOptions(), sampleLexicon(), nil)
	fv := extractor.Extract(0, []string{"Le", "chat"}, nil)

	expected := Vector{
		"lex-disj=CLO|DET", "lex-in=CLO", "lex-in=DET",
		"lex-uc-disj=CLO|DET", "lex-uc-in=CLO", "lex-uc-in=DET",
		"lex+1=NC",
	}
	if diff := cmp.Diff(expected, withPrefix(fv, "lex")); diff != "" {
		t.Errorf("lexicon features mismatch (-want +got):\n%s", diff)
	}
	require.Contains(t, fv, "uc=True")
	require.Contains(t, fv, "niuc=False")
	require.Contains(t, fv, "auc=False")
}

func TestExtractUnknownWords(t *testing.T) {
	extractor := NewExtractor(types.DefaultFeatureOptions(), sampleLexicon(), nil)
	words := []string{"le", "Souris", "PARIS"}

	fv := extractor.Extract(1, words, []string{"DET"})
	require.Equal(t, Vector{"lex=unk", "lex=uc-unk", "lex+1=unk"}, withPrefix(fv, "lex"))
	require.Contains(t, fv, "niuc=True")
	require.Contains(t, fv, "lpred-rlex-surr=DET#unk")

	fv = extractor.Extract(2, words, []string{"DET", "NPP"})
	require.Contains(t, fv, "auc=True")
	require.Contains(t, fv, "ptagS-2=DET#NPP")
	require.Empty(t, withPrefix(fv, "lex+"))
	require.Empty(t, withPrefix(fv, "lpred-rlex-surr"))
}

func TestSuffixConfidence(t *testing.T) {
	lex := lexicon.New(map[string]map[string]string{
		"le":   {"DET": "1", "CLO": "0"},
		"est":  {"V": "1", "NC": "1"},
		"dort": {"V": "0.5"},
	})
	extractor := NewExtractor(types.DefaultFeatureOptions(), lex, nil)

	cases := map[string]string{
		"le":     "suff1=e=0",
		"est":    "suff1=t=1",
		"dort":   "suff1=t=0.5",
		"souris": "suff1=s=1",
	}
	for word, expected := range cases {
		fv := extractor.Extract(0, []string{word}, nil)
		require.Contains(t, fv, expected, word)
	}
}

func TestShapeFeatures(t *testing.T) {
	extractor := NewExtractor(types.DefaultFeatureOptions(), nil, nil)
	fv := extractor.Extract(1, []string{"le", "2-ème", "jour"}, nil)
	require.Contains(t, fv, "nb=True")
	require.Contains(t, fv, "hyph=True")
	require.Contains(t, fv, "uc=False")

	fv = extractor.Extract(1, []string{"le", "_X", "jour"}, nil)
	require.Contains(t, fv, "uc=False", "a leading underscore does not count as an upper case word")

	fv = extractor.Extract(1, []string{"le", "eBay", "jour"}, nil)
	require.Contains(t, fv, "uc=True")
	require.Contains(t, fv, "niuc=True")
	require.Contains(t, fv, "auc=False")
}

func TestSequentialFeatures(t *testing.T) {
	extractor := NewExtractor(types.DefaultFeatureOptions(), nil, nil)
	words := []string{"a", "b", "c", "d"}
	static := extractor.Static(3, words)

	fv := extractor.Sequential(static, []string{"A", "B", "C"})
	require.Equal(t, Vector{"ptag-1=C", "ptag-2=B", "ptagS-2=B#C"}, withPrefix(fv, "ptag"))
	require.Equal(t, static.Features, fv[:len(static.Features)], "sequential features extend the static ones")

	// labels beyond the current position are ignored
	fv = extractor.Sequential(static, []string{"A", "B", "C", "D"})
	require.Equal(t, Vector{"ptag-1=C", "ptag-2=B", "ptagS-2=B#C"}, withPrefix(fv, "ptag"))

	first := extractor.Sequential(static, []string{"X", "Y", "Z"})
	second := extractor.Sequential(static, []string{"A", "B", "C"})
	require.NotEqual(t, first, second)
	require.Len(t, static.Features, len(first)-3, "Sequential must not modify the static vector")
}

func TestExtractWithCache(t *testing.T) {
	cache := NewMemoryCache()
	cached := NewExtractor(types.DefaultFeatureOptions(), sampleLexicon(), cache)
	plain := NewExtractor(types.DefaultFeatureOptions(), sampleLexicon(), nil)
	words := []string{"le", "chat", "dort", "le", "chat"}

	for round := 0; round < 2; round++ {
		labels := []string{}
		for i := range words {
			expected := plain.Extract(i, words, labels)
			actual := cached.Extract(i, words, labels)
			if diff := cmp.Diff(expected, actual); diff != "" {
				t.Fatalf("round %d, token %d: cached extraction differs (-want +got):\n%s", round, i, diff)
			}
			labels = append(labels, "T")
		}
	}
	require.Equal(t, 3, cache.Len())

	features, ok := cache.Get(cached.Fingerprint() + ":chat")
	require.True(t, ok)
	require.Equal(t, []string{"wd=chat", "pref1=c", "pref2=ch", "pref3=cha", "pref4=chat",
		"suff1=t=1", "suff2=at=1", "suff3=hat=1", "suff4=chat=1"}, features)
}

func TestSharedCacheIsScopedByExtractor(t *testing.T) {
	store := newFakeByteStore()
	shared := NewRedisCache(store, "melt:features:", time.Hour)

	short := types.DefaultFeatureOptions()
	short.PLn = 1
	lexA := lexicon.New(map[string]map[string]string{"dort": {"V": "0.5"}})
	lexB := lexicon.New(map[string]map[string]string{"dort": {"V": "1", "NC": "0"}})

	first := NewExtractor(types.DefaultFeatureOptions(), lexA, shared)
	cases := map[string]*Extractor{
		"Other lexicon":           NewExtractor(types.DefaultFeatureOptions(), lexB, shared),
		"Other options":           NewExtractor(short, lexA, shared),
		"Other lexicon & options": NewExtractor(short, lexB, NewRedisCache(store, "melt:features:", time.Hour)),
	}

	words := []string{"dort"}
	first.Extract(0, words, nil)
	for name, extractor := range cases {
		t.Run(name, func(t *testing.T) {
			require.NotEqual(t, first.Fingerprint(), extractor.Fingerprint())

			plain := NewExtractor(extractor.opts, extractor.lexicon, nil)
			expected := plain.Extract(0, words, nil)
			for round := 0; round < 2; round++ {
				if diff := cmp.Diff(expected, extractor.Extract(0, words, nil)); diff != "" {
					t.Fatalf("round %d: shared cache changed the features (-want +got):\n%s", round, diff)
				}
			}
		})
	}
	require.Len(t, store.items, 4)

	same := NewExtractor(types.DefaultFeatureOptions(), lexicon.New(map[string]map[string]string{"dort": {"V": "0.5"}}), shared)
	require.Equal(t, first.Fingerprint(), same.Fingerprint())
}

func TestSentenceStartFallsBackOnEmptyEntry(t *testing.T) {
	lex, err := lexicon.Unmarshal([]byte(`{"Le": {}, "le": {"DET": 1}}`))
	require.NoError(t, err)
	extractor := NewExtractor(types.DefaultFeatureOptions(), lex, nil)

	fv := extractor.Extract(0, []string{"Le", "chat"}, nil)
	require.Equal(t, Vector{"lex-u=DET=1", "lex-uc-u=DET=1", "lex+1=unk"}, withPrefix(fv, "lex"))

	fv = extractor.Extract(1, []string{"chat", "Le"}, nil)
	require.Equal(t, Vector{"lex=unk", "lex-uc-u=DET=1"}, withPrefix(fv, "lex"))
}
