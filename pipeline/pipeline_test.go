package pipeline

import (
	"encoding/json"
	jsonpatch "github.com/evanphx/json-patch"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"text2phenotype.com/melt/features"
	"text2phenotype.com/melt/maxent"
	"text2phenotype.com/melt/types"
)

const testLexicon = `{
	"le": {"DET": 1},
	"chat": {"NC": 1},
	"dort": {"V": 1},
	"zut": {"INTJ": 1}
}`

type testResources struct {
	params TaggingParams
}

func newTestResources(t *testing.T) testResources {
	dir := t.TempDir()
	modelDir := filepath.Join(dir, "model")
	require.NoError(t, os.MkdirAll(modelDir, 0755))

	model, err := maxent.NewModel([]string{"ADJ", "DET", "NC", "V"}, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, model.Save(modelDir))

	lexiconPath := filepath.Join(dir, "lexicon.json")
	require.NoError(t, os.WriteFile(lexiconPath, []byte(testLexicon), 0644))

	return testResources{params: TaggingParams{ModelDir: modelDir, LexiconPath: lexiconPath}}
}

func newTestPipeline(t *testing.T, metrics *Metrics) Pipeline {
	tagger, _, err := LoadTagger(newTestResources(t).params, features.NewMemoryCache())
	require.NoError(t, err)
	return DefaultTagging(tagger, metrics)
}

func TestDefaultTagging(t *testing.T) {
	ppln := newTestPipeline(t, nil)

	res, ok := <-ppln(Request{Text: "le chat dort\nchat le\n", Tid: "doc-1"})
	require.True(t, ok)

	expected := `{
		"tid": "doc-1",
		"tokens": 5,
		"errors": 0,
		"sentences": [
			{"index": 0, "tagged": "le/DET chat/NC dort/V", "tokens": [
				{"word": "le", "tag": "DET"}, {"word": "chat", "tag": "NC"}, {"word": "dort", "tag": "V"}
			]},
			{"index": 1, "tagged": "chat/NC le/DET", "tokens": [
				{"word": "chat", "tag": "NC"}, {"word": "le", "tag": "DET"}
			]}
		]
	}`
	require.True(t, jsonpatch.Equal([]byte(expected), []byte(res)), "unexpected response %s", res)
}

func TestDefaultTaggingVerbose(t *testing.T) {
	ppln := newTestPipeline(t, nil)

	verbose := true
	res := <-ppln(Request{Text: "le chat", Tid: "doc-2", Verbose: &verbose, BeamSize: 1})
	var response Response
	require.NoError(t, json.Unmarshal([]byte(res), &response))
	require.Len(t, response.Sentences, 1)

	sent := response.Sentences[0]
	require.Equal(t, "le/DET/0.25 chat/NC/0.25", sent.Tagged)
	for _, token := range sent.Tokens {
		require.InDelta(t, 0.25, token.Prob, 1e-12)
		require.Len(t, token.Distribution, 4)
	}
}

func TestDefaultTaggingPrintProbasSetting(t *testing.T) {
	resources := newTestResources(t)
	cfg := types.DefaultTaggerConfig()
	cfg.PrintProbas = true
	require.NoError(t, types.SaveTaggerConfig(filepath.Join(resources.params.ModelDir, types.TaggerConfigFile), cfg))
	tagger, _, err := LoadTagger(resources.params, nil)
	require.NoError(t, err)
	require.True(t, tagger.PrintProbas())
	ppln := DefaultTagging(tagger, nil)

	tagged := func(request Request) string {
		var response Response
		require.NoError(t, json.Unmarshal([]byte(<-ppln(request)), &response))
		require.Len(t, response.Sentences, 1)
		return response.Sentences[0].Tagged
	}

	require.Equal(t, "le/DET/0.25 chat/NC/0.25", tagged(Request{Text: "le chat", Tid: "default"}))
	quiet := false
	require.Equal(t, "le/DET chat/NC", tagged(Request{Text: "le chat", Tid: "quiet", Verbose: &quiet}))

	plain := newTestPipeline(t, nil)
	res := <-plain(Request{Text: "le chat", Tid: "plain"})
	var response Response
	require.NoError(t, json.Unmarshal([]byte(res), &response))
	require.Equal(t, "le/DET chat/NC", response.Sentences[0].Tagged)
}

func TestDefaultTaggingSentenceErrors(t *testing.T) {
	ppln := newTestPipeline(t, nil)

	res := <-ppln(Request{Text: "le chat\nzut\n\ndort", Tid: "doc-3"})
	var response Response
	require.NoError(t, json.Unmarshal([]byte(res), &response))

	require.Len(t, response.Sentences, 4)
	require.Equal(t, 1, response.Errors)
	require.Equal(t, 3, response.Tokens)
	require.Contains(t, response.Sentences[1].Error, "degenerate beam")
	require.Empty(t, response.Sentences[1].Tagged)
	require.Empty(t, response.Sentences[2].Tokens)
	require.Equal(t, "dort/V", response.Sentences[3].Tagged)
	for i, sent := range response.Sentences {
		require.Equal(t, i, sent.Index)
	}
}

func TestDefaultTaggingEmptyText(t *testing.T) {
	ppln := newTestPipeline(t, nil)

	res := <-ppln(Request{Text: "", Tid: "empty"})
	require.True(t, jsonpatch.Equal([]byte(`{"tid": "empty", "sentences": [], "tokens": 0, "errors": 0}`), []byte(res)), res)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ppln := newTestPipeline(t, NewMetrics(reg))

	<-ppln(Request{Text: "le chat dort\nzut", Tid: "doc-4"})

	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]*dto.Metric, len(families))
	for _, family := range families {
		values[family.GetName()] = family.GetMetric()[0]
	}
	require.Equal(t, 1.0, values["melt_sentences_tagged_total"].GetCounter().GetValue())
	require.Equal(t, 3.0, values["melt_tokens_tagged_total"].GetCounter().GetValue())
	require.Equal(t, 1.0, values["melt_sentence_failures_total"].GetCounter().GetValue())
	require.Equal(t, uint64(1), values["melt_request_duration_seconds"].GetHistogram().GetSampleCount())
}

func TestLoadTagger(t *testing.T) {
	t.Run("Uses the config saved with the model", func(t *testing.T) {
		resources := newTestResources(t)
		cfg := types.DefaultTaggerConfig()
		cfg.BeamSize = 7
		require.NoError(t, types.SaveTaggerConfig(filepath.Join(resources.params.ModelDir, types.TaggerConfigFile), cfg))

		tagger, loaded, err := LoadTagger(resources.params, nil)
		require.NoError(t, err)
		require.Equal(t, 7, loaded.BeamSize)
		require.Equal(t, 7, tagger.BeamSize())
	})

	t.Run("Missing model is fatal", func(t *testing.T) {
		_, _, err := LoadTagger(TaggingParams{ModelDir: t.TempDir()}, nil)
		require.ErrorIs(t, err, types.ErrFatalConfig)
	})

	t.Run("Missing tag dictionary is fatal", func(t *testing.T) {
		resources := newTestResources(t)
		resources.params.TagDictionaryPath = filepath.Join(t.TempDir(), "missing.json")
		_, _, err := LoadTagger(resources.params, nil)
		require.ErrorIs(t, err, types.ErrFatalConfig)
	})
}

func TestSentenceSplitter(t *testing.T) {
	in := make(chan string, 2)
	in <- "a b\r\nc\n"
	in <- "d"
	close(in)

	var texts []string
	for sent := range NewSentenceSplitter()(in) {
		require.Equal(t, len(texts), sent.Index)
		texts = append(texts, sent.Text)
	}
	require.Equal(t, []string{"a b", "c", "d"}, texts)
}
