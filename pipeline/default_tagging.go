package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"text2phenotype.com/melt/features"
	"text2phenotype.com/melt/lexicon"
	"text2phenotype.com/melt/logger"
	"text2phenotype.com/melt/maxent"
	"text2phenotype.com/melt/pos"
	"text2phenotype.com/melt/types"
	"time"
)

type TaggingParams struct {
	ModelDir          string `json:"model_dir"`
	LexiconPath       string `json:"lexicon_path"`
	TagDictionaryPath string `json:"tag_dictionary_path"`

	// defaults to the tagger.yaml saved with the model, if any
	ConfigPath string `json:"config_path"`
}

// LoadTagger loads the model, lexicon, tag dictionary and configuration named by params.
// Every error wraps types.ErrFatalConfig.
func LoadTagger(params TaggingParams, cache features.Cache) (*pos.Tagger, types.TaggerConfig, error) {
	log := logger.NewLogger("Tagger loader")
	errLogger := log.With().Caller().Logger()
	log.Info().
		Interface("params", params).
		Msg("Loading tagger (see parameters in 'params' field)")

	configPath := params.ConfigPath
	if configPath == "" {
		candidate := filepath.Join(params.ModelDir, types.TaggerConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			configPath = candidate
		}
	}
	cfg, err := types.LoadTaggerConfig(configPath)
	if err != nil {
		errLogger.Err(err).Str("config_path", configPath).Msg("Failed to load tagger config")
		return nil, cfg, err
	}

	model, err := maxent.Load(params.ModelDir)
	if err != nil {
		errLogger.Err(err).Str("model_dir", params.ModelDir).Msg("Failed to load model")
		return nil, cfg, err
	}

	lex, err := loadOptionalLexicon(params.LexiconPath)
	if err != nil {
		errLogger.Err(err).Str("lexicon_path", params.LexiconPath).Msg("Failed to load lexicon")
		return nil, cfg, err
	}
	tagDictionary, err := loadOptionalLexicon(params.TagDictionaryPath)
	if err != nil {
		errLogger.Err(err).Str("tag_dictionary_path", params.TagDictionaryPath).Msg("Failed to load tag dictionary")
		return nil, cfg, err
	}

	extractor := features.NewExtractor(cfg.Features, lex, cache)
	tagger, err := pos.NewTagger(model, extractor, pos.NewSequenceValidator(tagDictionary, lex), cfg)
	if err != nil {
		return nil, cfg, types.NewArtifactError("tagger config", configPath, err)
	}
	log.Info().
		Int("classes", len(model.Classes)).
		Int("features", model.NumFeatures()).
		Int("lexicon_words", lex.Len()).
		Int("tag_dictionary_words", tagDictionary.Len()).
		Str("feature_fingerprint", extractor.Fingerprint()).
		Msg("Tagger loaded")
	return tagger, cfg, nil
}

func loadOptionalLexicon(path string) (*lexicon.Lexicon, error) {
	if path == "" {
		return nil, nil
	}
	return lexicon.Load(path)
}

// DefaultTagging splits the request text into lines, tags them concurrently and returns one
// json document per request.
func DefaultTagging(tagger *pos.Tagger, metrics *Metrics) Pipeline {
	log := logger.NewLogger("Default tagging pipeline")
	splitter := NewSentenceSplitter()
	posTagger := NewPOSTagger(tagger, metrics)
	builder := NewTaggingResult()

	return func(request Request) <-chan string {
		responseChan := make(chan string, 1)
		pplnLog := log.With().Str("tid", request.Tid).Logger()
		pplnLog.Info().Msg("Started default tagging pipeline")

		go func() {
			defer close(responseChan)
			start := time.Now()

			verbose := tagger.PrintProbas()
			if request.Verbose != nil {
				verbose = *request.Verbose
			}

			in := make(chan string, 1)
			result := builder(posTagger(splitter(in), request.BeamSize), request.Tid, verbose)
			in <- request.Text
			close(in)

			response := <-result
			metrics.requestDone(time.Since(start))

			buf, err := json.Marshal(response)
			if err != nil {
				pplnLog.Err(err).Msg("Failed to marshall response")
				return
			}
			pplnLog.Info().
				Int("sentences", len(response.Sentences)).
				Int("tokens", response.Tokens).
				Int("errors", response.Errors).
				Msg("Finished default tagging pipeline")
			responseChan <- string(buf)
		}()

		return responseChan
	}
}
