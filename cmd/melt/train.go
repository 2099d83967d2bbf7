package main

import (
	"fmt"
	"github.com/spf13/cobra"
	"os"
	"text2phenotype.com/melt/corpus"
	"text2phenotype.com/melt/features"
	"text2phenotype.com/melt/lexicon"
	"text2phenotype.com/melt/logger"
	"text2phenotype.com/melt/trainer"
	"text2phenotype.com/melt/types"
)

type corpusOptions struct {
	weighted    bool
	lexiconPath string
	configPath  string
}

func (opts *corpusOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&opts.weighted, "weighted", "w", false, "Corpus is in the weighted `count<TAB>word_TAG` format")
	cmd.Flags().StringVarP(&opts.lexiconPath, "lexicon", "l", "", "External lexicon (json)")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Tagger configuration (yaml)")
}

func (opts *corpusOptions) load(corpusPath string) (corpus.Reader, *lexicon.Lexicon, types.TaggerConfig, error) {
	cfg, err := types.LoadTaggerConfig(opts.configPath)
	if err != nil {
		return nil, nil, cfg, err
	}
	var lex *lexicon.Lexicon
	if opts.lexiconPath != "" {
		if lex, err = lexicon.Load(opts.lexiconPath); err != nil {
			return nil, nil, cfg, err
		}
	}
	return newCorpusReader(corpusPath, opts.weighted, cfg.LowerCaseCapOnly), lex, cfg, nil
}

func newCorpusReader(path string, weighted bool, lowerCaseCapOnly bool) corpus.Reader {
	if weighted {
		return corpus.NewWeightedReader(path)
	}
	return corpus.NewBrownReader(path, lowerCaseCapOnly)
}

func newTrainCommand() *cobra.Command {
	var (
		opts          corpusOptions
		instancesDump string
	)

	cmd := &cobra.Command{
		Use:   "train <corpus> <model-dir>",
		Short: "Train a tagging model with megam",
		Args:  cobra.ExactArgs(2),
		Example: `  melt train corpus.brown model --lexicon lexicon.json
  MEGAM_DIR=/opt/megam melt train corpus.weighted model -w -c tagger.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewLogger("CLI")
			reader, lex, cfg, err := opts.load(args[0])
			if err != nil {
				return err
			}
			megamCfg, err := trainer.LoadMegamConfig()
			if err != nil {
				return err
			}
			megam, err := trainer.NewMegam(megamCfg, cfg.Training)
			if err != nil {
				return err
			}
			model, err := trainer.Train(cmd.Context(), megam, trainer.Job{
				Corpus:        reader,
				Weighted:      opts.weighted,
				Lexicon:       lex,
				Config:        cfg,
				ModelDir:      args[1],
				InstancesDump: instancesDump,
			})
			if err != nil {
				return err
			}
			log.Info().Strs("classes", model.Classes).Str("model_dir", args[1]).Msg("Training done")
			return nil
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&instancesDump, "dump-instances", "", "Keep a copy of the filtered training instances")
	return cmd
}

func newGenInstancesCommand() *cobra.Command {
	var (
		opts      corpusOptions
		threshold int
	)

	cmd := &cobra.Command{
		Use:   "gen-instances <corpus> <output>",
		Short: "Write the training instances of a corpus",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, lex, cfg, err := opts.load(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("threshold") {
				cfg.Training.FeatureThreshold = threshold
			}
			return generateInstances(cmd, reader, lex, cfg, opts.weighted, args[1])
		},
	}
	opts.register(cmd)
	cmd.Flags().IntVarP(&threshold, "threshold", "t", types.DefaultFeatureThreshold, "Drop features seen fewer times")
	return cmd
}

func generateInstances(cmd *cobra.Command, reader corpus.Reader, lex *lexicon.Lexicon, cfg types.TaggerConfig, weighted bool, outPath string) error {
	raw, err := os.CreateTemp("", "melt-instances-")
	if err != nil {
		return err
	}
	defer os.Remove(raw.Name())

	extractor := features.NewExtractor(cfg.Features, lex, features.NewMemoryCache())
	count, err := corpus.NewInstanceWriter(extractor, weighted).Write(cmd.Context(), reader, raw)
	if closeErr := raw.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if err := corpus.FilterRareFeatures(raw.Name(), outPath, cfg.Training.FeatureThreshold); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.ErrOrStderr(), "%d instances written to %s\n", count, outPath)
	return err
}
