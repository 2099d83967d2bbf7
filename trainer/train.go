package trainer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text2phenotype.com/melt/corpus"
	"text2phenotype.com/melt/features"
	"text2phenotype.com/melt/lexicon"
	"text2phenotype.com/melt/logger"
	"text2phenotype.com/melt/maxent"
	"text2phenotype.com/melt/types"
)

type Job struct {
	Corpus   corpus.Reader
	Weighted bool
	Lexicon  *lexicon.Lexicon
	Config   types.TaggerConfig
	ModelDir string

	// optional copy of the filtered training instances
	InstancesDump string
}

// Train generates the training instances of job.Corpus, fits a model with t and saves it into
// job.ModelDir.
func Train(ctx context.Context, t Trainer, job Job) (*maxent.Model, error) {
	log := logger.NewLogger("Train").With().Str("model_dir", job.ModelDir).Logger()

	tmpDir, err := os.MkdirTemp("", "melt-train-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	rawPath := filepath.Join(tmpDir, "instances.raw")
	raw, err := os.Create(rawPath)
	if err != nil {
		return nil, err
	}
	extractor := features.NewExtractor(job.Config.Features, job.Lexicon, features.NewMemoryCache())
	count, err := corpus.NewInstanceWriter(extractor, job.Weighted).Write(ctx, job.Corpus, raw)
	if closeErr := raw.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("generating training instances: %w", err)
	}
	log.Info().Int("instances", count).Msg("Generated training data")

	instancesPath := filepath.Join(tmpDir, "instances")
	if err := corpus.FilterRareFeatures(rawPath, instancesPath, job.Config.Training.FeatureThreshold); err != nil {
		return nil, fmt.Errorf("filtering rare features: %w", err)
	}
	if job.InstancesDump != "" {
		if err := copyFile(instancesPath, job.InstancesDump); err != nil {
			return nil, err
		}
	}

	model, err := t.Fit(ctx, instancesPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(job.ModelDir, 0755); err != nil {
		return nil, err
	}
	if err := model.Save(job.ModelDir); err != nil {
		return nil, err
	}
	if err := types.SaveTaggerConfig(filepath.Join(job.ModelDir, types.TaggerConfigFile), job.Config); err != nil {
		return nil, err
	}
	log.Info().
		Int("classes", len(model.Classes)).
		Int("features", model.NumFeatures()).
		Msg("Model saved")
	return model, nil
}

func copyFile(from string, to string) error {
	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(to)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
