package types

import (
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
)

const (
	DefaultBeamSize = 3

	// training-time feature frequency threshold
	DefaultFeatureThreshold = 1

	// written next to the model artifacts so that tagging uses the options the model was trained with
	TaggerConfigFile = "tagger.yaml"
)

// FeatureOptions selects the feature families and window sizes used by the extractor.
// The same options must be used for training and tagging.
type FeatureOptions struct {
	Win    int  `yaml:"win" json:"win"`
	PWin   int  `yaml:"pwin" json:"pwin"`
	LexWd  bool `yaml:"lex_wd" json:"lex_wd"`
	LexRHS bool `yaml:"lex_rhs" json:"lex_rhs"`
	PLn    int  `yaml:"pln" json:"pln"`
	SLn    int  `yaml:"sln" json:"sln"`
	RPLn   int  `yaml:"rpln" json:"rpln"`
	RSLn   int  `yaml:"rsln" json:"rsln"`
}

func DefaultFeatureOptions() FeatureOptions {
	return FeatureOptions{
		Win:    2,
		PWin:   2,
		LexWd:  true,
		LexRHS: true,
		PLn:    4,
		SLn:    5,
		RPLn:   3,
		RSLn:   3,
	}
}

// LeftWindow is the number of preceding tokens the extractor looks at.
func (opts FeatureOptions) LeftWindow() int {
	if opts.PWin > opts.Win {
		return opts.PWin
	}
	return opts.Win
}

func (opts FeatureOptions) Validate() error {
	if opts.Win < 0 || opts.PWin < 0 || opts.PLn < 0 || opts.SLn < 0 || opts.RPLn < 0 || opts.RSLn < 0 {
		return errors.New("feature window sizes must not be negative")
	}
	return nil
}

type TrainingConfig struct {
	FeatureThreshold int     `yaml:"ffthrsld" json:"ffthrsld"`
	PriorPrecision   float64 `yaml:"prior_prec" json:"prior_prec"`
	MaxIterations    int     `yaml:"maxit" json:"maxit"`
	Repeat           int     `yaml:"repeat" json:"repeat"`
	Classifier       string  `yaml:"classifier" json:"classifier"`
	Norm             int     `yaml:"norm" json:"norm"`
	Bias             bool    `yaml:"bias" json:"bias"`
}

type TaggerConfig struct {
	Features         FeatureOptions `yaml:"features" json:"features"`
	Training         TrainingConfig `yaml:"training" json:"training"`
	BeamSize         int            `yaml:"beam_size" json:"beam_size"`
	LowerCaseCapOnly bool           `yaml:"lower_case_cap_only" json:"lower_case_cap_only"`
	PrintProbas      bool           `yaml:"print_probas" json:"print_probas"`
}

func DefaultTaggerConfig() TaggerConfig {
	return TaggerConfig{
		Features: DefaultFeatureOptions(),
		Training: TrainingConfig{
			FeatureThreshold: DefaultFeatureThreshold,
			PriorPrecision:   1,
			MaxIterations:    100,
			Repeat:           5,
			Classifier:       "multitron",
			Bias:             true,
		},
		BeamSize: DefaultBeamSize,
	}
}

// LoadTaggerConfig reads a yaml tagger configuration. Keys missing from the file keep their
// default values; an empty path returns the defaults.
func LoadTaggerConfig(path string) (TaggerConfig, error) {
	cfg := DefaultTaggerConfig()
	if path == "" {
		return cfg, nil
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return cfg, NewArtifactError("tagger config", path, err)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, NewArtifactError("tagger config", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, NewArtifactError("tagger config", path, err)
	}
	return cfg, nil
}

func (cfg TaggerConfig) Validate() error {
	if cfg.BeamSize < 1 {
		return fmt.Errorf("beam_size must be positive, got %d", cfg.BeamSize)
	}
	return cfg.Features.Validate()
}

// SaveTaggerConfig stores the configuration a model was trained with next to the model.
func SaveTaggerConfig(path string, cfg TaggerConfig) error {
	buf, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}
