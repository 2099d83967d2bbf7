package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"net/http"
	"os"
	"text2phenotype.com/melt/api"
	"text2phenotype.com/melt/features"
	"text2phenotype.com/melt/logger"
	"text2phenotype.com/melt/pipeline"
	"text2phenotype.com/melt/redis"
	"text2phenotype.com/melt/s3client"
	"text2phenotype.com/melt/types"
	"text2phenotype.com/melt/worker"
	"time"
)

type Config struct {
	ModelDir          string        `envconfig:"MELT_MODEL_DIR" required:"true"`
	LexiconPath       string        `envconfig:"MELT_LEXICON_PATH" default:""`
	TagDictionaryPath string        `envconfig:"MELT_TAGDICT_PATH" default:""`
	ConfigPath        string        `envconfig:"MELT_CONFIG_PATH" default:""`
	S3ModelPrefix     string        `envconfig:"MELT_S3_MODEL_PREFIX" default:""`
	FeatureCache      string        `envconfig:"MELT_FEATURE_CACHE" default:"memory"`
	FeatureCacheTTL   time.Duration `envconfig:"MELT_FEATURE_CACHE_TTL" default:"24h"`
	RestAPIActive     bool          `envconfig:"MELT_REST_API_ACTIVE" default:"true"`
	RestAPIPort       string        `envconfig:"MELT_REST_API_PORT" default:"10000"`
	WorkerActive      bool          `envconfig:"MELT_WORKER_ACTIVE" default:"false"`
}

const (
	modelFetchMaxRetries = 5

	featureCacheDB     redis.DB = 3
	featureCachePrefix          = "melt:features:"
)

func main() {
	logger.SetupLogging()
	log := logger.NewLogger("Main")
	fatalErrLogger := log.Fatal().Caller()

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fatalErrLogger.Err(err).Msg("Failed to read environment")
		os.Exit(1)
	}

	if config.S3ModelPrefix != "" {
		if err := fetchModel(config); err != nil {
			log.Fatal().Err(err).Str("prefix", config.S3ModelPrefix).Msg("Could not fetch model from S3")
			os.Exit(1)
		}
	}

	cache, closeCache, err := newFeatureCache(config)
	if err != nil {
		log.Fatal().Err(err).Str("feature_cache", config.FeatureCache).Msg("Could not create feature cache")
		os.Exit(1)
	}
	defer closeCache()

	tagger, taggerConfig, err := pipeline.LoadTagger(pipeline.TaggingParams{
		ModelDir:          config.ModelDir,
		LexiconPath:       config.LexiconPath,
		TagDictionaryPath: config.TagDictionaryPath,
		ConfigPath:        config.ConfigPath,
	}, cache)
	if err != nil {
		if errors.Is(err, types.ErrFatalConfig) {
			log.Fatal().Err(err).Msg("Invalid tagger resources, refusing to start")
		} else {
			log.Fatal().Err(err).Msg("Could not load tagger")
		}
		os.Exit(1)
	}
	log.Info().Interface("config", taggerConfig).Msg("Tagger ready")

	ppln := pipeline.DefaultTagging(tagger, pipeline.NewMetrics(prometheus.DefaultRegisterer))

	if !config.RestAPIActive && !config.WorkerActive {
		log.Fatal().Msg("Neither the REST API nor the worker is enabled")
		os.Exit(1)
	}

	if config.RestAPIActive {
		serve := func() {
			host := fmt.Sprintf(":%s", config.RestAPIPort)
			log.Info().Msgf("REST API on %s", host)
			err := http.ListenAndServe(host, api.NewMux(ppln, prometheus.DefaultGatherer))
			fatalErrLogger.Err(err).Msg("REST API stopped with error")
			os.Exit(1)
		}
		if !config.WorkerActive {
			serve()
			return
		}
		go serve()
	}

	log.Info().Msg("Start MElt Worker")
	for {
		rmqWorker, err := worker.New(ppln)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not initialize RMQ worker")
			os.Exit(1)
		}
		if err = rmqWorker.StartWorker(); err != nil {
			log.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
			time.Sleep(5 * time.Second)
		}
	}
}

func fetchModel(config Config) error {
	log := logger.NewLogger("Model fetcher").With().Str("prefix", config.S3ModelPrefix).Logger()
	var err error
	for retry := 0; retry < modelFetchMaxRetries; retry++ {
		var client *s3client.Client
		client, err = s3client.New()
		if err == nil {
			_, err = client.DownloadDir(context.Background(), config.S3ModelPrefix, config.ModelDir)
			if err == nil {
				return nil
			}
		}
		log.Err(err).Msg("Failed to fetch model. Retrying in 5 sec")
		time.Sleep(5 * time.Second)
	}
	return err
}

func newFeatureCache(config Config) (features.Cache, func(), error) {
	switch config.FeatureCache {
	case "none":
		return features.NopCache{}, func() {}, nil
	case "memory":
		return features.NewMemoryCache(), func() {}, nil
	case "redis":
		client, err := redis.NewClient(featureCacheDB)
		if err != nil {
			return nil, nil, err
		}
		// entries are keyed by extractor fingerprint below this prefix
		return features.NewRedisCache(&client, featureCachePrefix, config.FeatureCacheTTL), func() { _ = client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown feature cache %q, expected none, memory or redis", config.FeatureCache)
}
