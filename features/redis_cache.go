package features

import (
	"context"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"text2phenotype.com/melt/logger"
	"time"
)

// ByteStore is the part of the redis client the shared cache needs. GetBytes returns a nil
// slice and no error for a missing key.
type ByteStore interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache shares word features between tagger processes. Lookups go to an in-process
// MemoryCache first; redis failures are logged and treated as misses.
type RedisCache struct {
	store     ByteStore
	local     *MemoryCache
	keyPrefix string
	ttl       time.Duration
	timeout   time.Duration
	log       zerolog.Logger
}

func NewRedisCache(store ByteStore, keyPrefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		store:     store,
		local:     NewMemoryCache(),
		keyPrefix: keyPrefix,
		ttl:       ttl,
		timeout:   500 * time.Millisecond,
		log:       logger.NewLogger("RedisFeatureCache"),
	}
}

func (cache *RedisCache) key(word string) string {
	return cache.keyPrefix + word
}

func (cache *RedisCache) Get(word string) ([]string, bool) {
	if features, ok := cache.local.Get(word); ok {
		return features, true
	}

	ctx, cancel := context.WithTimeout(context.Background(), cache.timeout)
	defer cancel()
	buf, err := cache.store.GetBytes(ctx, cache.key(word))
	if err != nil {
		cache.log.Warn().Err(err).Str("word", word).Msg("Failed to read word features from redis")
		return nil, false
	}
	if buf == nil {
		return nil, false
	}

	var features []string
	if err := msgpack.Unmarshal(buf, &features); err != nil {
		cache.log.Warn().Err(err).Str("word", word).Msg("Corrupted word features in redis")
		return nil, false
	}
	cache.local.Put(word, features)
	return features, true
}

func (cache *RedisCache) Put(word string, features []string) {
	cache.local.Put(word, features)

	buf, err := msgpack.Marshal(features)
	if err != nil {
		cache.log.Warn().Err(err).Str("word", word).Msg("Failed to encode word features")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cache.timeout)
	defer cancel()
	if err := cache.store.SetBytes(ctx, cache.key(word), buf, cache.ttl); err != nil {
		cache.log.Warn().Err(err).Str("word", word).Msg("Failed to write word features to redis")
	}
}
