package features

import (
	"sync"
	"text2phenotype.com/melt/utils"
)

// Cache stores the word identity and affix features of a word form. Entries are never
// invalidated; storing the same word twice stores the same value.
type Cache interface {
	Get(word string) ([]string, bool)
	Put(word string, features []string)
}

type NopCache struct{}

func (NopCache) Get(string) ([]string, bool) { return nil, false }

func (NopCache) Put(string, []string) {}

const memoryCacheShards = 32

// MemoryCache is a process wide cache safe for concurrent decoders. Words are spread over
// shards by their murmur3 hash.
type MemoryCache struct {
	shards [memoryCacheShards]cacheShard
}

type cacheShard struct {
	sync.RWMutex
	items map[string][]string
}

func NewMemoryCache() *MemoryCache {
	cache := &MemoryCache{}
	for i := range cache.shards {
		cache.shards[i].items = make(map[string][]string)
	}
	return cache
}

func (cache *MemoryCache) shard(word string) *cacheShard {
	return &cache.shards[utils.HashString(word)%memoryCacheShards]
}

func (cache *MemoryCache) Get(word string) ([]string, bool) {
	shard := cache.shard(word)
	shard.RLock()
	defer shard.RUnlock()
	features, ok := shard.items[word]
	return features, ok
}

func (cache *MemoryCache) Put(word string, features []string) {
	shard := cache.shard(word)
	shard.Lock()
	shard.items[word] = features
	shard.Unlock()
}

func (cache *MemoryCache) Len() int {
	n := 0
	for i := range cache.shards {
		cache.shards[i].RLock()
		n += len(cache.shards[i].items)
		cache.shards[i].RUnlock()
	}
	return n
}

// scopedCache keys the words of a shared cache by an extractor fingerprint. Extractors with
// different options or lexicons never read each other's entries.
type scopedCache struct {
	cache Cache
	scope string
}

func (c scopedCache) key(word string) string {
	return c.scope + ":" + word
}

func (c scopedCache) Get(word string) ([]string, bool) {
	return c.cache.Get(c.key(word))
}

func (c scopedCache) Put(word string, features []string) {
	c.cache.Put(c.key(word), features)
}
