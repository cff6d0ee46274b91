// Package cache stores rendered HTTP responses and evicts them by tag after
// the data they were built from changes.
package cache

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
	"github.com/viccon/sturdyc"
)

// Entry is a cached response.
type Entry struct {
	Status int
	Header http.Header
	Body   []byte
}

// OutputCache keeps responses in a sturdyc client and indexes their keys by
// tag so a whole family of responses can be dropped at once.
type OutputCache struct {
	client      *sturdyc.Client[Entry]
	tags        *xsync.MapOf[string, *xsync.MapOf[string, struct{}]]
	generations *xsync.MapOf[string, uint64]
	logger      zerolog.Logger
}

// New builds an OutputCache from cfg.
func New(cfg Config, logger zerolog.Logger) (*OutputCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[Entry](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.options()...,
	)

	return &OutputCache{
		client:      client,
		tags:        xsync.NewMapOf[string, *xsync.MapOf[string, struct{}]](),
		generations: xsync.NewMapOf[string, uint64](),
		logger:      logger.With().Str("component", "output_cache").Logger(),
	}, nil
}

// Key hashes the parts into a compact cache key.
func Key(parts ...string) string {
	d := xxhash.New()
	for _, p := range parts {
		_, _ = d.WriteString(p)
		_, _ = d.Write([]byte{0})
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// Get returns the cached entry for key.
func (c *OutputCache) Get(key string) (Entry, bool) {
	return c.client.Get(key)
}

// Set stores entry under key and registers it with every tag.
func (c *OutputCache) Set(key string, entry Entry, tags ...string) {
	for _, tag := range tags {
		keys, _ := c.tags.LoadOrCompute(tag, func() *xsync.MapOf[string, struct{}] {
			return xsync.NewMapOf[string, struct{}]()
		})
		keys.Store(key, struct{}{})
	}
	c.client.Set(key, entry)
}

// setIfCurrent stores entry only when no eviction of tag happened since
// generation was observed. The check and the store share the generation
// entry's lock with EvictByTag, so an eviction lands wholly before or after.
func (c *OutputCache) setIfCurrent(key string, entry Entry, tag string, generation uint64) bool {
	stored := false
	c.generations.Compute(tag, func(current uint64, _ bool) (uint64, bool) {
		if current == generation {
			c.Set(key, entry, tag)
			stored = true
		}
		return current, false
	})
	return stored
}

func (c *OutputCache) generation(tag string) uint64 {
	gen, _ := c.generations.Load(tag)
	return gen
}

// EvictByTag removes every entry registered with tag. It runs in process and
// completes even when ctx is already done.
func (c *OutputCache) EvictByTag(_ context.Context, tag string) error {
	c.generations.Compute(tag, func(old uint64, _ bool) (uint64, bool) {
		return old + 1, false
	})

	keys, ok := c.tags.LoadAndDelete(tag)
	if !ok {
		return nil
	}

	evicted := 0
	keys.Range(func(key string, _ struct{}) bool {
		c.client.Delete(key)
		evicted++
		return true
	})

	c.logger.Debug().Str("tag", tag).Int("evicted", evicted).Msg("evicted cached responses")
	return nil
}

// Len reports the number of cached entries.
func (c *OutputCache) Len() int {
	return c.client.Size()
}
