package cache

import (
	"fmt"
	"time"

	"github.com/viccon/sturdyc"
)

// Config holds the settings for the sturdyc client backing the cache.
type Config struct {
	// Capacity is the maximum number of cached responses.
	Capacity int
	// NumShards splits the cache for concurrent access.
	NumShards int
	// TTL bounds how long a response may be served without an eviction.
	TTL time.Duration
	// EvictionPercentage is the share of entries dropped when full, 1-100.
	EvictionPercentage int
	// EvictionInterval is how often expired entries are swept. Zero keeps the
	// sturdyc default.
	EvictionInterval time.Duration
}

// DefaultConfig returns settings suited to a single API instance.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          64,
		TTL:                time.Minute,
		EvictionPercentage: 10,
	}
}

// Validate checks the configuration before it reaches sturdyc, which panics
// on invalid values.
func (c Config) Validate() error {
	switch {
	case c.Capacity <= 0:
		return fmt.Errorf("cache capacity must be greater than 0")
	case c.NumShards <= 0:
		return fmt.Errorf("cache shards must be greater than 0")
	case c.NumShards > c.Capacity:
		return fmt.Errorf("cache shards must not exceed capacity")
	case c.TTL <= 0:
		return fmt.Errorf("cache ttl must be greater than 0")
	case c.EvictionPercentage < 1 || c.EvictionPercentage > 100:
		return fmt.Errorf("cache eviction percentage must be between 1 and 100")
	}
	return nil
}

func (c Config) options() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}
