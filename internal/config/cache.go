package config

import "time"

// CacheConfig controls the Redis response cache wrapped around the public
// menu endpoint. Only GET responses are cached. MaxBodyBytes bounds the
// size of cached payloads; menus with embedded images can be large.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads response cache settings from the environment.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 4<<20),
	}
}
