package aspects

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/on-the-ground/aspect_ive_go/aspects/log"
)

// DeferredMode selects the scheduler behind the async aspect.
type DeferredMode string

const (
	// DeferredLoop runs deferred calls only when the loop is pumped, after the
	// caller's current turn has finished.
	DeferredLoop DeferredMode = "loop"
	// DeferredQueue runs deferred calls on a background worker. A deferred call
	// may overlap the code that follows its caller.
	DeferredQueue DeferredMode = "queue"
)

const (
	defaultQueueBufferSize = 64
	defaultCacheShards     = 16
)

// DefaultDenylist holds host-provided names that are never decorated.
var DefaultDenylist = []string{"localStorage", "sessionStorage", "caches"}

type Config struct {
	LogLevel        log.LogLevel `env:"ASPECT_LOG_LEVEL"         envDefault:"info"`
	QueueBufferSize int          `env:"ASPECT_QUEUE_BUFFER_SIZE" envDefault:"64"`
	Denylist        []string     `env:"ASPECT_DENYLIST"          envDefault:"localStorage,sessionStorage,caches" envSeparator:","`
	CacheShards     int          `env:"ASPECT_CACHE_SHARDS"      envDefault:"16"`
	// CacheMaxCost bounds every cache store to that many entries. 0 keeps them unbounded.
	CacheMaxCost int64        `env:"ASPECT_CACHE_MAX_COST" envDefault:"0"`
	DeferredMode DeferredMode `env:"ASPECT_DEFERRED_MODE"  envDefault:"loop"`
}

func NewConfig() Config {
	return Config{}.normalize()
}

// ConfigFromEnv reads the ASPECT_* environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.normalize(), nil
}

// normalize fills unset fields with defaults.
// A nil Denylist gets the default one, an empty non-nil Denylist stays empty.
func (c Config) normalize() Config {
	if c.LogLevel == "" {
		c.LogLevel = log.LogInfo
	}
	if c.QueueBufferSize <= 0 {
		c.QueueBufferSize = defaultQueueBufferSize
	}
	if c.Denylist == nil {
		c.Denylist = append([]string(nil), DefaultDenylist...)
	}
	if c.CacheShards <= 0 {
		c.CacheShards = defaultCacheShards
	}
	if c.CacheMaxCost < 0 {
		c.CacheMaxCost = 0
	}
	if c.DeferredMode != DeferredQueue {
		c.DeferredMode = DeferredLoop
	}
	return c
}
