package tcache

import (
	"time"

	"go.uber.org/zap"
)

// Default policy durations (spec defaults).
const (
	DefaultValid         = 6 * time.Hour
	DefaultCheckInterval = 30 * time.Minute
	DefaultSaveInterval  = 3 * time.Minute
)

// LoadFunc fetches k from the backing store. ok=false means the store does
// not have k either; Map/MapMut on such a key panics (see ErrNotLoaded).
type LoadFunc[K comparable, V any] func(k K) (v V, ok bool)

// SaveFunc persists (k, v) to the backing store. It must return true iff
// the write is durable; false leaves the entry dirty for a later DoCheck.
type SaveFunc[K comparable, V any] func(k K, v V) (durable bool)

// Metrics exposes TCache-level observability hooks. A NoopMetrics
// implementation is used when none is supplied.
type Metrics interface {
	Loaded()
	Dirtied()
	Saved()
	SaveFailed()
	Evicted()
}

// NoopMetrics discards every signal; it is the default.
type NoopMetrics struct{}

func (NoopMetrics) Loaded()     {}
func (NoopMetrics) Dirtied()    {}
func (NoopMetrics) Saved()      {}
func (NoopMetrics) SaveFailed() {}
func (NoopMetrics) Evicted()    {}

// config bundles the knobs New accepts. It is unexported; callers can only
// reach it through Option, the way smap.options and Voskan-arena-cache's
// config[K,V] both hide their struct behind functional options.
type config[K comparable, V any] struct {
	load LoadFunc[K, V]
	save SaveFunc[K, V]

	valid         time.Duration
	checkInterval time.Duration
	saveInterval  time.Duration

	shards    uint
	useShards bool

	metrics Metrics
	logger  *zap.Logger
}

// Option configures a TCache at construction time.
type Option[K comparable, V any] func(*config[K, V])

func defaultConfig[K comparable, V any](load LoadFunc[K, V], save SaveFunc[K, V]) config[K, V] {
	return config[K, V]{
		load:          load,
		save:          save,
		valid:         DefaultValid,
		checkInterval: DefaultCheckInterval,
		saveInterval:  DefaultSaveInterval,
		metrics:       NoopMetrics{},
		logger:        zap.NewNop(),
	}
}

// WithValid overrides how long a clean entry may sit before DoCheck evicts
// it.
func WithValid[K comparable, V any](d time.Duration) Option[K, V] {
	return func(c *config[K, V]) {
		if d > 0 {
			c.valid = d
		}
	}
}

// WithCheckInterval overrides how often DoCheck is willing to run the
// eviction pass.
func WithCheckInterval[K comparable, V any](d time.Duration) Option[K, V] {
	return func(c *config[K, V]) {
		if d > 0 {
			c.checkInterval = d
		}
	}
}

// WithSaveInterval overrides how often DoCheck is willing to run the save
// pass.
func WithSaveInterval[K comparable, V any](d time.Duration) Option[K, V] {
	return func(c *config[K, V]) {
		if d > 0 {
			c.saveInterval = d
		}
	}
}

// WithShards pins the underlying SMap to 2^k shards instead of the
// default (smallest k with 2^k >= 8*logical_cpu_count).
func WithShards[K comparable, V any](k uint) Option[K, V] {
	return func(c *config[K, V]) {
		c.shards = k
		c.useShards = true
	}
}

// WithMetrics plugs an observability sink (see metrics/prom for a
// Prometheus-backed one).
func WithMetrics[K comparable, V any](m Metrics) Option[K, V] {
	return func(c *config[K, V]) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithLogger plugs a zap.Logger. TCache only logs save failures surfaced
// from DoCheck; it never logs on the Map/MapMut hot path.
func WithLogger[K comparable, V any](l *zap.Logger) Option[K, V] {
	return func(c *config[K, V]) {
		if l != nil {
			c.logger = l
		}
	}
}
