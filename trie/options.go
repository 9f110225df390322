package trie

import "go.uber.org/zap"

// Metrics exposes Trie-level observability hooks: insert/remove traffic
// and how often a leaf collision forced a new branch to be spliced in.
// A NoopMetrics implementation is used when none is supplied.
type Metrics interface {
	Insert()
	Remove()
	Collision()
}

// NoopMetrics discards every signal; it is the default.
type NoopMetrics struct{}

func (NoopMetrics) Insert()    {}
func (NoopMetrics) Remove()    {}
func (NoopMetrics) Collision() {}

// Option configures a Trie at construction time.
type Option[K comparable, V any] func(*options[K, V])

type options[K comparable, V any] struct {
	metrics Metrics
	logger  *zap.Logger
}

func defaultOptions[K comparable, V any]() options[K, V] {
	return options[K, V]{metrics: NoopMetrics{}, logger: zap.NewNop()}
}

// WithMetrics plugs an observability sink (see metrics/prom for a
// Prometheus-backed one).
func WithMetrics[K comparable, V any](m Metrics) Option[K, V] {
	return func(o *options[K, V]) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithLogger plugs a zap.Logger, used only to report a fatal collision
// before the panic that follows it.
func WithLogger[K comparable, V any](l *zap.Logger) Option[K, V] {
	return func(o *options[K, V]) {
		if l != nil {
			o.logger = l
		}
	}
}
