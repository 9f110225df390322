// Package prom adapts smap.Metrics, trie.Metrics, and tcache.Metrics onto
// Prometheus counters, the way the teacher's cache/metrics/prom adapter
// wires cache.Metrics onto prometheus.CounterVec/Gauge.
package prom

import "github.com/prometheus/client_golang/prometheus"

// SMapAdapter implements smap.Metrics, exporting hit/miss/insert/remove
// counters. Safe for concurrent use; Prometheus metric types are
// goroutine-safe.
type SMapAdapter struct {
	hits    prometheus.Counter
	misses  prometheus.Counter
	inserts prometheus.Counter
	removes prometheus.Counter
}

// NewSMapAdapter constructs a Prometheus adapter for an smap.SMap.
//   - reg:         registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:     Prometheus namespace and subsystem
//   - constLabels: static labels applied to all metrics (may be nil)
func NewSMapAdapter(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *SMapAdapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &SMapAdapter{
		hits:    counter(ns, sub, "hits_total", "SMap get hits", constLabels),
		misses:  counter(ns, sub, "misses_total", "SMap get misses", constLabels),
		inserts: counter(ns, sub, "inserts_total", "SMap inserts", constLabels),
		removes: counter(ns, sub, "removes_total", "SMap removes", constLabels),
	}
	reg.MustRegister(a.hits, a.misses, a.inserts, a.removes)
	return a
}

func (a *SMapAdapter) Hit()    { a.hits.Inc() }
func (a *SMapAdapter) Miss()   { a.misses.Inc() }
func (a *SMapAdapter) Insert() { a.inserts.Inc() }
func (a *SMapAdapter) Remove() { a.removes.Inc() }

// TrieAdapter implements trie.Metrics, exporting insert/remove/collision
// counters; a collision is counted each time two distinct keys sharing a
// slot are promoted into a new branch.
type TrieAdapter struct {
	inserts    prometheus.Counter
	removes    prometheus.Counter
	collisions prometheus.Counter
}

// NewTrieAdapter constructs a Prometheus adapter for a trie.Trie.
func NewTrieAdapter(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *TrieAdapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &TrieAdapter{
		inserts:    counter(ns, sub, "inserts_total", "Trie inserts", constLabels),
		removes:    counter(ns, sub, "removes_total", "Trie removes", constLabels),
		collisions: counter(ns, sub, "collisions_total", "Trie leaf collisions promoted to a branch", constLabels),
	}
	reg.MustRegister(a.inserts, a.removes, a.collisions)
	return a
}

func (a *TrieAdapter) Insert()    { a.inserts.Inc() }
func (a *TrieAdapter) Remove()    { a.removes.Inc() }
func (a *TrieAdapter) Collision() { a.collisions.Inc() }

// TCacheAdapter implements tcache.Metrics, exporting load/dirty/save/evict
// counters for a TCache's backing-store traffic.
type TCacheAdapter struct {
	loaded     prometheus.Counter
	dirtied    prometheus.Counter
	saved      prometheus.Counter
	saveFailed prometheus.Counter
	evicted    prometheus.Counter
}

// NewTCacheAdapter constructs a Prometheus adapter for a tcache.TCache.
func NewTCacheAdapter(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *TCacheAdapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &TCacheAdapter{
		loaded:     counter(ns, sub, "loaded_total", "TCache backing-store loads", constLabels),
		dirtied:    counter(ns, sub, "dirtied_total", "TCache entries marked dirty by MapMut", constLabels),
		saved:      counter(ns, sub, "saved_total", "TCache successful saves", constLabels),
		saveFailed: counter(ns, sub, "save_failed_total", "TCache save attempts that did not report durable", constLabels),
		evicted:    counter(ns, sub, "evicted_total", "TCache entries evicted by DoCheck", constLabels),
	}
	reg.MustRegister(a.loaded, a.dirtied, a.saved, a.saveFailed, a.evicted)
	return a
}

func (a *TCacheAdapter) Loaded()     { a.loaded.Inc() }
func (a *TCacheAdapter) Dirtied()    { a.dirtied.Inc() }
func (a *TCacheAdapter) Saved()      { a.saved.Inc() }
func (a *TCacheAdapter) SaveFailed() { a.saveFailed.Inc() }
func (a *TCacheAdapter) Evicted()    { a.evicted.Inc() }

func counter(ns, sub, name, help string, constLabels prometheus.Labels) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   ns,
		Subsystem:   sub,
		Name:        name,
		Help:        help,
		ConstLabels: constLabels,
	})
}
