package tcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nsavostin/ccl/smap"
)

// entry is the value TCache actually stores in its underlying SMap: the
// caller's value plus the bookkeeping DoCheck needs. clean=true iff the
// backing store reflects value; insertedAt records when this entry was
// loaded (MapMut does not update it), per spec's TCache entry invariants.
type entry[V any] struct {
	value      V
	insertedAt time.Time
	clean      bool
}

// guardedTime is a mutex-protected timestamp, held only long enough to
// read or update it — never across a shard lock or external I/O, per the
// spec's "TCache timestamps are held under short-held mutexes released
// before any shard lock is acquired".
type guardedTime struct {
	mu sync.Mutex
	t  time.Time
}

func (g *guardedTime) get() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.t
}

func (g *guardedTime) set(t time.Time) {
	g.mu.Lock()
	g.t = t
	g.mu.Unlock()
}

// TCache is a write-back cache over an external key-addressed store,
// layered on smap.SMap for storage, locking, and addressing.
type TCache[K comparable, V any] struct {
	cfg  config[K, V]
	data *smap.SMap[K, entry[V]]

	loads      loadGroup[K]
	lastSaved  guardedTime
	lastPurged guardedTime
}

// New constructs a TCache backed by load/save. See WithValid,
// WithCheckInterval, WithSaveInterval, WithShards, WithMetrics, WithLogger
// for the tunable knobs; unset ones take the spec's defaults.
func New[K comparable, V any](load LoadFunc[K, V], save SaveFunc[K, V], opts ...Option[K, V]) *TCache[K, V] {
	cfg := defaultConfig(load, save)
	for _, o := range opts {
		o(&cfg)
	}

	var data *smap.SMap[K, entry[V]]
	if cfg.useShards {
		data = smap.New[K, entry[V]](cfg.shards)
	} else {
		data = smap.Default[K, entry[V]]()
	}

	now := time.Now()
	c := &TCache[K, V]{cfg: cfg, data: data}
	c.lastSaved.set(now)
	c.lastPurged.set(now)
	return c
}

// ensureLoaded guarantees k is present in data, loading it from the
// backing store on first touch. Concurrent first-touches of the same key
// are coalesced through loads so only one Load call is issued (the "TCache
// race on load" design note: a goroutine that becomes leader after an
// earlier load finished re-checks ContainsKey, observes the insert and does
// not reload).
func (c *TCache[K, V]) ensureLoaded(k K) {
	if c.data.ContainsKey(k) {
		return
	}
	c.loads.Do(k, func() {
		if c.data.ContainsKey(k) {
			return
		}
		v, ok := c.cfg.load(k)
		if !ok {
			// Not found in the backing store: leave the map unchanged. The
			// calling Map/MapMut then finds the key absent and panics per
			// the spec's failed-load contract.
			return
		}
		c.cfg.metrics.Loaded()
		ref := c.data.GetOrInsertWith(k, func() entry[V] {
			return entry[V]{value: v, insertedAt: time.Now(), clean: true}
		})
		ref.Release()
	})
}

// Map ensures k is loaded, then applies f to a read-only view of its
// value under the owning shard's read lock. Panics if the backing store
// reports k as not-found (ErrNotLoaded), per the spec's "load may fail"
// contract: a failed load leaves the map unchanged, and it is the
// caller's responsibility to have verified the key exists before calling
// Map/MapMut on it.
func (c *TCache[K, V]) Map(k K, f func(v V)) {
	c.ensureLoaded(k)
	ref, ok := c.data.Get(k)
	if !ok {
		panic(fmt.Sprintf("tcache: %v: %v", k, ErrNotLoaded))
	}
	defer ref.Release()
	f(ref.Value().value)
}

// MapMut ensures k is loaded, then applies f to a writable view of its
// value under the owning shard's write lock and marks the entry dirty.
// Panics under the same conditions as Map.
func (c *TCache[K, V]) MapMut(k K, f func(v *V)) {
	c.ensureLoaded(k)
	ref, ok := c.data.GetMut(k)
	if !ok {
		panic(fmt.Sprintf("tcache: %v: %v", k, ErrNotLoaded))
	}
	defer ref.Release()
	e := ref.Value()
	f(&e.value)
	e.clean = false
	c.cfg.metrics.Dirtied()
}

// Warm concurrently ensures every key in keys is loaded, using an
// errgroup-bounded fan-out. It is additive to the spec's map/map_mut/
// do_check surface: a bulk prefetch entry point for callers that know
// their working set up front.
func (c *TCache[K, V]) Warm(ctx context.Context, keys []K) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, k := range keys {
		k := k
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.ensureLoaded(k)
			return nil
		})
	}
	return g.Wait()
}

// DoCheck runs the save and eviction passes if their respective intervals
// have elapsed. The host drives the cadence (a ticker, a request hook,
// whatever fits); DoCheck itself never schedules its own timer.
func (c *TCache[K, V]) DoCheck() {
	now := time.Now()

	if now.Sub(c.lastSaved.get()) > c.cfg.saveInterval {
		c.savePass()
		c.lastSaved.set(now)
	}

	if now.Sub(c.lastPurged.get()) > c.cfg.checkInterval {
		c.evictPass(now)
		c.lastPurged.set(now)
	}
}

// savePass write-locks every shard in turn and saves each dirty entry,
// clearing its dirty bit only after save reports success. A dirty bit is
// only cleared after save returned true and before the shard lock drops,
// per the spec's policy invariant.
func (c *TCache[K, V]) savePass() {
	c.data.Alter(func(k K, e *entry[V]) {
		if e.clean {
			return
		}
		if c.cfg.save(k, e.value) {
			e.clean = true
			c.cfg.metrics.Saved()
		} else {
			c.cfg.metrics.SaveFailed()
			c.cfg.logger.Warn("tcache: save did not report durable; entry remains dirty",
				zap.Any("key", k))
		}
	})
}

// evictPass drops every clean entry older than the validity window. A
// dirty entry is never evicted regardless of age.
func (c *TCache[K, V]) evictPass(now time.Time) {
	evicted := 0
	c.data.Retain(func(_ K, e *entry[V]) bool {
		expired := now.Sub(e.insertedAt) > c.cfg.valid
		if expired && e.clean {
			evicted++
			return false
		}
		return true
	})
	for i := 0; i < evicted; i++ {
		c.cfg.metrics.Evicted()
	}
}

// Len returns the number of entries currently cached (loaded or written,
// not yet evicted). Not a consistent snapshot under concurrent mutation.
func (c *TCache[K, V]) Len() int { return c.data.Len() }
