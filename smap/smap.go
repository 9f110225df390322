package smap

import (
	"time"

	"github.com/nsavostin/ccl/internal/hash"
	"github.com/nsavostin/ccl/internal/util"
)

// SMap is a sharded, generic, concurrent key/value map. See the package
// doc comment for the concurrency model.
type SMap[K comparable, V any] struct {
	shards []*shard[K, V]
	k      uint
	shift  uint
	nonce  uint64
	opt    options[K, V]
}

// New constructs an SMap with 2^k shards. It panics if k is too large to
// represent a power-of-two shard count as a signed machine word (k must be
// in [0, ptrBits-1]) — a programmer error, per the fatal/panic error class.
func New[K comparable, V any](k uint, opts ...Option[K, V]) *SMap[K, V] {
	return newSMap[K, V](k, 0, opts)
}

// WithCapacity constructs an SMap with 2^k shards, pre-sizing each shard to
// roughly capacity/2^k entries.
func WithCapacity[K comparable, V any](k uint, capacity int, opts ...Option[K, V]) *SMap[K, V] {
	return newSMap[K, V](k, capacity, opts)
}

// Default constructs an SMap choosing the smallest k such that
// 2^k >= 8*logical_cpu_count.
func Default[K comparable, V any](opts ...Option[K, V]) *SMap[K, V] {
	return newSMap[K, V](util.DefaultShardLog2(), 0, opts)
}

func newSMap[K comparable, V any](k uint, capacity int, opts []Option[K, V]) *SMap[K, V] {
	ptrBits := util.PtrBits()
	if k > ptrBits-1 {
		panic("smap: k too large to represent a power-of-two shard count as a signed machine word")
	}
	o := defaultOptions[K, V]()
	for _, opt := range opts {
		opt(&o)
	}
	if o.hasher == nil {
		o.hasher = hash.Seeded[K]
	}

	n := 1 << k
	if !util.IsPowerOfTwo(uint64(n)) {
		panic("smap: shard count is not a power of two")
	}
	perShardCap := 0
	if capacity > 0 {
		perShardCap = (capacity + n - 1) / n
	}
	shards := make([]*shard[K, V], n)
	for i := range shards {
		shards[i] = newShard[K, V](perShardCap)
	}

	return &SMap[K, V]{
		shards: shards,
		k:      k,
		shift:  ptrBits - k,
		nonce:  hash.NewNonce(),
		opt:    o,
	}
}

// shardFor returns the shard owning key k: the top k bits of the keyed hash
// of (nonce, k), taken as a machine word (on 32-bit platforms the hash is
// truncated to its low 32 bits first).
func (s *SMap[K, V]) shardFor(k K) *shard[K, V] {
	h := s.opt.hasher(s.nonce, k)
	idx := uint(h) >> s.shift
	return s.shards[idx]
}

// ChunksCount returns the number of shards (2^k).
func (s *SMap[K, V]) ChunksCount() int { return len(s.shards) }

// Insert places (k, v) in its shard, replacing any prior value for k.
func (s *SMap[K, V]) Insert(k K, v V) {
	s.shardFor(k).insert(k, v)
	s.opt.metrics.Insert()
}

// Get returns a shared guarded reference if k maps to an existing entry.
func (s *SMap[K, V]) Get(k K) (*SharedRef[K, V], bool) {
	ref, ok := s.shardFor(k).get(k)
	s.recordHitMiss(ok)
	return ref, ok
}

// TryGet is the non-blocking form of Get: ErrWouldBlock if the shard read
// lock cannot be taken now, ErrInvalidKey if the key is absent.
func (s *SMap[K, V]) TryGet(k K) (*SharedRef[K, V], error) {
	ref, err := s.shardFor(k).tryGet(k)
	s.recordHitMiss(err == nil)
	return ref, err
}

// TryGetWithTimeout waits up to d for the shard read lock; ErrDidNotResolve
// if it does not resolve in time.
func (s *SMap[K, V]) TryGetWithTimeout(k K, d time.Duration) (*SharedRef[K, V], error) {
	ref, err := s.shardFor(k).tryGetWithTimeout(k, d)
	s.recordHitMiss(err == nil)
	return ref, err
}

// GetMut returns a unique guarded reference, logically upgrading the shard
// lock to write mode; concurrent Get/GetMut calls on the same shard block.
func (s *SMap[K, V]) GetMut(k K) (*UniqueRef[K, V], bool) {
	ref, ok := s.shardFor(k).getMut(k)
	s.recordHitMiss(ok)
	return ref, ok
}

// TryGetMut is the non-blocking form of GetMut.
func (s *SMap[K, V]) TryGetMut(k K) (*UniqueRef[K, V], error) {
	ref, err := s.shardFor(k).tryGetMut(k)
	s.recordHitMiss(err == nil)
	return ref, err
}

// TryGetMutWithTimeout waits up to d for the shard write lock.
func (s *SMap[K, V]) TryGetMutWithTimeout(k K, d time.Duration) (*UniqueRef[K, V], error) {
	ref, err := s.shardFor(k).tryGetMutWithTimeout(k, d)
	s.recordHitMiss(err == nil)
	return ref, err
}

// GetOrInsert returns the existing entry for k, or inserts default and
// returns a unique reference to it. default is only evaluated by the caller
// before the call; it is consumed at most once per missing-key path.
func (s *SMap[K, V]) GetOrInsert(k K, def V) *EitherRef[K, V] {
	return s.shardFor(k).getOrInsert(k, func() V { return def })
}

// GetOrInsertWith is as GetOrInsert, but f is only invoked if k is absent,
// under the shard write lock.
func (s *SMap[K, V]) GetOrInsertWith(k K, f func() V) *EitherRef[K, V] {
	return s.shardFor(k).getOrInsert(k, f)
}

// ContainsKey reports whether k is present.
func (s *SMap[K, V]) ContainsKey(k K) bool {
	return s.shardFor(k).containsKey(k)
}

// Remove deletes k if present and returns its (value, true); (zero, false)
// otherwise.
func (s *SMap[K, V]) Remove(k K) (V, bool) {
	v, ok := s.shardFor(k).remove(k)
	if ok {
		s.opt.metrics.Remove()
	}
	return v, ok
}

// Index is a fatal shortcut for Get followed by an unwrap: it panics if k
// is absent.
func (s *SMap[K, V]) Index(k K) *SharedRef[K, V] {
	ref, ok := s.Get(k)
	if !ok {
		panic("smap: Index called with an absent key")
	}
	return ref
}

// IndexMut is the GetMut counterpart of Index.
func (s *SMap[K, V]) IndexMut(k K) *UniqueRef[K, V] {
	ref, ok := s.GetMut(k)
	if !ok {
		panic("smap: IndexMut called with an absent key")
	}
	return ref
}

// Len returns the sum of shard sizes. Not a consistent snapshot under
// concurrent mutation.
func (s *SMap[K, V]) Len() int {
	total := 0
	for _, sh := range s.shards {
		total += sh.len()
	}
	return total
}

// IsEmpty reports whether Len() == 0.
func (s *SMap[K, V]) IsEmpty() bool { return s.Len() == 0 }

// Retain write-locks each shard in shard-index order and keeps only entries
// for which pred returns true.
func (s *SMap[K, V]) Retain(pred func(K, *V) bool) {
	for _, sh := range s.shards {
		sh.retain(pred)
	}
}

// Clear write-locks each shard in shard-index order and empties it.
func (s *SMap[K, V]) Clear() {
	for _, sh := range s.shards {
		sh.clear()
	}
}

// Alter write-locks each shard in shard-index order and applies f to every
// entry.
func (s *SMap[K, V]) Alter(f func(K, *V)) {
	for _, sh := range s.shards {
		sh.alter(f)
	}
}

func (s *SMap[K, V]) recordHitMiss(hit bool) {
	if hit {
		s.opt.metrics.Hit()
	} else {
		s.opt.metrics.Miss()
	}
}
