package smap

import (
	"iter"
	"sync"
	"sync/atomic"
)

// shardReadGuard is a reference-counted hold on a shard's read lock, shared
// across every IterRef yielded while that shard was current. The lock is
// released once both the iterator has moved past the shard and every
// yielded IterRef into it has been released, mirroring the teacher's
// "clone the guard into each yielded ref" iterator design.
type shardReadGuard struct {
	mu   *sync.RWMutex
	refs atomic.Int32
}

func (g *shardReadGuard) retain() { g.refs.Add(1) }

func (g *shardReadGuard) release() {
	if g.refs.Add(-1) == 0 {
		g.mu.RUnlock()
	}
}

// IterRef is a shared reference yielded by SMap.Iter. Release must be
// called when the caller is done with it.
type IterRef[K comparable, V any] struct {
	guard    *shardReadGuard
	key      K
	ptr      *V
	released bool
}

// Key returns the entry's key.
func (r *IterRef[K, V]) Key() K { return r.key }

// Value returns a pointer to the entry's value, valid until Release.
func (r *IterRef[K, V]) Value() *V { return r.ptr }

// Release drops this reference's share of the owning shard's read lock.
func (r *IterRef[K, V]) Release() {
	if r.released {
		return
	}
	r.released = true
	r.guard.release()
}

// Iter returns a lazy, restartable sequence of shared guarded references.
// It visits shards in fixed index order; for each it takes a read lock,
// walks the underlying map's native (unspecified) order, and releases the
// lock once every IterRef into that shard (including the iterator's own
// hold, released when the shard is exhausted) has been released.
//
// The sequence is finite: it terminates after visiting every shard present
// at the time Iter was called. It is not meant to be shared across
// goroutines — shard guards tie it to the creating goroutine.
func (s *SMap[K, V]) Iter() iter.Seq[*IterRef[K, V]] {
	return func(yield func(*IterRef[K, V]) bool) {
		for _, sh := range s.shards {
			sh.mu.RLock()
			guard := &shardReadGuard{mu: &sh.mu}
			guard.retain() // the iterator's own hold on this shard

			stop := false
			for k, v := range sh.m {
				guard.retain()
				ref := &IterRef[K, V]{guard: guard, key: k, ptr: v}
				if !yield(ref) {
					stop = true
					break
				}
			}
			guard.release() // drop the iterator's own hold
			if stop {
				return
			}
		}
	}
}

// Chunk is a read-only view over one shard's resident entries.
type Chunk[K comparable, V any] struct {
	sh *shard[K, V]
}

// Each iterates the shard's entries while its read lock is held.
func (c *Chunk[K, V]) Each(yield func(K, *V) bool) {
	for k, v := range c.sh.m {
		if !yield(k, v) {
			return
		}
	}
}

// Len returns the number of entries resident in this shard.
func (c *Chunk[K, V]) Len() int { return len(c.sh.m) }

// Release drops the shard's read lock.
func (c *Chunk[K, V]) Release() { c.sh.mu.RUnlock() }

// Chunks yields one read-locked Chunk per shard in index order. The caller
// must call Release on each Chunk before the sequence advances to the next
// (the next shard is not locked until the caller resumes the generator).
func (s *SMap[K, V]) Chunks() iter.Seq[*Chunk[K, V]] {
	return func(yield func(*Chunk[K, V]) bool) {
		for _, sh := range s.shards {
			sh.mu.RLock()
			if !yield(&Chunk[K, V]{sh: sh}) {
				return
			}
		}
	}
}

// ChunkMut is a read-write view over one shard's resident entries.
type ChunkMut[K comparable, V any] struct {
	sh *shard[K, V]
}

// Each iterates the shard's entries, mutable, while its write lock is held.
func (c *ChunkMut[K, V]) Each(yield func(K, *V) bool) {
	for k, v := range c.sh.m {
		if !yield(k, v) {
			return
		}
	}
}

// Len returns the number of entries resident in this shard.
func (c *ChunkMut[K, V]) Len() int { return len(c.sh.m) }

// Release drops the shard's write lock.
func (c *ChunkMut[K, V]) Release() { c.sh.mu.Unlock() }

// ChunksWrite yields one write-locked ChunkMut per shard in index order.
func (s *SMap[K, V]) ChunksWrite() iter.Seq[*ChunkMut[K, V]] {
	return func(yield func(*ChunkMut[K, V]) bool) {
		for _, sh := range s.shards {
			sh.mu.Lock()
			if !yield(&ChunkMut[K, V]{sh: sh}) {
				return
			}
		}
	}
}
