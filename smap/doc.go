// Package smap provides SMap, a sharded, generic, concurrent key/value map.
//
// Design
//
//   - Concurrency: SMap splits its keyspace into 2^k independently locked
//     shards, each guarded by a sync.RWMutex. The shard count is fixed at
//     construction (New/WithCapacity/Default) and never changes; resizing
//     after construction is an explicit non-goal, since it would move the
//     shard boundary an in-flight guarded reference assumes.
//
//   - Addressing: a per-map random nonce is mixed into a keyed 64-bit hash
//     (internal/hash, xxhash-backed) of the key; the top k bits of that hash
//     select the owning shard. The nonce prevents adversarial key
//     clustering against a fixed hash function across deployments.
//
//   - Guarded references: Get/GetMut/GetOrInsert return SharedRef/UniqueRef/
//     EitherRef, each holding the owning shard's read or write lock until
//     Release is called. Go has no destructors, so callers must defer
//     Release() themselves; holding two references into the same shard
//     where one is a UniqueRef will deadlock, by design (see package-level
//     concurrency notes below).
//
//   - Iteration: Iter/Chunks/ChunksWrite are stdlib range-over-func
//     (iter.Seq) generators that lock one shard at a time in index order,
//     in the teacher's "yield references that outlive the loop step via a
//     shared, reference-counted guard" style.
//
// Thread-safety
//
// All SMap methods are safe for concurrent use by multiple goroutines.
// A thread that holds a UniqueRef (or SharedRef) into shard S and then
// requests another reference into S from the same goroutine will deadlock;
// SMap imposes no reentrancy guarantee, matching the upstream design.
package smap
