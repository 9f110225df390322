// Package trie implements Trie, an experimental lock-free nested hash
// table. Each branch holds T=32 atomic child slots; a slot is null, a leaf
// (key/value), or another branch. Descent re-hashes the key under the
// current branch's random salt to pick a slot, so two keys colliding at one
// level almost never collide at the next.
//
// Memory reclamation is epoch-based (internal/epoch): a reader pins the
// current epoch for the duration of a lookup, and an unlink (replace or
// remove) defers the freed node's slab slot (internal/slab) until no pin
// older than the unlink remains outstanding. Branches are never collapsed
// back into leaves after a remove — an explicit non-goal.
//
// Slots are changed only by compare-and-swap, and contended inserts retry
// the compare-and-swap at the owning slot. Each operation still takes short
// internal mutexes: the epoch reclaimer's on Pin, Unpin and Defer, and a
// slab pool's on allocation and deallocation.
package trie
