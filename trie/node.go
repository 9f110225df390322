package trie

import (
	"sync/atomic"

	"github.com/nsavostin/ccl/internal/hash"
	"github.com/nsavostin/ccl/internal/slab"
)

// tableWidth is T in spec terms: the fixed fan-out of a branch.
const tableWidth = 32

type bucketKind uint8

const (
	kindLeaf bucketKind = iota
	kindBranch
)

// bucket is a trie node: either a leaf (key/value) or a branch (nested
// table). The discriminator lives with the node so both variants are
// interchangeable behind a single CAS-switchable pointer, per the design
// notes on trie node pointer semantics.
type bucket[K comparable, V any] struct {
	kind   bucketKind
	key    K
	value  V
	branch *table[K, V]
	handle slab.Handle[bucket[K, V]]
}

// table is a branch: a fixed-size array of atomic child slots plus a
// per-branch random salt. The zero value of each slot is an explicitly nil
// atomic.Pointer — never an unsafe-zeroed array, per the open-question
// decision on mem::zeroed() arrays.
type table[K comparable, V any] struct {
	salt  uint64
	slots [tableWidth]atomic.Pointer[bucket[K, V]]
}

// slotIndex computes the branch slot for key under this branch's salt:
// hash(salt ‖ key) mod T, per spec §4.3. Each branch draws its own salt at
// construction so recursion re-hashes the key freshly at every level.
func slotIndex[K comparable](salt uint64, key K) int {
	return int(hash.Seeded(salt, key) % tableWidth)
}
