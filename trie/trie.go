package trie

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nsavostin/ccl/internal/epoch"
	"github.com/nsavostin/ccl/internal/hash"
	"github.com/nsavostin/ccl/internal/slab"
)

// maxBranchDepth bounds the branch-from-colliding-leaves recursion. Two keys
// that hash equal under every possible salt would otherwise recurse
// unboundedly (spec §9 open question); this is treated as adversarial input
// and reported as a fatal collision rather than looped on forever.
const maxBranchDepth = 48

// Trie is a lock-free nested hash table. See the package doc comment.
type Trie[K comparable, V any] struct {
	root  *table[K, V]
	alloc *slab.Allocator[bucket[K, V]]
	rec   *epoch.Reclaimer
	opt   options[K, V]
}

// New constructs an empty Trie.
func New[K comparable, V any](opts ...Option[K, V]) *Trie[K, V] {
	o := defaultOptions[K, V]()
	for _, opt := range opts {
		opt(&o)
	}
	return &Trie[K, V]{
		root:  newTableNode[K, V](),
		alloc: slab.New[bucket[K, V]](slab.DefaultPools),
		rec:   epoch.New(),
		opt:   o,
	}
}

func newTableNode[K comparable, V any]() *table[K, V] {
	return &table[K, V]{salt: hash.NewNonce()}
}

// Ref is a guarded reference returned by Get: it holds an epoch pin until
// Release is called, keeping the leaf's slab slot from being reused while
// the caller still dereferences it.
type Ref[K comparable, V any] struct {
	guard    *epoch.Guard
	node     *bucket[K, V]
	released bool
}

// Key returns the entry's key.
func (r *Ref[K, V]) Key() K { return r.node.key }

// Value returns the entry's value.
func (r *Ref[K, V]) Value() V { return r.node.value }

// Release drops the epoch pin backing this reference. Safe to call more
// than once.
func (r *Ref[K, V]) Release() {
	if r.released {
		return
	}
	r.released = true
	r.guard.Unpin()
}

func (t *Trie[K, V]) allocLeaf(tag uint64, key K, value V) *bucket[K, V] {
	ptr, h := t.alloc.Alloc(tag)
	ptr.kind = kindLeaf
	ptr.key = key
	ptr.value = value
	ptr.handle = h
	return ptr
}

func (t *Trie[K, V]) allocBranch(tag uint64, tbl *table[K, V]) *bucket[K, V] {
	ptr, h := t.alloc.Alloc(tag)
	ptr.kind = kindBranch
	ptr.branch = tbl
	ptr.handle = h
	return ptr
}

// deferFree schedules node's slab slot to be returned to the allocator once
// no epoch pin older than the unlink remains outstanding.
func (t *Trie[K, V]) deferFree(node *bucket[K, V]) {
	t.rec.Defer(func() {
		t.alloc.Dealloc(node.handle)
	})
}

// Insert links (key, value) into the trie, replacing any prior value for
// key. Two concurrent inserts of the same key linearize at the owning
// slot's CAS; the loser retries and observes either its own value or the
// winner's.
func (t *Trie[K, V]) Insert(key K, value V) {
	guard := t.rec.Pin()
	defer guard.Unpin()

	tag := hash.NewNonce()
	leaf := t.allocLeaf(tag, key, value)
	t.root.insert(t, leaf, tag, 0)
	t.opt.metrics.Insert()
}

func (tb *table[K, V]) insert(t *Trie[K, V], leaf *bucket[K, V], tag uint64, depth int) {
	if depth > maxBranchDepth {
		t.opt.logger.Error("trie: pathological key collision exceeds bound",
			zap.Int("depth", depth), zap.Int("max_branch_depth", maxBranchDepth))
		panic(fmt.Sprintf("trie: pathological key collision exceeds bound (depth > %d)", maxBranchDepth))
	}
	idx := slotIndex(tb.salt, leaf.key)
	slot := &tb.slots[idx]

	for {
		cur := slot.Load()

		if cur == nil {
			if slot.CompareAndSwap(nil, leaf) {
				return
			}
			continue
		}

		if cur.kind == kindBranch {
			cur.branch.insert(t, leaf, tag, depth+1)
			return
		}

		if cur.key == leaf.key {
			if slot.CompareAndSwap(cur, leaf) {
				t.deferFree(cur)
				return
			}
			continue
		}

		// Collision between two distinct leaves: promote both into a new
		// branch whose salt (re-drawn at construction) separates them.
		newTbl := newTableNode[K, V]()
		newTbl.insert(t, cur, tag, depth+1)
		newTbl.insert(t, leaf, tag, depth+1)
		branch := t.allocBranch(tag, newTbl)

		if slot.CompareAndSwap(cur, branch) {
			t.opt.metrics.Collision()
			return
		}
		// Lost the race for this slot: the branch we built was never
		// observable by any reader, so it can be freed immediately rather
		// than deferred.
		t.alloc.Dealloc(branch.handle)
	}
}

// Get returns a guarded reference to key's value if present.
func (t *Trie[K, V]) Get(key K) (*Ref[K, V], bool) {
	guard := t.rec.Pin()
	node := t.root.find(key)
	if node == nil {
		guard.Unpin()
		return nil, false
	}
	return &Ref[K, V]{guard: guard, node: node}, true
}

func (tb *table[K, V]) find(key K) *bucket[K, V] {
	idx := slotIndex(tb.salt, key)
	cur := tb.slots[idx].Load()
	if cur == nil {
		return nil
	}
	if cur.kind == kindBranch {
		return cur.branch.find(key)
	}
	if cur.key == key {
		return cur
	}
	return nil
}

// Remove deletes key if present, returning its value and true. The slot is
// nulled and the old leaf's destruction deferred; branches are never
// collapsed back to leaves.
func (t *Trie[K, V]) Remove(key K) (V, bool) {
	guard := t.rec.Pin()
	defer guard.Unpin()
	v, ok := t.root.remove(t, key)
	if ok {
		t.opt.metrics.Remove()
	}
	return v, ok
}

func (tb *table[K, V]) remove(t *Trie[K, V], key K) (V, bool) {
	idx := slotIndex(tb.salt, key)
	slot := &tb.slots[idx]

	for {
		cur := slot.Load()
		if cur == nil {
			var zero V
			return zero, false
		}
		if cur.kind == kindBranch {
			return cur.branch.remove(t, key)
		}
		if cur.key != key {
			var zero V
			return zero, false
		}
		if slot.CompareAndSwap(cur, nil) {
			v := cur.value
			t.deferFree(cur)
			return v, true
		}
	}
}
