// Package epoch is a small epoch-based reclamation facade used by Trie and
// Stack to safely free nodes unlinked from a lock-free structure while other
// goroutines may still hold pointers into them.
//
// The scheme: a global epoch counter advances on every Defer. Each reader pins
// the current epoch for the duration of a dereference (a Guard). A writer
// that unlinks a node defers its destruction instead of freeing it
// immediately; the deferred callback only runs once every goroutine that had
// pinned an epoch at or before the unlink has unpinned, which bounds the
// window in which a freed node's memory could be observed by a stale reader
// (the ABA concern §4.3/§4.6 of the design call out).
//
// Go's garbage collector means an unlinked node is never actually returned to
// the OS while anything still references it; what this package buys is
// deterministic *slab slot* reuse (internal/slab) without racing a reader
// still walking the old chain, not manual memory safety.
package epoch

import (
	"sync"

	"github.com/nsavostin/ccl/internal/util"
)

// Guard represents a pinned epoch. Hold it for the duration of a lock-free
// dereference; Unpin releases the pin. A Guard is not safe for concurrent use
// and must not outlive the goroutine that created it.
type Guard struct {
	r   *Reclaimer
	epo uint64
}

// Unpin releases the epoch pin. Safe to call multiple times.
func (g *Guard) Unpin() {
	if g.r == nil {
		return
	}
	g.r.unpin(g.epo)
	g.r = nil
}

// Reclaimer tracks the global epoch and outstanding pins, draining deferred
// destructors once they are provably unreachable by any pinned reader.
type Reclaimer struct {
	mu sync.Mutex
	// epoch is padded to its own cache line: Pin/Defer load and bump it far
	// more often than anything else on Reclaimer touches memory, so it is
	// the one field worth isolating from false sharing with mu and pins.
	epoch   util.PaddedAtomicUint64
	pins    map[uint64]int // epoch -> count of goroutines currently pinned at it
	pending []deferredItem
}

type deferredItem struct {
	epoch uint64
	fn    func()
}

// New constructs a Reclaimer starting at epoch 0.
func New() *Reclaimer {
	return &Reclaimer{pins: make(map[uint64]int)}
}

// Pin marks the calling goroutine as observing the current epoch until the
// returned Guard is unpinned. Every lock-free read in Trie/Stack must hold a
// Guard for the duration of the dereference.
func (r *Reclaimer) Pin() *Guard {
	r.mu.Lock()
	e := r.epoch.Load()
	r.pins[e]++
	r.mu.Unlock()
	return &Guard{r: r, epo: e}
}

func (r *Reclaimer) unpin(e uint64) {
	r.mu.Lock()
	r.pins[e]--
	if r.pins[e] <= 0 {
		delete(r.pins, e)
	}
	r.drainLocked()
	r.mu.Unlock()
}

// Defer schedules fn to run once no pin older than or equal to the current
// epoch remains outstanding, then advances the epoch so future pins do not
// block this item. Use for freeing a node just unlinked via CAS.
func (r *Reclaimer) Defer(fn func()) {
	r.mu.Lock()
	e := r.epoch.Load()
	r.pending = append(r.pending, deferredItem{epoch: e, fn: fn})
	r.epoch.Add(1)
	r.drainLocked()
	r.mu.Unlock()
}

// drainLocked runs every deferred item whose epoch has no remaining pins at
// or below it. Must be called with r.mu held.
func (r *Reclaimer) drainLocked() {
	if len(r.pending) == 0 {
		return
	}
	minPinned, any := r.minPinnedLocked()
	kept := r.pending[:0]
	for _, item := range r.pending {
		if any && item.epoch >= minPinned {
			kept = append(kept, item)
			continue
		}
		item.fn()
	}
	r.pending = kept
}

func (r *Reclaimer) minPinnedLocked() (uint64, bool) {
	var min uint64
	found := false
	for e, n := range r.pins {
		if n <= 0 {
			continue
		}
		if !found || e < min {
			min = e
			found = true
		}
	}
	return min, found
}
