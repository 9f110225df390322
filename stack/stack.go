package stack

import (
	"sync/atomic"

	"github.com/nsavostin/ccl/internal/epoch"
	"github.com/nsavostin/ccl/internal/hash"
	"github.com/nsavostin/ccl/internal/slab"
)

type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
	handle slab.Handle[node[T]]
}

// Stack is a lock-free LIFO stack safe for concurrent Push/Pop from any
// number of goroutines.
type Stack[T any] struct {
	head  atomic.Pointer[node[T]]
	alloc *slab.Allocator[node[T]]
	rec   *epoch.Reclaimer
}

// New constructs an empty Stack.
func New[T any]() *Stack[T] {
	return &Stack[T]{
		alloc: slab.New[node[T]](slab.DefaultPools),
		rec:   epoch.New(),
	}
}

// Pin acquires an epoch pin the caller can reuse across several
// *WithGuard calls instead of paying the pin/unpin cost on every call.
func (s *Stack[T]) Pin() *epoch.Guard {
	return s.rec.Pin()
}

func (s *Stack[T]) deferFree(n *node[T]) {
	s.rec.Defer(func() {
		s.alloc.Dealloc(n.handle)
	})
}

// Push pushes value onto the stack.
func (s *Stack[T]) Push(value T) {
	s.PushWithGuard(value, nil)
}

// PushWithGuard behaves like Push. If guard is non-nil it is used instead
// of pinning a fresh epoch, letting the caller amortize the pin across a
// batch of pushes/pops it issues back to back.
func (s *Stack[T]) PushWithGuard(value T, guard *epoch.Guard) {
	if guard == nil {
		g := s.rec.Pin()
		defer g.Unpin()
	}

	tag := hash.NewNonce()
	n, h := s.alloc.Alloc(tag)
	n.value = value
	n.handle = h

	for {
		old := s.head.Load()
		n.next.Store(old)
		if s.head.CompareAndSwap(old, n) {
			return
		}
	}
}

// Pop removes and returns the top value, or (zero, false) if the stack is
// empty.
func (s *Stack[T]) Pop() (T, bool) {
	return s.PopWithGuard(nil)
}

// PopWithGuard behaves like Pop, reusing guard instead of pinning a fresh
// epoch if guard is non-nil.
func (s *Stack[T]) PopWithGuard(guard *epoch.Guard) (T, bool) {
	if guard == nil {
		g := s.rec.Pin()
		defer g.Unpin()
	}

	for {
		old := s.head.Load()
		if old == nil {
			var zero T
			return zero, false
		}
		next := old.next.Load()
		if s.head.CompareAndSwap(old, next) {
			v := old.value
			s.deferFree(old)
			return v, true
		}
	}
}

// IsEmpty reports whether the stack currently has no elements. The result
// is a snapshot; concurrent Push/Pop may invalidate it immediately.
func (s *Stack[T]) IsEmpty() bool {
	return s.head.Load() == nil
}
