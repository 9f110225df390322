// Package stack implements Stack, a Treiber stack. Push and Pop both retry
// a single compare-and-swap on the head pointer, which is updated without a
// lock; pinning the epoch, allocating a node and deferring its release each
// take a short internal mutex (internal/epoch, internal/slab).
//
// Node storage comes from internal/slab, and unlinked nodes are freed
// through internal/epoch so a goroutine mid-Pop never observes a node
// another goroutine has already recycled. Callers that issue several
// operations back to back can pre-acquire a Guard with Pin and pass it to
// the *WithGuard variants to pin the epoch once instead of once per call.
package stack
