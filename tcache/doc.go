// Package tcache implements TCache, a timed write-back cache layered on
// smap.SMap. A missing key is loaded from a caller-supplied backing store
// on first touch; writes through MapMut mark the entry dirty instead of
// saving synchronously. A host-driven DoCheck periodically saves dirty
// entries and evicts clean entries older than a validity window.
//
// TCache never saves or evicts on its own goroutine: the host calls
// DoCheck (from a ticker, a request hook, whatever cadence fits) and all
// I/O happens on that caller's goroutine, under the owning shard's lock.
package tcache
