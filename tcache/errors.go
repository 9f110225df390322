package tcache

import "errors"

// ErrNotLoaded is the error text embedded in the panic raised when Map or
// MapMut is called on a key whose Load came back not-found. The backing
// store and the cache never disagree about a key's existence by design;
// a caller that hits this has a key the store doesn't recognize and must
// check for that itself (e.g. via a store-side existence check) before
// calling into the cache.
var ErrNotLoaded = errors.New("tcache: key not found in backing store")
