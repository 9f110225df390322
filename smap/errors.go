package smap

import "errors"

// ErrInvalidKey is returned by the try_get family when the key is absent.
var ErrInvalidKey = errors.New("smap: key not present")

// ErrWouldBlock is returned by non-blocking try-ops when the shard lock
// cannot be acquired right now.
var ErrWouldBlock = errors.New("smap: lock would block")

// ErrDidNotResolve is returned by the timed try-ops when the lock was not
// acquired before the supplied deadline elapsed.
var ErrDidNotResolve = errors.New("smap: did not resolve before timeout")
