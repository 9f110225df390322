package hash

import (
	"sync/atomic"
	"time"
)

var fallbackCounter atomic.Uint64

// fallbackNonce produces a best-effort unique value when crypto/rand is
// unavailable. It mixes wall-clock time with a process-wide counter so
// repeated calls within the same process still diverge.
func fallbackNonce() uint64 {
	n := fallbackCounter.Add(1)
	return sumSeededUint64(uint64(time.Now().UnixNano()), n)
}
