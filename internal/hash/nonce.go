package hash

import (
	"crypto/rand"
	"encoding/binary"
)

// NewNonce draws a process-local random 64-bit value suitable for use as an
// SMap construction nonce or a Trie branch salt. Each container/branch
// instance draws its own nonce so that key clustering adversarial to one
// process (or one branch) does not carry over to another.
func NewNonce() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is a platform-level fault; degrade to a
		// time-derived value rather than panic, since a weak nonce is still
		// far better than a hard failure on container construction.
		return fallbackNonce()
	}
	return binary.LittleEndian.Uint64(buf[:])
}
