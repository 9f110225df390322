// Package hash provides the keyed 64-bit hasher used to route keys to
// shards (smap) and to pick branch slots (trie). The hash must be
// deterministic within a process and mixable with a caller-supplied
// nonce/salt so that two containers constructed in the same process
// never collide identically on adversarial input.
package hash

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Seeded hashes k, keyed by nonce. The nonce is folded in ahead of the key
// bytes so that Seeded(n1, k) and Seeded(n2, k) are uncorrelated for
// n1 != n2, the same way SMap mixes its construction-time nonce and Trie
// mixes each branch's salt.
//
// Supported key shapes mirror the common comparable key types this library
// is expected to be instantiated with: strings, byte slices, fixed byte
// arrays, and all integer widths. A key implementing fmt.Stringer is hashed
// by its String() output; any other key type panics.
func Seeded[K comparable](nonce uint64, k K) uint64 {
	switch v := any(k).(type) {
	case string:
		return sumSeeded(nonce, []byte(v))
	case []byte:
		return sumSeeded(nonce, v)
	case [16]byte:
		return sumSeeded(nonce, v[:])
	case [32]byte:
		return sumSeeded(nonce, v[:])
	case [64]byte:
		return sumSeeded(nonce, v[:])
	case uint8:
		return sumSeededUint64(nonce, uint64(v))
	case uint16:
		return sumSeededUint64(nonce, uint64(v))
	case uint32:
		return sumSeededUint64(nonce, uint64(v))
	case uint64:
		return sumSeededUint64(nonce, v)
	case uint:
		return sumSeededUint64(nonce, uint64(v))
	case uintptr:
		return sumSeededUint64(nonce, uint64(v))
	case int8:
		return sumSeededUint64(nonce, uint64(uint8(v)))
	case int16:
		return sumSeededUint64(nonce, uint64(uint16(v)))
	case int32:
		return sumSeededUint64(nonce, uint64(uint32(v)))
	case int64:
		return sumSeededUint64(nonce, uint64(v))
	case int:
		return sumSeededUint64(nonce, uint64(v))
	case fmt.Stringer:
		return sumSeeded(nonce, []byte(v.String()))
	default:
		panic(fmt.Sprintf("hash.Seeded: unsupported key type %T; convert the key to string or a fixed-width integer", k))
	}
}

func sumSeeded(nonce uint64, b []byte) uint64 {
	d := xxhash.NewWithSeed(nonce)
	_, _ = d.Write(b)
	return d.Sum64()
}

func sumSeededUint64(nonce uint64, u uint64) uint64 {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(u)
		u >>= 8
	}
	return sumSeeded(nonce, buf[:])
}
