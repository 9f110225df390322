package smap

import "testing"

func FuzzInsertGetRoundTrip(f *testing.F) {
	f.Add("hello", 42)
	f.Add("", 0)
	f.Add("aww yeah", -7)

	f.Fuzz(func(t *testing.T, key string, val int) {
		m := New[string, int](0)
		m.Insert(key, val)
		ref, ok := m.Get(key)
		if !ok {
			t.Fatalf("key %q missing after insert", key)
		}
		defer ref.Release()
		if got := *ref.Value(); got != val {
			t.Fatalf("got %d, want %d", got, val)
		}
	})
}
