package trie

import (
	"fmt"
	"testing"
)

func TestInsertGetRemove(t *testing.T) {
	tr := New[string, int]()

	tr.Insert("a", 1)
	ref, ok := tr.Get("a")
	if !ok {
		t.Fatalf("Get(a) missing after Insert")
	}
	if ref.Key() != "a" || ref.Value() != 1 {
		t.Fatalf("Get(a) = (%v, %v), want (a, 1)", ref.Key(), ref.Value())
	}
	ref.Release()

	if _, ok := tr.Get("missing"); ok {
		t.Fatalf("Get(missing) should not be found")
	}

	v, ok := tr.Remove("a")
	if !ok || v != 1 {
		t.Fatalf("Remove(a) = (%d, %v), want (1, true)", v, ok)
	}
	if _, ok := tr.Get("a"); ok {
		t.Fatalf("Get(a) should miss after Remove")
	}
	if _, ok := tr.Remove("a"); ok {
		t.Fatalf("Remove(a) twice should report false the second time")
	}
}

func TestOverwriteExistingKey(t *testing.T) {
	tr := New[string, int]()
	tr.Insert("k", 1)
	tr.Insert("k", 2)

	ref, ok := tr.Get("k")
	if !ok || ref.Value() != 2 {
		t.Fatalf("Get(k) = (%v, %v), want (2, true)", ref.Value(), ok)
	}
	ref.Release()
}

// TestManyKeysRoundTrip inserts enough keys that branch-level collisions
// under the fixed 32-wide fan-out are practically guaranteed, and checks
// every key is independently retrievable and correctly valued afterward.
func TestManyKeysRoundTrip(t *testing.T) {
	tr := New[string, int]()
	const n = 5000

	for i := 0; i < n; i++ {
		tr.Insert(fmt.Sprintf("key-%d", i), i)
	}
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%d", i)
		ref, ok := tr.Get(key)
		if !ok {
			t.Fatalf("Get(%s) missing", key)
		}
		if ref.Value() != i {
			t.Fatalf("Get(%s) = %d, want %d", key, ref.Value(), i)
		}
		ref.Release()
	}
	for i := 0; i < n; i += 7 {
		key := fmt.Sprintf("key-%d", i)
		if _, ok := tr.Remove(key); !ok {
			t.Fatalf("Remove(%s) failed", key)
		}
		if _, ok := tr.Get(key); ok {
			t.Fatalf("Get(%s) should miss after Remove", key)
		}
	}
}

func TestRefReleaseIdempotent(t *testing.T) {
	tr := New[int, int]()
	tr.Insert(1, 10)
	ref, ok := tr.Get(1)
	if !ok {
		t.Fatalf("Get(1) missing")
	}
	ref.Release()
	ref.Release() // must not panic or double-unpin incorrectly
}
