package slab

import (
	"sync"
	"testing"
)

func TestAllocDeallocRoundTrip(t *testing.T) {
	a := New[int](4)
	ptr, h := a.Alloc(0)
	*ptr = 42
	got := a.Dealloc(h)
	if got != 42 {
		t.Fatalf("dealloc got %d, want 42", got)
	}
}

func TestAllocGrowsSegments(t *testing.T) {
	a := New[int](1)
	var handles []Handle[int]
	for i := 0; i < segmentCapacity*3+1; i++ {
		ptr, h := a.Alloc(0)
		*ptr = i
		handles = append(handles, h)
	}
	for i, h := range handles {
		if got := a.Dealloc(h); got != i {
			t.Fatalf("handle %d: got %d, want %d", i, got, i)
		}
	}
}

func TestConcurrentAllocDealloc(t *testing.T) {
	a := New[int](8)
	var wg sync.WaitGroup
	for g := 0; g < 32; g++ {
		wg.Add(1)
		go func(tag uint64) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				ptr, h := a.Alloc(tag)
				*ptr = i
				a.Dealloc(h)
			}
		}(uint64(g))
	}
	wg.Wait()
}
