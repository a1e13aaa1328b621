package registry

import (
	"sync"
	"testing"
)

func TestWhiteboardRegistry_ReserveRelease(t *testing.T) {
	r := NewWhiteboardRegistry()

	id := r.Reserve()
	if id == "" {
		t.Fatal("Reserve should return a non-empty id")
	}
	if !r.InUse(id) {
		t.Error("Reserved id should be reported in use")
	}

	r.Release(id)
	if r.InUse(id) {
		t.Error("Released id should no longer be in use")
	}
	if r.Len() != 0 {
		t.Errorf("Expected empty registry, got %d reservations", r.Len())
	}
}

func TestWhiteboardRegistry_ReleaseUnknownIsNoop(t *testing.T) {
	r := NewWhiteboardRegistry()
	r.Release("never-reserved")
	r.Release("")

	if r.Len() != 0 {
		t.Errorf("Expected empty registry, got %d reservations", r.Len())
	}
}

func TestWhiteboardRegistry_ConcurrentReserve(t *testing.T) {
	r := NewWhiteboardRegistry()

	const n = 64
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- r.Reserve()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{})
	for id := range ids {
		if _, dup := seen[id]; dup {
			t.Fatalf("Duplicate reservation handed out: %s", id)
		}
		seen[id] = struct{}{}
	}
	if r.Len() != n {
		t.Errorf("Expected %d reservations, got %d", n, r.Len())
	}
}
