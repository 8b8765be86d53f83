package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
)

// fakeHandle records spoken text for verification.
type fakeHandle struct {
	mu     sync.Mutex
	spoken []string
}

func (f *fakeHandle) Say(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
	return nil
}

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry(nil)
	h := &fakeHandle{}

	if _, ok := reg.Lookup("s1"); ok {
		t.Fatal("lookup of never-registered id must miss")
	}

	reg.Register("s1", h)

	got, ok := reg.Lookup("s1")
	if !ok {
		t.Fatal("expected hit after Register")
	}
	if got != h {
		t.Error("lookup returned a different handle")
	}

	reg.Unregister("s1")

	if _, ok := reg.Lookup("s1"); ok {
		t.Error("expected miss after Unregister")
	}
	if reg.Count() != 0 {
		t.Errorf("Count() = %d, want 0", reg.Count())
	}
}

func TestRegistryUnregisterUnknown(t *testing.T) {
	reg := NewRegistry(nil)
	// Must not panic; deferred cleanup runs on ids that may never have
	// completed registration.
	reg.Unregister("ghost")
}

func TestRegistryConcurrentRegistration(t *testing.T) {
	reg := NewRegistry(nil)

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("session-%02d", i)
			reg.Register(id, &fakeHandle{})
		}(i)
	}
	wg.Wait()

	ids := reg.ListActive()
	if len(ids) != n {
		t.Fatalf("expected %d active sessions, got %d", n, len(ids))
	}
	sort.Strings(ids)
	for i, id := range ids {
		want := fmt.Sprintf("session-%02d", i)
		if id != want {
			t.Errorf("ids[%d] = %q, want %q", i, id, want)
		}
	}
}

func TestRegistryConcurrentChurn(t *testing.T) {
	reg := NewRegistry(nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			for j := 0; j < 100; j++ {
				reg.Register(id, &fakeHandle{})
				reg.Lookup(id)
				reg.ListActive()
				reg.Unregister(id)
			}
		}(i)
	}
	wg.Wait()

	if reg.Count() != 0 {
		t.Errorf("expected empty registry after churn, got %d", reg.Count())
	}
}
