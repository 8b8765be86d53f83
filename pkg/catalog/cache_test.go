package catalog

import (
	"testing"
	"time"
)

func TestCachePutGet(t *testing.T) {
	cache := NewDetailCache(time.Hour)

	if _, ok := cache.Get("wf1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	detail := detailWithNodes(WorkflowNode{Type: TriggerNodeType, Notes: "notes"})
	cache.Put("wf1", detail)

	got, ok := cache.Get("wf1")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if ExtractDescription(got) != "notes" {
		t.Errorf("cached detail mutated: %+v", got)
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestCacheClear(t *testing.T) {
	cache := NewDetailCache(time.Hour)
	cache.Put("wf1", WorkflowDetail{})

	cache.Clear()

	if _, ok := cache.Get("wf1"); ok {
		t.Error("expected miss after Clear")
	}

	// Clear rewinds the timestamp to epoch: the next TTL check must treat
	// the cache as expired regardless of elapsed time.
	if !cache.Expire() {
		t.Error("expected Expire to fire immediately after Clear")
	}
}

func TestCacheExpire(t *testing.T) {
	cache := NewDetailCache(time.Hour)
	cache.Put("wf1", WorkflowDetail{})

	now := time.Now()
	cache.now = func() time.Time { return now }

	if cache.Expire() {
		t.Error("cache expired before TTL elapsed")
	}
	if _, ok := cache.Get("wf1"); !ok {
		t.Error("entry evicted before TTL elapsed")
	}

	cache.now = func() time.Time { return now.Add(time.Hour + time.Second) }

	if !cache.Expire() {
		t.Error("cache did not expire after TTL elapsed")
	}
	if _, ok := cache.Get("wf1"); ok {
		t.Error("entry survived whole-cache eviction")
	}

	// Eviction resets the clock; an immediate second check is a no-op.
	if cache.Expire() {
		t.Error("cache expired twice in a row")
	}
}
