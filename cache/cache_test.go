package cache

import "testing"

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)

	// Touch "a" so "b" becomes the LRU entry.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be present")
	}

	c.Set("c", 3)

	if c.Len() != 2 {
		t.Errorf("expected size 2, got %d", c.Len())
	}
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("expected a=1, got %d (present=%v)", v, ok)
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("expected c=3, got %d (present=%v)", v, ok)
	}
}

func TestInsertingOneOverCapacityEvictsExactlyOne(t *testing.T) {
	c := New[int, int](3)
	for i := 0; i < 4; i++ {
		c.Set(i, i)
	}
	if c.Len() != 3 {
		t.Errorf("expected size 3, got %d", c.Len())
	}
	if _, ok := c.Get(0); ok {
		t.Error("expected key 0 (least recently used) to be evicted")
	}
}

func TestSetExistingKeyUpdatesWithoutEviction(t *testing.T) {
	c := New[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)

	if c.Len() != 2 {
		t.Errorf("expected size 2, got %d", c.Len())
	}
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("expected updated value 10, got %d", v)
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to survive an update of a")
	}
}

func TestStats(t *testing.T) {
	c := New[string, string](2)
	c.Set("a", "x")

	c.Get("a")       // hit
	c.Get("missing") // miss
	c.Get("a")       // hit

	s := c.GetStats()
	if s.Hits != 2 {
		t.Errorf("expected 2 hits, got %d", s.Hits)
	}
	if s.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", s.Misses)
	}
	want := 2.0 / 3.0
	if s.HitRate < want-0.0001 || s.HitRate > want+0.0001 {
		t.Errorf("expected hit rate %.4f, got %.4f", want, s.HitRate)
	}
	if s.Size != 1 {
		t.Errorf("expected size 1, got %d", s.Size)
	}
}

func TestInvalidate(t *testing.T) {
	c := New[string, int](2)
	c.Set("a", 1)

	if !c.Invalidate("a") {
		t.Error("expected invalidate of present key to return true")
	}
	if c.Invalidate("a") {
		t.Error("expected invalidate of absent key to return false")
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got size %d", c.Len())
	}
}

func TestClearPreservesCounters(t *testing.T) {
	c := New[string, int](2)
	c.Set("a", 1)
	c.Get("a")
	c.Get("b")
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("expected empty cache after clear, got %d", c.Len())
	}
	s := c.GetStats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("expected counters to survive clear, got hits=%d misses=%d", s.Hits, s.Misses)
	}
}

func TestKeysOrder(t *testing.T) {
	c := New[string, int](3)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Get("a")

	keys := c.Keys()
	want := []string{"a", "c", "b"}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("keys[%d]: expected %q, got %q", i, k, keys[i])
		}
	}
}
