package cache

import "testing"

func TestCacheBounded(t *testing.T) {
	c, err := New[string, int](2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) = %d, %v", v, ok)
	}
}

func TestCacheZeroSizeErrors(t *testing.T) {
	if _, err := New[string, string](0); err == nil {
		t.Error("expected error for zero size")
	}
}
