package cache

import (
	"testing"
	"time"
)

func TestNoteKeyStableAndDistinct(t *testing.T) {
	a := NoteKey("2025-06-01", "pain got worse")
	b := NoteKey("2025-06-01", "pain got worse")
	if a != b {
		t.Error("identical note must produce identical keys")
	}

	if NoteKey("2025-06-02", "pain got worse") == a {
		t.Error("same text on another date must produce a different key")
	}
	if NoteKey("2025-06-01", "pain got better") == a {
		t.Error("different text must produce a different key")
	}
}

func TestMemoryCacheRoundtrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("unexpected hit for a missing key")
	}

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Errorf("get = %q, %v", got, ok)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("deleted key still present")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set("k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("entry should have expired")
	}
}

func TestMemoryCacheClear(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("a", []byte("1"), 0)
	_ = c.Set("b", []byte("2"), 0)

	if err := c.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := c.Get("a"); ok {
		t.Error("cleared key still present")
	}
}
