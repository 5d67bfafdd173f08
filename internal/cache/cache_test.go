package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLRUCache_BasicOperations(t *testing.T) {
	config := Config{
		MaxSize: 3,
		TTL:     0,
	}
	cache := NewLRUCache[string, int](config)

	// Test Put and Get
	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Put("c", 3)

	if v, ok := cache.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if v, ok := cache.Get("b"); !ok || v != 2 {
		t.Errorf("Get(b) = %d, %v; want 2, true", v, ok)
	}

	// Test non-existent key
	if _, ok := cache.Get("d"); ok {
		t.Error("Get(d) should return false")
	}

	// Test Len
	if n := cache.Len(); n != 3 {
		t.Errorf("Len() = %d; want 3", n)
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	config := Config{
		MaxSize: 2,
		TTL:     0,
	}
	cache := NewLRUCache[string, int](config)

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Put("c", 3) // Should evict "a" (least recently used)

	if _, ok := cache.Get("a"); ok {
		t.Error("Get(a) should return false after eviction")
	}

	// Test that accessing moves to front
	cache.Get("b")    // Move "b" to front
	cache.Put("d", 4) // Should evict "c" (now least recently used)

	if _, ok := cache.Get("c"); ok {
		t.Error("Get(c) should return false after eviction")
	}
	if v, ok := cache.Get("b"); !ok || v != 2 {
		t.Errorf("Get(b) = %d, %v; want 2, true", v, ok)
	}

	stats := cache.Stats()
	if stats.Evictions != 2 {
		t.Errorf("Evictions = %d; want 2", stats.Evictions)
	}
}

func TestLRUCache_TTLExpiration(t *testing.T) {
	config := Config{
		MaxSize: 10,
		TTL:     10 * time.Millisecond,
	}
	cache := NewLRUCache[string, string](config)

	cache.Put("key", "value")
	if _, ok := cache.Get("key"); !ok {
		t.Fatal("entry should be present before TTL expires")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := cache.Get("key"); ok {
		t.Error("entry should have expired")
	}
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	cache := NewLRUCache[string, int](DefaultConfig())

	cache.Put("key", 1)
	cache.Put("key", 2)

	if v, _ := cache.Get("key"); v != 2 {
		t.Errorf("Get(key) = %d; want 2", v)
	}
	if n := cache.Len(); n != 1 {
		t.Errorf("Len() = %d; want 1", n)
	}
}

func TestLRUCache_Clear(t *testing.T) {
	cache := NewLRUCache[string, int](DefaultConfig())
	cache.Put("a", 1)
	cache.Put("b", 2)

	cache.Clear()
	if n := cache.Len(); n != 0 {
		t.Errorf("Len() after Clear = %d; want 0", n)
	}
	if _, ok := cache.Get("a"); ok {
		t.Error("Get(a) should return false after Clear")
	}
}

func TestLRUCache_Remove(t *testing.T) {
	cache := NewLRUCache[string, int](DefaultConfig())
	cache.Put("a", 1)
	cache.Remove("a")
	if _, ok := cache.Get("a"); ok {
		t.Error("Get(a) should return false after Remove")
	}
	// Removing an absent key is a no-op
	cache.Remove("missing")
}

func TestLRUCache_Stats(t *testing.T) {
	cache := NewLRUCache[string, int](Config{MaxSize: 5})
	cache.Put("a", 1)
	cache.Get("a")
	cache.Get("b")

	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Stats = %+v; want 1 hit, 1 miss", stats)
	}
	if stats.Size != 1 || stats.MaxSize != 5 {
		t.Errorf("Stats = %+v; want size 1, max 5", stats)
	}
}

func TestLRUCache_Concurrent(t *testing.T) {
	cache := NewLRUCache[string, int](Config{MaxSize: 100})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d", j%20)
				cache.Put(key, n)
				cache.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if n := cache.Len(); n > 20 {
		t.Errorf("Len() = %d; want at most 20", n)
	}
}
