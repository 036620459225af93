package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/c360/cachekit/errors"
)

// fakeClock is a manually advanced time source for TTL tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// constructors used by the shared behavior tests. Every implementation
// must satisfy the same facade semantics.
func testCaches(t *testing.T, capacity int) map[string]Cache[string] {
	t.Helper()

	caches := make(map[string]Cache[string])
	for _, policy := range []Policy{PolicyLRU, PolicyLFU, PolicyFIFO} {
		c, err := New[string](policy, capacity)
		if err != nil {
			t.Fatalf("New(%s): %v", policy, err)
		}
		caches[string(policy)] = c
	}

	simple, err := NewSimple[string]()
	if err != nil {
		t.Fatalf("NewSimple: %v", err)
	}
	caches["simple"] = simple

	return caches
}

func TestCacheBasicOperations(t *testing.T) {
	for name, c := range testCaches(t, 10) {
		t.Run(name, func(t *testing.T) {
			defer c.Close()

			if _, found := c.Get("missing"); found {
				t.Error("Get on empty cache should miss")
			}

			admitted, err := c.Set("key1", "value1")
			if err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if !admitted {
				t.Error("first Set should admit a new entry")
			}

			value, found := c.Get("key1")
			if !found {
				t.Fatal("Get should find key1")
			}
			if value != "value1" {
				t.Errorf("Get returned %q, want %q", value, "value1")
			}

			admitted, err = c.Set("key1", "value2")
			if err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if admitted {
				t.Error("overwriting Set should not report a new admission")
			}
			if value, _ := c.Get("key1"); value != "value2" {
				t.Errorf("Get after overwrite returned %q, want %q", value, "value2")
			}

			if !c.Contains("key1") {
				t.Error("Contains should report key1")
			}
			if c.Contains("missing") {
				t.Error("Contains should not report a missing key")
			}

			deleted, err := c.Delete("key1")
			if err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if !deleted {
				t.Error("Delete should report the key existed")
			}
			if _, found := c.Get("key1"); found {
				t.Error("Get after Delete should miss")
			}

			deleted, err = c.Delete("key1")
			if err != nil {
				t.Fatalf("Delete of absent key failed: %v", err)
			}
			if deleted {
				t.Error("Delete of absent key should report false")
			}
		})
	}
}

func TestCacheEmptyKeyRejected(t *testing.T) {
	for name, c := range testCaches(t, 10) {
		t.Run(name, func(t *testing.T) {
			defer c.Close()

			if _, err := c.Set("", "value"); err == nil {
				t.Error("Set with empty key should fail")
			} else if !errors.IsInvalid(err) {
				t.Errorf("Set with empty key should be classified invalid, got %v", err)
			}

			if _, err := c.Delete(""); err == nil {
				t.Error("Delete with empty key should fail")
			}
		})
	}
}

func TestCacheClearAndSize(t *testing.T) {
	for name, c := range testCaches(t, 10) {
		t.Run(name, func(t *testing.T) {
			defer c.Close()

			for i := 0; i < 5; i++ {
				if _, err := c.Set(fmt.Sprintf("key%d", i), "value"); err != nil {
					t.Fatalf("Set failed: %v", err)
				}
			}
			if size := c.Size(); size != 5 {
				t.Errorf("Size = %d, want 5", size)
			}

			keys := c.Keys()
			if len(keys) != 5 {
				t.Errorf("Keys returned %d keys, want 5", len(keys))
			}
			sort.Strings(keys)
			for i, key := range keys {
				if want := fmt.Sprintf("key%d", i); key != want {
					t.Errorf("keys[%d] = %q, want %q", i, key, want)
				}
			}

			if err := c.Clear(); err != nil {
				t.Fatalf("Clear failed: %v", err)
			}
			if size := c.Size(); size != 0 {
				t.Errorf("Size after Clear = %d, want 0", size)
			}
			if len(c.Keys()) != 0 {
				t.Error("Keys after Clear should be empty")
			}

			// The cache stays usable after Clear.
			if _, err := c.Set("again", "value"); err != nil {
				t.Fatalf("Set after Clear failed: %v", err)
			}
			if _, found := c.Get("again"); !found {
				t.Error("Get after Clear+Set should hit")
			}
		})
	}
}

func TestCacheStatistics(t *testing.T) {
	for name, c := range testCaches(t, 10) {
		t.Run(name, func(t *testing.T) {
			defer c.Close()

			stats := c.Stats()
			if stats == nil {
				t.Fatal("Stats should never be nil for a real cache")
			}

			c.Set("a", "1")
			c.Set("b", "2")
			c.Get("a")
			c.Get("a")
			c.Get("missing")
			c.Delete("b")

			if got := stats.Hits(); got != 2 {
				t.Errorf("Hits = %d, want 2", got)
			}
			if got := stats.Misses(); got != 1 {
				t.Errorf("Misses = %d, want 1", got)
			}
			if got := stats.Sets(); got != 2 {
				t.Errorf("Sets = %d, want 2", got)
			}
			if got := stats.Deletes(); got != 1 {
				t.Errorf("Deletes = %d, want 1", got)
			}

			wantRatio := 2.0 / 3.0
			if got := stats.HitRatio(); got < wantRatio-0.001 || got > wantRatio+0.001 {
				t.Errorf("HitRatio = %f, want ~%f", got, wantRatio)
			}

			stats.Reset()
			if stats.Hits() != 0 || stats.Misses() != 0 {
				t.Error("Reset should zero the counters")
			}
		})
	}
}

func TestCacheContainsDoesNotCountStats(t *testing.T) {
	c, err := NewLRU[string](10)
	if err != nil {
		t.Fatalf("NewLRU: %v", err)
	}
	defer c.Close()

	c.Set("a", "1")
	c.Contains("a")
	c.Contains("missing")

	if hits := c.Stats().Hits(); hits != 0 {
		t.Errorf("Contains should not record hits, got %d", hits)
	}
	if misses := c.Stats().Misses(); misses != 0 {
		t.Errorf("Contains should not record misses, got %d", misses)
	}
}

func TestCacheDefaultTTL(t *testing.T) {
	clock := newFakeClock()
	c, err := NewLRU[string](10,
		WithClock[string](clock),
		WithDefaultTTL[string](time.Minute),
	)
	if err != nil {
		t.Fatalf("NewLRU: %v", err)
	}
	defer c.Close()

	c.Set("a", "1")

	clock.Advance(59 * time.Second)
	if _, found := c.Get("a"); !found {
		t.Error("entry should be visible before the TTL elapses")
	}

	// Visibility ends exactly at the deadline.
	clock.Advance(time.Second)
	if _, found := c.Get("a"); found {
		t.Error("entry should be expired at exactly createdAt+TTL")
	}
	if got := c.Stats().Expirations(); got != 1 {
		t.Errorf("Expirations = %d, want 1", got)
	}
}

func TestCacheSetWithTTLOverridesDefault(t *testing.T) {
	clock := newFakeClock()
	c, err := NewLRU[string](10,
		WithClock[string](clock),
		WithDefaultTTL[string](time.Minute),
	)
	if err != nil {
		t.Fatalf("NewLRU: %v", err)
	}
	defer c.Close()

	c.SetWithTTL("short", "1", time.Second)
	c.SetWithTTL("forever", "2", 0)
	c.Set("default", "3")

	clock.Advance(2 * time.Second)
	if _, found := c.Get("short"); found {
		t.Error("short TTL entry should have expired")
	}
	if _, found := c.Get("forever"); !found {
		t.Error("zero TTL entry should never expire")
	}
	if _, found := c.Get("default"); !found {
		t.Error("default TTL entry should still be visible")
	}

	clock.Advance(2 * time.Minute)
	if _, found := c.Get("default"); found {
		t.Error("default TTL entry should have expired")
	}
	if _, found := c.Get("forever"); !found {
		t.Error("zero TTL entry should survive the default TTL")
	}
}

func TestCacheOverwriteReschedulesTTL(t *testing.T) {
	clock := newFakeClock()
	c, err := NewLRU[string](10, WithClock[string](clock))
	if err != nil {
		t.Fatalf("NewLRU: %v", err)
	}
	defer c.Close()

	c.SetWithTTL("a", "1", time.Minute)
	clock.Advance(50 * time.Second)

	// Overwrite restarts the TTL from now.
	c.SetWithTTL("a", "2", time.Minute)
	clock.Advance(30 * time.Second)

	value, found := c.Get("a")
	if !found {
		t.Fatal("rescheduled entry should still be visible")
	}
	if value != "2" {
		t.Errorf("Get returned %q, want %q", value, "2")
	}

	// Overwriting with zero TTL makes the entry permanent.
	c.SetWithTTL("a", "3", 0)
	clock.Advance(24 * time.Hour)
	if _, found := c.Get("a"); !found {
		t.Error("entry overwritten with zero TTL should never expire")
	}
}

func TestCacheExpiredEntriesInvisibleEverywhere(t *testing.T) {
	clock := newFakeClock()

	bounded, err := NewLRU[string](10, WithClock[string](clock))
	if err != nil {
		t.Fatalf("NewLRU: %v", err)
	}
	simple, err := NewSimple[string](WithClock[string](clock))
	if err != nil {
		t.Fatalf("NewSimple: %v", err)
	}

	for name, c := range map[string]Cache[string]{"lru": bounded, "simple": simple} {
		t.Run(name, func(t *testing.T) {
			defer c.Close()

			c.SetWithTTL("dead", "1", time.Second)
			c.SetWithTTL("alive", "2", time.Hour)
			clock.Advance(2 * time.Second)

			if c.Contains("dead") {
				t.Error("Contains should not report an expired entry")
			}
			if size := c.Size(); size != 1 {
				t.Errorf("Size = %d, want 1", size)
			}
			keys := c.Keys()
			if len(keys) != 1 || keys[0] != "alive" {
				t.Errorf("Keys = %v, want [alive]", keys)
			}

			clock.Advance(-2 * time.Second) // rewind for the next subtest
		})
	}
}

func TestCacheEvictionCallbackOnExpiry(t *testing.T) {
	clock := newFakeClock()

	var mu sync.Mutex
	removed := make(map[string]string)
	callback := func(key, value string) {
		mu.Lock()
		defer mu.Unlock()
		removed[key] = value
	}

	c, err := NewLRU[string](10,
		WithClock[string](clock),
		WithEvictionCallback[string](callback),
	)
	if err != nil {
		t.Fatalf("NewLRU: %v", err)
	}
	defer c.Close()

	c.SetWithTTL("a", "1", time.Second)
	c.Set("b", "2")
	clock.Advance(2 * time.Second)
	c.Get("b") // any operation purges expired entries

	mu.Lock()
	defer mu.Unlock()
	if removed["a"] != "1" {
		t.Errorf("callback should have seen a=1, got %v", removed)
	}
	if _, ok := removed["b"]; ok {
		t.Error("live entry must not trigger the callback")
	}
}

func TestCacheNoCallbackOnDeleteOrClear(t *testing.T) {
	var count int
	c, err := NewLRU[string](10,
		WithEvictionCallback[string](func(string, string) { count++ }),
	)
	if err != nil {
		t.Fatalf("NewLRU: %v", err)
	}
	defer c.Close()

	c.Set("a", "1")
	c.Set("b", "2")
	c.Delete("a")
	c.Clear()

	if count != 0 {
		t.Errorf("Delete and Clear must not invoke the eviction callback, got %d calls", count)
	}
}

func TestExpiringCacheBackgroundSweep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var expired []string

	c, err := NewExpiring[string](ctx, PolicyLRU, 10, 50*time.Millisecond, 10*time.Millisecond,
		WithEvictionCallback[string](func(key, _ string) {
			mu.Lock()
			defer mu.Unlock()
			expired = append(expired, key)
		}),
	)
	if err != nil {
		t.Fatalf("NewExpiring: %v", err)
	}

	c.Set("a", "1")

	// The sweep removes the entry without any cache traffic.
	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		done := len(expired) > 0
		mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatal("sweep did not expire the entry in time")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if got := c.Stats().Expirations(); got != 1 {
		t.Errorf("Expirations = %d, want 1", got)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestExpiringCacheValidation(t *testing.T) {
	ctx := context.Background()

	if _, err := NewExpiring[string](ctx, PolicyLRU, 10, 0, time.Second); err == nil {
		t.Error("zero ttl should be rejected")
	}
	if _, err := NewExpiring[string](ctx, PolicyLRU, 10, time.Second, 0); err == nil {
		t.Error("zero cleanup interval should be rejected")
	}
	if _, err := NewExpiring[string](ctx, PolicySimple, 10, time.Second, time.Second); err == nil {
		t.Error("unbounded policy should be rejected")
	}
}

func TestBoundedCacheCapacityValidation(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		if _, err := NewLRU[string](capacity); err == nil {
			t.Errorf("capacity %d should be rejected", capacity)
		} else if !errors.IsInvalid(err) {
			t.Errorf("capacity error should be classified invalid, got %v", err)
		}
	}
}

func TestNoopCache(t *testing.T) {
	c := NewNoop[string]()

	if admitted, err := c.Set("key", "value"); err != nil || admitted {
		t.Errorf("noop Set = (%v, %v), want (false, nil)", admitted, err)
	}
	if _, found := c.Get("key"); found {
		t.Error("noop Get should always miss")
	}
	if c.Contains("key") {
		t.Error("noop Contains should always be false")
	}
	if c.Size() != 0 {
		t.Error("noop Size should be 0")
	}
	stats := c.Stats()
	if stats == nil {
		t.Fatal("noop Stats should never be nil")
	}
	summary := stats.Summary()
	if summary.Misses != 1 {
		t.Errorf("noop Misses = %d, want 1", summary.Misses)
	}
	if summary.Hits != 0 || summary.CurrentSize != 0 {
		t.Errorf("noop summary = %+v, want zero hits and size", summary)
	}
	if err := c.Close(); err != nil {
		t.Errorf("noop Close: %v", err)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	for name, c := range testCaches(t, 128) {
		t.Run(name, func(t *testing.T) {
			defer c.Close()

			const workers = 8
			const rounds = 500

			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < rounds; i++ {
						key := fmt.Sprintf("key%d", i%64)
						switch i % 4 {
						case 0:
							if _, err := c.Set(key, "value"); err != nil {
								t.Errorf("Set: %v", err)
								return
							}
						case 1, 2:
							c.Get(key)
						case 3:
							if _, err := c.Delete(key); err != nil {
								t.Errorf("Delete: %v", err)
								return
							}
						}
					}
				}(w)
			}
			wg.Wait()

			// Post-run consistency: Size and Keys agree, and every
			// reported key is retrievable.
			keys := c.Keys()
			if size := c.Size(); size != len(keys) {
				t.Errorf("Size = %d but Keys returned %d entries", size, len(keys))
			}
			for _, key := range keys {
				if !c.Contains(key) {
					t.Errorf("key %q in Keys but Contains is false", key)
				}
			}
		})
	}
}

func TestCapacityInvariantUnderStress(t *testing.T) {
	for _, policy := range []Policy{PolicyLRU, PolicyLFU, PolicyFIFO} {
		t.Run(string(policy), func(t *testing.T) {
			const capacity = 32
			c, err := New[int](policy, capacity)
			if err != nil {
				t.Fatalf("New(%s): %v", policy, err)
			}
			defer c.Close()

			const workers = 8
			const rounds = 1000

			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < rounds; i++ {
						key := fmt.Sprintf("key%d", (w*rounds+i)%128)
						switch i % 3 {
						case 0, 1:
							c.Set(key, i)
						case 2:
							c.Get(key)
						}
					}
				}(w)
			}
			wg.Wait()

			if size := c.Size(); size > capacity {
				t.Errorf("Size = %d exceeds capacity %d", size, capacity)
			}
			keys := c.Keys()
			if len(keys) != c.Size() {
				t.Errorf("Keys count %d disagrees with Size %d", len(keys), c.Size())
			}
			seen := make(map[string]bool, len(keys))
			for _, key := range keys {
				if seen[key] {
					t.Errorf("duplicate key %q in Keys", key)
				}
				seen[key] = true
				if !c.Contains(key) {
					t.Errorf("key %q in Keys but Contains is false", key)
				}
			}
		})
	}
}

func TestCacheGenericValueTypes(t *testing.T) {
	type session struct {
		User  string
		Token string
	}

	c, err := NewLRU[*session](10)
	if err != nil {
		t.Fatalf("NewLRU: %v", err)
	}
	defer c.Close()

	want := &session{User: "alice", Token: "t1"}
	c.Set("s1", want)

	got, found := c.Get("s1")
	if !found {
		t.Fatal("Get should find s1")
	}
	if got != want {
		t.Errorf("Get returned %+v, want %+v", got, want)
	}

	if missing, found := c.Get("absent"); found || missing != nil {
		t.Errorf("miss should return (nil, false), got (%v, %v)", missing, found)
	}
}

func TestSimpleCacheOverwriteExpiredDisposesOldValue(t *testing.T) {
	clock := newFakeClock()

	var mu sync.Mutex
	removed := make(map[string]string)
	callback := func(key, value string) {
		mu.Lock()
		defer mu.Unlock()
		removed[key] = value
	}

	c, err := NewSimple[string](
		WithClock[string](clock),
		WithEvictionCallback[string](callback),
	)
	if err != nil {
		t.Fatalf("NewSimple: %v", err)
	}
	defer c.Close()

	if _, err := c.SetWithTTL("k", "stale", time.Minute); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}
	clock.Advance(2 * time.Minute)

	// Overwriting the dead entry is a fresh admission, and the stale
	// value goes through the expiration path like a lazy purge would.
	admitted, err := c.Set("k", "fresh")
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !admitted {
		t.Error("overwrite of expired entry should report admission")
	}

	mu.Lock()
	if got := removed["k"]; got != "stale" {
		t.Errorf("callback received %q, want %q", got, "stale")
	}
	mu.Unlock()

	if got := c.Stats().Expirations(); got != 1 {
		t.Errorf("Expirations = %d, want 1", got)
	}
	if v, found := c.Get("k"); !found || v != "fresh" {
		t.Errorf("Get = (%q, %v), want (fresh, true)", v, found)
	}
}
