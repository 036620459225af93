package cache

import (
	"fmt"
	"testing"
)

func benchmarkSet(b *testing.B, policy Policy) {
	c, err := New[int](policy, 1024)
	if err != nil {
		b.Fatalf("New(%s): %v", policy, err)
	}
	defer c.Close()

	keys := make([]string, 4096)
	for i := range keys {
		keys[i] = fmt.Sprintf("key%d", i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(keys[i%len(keys)], i)
	}
}

func benchmarkGet(b *testing.B, policy Policy) {
	c, err := New[int](policy, 1024)
	if err != nil {
		b.Fatalf("New(%s): %v", policy, err)
	}
	defer c.Close()

	keys := make([]string, 1024)
	for i := range keys {
		keys[i] = fmt.Sprintf("key%d", i)
		c.Set(keys[i], i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(keys[i%len(keys)])
	}
}

func BenchmarkLRUSet(b *testing.B)  { benchmarkSet(b, PolicyLRU) }
func BenchmarkLFUSet(b *testing.B)  { benchmarkSet(b, PolicyLFU) }
func BenchmarkFIFOSet(b *testing.B) { benchmarkSet(b, PolicyFIFO) }

func BenchmarkLRUGet(b *testing.B)  { benchmarkGet(b, PolicyLRU) }
func BenchmarkLFUGet(b *testing.B)  { benchmarkGet(b, PolicyLFU) }
func BenchmarkFIFOGet(b *testing.B) { benchmarkGet(b, PolicyFIFO) }

func BenchmarkLRUMixedParallel(b *testing.B) {
	c, err := NewLRU[int](1024)
	if err != nil {
		b.Fatalf("NewLRU: %v", err)
	}
	defer c.Close()

	keys := make([]string, 1024)
	for i := range keys {
		keys[i] = fmt.Sprintf("key%d", i)
		c.Set(keys[i], i)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := keys[i%len(keys)]
			if i%10 == 0 {
				c.Set(key, i)
			} else {
				c.Get(key)
			}
			i++
		}
	})
}
