package cache

import (
	"fmt"
	"testing"
)

func TestMemoryProviderGetSetDelete(t *testing.T) {
	p := NewMemory(64)
	if _, ok := p.Get("a"); ok {
		t.Fatalf("expected miss on empty cache")
	}
	p.Set("a", []byte("hello"))
	v, ok := p.Get("a")
	if !ok || string(v) != "hello" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}
	p.Delete("a")
	if _, ok := p.Get("a"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestMemoryProviderEvictsOldestOnCapacity(t *testing.T) {
	p := NewMemory(shardCount) // 1 entry per shard
	mp := p.(*memoryProvider)

	// Pick a second key that hashes to the same shard as k1, so the
	// second Set pushes that shard over its one-entry capacity.
	k1, k2 := "k1", ""
	for i := 2; k2 == ""; i++ {
		if k := fmt.Sprintf("k%d", i); mp.shardFor(k) == mp.shardFor(k1) {
			k2 = k
		}
	}

	p.Set(k1, []byte("v1"))
	p.Set(k2, []byte("v2"))

	if _, ok := p.Get(k1); ok {
		t.Fatalf("expected %s evicted once shard exceeded capacity", k1)
	}
	if _, ok := p.Get(k2); !ok {
		t.Fatalf("expected %s retained", k2)
	}
}

func TestMemoryProviderInvalidateAll(t *testing.T) {
	p := NewMemory(64)
	p.Set("a", []byte("1"))
	p.Set("b", []byte("2"))
	p.InvalidateAll()
	if _, ok := p.Get("a"); ok {
		t.Fatalf("expected a gone after InvalidateAll")
	}
	if _, ok := p.Get("b"); ok {
		t.Fatalf("expected b gone after InvalidateAll")
	}
}

func TestSetGetRespectsBypassCache(t *testing.T) {
	s := NewSet(func(k Kind) Provider { return NewMemory(64) })
	s.Put(KindObjectBytes, "d1", []byte("payload"))

	if v, ok := s.Get(KindObjectBytes, CacheOk, "d1"); !ok || string(v) != "payload" {
		t.Fatalf("CacheOk Get = %q, %v", v, ok)
	}
	if _, ok := s.Get(KindObjectBytes, BypassCache, "d1"); ok {
		t.Fatalf("BypassCache should always miss")
	}
}

func TestSetInvalidateClearsEveryKind(t *testing.T) {
	s := NewSet(func(k Kind) Provider { return NewMemory(64) })
	s.Put(KindObjectBytes, "d1", []byte("x"))
	s.Put(KindRecipe, "r1", []byte("y"))
	s.Put(KindTagResolution, "t1", []byte("z"))
	s.Put(KindTagListing, "l1", []byte("w"))

	s.Invalidate()

	for _, c := range []struct {
		k   Kind
		key string
	}{
		{KindObjectBytes, "d1"},
		{KindRecipe, "r1"},
		{KindTagResolution, "t1"},
		{KindTagListing, "l1"},
	} {
		if _, ok := s.Get(c.k, CacheOk, c.key); ok {
			t.Fatalf("expected %s cleared by Invalidate", c.k)
		}
	}
}
