package cache

import (
	"testing"
	"time"

	pkgcache "TradeSage/pkg/cache"
)

func TestServiceCacheRoundTrip(t *testing.T) {
	mem := pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(8))
	defer mem.Close()
	c := NewServiceCache(mem)

	if _, ok, err := c.GetBytes("missing"); err != nil || ok {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}

	payload := []byte(`{"symbol":"BTCUSDT","count":3}`)
	if err := c.SetBytes("indicators:BTCUSDT:1h", payload, time.Minute); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}

	got, ok, err := c.GetBytes("indicators:BTCUSDT:1h")
	if err != nil || !ok {
		t.Fatalf("hit: ok=%v err=%v", ok, err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch: %s", got)
	}
}

func TestServiceCacheExpiry(t *testing.T) {
	mem := pkgcache.NewMemoryCache()
	defer mem.Close()
	c := NewServiceCache(mem)

	if err := c.SetBytes("k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok, err := c.GetBytes("k"); err != nil || ok {
		t.Fatalf("expired entry should miss: ok=%v err=%v", ok, err)
	}
}
