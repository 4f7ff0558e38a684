package httpmiddleware

import (
	"testing"
	"time"
)

func TestAllowExhaustsCapacity(t *testing.T) {
	l := NewSimpleTokenBucket(2, 2)
	if !l.allow("10.0.0.1") {
		t.Fatal("first request should pass")
	}
	if !l.allow("10.0.0.1") {
		t.Fatal("second request should pass")
	}
	if l.allow("10.0.0.1") {
		t.Error("third request should be limited")
	}
}

func TestAllowTracksKeysIndependently(t *testing.T) {
	l := NewSimpleTokenBucket(1, 1)
	if !l.allow("10.0.0.1") {
		t.Fatal("first key should pass")
	}
	if !l.allow("10.0.0.2") {
		t.Error("second key should have its own bucket")
	}
	if l.allow("10.0.0.1") {
		t.Error("first key should now be limited")
	}
}

func TestAllowRefillsOverTime(t *testing.T) {
	l := NewSimpleTokenBucket(1, 60)
	if !l.allow("10.0.0.1") {
		t.Fatal("first request should pass")
	}
	if l.allow("10.0.0.1") {
		t.Fatal("bucket should be empty")
	}
	l.mu.Lock()
	l.state["10.0.0.1"].last = time.Now().Add(-time.Minute)
	l.mu.Unlock()
	if !l.allow("10.0.0.1") {
		t.Error("bucket should refill after a minute")
	}
}

func TestZeroCapacityDefaultsToRate(t *testing.T) {
	l := NewSimpleTokenBucket(0, 3)
	if l.capacity != 3 {
		t.Errorf("capacity = %d, want 3", l.capacity)
	}
}
