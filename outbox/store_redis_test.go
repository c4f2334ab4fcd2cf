package outbox

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStore("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = s.Close() }()

	key := storeKeyPrefix + "ninja-17"
	if err := s.Set(t.Context(), key, "payload-1"); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := s.Get(t.Context(), key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || got != "payload-1" {
		t.Fatalf("expected payload-1, got %q (ok=%v)", got, ok)
	}
}

func TestRedisStoreMissingKey(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStore("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = s.Close() }()

	_, ok, err := s.Get(t.Context(), "absent")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected missing key")
	}
}

func TestRedisStoreRemove(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStore("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = s.Close() }()

	if err := s.Set(t.Context(), "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Remove(t.Context(), "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove(t.Context(), "k"); err != nil {
		t.Fatalf("second remove: %v", err)
	}

	if _, ok, _ := s.Get(t.Context(), "k"); ok {
		t.Fatal("expected key removed")
	}
}

func TestRedisStoreInvalidURL(t *testing.T) {
	if _, err := NewRedisStore("not-a-redis-url"); err == nil {
		t.Fatal("expected error for invalid URL")
	}
	if _, err := NewRedisStore(""); err == nil {
		t.Fatal("expected error for empty URL")
	}
}
