package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowConsumesTokens(t *testing.T) {
	l := New()
	if !l.Allow("k", 2, 0) {
		t.Fatal("first token should be available")
	}
	if !l.Allow("k", 2, 0) {
		t.Fatal("second token should be available")
	}
	if l.Allow("k", 2, 0) {
		t.Fatal("bucket should be empty")
	}
}

func TestAllowRefills(t *testing.T) {
	l := New()
	if !l.Allow("k", 1, 100) {
		t.Fatal("first token should be available")
	}
	time.Sleep(50 * time.Millisecond)
	if !l.Allow("k", 1, 100) {
		t.Fatal("bucket should have refilled")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l := New()
	l.Allow("k", 1, 0) // drain

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "k", 1, 0); err == nil {
		t.Fatal("expected context deadline error")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New()
	l.Allow("a", 1, 0)
	if !l.Allow("b", 1, 0) {
		t.Fatal("key b must have its own bucket")
	}
}
