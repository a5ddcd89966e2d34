package cache

import (
	"testing"
	"time"
)

func TestChainCache_SetGet(t *testing.T) {
	c := NewChainCache(16, time.Minute)

	c.Set("agent", true, []string{"quotes:read:own"})

	got, ok := c.Get("agent", true)
	if !ok {
		t.Fatal("Get() miss after Set()")
	}
	if len(got) != 1 || got[0] != "quotes:read:own" {
		t.Errorf("Get() = %v, want [quotes:read:own]", got)
	}

	// Inherited flag is part of the key.
	if _, ok := c.Get("agent", false); ok {
		t.Error("Get() with different inherited flag hit, want miss")
	}
}

func TestChainCache_InvalidateHidesOldEntries(t *testing.T) {
	c := NewChainCache(16, time.Minute)

	c.Set("agent", true, []string{"quotes:read:own"})
	c.Invalidate()

	if _, ok := c.Get("agent", true); ok {
		t.Error("Get() hit after Invalidate(), want miss")
	}
	if c.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", c.Generation())
	}
}
