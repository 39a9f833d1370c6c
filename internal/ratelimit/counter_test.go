package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCounter_AllowsWithinLimit(t *testing.T) {
	c := NewMemoryCounter(time.Minute)
	defer c.Stop()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := c.Allow(ctx, "user-1:orders", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !allowed {
			t.Errorf("expected request %d to be allowed", i)
		}
	}
}

func TestMemoryCounter_BlocksOverLimit(t *testing.T) {
	c := NewMemoryCounter(time.Minute)
	defer c.Stop()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c.Allow(ctx, "user-2:orders", 3, time.Minute)
	}
	allowed, retryAfter, err := c.Allow(ctx, "user-2:orders", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if allowed {
		t.Error("expected 4th request to be blocked")
	}
	if retryAfter <= 0 {
		t.Error("expected positive retry-after when blocked")
	}
}

func TestMemoryCounter_ResetsAfterWindow(t *testing.T) {
	c := NewMemoryCounter(time.Minute)
	defer c.Stop()
	ctx := context.Background()

	c.Allow(ctx, "user-3:orders", 1, 10*time.Millisecond)
	allowed, _, _ := c.Allow(ctx, "user-3:orders", 1, 10*time.Millisecond)
	if allowed {
		t.Fatal("expected second immediate request to be blocked")
	}

	time.Sleep(20 * time.Millisecond)
	allowed, _, _ = c.Allow(ctx, "user-3:orders", 1, 10*time.Millisecond)
	if !allowed {
		t.Error("expected request to be allowed again after window reset")
	}
}
