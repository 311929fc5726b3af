package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryAllowsUpToLimit(t *testing.T) {
	m := NewMemory(Config{Requests: 30, Window: 60 * time.Second})
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		allowed, err := m.Allow(ctx, "dev1")
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d unexpectedly rejected", i+1)
		}
	}
	allowed, err := m.Allow(ctx, "dev1")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if allowed {
		t.Fatalf("request 31 unexpectedly allowed")
	}
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	m := NewMemory(Config{Requests: 1, Window: time.Minute})
	ctx := context.Background()

	if allowed, _ := m.Allow(ctx, "dev1"); !allowed {
		t.Fatalf("dev1 first request rejected")
	}
	if allowed, _ := m.Allow(ctx, "dev1"); allowed {
		t.Fatalf("dev1 second request allowed")
	}
	if allowed, _ := m.Allow(ctx, "dev2"); !allowed {
		t.Fatalf("dev2 limited by dev1 traffic")
	}
}

func TestMemoryWindowSlides(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	m := NewMemory(Config{Requests: 2, Window: 60 * time.Second})
	m.now = func() time.Time { return now }
	ctx := context.Background()

	m.Allow(ctx, "dev1")
	now = now.Add(30 * time.Second)
	m.Allow(ctx, "dev1")
	if allowed, _ := m.Allow(ctx, "dev1"); allowed {
		t.Fatalf("expected rejection inside the window")
	}

	// 61s after the first request: one slot has expired.
	now = now.Add(31 * time.Second)
	if allowed, _ := m.Allow(ctx, "dev1"); !allowed {
		t.Fatalf("expected the expired slot to free up")
	}
}

func TestMemoryRejectionsDoNotExtendWindow(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	m := NewMemory(Config{Requests: 1, Window: 60 * time.Second})
	m.now = func() time.Time { return now }
	ctx := context.Background()

	m.Allow(ctx, "dev1")
	// Hammering while limited must not push the recovery point out.
	for i := 0; i < 10; i++ {
		now = now.Add(5 * time.Second)
		if allowed, _ := m.Allow(ctx, "dev1"); allowed {
			t.Fatalf("unexpectedly allowed at +%ds", (i+1)*5)
		}
	}
	now = now.Add(11 * time.Second) // 61s after the accepted request
	if allowed, _ := m.Allow(ctx, "dev1"); !allowed {
		t.Fatalf("expected recovery 60s after the accepted request")
	}
}
