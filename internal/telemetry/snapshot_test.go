package telemetry

import (
	"context"
	"errors"
	"testing"
)

type fakeCache struct {
	data map[string][]byte
	fail bool
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) Set(_ context.Context, deviceID string, payload []byte) error {
	if c.fail {
		return errors.New("cache down")
	}
	c.data[deviceID] = payload
	return nil
}

func (c *fakeCache) Get(_ context.Context, deviceID string) ([]byte, error) {
	if c.fail {
		return nil, errors.New("cache down")
	}
	return c.data[deviceID], nil
}

func (c *fakeCache) Delete(_ context.Context, deviceID string) error {
	delete(c.data, deviceID)
	return nil
}

func TestSnapshotsSetGet(t *testing.T) {
	s := NewSnapshots(nil)
	ctx := context.Background()

	if _, ok := s.Get(ctx, "dev1"); ok {
		t.Fatalf("expected no snapshot before Set")
	}
	s.Set(ctx, "dev1", Payload{"battery": map[string]any{"current": 85}})
	p, ok := s.Get(ctx, "dev1")
	if !ok {
		t.Fatalf("expected snapshot after Set")
	}
	if v, _ := p.Number("battery.current"); v != 85 {
		t.Fatalf("expected battery.current=85, got %v", v)
	}

	s.Drop(ctx, "dev1")
	if _, ok := s.Get(ctx, "dev1"); ok {
		t.Fatalf("expected snapshot gone after Drop")
	}
}

func TestSnapshotsFallBackToCache(t *testing.T) {
	cache := newFakeCache()
	ctx := context.Background()

	warm := NewSnapshots(cache)
	warm.Set(ctx, "dev1", Payload{"battery": map[string]any{"current": float64(50)}})

	// A fresh instance has an empty in-memory map but the cache entry
	// survives, as after a restart.
	cold := NewSnapshots(cache)
	p, ok := cold.Get(ctx, "dev1")
	if !ok {
		t.Fatalf("expected snapshot recovered from cache")
	}
	if v, _ := p.Number("battery.current"); v != 50 {
		t.Fatalf("expected battery.current=50, got %v", v)
	}
}

func TestSnapshotsSurviveCacheFailure(t *testing.T) {
	cache := newFakeCache()
	cache.fail = true
	s := NewSnapshots(cache)
	ctx := context.Background()

	s.Set(ctx, "dev1", Payload{"record_time": float64(1700000000)})
	if _, ok := s.Get(ctx, "dev1"); !ok {
		t.Fatalf("expected in-memory snapshot despite cache failure")
	}
}
