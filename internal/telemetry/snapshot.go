package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// SnapshotCache is the optional write-through backing for snapshots,
// implemented by the redis state cache in internal/store.
type SnapshotCache interface {
	Set(ctx context.Context, deviceID string, payload []byte) error
	Get(ctx context.Context, deviceID string) ([]byte, error)
	Delete(ctx context.Context, deviceID string) error
}

// Snapshots holds the latest accepted payload per device. Each delivery
// overwrites the previous one; there is no history here.
type Snapshots struct {
	mu     sync.RWMutex
	latest map[string]Payload
	cache  SnapshotCache
}

func NewSnapshots(cache SnapshotCache) *Snapshots {
	return &Snapshots{latest: map[string]Payload{}, cache: cache}
}

// Set stores the payload and writes it through to the cache when one is
// configured. Cache failures are logged, never surfaced.
func (s *Snapshots) Set(ctx context.Context, deviceID string, p Payload) {
	s.mu.Lock()
	s.latest[deviceID] = p
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		slog.Warn("snapshot cache marshal failed", "device_id", deviceID, "error", err)
		return
	}
	if err := s.cache.Set(ctx, deviceID, raw); err != nil {
		slog.Warn("snapshot cache write failed", "device_id", deviceID, "error", err)
	}
}

// Get returns the latest payload, falling back to the cache after a
// restart. A cache hit is promoted back into memory.
func (s *Snapshots) Get(ctx context.Context, deviceID string) (Payload, bool) {
	s.mu.RLock()
	p, ok := s.latest[deviceID]
	s.mu.RUnlock()
	if ok {
		return p, true
	}
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, deviceID)
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	p, err = Decode(raw)
	if err != nil {
		return nil, false
	}
	s.mu.Lock()
	s.latest[deviceID] = p
	s.mu.Unlock()
	return p, true
}

// Drop removes the device snapshot from memory and cache.
func (s *Snapshots) Drop(ctx context.Context, deviceID string) {
	s.mu.Lock()
	delete(s.latest, deviceID)
	s.mu.Unlock()
	if s.cache != nil {
		if err := s.cache.Delete(ctx, deviceID); err != nil {
			slog.Debug("snapshot cache delete failed", "device_id", deviceID, "error", err)
		}
	}
}
