package errlog

import (
	"sync"
	"time"
)

// MaxEntries bounds each device's error log; the oldest entry is evicted
// past this.
const MaxEntries = 100

type Entry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// Log keeps a bounded, in-memory error log per device. Entries do not
// survive a restart; the bound is the only retention policy here.
type Log struct {
	mu      sync.Mutex
	max     int
	entries map[string][]Entry
}

func New() *Log {
	return &Log{max: MaxEntries, entries: map[string][]Entry{}}
}

// Record appends an entry for the device, evicting the oldest once the
// bound is reached.
func (l *Log) Record(deviceID, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := append(l.entries[deviceID], Entry{At: time.Now().UTC(), Message: message})
	if len(entries) > l.max {
		entries = entries[len(entries)-l.max:]
	}
	l.entries[deviceID] = entries
}

// Entries returns a copy of the device's log, oldest first.
func (l *Log) Entries(deviceID string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	src := l.entries[deviceID]
	out := make([]Entry, len(src))
	copy(out, src)
	return out
}

// Drop clears the device's log, used when a registration is removed.
func (l *Log) Drop(deviceID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, deviceID)
}
