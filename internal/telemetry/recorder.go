package telemetry

import (
	"sync"
	"time"
)

// Recorder collects gameplay events for balance stats.
type Recorder interface {
	Record(eventType EventType, metadata map[string]any)
	Events(since time.Time) []Event
	Clear()
}

// MemoryRecorder keeps events in memory for the lifetime of the process.
type MemoryRecorder struct {
	mu     sync.RWMutex
	events []Event
	nextID int
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{nextID: 1}
}

func (r *MemoryRecorder) Record(eventType EventType, metadata map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, Event{
		ID:        r.nextID,
		Type:      eventType,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
	r.nextID++
}

func (r *MemoryRecorder) Events(since time.Time) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Event, 0, len(r.events))
	for _, ev := range r.events {
		if ev.Timestamp.Before(since) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func (r *MemoryRecorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.nextID = 1
}

// NopRecorder discards everything. Used where stats are not wanted.
type NopRecorder struct{}

func (NopRecorder) Record(EventType, map[string]any) {}
func (NopRecorder) Events(time.Time) []Event         { return nil }
func (NopRecorder) Clear()                           {}
