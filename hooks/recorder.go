package hooks

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one recorded diagnostic entry.
type Event struct {
	SessionID uuid.UUID
	Kind      string
	Detail    map[string]any
	At        time.Time
}

// EventRecorder collects diagnostic events for a single session. Unlike a
// process-wide recorder, it is created and torn down with the session it
// observes; recording after Close is best-effort and lossy: events are
// silently dropped rather than blocking or panicking.
type EventRecorder struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

// NewEventRecorder creates an empty recorder.
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

// Record appends an event. Dropped silently once the recorder is closed.
func (r *EventRecorder) Record(sessionID uuid.UUID, kind string, detail map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.events = append(r.events, Event{
		SessionID: sessionID,
		Kind:      kind,
		Detail:    detail,
		At:        time.Now().UTC(),
	})
}

// Events returns a copy of the recorded events.
func (r *EventRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Close stops recording. Subsequent Record calls are no-ops.
func (r *EventRecorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}
