package streaming

import (
	"github.com/okapi-ai/okapi/compaction"
)

// TrackerSink routes accumulated stream usage into a token tracker. Partial
// snapshots seen mid-stream update the display fields only; the complete
// usage at message_stop is the authoritative update that feeds billing and
// the compaction threshold.
type TrackerSink struct {
	Tracker *compaction.TokenTracker
}

// NewTrackerSink creates a sink bound to the given tracker.
func NewTrackerSink(tracker *compaction.TokenTracker) *TrackerSink {
	return &TrackerSink{Tracker: tracker}
}

// OnEvent inspects a translated event and applies the accumulator's usage to
// the tracker. It returns true when the authoritative final update was
// applied, which is the caller's cue to fire usage hooks and re-check the
// compaction threshold.
func (s *TrackerSink) OnEvent(a *Accumulator, ev Event) bool {
	if s.Tracker == nil || ev == nil {
		return false
	}

	switch ev.(type) {
	case *MessageStartEvent, *MessageDeltaEvent:
		s.Tracker.UpdateDisplayOnly(a.Usage())
		return false

	case *MessageStopEvent:
		s.Tracker.UpdateFromUsage(a.Usage())
		return true
	}
	return false
}
