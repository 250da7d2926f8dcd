package okapi

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okapi-ai/okapi/compaction"
	"github.com/okapi-ai/okapi/driver"
	"github.com/okapi-ai/okapi/hooks"
	"github.com/okapi-ai/okapi/types"
)

// Session is a single conversation with automatic context compaction. It owns
// the turn history, the token tracker, and the system-reminder message stream,
// and decides before each provider call whether the history must be compacted
// to fit the model's context window.
//
// All methods are safe for concurrent use. At most one compaction runs per
// session at a time; a second request while one is in flight returns
// ErrSessionBusy.
type Session struct {
	id        uuid.UUID
	cfg       *internalConfig
	compactor *compaction.Compactor
	tracker   *compaction.TokenTracker
	hooks     *hooks.Registry
	recorder  *hooks.EventRecorder
	store     driver.Store
	logger    compaction.Logger

	mu          sync.Mutex
	compacting  bool
	turns       []compaction.ConversationTurn
	messages    []*types.Message
	lastSummary string
}

// NewSession creates a session for the given provider and model. Optional
// behavior is configured through Option values.
func NewSession(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, NewAgentError("NewSession", err)
	}

	ic := newInternalConfig(cfg)
	for _, opt := range opts {
		if err := opt(ic); err != nil {
			return nil, err
		}
	}

	logger := ic.logger
	if logger == nil {
		logger = nopLogger{}
	}

	return &Session{
		id:        uuid.New(),
		cfg:       ic,
		compactor: compaction.New(ic.compactionConfig(), logger),
		tracker:   compaction.NewTokenTracker(),
		hooks:     ic.hooks,
		recorder:  hooks.NewEventRecorder(),
		store:     ic.store,
		logger:    logger,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// AppendTurn adds a completed exchange to the history. The turn's index must
// be greater than that of the last appended turn.
func (s *Session) AppendTurn(turn compaction.ConversationTurn) error {
	if err := turn.Validate(); err != nil {
		return NewAgentErrorWithSession("AppendTurn", s.id.String(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.turns); n > 0 && turn.Index <= s.turns[n-1].Index {
		return NewAgentErrorWithSession("AppendTurn", s.id.String(), compaction.ErrInvalidTurn).
			WithContext("index", turn.Index).
			WithContext("last_index", s.turns[n-1].Index)
	}

	s.turns = append(s.turns, turn)
	return nil
}

// Turns returns a copy of the current turn history.
func (s *Session) Turns() []compaction.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]compaction.ConversationTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// NextTurnIndex returns the index the next appended turn should carry.
func (s *Session) NextTurnIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.turns); n > 0 {
		return s.turns[n-1].Index + 1
	}
	return 0
}

// UpsertReminder installs or refreshes a system reminder. The previous
// generation of the same type stays in the stream marked superseded, so
// message content never mutates under a prompt cache.
func (s *Session) UpsertReminder(rtype compaction.SystemReminderType, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = compaction.AppendReminder(s.messages, rtype, content)
}

// Messages returns a copy of the reminder and summary message stream.
func (s *Session) Messages() []*types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// LastSummary returns the summary text of the most recent compaction, or an
// empty string when none has run.
func (s *Session) LastSummary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSummary
}

// RecordUsage applies a final usage event from a provider response. Input is
// replaced with the event's absolute context size; output and billing
// accumulate. The usage hook fires after the tracker absorbs the event.
func (s *Session) RecordUsage(ctx context.Context, u compaction.Usage) error {
	s.tracker.UpdateFromUsage(u)
	snap := s.tracker.Snapshot()

	s.recorder.Record(s.id, "usage_updated", map[string]any{
		"input_tokens":  snap.InputTokens,
		"output_tokens": snap.OutputTokens,
	})

	if err := s.hooks.TriggerUsageUpdated(ctx, snap); err != nil {
		return NewAgentErrorWithSession("RecordUsage", s.id.String(), err)
	}

	s.saveTokenState(ctx, snap)
	return nil
}

// RecordStreamingUsage applies an intermediate streaming usage event. Only
// display fields change; billing waits for the final event.
func (s *Session) RecordStreamingUsage(u compaction.Usage) {
	s.tracker.UpdateDisplayOnly(u)
}

// RecordProviderUsage decodes a provider-native usage payload and applies it
// as a final usage event.
func (s *Session) RecordProviderUsage(ctx context.Context, raw json.RawMessage) error {
	u, err := s.cfg.provider.ExtractUsage(raw)
	if err != nil {
		return NewAgentErrorWithSession("RecordProviderUsage", s.id.String(), err)
	}
	return s.RecordUsage(ctx, u)
}

// TokenSnapshot returns the current token accounting state.
func (s *Session) TokenSnapshot() compaction.TokenSnapshot {
	return s.tracker.Snapshot()
}

// NeedsCompaction reports whether the tracked context size has reached the
// compaction trigger.
func (s *Session) NeedsCompaction() bool {
	return s.compactor.NeedsCompaction(s.tracker.TotalInput())
}

// CompactIfNeeded runs compaction when the threshold has been reached. When
// it has not, the returned result reports StateNotNeeded and the history is
// untouched.
func (s *Session) CompactIfNeeded(ctx context.Context) (*compaction.Result, error) {
	return s.runCompaction(ctx, false)
}

// ForceCompact runs compaction regardless of the threshold. Used for
// user-initiated compaction commands.
func (s *Session) ForceCompact(ctx context.Context) (*compaction.Result, error) {
	return s.runCompaction(ctx, true)
}

// PrepareForSend is the pre-request check: it compacts when needed and
// returns the active reminder messages followed by any summary message, with
// the turn history to send after them.
func (s *Session) PrepareForSend(ctx context.Context) ([]*types.Message, []compaction.ConversationTurn, error) {
	if s.cfg.autoCompaction {
		if _, err := s.CompactIfNeeded(ctx); err != nil {
			return nil, nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reminders, rest := compaction.PartitionForCompaction(s.messages)
	prefix := compaction.ReinsertReminders(reminders, rest)

	turns := make([]compaction.ConversationTurn, len(s.turns))
	copy(turns, s.turns)
	return prefix, turns, nil
}

// Close stops the session's event recorder. The session remains usable but
// no further diagnostic events are collected.
func (s *Session) Close() {
	s.recorder.Close()
}

// Events returns the diagnostic events recorded so far.
func (s *Session) Events() []hooks.Event {
	return s.recorder.Events()
}

// CompactionHistory returns the session's persisted compaction events, most
// recent first. Requires a configured store.
func (s *Session) CompactionHistory(ctx context.Context) ([]driver.CompactionEventRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	events, err := s.store.ListCompactionEvents(ctx, s.id)
	if err != nil {
		return nil, NewAgentErrorWithSession("CompactionHistory", s.id.String(), ErrStorageError).
			WithContext("cause", err.Error())
	}
	return events, nil
}

// RestoreTokenState reloads persisted token accounting, typically when
// resuming a session. A session with no persisted state keeps zero counters.
func (s *Session) RestoreTokenState(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	snap, err := s.store.LoadTokenState(ctx, s.id)
	if err != nil {
		return NewAgentErrorWithSession("RestoreTokenState", s.id.String(), ErrStorageError).
			WithContext("cause", err.Error())
	}
	s.tracker.Restore(snap)
	return nil
}

func (s *Session) runCompaction(ctx context.Context, force bool) (*compaction.Result, error) {
	s.mu.Lock()
	if s.compacting {
		s.mu.Unlock()
		return nil, NewAgentErrorWithSession("Compact", s.id.String(), ErrSessionBusy)
	}
	s.compacting = true
	turns := make([]compaction.ConversationTurn, len(s.turns))
	copy(turns, s.turns)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.compacting = false
		s.mu.Unlock()
	}()

	totalInput := s.tracker.TotalInput()

	if !force && !s.compactor.NeedsCompaction(totalInput) {
		// Avoid firing before-compaction hooks for a run that cannot start.
		result, err := s.compactor.Compact(turns, totalInput)
		if err != nil {
			return nil, NewAgentErrorWithSession("Compact", s.id.String(), err)
		}
		return result, nil
	}

	if err := s.hooks.TriggerBeforeCompaction(ctx, s.id); err != nil {
		return nil, NewAgentErrorWithSession("Compact", s.id.String(), err)
	}
	s.recorder.Record(s.id, "compaction_started", map[string]any{
		"turns":        len(turns),
		"input_tokens": totalInput,
		"forced":       force,
	})

	var (
		result *compaction.Result
		err    error
	)
	if force {
		result, err = s.compactor.ForceCompact(turns)
	} else {
		result, err = s.compactor.Compact(turns, totalInput)
	}
	if err != nil {
		return nil, NewAgentErrorWithSession("Compact", s.id.String(), err)
	}

	if result.Compacted() {
		s.applyResult(ctx, turns, result)
	}

	s.recorder.Record(s.id, "compaction_finished", map[string]any{
		"state":       string(result.State),
		"turns_after": result.Metrics.TurnsAfter,
	})

	if err := s.hooks.TriggerAfterCompaction(ctx, &result.Metrics); err != nil {
		return result, NewAgentErrorWithSession("Compact", s.id.String(), err)
	}
	return result, nil
}

// applyResult installs a completed compaction: retained turns replace the
// history, the summary becomes a user message behind the active reminders,
// and the tracker restarts from the post-compaction estimate.
func (s *Session) applyResult(ctx context.Context, original []compaction.ConversationTurn, result *compaction.Result) {
	discardedCount := result.Metrics.TurnsBefore - result.Metrics.TurnsAfter
	if discardedCount < 0 || discardedCount > len(original) {
		discardedCount = 0
	}
	discarded := original[:discardedCount]

	s.mu.Lock()
	// A prior summary may hold facts that exist nowhere else in the retained
	// history, so it is prepended to the new summary rather than replaced.
	summaryText := result.SummaryText
	if s.lastSummary != "" {
		summaryText = s.lastSummary + "\n" + summaryText
	}

	summaryMsg := &types.Message{
		ID:   uuid.NewString(),
		Role: types.RoleUser,
		Content: []types.ContentBlock{
			{Type: types.ContentTypeText, Text: summaryText},
		},
		CreatedAt: time.Now().UTC(),
	}

	s.turns = result.RetainedTurns
	s.lastSummary = summaryText
	reminders, _ := compaction.PartitionForCompaction(s.messages)
	s.messages = compaction.ReinsertReminders(reminders, []*types.Message{summaryMsg})
	s.mu.Unlock()

	s.tracker.ResetAfterCompaction(result.EstimatedTokensAfter())

	if s.store != nil {
		record := driver.NewEventRecord(s.id, result)
		if err := s.store.SaveCompactionEvent(ctx, record); err != nil {
			s.logger.Warn("failed to persist compaction event", "error", err)
		} else if err := s.store.ArchiveTurns(ctx, record.ID, s.id, discarded); err != nil {
			s.logger.Warn("failed to archive discarded turns", "error", err)
		}
	}
	s.saveTokenState(ctx, s.tracker.Snapshot())
}

// saveTokenState persists token accounting best-effort; tracking continues
// in memory when the store is unavailable.
func (s *Session) saveTokenState(ctx context.Context, snap compaction.TokenSnapshot) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveTokenState(ctx, s.id, snap); err != nil {
		s.logger.Warn("failed to persist token state", "error", err)
	}
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}
