package compaction

import (
	"encoding/json"
	"sync"
)

// Usage carries the token counts reported by a single provider response.
// Input, cache-read, and cache-creation tokens are disjoint sets; the true
// context size of the call is their sum.
type Usage struct {
	// InputTokens is the fresh (uncached) input token count.
	InputTokens int `json:"input_tokens"`

	// OutputTokens is the output token count for this response.
	OutputTokens int `json:"output_tokens"`

	// CacheReadInputTokens is the input read from the provider prompt cache.
	CacheReadInputTokens int `json:"cache_read_input_tokens,omitempty"`

	// CacheCreationInputTokens is the input written to the provider prompt cache.
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
}

// TotalInput returns the absolute context size of the call: fresh input plus
// cache reads plus cache creation.
func (u Usage) TotalInput() int {
	return u.InputTokens + u.CacheReadInputTokens + u.CacheCreationInputTokens
}

// IsZero reports whether the usage event carries no information.
func (u Usage) IsZero() bool {
	return u.InputTokens == 0 && u.OutputTokens == 0 &&
		u.CacheReadInputTokens == 0 && u.CacheCreationInputTokens == 0
}

// TokenSnapshot is a point-in-time copy of TokenTracker state, safe to hand
// to status rendering or persistence without holding the tracker's lock.
type TokenSnapshot struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CumulativeBilledInput    int `json:"cumulative_billed_input"`
	CumulativeBilledOutput   int `json:"cumulative_billed_output"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
}

// TotalInput returns the snapshot's absolute context size.
func (s TokenSnapshot) TotalInput() int {
	return s.InputTokens + s.CacheReadInputTokens + s.CacheCreationInputTokens
}

// TokenTracker tracks token usage for a session.
//
// The tracker distinguishes two kinds of counters and the distinction is
// load-bearing. InputTokens is the absolute size of the most recent call's
// context and is replaced on every update; treating it as incremental
// produces order-of-magnitude overcounts. OutputTokens and the billing
// counters are cumulative and only ever grow.
//
// All methods are safe for concurrent use; streaming usage events may arrive
// from a different goroutine than the agent loop.
type TokenTracker struct {
	mu sync.Mutex

	// inputTokens is the total context of the most recent call. Replaced, never summed.
	inputTokens int

	// outputTokens is cumulative output across the session.
	outputTokens int

	cumulativeBilledInput  int
	cumulativeBilledOutput int

	// Latest-call display values, not cumulative.
	cacheReadInputTokens     int
	cacheCreationInputTokens int
}

// NewTokenTracker creates a tracker with all counters at zero.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// UpdateFromUsage applies a final (non-streaming-intermediate) usage event.
// InputTokens is replaced with usage.TotalInput(); output and billing
// counters are incremented. An all-zero usage event is a no-op.
func (t *TokenTracker) UpdateFromUsage(u Usage) {
	if u.IsZero() {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if total := u.TotalInput(); total > 0 {
		t.inputTokens = total
		t.cumulativeBilledInput += total
		t.cacheReadInputTokens = u.CacheReadInputTokens
		t.cacheCreationInputTokens = u.CacheCreationInputTokens
	}

	if u.OutputTokens > 0 {
		t.outputTokens += u.OutputTokens
		t.cumulativeBilledOutput += u.OutputTokens
	}
}

// UpdateDisplayOnly applies an intermediate streaming usage event. Only the
// cache display fields change; billing and cumulative counters are untouched
// because the event is not yet final.
func (t *TokenTracker) UpdateDisplayOnly(u Usage) {
	if u.IsZero() {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if u.CacheReadInputTokens > 0 {
		t.cacheReadInputTokens = u.CacheReadInputTokens
	}
	if u.CacheCreationInputTokens > 0 {
		t.cacheCreationInputTokens = u.CacheCreationInputTokens
	}
}

// ResetAfterCompaction replaces the tracked input size with a fresh estimate
// of the compacted context and clears the cache display fields. Cumulative
// output and billing totals are untouched: billing reflects real usage, not
// what is currently in context.
func (t *TokenTracker) ResetAfterCompaction(newEstimatedInput int) {
	if newEstimatedInput < 0 {
		newEstimatedInput = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.inputTokens = newEstimatedInput
	t.cacheReadInputTokens = 0
	t.cacheCreationInputTokens = 0
}

// TotalInput returns the absolute context size of the most recent call.
func (t *TokenTracker) TotalInput() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTokens
}

// Snapshot returns a copy of the tracker state.
func (t *TokenTracker) Snapshot() TokenSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TokenSnapshot{
		InputTokens:              t.inputTokens,
		OutputTokens:             t.outputTokens,
		CumulativeBilledInput:    t.cumulativeBilledInput,
		CumulativeBilledOutput:   t.cumulativeBilledOutput,
		CacheReadInputTokens:     t.cacheReadInputTokens,
		CacheCreationInputTokens: t.cacheCreationInputTokens,
	}
}

// Restore overwrites the tracker state from a snapshot. Used when resuming a
// persisted session.
func (t *TokenTracker) Restore(s TokenSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTokens = max(0, s.InputTokens)
	t.outputTokens = max(0, s.OutputTokens)
	t.cumulativeBilledInput = max(0, s.CumulativeBilledInput)
	t.cumulativeBilledOutput = max(0, s.CumulativeBilledOutput)
	t.cacheReadInputTokens = max(0, s.CacheReadInputTokens)
	t.cacheCreationInputTokens = max(0, s.CacheCreationInputTokens)
}

// ApproximateTokens provides fast estimation without an API call.
func ApproximateTokens(content string) int {
	if content == "" {
		return 0
	}
	// Roughly 4 characters per token for English text, rounded up.
	return (len(content) + 3) / 4
}

// EstimateTurnTokens estimates the token footprint of a single turn from its
// text, tool inputs, and tool outputs, plus fixed per-message and per-tool
// overheads.
func EstimateTurnTokens(turn *ConversationTurn) int {
	total := ApproximateTokens(turn.Text) + 4 // ~4 tokens overhead per message

	for _, call := range turn.ToolCalls {
		total += ApproximateTokens(call.Name) + 10 // ~10 tokens overhead per tool block
		if len(call.Arguments) > 0 {
			if raw, err := json.Marshal(call.Arguments); err == nil {
				total += ApproximateTokens(string(raw))
			}
		}
	}

	for _, result := range turn.ToolResults {
		total += ApproximateTokens(result.Content) + 10
	}

	return total
}

// SumTurnTokens estimates the combined token footprint of a turn sequence.
func SumTurnTokens(turns []ConversationTurn) int {
	total := 0
	for i := range turns {
		total += EstimateTurnTokens(&turns[i])
	}
	return total
}
