package compaction

import (
	"fmt"
	"time"
)

// ToolCall is a single tool invocation issued within a turn.
type ToolCall struct {
	// ID uniquely identifies the call within its turn.
	ID string `json:"id"`

	// Name is the tool name (e.g., "bash", "edit", "web_search").
	Name string `json:"name"`

	// Arguments holds the decoded tool input.
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolResult is the outcome of a ToolCall, joined by ToolCallID.
type ToolResult struct {
	// ToolCallID references the ToolCall this result answers.
	ToolCallID string `json:"tool_call_id"`

	// Content is the textual result payload.
	Content string `json:"content"`

	// IsError indicates the tool reported a failure.
	IsError bool `json:"is_error,omitempty"`
}

// ConversationTurn is one logical exchange: the free text exchanged plus the
// tool calls issued during the exchange and their results. Turns are immutable
// once created; the engine only reads or copies them.
type ConversationTurn struct {
	// Index is the monotonic sequence number assigned at creation.
	Index int `json:"index"`

	// Text is the free text of the exchange (user request plus assistant prose).
	Text string `json:"text,omitempty"`

	// ToolCalls are the tool invocations issued in this turn.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolResults are the results for this turn's tool calls.
	ToolResults []ToolResult `json:"tool_results,omitempty"`

	// CreatedAt is the turn creation timestamp.
	CreatedAt time.Time `json:"created_at"`
}

// ResultFor returns the result for the given tool call ID, if present.
// Calls and results are joined by identifier lookup, not by pointers.
func (t *ConversationTurn) ResultFor(callID string) (ToolResult, bool) {
	for _, r := range t.ToolResults {
		if r.ToolCallID == callID {
			return r, true
		}
	}
	return ToolResult{}, false
}

// CallByID returns the tool call with the given ID, if present.
func (t *ConversationTurn) CallByID(id string) (ToolCall, bool) {
	for _, c := range t.ToolCalls {
		if c.ID == id {
			return c, true
		}
	}
	return ToolCall{}, false
}

// HasErrorResult reports whether any tool result in the turn is an error.
func (t *ConversationTurn) HasErrorResult() bool {
	for _, r := range t.ToolResults {
		if r.IsError {
			return true
		}
	}
	return false
}

// Validate checks the turn for structural consistency. A result that
// references a call ID not present in the same turn is invalid input.
func (t *ConversationTurn) Validate() error {
	for _, r := range t.ToolResults {
		if _, ok := t.CallByID(r.ToolCallID); !ok {
			return fmt.Errorf("%w: turn %d result references unknown tool call %q",
				ErrInvalidTurn, t.Index, r.ToolCallID)
		}
	}
	return nil
}

// ValidateTurns checks every turn in the sequence and verifies indexes are
// strictly increasing.
func ValidateTurns(turns []ConversationTurn) error {
	for i := range turns {
		if err := turns[i].Validate(); err != nil {
			return err
		}
		if i > 0 && turns[i].Index <= turns[i-1].Index {
			return fmt.Errorf("%w: turn index %d at position %d is not increasing",
				ErrInvalidTurn, turns[i].Index, i)
		}
	}
	return nil
}
