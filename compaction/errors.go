package compaction

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for compaction operations.
var (
	// ErrInvalidConfig indicates invalid compaction configuration.
	ErrInvalidConfig = errors.New("invalid compaction configuration")

	// ErrInvalidTurn indicates structurally invalid input, such as a tool
	// result referencing a call ID that does not exist in its turn.
	ErrInvalidTurn = errors.New("invalid conversation turn")
)

// Warning identifies a degraded-but-successful compaction outcome. Warnings
// ride along in Metrics; they never abort the agent's live turn.
type Warning string

const (
	// WarnSelectionUnableToFit means even the minimal retained tail exceeds
	// the token budget. The caller may force the request anyway or inform
	// the user.
	WarnSelectionUnableToFit Warning = "selection_unable_to_fit"

	// WarnLowCompressionRatio means compaction completed but reclaimed
	// little space. The result is still applied.
	WarnLowCompressionRatio Warning = "low_compression_ratio"

	// WarnInternalInconsistency means the orchestrator hit an internal
	// inconsistency and returned the original history unmodified.
	WarnInternalInconsistency Warning = "internal_inconsistency"
)

// CompactionError provides structured error context for compaction operations.
type CompactionError struct {
	// Op is the operation that failed (e.g., "Compact", "DetectAnchor", "SelectTurns")
	Op string

	// SessionID is the session ID if applicable
	SessionID uuid.UUID

	// Err is the underlying error
	Err error

	// Context holds additional key-value pairs for debugging
	Context map[string]any
}

// Error returns a formatted error message.
func (e *CompactionError) Error() string {
	msg := fmt.Sprintf("compaction %s failed", e.Op)
	if e.SessionID != uuid.Nil {
		msg += fmt.Sprintf(" for session %s", e.SessionID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *CompactionError) Unwrap() error {
	return e.Err
}

// NewCompactionError creates a new CompactionError with the given operation and underlying error.
func NewCompactionError(op string, err error) *CompactionError {
	return &CompactionError{
		Op:      op,
		Err:     err,
		Context: make(map[string]any),
	}
}

// WithSession sets the session ID on the error and returns the error for chaining.
func (e *CompactionError) WithSession(sessionID uuid.UUID) *CompactionError {
	e.SessionID = sessionID
	return e
}

// WithContext adds a key-value pair to the error context and returns the error for chaining.
func (e *CompactionError) WithContext(key string, value any) *CompactionError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WrapError wraps an error with operation context. If err is nil, returns nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewCompactionError(op, err)
}
