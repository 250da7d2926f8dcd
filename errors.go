package okapi

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidConfig is returned when the session configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownProvider is returned for a provider outside the supported set
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrSessionBusy is returned when a compaction is requested while a prior
	// one is still in flight for the same session
	ErrSessionBusy = errors.New("session compaction already in progress")

	// ErrStorageError is returned when a storage operation failed
	ErrStorageError = errors.New("storage operation failed")
)

// AgentError represents an error with additional context
type AgentError struct {
	Op        string         // Operation that failed
	Err       error          // Underlying error
	SessionID string         // Session ID if applicable
	Context   map[string]any // Additional context
}

// Error implements the error interface
func (e *AgentError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("%s (session=%s): %v", e.Op, e.SessionID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *AgentError) Unwrap() error {
	return e.Err
}

// WithContext adds additional context to the error
func (e *AgentError) WithContext(key string, value any) *AgentError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewAgentError creates a new AgentError
func NewAgentError(op string, err error) *AgentError {
	return &AgentError{
		Op:  op,
		Err: err,
	}
}

// NewAgentErrorWithSession creates a new AgentError with session ID
func NewAgentErrorWithSession(op string, sessionID string, err error) *AgentError {
	return &AgentError{
		Op:        op,
		Err:       err,
		SessionID: sessionID,
	}
}
