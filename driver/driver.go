// Package driver provides persistence abstractions for compaction outcomes.
//
// Session persistence of the live message list is the caller's concern; what
// this package stores is the compaction audit trail: events, the turns they
// discarded, and the session's token accounting state. Two implementations
// are provided:
//   - github.com/okapi-ai/okapi/driver/pgxv5 (pgx/v5 pool)
//   - github.com/okapi-ai/okapi/driver/databasesql (database/sql, lib/pq)
package driver

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/okapi-ai/okapi/compaction"
)

// CompactionEventRecord is one persisted compaction run.
type CompactionEventRecord struct {
	ID               uuid.UUID
	SessionID        uuid.UUID
	AnchorType       string
	TurnsBefore      int
	TurnsAfter       int
	TokensBefore     int
	TokensAfter      int
	CompressionRatio float64
	SummaryText      string
	Warnings         []string
	CreatedAt        time.Time
}

// NewEventRecord builds a record from a completed compaction result.
func NewEventRecord(sessionID uuid.UUID, result *compaction.Result) CompactionEventRecord {
	warnings := make([]string, 0, len(result.Metrics.Warnings))
	for _, w := range result.Metrics.Warnings {
		warnings = append(warnings, string(w))
	}

	return CompactionEventRecord{
		ID:               uuid.New(),
		SessionID:        sessionID,
		AnchorType:       string(result.Metrics.AnchorType),
		TurnsBefore:      result.Metrics.TurnsBefore,
		TurnsAfter:       result.Metrics.TurnsAfter,
		TokensBefore:     result.Metrics.TokensBefore,
		TokensAfter:      result.Metrics.TokensAfter,
		CompressionRatio: result.Metrics.CompressionRatio,
		SummaryText:      result.SummaryText,
		Warnings:         warnings,
		CreatedAt:        time.Now().UTC(),
	}
}

// Store persists compaction events, the turns they discarded, and session
// token state.
type Store interface {
	// SaveCompactionEvent records a completed compaction run.
	SaveCompactionEvent(ctx context.Context, event CompactionEventRecord) error

	// ArchiveTurns stores the discarded turns of a compaction event so the
	// pre-compaction history remains inspectable.
	ArchiveTurns(ctx context.Context, eventID, sessionID uuid.UUID, turns []compaction.ConversationTurn) error

	// ListCompactionEvents returns a session's compaction history, most
	// recent first.
	ListCompactionEvents(ctx context.Context, sessionID uuid.UUID) ([]CompactionEventRecord, error)

	// SaveTokenState upserts the session's token accounting snapshot.
	SaveTokenState(ctx context.Context, sessionID uuid.UUID, snap compaction.TokenSnapshot) error

	// LoadTokenState loads the session's token accounting snapshot. A
	// session with no stored state returns a zero snapshot, not an error.
	LoadTokenState(ctx context.Context, sessionID uuid.UUID) (compaction.TokenSnapshot, error)
}
