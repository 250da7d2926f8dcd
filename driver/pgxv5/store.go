// Package pgxv5 implements driver.Store over a pgx/v5 connection pool.
package pgxv5

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okapi-ai/okapi/compaction"
	"github.com/okapi-ai/okapi/driver"
)

// Schema contains the DDL for the tables this store uses. Apply it with your
// migration tooling of choice.
const Schema = `
CREATE TABLE IF NOT EXISTS okapi_compaction_events (
	id UUID PRIMARY KEY,
	session_id UUID NOT NULL,
	anchor_type TEXT NOT NULL,
	turns_before INT NOT NULL,
	turns_after INT NOT NULL,
	tokens_before INT NOT NULL,
	tokens_after INT NOT NULL,
	compression_ratio DOUBLE PRECISION NOT NULL,
	summary_text TEXT NOT NULL,
	warnings TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS okapi_compaction_events_session_idx
	ON okapi_compaction_events (session_id, created_at DESC);

CREATE TABLE IF NOT EXISTS okapi_archived_turns (
	event_id UUID NOT NULL,
	session_id UUID NOT NULL,
	turn_index INT NOT NULL,
	turn JSONB NOT NULL,
	PRIMARY KEY (event_id, turn_index)
);

CREATE TABLE IF NOT EXISTS okapi_token_state (
	session_id UUID PRIMARY KEY,
	state JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Store implements driver.Store using a pgx/v5 pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new pgx/v5 backed store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// SaveCompactionEvent records a completed compaction run.
func (s *Store) SaveCompactionEvent(ctx context.Context, event driver.CompactionEventRecord) error {
	query := `
		INSERT INTO okapi_compaction_events
			(id, session_id, anchor_type, turns_before, turns_after,
			 tokens_before, tokens_after, compression_ratio, summary_text, warnings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		event.ID, event.SessionID, event.AnchorType,
		event.TurnsBefore, event.TurnsAfter,
		event.TokensBefore, event.TokensAfter,
		event.CompressionRatio, event.SummaryText, event.Warnings, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save compaction event: %w", err)
	}
	return nil
}

// ArchiveTurns stores discarded turns as JSONB rows keyed by event.
func (s *Store) ArchiveTurns(ctx context.Context, eventID, sessionID uuid.UUID, turns []compaction.ConversationTurn) error {
	query := `
		INSERT INTO okapi_archived_turns (event_id, session_id, turn_index, turn)
		VALUES ($1, $2, $3, $4)
	`

	for i := range turns {
		turnJSON, err := json.Marshal(turns[i])
		if err != nil {
			return fmt.Errorf("failed to marshal turn %d: %w", turns[i].Index, err)
		}
		if _, err := s.pool.Exec(ctx, query, eventID, sessionID, turns[i].Index, turnJSON); err != nil {
			return fmt.Errorf("failed to archive turn %d: %w", turns[i].Index, err)
		}
	}
	return nil
}

// ListCompactionEvents returns a session's compaction history, most recent first.
func (s *Store) ListCompactionEvents(ctx context.Context, sessionID uuid.UUID) ([]driver.CompactionEventRecord, error) {
	query := `
		SELECT id, session_id, anchor_type, turns_before, turns_after,
		       tokens_before, tokens_after, compression_ratio, summary_text, warnings, created_at
		FROM okapi_compaction_events
		WHERE session_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query compaction events: %w", err)
	}
	defer rows.Close()

	var events []driver.CompactionEventRecord
	for rows.Next() {
		var event driver.CompactionEventRecord
		if err := rows.Scan(
			&event.ID, &event.SessionID, &event.AnchorType,
			&event.TurnsBefore, &event.TurnsAfter,
			&event.TokensBefore, &event.TokensAfter,
			&event.CompressionRatio, &event.SummaryText, &event.Warnings, &event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan compaction event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// SaveTokenState upserts the session's token accounting snapshot.
func (s *Store) SaveTokenState(ctx context.Context, sessionID uuid.UUID, snap compaction.TokenSnapshot) error {
	stateJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal token state: %w", err)
	}

	query := `
		INSERT INTO okapi_token_state (session_id, state, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (session_id) DO UPDATE SET state = $2, updated_at = NOW()
	`

	if _, err := s.pool.Exec(ctx, query, sessionID, stateJSON); err != nil {
		return fmt.Errorf("failed to save token state: %w", err)
	}
	return nil
}

// LoadTokenState loads the session's token accounting snapshot.
func (s *Store) LoadTokenState(ctx context.Context, sessionID uuid.UUID) (compaction.TokenSnapshot, error) {
	query := `SELECT state FROM okapi_token_state WHERE session_id = $1`

	var stateJSON []byte
	err := s.pool.QueryRow(ctx, query, sessionID).Scan(&stateJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return compaction.TokenSnapshot{}, nil
	}
	if err != nil {
		return compaction.TokenSnapshot{}, fmt.Errorf("failed to load token state: %w", err)
	}

	var snap compaction.TokenSnapshot
	if err := json.Unmarshal(stateJSON, &snap); err != nil {
		return compaction.TokenSnapshot{}, fmt.Errorf("failed to unmarshal token state: %w", err)
	}
	return snap, nil
}
