package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/okapi-ai/okapi/compaction"
	"github.com/okapi-ai/okapi/driver"
)

type fakeSession struct {
	id      uuid.UUID
	snap    compaction.TokenSnapshot
	summary string
	events  []driver.CompactionEventRecord
}

func (f *fakeSession) ID() uuid.UUID                           { return f.id }
func (f *fakeSession) TokenSnapshot() compaction.TokenSnapshot { return f.snap }
func (f *fakeSession) LastSummary() string                     { return f.summary }
func (f *fakeSession) CompactionHistory(ctx context.Context) ([]driver.CompactionEventRecord, error) {
	return f.events, nil
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		id: uuid.New(),
		snap: compaction.TokenSnapshot{
			InputTokens:           120254,
			OutputTokens:          4200,
			CumulativeBilledInput: 315000,
		},
		summary: "Summary of 6 prior turns: goals [Fix the race condition]; active files [main.go]; last known error [none]; build status [passing].",
		events: []driver.CompactionEventRecord{
			{
				AnchorType:       "task_completion",
				TurnsBefore:      10,
				TurnsAfter:       4,
				TokensBefore:     120000,
				TokensAfter:      40000,
				CompressionRatio: 0.33,
				CreatedAt:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			},
		},
	}
}

func TestHandlerStatusPage(t *testing.T) {
	h := NewHandler(newFakeSession(), DefaultConfig())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/session/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "120.3K") {
		t.Errorf("context size not rendered: %s", body)
	}
	if !strings.Contains(body, "Summary of 6 prior turns") {
		t.Errorf("summary not rendered")
	}
}

func TestHandlerHistoryPage(t *testing.T) {
	h := NewHandler(newFakeSession(), DefaultConfig())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/session/history", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "task_completion") {
		t.Errorf("anchor type not rendered")
	}
	if !strings.Contains(body, "33%") {
		t.Errorf("compression ratio not rendered")
	}
}

func TestHandlerRejectsWrites(t *testing.T) {
	h := NewHandler(newFakeSession(), DefaultConfig())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/session/", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandlerUnknownPath(t *testing.T) {
	h := NewHandler(newFakeSession(), DefaultConfig())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/session/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
