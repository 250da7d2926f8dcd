package compaction

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCompactBelowThresholdNotNeeded(t *testing.T) {
	c := New(nil, nil)
	turns := []ConversationTurn{
		plainTurn(0, "hello"),
		plainTurn(1, "world"),
	}

	result, err := c.Compact(turns, 1000)
	if err != nil {
		t.Fatalf("Compact() error = %v", err)
	}
	if result.State != StateNotNeeded {
		t.Errorf("State = %s, want %s", result.State, StateNotNeeded)
	}
	if result.Compacted() {
		t.Errorf("Compacted() = true, want false")
	}
	if len(result.RetainedTurns) != 2 {
		t.Errorf("RetainedTurns = %d, want original history untouched", len(result.RetainedTurns))
	}
}

func TestCompactEmptyHistoryNotNeeded(t *testing.T) {
	c := New(nil, nil)

	result, err := c.Compact(nil, 999999)
	if err != nil {
		t.Fatalf("Compact() error = %v, want nil (insufficient data is not fatal)", err)
	}
	if result.State != StateNotNeeded {
		t.Errorf("State = %s, want %s", result.State, StateNotNeeded)
	}
}

func TestCompactRejectsInvalidTurns(t *testing.T) {
	c := New(nil, nil)
	turns := []ConversationTurn{
		{
			Index:       0,
			ToolResults: []ToolResult{{ToolCallID: "ghost", Content: "x"}},
		},
	}

	_, err := c.Compact(turns, 999999)
	if !errors.Is(err, ErrInvalidTurn) {
		t.Errorf("Compact() error = %v, want ErrInvalidTurn", err)
	}
}

func TestCompactTaskCompletionExample(t *testing.T) {
	// Ten turns where turn index 6 carries a passing test result: the anchor
	// lands there, turns 6..9 are retained verbatim and 0..5 are summarized.
	turns := make([]ConversationTurn, 0, 10)
	for i := 0; i < 10; i++ {
		if i == 6 {
			turns = append(turns, toolTurn(i, "bash",
				map[string]any{"command": "go test ./..."},
				"All tests pass: 17 passed, 0 failed", false))
			continue
		}
		turns = append(turns, plainTurn(i, "Fix the flaky scheduler test"))
	}

	c := New(nil, nil)
	result, err := c.ForceCompact(turns)
	if err != nil {
		t.Fatalf("ForceCompact() error = %v", err)
	}

	if result.State != StateCompleted {
		t.Fatalf("State = %s, want %s", result.State, StateCompleted)
	}
	if result.Metrics.AnchorType != AnchorTaskCompletion {
		t.Errorf("AnchorType = %s, want %s", result.Metrics.AnchorType, AnchorTaskCompletion)
	}
	if len(result.RetainedTurns) != 4 {
		t.Fatalf("RetainedTurns = %d, want 4", len(result.RetainedTurns))
	}

	// Retained turns must be a contiguous suffix in original order.
	for i, turn := range result.RetainedTurns {
		if turn.Index != 6+i {
			t.Errorf("retained[%d].Index = %d, want %d", i, turn.Index, 6+i)
		}
	}

	if !strings.HasPrefix(result.SummaryText, "Summary of 6 prior turns:") {
		t.Errorf("SummaryText = %q, want the fixed template for 6 turns", result.SummaryText)
	}
	if !strings.Contains(result.SummaryText, "Fix the flaky scheduler test") {
		t.Errorf("SummaryText missing the stated goal: %q", result.SummaryText)
	}
	if result.Metrics.TurnsBefore != 10 || result.Metrics.TurnsAfter != 4 {
		t.Errorf("turn metrics = %d/%d, want 10/4", result.Metrics.TurnsBefore, result.Metrics.TurnsAfter)
	}
}

func TestCompactTriggersAtThreshold(t *testing.T) {
	turns := make([]ConversationTurn, 0, 8)
	for i := 0; i < 8; i++ {
		turns = append(turns, plainTurn(i, "regular work"))
	}

	c := New(nil, nil)
	trigger := c.Config().TriggerThreshold()

	result, err := c.Compact(turns, trigger)
	if err != nil {
		t.Fatalf("Compact() error = %v", err)
	}
	if result.State != StateCompleted {
		t.Errorf("State = %s, want %s at the trigger boundary", result.State, StateCompleted)
	}
	if result.Metrics.AnchorType != AnchorSynthetic {
		t.Errorf("AnchorType = %s, want %s for signal-free history", result.Metrics.AnchorType, AnchorSynthetic)
	}
}

func TestCompactAnchorAtStartNotNeeded(t *testing.T) {
	// A single-turn history clamps the synthetic anchor to position zero;
	// there is nothing to fold into a summary.
	c := New(nil, nil)

	result, err := c.ForceCompact([]ConversationTurn{plainTurn(0, "only turn")})
	if err != nil {
		t.Fatalf("ForceCompact() error = %v", err)
	}
	if result.State != StateNotNeeded {
		t.Errorf("State = %s, want %s", result.State, StateNotNeeded)
	}
}

func TestCompactLowCompressionWarning(t *testing.T) {
	// Discard three tiny turns while the retained turn dominates the
	// footprint: compaction completes but is flagged as ineffective.
	big := strings.Repeat("x", 4000)
	turns := []ConversationTurn{
		plainTurn(0, "a"),
		plainTurn(1, "b"),
		plainTurn(2, "c"),
		toolTurn(3, "bash", map[string]any{"command": "make test"}, "tests passed\n"+big, false),
	}

	c := New(nil, nil)
	result, err := c.ForceCompact(turns)
	if err != nil {
		t.Fatalf("ForceCompact() error = %v", err)
	}

	if result.State != StateCompleted {
		t.Fatalf("State = %s, want %s (low compression never refuses)", result.State, StateCompleted)
	}
	if !hasWarning(result.Metrics.Warnings, WarnLowCompressionRatio) {
		t.Errorf("Warnings = %v, want %s", result.Metrics.Warnings, WarnLowCompressionRatio)
	}
	if result.Metrics.CompressionRatio <= c.Config().LowCompressionRatio {
		t.Errorf("CompressionRatio = %f, expected above %f", result.Metrics.CompressionRatio, c.Config().LowCompressionRatio)
	}
}

func TestCompactLegacySummarizerNeverInvoked(t *testing.T) {
	invoked := false
	cfg := DefaultConfig()
	cfg.Summarizer = func(ctx context.Context, turns []ConversationTurn) (string, error) {
		invoked = true
		return "llm summary", nil
	}

	turns := make([]ConversationTurn, 0, 6)
	for i := 0; i < 6; i++ {
		turns = append(turns, plainTurn(i, "steady progress"))
	}

	c := New(cfg, nil)
	result, err := c.ForceCompact(turns)
	if err != nil {
		t.Fatalf("ForceCompact() error = %v", err)
	}

	if invoked {
		t.Errorf("legacy summarizer callback was invoked; it must be a no-op slot")
	}
	if result.SummaryText == "" || strings.Contains(result.SummaryText, "llm summary") {
		t.Errorf("SummaryText = %q, want deterministic synthesis", result.SummaryText)
	}
}

func TestEstimatedTokensAfter(t *testing.T) {
	turns := make([]ConversationTurn, 0, 6)
	for i := 0; i < 6; i++ {
		turns = append(turns, plainTurn(i, "steady progress"))
	}

	c := New(nil, nil)
	result, err := c.ForceCompact(turns)
	if err != nil {
		t.Fatalf("ForceCompact() error = %v", err)
	}
	if result.EstimatedTokensAfter() != result.Metrics.TokensAfter {
		t.Errorf("EstimatedTokensAfter() = %d, want %d",
			result.EstimatedTokensAfter(), result.Metrics.TokensAfter)
	}
}

func hasWarning(warnings []Warning, w Warning) bool {
	for _, got := range warnings {
		if got == w {
			return true
		}
	}
	return false
}
