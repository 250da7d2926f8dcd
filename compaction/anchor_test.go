package compaction

import (
	"fmt"
	"testing"
	"time"
)

func plainTurn(index int, text string) ConversationTurn {
	return ConversationTurn{
		Index:     index,
		Text:      text,
		CreatedAt: time.Date(2026, 1, 1, 10, 0, index, 0, time.UTC).Add(time.Duration(index) * time.Minute),
	}
}

func toolTurn(index int, name string, args map[string]any, content string, isError bool) ConversationTurn {
	id := fmt.Sprintf("call_%d", index)
	return ConversationTurn{
		Index: index,
		ToolCalls: []ToolCall{
			{ID: id, Name: name, Arguments: args},
		},
		ToolResults: []ToolResult{
			{ToolCallID: id, Content: content, IsError: isError},
		},
		CreatedAt: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(index) * time.Minute),
	}
}

func TestDetectAnchorTaskCompletion(t *testing.T) {
	// History of 10 turns where turn index 6 carries a passing test result.
	turns := make([]ConversationTurn, 0, 10)
	for i := 0; i < 10; i++ {
		if i == 6 {
			turns = append(turns, toolTurn(i, "edit", nil, "All tests pass: 42 passed, 0 failed", false))
			continue
		}
		turns = append(turns, plainTurn(i, "working"))
	}

	anchor := DetectAnchor(turns, DefaultSyntheticAnchorOffset)
	if anchor.Type != AnchorTaskCompletion {
		t.Fatalf("anchor type = %s, want %s", anchor.Type, AnchorTaskCompletion)
	}
	if anchor.TurnIndex != 6 {
		t.Errorf("anchor index = %d, want 6", anchor.TurnIndex)
	}
}

func TestDetectAnchorZeroFailedCount(t *testing.T) {
	turns := []ConversationTurn{
		plainTurn(0, "working"),
		toolTurn(1, "edit", nil, "ran 42 tests: 42 passed, 0 failed", false),
		plainTurn(2, "working"),
	}

	anchor := DetectAnchor(turns, DefaultSyntheticAnchorOffset)
	if anchor.Type != AnchorTaskCompletion {
		t.Fatalf("anchor type = %s, want %s", anchor.Type, AnchorTaskCompletion)
	}
	if anchor.TurnIndex != 1 {
		t.Errorf("anchor index = %d, want 1", anchor.TurnIndex)
	}
}

func TestDetectAnchorNonzeroFailureCountRejected(t *testing.T) {
	// "10 failed" ends in "0 failed"; a failing run must not read as a
	// completed task.
	turns := []ConversationTurn{
		plainTurn(0, "working"),
		toolTurn(1, "edit", nil, "test result: FAILED. 5 passed; 10 failed", false),
		plainTurn(2, "working"),
	}

	anchor := DetectAnchor(turns, 3)
	if anchor.Type != AnchorSynthetic {
		t.Errorf("anchor type = %s, want %s (failing run must not anchor)", anchor.Type, AnchorSynthetic)
	}
}

func TestDetectAnchorMostRecentWins(t *testing.T) {
	turns := []ConversationTurn{
		toolTurn(0, "bash", map[string]any{"command": "go test ./..."}, "ok", false),
		plainTurn(1, "working"),
		toolTurn(2, "bash", map[string]any{"command": "go build ./..."}, "ok", false),
		plainTurn(3, "working"),
	}

	anchor := DetectAnchor(turns, DefaultSyntheticAnchorOffset)
	if anchor.Type != AnchorBashMilestone {
		t.Fatalf("anchor type = %s, want %s", anchor.Type, AnchorBashMilestone)
	}
	if anchor.TurnIndex != 2 {
		t.Errorf("anchor index = %d, want 2 (most recent qualifying turn)", anchor.TurnIndex)
	}
}

func TestDetectAnchorPriorityWithinTurn(t *testing.T) {
	// One turn qualifies both as a bash milestone and as a task completion;
	// task completion is checked first.
	turn := ConversationTurn{
		Index: 0,
		ToolCalls: []ToolCall{
			{ID: "c1", Name: "bash", Arguments: map[string]any{"command": "make test"}},
		},
		ToolResults: []ToolResult{
			{ToolCallID: "c1", Content: "build succeeded, tests passed"},
		},
	}

	anchor := DetectAnchor([]ConversationTurn{turn}, DefaultSyntheticAnchorOffset)
	if anchor.Type != AnchorTaskCompletion {
		t.Errorf("anchor type = %s, want %s", anchor.Type, AnchorTaskCompletion)
	}
}

func TestDetectAnchorErrorResolution(t *testing.T) {
	failing := toolTurn(0, "edit", map[string]any{"file_path": "main.go"}, "syntax error", true)
	resolving := toolTurn(1, "edit", map[string]any{"file_path": "main.go"}, "applied cleanly", false)
	tail := plainTurn(2, "working")

	anchor := DetectAnchor([]ConversationTurn{failing, resolving, tail}, DefaultSyntheticAnchorOffset)
	if anchor.Type != AnchorErrorResolution {
		t.Fatalf("anchor type = %s, want %s", anchor.Type, AnchorErrorResolution)
	}
	if anchor.TurnIndex != 1 {
		t.Errorf("anchor index = %d, want 1 (the resolving turn)", anchor.TurnIndex)
	}
}

func TestDetectAnchorErrorResolutionRequiresSameTool(t *testing.T) {
	failing := toolTurn(0, "edit", nil, "syntax error", true)
	unrelated := toolTurn(1, "web_search", map[string]any{"query": "go syntax"}, "results", false)

	anchor := DetectAnchor([]ConversationTurn{failing, unrelated}, DefaultSyntheticAnchorOffset)
	if anchor.Type == AnchorErrorResolution {
		t.Errorf("unrelated follow-up tool must not count as error resolution")
	}
}

func TestDetectAnchorWebSearchMilestone(t *testing.T) {
	turns := []ConversationTurn{
		plainTurn(0, "thinking"),
		toolTurn(1, "web_search", map[string]any{"query": "pgx pool sizing"}, "found docs", false),
		plainTurn(2, "thinking"),
	}

	anchor := DetectAnchor(turns, DefaultSyntheticAnchorOffset)
	if anchor.Type != AnchorWebSearchMilestone {
		t.Fatalf("anchor type = %s, want %s", anchor.Type, AnchorWebSearchMilestone)
	}
	if anchor.TurnIndex != 1 {
		t.Errorf("anchor index = %d, want 1", anchor.TurnIndex)
	}
}

func TestDetectAnchorSyntheticFallback(t *testing.T) {
	// Five turns with no qualifying signal still produce an anchor and a
	// non-empty retained tail.
	turns := []ConversationTurn{
		plainTurn(0, "a"),
		plainTurn(1, "b"),
		plainTurn(2, "c"),
		plainTurn(3, "d"),
		plainTurn(4, "e"),
	}

	anchor := DetectAnchor(turns, 3)
	if anchor.Type != AnchorSynthetic {
		t.Fatalf("anchor type = %s, want %s", anchor.Type, AnchorSynthetic)
	}
	if anchor.TurnIndex != 2 {
		t.Errorf("anchor index = %d, want 2 (3 turns from the end)", anchor.TurnIndex)
	}
	if retained := len(turns) - anchor.TurnIndex; retained != 3 {
		t.Errorf("retained tail = %d turns, want 3", retained)
	}
}

func TestSyntheticAnchorClampsToZero(t *testing.T) {
	anchor := SyntheticAnchor(2, 3)
	if anchor.TurnIndex != 0 {
		t.Errorf("anchor index = %d, want 0 for a history shorter than the offset", anchor.TurnIndex)
	}
}

func TestDetectAnchorIdempotent(t *testing.T) {
	turns := []ConversationTurn{
		plainTurn(0, "start"),
		toolTurn(1, "bash", map[string]any{"command": "npm install"}, "added 120 packages", false),
		plainTurn(2, "next"),
	}

	first := DetectAnchor(turns, DefaultSyntheticAnchorOffset)
	second := DetectAnchor(turns, DefaultSyntheticAnchorOffset)
	if first != second {
		t.Errorf("detection not idempotent: %+v vs %+v", first, second)
	}
}
