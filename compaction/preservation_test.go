package compaction

import (
	"reflect"
	"testing"
)

func TestExtractPreservationActiveFiles(t *testing.T) {
	turns := []ConversationTurn{
		{
			Index: 0,
			ToolCalls: []ToolCall{
				{ID: "c1", Name: "read", Arguments: map[string]any{"file_path": "cmd/main.go"}},
				{ID: "c2", Name: "edit", Arguments: map[string]any{"file_path": "internal/parser.go"}},
			},
			ToolResults: []ToolResult{
				{ToolCallID: "c1", Content: "ok"},
				{ToolCallID: "c2", Content: "ok"},
			},
		},
		{
			Index: 1,
			ToolCalls: []ToolCall{
				{ID: "c3", Name: "write", Arguments: map[string]any{"file_path": "cmd/main.go"}},
				{ID: "c4", Name: "bash", Arguments: map[string]any{"command": "ls"}},
			},
			ToolResults: []ToolResult{
				{ToolCallID: "c3", Content: "ok"},
				{ToolCallID: "c4", Content: "ok"},
			},
		},
	}

	pc := ExtractPreservation(turns)
	want := []string{"cmd/main.go", "internal/parser.go"}
	if !reflect.DeepEqual(pc.ActiveFiles, want) {
		t.Errorf("ActiveFiles = %v, want %v (de-duplicated, sorted)", pc.ActiveFiles, want)
	}
}

func TestExtractPreservationGoals(t *testing.T) {
	turns := []ConversationTurn{
		plainTurn(0, "Fix the race condition in the worker pool.\nIt shows up under load."),
		plainTurn(1, "some chatter with no objective"),
		plainTurn(2, "fix the race condition in the worker pool"),
		plainTurn(3, "Add a regression test for it"),
	}

	pc := ExtractPreservation(turns)
	want := []string{
		"Fix the race condition in the worker pool",
		"Add a regression test for it",
	}
	if !reflect.DeepEqual(pc.Goals, want) {
		t.Errorf("Goals = %v, want %v (ordered, de-duplicated on normalized text)", pc.Goals, want)
	}
}

func TestExtractPreservationErrorState(t *testing.T) {
	turns := []ConversationTurn{
		toolTurn(0, "bash", map[string]any{"command": "go vet"}, "undefined: Foo", true),
		plainTurn(1, "thinking"),
	}

	pc := ExtractPreservation(turns)
	if pc.ErrorState != "undefined: Foo" {
		t.Errorf("ErrorState = %q, want %q", pc.ErrorState, "undefined: Foo")
	}
}

func TestExtractPreservationErrorResolvedByLaterSuccess(t *testing.T) {
	turns := []ConversationTurn{
		toolTurn(0, "edit", nil, "patch failed to apply", true),
		toolTurn(1, "edit", nil, "applied cleanly", false),
	}

	pc := ExtractPreservation(turns)
	if pc.ErrorState != "" {
		t.Errorf("ErrorState = %q, want empty after a later clean turn", pc.ErrorState)
	}
}

func TestExtractPreservationBuildStatus(t *testing.T) {
	tests := []struct {
		name     string
		turns    []ConversationTurn
		expected BuildStatus
	}{
		{
			name:     "no build signals",
			turns:    []ConversationTurn{plainTurn(0, "hello")},
			expected: BuildStatusUnknown,
		},
		{
			name: "passing result",
			turns: []ConversationTurn{
				toolTurn(0, "bash", nil, "All tests pass: build succeeded", false),
			},
			expected: BuildStatusPassing,
		},
		{
			name: "zero failure count is passing",
			turns: []ConversationTurn{
				toolTurn(0, "bash", nil, "ran 12 tests: 12 passed, 0 failed", false),
			},
			expected: BuildStatusPassing,
		},
		{
			name: "nonzero failure count is not passing",
			turns: []ConversationTurn{
				toolTurn(0, "bash", nil, "test result: FAILED. 5 passed; 10 failed", false),
			},
			expected: BuildStatusUnknown,
		},
		{
			name: "most recent outcome wins",
			turns: []ConversationTurn{
				toolTurn(0, "bash", nil, "build succeeded", false),
				toolTurn(1, "bash", nil, "--- FAIL: TestParse", false),
			},
			expected: BuildStatusFailing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := ExtractPreservation(tt.turns)
			if pc.BuildStatus != tt.expected {
				t.Errorf("BuildStatus = %s, want %s", pc.BuildStatus, tt.expected)
			}
		})
	}
}

func TestExtractPreservationTruncatesLongErrors(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'e'
	}

	turns := []ConversationTurn{
		toolTurn(0, "bash", nil, string(long), true),
	}

	pc := ExtractPreservation(turns)
	if len(pc.ErrorState) != maxErrorStateLen+3 {
		t.Errorf("ErrorState length = %d, want %d", len(pc.ErrorState), maxErrorStateLen+3)
	}
}
