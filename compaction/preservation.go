package compaction

import (
	"sort"
	"strings"
)

// BuildStatus is the last observed build/test outcome in a turn range.
type BuildStatus string

const (
	// BuildStatusPassing indicates the most recent build/test result succeeded.
	BuildStatusPassing BuildStatus = "passing"

	// BuildStatusFailing indicates the most recent build/test result failed.
	BuildStatusFailing BuildStatus = "failing"

	// BuildStatusUnknown indicates no build/test outcome was observed.
	BuildStatusUnknown BuildStatus = "unknown"
)

// PreservationContext holds the durable facts extracted from turns that are
// about to be discarded. It captures facts, not transcripts, and is never
// mutated after construction.
type PreservationContext struct {
	// ActiveFiles are the file paths touched by read/write/edit tool calls,
	// de-duplicated and sorted.
	ActiveFiles []string

	// Goals are stated user objectives in first-seen order, de-duplicated
	// on normalized text.
	Goals []string

	// ErrorState is the most recent unresolved error, empty if none.
	ErrorState string

	// BuildStatus is the most recent build/test outcome.
	BuildStatus BuildStatus
}

// Tool names whose file_path argument marks a file as active.
var fileToolNames = map[string]bool{
	"read":   true,
	"write":  true,
	"edit":   true,
	"create": true,
}

// Leading verbs that mark a turn's text as a stated objective.
var goalVerbs = map[string]bool{
	"implement": true,
	"fix":       true,
	"add":       true,
	"create":    true,
	"refactor":  true,
	"update":    true,
	"write":     true,
	"build":     true,
	"make":      true,
	"migrate":   true,
	"remove":    true,
	"debug":     true,
}

// Tool result substrings indicating a failed build or test run.
var buildFailurePatterns = []string{
	"test failed",
	"tests failed",
	"build failed",
	"compilation failed",
	"--- fail",
}

const maxErrorStateLen = 200

// ExtractPreservation scans the discard-candidate region once and collects
// the facts that must survive into the summary.
func ExtractPreservation(turns []ConversationTurn) *PreservationContext {
	pc := &PreservationContext{
		BuildStatus: BuildStatusUnknown,
	}

	files := make(map[string]bool)
	seenGoals := make(map[string]bool)

	for i := range turns {
		turn := &turns[i]

		for _, call := range turn.ToolCalls {
			if !fileToolNames[strings.ToLower(call.Name)] {
				continue
			}
			if path, ok := call.Arguments["file_path"].(string); ok && path != "" {
				files[path] = true
			}
		}

		if goal := statedGoal(turn.Text); goal != "" {
			normalized := strings.ToLower(goal)
			if !seenGoals[normalized] {
				seenGoals[normalized] = true
				pc.Goals = append(pc.Goals, goal)
			}
		}

		sawResult := false
		sawError := false
		for _, result := range turn.ToolResults {
			sawResult = true
			if result.IsError {
				sawError = true
				pc.ErrorState = truncate(strings.TrimSpace(result.Content), maxErrorStateLen)
			}
			if status := buildOutcome(result); status != BuildStatusUnknown {
				pc.BuildStatus = status
			}
		}

		// A later turn whose tool calls all succeeded resolves the error.
		if sawResult && !sawError {
			pc.ErrorState = ""
		}
	}

	pc.ActiveFiles = make([]string, 0, len(files))
	for path := range files {
		pc.ActiveFiles = append(pc.ActiveFiles, path)
	}
	sort.Strings(pc.ActiveFiles)

	return pc
}

// statedGoal returns the first sentence of text if it reads like an
// objective, otherwise "".
func statedGoal(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	first, _, _ := strings.Cut(text, "\n")
	sentence, _, _ := strings.Cut(first, ". ")
	sentence = strings.TrimSuffix(strings.TrimSpace(sentence), ".")
	if sentence == "" {
		return ""
	}

	word := strings.ToLower(strings.Fields(sentence)[0])
	if !goalVerbs[word] {
		return ""
	}
	return sentence
}

// buildOutcome classifies a tool result as a build/test outcome.
func buildOutcome(result ToolResult) BuildStatus {
	content := strings.ToLower(result.Content)

	for _, pattern := range buildFailurePatterns {
		if strings.Contains(content, pattern) {
			return BuildStatusFailing
		}
	}
	if result.IsError {
		return BuildStatusUnknown
	}
	if hasSuccessPattern(content) {
		return BuildStatusPassing
	}
	return BuildStatusUnknown
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
