package compaction

import (
	"fmt"
	"strings"
)

// AnchorType classifies why a turn was chosen as a safe cut-point.
type AnchorType string

const (
	// AnchorTaskCompletion marks a turn whose tool results signal a
	// successful test or build completion.
	AnchorTaskCompletion AnchorType = "task_completion"

	// AnchorErrorResolution marks a turn that resolved an error reported in
	// the immediately preceding turn.
	AnchorErrorResolution AnchorType = "error_resolution"

	// AnchorBashMilestone marks a turn containing a high-signal shell
	// command (build, test, install).
	AnchorBashMilestone AnchorType = "bash_milestone"

	// AnchorWebSearchMilestone marks a turn that issued a web-search call.
	AnchorWebSearchMilestone AnchorType = "web_search_milestone"

	// AnchorSynthetic is the fallback when no natural signal is found. It is
	// a normal outcome, never an error.
	AnchorSynthetic AnchorType = "synthetic"
)

// AnchorPoint is the chosen compaction boundary. Turns at and after the
// anchor are retained verbatim; turns before it are folded into the summary.
type AnchorPoint struct {
	// TurnIndex is the anchor's position within the analyzed turn sequence.
	TurnIndex int

	// Type records which signal selected this turn.
	Type AnchorType

	// Confidence is the heuristic strength of the signal, in (0, 1].
	Confidence float64

	// Description is a short human-readable note for diagnostics.
	Description string
}

// Tool results matching any of these (case-insensitive) indicate a
// successful test or build run. The zero-failure count gets boundary-aware
// matching in hasSuccessPattern.
var taskCompletionPatterns = []string{
	"tests passed",
	"test passed",
	"all tests pass",
	"--- pass",
	"build succeeded",
	"build successful",
	"compilation successful",
	zeroFailedPattern,
}

const zeroFailedPattern = "0 failed"

// Shell commands containing any of these are considered milestones.
var bashMilestoneKeywords = []string{
	"build",
	"test",
	"install",
}

var shellToolNames = map[string]bool{
	"bash":  true,
	"shell": true,
	"exec":  true,
}

var webSearchToolNames = map[string]bool{
	"web_search": true,
	"websearch":  true,
	"web-search": true,
	"search_web": true,
}

// DetectAnchor chooses exactly one anchor for the given history. Turns are
// scanned from most recent backward so the most recent qualifying turn wins;
// within a turn the checks run in fixed priority order: task completion,
// error resolution, bash milestone, web-search milestone.
//
// When no turn qualifies, a synthetic anchor is placed syntheticOffset turns
// from the end of history, guaranteeing a minimum retained tail. Detection is
// idempotent: the same history always yields the same anchor.
func DetectAnchor(turns []ConversationTurn, syntheticOffset int) AnchorPoint {
	for i := len(turns) - 1; i >= 0; i-- {
		turn := &turns[i]

		if isTaskCompletion(turn) {
			return AnchorPoint{
				TurnIndex:   i,
				Type:        AnchorTaskCompletion,
				Confidence:  0.95,
				Description: fmt.Sprintf("successful test/build result in turn %d", turn.Index),
			}
		}

		if i > 0 && isErrorResolution(&turns[i-1], turn) {
			return AnchorPoint{
				TurnIndex:   i,
				Type:        AnchorErrorResolution,
				Confidence:  0.92,
				Description: fmt.Sprintf("turn %d resolved error from turn %d", turn.Index, turns[i-1].Index),
			}
		}

		if isBashMilestone(turn) {
			return AnchorPoint{
				TurnIndex:   i,
				Type:        AnchorBashMilestone,
				Confidence:  0.92,
				Description: fmt.Sprintf("milestone shell command in turn %d", turn.Index),
			}
		}

		if isWebSearchMilestone(turn) {
			return AnchorPoint{
				TurnIndex:   i,
				Type:        AnchorWebSearchMilestone,
				Confidence:  0.91,
				Description: fmt.Sprintf("web search issued in turn %d", turn.Index),
			}
		}
	}

	return SyntheticAnchor(len(turns), syntheticOffset)
}

// SyntheticAnchor places the fallback anchor at a fixed offset from the end
// of a history of turnCount turns.
func SyntheticAnchor(turnCount, syntheticOffset int) AnchorPoint {
	index := turnCount - syntheticOffset
	if index < 0 {
		index = 0
	}
	return AnchorPoint{
		TurnIndex:   index,
		Type:        AnchorSynthetic,
		Confidence:  1.0,
		Description: "Synthetic checkpoint (no natural anchors detected)",
	}
}

// isTaskCompletion reports whether the turn contains a non-error tool result
// matching a test/build success pattern.
func isTaskCompletion(turn *ConversationTurn) bool {
	for _, result := range turn.ToolResults {
		if result.IsError {
			continue
		}
		if hasSuccessPattern(strings.ToLower(result.Content)) {
			return true
		}
	}
	return false
}

// hasSuccessPattern reports whether lowercased tool-result content matches a
// test/build success pattern. The "0 failed" count only matches when the zero
// is a whole number: "10 failed" must never read as success.
func hasSuccessPattern(content string) bool {
	for _, pattern := range taskCompletionPatterns {
		if pattern == zeroFailedPattern {
			if containsZeroFailed(content) {
				return true
			}
			continue
		}
		if strings.Contains(content, pattern) {
			return true
		}
	}
	return false
}

func containsZeroFailed(content string) bool {
	for at := 0; ; at++ {
		i := strings.Index(content[at:], zeroFailedPattern)
		if i < 0 {
			return false
		}
		at += i
		if at == 0 || content[at-1] < '0' || content[at-1] > '9' {
			return true
		}
	}
}

// isErrorResolution reports whether cur resolved an error from prev: prev has
// an error result, cur has none, and cur reissued at least one of the tools
// that failed in prev.
func isErrorResolution(prev, cur *ConversationTurn) bool {
	if !prev.HasErrorResult() || cur.HasErrorResult() {
		return false
	}
	if len(cur.ToolCalls) == 0 {
		return false
	}

	failedTools := make(map[string]bool)
	for _, result := range prev.ToolResults {
		if !result.IsError {
			continue
		}
		if call, ok := prev.CallByID(result.ToolCallID); ok {
			failedTools[call.Name] = true
		}
	}

	for _, call := range cur.ToolCalls {
		if failedTools[call.Name] {
			return true
		}
	}
	return false
}

// isBashMilestone reports whether the turn ran a shell command containing a
// milestone keyword.
func isBashMilestone(turn *ConversationTurn) bool {
	for _, call := range turn.ToolCalls {
		if !shellToolNames[strings.ToLower(call.Name)] {
			continue
		}
		command, _ := call.Arguments["command"].(string)
		command = strings.ToLower(command)
		for _, keyword := range bashMilestoneKeywords {
			if strings.Contains(command, keyword) {
				return true
			}
		}
	}
	return false
}

// isWebSearchMilestone reports whether the turn issued a web-search call.
func isWebSearchMilestone(turn *ConversationTurn) bool {
	for _, call := range turn.ToolCalls {
		if webSearchToolNames[strings.ToLower(call.Name)] {
			return true
		}
	}
	return false
}
