package compaction

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// SummarizerFunc is the signature of the legacy LLM-backed summary callback.
// The slot is accepted for interface compatibility and is never invoked:
// summaries are rendered deterministically so compaction stays reproducible
// and free of model latency. The slot remains so a pluggable summarizer can
// be reintroduced without an interface change.
type SummarizerFunc func(ctx context.Context, turns []ConversationTurn) (string, error)

// DiscardStats are simple statistics of the discarded turn region, rendered
// into the summary alongside the preservation context.
type DiscardStats struct {
	// TurnCount is the number of discarded turns.
	TurnCount int

	// ToolCallCounts maps tool name to invocation count within the region.
	ToolCallCounts map[string]int

	// Span is the wall-clock range covered by the region.
	Span time.Duration
}

// CollectDiscardStats computes statistics for the turns being discarded.
func CollectDiscardStats(turns []ConversationTurn) DiscardStats {
	stats := DiscardStats{
		TurnCount:      len(turns),
		ToolCallCounts: make(map[string]int),
	}

	for i := range turns {
		for _, call := range turns[i].ToolCalls {
			stats.ToolCallCounts[call.Name]++
		}
	}

	if len(turns) > 1 {
		first := turns[0].CreatedAt
		last := turns[len(turns)-1].CreatedAt
		if last.After(first) {
			stats.Span = last.Sub(first)
		}
	}

	return stats
}

// Synthesize renders the compaction summary from the preservation context and
// discard statistics. It is a pure function: identical inputs produce
// byte-identical output on every call. No model is involved.
func Synthesize(pc *PreservationContext, stats DiscardStats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Summary of %d prior turns: goals [%s]; active files [%s]; last known error [%s]; build status [%s].",
		stats.TurnCount,
		joinOrNone(pc.Goals, "; "),
		joinOrNone(pc.ActiveFiles, ", "),
		orNone(pc.ErrorState),
		string(pc.BuildStatus),
	)

	if len(stats.ToolCallCounts) > 0 {
		names := make([]string, 0, len(stats.ToolCallCounts))
		for name := range stats.ToolCallCounts {
			names = append(names, name)
		}
		sort.Strings(names)

		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%d", name, stats.ToolCallCounts[name]))
		}
		fmt.Fprintf(&b, "\nTool calls in discarded region: %s.", strings.Join(parts, ", "))
	}

	if stats.Span > 0 {
		fmt.Fprintf(&b, "\nDiscarded region spans %s.", stats.Span)
	}

	return b.String()
}

func joinOrNone(items []string, sep string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, sep)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
