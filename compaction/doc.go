// Package compaction keeps long-running agent conversations within a model's
// context window by selectively discarding history while preserving task
// continuity.
//
// When a session's context size reaches a configured fraction of the usable
// window, the orchestrator chooses an anchor turn (a safe cut-point detected
// from task, error, and tool-usage signals), retains every turn from the
// anchor onward verbatim, and replaces everything before it with a
// deterministically synthesized summary. No model call is involved: the
// summary is rendered from facts extracted during a single scan of the
// discarded region, so compaction is reproducible, cheap, and safe to retry.
//
// # Usage
//
// Create a Compactor and run it once per completed agent turn:
//
//	compactor := compaction.New(&compaction.Config{
//	    ContextWindow:   200000,
//	    MaxOutputTokens: 16384,
//	}, logger)
//
//	result, err := compactor.Compact(turns, tracker.TotalInput())
//	if err != nil {
//	    return err
//	}
//	if result.Compacted() {
//	    turns = result.RetainedTurns
//	    tracker.ResetAfterCompaction(result.EstimatedTokensAfter())
//	}
//
// # Token accounting
//
// TokenTracker is the ground truth for "how full is the context window". Its
// input counter is the absolute size of the most recent call's context and is
// replaced on every update; output and billing counters are cumulative.
// Confusing the two produces order-of-magnitude overcounts, so the tracker
// owns the distinction rather than leaving it to callers.
//
// # System reminders
//
// Out-of-band reminder messages (project instructions, environment, git
// status) are partitioned away before compaction and reinserted at the start
// of the reconstructed stream. A replaced reminder is kept and marked
// superseded in metadata rather than deleted, keeping the provider's
// prompt-cache prefix stable.
//
// # Thread safety
//
// TokenTracker is safe for concurrent use. The Compactor holds no per-run
// state, but it must not be re-entered for the same session while a prior
// invocation is in flight; the session layer enforces this with a busy flag.
package compaction
