package compaction

import (
	"time"
)

// Logger interface for compaction logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a no-op implementation of Logger.
type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}

// State is the orchestrator's position in its state machine:
//
//	Idle → Evaluating → (NotNeeded | Selecting → Synthesizing → Completed) | Failed
type State string

const (
	StateIdle         State = "idle"
	StateEvaluating   State = "evaluating"
	StateSelecting    State = "selecting"
	StateSynthesizing State = "synthesizing"
	StateCompleted    State = "completed"
	StateNotNeeded    State = "not_needed"
	StateFailed       State = "failed"
)

// Metrics describes what a compaction run did to the history.
type Metrics struct {
	// TurnsBefore and TurnsAfter are history lengths around the run.
	TurnsBefore int
	TurnsAfter  int

	// TokensBefore and TokensAfter are estimated history footprints.
	TokensBefore int
	TokensAfter  int

	// CompressionRatio is TokensAfter / TokensBefore.
	CompressionRatio float64

	// AnchorType records which signal chose the cut-point.
	AnchorType AnchorType

	// Warnings carries degraded-outcome flags. A non-empty list does not
	// mean the compaction failed.
	Warnings []Warning
}

// Result is the outcome of one orchestrator invocation. For StateNotNeeded
// and StateFailed, RetainedTurns is the original history unmodified and
// SummaryText is empty; the caller continues with pre-compaction history.
type Result struct {
	// State is the terminal state the run reached.
	State State

	// SummaryText replaces the discarded turn range.
	SummaryText string

	// RetainedTurns is the contiguous suffix kept verbatim, in original order.
	RetainedTurns []ConversationTurn

	// Metrics describes the run.
	Metrics Metrics

	// Duration is how long the run took.
	Duration time.Duration
}

// Compacted reports whether history was actually replaced.
func (r *Result) Compacted() bool {
	return r.State == StateCompleted
}

// Compactor orchestrates anchor detection, preservation extraction, turn
// selection, and summary synthesis into a single synchronous operation. It
// performs no network or disk I/O. A Compactor is stateless between calls
// and safe for concurrent use on distinct sessions; re-entry for the same
// session is the caller's responsibility to prevent.
type Compactor struct {
	config *Config
	logger Logger
}

// New creates a new Compactor with the given configuration.
// If config is nil, default configuration is used.
func New(config *Config, logger Logger) *Compactor {
	if config == nil {
		config = DefaultConfig()
	} else {
		config.ApplyDefaults()
	}

	if logger == nil {
		logger = noopLogger{}
	}

	return &Compactor{
		config: config,
		logger: logger,
	}
}

// NeedsCompaction reports whether the current context size has reached the
// compaction trigger.
func (c *Compactor) NeedsCompaction(totalInputTokens int) bool {
	return c.config.ShouldCompact(totalInputTokens)
}

// Compact runs the full state machine: evaluate the threshold, and if it has
// been reached, select turns and synthesize a summary. totalInputTokens is
// the tracker's current absolute context size.
//
// Every internal failure mode degrades to a usable result plus a warning; the
// only error return is structurally invalid input, rejected before compaction
// begins. The caller applies a StateCompleted result by replacing history and
// resetting its token tracker with EstimatedTokensAfter.
func (c *Compactor) Compact(turns []ConversationTurn, totalInputTokens int) (*Result, error) {
	return c.compact(turns, totalInputTokens, false)
}

// ForceCompact compacts regardless of the threshold. Used for user-initiated
// compaction commands.
func (c *Compactor) ForceCompact(turns []ConversationTurn) (*Result, error) {
	return c.compact(turns, 0, true)
}

func (c *Compactor) compact(turns []ConversationTurn, totalInputTokens int, force bool) (*Result, error) {
	start := time.Now()

	// Evaluating.
	if len(turns) == 0 {
		// No turns to operate on is "nothing to do", not a failure.
		c.logger.Debug("compaction skipped", "reason", "no turns")
		return c.notNeeded(turns, start), nil
	}

	if err := ValidateTurns(turns); err != nil {
		return nil, WrapError("Compact", err)
	}

	if !force && !c.config.ShouldCompact(totalInputTokens) {
		c.logger.Debug("compaction not needed",
			"total_input_tokens", totalInputTokens,
			"trigger_threshold", c.config.TriggerThreshold(),
		)
		return c.notNeeded(turns, start), nil
	}

	// Selecting.
	anchor := DetectAnchor(turns, c.config.SyntheticAnchorOffset)
	c.logger.Debug("anchor detected",
		"turn_index", anchor.TurnIndex,
		"anchor_type", anchor.Type,
		"confidence", anchor.Confidence,
	)

	budget := c.config.SummarizationBudget()
	sel := SelectTurns(turns, anchor, budget)

	if sel.StartIndex < 0 || sel.StartIndex >= len(turns) {
		c.logger.Error("turn selection produced an out-of-range boundary",
			"start_index", sel.StartIndex,
			"turns", len(turns),
		)
		return c.failed(turns, start), nil
	}

	if sel.StartIndex == 0 {
		// The anchor retains the entire history; there is nothing to fold
		// into a summary.
		c.logger.Debug("compaction skipped", "reason", "anchor retains full history")
		return c.notNeeded(turns, start), nil
	}

	var warnings []Warning
	if sel.UnableToFit {
		warnings = append(warnings, WarnSelectionUnableToFit)
		c.logger.Warn("retained tail exceeds budget even at a single turn",
			"retained_tokens", sel.RetainedTokens,
			"budget", budget,
		)
	}

	// Synthesizing.
	discarded := turns[:sel.StartIndex]
	retained := append([]ConversationTurn(nil), turns[sel.StartIndex:]...)

	pc := ExtractPreservation(discarded)
	stats := CollectDiscardStats(discarded)
	summary := Synthesize(pc, stats)

	if c.config.Summarizer != nil {
		// The legacy LLM summarizer slot is accepted but never invoked.
		c.logger.Debug("legacy summarizer configured; deterministic synthesis used instead")
	}

	// Completed.
	tokensBefore := SumTurnTokens(turns)
	tokensAfter := ApproximateTokens(summary) + sel.RetainedTokens

	ratio := 0.0
	if tokensBefore > 0 {
		ratio = float64(tokensAfter) / float64(tokensBefore)
	}
	if ratio > c.config.LowCompressionRatio {
		warnings = append(warnings, WarnLowCompressionRatio)
		c.logger.Warn("compaction reclaimed little space; consider starting a fresh conversation",
			"compression_ratio", ratio,
		)
	}

	result := &Result{
		State:         StateCompleted,
		SummaryText:   summary,
		RetainedTurns: retained,
		Metrics: Metrics{
			TurnsBefore:      len(turns),
			TurnsAfter:       len(retained),
			TokensBefore:     tokensBefore,
			TokensAfter:      tokensAfter,
			CompressionRatio: ratio,
			AnchorType:       anchor.Type,
			Warnings:         warnings,
		},
		Duration: time.Since(start),
	}

	c.logger.Info("compaction complete",
		"anchor_type", anchor.Type,
		"turns_before", result.Metrics.TurnsBefore,
		"turns_after", result.Metrics.TurnsAfter,
		"tokens_before", tokensBefore,
		"tokens_after", tokensAfter,
		"compression_ratio", ratio,
		"duration_ms", result.Duration.Milliseconds(),
	)

	return result, nil
}

// EstimatedTokensAfter is the fresh input estimate the caller should reset
// its token tracker with after applying the result.
func (r *Result) EstimatedTokensAfter() int {
	if r.State != StateCompleted {
		return r.Metrics.TokensBefore
	}
	return r.Metrics.TokensAfter
}

func (c *Compactor) notNeeded(turns []ConversationTurn, start time.Time) *Result {
	return &Result{
		State:         StateNotNeeded,
		RetainedTurns: turns,
		Metrics: Metrics{
			TurnsBefore:  len(turns),
			TurnsAfter:   len(turns),
			TokensBefore: SumTurnTokens(turns),
			TokensAfter:  SumTurnTokens(turns),
		},
		Duration: time.Since(start),
	}
}

func (c *Compactor) failed(turns []ConversationTurn, start time.Time) *Result {
	return &Result{
		State:         StateFailed,
		RetainedTurns: turns,
		Metrics: Metrics{
			TurnsBefore: len(turns),
			TurnsAfter:  len(turns),
			Warnings:    []Warning{WarnInternalInconsistency},
		},
		Duration: time.Since(start),
	}
}

// Config returns the compactor's configuration.
func (c *Compactor) Config() *Config {
	return c.config
}
