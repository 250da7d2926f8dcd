package hooks

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/okapi-ai/okapi/compaction"
)

// LoggingHooks provides built-in logging hooks for observability
type LoggingHooks struct {
	logger *log.Logger
}

// NewLoggingHooks creates logging hooks with the provided logger
func NewLoggingHooks(logger *log.Logger) *LoggingHooks {
	return &LoggingHooks{logger: logger}
}

// DefaultLoggingHooks creates logging hooks with default logger
func DefaultLoggingHooks() *LoggingHooks {
	return &LoggingHooks{logger: log.Default()}
}

// BeforeCompaction logs before context compaction
func (h *LoggingHooks) BeforeCompaction(ctx context.Context, sessionID uuid.UUID) error {
	h.logger.Printf("[Okapi] Starting context compaction for session %s", sessionID)
	return nil
}

// AfterCompaction logs after context compaction
func (h *LoggingHooks) AfterCompaction(ctx context.Context, metrics *compaction.Metrics) error {
	reduction := float64(0)
	if metrics.TokensBefore > 0 {
		reduction = float64(metrics.TokensBefore-metrics.TokensAfter) / float64(metrics.TokensBefore) * 100
	}

	h.logger.Printf("[Okapi] Compaction complete: %d → %d tokens (%.1f%% reduction, %d → %d turns, anchor: %s)",
		metrics.TokensBefore, metrics.TokensAfter, reduction,
		metrics.TurnsBefore, metrics.TurnsAfter, metrics.AnchorType)

	for _, warning := range metrics.Warnings {
		h.logger.Printf("[Okapi] Compaction warning: %s", warning)
	}
	return nil
}

// UsageUpdated logs the tracked context size after a usage update
func (h *LoggingHooks) UsageUpdated(ctx context.Context, snap compaction.TokenSnapshot) error {
	h.logger.Printf("[Okapi] Usage: input=%d (cache read %d, cache creation %d), output=%d total",
		snap.InputTokens, snap.CacheReadInputTokens, snap.CacheCreationInputTokens, snap.OutputTokens)
	return nil
}

// MetricsHooks collects metrics for monitoring
type MetricsHooks struct {
	OnMetric func(name string, value float64, tags map[string]string)
}

// NewMetricsHooks creates metrics collection hooks
func NewMetricsHooks(onMetric func(string, float64, map[string]string)) *MetricsHooks {
	return &MetricsHooks{OnMetric: onMetric}
}

// AfterCompaction records compaction metrics
func (h *MetricsHooks) AfterCompaction(ctx context.Context, metrics *compaction.Metrics) error {
	tags := map[string]string{"anchor_type": string(metrics.AnchorType)}

	h.OnMetric("agent.compaction.tokens_before", float64(metrics.TokensBefore), tags)
	h.OnMetric("agent.compaction.tokens_after", float64(metrics.TokensAfter), tags)
	h.OnMetric("agent.compaction.compression_ratio", metrics.CompressionRatio, tags)
	h.OnMetric("agent.compaction.warnings", float64(len(metrics.Warnings)), tags)

	return nil
}

// UsageUpdated records token usage metrics
func (h *MetricsHooks) UsageUpdated(ctx context.Context, snap compaction.TokenSnapshot) error {
	h.OnMetric("agent.tokens.input", float64(snap.InputTokens), nil)
	h.OnMetric("agent.tokens.output", float64(snap.OutputTokens), nil)
	h.OnMetric("agent.tokens.billed_input", float64(snap.CumulativeBilledInput), nil)
	h.OnMetric("agent.tokens.billed_output", float64(snap.CumulativeBilledOutput), nil)

	return nil
}
