package compaction

import (
	"fmt"
)

// Default configuration values based on production patterns.
const (
	// DefaultAutocompactBuffer is the fixed safety margin reserved below the
	// hard context limit so compaction triggers before the provider rejects
	// a request as too long.
	DefaultAutocompactBuffer = 50000

	// DefaultThresholdRatio triggers compaction at 90% of usable context.
	DefaultThresholdRatio = 0.9

	// DefaultMaxOutputTokenCap bounds the output reservation; models that
	// advertise very large max-output values would otherwise starve the
	// history budget. Also used as the fallback when a model reports no
	// max-output value at all.
	DefaultMaxOutputTokenCap = 32000

	// DefaultSyntheticAnchorOffset is how many turns from the end the
	// synthetic fallback anchor is placed when no natural anchor is found.
	DefaultSyntheticAnchorOffset = 3

	// DefaultLowCompressionRatio flags compactions that reclaim too little.
	// A tokens-after/tokens-before ratio above this is reported as a
	// warning; the compaction is still applied.
	DefaultLowCompressionRatio = 0.6

	// DefaultContextWindow is a conservative context window for unknown models.
	DefaultContextWindow = 200000
)

// Config holds compaction configuration.
type Config struct {
	// ContextWindow is the model's context window in tokens.
	// Default: 200000
	ContextWindow int

	// MaxOutputTokens is the model's max-output reservation. Values above
	// MaxOutputTokenCap are capped; zero means unknown and falls back to
	// MaxOutputTokenCap.
	// Default: 0 (use MaxOutputTokenCap)
	MaxOutputTokens int

	// MaxOutputTokenCap bounds MaxOutputTokens in the usable-context
	// computation.
	// Default: 32000
	MaxOutputTokenCap int

	// AutocompactBuffer is the safety margin subtracted from the context
	// window before the trigger threshold is computed.
	// Default: 50000
	AutocompactBuffer int

	// ThresholdRatio is the fraction (0.0-1.0) of usable context at which
	// compaction triggers.
	// Default: 0.9
	ThresholdRatio float64

	// SyntheticAnchorOffset is the fallback anchor position, counted back
	// from the end of history, used when no natural anchor is detected.
	// Default: 3
	SyntheticAnchorOffset int

	// LowCompressionRatio is the tokens-after/tokens-before ratio above
	// which a completed compaction is flagged as ineffective.
	// Default: 0.6
	LowCompressionRatio float64

	// Summarizer is a legacy callback slot for an LLM-backed summary path.
	// It is accepted for interface compatibility and never invoked; the
	// synthesizer is deterministic. See Synthesize.
	Summarizer SummarizerFunc
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		ContextWindow:         DefaultContextWindow,
		MaxOutputTokenCap:     DefaultMaxOutputTokenCap,
		AutocompactBuffer:     DefaultAutocompactBuffer,
		ThresholdRatio:        DefaultThresholdRatio,
		SyntheticAnchorOffset: DefaultSyntheticAnchorOffset,
		LowCompressionRatio:   DefaultLowCompressionRatio,
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.ContextWindow <= 0 {
		return fmt.Errorf("%w: context_window must be positive, got %d", ErrInvalidConfig, c.ContextWindow)
	}

	if c.MaxOutputTokens < 0 {
		return fmt.Errorf("%w: max_output_tokens must be non-negative, got %d", ErrInvalidConfig, c.MaxOutputTokens)
	}

	if c.MaxOutputTokenCap <= 0 {
		return fmt.Errorf("%w: max_output_token_cap must be positive, got %d", ErrInvalidConfig, c.MaxOutputTokenCap)
	}

	if c.AutocompactBuffer < 0 {
		return fmt.Errorf("%w: autocompact_buffer must be non-negative, got %d", ErrInvalidConfig, c.AutocompactBuffer)
	}

	if c.ThresholdRatio <= 0 || c.ThresholdRatio > 1.0 {
		return fmt.Errorf("%w: threshold_ratio must be between 0 and 1, got %f", ErrInvalidConfig, c.ThresholdRatio)
	}

	if c.SyntheticAnchorOffset <= 0 {
		return fmt.Errorf("%w: synthetic_anchor_offset must be positive, got %d", ErrInvalidConfig, c.SyntheticAnchorOffset)
	}

	if c.LowCompressionRatio <= 0 || c.LowCompressionRatio > 1.0 {
		return fmt.Errorf("%w: low_compression_ratio must be between 0 and 1, got %f", ErrInvalidConfig, c.LowCompressionRatio)
	}

	return nil
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.ContextWindow == 0 {
		c.ContextWindow = DefaultContextWindow
	}
	if c.MaxOutputTokenCap == 0 {
		c.MaxOutputTokenCap = DefaultMaxOutputTokenCap
	}
	if c.AutocompactBuffer == 0 {
		c.AutocompactBuffer = DefaultAutocompactBuffer
	}
	if c.ThresholdRatio == 0 {
		c.ThresholdRatio = DefaultThresholdRatio
	}
	if c.SyntheticAnchorOffset == 0 {
		c.SyntheticAnchorOffset = DefaultSyntheticAnchorOffset
	}
	if c.LowCompressionRatio == 0 {
		c.LowCompressionRatio = DefaultLowCompressionRatio
	}
	// MaxOutputTokens stays zero when unknown; the threshold calculator
	// substitutes the cap.
}
