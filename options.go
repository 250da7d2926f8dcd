package okapi

import (
	"github.com/okapi-ai/okapi/compaction"
	"github.com/okapi-ai/okapi/driver"
	"github.com/okapi-ai/okapi/hooks"
)

// Option is a functional option for configuring a Session
type Option func(*internalConfig) error

// WithAutoCompaction enables or disables automatic context compaction
func WithAutoCompaction(enabled bool) Option {
	return func(c *internalConfig) error {
		c.autoCompaction = enabled
		return nil
	}
}

// WithThresholdRatio sets the fraction of usable context at which compaction
// triggers (0.0-1.0, default 0.9)
func WithThresholdRatio(ratio float64) Option {
	return func(c *internalConfig) error {
		if ratio <= 0 || ratio > 1 {
			return NewAgentError("WithThresholdRatio", ErrInvalidConfig).
				WithContext("ratio", ratio).
				WithContext("reason", "ratio must be between 0 and 1")
		}
		c.thresholdRatio = ratio
		return nil
	}
}

// WithAutocompactBuffer overrides the safety margin reserved below the hard
// context limit (default 50000 tokens)
func WithAutocompactBuffer(tokens int) Option {
	return func(c *internalConfig) error {
		if tokens < 0 {
			return NewAgentError("WithAutocompactBuffer", ErrInvalidConfig).
				WithContext("tokens", tokens).
				WithContext("reason", "buffer must be non-negative")
		}
		c.autocompactBuffer = tokens
		return nil
	}
}

// WithSyntheticAnchorOffset sets the fallback anchor position counted back
// from the end of history (default 3 turns)
func WithSyntheticAnchorOffset(turns int) Option {
	return func(c *internalConfig) error {
		if turns <= 0 {
			return NewAgentError("WithSyntheticAnchorOffset", ErrInvalidConfig).
				WithContext("turns", turns).
				WithContext("reason", "offset must be positive")
		}
		c.syntheticAnchorOffset = turns
		return nil
	}
}

// WithLowCompressionRatio sets the tokens-after/tokens-before ratio above
// which a compaction is flagged as ineffective (default 0.6)
func WithLowCompressionRatio(ratio float64) Option {
	return func(c *internalConfig) error {
		if ratio <= 0 || ratio > 1 {
			return NewAgentError("WithLowCompressionRatio", ErrInvalidConfig).
				WithContext("ratio", ratio).
				WithContext("reason", "ratio must be between 0 and 1")
		}
		c.lowCompressionRatio = ratio
		return nil
	}
}

// WithMaxContextTokens overrides the model's default context window size
func WithMaxContextTokens(tokens int) Option {
	return func(c *internalConfig) error {
		c.maxContextTokens = tokens
		return nil
	}
}

// WithMaxOutputTokens overrides the model's max-output reservation
func WithMaxOutputTokens(tokens int) Option {
	return func(c *internalConfig) error {
		c.maxOutputTokens = tokens
		return nil
	}
}

// WithLegacySummarizer installs the legacy LLM summarizer callback slot.
// The callback is accepted for compatibility and never invoked; summaries
// are synthesized deterministically. See compaction.SummarizerFunc.
func WithLegacySummarizer(fn compaction.SummarizerFunc) Option {
	return func(c *internalConfig) error {
		c.legacySummarizer = fn
		return nil
	}
}

// WithLogger sets the logger used by the session and its compactor
func WithLogger(logger compaction.Logger) Option {
	return func(c *internalConfig) error {
		c.logger = logger
		return nil
	}
}

// WithHooks replaces the session's hook registry
func WithHooks(registry *hooks.Registry) Option {
	return func(c *internalConfig) error {
		c.hooks = registry
		return nil
	}
}

// WithStore attaches a persistence store for compaction events, archived
// turns, and token state
func WithStore(store driver.Store) Option {
	return func(c *internalConfig) error {
		c.store = store
		return nil
	}
}
