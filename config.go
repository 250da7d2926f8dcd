package okapi

import (
	"fmt"

	"github.com/okapi-ai/okapi/compaction"
	"github.com/okapi-ai/okapi/driver"
	"github.com/okapi-ai/okapi/hooks"
)

// ModelInfo contains model-specific parameters
type ModelInfo struct {
	MaxContextTokens int
	MaxOutputTokens  int
}

// KnownModels maps model IDs to their capabilities
var KnownModels = map[string]ModelInfo{
	// Claude 4 models
	"claude-sonnet-4-5-20250929": {MaxContextTokens: 200000, MaxOutputTokens: 16384},
	"claude-opus-4-5-20251101":   {MaxContextTokens: 200000, MaxOutputTokens: 16384},
	// Claude 3.5 models
	"claude-3-5-sonnet-20241022": {MaxContextTokens: 200000, MaxOutputTokens: 8192},
	"claude-3-5-haiku-20241022":  {MaxContextTokens: 200000, MaxOutputTokens: 8192},
	// OpenAI models
	"gpt-4o":      {MaxContextTokens: 128000, MaxOutputTokens: 16384},
	"gpt-4o-mini": {MaxContextTokens: 128000, MaxOutputTokens: 16384},
	"gpt-4.1":     {MaxContextTokens: 128000, MaxOutputTokens: 32768},
}

// GetModelInfo returns model info, using sensible defaults for unknown models
func GetModelInfo(model string) ModelInfo {
	if info, ok := KnownModels[model]; ok {
		return info
	}
	// Sensible defaults for unknown models. MaxOutputTokens zero lets the
	// threshold calculator substitute its cap.
	return ModelInfo{MaxContextTokens: 200000, MaxOutputTokens: 0}
}

// Config holds the required configuration for a session.
//
// Example:
//
//	session, _ := okapi.NewSession(okapi.Config{
//	    Provider: okapi.ProviderAnthropic,
//	    Model:    "claude-sonnet-4-5-20250929",
//	})
type Config struct {
	// Provider is the model provider (required)
	Provider Provider

	// Model is the model ID to use (required)
	// Examples: "claude-sonnet-4-5-20250929", "gpt-4o"
	Model string
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !c.Provider.Valid() {
		return fmt.Errorf("%w: provider %q", ErrUnknownProvider, c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("%w: Model is required", ErrInvalidConfig)
	}

	return nil
}

// internalConfig holds the full session configuration including optional parameters
type internalConfig struct {
	// Required from Config
	provider Provider
	model    string

	// Compaction configuration
	autoCompaction        bool
	thresholdRatio        float64
	autocompactBuffer     int
	syntheticAnchorOffset int
	lowCompressionRatio   float64
	maxContextTokens      int
	maxOutputTokens       int
	legacySummarizer      compaction.SummarizerFunc

	// Collaborators
	logger compaction.Logger
	hooks  *hooks.Registry
	store  driver.Store
}

// newInternalConfig creates a new internal config from the public Config
func newInternalConfig(cfg Config) *internalConfig {
	modelInfo := GetModelInfo(cfg.Model)

	return &internalConfig{
		provider: cfg.Provider,
		model:    cfg.Model,

		// Compaction defaults; zero values below fall through to the
		// compaction package defaults.
		autoCompaction:   true,
		maxContextTokens: modelInfo.MaxContextTokens,
		maxOutputTokens:  modelInfo.MaxOutputTokens,

		hooks: hooks.NewRegistry(),
	}
}

// compactionConfig assembles the compaction package configuration.
func (c *internalConfig) compactionConfig() *compaction.Config {
	cfg := &compaction.Config{
		ContextWindow:         c.maxContextTokens,
		MaxOutputTokens:       c.maxOutputTokens,
		AutocompactBuffer:     c.autocompactBuffer,
		ThresholdRatio:        c.thresholdRatio,
		SyntheticAnchorOffset: c.syntheticAnchorOffset,
		LowCompressionRatio:   c.lowCompressionRatio,
		Summarizer:            c.legacySummarizer,
	}
	cfg.ApplyDefaults()
	return cfg
}
