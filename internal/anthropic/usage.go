// Package anthropic adapts Anthropic SDK types to the compaction engine's
// normalized usage and turn representations.
package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/okapi-ai/okapi/compaction"
)

// ExtractUsage converts an Anthropic SDK usage value to normalized usage.
// The Anthropic API reports input_tokens exclusive of cache reads and cache
// creation, so all three fields carry through unchanged and the tracker sums
// them for the context-size view.
func ExtractUsage(u anthropic.Usage) compaction.Usage {
	return compaction.Usage{
		InputTokens:              int(u.InputTokens),
		OutputTokens:             int(u.OutputTokens),
		CacheReadInputTokens:     int(u.CacheReadInputTokens),
		CacheCreationInputTokens: int(u.CacheCreationInputTokens),
	}
}

// UsageFromJSON decodes a raw Anthropic usage object.
func UsageFromJSON(raw json.RawMessage) (compaction.Usage, error) {
	var u anthropic.Usage
	if err := json.Unmarshal(raw, &u); err != nil {
		return compaction.Usage{}, fmt.Errorf("failed to decode anthropic usage: %w", err)
	}
	return ExtractUsage(u), nil
}
