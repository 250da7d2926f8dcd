// Package openai adapts OpenAI SDK types to the compaction engine's
// normalized usage representation.
package openai

import (
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/okapi-ai/okapi/compaction"
)

// ExtractUsage converts an OpenAI SDK usage value to normalized usage.
// OpenAI reports prompt_tokens inclusive of cached tokens, so cached tokens
// are split out into the cache-read field to keep TotalInput consistent
// across providers.
func ExtractUsage(u openai.CompletionUsage) compaction.Usage {
	cached := int(u.PromptTokensDetails.CachedTokens)
	return compaction.Usage{
		InputTokens:          int(u.PromptTokens) - cached,
		OutputTokens:         int(u.CompletionTokens),
		CacheReadInputTokens: cached,
	}
}

// UsageFromJSON decodes a raw OpenAI usage object.
func UsageFromJSON(raw json.RawMessage) (compaction.Usage, error) {
	var u openai.CompletionUsage
	if err := json.Unmarshal(raw, &u); err != nil {
		return compaction.Usage{}, fmt.Errorf("failed to decode openai usage: %w", err)
	}
	return ExtractUsage(u), nil
}
