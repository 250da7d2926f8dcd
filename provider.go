package okapi

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"

	"github.com/okapi-ai/okapi/compaction"
	anthropicinternal "github.com/okapi-ai/okapi/internal/anthropic"
	openaiinternal "github.com/okapi-ai/okapi/internal/openai"
)

// Provider identifies a model provider. The set is closed; usage extraction
// dispatches over it with a single exhaustive switch, one implementation per
// provider.
type Provider string

const (
	// ProviderAnthropic routes usage extraction through the Anthropic SDK types.
	ProviderAnthropic Provider = "anthropic"

	// ProviderOpenAI routes usage extraction through the OpenAI SDK types.
	ProviderOpenAI Provider = "openai"
)

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderAnthropic, ProviderOpenAI:
		return true
	}
	return false
}

// ExtractUsage decodes a provider-native usage payload (the raw JSON usage
// object from a response or stream event) into normalized usage.
func (p Provider) ExtractUsage(raw json.RawMessage) (compaction.Usage, error) {
	switch p {
	case ProviderAnthropic:
		return anthropicinternal.UsageFromJSON(raw)
	case ProviderOpenAI:
		return openaiinternal.UsageFromJSON(raw)
	default:
		return compaction.Usage{}, fmt.Errorf("%w: %q", ErrUnknownProvider, p)
	}
}

// UsageFromAnthropic converts an Anthropic SDK usage value.
func UsageFromAnthropic(u anthropic.Usage) compaction.Usage {
	return anthropicinternal.ExtractUsage(u)
}

// UsageFromOpenAI converts an OpenAI SDK usage value.
func UsageFromOpenAI(u openai.CompletionUsage) compaction.Usage {
	return openaiinternal.ExtractUsage(u)
}
