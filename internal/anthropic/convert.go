package anthropic

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/okapi-ai/okapi/compaction"
)

// TurnsToMessageParams renders turns as Anthropic message parameters for the
// request that follows a compaction. Each turn becomes an assistant message
// carrying its text and tool calls, followed by a user message with the tool
// results when any exist.
func TurnsToMessageParams(turns []compaction.ConversationTurn) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(turns)*2)

	for i := range turns {
		turn := &turns[i]

		assistantBlocks := make([]anthropic.ContentBlockParamUnion, 0, 1+len(turn.ToolCalls))
		if turn.Text != "" {
			assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(turn.Text))
		}
		for _, call := range turn.ToolCalls {
			// API requires a dictionary, not null
			input := call.Arguments
			if input == nil {
				input = map[string]any{}
			}
			assistantBlocks = append(assistantBlocks, anthropic.NewToolUseBlock(call.ID, input, call.Name))
		}
		if len(assistantBlocks) > 0 {
			params = append(params, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: assistantBlocks,
			})
		}

		if len(turn.ToolResults) > 0 {
			resultBlocks := make([]anthropic.ContentBlockParamUnion, 0, len(turn.ToolResults))
			for _, result := range turn.ToolResults {
				resultBlocks = append(resultBlocks, anthropic.NewToolResultBlock(result.ToolCallID, result.Content, result.IsError))
			}
			params = append(params, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: resultBlocks,
			})
		}
	}

	return params
}

// SummaryMessageParam wraps a synthesized summary as the opening user message
// of the post-compaction request.
func SummaryMessageParam(summary string) anthropic.MessageParam {
	return anthropic.NewUserMessage(anthropic.NewTextBlock(summary))
}

// BuildSystemPrompt creates system prompt blocks.
func BuildSystemPrompt(systemPrompt string) []anthropic.TextBlockParam {
	return []anthropic.TextBlockParam{
		{
			Type: "text",
			Text: systemPrompt,
		},
	}
}

// TurnFromMessage converts an accumulated assistant message back into a turn.
// Tool results arrive in the following user message and are attached by the
// caller once available.
func TurnFromMessage(index int, msg *anthropic.Message) compaction.ConversationTurn {
	turn := compaction.ConversationTurn{Index: index}

	var text strings.Builder
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			var args map[string]any
			if len(b.Input) > 0 {
				_ = json.Unmarshal(b.Input, &args)
			}
			turn.ToolCalls = append(turn.ToolCalls, compaction.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: args,
			})
		}
	}
	turn.Text = text.String()
	return turn
}

// IsContextOverflowError checks whether an API error indicates the request
// exceeded the model's context window.
func IsContextOverflowError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return false
	}

	errStr := strings.ToLower(apiErr.Error())
	return strings.Contains(errStr, "max_tokens") ||
		strings.Contains(errStr, "context_length") ||
		strings.Contains(errStr, "token limit") ||
		strings.Contains(errStr, "prompt is too long")
}

// IsRetryableError checks if an error should be retried.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return false
	}

	// Retry on rate limits and server errors
	return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
}
