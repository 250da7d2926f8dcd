package streaming

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/okapi-ai/okapi/compaction"
)

// Accumulator accumulates streaming events into a complete turn
type Accumulator struct {
	messageID    string
	model        string
	role         string
	content      []contentBlock
	stopReason   string
	stopSequence string
	usage        compaction.Usage
	complete     bool

	// Internal state for building content blocks
	currentBlocks map[int]*contentBlock
}

type contentBlock struct {
	Type  string
	Index int

	// Text content
	Text string

	// Tool use content
	ToolID    string
	ToolName  string
	ToolInput strings.Builder
}

// NewAccumulator creates a new stream accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{
		content:       []contentBlock{},
		currentBlocks: make(map[int]*contentBlock),
	}
}

// ProcessAnthropicEvent processes an event from the Anthropic streaming API
// and returns the translated event, or nil for events with no translation.
func (a *Accumulator) ProcessAnthropicEvent(event anthropic.MessageStreamEventUnion) Event {
	switch e := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		a.messageID = e.Message.ID
		a.model = string(e.Message.Model)
		a.role = string(e.Message.Role)
		a.usage.InputTokens = int(e.Message.Usage.InputTokens)
		a.usage.CacheReadInputTokens = int(e.Message.Usage.CacheReadInputTokens)
		a.usage.CacheCreationInputTokens = int(e.Message.Usage.CacheCreationInputTokens)
		return &MessageStartEvent{MessageID: a.messageID, Model: a.model}

	case anthropic.ContentBlockStartEvent:
		block := &contentBlock{
			Index: int(e.Index),
		}

		switch content := e.ContentBlock.AsAny().(type) {
		case anthropic.TextBlock:
			block.Type = "text"
			block.Text = content.Text

		case anthropic.ToolUseBlock:
			block.Type = "tool_use"
			block.ToolID = content.ID
			block.ToolName = content.Name
		}

		a.currentBlocks[int(e.Index)] = block
		if block.Type == "tool_use" {
			return &ToolUseStartEvent{Index: block.Index, ToolID: block.ToolID, ToolName: block.ToolName}
		}
		return nil

	case anthropic.ContentBlockDeltaEvent:
		block, exists := a.currentBlocks[int(e.Index)]
		if !exists {
			return nil
		}

		switch delta := e.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			block.Text += delta.Text
			return &TextDeltaEvent{Index: block.Index, Delta: delta.Text}

		case anthropic.InputJSONDelta:
			block.ToolInput.WriteString(delta.PartialJSON)
			return &ToolInputDeltaEvent{Index: block.Index, Delta: delta.PartialJSON}
		}
		return nil

	case anthropic.ContentBlockStopEvent:
		block, exists := a.currentBlocks[int(e.Index)]
		if exists {
			a.content = append(a.content, *block)
			delete(a.currentBlocks, int(e.Index))
		}
		return &ContentBlockStopEvent{Index: int(e.Index)}

	case anthropic.MessageDeltaEvent:
		a.stopReason = string(e.Delta.StopReason)
		a.stopSequence = e.Delta.StopSequence
		// Output counts in message_delta are cumulative, not incremental
		a.usage.OutputTokens = int(e.Usage.OutputTokens)
		return &MessageDeltaEvent{
			StopReason:   a.stopReason,
			StopSequence: a.stopSequence,
			OutputTokens: a.usage.OutputTokens,
		}

	case anthropic.MessageStopEvent:
		a.complete = true
		return &MessageStopEvent{}

	default:
		// Ignore unknown events
		return nil
	}
}

// Usage returns the usage accumulated so far. Until Complete reports true the
// value is a partial, display-only snapshot.
func (a *Accumulator) Usage() compaction.Usage {
	return a.usage
}

// Complete reports whether the message_stop event has arrived.
func (a *Accumulator) Complete() bool {
	return a.complete
}

// StopReason returns the stop reason reported by the final message delta.
func (a *Accumulator) StopReason() string {
	return a.stopReason
}

// Turn converts the accumulated message into a conversation turn with the
// given index. Tool results arrive out of band and are attached by the caller.
func (a *Accumulator) Turn(index int) compaction.ConversationTurn {
	turn := compaction.ConversationTurn{
		Index:     index,
		CreatedAt: time.Now().UTC(),
	}

	var text strings.Builder
	for i := range a.content {
		block := &a.content[i]
		switch block.Type {
		case "text":
			text.WriteString(block.Text)

		case "tool_use":
			// Handle empty tool input - default to empty object
			inputStr := block.ToolInput.String()
			if inputStr == "" {
				inputStr = "{}"
			}
			var args map[string]any
			_ = json.Unmarshal([]byte(inputStr), &args)
			turn.ToolCalls = append(turn.ToolCalls, compaction.ToolCall{
				ID:        block.ToolID,
				Name:      block.ToolName,
				Arguments: args,
			})
		}
	}
	turn.Text = text.String()
	return turn
}
