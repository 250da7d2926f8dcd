package compaction

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okapi-ai/okapi/types"
)

// SystemReminderType identifies the class of an out-of-band reminder message.
type SystemReminderType string

const (
	// ReminderClaudeMd carries project instruction file content.
	ReminderClaudeMd SystemReminderType = "claude-md"

	// ReminderEnvironment carries working directory and platform details.
	ReminderEnvironment SystemReminderType = "environment"

	// ReminderGitStatus carries repository state.
	ReminderGitStatus SystemReminderType = "git-status"

	// ReminderTokenStatus carries context usage information.
	ReminderTokenStatus SystemReminderType = "token-status"
)

// reminderTypeOrder fixes the position of reinserted reminders so the head of
// the reconstructed stream is stable across compactions.
var reminderTypeOrder = []SystemReminderType{
	ReminderClaudeMd,
	ReminderEnvironment,
	ReminderGitStatus,
	ReminderTokenStatus,
}

// Metadata keys on reminder messages. Supersession is tracked in metadata,
// never by rewriting message content: rewriting or removing early messages
// would invalidate the provider's prompt-cache prefix.
const (
	reminderMetaType       = "system_reminder_type"
	reminderMetaSuperseded = "system_reminder_superseded"
)

// NewReminderMessage builds a system reminder message of the given type.
func NewReminderMessage(rtype SystemReminderType, content string) *types.Message {
	now := time.Now().UTC()
	return &types.Message{
		ID:   uuid.NewString(),
		Role: types.RoleSystem,
		Content: []types.ContentBlock{{
			Type: types.ContentTypeText,
			Text: fmt.Sprintf("<system-reminder type=%q>\n%s\n</system-reminder>", string(rtype), content),
		}},
		Metadata:  map[string]any{reminderMetaType: string(rtype)},
		CreatedAt: now,
	}
}

// ReminderTypeOf returns the reminder type of msg, or false if msg is not a
// system reminder.
func ReminderTypeOf(msg *types.Message) (SystemReminderType, bool) {
	if msg == nil || msg.Metadata == nil {
		return "", false
	}
	raw, ok := msg.Metadata[reminderMetaType].(string)
	if !ok || raw == "" {
		return "", false
	}
	return SystemReminderType(raw), true
}

// IsSuperseded reports whether a newer reminder of the same type exists.
func IsSuperseded(msg *types.Message) bool {
	if msg == nil || msg.Metadata == nil {
		return false
	}
	superseded, _ := msg.Metadata[reminderMetaSuperseded].(bool)
	return superseded
}

// PartitionForCompaction splits the message stream into reminders and
// compactable messages. Reminders are never passed into turn selection or
// summarization. Both partitions preserve original order.
func PartitionForCompaction(msgs []*types.Message) (reminders, compactable []*types.Message) {
	for _, msg := range msgs {
		if _, ok := ReminderTypeOf(msg); ok {
			reminders = append(reminders, msg)
		} else {
			compactable = append(compactable, msg)
		}
	}
	return reminders, compactable
}

// AppendReminder adds a fresh reminder of the given type to the stream. Any
// existing non-superseded reminder of the same type is kept in place and
// marked superseded; nothing is deleted or reordered.
func AppendReminder(msgs []*types.Message, rtype SystemReminderType, content string) []*types.Message {
	for _, msg := range msgs {
		if t, ok := ReminderTypeOf(msg); ok && t == rtype && !IsSuperseded(msg) {
			if msg.Metadata == nil {
				msg.Metadata = map[string]any{reminderMetaType: string(t)}
			}
			msg.Metadata[reminderMetaSuperseded] = true
		}
	}
	return append(msgs, NewReminderMessage(rtype, content))
}

// CountSystemRemindersByType counts every generation of the given reminder
// type, superseded or not.
func CountSystemRemindersByType(msgs []*types.Message, rtype SystemReminderType) int {
	count := 0
	for _, msg := range msgs {
		if t, ok := ReminderTypeOf(msg); ok && t == rtype {
			count++
		}
	}
	return count
}

// ActiveReminders returns the latest non-superseded reminder of each type,
// ordered by the fixed type order.
func ActiveReminders(msgs []*types.Message) []*types.Message {
	latest := make(map[SystemReminderType]*types.Message)
	for _, msg := range msgs {
		if t, ok := ReminderTypeOf(msg); ok && !IsSuperseded(msg) {
			latest[t] = msg
		}
	}

	active := make([]*types.Message, 0, len(latest))
	for _, t := range reminderTypeOrder {
		if msg, ok := latest[t]; ok {
			active = append(active, msg)
		}
	}
	return active
}

// ReinsertReminders places the active reminders at the start of the
// reconstructed stream, ahead of the remaining messages, so reminder position
// is stable across compactions.
func ReinsertReminders(msgs, rest []*types.Message) []*types.Message {
	active := ActiveReminders(msgs)
	out := make([]*types.Message, 0, len(active)+len(rest))
	out = append(out, active...)
	out = append(out, rest...)
	return out
}
