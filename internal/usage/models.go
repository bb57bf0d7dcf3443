package usage

import "time"

// EventType identifies what was consumed.
type EventType string

const (
	EventCallMinute           EventType = "CALL_MINUTE"
	EventWhatsappConversation EventType = "WHATSAPP_CONVERSATION"
)

// Unit strings stored alongside each event.
const (
	UnitMinutes       = "minutes"
	UnitConversations = "conversations"
)

// Event is one append-only usage record.
//
// Usage invariants:
// - Events are immutable once written; corrections are new events
// - Every event carries workspace_id; counters are per workspace+metric+month
type Event struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`

	// ConversationID links the event to the conversation that produced it.
	// Empty for events not tied to a conversation.
	ConversationID string `json:"conversation_id,omitempty" db:"conversation_id"`

	Type     EventType `json:"event_type" db:"event_type"`
	Quantity int64     `json:"quantity" db:"quantity"`
	Unit     string    `json:"unit" db:"unit"`

	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
}
