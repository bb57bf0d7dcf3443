package conversation

import "time"

// Conversation is a tenant-scoped message thread with one contact on one channel.
//
// Multi-tenant invariant: WorkspaceID is required on every row.
//
// Messages are append-only; every derived analysis is recomputed from them on
// demand and never persisted back onto the thread.

type Conversation struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`
	ContactID   string `json:"contact_id,omitempty" db:"contact_id"`

	// ContactPhone is the channel address of the contact (E.164 for both
	// whatsapp and phone). Channel adapters key inbound traffic on it.
	ContactPhone string `json:"contact_phone,omitempty" db:"contact_phone"`

	Channel ChannelType `json:"channel" db:"channel"`

	Status Status `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type ChannelType string

const (
	ChannelWhatsapp ChannelType = "whatsapp"
	ChannelPhone    ChannelType = "phone"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusHandedOff Status = "handed_off"
	StatusClosed    Status = "closed"
)

// Message is one immutable entry in a conversation.
// Direction is relative to the workspace: inbound comes from the contact,
// outbound is what the agent (or a human operator) sent.
type Message struct {
	ID             string `json:"id" db:"id"`
	WorkspaceID    string `json:"workspace_id" db:"workspace_id"`
	ConversationID string `json:"conversation_id" db:"conversation_id"`

	Direction Direction `json:"direction" db:"direction"`
	Content   string    `json:"content" db:"content"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)
