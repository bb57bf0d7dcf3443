package booking

import (
	"time"

	"converso-platform/internal/calendar"
)

// State is the booking flow state machine position.
//
//	idle -> slots_offered -> confirmed (terminal)
//	idle -> slots_offered -> failed    (terminal)
//
// Terminal states are not persisted; the stored flow is deleted on completion.
type State string

const (
	StateIdle         State = "idle"
	StateSlotsOffered State = "slots_offered"
	StateConfirmed    State = "confirmed"
	StateFailed       State = "failed"
)

// FlowState is the per-conversation flow snapshot persisted between turns.
// A process restart must not lose an in-flight slot offer.
type FlowState struct {
	WorkspaceID    string `json:"workspace_id"`
	ConversationID string `json:"conversation_id"`

	State State `json:"state"`

	// Slots are the slots offered to the user, at most maxOffered.
	// Indices in Book refer to this list.
	Slots []calendar.Slot `json:"slots"`

	Language string `json:"language"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Attendee is who the appointment is for.
type Attendee struct {
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	ContactID string `json:"contact_id,omitempty"`
}

// Result is what one flow step hands back to the orchestrator.
type Result struct {
	State   State  `json:"state"`
	Message string `json:"message"`

	Slots []calendar.Slot `json:"slots,omitempty"`

	// EventID is set only on a confirmed booking.
	EventID string `json:"event_id,omitempty"`

	ShouldEscalate bool `json:"should_escalate,omitempty"`
}
