package agent

import (
	"converso-platform/internal/booking"
	"converso-platform/internal/classifier"
	"converso-platform/internal/conversation"
)

// AgentContext carries one orchestration call's identity. Never mutated.
type AgentContext struct {
	WorkspaceID string `json:"workspace_id"`
	AgentID     string `json:"agent_id"`

	ChannelType conversation.ChannelType `json:"channel_type"`

	ContactID      string `json:"contact_id,omitempty"`
	ContactPhone   string `json:"contact_phone,omitempty"`
	ContactName    string `json:"contact_name,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`

	// Language is "es" or "en"; empty defaults to Spanish.
	Language string `json:"language,omitempty"`
}

type Action string

const (
	ActionTransferToHuman Action = "transfer_to_human"
	ActionBookAppointment Action = "book_appointment"
)

// AgentResponse is the orchestrator's structured answer for one inbound
// message: the reply text plus side-effect instructions for the adapter.
type AgentResponse struct {
	Message string `json:"message"`

	Action Action `json:"action,omitempty"`

	BookingData *booking.Result      `json:"booking_data,omitempty"`
	Analysis    *classifier.Analysis `json:"analysis,omitempty"`

	ShouldEscalate   bool                        `json:"should_escalate,omitempty"`
	EscalationReason classifier.EscalationReason `json:"escalation_reason,omitempty"`
}

// BookingOutcome is the result of the slot-selection entry point.
type BookingOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	EventID string `json:"event_id,omitempty"`

	ShouldEscalate bool `json:"should_escalate,omitempty"`
}
