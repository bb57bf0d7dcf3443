package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// UsageSummaryRequest requests aggregated consumption metrics.
// Workspace isolation: WorkspaceID is required.

type UsageSummaryRequest struct {
	WorkspaceID string    `json:"workspace_id"`
	Range       TimeRange `json:"range"`
}

type UsageSummary struct {
	WorkspaceID string `json:"workspace_id"`

	// Totals are summed from immutable usage events in the range.
	TotalCallMinutes   int64 `json:"total_call_minutes"`
	TotalConversations int64 `json:"total_conversations"`

	CallMinuteEvents   int `json:"call_minute_events"`
	ConversationEvents int `json:"conversation_events"`
}

// ConversationsSummaryRequest requests aggregated conversation metrics,
// optionally filtered by channel.

type ConversationsSummaryRequest struct {
	WorkspaceID string    `json:"workspace_id"`
	Range       TimeRange `json:"range"`
	Channel     string    `json:"channel,omitempty"`
}

type ConversationsSummary struct {
	WorkspaceID string `json:"workspace_id"`
	Channel     string `json:"channel,omitempty"`

	TotalConversations int `json:"total_conversations"`

	OpenConversations      int `json:"open_conversations"`
	HandedOffConversations int `json:"handed_off_conversations"`
	ClosedConversations    int `json:"closed_conversations"`

	WhatsappConversations int `json:"whatsapp_conversations"`
	PhoneConversations    int `json:"phone_conversations"`

	// BookedAppointments counts confirmed bookings in the range.
	BookedAppointments int `json:"booked_appointments"`

	// IntentCounts is the distribution of classified intents across the
	// matched conversations.
	IntentCounts map[string]int `json:"intent_counts,omitempty"`

	// EscalationRate is handed-off conversations over total.
	EscalationRate float64 `json:"escalation_rate"`
}
