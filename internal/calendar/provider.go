package calendar

import (
	"context"
	"time"
)

// Provider defines the provider-agnostic calendar interface used by business logic.
//
// Rules:
// - No vendor SDK calls outside calendar adapters.
// - The core only depends on this interface, never on vendor types.
// - Keep request/response types provider-agnostic.
type Provider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	// FreeBusy returns busy intervals for a calendar within [from, to).
	FreeBusy(ctx context.Context, calendarID string, from, to time.Time) ([]BusyInterval, error)

	// CreateEvent commits a booking to the vendor calendar.
	CreateEvent(ctx context.Context, calendarID string, req EventRequest) (EventResult, error)
}

type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// EventRequest is created only after a slot has been selected.
type EventRequest struct {
	Title string `json:"title"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	AttendeeName  string `json:"attendee_name,omitempty"`
	AttendeePhone string `json:"attendee_phone,omitempty"`
	AttendeeEmail string `json:"attendee_email,omitempty"`
	ContactID     string `json:"contact_id,omitempty"`
}

type EventResult struct {
	// ExternalID is the vendor's event identifier.
	ExternalID string `json:"external_id"`
}

// Slot is produced fresh per availability query; never persisted.
type Slot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}
