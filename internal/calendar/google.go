package calendar

import (
	"context"
	"errors"
	"time"
)

// GoogleProvider is a placeholder implementation.
// TODO: wire in Google Calendar REST client + OAuth credentials from config.
type GoogleProvider struct{}

func NewGoogleProvider() *GoogleProvider { return &GoogleProvider{} }

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) HealthCheck(ctx context.Context) error {
	// TODO: call a lightweight Calendar API endpoint.
	return nil
}

func (p *GoogleProvider) FreeBusy(ctx context.Context, calendarID string, from, to time.Time) ([]BusyInterval, error) {
	return nil, errors.New("calendar: google FreeBusy not implemented")
}

func (p *GoogleProvider) CreateEvent(ctx context.Context, calendarID string, req EventRequest) (EventResult, error) {
	return EventResult{}, errors.New("calendar: google CreateEvent not implemented")
}
