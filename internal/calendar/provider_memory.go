package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryProvider is an in-memory calendar useful for tests and early development.
// It is not intended for production use.

type MemoryProvider struct {
	mu     sync.Mutex
	busy   map[string][]BusyInterval
	events map[string][]EventRequest

	// CreateErr, when set, makes CreateEvent fail. Used to exercise
	// provider-failure paths.
	CreateErr error
	// FreeBusyErr, when set, makes FreeBusy fail.
	FreeBusyErr error
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		busy:   make(map[string][]BusyInterval),
		events: make(map[string][]EventRequest),
	}
}

func (p *MemoryProvider) Name() string { return "memory" }

func (p *MemoryProvider) HealthCheck(ctx context.Context) error { return nil }

func (p *MemoryProvider) AddBusy(calendarID string, b BusyInterval) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.busy[calendarID] = append(p.busy[calendarID], b)
}

func (p *MemoryProvider) Events(calendarID string) []EventRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventRequest, len(p.events[calendarID]))
	copy(out, p.events[calendarID])
	return out
}

func (p *MemoryProvider) FreeBusy(ctx context.Context, calendarID string, from, to time.Time) ([]BusyInterval, error) {
	if p.FreeBusyErr != nil {
		return nil, p.FreeBusyErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []BusyInterval
	for _, b := range p.busy[calendarID] {
		if b.Start.Before(to) && from.Before(b.End) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (p *MemoryProvider) CreateEvent(ctx context.Context, calendarID string, req EventRequest) (EventResult, error) {
	if p.CreateErr != nil {
		return EventResult{}, p.CreateErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[calendarID] = append(p.events[calendarID], req)
	// Booked time becomes busy for subsequent availability queries.
	p.busy[calendarID] = append(p.busy[calendarID], BusyInterval{Start: req.Start, End: req.End})
	return EventResult{ExternalID: uuid.NewString()}, nil
}
