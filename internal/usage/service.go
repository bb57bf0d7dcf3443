package usage

import (
	"context"
	"errors"
	"time"

	"converso-platform/internal/quota"

	"github.com/google/uuid"
)

// Service records consumption. It never gates anything; quota checks happen
// before the work, recording happens after.
type Service struct {
	repo Repository
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Repository persists events and maintains the monthly counter projection
// read by internal/quota.
type Repository interface {
	AppendEvent(ctx context.Context, ev Event) error
	ListEvents(ctx context.Context, workspaceID string, from, to time.Time) ([]Event, error)
}

var ErrInvalidEvent = errors.New("usage: invalid event")

// MetricFor maps an event type to the counter metric it feeds.
func MetricFor(t EventType) quota.Metric {
	if t == EventCallMinute {
		return quota.MetricCallMinutes
	}
	return quota.MetricConversations
}

// RecordCallMinutes appends one CALL_MINUTE event worth minutes of talk time.
func (s *Service) RecordCallMinutes(ctx context.Context, workspaceID, conversationID string, minutes int64) (Event, error) {
	if workspaceID == "" || minutes <= 0 {
		return Event{}, ErrInvalidEvent
	}
	ev := Event{
		ID:             uuid.NewString(),
		WorkspaceID:    workspaceID,
		ConversationID: conversationID,
		Type:           EventCallMinute,
		Quantity:       minutes,
		Unit:           UnitMinutes,
		OccurredAt:     s.clock().UTC(),
	}
	if err := s.repo.AppendEvent(ctx, ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// RecordWhatsappConversation appends one WHATSAPP_CONVERSATION event.
// Quantity is always 1; a conversation is the billing unit, not a message.
func (s *Service) RecordWhatsappConversation(ctx context.Context, workspaceID, conversationID string) (Event, error) {
	if workspaceID == "" {
		return Event{}, ErrInvalidEvent
	}
	ev := Event{
		ID:             uuid.NewString(),
		WorkspaceID:    workspaceID,
		ConversationID: conversationID,
		Type:           EventWhatsappConversation,
		Quantity:       1,
		Unit:           UnitConversations,
		OccurredAt:     s.clock().UTC(),
	}
	if err := s.repo.AppendEvent(ctx, ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// ListEvents returns events for a workspace in [from, to).
func (s *Service) ListEvents(ctx context.Context, workspaceID string, from, to time.Time) ([]Event, error) {
	if workspaceID == "" || !to.After(from) {
		return nil, ErrInvalidEvent
	}
	return s.repo.ListEvents(ctx, workspaceID, from, to)
}
