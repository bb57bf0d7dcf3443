package reporting

import (
	"context"
	"errors"
	"time"

	"converso-platform/internal/classifier"
	"converso-platform/internal/conversation"
	"converso-platform/internal/usage"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
//
// IMPORTANT:
// - Methods must enforce workspace filtering.
// - Implementations should query immutable sources when possible (usage events, audit).

type Repository interface {
	ListUsageEvents(ctx context.Context, workspaceID string, from, to time.Time) ([]usage.Event, error)
	ListConversations(ctx context.Context, workspaceID string, from, to time.Time, channel string) ([]conversation.Conversation, error)

	// CountBookings reads confirmed-booking audit events for the range.
	CountBookings(ctx context.Context, workspaceID string, from, to time.Time) (int, error)

	// ListMessages returns a conversation's messages ordered ascending.
	ListMessages(ctx context.Context, workspaceID, conversationID string) ([]conversation.Message, error)
}

type Service struct {
	repo   Repository
	engine classifier.Engine
}

func NewService(repo Repository, engine classifier.Engine) *Service {
	return &Service{repo: repo, engine: engine}
}

func (s *Service) UsageSummary(ctx context.Context, req UsageSummaryRequest) (UsageSummary, error) {
	if req.WorkspaceID == "" {
		return UsageSummary{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return UsageSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return UsageSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListUsageEvents(ctx, req.WorkspaceID, req.Range.From, req.Range.To)
	if err != nil {
		return UsageSummary{}, err
	}

	out := UsageSummary{WorkspaceID: req.WorkspaceID}
	for _, e := range rows {
		switch e.Type {
		case usage.EventCallMinute:
			out.CallMinuteEvents++
			out.TotalCallMinutes += e.Quantity
		case usage.EventWhatsappConversation:
			out.ConversationEvents++
			out.TotalConversations += e.Quantity
		}
	}
	return out, nil
}

func (s *Service) ConversationsSummary(ctx context.Context, req ConversationsSummaryRequest) (ConversationsSummary, error) {
	if req.WorkspaceID == "" {
		return ConversationsSummary{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return ConversationsSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return ConversationsSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListConversations(ctx, req.WorkspaceID, req.Range.From, req.Range.To, req.Channel)
	if err != nil {
		return ConversationsSummary{}, err
	}
	booked, err := s.repo.CountBookings(ctx, req.WorkspaceID, req.Range.From, req.Range.To)
	if err != nil {
		return ConversationsSummary{}, err
	}

	out := ConversationsSummary{WorkspaceID: req.WorkspaceID, Channel: req.Channel}
	for _, c := range rows {
		out.TotalConversations++
		switch c.Status {
		case conversation.StatusOpen:
			out.OpenConversations++
		case conversation.StatusHandedOff:
			out.HandedOffConversations++
		case conversation.StatusClosed:
			out.ClosedConversations++
		}
		switch c.Channel {
		case conversation.ChannelWhatsapp:
			out.WhatsappConversations++
		case conversation.ChannelPhone:
			out.PhoneConversations++
		}
	}
	out.BookedAppointments = booked
	if out.TotalConversations > 0 {
		out.EscalationRate = float64(out.HandedOffConversations) / float64(out.TotalConversations)
	}

	if s.engine != nil && len(rows) > 0 {
		counts := make(map[string]int)
		for _, c := range rows {
			msgs, err := s.repo.ListMessages(ctx, req.WorkspaceID, c.ID)
			if err != nil {
				return ConversationsSummary{}, err
			}
			a := s.engine.Classify(msgs)
			counts[string(a.Intent)]++
		}
		out.IntentCounts = counts
	}
	return out, nil
}
