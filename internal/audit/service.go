package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to tenant users by default.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.WorkspaceID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogAdminAction records an admin action (including hidden roles).
func (s *Service) LogAdminAction(ctx context.Context, workspaceID, actorUserID, actorRole, ip, message, metadata string) error {
	return s.Append(ctx, Event{
		WorkspaceID: workspaceID,
		Type:        EventTypeAdminAction,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		Message:     message,
		Metadata:    metadata,
	})
}

// LogEscalation records a conversation handed off to a human.
func (s *Service) LogEscalation(ctx context.Context, workspaceID, conversationID, contactID, reason string) error {
	return s.Append(ctx, Event{
		WorkspaceID:    workspaceID,
		Type:           EventTypeEscalation,
		ConversationID: conversationID,
		ContactID:      contactID,
		Message:        "escalated: " + reason,
	})
}

// LogQuotaDenied records a metered action blocked by a hard limit.
func (s *Service) LogQuotaDenied(ctx context.Context, workspaceID, conversationID, warning string) error {
	return s.Append(ctx, Event{
		WorkspaceID:    workspaceID,
		Type:           EventTypeQuotaDenied,
		ConversationID: conversationID,
		Message:        warning,
	})
}

// LogBooking records a confirmed appointment.
func (s *Service) LogBooking(ctx context.Context, workspaceID, conversationID, contactID, bookingID string) error {
	return s.Append(ctx, Event{
		WorkspaceID:    workspaceID,
		Type:           EventTypeBooking,
		ConversationID: conversationID,
		ContactID:      contactID,
		BookingID:      bookingID,
		Message:        "appointment booked",
	})
}

// LogQuotaOverride records an admin changing a workspace quota override.
func (s *Service) LogQuotaOverride(ctx context.Context, workspaceID, actorUserID, actorRole, ip, overrideID, metadata string) error {
	return s.Append(ctx, Event{
		WorkspaceID: workspaceID,
		Type:        EventTypeQuotaOverride,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		OverrideID:  overrideID,
		Message:     "quota override changed",
		Metadata:    metadata,
	})
}
