package reporting

import (
	"context"
	"errors"
	"sync"
	"time"

	"converso-platform/internal/conversation"
	"converso-platform/internal/usage"
)

// MemoryRepo is a simple in-memory reporting repository for tests and early development.
// It enforces workspace isolation on reads.

type MemoryRepo struct {
	mu sync.Mutex

	UsageEvents   []usage.Event
	Conversations []conversation.Conversation
	Messages      map[string][]conversation.Message // key: conversation_id

	Bookings map[string]int // key: workspace_id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		Messages: map[string][]conversation.Message{},
		Bookings: map[string]int{},
	}
}

func (r *MemoryRepo) ListUsageEvents(ctx context.Context, workspaceID string, from, to time.Time) ([]usage.Event, error) {
	if workspaceID == "" {
		return nil, errors.New("workspace_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]usage.Event, 0)
	for _, e := range r.UsageEvents {
		if e.WorkspaceID != workspaceID {
			continue
		}
		if !e.OccurredAt.IsZero() {
			if e.OccurredAt.Before(from) || !e.OccurredAt.Before(to) {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *MemoryRepo) ListConversations(ctx context.Context, workspaceID string, from, to time.Time, channel string) ([]conversation.Conversation, error) {
	if workspaceID == "" {
		return nil, errors.New("workspace_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]conversation.Conversation, 0)
	for _, c := range r.Conversations {
		if c.WorkspaceID != workspaceID {
			continue
		}
		if !c.CreatedAt.IsZero() {
			if c.CreatedAt.Before(from) || !c.CreatedAt.Before(to) {
				continue
			}
		}
		if channel != "" && string(c.Channel) != channel {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *MemoryRepo) CountBookings(ctx context.Context, workspaceID string, from, to time.Time) (int, error) {
	if workspaceID == "" {
		return 0, errors.New("workspace_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Bookings[workspaceID], nil
}

func (r *MemoryRepo) ListMessages(ctx context.Context, workspaceID, conversationID string) ([]conversation.Message, error) {
	if workspaceID == "" {
		return nil, errors.New("workspace_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Messages[conversationID], nil
}
