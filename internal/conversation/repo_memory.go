package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is a simple in-memory repository useful for tests and early development.
// It is not intended for production use.

type MemoryRepo struct {
	mu            sync.Mutex
	conversations []Conversation
	messages      []Message
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) PutConversation(c Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations = append(r.conversations, c)
}

func (r *MemoryRepo) GetConversation(ctx context.Context, workspaceID, conversationID string) (Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conversations {
		if c.WorkspaceID == workspaceID && c.ID == conversationID {
			return c, nil
		}
	}
	return Conversation{}, ErrNotFound
}

func (r *MemoryRepo) ListByContact(ctx context.Context, workspaceID, contactID string) ([]Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Conversation
	for _, c := range r.conversations {
		if c.WorkspaceID == workspaceID && c.ContactID == contactID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) EnsureOpen(ctx context.Context, workspaceID string, channel ChannelType, contactPhone string) (Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.conversations) - 1; i >= 0; i-- {
		c := r.conversations[i]
		if c.WorkspaceID == workspaceID && c.Channel == channel && c.ContactPhone == contactPhone && c.Status == StatusOpen {
			return c, nil
		}
	}
	now := time.Now().UTC()
	c := Conversation{
		ID:           uuid.NewString(),
		WorkspaceID:  workspaceID,
		ContactPhone: contactPhone,
		Channel:      channel,
		Status:       StatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.conversations = append(r.conversations, c)
	return c, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, workspaceID, conversationID string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.conversations {
		if r.conversations[i].WorkspaceID == workspaceID && r.conversations[i].ID == conversationID {
			r.conversations[i].Status = status
			r.conversations[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepo) ListMessages(ctx context.Context, workspaceID, conversationID string) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.messages {
		if m.WorkspaceID == workspaceID && m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MemoryRepo) AppendMessage(ctx context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	return nil
}
