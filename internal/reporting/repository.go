package reporting

import (
	"context"
	"database/sql"
	"time"

	"converso-platform/internal/conversation"
	"converso-platform/internal/usage"
)

// PostgresRepo implements Repository on database/sql (pgx stdlib driver).
// All reads are workspace-scoped; the underlying tables are append-only.

type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{DB: db} }

func (r *PostgresRepo) ListUsageEvents(ctx context.Context, workspaceID string, from, to time.Time) ([]usage.Event, error) {
	const q = `
SELECT id, workspace_id, COALESCE(conversation_id, ''), event_type, quantity, unit, occurred_at
FROM usage_events
WHERE workspace_id = $1 AND occurred_at >= $2 AND occurred_at < $3
ORDER BY occurred_at ASC
`
	rows, err := r.DB.QueryContext(ctx, q, workspaceID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []usage.Event
	for rows.Next() {
		var ev usage.Event
		if err := rows.Scan(&ev.ID, &ev.WorkspaceID, &ev.ConversationID, &ev.Type, &ev.Quantity, &ev.Unit, &ev.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListConversations(ctx context.Context, workspaceID string, from, to time.Time, channel string) ([]conversation.Conversation, error) {
	const q = `
SELECT id, workspace_id, COALESCE(contact_id, ''), COALESCE(contact_phone, ''), channel, status, created_at, updated_at
FROM conversations
WHERE workspace_id = $1
  AND created_at >= $2 AND created_at < $3
  AND ($4 = '' OR channel = $4)
ORDER BY created_at ASC
`
	rows, err := r.DB.QueryContext(ctx, q, workspaceID, from, to, channel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []conversation.Conversation
	for rows.Next() {
		var c conversation.Conversation
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.ContactID, &c.ContactPhone, &c.Channel, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CountBookings(ctx context.Context, workspaceID string, from, to time.Time) (int, error) {
	const q = `
SELECT COUNT(*)
FROM audit_events
WHERE workspace_id = $1 AND type = 'booking_confirmed'
  AND created_at >= $2 AND created_at < $3
`
	var n int
	if err := r.DB.QueryRowContext(ctx, q, workspaceID, from, to).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PostgresRepo) ListMessages(ctx context.Context, workspaceID, conversationID string) ([]conversation.Message, error) {
	const q = `
SELECT id, workspace_id, conversation_id, direction, content, created_at
FROM messages
WHERE workspace_id = $1 AND conversation_id = $2
ORDER BY created_at ASC
`
	rows, err := r.DB.QueryContext(ctx, q, workspaceID, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []conversation.Message
	for rows.Next() {
		var m conversation.Message
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.ConversationID, &m.Direction, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
