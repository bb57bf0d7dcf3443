package conversation

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("conversation: not found")

// Repository abstracts conversation/message persistence.
//
// All reads are point-in-time snapshots; the core assumes no transactional
// isolation beyond "read latest". Workspace filtering is mandatory.
type Repository interface {
	GetConversation(ctx context.Context, workspaceID, conversationID string) (Conversation, error)
	ListByContact(ctx context.Context, workspaceID, contactID string) ([]Conversation, error)

	// EnsureOpen returns the open conversation for a contact phone on a
	// channel, creating one when none exists.
	EnsureOpen(ctx context.Context, workspaceID string, channel ChannelType, contactPhone string) (Conversation, error)

	// UpdateStatus moves a conversation through its lifecycle
	// (open -> handed_off/closed). Unknown ids return ErrNotFound.
	UpdateStatus(ctx context.Context, workspaceID, conversationID string, status Status) error

	// ListMessages returns messages ordered by creation time ascending.
	ListMessages(ctx context.Context, workspaceID, conversationID string) ([]Message, error)
	AppendMessage(ctx context.Context, m Message) error
}

// PostgresRepo implements Repository on database/sql (pgx stdlib driver).
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{DB: db} }

func (r *PostgresRepo) GetConversation(ctx context.Context, workspaceID, conversationID string) (Conversation, error) {
	const q = `
SELECT id, workspace_id, contact_id, contact_phone, channel, status, created_at, updated_at
FROM conversations
WHERE workspace_id = $1 AND id = $2
`
	var c Conversation
	var contactID sql.NullString
	if err := r.DB.QueryRowContext(ctx, q, workspaceID, conversationID).Scan(
		&c.ID,
		&c.WorkspaceID,
		&contactID,
		&c.ContactPhone,
		&c.Channel,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Conversation{}, ErrNotFound
		}
		return Conversation{}, err
	}
	c.ContactID = contactID.String
	return c, nil
}

func (r *PostgresRepo) ListByContact(ctx context.Context, workspaceID, contactID string) ([]Conversation, error) {
	const q = `
SELECT id, workspace_id, contact_id, contact_phone, channel, status, created_at, updated_at
FROM conversations
WHERE workspace_id = $1 AND contact_id = $2
ORDER BY created_at ASC
`
	rows, err := r.DB.QueryContext(ctx, q, workspaceID, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		var cid sql.NullString
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &cid, &c.ContactPhone, &c.Channel, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.ContactID = cid.String
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) EnsureOpen(ctx context.Context, workspaceID string, channel ChannelType, contactPhone string) (Conversation, error) {
	const find = `
SELECT id, workspace_id, contact_id, contact_phone, channel, status, created_at, updated_at
FROM conversations
WHERE workspace_id = $1 AND channel = $2 AND contact_phone = $3 AND status = $4
ORDER BY created_at DESC
LIMIT 1
`
	var c Conversation
	var contactID sql.NullString
	err := r.DB.QueryRowContext(ctx, find, workspaceID, channel, contactPhone, StatusOpen).Scan(
		&c.ID,
		&c.WorkspaceID,
		&contactID,
		&c.ContactPhone,
		&c.Channel,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err == nil {
		c.ContactID = contactID.String
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, err
	}

	now := time.Now().UTC()
	c = Conversation{
		ID:           uuid.NewString(),
		WorkspaceID:  workspaceID,
		ContactPhone: contactPhone,
		Channel:      channel,
		Status:       StatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	const insert = `
INSERT INTO conversations (id, workspace_id, contact_id, contact_phone, channel, status, created_at, updated_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
`
	if _, err := r.DB.ExecContext(ctx, insert,
		c.ID,
		c.WorkspaceID,
		c.ContactID,
		c.ContactPhone,
		c.Channel,
		c.Status,
		c.CreatedAt,
		c.UpdatedAt,
	); err != nil {
		return Conversation{}, err
	}
	return c, nil
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, workspaceID, conversationID string, status Status) error {
	const q = `
UPDATE conversations
SET status = $3, updated_at = $4
WHERE workspace_id = $1 AND id = $2
`
	res, err := r.DB.ExecContext(ctx, q, workspaceID, conversationID, status, time.Now().UTC())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) ListMessages(ctx context.Context, workspaceID, conversationID string) ([]Message, error) {
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

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.ConversationID, &m.Direction, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) AppendMessage(ctx context.Context, m Message) error {
	const q = `
INSERT INTO messages (id, workspace_id, conversation_id, direction, content, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`
	_, err := r.DB.ExecContext(ctx, q,
		m.ID,
		m.WorkspaceID,
		m.ConversationID,
		m.Direction,
		m.Content,
		m.CreatedAt,
	)
	return err
}
