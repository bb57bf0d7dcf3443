package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo implements Repository on database/sql (pgx stdlib driver).
// The audit_events table is INSERT-only; no update or delete paths exist.

type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{DB: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (
	id, workspace_id, type,
	actor_user_id, actor_role, ip_address,
	conversation_id, contact_id, booking_id, override_id,
	message, metadata, created_at
)
VALUES ($1, $2, $3,
	NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''),
	NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''),
	$11, $12, $13)
`
	_, err := r.DB.ExecContext(ctx, q,
		e.ID,
		e.WorkspaceID,
		e.Type,
		e.ActorUserID,
		e.ActorRole,
		e.IPAddress,
		e.ConversationID,
		e.ContactID,
		e.BookingID,
		e.OverrideID,
		e.Message,
		e.Metadata,
		e.CreatedAt,
	)
	return err
}
