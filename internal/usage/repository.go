package usage

import (
	"context"
	"database/sql"
	"time"

	"converso-platform/pkg/utils"
)

// PostgresRepo implements Repository on database/sql (pgx stdlib driver).
//
// Counter invariant:
// - usage_counters is never written without a matching usage_events row;
//   both happen in one transaction.

type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{DB: db} }

func (r *PostgresRepo) AppendEvent(ctx context.Context, ev Event) error {
	return utils.WithTx(ctx, r.DB, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const insertEvent = `
INSERT INTO usage_events (id, workspace_id, conversation_id, event_type, quantity, unit, occurred_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
`
		if _, err := tx.ExecContext(ctx, insertEvent,
			ev.ID,
			ev.WorkspaceID,
			ev.ConversationID,
			ev.Type,
			ev.Quantity,
			ev.Unit,
			ev.OccurredAt,
		); err != nil {
			return err
		}

		const upsertCounter = `
INSERT INTO usage_counters (workspace_id, metric, month, used)
VALUES ($1, $2, $3, $4)
ON CONFLICT (workspace_id, metric, month)
DO UPDATE SET used = usage_counters.used + EXCLUDED.used
`
		month := time.Date(ev.OccurredAt.Year(), ev.OccurredAt.Month(), 1, 0, 0, 0, 0, time.UTC)
		_, err := tx.ExecContext(ctx, upsertCounter, ev.WorkspaceID, MetricFor(ev.Type), month, ev.Quantity)
		return err
	})
}

func (r *PostgresRepo) ListEvents(ctx context.Context, workspaceID string, from, to time.Time) ([]Event, error) {
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

	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(
			&ev.ID,
			&ev.WorkspaceID,
			&ev.ConversationID,
			&ev.Type,
			&ev.Quantity,
			&ev.Unit,
			&ev.OccurredAt,
		); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
