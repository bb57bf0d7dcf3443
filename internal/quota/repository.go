package quota

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresRepo implements Repository on database/sql (pgx stdlib driver).
//
// NOTE: This repository assumes the following tables exist:
// - subscriptions
// - plan_regions
// - workspace_quota_overrides (at most one row per workspace)
// - usage_counters (monthly projection maintained by internal/usage)

type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{DB: db} }

func (r *PostgresRepo) GetActiveSubscription(ctx context.Context, workspaceID string) (Subscription, bool, error) {
	const q = `
SELECT id, workspace_id, plan_code, region_code, status, created_at, updated_at
FROM subscriptions
WHERE workspace_id = $1 AND status = $2
ORDER BY created_at DESC
LIMIT 1
`
	var s Subscription
	err := r.DB.QueryRowContext(ctx, q, workspaceID, SubscriptionStatusActive).Scan(
		&s.ID,
		&s.WorkspaceID,
		&s.PlanCode,
		&s.RegionCode,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Subscription{}, false, nil
		}
		return Subscription{}, false, err
	}
	return s, true, nil
}

func (r *PostgresRepo) FindPlanRegion(ctx context.Context, planCode, regionCode string) (PlanRegion, bool, error) {
	const q = `
SELECT id, plan_code, region_code, currency,
       included_call_minutes, included_conversations,
       overage_per_minute_minor, overage_per_conversation_minor,
       limit_mode, is_active, created_at, updated_at
FROM plan_regions
WHERE plan_code = $1 AND region_code = $2 AND is_active = TRUE
LIMIT 1
`
	var p PlanRegion
	err := r.DB.QueryRowContext(ctx, q, planCode, regionCode).Scan(
		&p.ID,
		&p.PlanCode,
		&p.RegionCode,
		&p.Currency,
		&p.IncludedCallMinutes,
		&p.IncludedConversations,
		&p.OveragePerMinuteMinor,
		&p.OveragePerConversationMinor,
		&p.LimitMode,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PlanRegion{}, false, nil
		}
		return PlanRegion{}, false, err
	}
	return p, true, nil
}

func (r *PostgresRepo) GetOverride(ctx context.Context, workspaceID string) (Override, bool, error) {
	const q = `
SELECT id, workspace_id,
       custom_included_call_minutes, custom_included_conversations,
       custom_overage_per_minute_minor, custom_overage_per_conversation_minor,
       custom_limit_mode, created_at, updated_at
FROM workspace_quota_overrides
WHERE workspace_id = $1
LIMIT 1
`
	var o Override
	var limitMode sql.NullString
	err := r.DB.QueryRowContext(ctx, q, workspaceID).Scan(
		&o.ID,
		&o.WorkspaceID,
		&o.CustomIncludedCallMinutes,
		&o.CustomIncludedConversations,
		&o.CustomOveragePerMinuteMinor,
		&o.CustomOveragePerConversationMinor,
		&limitMode,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Override{}, false, nil
		}
		return Override{}, false, err
	}
	if limitMode.Valid {
		m := LimitMode(limitMode.String)
		o.CustomLimitMode = &m
	}
	return o, true, nil
}

func (r *PostgresRepo) CurrentUsage(ctx context.Context, workspaceID string, metric Metric, at time.Time) (int64, error) {
	const q = `
SELECT used
FROM usage_counters
WHERE workspace_id = $1 AND metric = $2 AND month = $3
`
	month := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
	var used int64
	err := r.DB.QueryRowContext(ctx, q, workspaceID, metric, month).Scan(&used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return used, nil
}
