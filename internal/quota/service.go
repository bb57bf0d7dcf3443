package quota

import (
	"context"
	"errors"
	"time"
)

// Service resolves effective quotas and evaluates prospective usage increments.
//
// Contract:
//   - The check is read-only and safely re-callable (UI previews included);
//     recording granted usage belongs to the caller, after allowed=true.
//   - Missing subscription or plan rows are NOT errors: they become a denied
//     Check with a warning, so callers can render a hard-denial message.
//   - The check must run, and be allowed to deny, before the metered action is
//     attempted. Never retroactively.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Repository abstracts quota persistence.
// All reads are point-in-time snapshots ("read latest").
type Repository interface {
	GetActiveSubscription(ctx context.Context, workspaceID string) (Subscription, bool, error)
	FindPlanRegion(ctx context.Context, planCode, regionCode string) (PlanRegion, bool, error)
	GetOverride(ctx context.Context, workspaceID string) (Override, bool, error)

	// CurrentUsage returns the monthly counter for the month containing at;
	// 0 when no counter row exists yet.
	CurrentUsage(ctx context.Context, workspaceID string, metric Metric, at time.Time) (int64, error)
}

var ErrInvalidCheck = errors.New("quota: invalid check request")

// Usage is the usage snapshot attached to every Check.
type Usage struct {
	Used        int64   `json:"used"`
	Included    int64   `json:"included"`
	PercentUsed float64 `json:"percent_used"`
}

// Check is computed fresh on every metered action and never persisted.
type Check struct {
	Allowed   bool      `json:"allowed"`
	LimitMode LimitMode `json:"limit_mode"`
	Usage     Usage     `json:"usage"`
	Warning   string    `json:"warning,omitempty"`
}

const (
	WarningNoSubscription = "no active subscription"
	WarningPlanNotFound   = "plan not found"
	WarningLimitExceeded  = "limit exceeded"
	WarningQuotaExceeded  = "included quota exceeded"
	WarningApproaching    = "approaching included quota"
)

// CheckCallMinuteQuota evaluates adding `minutes` call minutes this month.
func (s *Service) CheckCallMinuteQuota(ctx context.Context, workspaceID string, minutes int64) (Check, error) {
	if workspaceID == "" || minutes <= 0 {
		return Check{}, ErrInvalidCheck
	}
	return s.check(ctx, workspaceID, MetricCallMinutes, minutes)
}

// CheckWhatsappConversationQuota evaluates starting one more conversation this month.
func (s *Service) CheckWhatsappConversationQuota(ctx context.Context, workspaceID string) (Check, error) {
	if workspaceID == "" {
		return Check{}, ErrInvalidCheck
	}
	return s.check(ctx, workspaceID, MetricConversations, 1)
}

func (s *Service) check(ctx context.Context, workspaceID string, metric Metric, increment int64) (Check, error) {
	sub, ok, err := s.repo.GetActiveSubscription(ctx, workspaceID)
	if err != nil {
		return Check{}, err
	}
	if !ok {
		return Check{Allowed: false, LimitMode: LimitModeHard, Warning: WarningNoSubscription}, nil
	}

	pr, ok, err := s.repo.FindPlanRegion(ctx, sub.PlanCode, sub.RegionCode)
	if err != nil {
		return Check{}, err
	}
	if !ok {
		return Check{Allowed: false, LimitMode: LimitModeHard, Warning: WarningPlanNotFound}, nil
	}

	var ov *Override
	if o, ok, err := s.repo.GetOverride(ctx, workspaceID); err != nil {
		return Check{}, err
	} else if ok {
		ov = &o
	}
	eff := Resolve(pr, ov)

	used, err := s.repo.CurrentUsage(ctx, workspaceID, metric, s.clock().UTC())
	if err != nil {
		return Check{}, err
	}

	included := eff.IncludedConversations
	if metric == MetricCallMinutes {
		included = eff.IncludedCallMinutes
	}

	percent := 100.0
	if included > 0 {
		percent = float64(used+increment) / float64(included) * 100
	}

	out := Check{
		LimitMode: eff.LimitMode,
		Usage:     Usage{Used: used, Included: included, PercentUsed: percent},
	}

	if eff.LimitMode == LimitModeHard && used+increment > included {
		out.Allowed = false
		out.Warning = WarningLimitExceeded
		return out, nil
	}

	out.Allowed = true
	switch {
	case percent >= 100:
		out.Warning = WarningQuotaExceeded
	case percent >= 80:
		out.Warning = WarningApproaching
	}
	return out, nil
}
