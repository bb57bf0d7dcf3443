package quota

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is a simple in-memory repository useful for tests and early development.
// It is not intended for production use.

type MemoryRepo struct {
	mu            sync.Mutex
	Subscriptions []Subscription
	PlanRegions   []PlanRegion
	Overrides     []Override

	// usage is keyed by workspace/metric/month (YYYY-MM).
	usage map[string]int64
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{usage: make(map[string]int64)}
}

func usageKey(workspaceID string, metric Metric, at time.Time) string {
	return workspaceID + "/" + string(metric) + "/" + at.UTC().Format("2006-01")
}

func (r *MemoryRepo) SetUsage(workspaceID string, metric Metric, at time.Time, used int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage[usageKey(workspaceID, metric, at)] = used
}

func (r *MemoryRepo) GetActiveSubscription(ctx context.Context, workspaceID string) (Subscription, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.Subscriptions {
		if s.WorkspaceID == workspaceID && s.Status == SubscriptionStatusActive {
			return s, true, nil
		}
	}
	return Subscription{}, false, nil
}

func (r *MemoryRepo) FindPlanRegion(ctx context.Context, planCode, regionCode string) (PlanRegion, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.PlanRegions {
		if p.PlanCode == planCode && p.RegionCode == regionCode && p.IsActive {
			return p, true, nil
		}
	}
	return PlanRegion{}, false, nil
}

func (r *MemoryRepo) GetOverride(ctx context.Context, workspaceID string) (Override, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.Overrides {
		if o.WorkspaceID == workspaceID {
			return o, true, nil
		}
	}
	return Override{}, false, nil
}

func (r *MemoryRepo) CurrentUsage(ctx context.Context, workspaceID string, metric Metric, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usage[usageKey(workspaceID, metric, at)], nil
}
