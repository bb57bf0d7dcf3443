package usage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"converso-platform/internal/quota"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu sync.Mutex

	Events   []Event
	counters map[string]int64

	AppendErr error
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{counters: map[string]int64{}}
}

func counterKey(workspaceID string, metric quota.Metric, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s", workspaceID, metric, at.UTC().Format("2006-01"))
}

func (r *MemoryRepo) AppendEvent(ctx context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.AppendErr != nil {
		return r.AppendErr
	}
	r.Events = append(r.Events, ev)
	r.counters[counterKey(ev.WorkspaceID, MetricFor(ev.Type), ev.OccurredAt)] += ev.Quantity
	return nil
}

func (r *MemoryRepo) ListEvents(ctx context.Context, workspaceID string, from, to time.Time) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.Events {
		if ev.WorkspaceID != workspaceID {
			continue
		}
		if ev.OccurredAt.Before(from) || !ev.OccurredAt.Before(to) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// CounterFor reads the monthly counter projection, for assertions.
func (r *MemoryRepo) CounterFor(workspaceID string, metric quota.Metric, at time.Time) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[counterKey(workspaceID, metric, at)]
}
