package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"converso-platform/internal/quota"
)

func fixedClock() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func newTestService(repo *MemoryRepo) *Service {
	s := NewService(repo)
	s.clock = fixedClock
	return s
}

func TestRecordCallMinutes(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo)

	ev, err := svc.RecordCallMinutes(context.Background(), "ws-1", "conv-1", 7)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ev.Type != EventCallMinute || ev.Quantity != 7 || ev.Unit != UnitMinutes {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.ID == "" {
		t.Fatalf("event must get an id")
	}
	if !ev.OccurredAt.Equal(fixedClock()) {
		t.Fatalf("unexpected timestamp %v", ev.OccurredAt)
	}
	if got := repo.CounterFor("ws-1", quota.MetricCallMinutes, fixedClock()); got != 7 {
		t.Fatalf("expected counter 7, got %d", got)
	}
}

func TestRecordWhatsappConversation_QuantityIsAlwaysOne(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo)

	for i := 0; i < 3; i++ {
		ev, err := svc.RecordWhatsappConversation(context.Background(), "ws-1", "conv-1")
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if ev.Quantity != 1 || ev.Unit != UnitConversations {
			t.Fatalf("unexpected event %+v", ev)
		}
	}
	if got := repo.CounterFor("ws-1", quota.MetricConversations, fixedClock()); got != 3 {
		t.Fatalf("expected counter 3, got %d", got)
	}
}

func TestRecord_AppendOnly(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo)

	if _, err := svc.RecordCallMinutes(context.Background(), "ws-1", "conv-1", 2); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.RecordCallMinutes(context.Background(), "ws-1", "conv-1", 3); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(repo.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(repo.Events))
	}
	if got := repo.CounterFor("ws-1", quota.MetricCallMinutes, fixedClock()); got != 5 {
		t.Fatalf("expected counter 5, got %d", got)
	}
}

func TestRecord_Validation(t *testing.T) {
	svc := newTestService(NewMemoryRepo())

	if _, err := svc.RecordCallMinutes(context.Background(), "", "conv-1", 1); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if _, err := svc.RecordCallMinutes(context.Background(), "ws-1", "conv-1", 0); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if _, err := svc.RecordWhatsappConversation(context.Background(), "", "conv-1"); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestRecord_RepoErrorPropagates(t *testing.T) {
	repo := NewMemoryRepo()
	repo.AppendErr = errors.New("db down")
	svc := newTestService(repo)

	if _, err := svc.RecordCallMinutes(context.Background(), "ws-1", "conv-1", 1); err == nil {
		t.Fatalf("expected error")
	}
}

func TestListEvents_Window(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo)

	if _, err := svc.RecordCallMinutes(context.Background(), "ws-1", "conv-1", 1); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.RecordWhatsappConversation(context.Background(), "ws-2", "conv-2"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	from := fixedClock().Add(-time.Hour)
	to := fixedClock().Add(time.Hour)
	events, err := svc.ListEvents(context.Background(), "ws-1", from, to)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(events) != 1 || events[0].WorkspaceID != "ws-1" {
		t.Fatalf("expected one ws-1 event, got %+v", events)
	}

	if _, err := svc.ListEvents(context.Background(), "ws-1", to, from); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent for inverted window, got %v", err)
	}
}
