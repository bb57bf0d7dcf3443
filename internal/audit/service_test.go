package audit

import (
	"context"
	"testing"
)

func TestService_AppendRequiresWorkspaceAndType(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{Type: EventTypeAdminAction}); err == nil {
		t.Fatalf("expected error")
	}
	if err := svc.Append(context.Background(), Event{WorkspaceID: "w"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_AppendsImmutableEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogAdminAction(context.Background(), "w", "u", "super_admin", "1.2.3.4", "did something", "{}"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event")
	}
	if evs[0].IPAddress != "1.2.3.4" {
		t.Fatalf("expected ip captured")
	}
	if evs[0].Type != EventTypeAdminAction {
		t.Fatalf("expected admin_action")
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp assigned")
	}
}

func TestService_DomainHelpers(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogEscalation(context.Background(), "w", "conv-1", "contact-1", "COMPLAINT"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := svc.LogQuotaDenied(context.Background(), "w", "conv-1", "limit exceeded"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := svc.LogBooking(context.Background(), "w", "conv-1", "contact-1", "evt-1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 3 {
		t.Fatalf("expected 3 events, got %d", len(evs))
	}
	if evs[0].Type != EventTypeEscalation || evs[0].ConversationID != "conv-1" {
		t.Fatalf("unexpected escalation event %+v", evs[0])
	}
	if evs[1].Type != EventTypeQuotaDenied || evs[1].Message != "limit exceeded" {
		t.Fatalf("unexpected quota event %+v", evs[1])
	}
	if evs[2].Type != EventTypeBooking || evs[2].BookingID != "evt-1" {
		t.Fatalf("unexpected booking event %+v", evs[2])
	}
}
