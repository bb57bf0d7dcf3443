package booking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"converso-platform/internal/calendar"
)

// Monday 2025-06-09, so the whole horizon starts on a working week.
func flowClock() time.Time {
	return time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC)
}

func testConn() calendar.Connection {
	return calendar.Connection{
		CalendarID:          "cal-1",
		DayStartMinute:      9 * 60,
		DayEndMinute:        10 * 60,
		SlotDurationMinutes: 30,
	}
}

func newTestFlow(provider *calendar.MemoryProvider, store FlowStore) *Flow {
	f := NewFlow(calendar.NewResolver(provider), provider, store)
	f.clock = flowClock
	return f
}

func TestStart_OffersAtMostFiveSlots(t *testing.T) {
	provider := calendar.NewMemoryProvider()
	store := NewMemoryStore()
	f := newTestFlow(provider, store)

	res, err := f.Start(context.Background(), "ws-1", "conv-1", testConn(), "es")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.State != StateSlotsOffered {
		t.Fatalf("expected slots_offered, got %q", res.State)
	}
	if len(res.Slots) != 5 {
		t.Fatalf("expected 5 offered slots, got %d", len(res.Slots))
	}
	for i := 1; i <= 5; i++ {
		if !strings.Contains(res.Message, "\n"+string(rune('0'+i))+". ") {
			t.Fatalf("offer message missing entry %d:\n%s", i, res.Message)
		}
	}
	if !strings.Contains(res.Message, "Responde con el número") {
		t.Fatalf("offer message missing prompt:\n%s", res.Message)
	}

	fs, ok, err := store.Load(context.Background(), "ws-1", "conv-1")
	if err != nil || !ok {
		t.Fatalf("flow state not persisted: ok=%v err=%v", ok, err)
	}
	if fs.State != StateSlotsOffered || len(fs.Slots) != 5 {
		t.Fatalf("unexpected persisted state %+v", fs)
	}
}

func TestStart_NoSlotsFailsAndEscalates(t *testing.T) {
	provider := calendar.NewMemoryProvider()
	// One busy block covering every working hour in the horizon.
	provider.AddBusy("cal-1", calendar.BusyInterval{
		Start: flowClock(),
		End:   flowClock().AddDate(0, 0, 20),
	})
	f := newTestFlow(provider, NewMemoryStore())

	res, err := f.Start(context.Background(), "ws-1", "conv-1", testConn(), "es")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.State != StateFailed || !res.ShouldEscalate {
		t.Fatalf("expected failed+escalate, got %+v", res)
	}
	if res.EventID != "" {
		t.Fatalf("no booking must be attempted")
	}
	if len(provider.Events("cal-1")) != 0 {
		t.Fatalf("no event must be created")
	}
}

func TestStart_AvailabilityErrorFailsAndEscalates(t *testing.T) {
	provider := calendar.NewMemoryProvider()
	provider.FreeBusyErr = errors.New("calendar api down")
	f := newTestFlow(provider, NewMemoryStore())

	res, err := f.Start(context.Background(), "ws-1", "conv-1", testConn(), "es")
	if err != nil {
		t.Fatalf("provider failure must not surface as error: %v", err)
	}
	if res.State != StateFailed || !res.ShouldEscalate {
		t.Fatalf("expected failed+escalate, got %+v", res)
	}
}

func TestBook_ValidIndexConfirms(t *testing.T) {
	provider := calendar.NewMemoryProvider()
	store := NewMemoryStore()
	f := newTestFlow(provider, store)

	offered, err := f.Start(context.Background(), "ws-1", "conv-1", testConn(), "es")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	res, err := f.Book(context.Background(), "ws-1", "conv-1", testConn(), 1, Attendee{
		Name: "Ana", Phone: "+5215512345678", ContactID: "contact-1",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.State != StateConfirmed {
		t.Fatalf("expected confirmed, got %+v", res)
	}
	if res.EventID == "" {
		t.Fatalf("confirmed booking must carry an event id")
	}
	if !strings.Contains(res.Message, FormatSlot("es", offered.Slots[1].Start)) {
		t.Fatalf("confirmation must include the formatted slot:\n%s", res.Message)
	}

	events := provider.Events("cal-1")
	if len(events) != 1 {
		t.Fatalf("expected one created event, got %d", len(events))
	}
	if events[0].AttendeeName != "Ana" || !events[0].Start.Equal(offered.Slots[1].Start) {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if events[0].Title != "Cita con Ana" {
		t.Fatalf("unexpected title %q", events[0].Title)
	}

	if _, ok, _ := store.Load(context.Background(), "ws-1", "conv-1"); ok {
		t.Fatalf("terminal flow must be deleted from the store")
	}
}

func TestBook_OutOfRangeRepromptsAndStaysOffered(t *testing.T) {
	provider := calendar.NewMemoryProvider()
	store := NewMemoryStore()
	f := newTestFlow(provider, store)

	if _, err := f.Start(context.Background(), "ws-1", "conv-1", testConn(), "es"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	for _, idx := range []int{-1, 5, 99} {
		res, err := f.Book(context.Background(), "ws-1", "conv-1", testConn(), idx, Attendee{})
		if err != nil {
			t.Fatalf("index %d: out-of-range must not be an error: %v", idx, err)
		}
		if res.State != StateSlotsOffered {
			t.Fatalf("index %d: expected slots_offered, got %q", idx, res.State)
		}
		if !strings.Contains(res.Message, "1 al 5") {
			t.Fatalf("index %d: re-prompt must name the valid range:\n%s", idx, res.Message)
		}
	}
	if len(provider.Events("cal-1")) != 0 {
		t.Fatalf("no event must be created on re-prompt")
	}

	// The offer is still live; a valid selection now succeeds.
	res, err := f.Book(context.Background(), "ws-1", "conv-1", testConn(), 0, Attendee{Name: "Ana"})
	if err != nil || res.State != StateConfirmed {
		t.Fatalf("expected confirm after re-prompt, got %+v err=%v", res, err)
	}
}

func TestBook_ProviderFailureFailsAndEscalates(t *testing.T) {
	provider := calendar.NewMemoryProvider()
	store := NewMemoryStore()
	f := newTestFlow(provider, store)

	if _, err := f.Start(context.Background(), "ws-1", "conv-1", testConn(), "es"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	provider.CreateErr = errors.New("calendar write failed")

	res, err := f.Book(context.Background(), "ws-1", "conv-1", testConn(), 0, Attendee{})
	if err != nil {
		t.Fatalf("provider failure must not surface as error: %v", err)
	}
	if res.State != StateFailed || !res.ShouldEscalate {
		t.Fatalf("expected failed+escalate, got %+v", res)
	}
	if _, ok, _ := store.Load(context.Background(), "ws-1", "conv-1"); ok {
		t.Fatalf("failed flow must be deleted from the store")
	}
}

func TestBook_WithoutOfferIsNoActiveFlow(t *testing.T) {
	f := newTestFlow(calendar.NewMemoryProvider(), NewMemoryStore())

	if _, err := f.Book(context.Background(), "ws-1", "conv-1", testConn(), 0, Attendee{}); !errors.Is(err, ErrNoActiveFlow) {
		t.Fatalf("expected ErrNoActiveFlow, got %v", err)
	}
}

func TestStart_NewIntentRequeriesFreshSlots(t *testing.T) {
	provider := calendar.NewMemoryProvider()
	store := NewMemoryStore()
	f := newTestFlow(provider, store)

	first, err := f.Start(context.Background(), "ws-1", "conv-1", testConn(), "es")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	// The first offered slot gets taken between offer and selection.
	provider.AddBusy("cal-1", calendar.BusyInterval{
		Start: first.Slots[0].Start,
		End:   first.Slots[0].End,
	})

	second, err := f.Start(context.Background(), "ws-1", "conv-1", testConn(), "es")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if second.Slots[0].Start.Equal(first.Slots[0].Start) {
		t.Fatalf("re-query must not reuse the stale list")
	}
}

func TestFormatSlot_Localization(t *testing.T) {
	at := time.Date(2025, 6, 9, 15, 30, 0, 0, time.UTC) // Monday

	if got := FormatSlot("es", at); got != "lunes 9 de junio a las 15:30" {
		t.Fatalf("unexpected spanish format %q", got)
	}
	if got := FormatSlot("en", at); got != "Monday, June 9 at 15:30" {
		t.Fatalf("unexpected english format %q", got)
	}
}

func TestPending(t *testing.T) {
	store := NewMemoryStore()
	f := newTestFlow(calendar.NewMemoryProvider(), store)

	if ok, _ := f.Pending(context.Background(), "ws-1", "conv-1"); ok {
		t.Fatalf("no offer yet")
	}
	if _, err := f.Start(context.Background(), "ws-1", "conv-1", testConn(), "es"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ok, _ := f.Pending(context.Background(), "ws-1", "conv-1"); !ok {
		t.Fatalf("offer must be pending")
	}
}
