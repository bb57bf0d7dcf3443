package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"converso-platform/internal/calendar"
)

// Flow drives the slot-offer/slot-select dialogue for one conversation.
// State lives in the FlowStore, never in the struct; one Flow instance
// serves every conversation.
type Flow struct {
	resolver *calendar.Resolver
	provider calendar.Provider
	store    FlowStore

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

const (
	horizonDays = 14
	maxOffered  = 5
)

var ErrNoActiveFlow = errors.New("booking: no slots offered for this conversation")

func NewFlow(resolver *calendar.Resolver, provider calendar.Provider, store FlowStore) *Flow {
	return &Flow{resolver: resolver, provider: provider, store: store, clock: time.Now}
}

// WithClock overrides the time source. For tests.
func (f *Flow) WithClock(fn func() time.Time) *Flow {
	f.clock = fn
	return f
}

// Start queries availability and offers up to maxOffered slots.
// A booking intent arriving while a previous offer is pending re-queries
// fresh availability; the stale list is discarded.
func (f *Flow) Start(ctx context.Context, workspaceID, conversationID string, conn calendar.Connection, language string) (Result, error) {
	slots, err := f.resolver.AvailableSlots(ctx, conn, f.clock(), horizonDays)
	if err != nil {
		// Provider failure becomes an apology plus escalation, never a
		// raw error to the channel adapter.
		_ = f.store.Delete(ctx, workspaceID, conversationID)
		return Result{
			State:          StateFailed,
			Message:        msgProviderDown(language),
			ShouldEscalate: true,
		}, nil
	}
	if len(slots) == 0 {
		_ = f.store.Delete(ctx, workspaceID, conversationID)
		return Result{
			State:          StateFailed,
			Message:        msgNoSlots(language),
			ShouldEscalate: true,
		}, nil
	}

	if len(slots) > maxOffered {
		slots = slots[:maxOffered]
	}
	fs := FlowState{
		WorkspaceID:    workspaceID,
		ConversationID: conversationID,
		State:          StateSlotsOffered,
		Slots:          slots,
		Language:       language,
		UpdatedAt:      f.clock().UTC(),
	}
	if err := f.store.Save(ctx, fs); err != nil {
		return Result{}, err
	}
	return Result{
		State:   StateSlotsOffered,
		Message: msgOffer(language, slots),
		Slots:   slots,
	}, nil
}

// Book commits the slot at slotIndex (0-based) against the offered list.
// An out-of-range index re-prompts and keeps the offer alive.
func (f *Flow) Book(ctx context.Context, workspaceID, conversationID string, conn calendar.Connection, slotIndex int, attendee Attendee) (Result, error) {
	fs, ok, err := f.store.Load(ctx, workspaceID, conversationID)
	if err != nil {
		return Result{}, err
	}
	if !ok || fs.State != StateSlotsOffered {
		return Result{}, ErrNoActiveFlow
	}

	if slotIndex < 0 || slotIndex >= len(fs.Slots) {
		return Result{
			State:   StateSlotsOffered,
			Message: msgReprompt(fs.Language, len(fs.Slots)),
			Slots:   fs.Slots,
		}, nil
	}

	slot := fs.Slots[slotIndex]
	req := calendar.EventRequest{
		Title:         eventTitle(fs.Language, attendee),
		Start:         slot.Start,
		End:           slot.End,
		AttendeeName:  attendee.Name,
		AttendeePhone: attendee.Phone,
		AttendeeEmail: attendee.Email,
		ContactID:     attendee.ContactID,
	}
	res, err := f.provider.CreateEvent(ctx, conn.CalendarID, req)
	if err != nil {
		_ = f.store.Delete(ctx, workspaceID, conversationID)
		return Result{
			State:          StateFailed,
			Message:        msgCommitFailed(fs.Language),
			ShouldEscalate: true,
		}, nil
	}

	_ = f.store.Delete(ctx, workspaceID, conversationID)
	return Result{
		State:   StateConfirmed,
		Message: msgConfirmed(fs.Language, slot),
		EventID: res.ExternalID,
	}, nil
}

// Pending reports whether a slot offer is waiting for a selection.
func (f *Flow) Pending(ctx context.Context, workspaceID, conversationID string) (bool, error) {
	fs, ok, err := f.store.Load(ctx, workspaceID, conversationID)
	if err != nil {
		return false, err
	}
	return ok && fs.State == StateSlotsOffered, nil
}

func eventTitle(language string, a Attendee) string {
	name := a.Name
	if name == "" {
		name = a.Phone
	}
	if language == "en" {
		if name == "" {
			return "Appointment"
		}
		return "Appointment with " + name
	}
	if name == "" {
		return "Cita"
	}
	return "Cita con " + name
}

func msgOffer(language string, slots []calendar.Slot) string {
	var b strings.Builder
	if language == "en" {
		b.WriteString("These are the available times:\n")
	} else {
		b.WriteString("Estos son los horarios disponibles:\n")
	}
	for i, s := range slots {
		fmt.Fprintf(&b, "%d. %s\n", i+1, FormatSlot(language, s.Start))
	}
	if language == "en" {
		b.WriteString("Reply with the number of your preferred time.")
	} else {
		b.WriteString("Responde con el número de tu horario preferido.")
	}
	return b.String()
}

func msgReprompt(language string, n int) string {
	if language == "en" {
		return fmt.Sprintf("That option is not valid. Please reply with a number between 1 and %d.", n)
	}
	return fmt.Sprintf("Esa opción no es válida. Responde con un número del 1 al %d.", n)
}

func msgConfirmed(language string, slot calendar.Slot) string {
	if language == "en" {
		return fmt.Sprintf("Done! Your appointment is booked for %s.", FormatSlot(language, slot.Start))
	}
	return fmt.Sprintf("¡Listo! Tu cita quedó agendada para el %s.", FormatSlot(language, slot.Start))
}

func msgNoSlots(language string) string {
	if language == "en" {
		return "I don't have any available times right now. Would you like an advisor to contact you to coordinate?"
	}
	return "Por el momento no tengo horarios disponibles. ¿Te gustaría que un asesor te contacte para coordinar?"
}

func msgProviderDown(language string) string {
	if language == "en" {
		return "I couldn't check the calendar right now. An advisor will contact you to book your appointment."
	}
	return "No pude consultar la agenda en este momento. Un asesor te contactará para agendar tu cita."
}

func msgCommitFailed(language string) string {
	if language == "en" {
		return "I couldn't book the appointment. An advisor will contact you to book it manually."
	}
	return "No pude agendar la cita. Un asesor te contactará para agendarla manualmente."
}

var spanishWeekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

var spanishMonths = [...]string{"", "enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}

// FormatSlot renders a slot start time for the user: weekday, month, day,
// hour:minute, in the slot's own location.
func FormatSlot(language string, t time.Time) string {
	if language == "en" {
		return t.Format("Monday, January 2 at 15:04")
	}
	return fmt.Sprintf("%s %d de %s a las %02d:%02d",
		spanishWeekdays[t.Weekday()], t.Day(), spanishMonths[t.Month()], t.Hour(), t.Minute())
}
