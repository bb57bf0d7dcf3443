package calendar

import (
	"context"
	"errors"
	"time"
)

// Connection describes one workspace's calendar configuration.
//
// Working hours are expressed as minutes from local midnight in Timezone.
type Connection struct {
	CalendarID string `json:"calendar_id"`

	// Timezone is an IANA zone name; empty means UTC.
	Timezone string `json:"timezone"`

	WorkingDays []time.Weekday `json:"working_days"`

	DayStartMinute int `json:"day_start_minute"`
	DayEndMinute   int `json:"day_end_minute"`

	SlotDurationMinutes int `json:"slot_duration_minutes"`
	BufferMinutes       int `json:"buffer_minutes"`
}

func (c Connection) withDefaults() Connection {
	out := c
	if len(out.WorkingDays) == 0 {
		out.WorkingDays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	}
	if out.DayStartMinute <= 0 {
		out.DayStartMinute = 9 * 60
	}
	if out.DayEndMinute <= 0 || out.DayEndMinute <= out.DayStartMinute {
		out.DayEndMinute = 18 * 60
	}
	if out.SlotDurationMinutes <= 0 {
		out.SlotDurationMinutes = 30
	}
	if out.BufferMinutes < 0 {
		out.BufferMinutes = 0
	}
	return out
}

var ErrInvalidRange = errors.New("calendar: invalid date range")

// Resolver computes free slots from a connection's working schedule minus the
// provider's busy intervals. Slots are generated fresh per query; the resolver
// holds no lock on provider data, so a slot may be taken between offer and
// commit.
type Resolver struct {
	provider Provider
}

func NewResolver(p Provider) *Resolver {
	return &Resolver{provider: p}
}

// AvailableSlots returns free slots for the next `days` days starting at from.
// Only available slots are returned, ordered by start time.
func (r *Resolver) AvailableSlots(ctx context.Context, conn Connection, from time.Time, days int) ([]Slot, error) {
	if days <= 0 {
		return nil, ErrInvalidRange
	}
	if r.provider == nil {
		return nil, errors.New("calendar: provider not configured")
	}
	conn = conn.withDefaults()

	loc := time.UTC
	if conn.Timezone != "" {
		l, err := time.LoadLocation(conn.Timezone)
		if err != nil {
			return nil, err
		}
		loc = l
	}

	from = from.In(loc)
	to := from.AddDate(0, 0, days)

	busy, err := r.provider.FreeBusy(ctx, conn.CalendarID, from, to)
	if err != nil {
		return nil, err
	}

	step := time.Duration(conn.SlotDurationMinutes+conn.BufferMinutes) * time.Minute
	dur := time.Duration(conn.SlotDurationMinutes) * time.Minute

	var out []Slot
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	for !day.After(to) {
		if workingDay(conn.WorkingDays, day.Weekday()) {
			start := day.Add(time.Duration(conn.DayStartMinute) * time.Minute)
			end := day.Add(time.Duration(conn.DayEndMinute) * time.Minute)

			for s := start; !s.Add(dur).After(end); s = s.Add(step) {
				if s.Before(from) {
					continue
				}
				if !s.Before(to) {
					break
				}
				if overlapsAny(busy, s, s.Add(dur)) {
					continue
				}
				out = append(out, Slot{Start: s, End: s.Add(dur), Available: true})
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return out, nil
}

func workingDay(days []time.Weekday, d time.Weekday) bool {
	for _, wd := range days {
		if wd == d {
			return true
		}
	}
	return false
}

func overlapsAny(busy []BusyInterval, start, end time.Time) bool {
	for _, b := range busy {
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}
