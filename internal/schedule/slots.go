// Package schedule derives bookable slots from effective availability and
// existing bookings. Everything here is a pure function: slots are never
// persisted and are recomputed on every call, so a returned list is a
// snapshot that may go stale before the caller books against it.
package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/carewave/hospital-scheduling/internal/availability"
)

// Slot is a candidate bookable window for one doctor.
type Slot struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// Busy is an absolute interval already taken by a scheduled or completed
// appointment.
type Busy struct {
	Start time.Time
	End   time.Time
}

// Generate produces the doctor's bookable slots across the given days,
// chronologically ordered. For each date the busy intervals are carved out
// of the open ones and the remainder is tiled into duration-sized windows;
// trailing remainders shorter than duration are discarded. An empty day
// set or non-positive duration yields no slots, never an error.
func Generate(doctorID uuid.UUID, days []availability.DayAvailability, busy []Busy, duration time.Duration) []Slot {
	durMin := int(duration / time.Minute)
	if durMin <= 0 {
		return nil
	}

	var slots []Slot
	for _, day := range days {
		free := availability.Subtract(day.Open, busyMinutes(day.Date, busy))
		for _, iv := range Tile(free, durMin) {
			slots = append(slots, Slot{
				DoctorID: doctorID,
				Start:    day.Date.Add(time.Duration(iv.Start) * time.Minute),
				End:      day.Date.Add(time.Duration(iv.End) * time.Minute),
			})
		}
	}

	return slots
}

// Tile splits each free interval into consecutive windows of size minutes,
// starting at the interval's start. Partial trailing windows are dropped.
func Tile(free []availability.Interval, minutes int) []availability.Interval {
	if minutes <= 0 {
		return nil
	}

	var out []availability.Interval
	for _, iv := range free {
		for start := iv.Start; start+minutes <= iv.End; start += minutes {
			out = append(out, availability.Interval{Start: start, End: start + minutes})
		}
	}
	return out
}

// busyMinutes projects absolute busy ranges onto one date's minute axis,
// clamping ranges that cross midnight to the date's bounds.
func busyMinutes(date time.Time, busy []Busy) []availability.Interval {
	dayStart := date
	dayEnd := date.AddDate(0, 0, 1)

	var out []availability.Interval
	for _, b := range busy {
		if !b.Start.Before(dayEnd) || !b.End.After(dayStart) {
			continue
		}
		start, end := b.Start, b.End
		if start.Before(dayStart) {
			start = dayStart
		}
		if end.After(dayEnd) {
			end = dayEnd
		}
		out = append(out, availability.Interval{
			Start: int(start.Sub(dayStart) / time.Minute),
			End:   int(end.Sub(dayStart) / time.Minute),
		})
	}
	return out
}
