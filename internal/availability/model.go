package availability

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const minutesPerDay = 24 * 60

// Interval is a half-open [Start, End) window within a single day,
// expressed in minutes since midnight.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (iv Interval) Valid() bool {
	return iv.Start >= 0 && iv.Start < iv.End && iv.End <= minutesPerDay
}

func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start < other.End && other.Start < iv.End
}

func (iv Interval) Contains(other Interval) bool {
	return iv.Start <= other.Start && other.End <= iv.End
}

func (iv Interval) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", iv.Start/60, iv.Start%60, iv.End/60, iv.End%60)
}

// WeeklyPattern maps a weekday to that day's ordered open intervals.
type WeeklyPattern map[time.Weekday][]Interval

type OverrideKind string

const (
	// OverrideBlockDay closes the whole date regardless of the weekly pattern.
	OverrideBlockDay OverrideKind = "block_day"
	// OverrideBlockInterval closes one interval on a date.
	OverrideBlockInterval OverrideKind = "block_interval"
	// OverrideAddInterval opens one interval on a date on top of the pattern.
	OverrideAddInterval OverrideKind = "add_interval"
)

// Override is a single-date exception to a doctor's weekly pattern.
// Interval is nil for block_day and required for the other kinds.
type Override struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	Date      time.Time // UTC midnight
	Kind      OverrideKind
	Interval  *Interval
	CreatedAt time.Time
}

type Doctor struct {
	ID          uuid.UUID
	Name        string
	Specialty   string
	Department  string
	SlotMinutes int // appointment length for this doctor
	Active      bool
	Pattern     WeeklyPattern
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DayAvailability is the effective open intervals for one date.
type DayAvailability struct {
	Date time.Time
	Open []Interval
}

// DateOf truncates t to its UTC calendar date. The scheduling core works in
// a single zone; multi-timezone routing is out of scope.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
