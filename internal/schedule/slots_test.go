package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewave/hospital-scheduling/internal/availability"
)

var day = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func TestGenerateTilesOpenTime(t *testing.T) {
	doctorID := uuid.New()
	days := []availability.DayAvailability{
		{Date: day, Open: []availability.Interval{{Start: 540, End: 720}}}, // 09:00-12:00
	}

	slots := Generate(doctorID, days, nil, 30*time.Minute)
	require.Len(t, slots, 6)
	assert.Equal(t, at(9, 0), slots[0].Start)
	assert.Equal(t, at(9, 30), slots[0].End)
	assert.Equal(t, at(11, 30), slots[5].Start)
	assert.Equal(t, at(12, 0), slots[5].End)
	for _, s := range slots {
		assert.Equal(t, doctorID, s.DoctorID)
	}
}

func TestGenerateCarvesOutBusyTime(t *testing.T) {
	// 09:00-12:00 open, 30-minute slots, 10:00-10:30 already booked.
	// The remainder tiles to 09:00, 09:30, 10:30, 11:00 and 11:30.
	days := []availability.DayAvailability{
		{Date: day, Open: []availability.Interval{{Start: 540, End: 720}}},
	}
	busy := []Busy{{Start: at(10, 0), End: at(10, 30)}}

	slots := Generate(uuid.New(), days, busy, 30*time.Minute)
	starts := make([]time.Time, 0, len(slots))
	for _, s := range slots {
		starts = append(starts, s.Start)
	}
	assert.Equal(t, []time.Time{at(9, 0), at(9, 30), at(10, 30), at(11, 0), at(11, 30)}, starts)
}

func TestGenerateDropsPartialTrailingWindow(t *testing.T) {
	// 09:00-10:45 tiles three 30-minute slots; the trailing 15 minutes
	// cannot hold a full slot and are discarded.
	days := []availability.DayAvailability{
		{Date: day, Open: []availability.Interval{{Start: 540, End: 645}}},
	}

	slots := Generate(uuid.New(), days, nil, 30*time.Minute)
	require.Len(t, slots, 3)
	assert.Equal(t, at(10, 0), slots[2].Start)
	assert.Equal(t, at(10, 30), slots[2].End)
}

func TestGenerateSlotsNeverOverlap(t *testing.T) {
	days := []availability.DayAvailability{
		{Date: day, Open: []availability.Interval{{Start: 480, End: 720}, {Start: 780, End: 1020}}},
	}
	busy := []Busy{
		{Start: at(8, 45), End: at(9, 15)},
		{Start: at(13, 0), End: at(14, 0)},
	}

	slots := Generate(uuid.New(), days, busy, 20*time.Minute)
	require.NotEmpty(t, slots)
	for i := 1; i < len(slots); i++ {
		assert.False(t, slots[i].Start.Before(slots[i-1].End), "slots %d and %d overlap", i-1, i)
	}
	for _, s := range slots {
		for _, b := range busy {
			assert.False(t, s.Start.Before(b.End) && b.Start.Before(s.End),
				"slot %v overlaps busy %v", s, b)
		}
	}
}

func TestGenerateEdgeCases(t *testing.T) {
	days := []availability.DayAvailability{
		{Date: day, Open: []availability.Interval{{Start: 540, End: 720}}},
	}

	assert.Nil(t, Generate(uuid.New(), nil, nil, 30*time.Minute), "no days")
	assert.Nil(t, Generate(uuid.New(), days, nil, 0), "zero duration")
	assert.Nil(t, Generate(uuid.New(), days, nil, -time.Hour), "negative duration")

	fullyBooked := []Busy{{Start: at(9, 0), End: at(12, 0)}}
	assert.Nil(t, Generate(uuid.New(), days, fullyBooked, 30*time.Minute))
}

func TestGenerateSpansMultipleDays(t *testing.T) {
	next := day.AddDate(0, 0, 1)
	days := []availability.DayAvailability{
		{Date: day, Open: []availability.Interval{{Start: 540, End: 600}}},
		{Date: next, Open: []availability.Interval{{Start: 540, End: 600}}},
	}

	slots := Generate(uuid.New(), days, nil, 30*time.Minute)
	require.Len(t, slots, 4)
	assert.Equal(t, day.Add(9*time.Hour), slots[0].Start)
	assert.Equal(t, next.Add(9*time.Hour), slots[2].Start)
}

func TestGenerateClampsBusyAcrossMidnight(t *testing.T) {
	days := []availability.DayAvailability{
		{Date: day, Open: []availability.Interval{{Start: 0, End: 120}}}, // 00:00-02:00
	}
	// Busy range starts the previous evening and runs into this date.
	busy := []Busy{{Start: day.Add(-2 * time.Hour), End: at(1, 0)}}

	slots := Generate(uuid.New(), days, busy, 30*time.Minute)
	require.Len(t, slots, 2)
	assert.Equal(t, at(1, 0), slots[0].Start)
}

func TestTile(t *testing.T) {
	free := []availability.Interval{{Start: 540, End: 650}}

	got := Tile(free, 30)
	assert.Equal(t, []availability.Interval{
		{Start: 540, End: 570},
		{Start: 570, End: 600},
		{Start: 600, End: 630},
	}, got)

	assert.Nil(t, Tile(free, 0))
	assert.Nil(t, Tile(nil, 30))
	assert.Nil(t, Tile([]availability.Interval{{Start: 540, End: 550}}, 30), "interval shorter than one slot")
}
