package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewave/hospital-scheduling/internal/lock"
)

func newTestStore(t *testing.T) (*Store, *Doctor) {
	t.Helper()

	store := NewStore(NewMemoryRepository(), lock.NewKeyedMutex())
	doc := &Doctor{
		Name:        "Dr. Asha Patel",
		Specialty:   "Cardiology",
		Department:  "Cardiology",
		SlotMinutes: 30,
		Pattern: WeeklyPattern{
			time.Monday: {{Start: 540, End: 720}}, // 09:00-12:00
			time.Friday: {{Start: 480, End: 600}}, // 08:00-10:00
		},
	}
	require.NoError(t, store.CreateDoctor(context.Background(), doc))
	return store, doc
}

// 2026-09-07 is a Monday.
var monday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

func TestCreateDoctorValidation(t *testing.T) {
	store := NewStore(NewMemoryRepository(), lock.NewKeyedMutex())
	ctx := context.Background()

	err := store.CreateDoctor(ctx, &Doctor{
		Name:        "Dr. Bad Hours",
		SlotMinutes: 30,
		Pattern:     WeeklyPattern{time.Monday: {{Start: 720, End: 540}}},
	})
	assert.ErrorIs(t, err, ErrInvalidInterval)

	err = store.CreateDoctor(ctx, &Doctor{Name: "Dr. No Slots", SlotMinutes: 0})
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestEffectiveAvailabilityFollowsPattern(t *testing.T) {
	store, doc := newTestStore(t)
	ctx := context.Background()

	open, err := store.EffectiveAvailability(ctx, doc.ID, monday)
	require.NoError(t, err)
	assert.Equal(t, []Interval{{Start: 540, End: 720}}, open)

	// Tuesday has no pattern entry.
	open, err = store.EffectiveAvailability(ctx, doc.ID, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestEffectiveAvailabilityAppliesOverrides(t *testing.T) {
	store, doc := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddOverride(ctx, doc.ID, monday, OverrideBlockInterval, &Interval{Start: 600, End: 630}))

	open, err := store.EffectiveAvailability(ctx, doc.ID, monday)
	require.NoError(t, err)
	assert.Equal(t, []Interval{{Start: 540, End: 600}, {Start: 630, End: 720}}, open)

	// Overrides are per-date: the following Monday is unaffected.
	open, err = store.EffectiveAvailability(ctx, doc.ID, monday.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, []Interval{{Start: 540, End: 720}}, open)
}

func TestBlockDayClosesDate(t *testing.T) {
	store, doc := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddOverride(ctx, doc.ID, monday, OverrideBlockDay, nil))

	open, err := store.EffectiveAvailability(ctx, doc.ID, monday)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestAddOverrideValidation(t *testing.T) {
	store, doc := newTestStore(t)
	ctx := context.Background()

	err := store.AddOverride(ctx, doc.ID, monday, OverrideBlockDay, &Interval{Start: 540, End: 600})
	assert.ErrorIs(t, err, ErrInvalidInterval, "block_day takes no interval")

	err = store.AddOverride(ctx, doc.ID, monday, OverrideBlockInterval, nil)
	assert.ErrorIs(t, err, ErrInvalidInterval, "block_interval requires an interval")

	err = store.AddOverride(ctx, doc.ID, monday, OverrideKind("vacation"), nil)
	assert.ErrorIs(t, err, ErrInvalidInterval, "unknown kind")

	err = store.AddOverride(ctx, uuid.New(), monday, OverrideBlockDay, nil)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestAddOverrideConflicts(t *testing.T) {
	store, doc := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddOverride(ctx, doc.ID, monday, OverrideBlockInterval, &Interval{Start: 600, End: 660}))

	err := store.AddOverride(ctx, doc.ID, monday, OverrideAddInterval, &Interval{Start: 630, End: 700})
	assert.ErrorIs(t, err, ErrDuplicateOverride, "interval overrides may not overlap")

	err = store.AddOverride(ctx, doc.ID, monday, OverrideBlockDay, nil)
	assert.ErrorIs(t, err, ErrDuplicateOverride, "block_day conflicts with any existing override")

	// Disjoint interval on the same date is fine, as is the same interval
	// on a different date.
	require.NoError(t, store.AddOverride(ctx, doc.ID, monday, OverrideBlockInterval, &Interval{Start: 540, End: 570}))
	require.NoError(t, store.AddOverride(ctx, doc.ID, monday.AddDate(0, 0, 7), OverrideBlockInterval, &Interval{Start: 600, End: 660}))
}

func TestSetWeeklyPattern(t *testing.T) {
	store, doc := newTestStore(t)
	ctx := context.Background()

	newPattern := WeeklyPattern{
		time.Wednesday: {{Start: 600, End: 900}},
	}
	require.NoError(t, store.SetWeeklyPattern(ctx, doc.ID, newPattern))

	wednesday := monday.AddDate(0, 0, 2)
	open, err := store.EffectiveAvailability(ctx, doc.ID, wednesday)
	require.NoError(t, err)
	assert.Equal(t, []Interval{{Start: 600, End: 900}}, open)

	open, err = store.EffectiveAvailability(ctx, doc.ID, monday)
	require.NoError(t, err)
	assert.Empty(t, open, "old pattern no longer applies")

	err = store.SetWeeklyPattern(ctx, doc.ID, WeeklyPattern{
		time.Monday: {{Start: 540, End: 720}, {Start: 600, End: 780}},
	})
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestDeactivateDoctor(t *testing.T) {
	store, doc := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.DeactivateDoctor(ctx, doc.ID))

	got, err := store.GetDoctor(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	open, err := store.EffectiveAvailability(ctx, doc.ID, monday)
	require.NoError(t, err)
	assert.Empty(t, open, "deactivated doctor has no availability")

	active, err := store.ListDoctors(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := store.ListDoctors(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAvailabilityRange(t *testing.T) {
	store, doc := newTestStore(t)
	ctx := context.Background()

	friday := monday.AddDate(0, 0, 4)
	days, err := store.AvailabilityRange(ctx, doc.ID, monday, friday)
	require.NoError(t, err)
	require.Len(t, days, 5)

	assert.Equal(t, monday, days[0].Date)
	assert.Equal(t, []Interval{{Start: 540, End: 720}}, days[0].Open)
	assert.Empty(t, days[1].Open)
	assert.Equal(t, []Interval{{Start: 480, End: 600}}, days[4].Open)

	days, err = store.AvailabilityRange(ctx, doc.ID, friday, monday)
	require.NoError(t, err)
	assert.Empty(t, days, "inverted range")
}
