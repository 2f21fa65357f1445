package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carewave/hospital-scheduling/internal/lock"
)

var (
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrDoctorInactive    = errors.New("doctor is deactivated")
	ErrInvalidInterval   = errors.New("invalid interval")
	ErrDuplicateOverride = errors.New("conflicting override for this date")
)

// Repository contains all DB interactions needed by the store.
type Repository interface {
	CreateDoctor(ctx context.Context, d *Doctor) error
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListDoctors(ctx context.Context, activeOnly bool) ([]Doctor, error)
	UpdateDoctorPattern(ctx context.Context, id uuid.UUID, p WeeklyPattern) error
	SetDoctorActive(ctx context.Context, id uuid.UUID, active bool) error

	InsertOverride(ctx context.Context, ov Override) error
	// ListOverrides returns overrides with Date in [from, to], ordered by date.
	ListOverrides(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Override, error)
}

// Store owns doctor availability: the weekly pattern, date overrides, and
// the derived effective availability. Writes serialize on the same
// per-doctor lock the booking ledger uses, since they change what counts
// as a legal slot.
type Store struct {
	repo   Repository
	locker lock.Locker
}

func NewStore(repo Repository, locker lock.Locker) *Store {
	return &Store{
		repo:   repo,
		locker: locker,
	}
}

func (s *Store) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.Pattern != nil {
		if err := validatePattern(d.Pattern); err != nil {
			return err
		}
	}
	if d.SlotMinutes <= 0 {
		return fmt.Errorf("%w: slot minutes must be positive", ErrInvalidInterval)
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.Active = true

	if err := s.repo.CreateDoctor(ctx, d); err != nil {
		return fmt.Errorf("create doctor: %w", err)
	}
	return nil
}

func (s *Store) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetDoctorByID(ctx, id)
}

func (s *Store) ListDoctors(ctx context.Context, activeOnly bool) ([]Doctor, error) {
	return s.repo.ListDoctors(ctx, activeOnly)
}

// DeactivateDoctor soft-disables a doctor. Existing appointments keep
// their reference; new bookings and slot listings see an empty schedule.
func (s *Store) DeactivateDoctor(ctx context.Context, id uuid.UUID) error {
	return s.locker.WithDoctorLock(ctx, id, func(lockCtx context.Context) error {
		if _, err := s.repo.GetDoctorByID(lockCtx, id); err != nil {
			return err
		}
		return s.repo.SetDoctorActive(lockCtx, id, false)
	})
}

// SetWeeklyPattern replaces the doctor's recurring pattern.
func (s *Store) SetWeeklyPattern(ctx context.Context, doctorID uuid.UUID, p WeeklyPattern) error {
	if err := validatePattern(p); err != nil {
		return err
	}

	return s.locker.WithDoctorLock(ctx, doctorID, func(lockCtx context.Context) error {
		if _, err := s.repo.GetDoctorByID(lockCtx, doctorID); err != nil {
			return err
		}
		if err := s.repo.UpdateDoctorPattern(lockCtx, doctorID, p); err != nil {
			return fmt.Errorf("update pattern: %w", err)
		}
		return nil
	})
}

// AddOverride records a single-date exception. An interval is required for
// block_interval and add_interval and forbidden for block_day. Overrides
// that contradict an existing one for the date are rejected.
func (s *Store) AddOverride(ctx context.Context, doctorID uuid.UUID, date time.Time, kind OverrideKind, iv *Interval) error {
	switch kind {
	case OverrideBlockDay:
		if iv != nil {
			return ErrInvalidInterval
		}
	case OverrideBlockInterval, OverrideAddInterval:
		if iv == nil || !iv.Valid() {
			return ErrInvalidInterval
		}
	default:
		return fmt.Errorf("%w: unknown override kind %q", ErrInvalidInterval, kind)
	}

	date = DateOf(date)

	return s.locker.WithDoctorLock(ctx, doctorID, func(lockCtx context.Context) error {
		if _, err := s.repo.GetDoctorByID(lockCtx, doctorID); err != nil {
			return err
		}

		existing, err := s.repo.ListOverrides(lockCtx, doctorID, date, date)
		if err != nil {
			return fmt.Errorf("list overrides: %w", err)
		}
		if conflicts(existing, kind, iv) {
			return ErrDuplicateOverride
		}

		ov := Override{
			ID:       uuid.New(),
			DoctorID: doctorID,
			Date:     date,
			Kind:     kind,
			Interval: iv,
		}
		if err := s.repo.InsertOverride(lockCtx, ov); err != nil {
			return fmt.Errorf("insert override: %w", err)
		}
		return nil
	})
}

// conflicts reports whether a new override contradicts the existing set for
// a date: block_day excludes everything else, and two interval overrides
// may not overlap each other regardless of kind.
func conflicts(existing []Override, kind OverrideKind, iv *Interval) bool {
	for _, ov := range existing {
		if ov.Kind == OverrideBlockDay || kind == OverrideBlockDay {
			return true
		}
		if ov.Interval != nil && iv != nil && ov.Interval.Overlaps(*iv) {
			return true
		}
	}
	return false
}

// EffectiveAvailability returns the ordered open intervals for one date
// after applying the weekly pattern and that date's overrides. A
// deactivated doctor has no availability.
func (s *Store) EffectiveAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Interval, error) {
	days, err := s.AvailabilityRange(ctx, doctorID, date, date)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, nil
	}
	return days[0].Open, nil
}

// AvailabilityRange computes effective availability for each date in
// [from, to]. Pure read; results are a snapshot and may go stale.
func (s *Store) AvailabilityRange(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]DayAvailability, error) {
	doc, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	from = DateOf(from)
	to = DateOf(to)
	if to.Before(from) {
		return nil, nil
	}
	if !doc.Active {
		return nil, nil
	}

	overrides, err := s.repo.ListOverrides(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	byDate := make(map[time.Time][]Override, len(overrides))
	for _, ov := range overrides {
		d := DateOf(ov.Date)
		byDate[d] = append(byDate[d], ov)
	}

	var days []DayAvailability
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		open := effectiveOpen(doc.Pattern[d.Weekday()], byDate[d])
		days = append(days, DayAvailability{Date: d, Open: open})
	}

	return days, nil
}
