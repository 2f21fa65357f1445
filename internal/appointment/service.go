package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/carewave/hospital-scheduling/internal/availability"
	"github.com/carewave/hospital-scheduling/internal/config"
	"github.com/carewave/hospital-scheduling/internal/lock"
	"github.com/carewave/hospital-scheduling/internal/schedule"
)

const (
	EventAppointmentBooked      = "APPOINTMENT_BOOKED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted   = "APPOINTMENT_COMPLETED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
)

var (
	ErrInvalidInterval   = errors.New("invalid appointment interval")
	ErrSlotUnavailable   = errors.New("interval is not within the doctor's availability")
	ErrSlotConflict      = errors.New("interval conflicts with an existing appointment")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTooEarly          = errors.New("appointment cannot be completed before it starts")
)

// Service is the scheduling core: it validates slot legality against the
// availability store, enforces the per-doctor non-overlap invariant, and
// drives the appointment state machine. Every mutation runs inside the
// doctor's critical section so concurrent bookings for the same doctor
// serialize; operations on different doctors never block each other.
type Service struct {
	repo   Repository
	avail  *availability.Store
	locker lock.Locker
	cfg    config.Config
	now    func() time.Time
}

func NewService(repo Repository, avail *availability.Store, locker lock.Locker, cfg config.Config) *Service {
	return &Service{
		repo:   repo,
		avail:  avail,
		locker: locker,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Book reserves [start, end) for a patient with the given doctor. Legality
// is recomputed at call time inside the doctor lock: the interval must lie
// within the doctor's effective availability (ErrSlotUnavailable otherwise)
// and must not overlap any scheduled or completed appointment
// (ErrSlotConflict — the race was lost and the caller should re-query).
func (s *Service) Book(ctx context.Context, doctorID, patientID uuid.UUID, start, end time.Time) (*Appointment, error) {
	start, end = start.UTC(), end.UTC()
	if err := validateInterval(start, end); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	var created *Appointment
	err := s.locker.WithDoctorLock(ctx, doctorID, func(lockCtx context.Context) error {
		var err error
		created, err = s.bookLocked(lockCtx, doctorID, patientID, start, end, uuid.Nil)
		if err != nil {
			return err
		}

		s.logEvent(lockCtx, created.ID, EventAppointmentBooked, map[string]any{
			"doctor_id":  doctorID.String(),
			"patient_id": patientID.String(),
			"start":      start,
			"end":        end,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, lock.ErrLockNotAcquired) {
			// Another mutation for this doctor is in flight; the caller
			// re-queries slots and retries, same as losing the race.
			return nil, ErrSlotConflict
		}
		return nil, err
	}

	return created, nil
}

// bookLocked checks slot legality and writes the appointment. Callers must
// hold the doctor lock. exclude names an appointment left out of the
// overlap check; when set, the write atomically replaces it.
func (s *Service) bookLocked(ctx context.Context, doctorID, patientID uuid.UUID, start, end time.Time, exclude uuid.UUID) (*Appointment, error) {
	date := availability.DateOf(start)

	open, err := s.avail.EffectiveAvailability(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	target := availability.Interval{
		Start: int(start.Sub(date) / time.Minute),
		End:   int(end.Sub(date) / time.Minute),
	}
	if !availability.Covers(open, target) {
		return nil, ErrSlotUnavailable
	}

	overlapping, err := s.repo.FindOverlapping(ctx, doctorID, start, end, exclude)
	if err != nil {
		return nil, fmt.Errorf("check overlap: %w", err)
	}
	if len(overlapping) > 0 {
		return nil, ErrSlotConflict
	}

	appt := &Appointment{
		ID:        uuid.New(),
		DoctorID:  doctorID,
		PatientID: patientID,
		Start:     start,
		End:       end,
		Status:    StatusScheduled,
	}

	if exclude == uuid.Nil {
		err = s.repo.Insert(ctx, appt)
	} else {
		err = s.repo.Replace(ctx, exclude, appt)
	}
	if err != nil {
		return nil, fmt.Errorf("write appointment: %w", err)
	}

	return appt, nil
}

// Cancel moves a scheduled appointment to cancelled. actor identifies who
// asked (patient, doctor or admin) for the audit trail only; authorization
// happens at the boundary.
func (s *Service) Cancel(ctx context.Context, id, actor uuid.UUID) error {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return err
	}
	if appt.Status != StatusScheduled {
		return ErrInvalidTransition
	}

	err = s.locker.WithDoctorLock(ctx, appt.DoctorID, func(lockCtx context.Context) error {
		if _, err := s.repo.UpdateStatus(lockCtx, id, StatusScheduled, StatusCancelled); err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				// The row exists; its status moved under us.
				return ErrInvalidTransition
			}
			return fmt.Errorf("cancel appointment: %w", err)
		}

		s.logEvent(lockCtx, id, EventAppointmentCancelled, map[string]any{
			"actor": actor.String(),
		})
		return nil
	})
	if errors.Is(err, lock.ErrLockNotAcquired) {
		return ErrSlotConflict
	}
	return err
}

// Complete moves a scheduled appointment to completed and attaches the
// treatment record. Completion before the appointment start is rejected.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, tr TreatmentRecord) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusScheduled {
		return nil, ErrInvalidTransition
	}
	if s.now().Before(appt.Start) {
		return nil, ErrTooEarly
	}

	var updated *Appointment
	err = s.locker.WithDoctorLock(ctx, appt.DoctorID, func(lockCtx context.Context) error {
		updated, err = s.repo.Complete(lockCtx, id, tr)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				return ErrInvalidTransition
			}
			return fmt.Errorf("complete appointment: %w", err)
		}

		s.logEvent(lockCtx, id, EventAppointmentCompleted, map[string]any{})
		return nil
	})
	if err != nil {
		if errors.Is(err, lock.ErrLockNotAcquired) {
			return nil, ErrSlotConflict
		}
		return nil, err
	}

	return updated, nil
}

// Reschedule cancels the old appointment and books [newStart, newEnd) as a
// single all-or-nothing operation under the doctor lock. If the new
// interval is illegal nothing changes and the original stays scheduled.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newStart, newEnd time.Time) (*Appointment, error) {
	newStart, newEnd = newStart.UTC(), newEnd.UTC()
	if err := validateInterval(newStart, newEnd); err != nil {
		return nil, err
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var created *Appointment
	err = s.locker.WithDoctorLock(ctx, appt.DoctorID, func(lockCtx context.Context) error {
		// Re-read inside the critical section; the status may have moved.
		cur, err := s.repo.GetAppointmentByID(lockCtx, id)
		if err != nil {
			return err
		}
		if cur.Status != StatusScheduled {
			return ErrInvalidTransition
		}

		created, err = s.bookLocked(lockCtx, cur.DoctorID, cur.PatientID, newStart, newEnd, id)
		if err != nil {
			return err
		}

		s.logEvent(lockCtx, created.ID, EventAppointmentRescheduled, map[string]any{
			"replaces": id.String(),
			"start":    newStart,
			"end":      newEnd,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, lock.ErrLockNotAcquired) {
			return nil, ErrSlotConflict
		}
		return nil, err
	}

	return created, nil
}

// Slots returns the doctor's bookable slots for [from, to]. duration <= 0
// falls back to the doctor's configured slot length. The result is a
// snapshot: it may go stale before a booking attempt, which the booking
// error path handles.
func (s *Service) Slots(ctx context.Context, doctorID uuid.UUID, from, to time.Time, duration time.Duration) ([]schedule.Slot, error) {
	if duration <= 0 {
		doc, err := s.avail.GetDoctor(ctx, doctorID)
		if err != nil {
			return nil, err
		}
		duration = time.Duration(doc.SlotMinutes) * time.Minute
		if duration <= 0 {
			duration = s.cfg.SlotDuration
		}
	}

	days, err := s.avail.AvailabilityRange(ctx, doctorID, from, to)
	if err != nil {
		return nil, err
	}

	appts, err := s.repo.ListByDoctor(ctx, doctorID, availability.DateOf(from), availability.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	var busy []schedule.Busy
	for _, a := range appts {
		if a.Status == StatusCancelled {
			continue
		}
		busy = append(busy, schedule.Busy{Start: a.Start, End: a.End})
	}

	return schedule.Generate(doctorID, days, busy, duration), nil
}

// Availability returns per-date effective open intervals for [from, to].
func (s *Service) Availability(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]availability.DayAvailability, error) {
	return s.avail.AvailabilityRange(ctx, doctorID, from, to)
}

// Get retrieves one appointment by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

// ListByDoctor returns the doctor's appointments with Start in [from, to],
// ordered by start ascending.
func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	if _, err := s.avail.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.repo.ListByDoctor(ctx, doctorID, availability.DateOf(from), availability.DateOf(to))
}

// ListByPatient returns the patient's appointments ordered by start ascending.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID)
}

// validateInterval rejects malformed booking intervals: start must precede
// end, both on whole minutes, within a single calendar date.
func validateInterval(start, end time.Time) error {
	if !start.Before(end) {
		return ErrInvalidInterval
	}
	if !start.Truncate(time.Minute).Equal(start) || !end.Truncate(time.Minute).Equal(end) {
		return ErrInvalidInterval
	}
	day := availability.DateOf(start)
	if end.After(day.AddDate(0, 0, 1)) {
		return ErrInvalidInterval
	}
	return nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Error().Err(err).
			Str("event_type", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("insert event log")
	}
}
