package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	CreatePatient(ctx context.Context, p *Patient) error
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Insert(ctx context.Context, a *Appointment) error

	// UpdateStatus is a compare-and-swap: the row must currently hold the
	// from status, otherwise ErrAppointmentNotFound comes back.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// Complete transitions scheduled -> completed and attaches the
	// treatment record in the same write.
	Complete(ctx context.Context, id uuid.UUID, tr TreatmentRecord) (*Appointment, error)

	// FindOverlapping returns scheduled or completed appointments for the
	// doctor whose interval overlaps [start, end). exclude skips one
	// appointment ID (used by reschedule); pass uuid.Nil to skip none.
	FindOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time, exclude uuid.UUID) ([]Appointment, error)

	// Replace atomically cancels the old appointment (which must still be
	// scheduled) and inserts its replacement.
	Replace(ctx context.Context, oldID uuid.UUID, replacement *Appointment) error

	ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
