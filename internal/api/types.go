package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/carewave/hospital-scheduling/internal/appointment"
)

type BookAppointmentRequest struct {
	DoctorID  string    `json:"doctor_id"`
	PatientID string    `json:"patient_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

type RescheduleRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type CancelRequest struct {
	ActorID string `json:"actor_id"`
}

type CompleteRequest struct {
	Diagnosis    string `json:"diagnosis"`
	Prescription string `json:"prescription"`
	Notes        string `json:"notes"`
}

// IntervalPayload carries a within-day window as wall-clock "HH:MM" strings.
type IntervalPayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// PatternRequest maps lowercase weekday names to open intervals, e.g.
// {"monday": [{"start": "09:00", "end": "12:00"}]}.
type PatternRequest map[string][]IntervalPayload

type OverrideRequest struct {
	Date  string `json:"date"` // 2006-01-02
	Kind  string `json:"kind"` // block_day, block_interval, add_interval
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type AppointmentResponse struct {
	ID        uuid.UUID                    `json:"id"`
	DoctorID  uuid.UUID                    `json:"doctor_id"`
	PatientID uuid.UUID                    `json:"patient_id"`
	Start     time.Time                    `json:"start"`
	End       time.Time                    `json:"end"`
	Status    string                       `json:"status"`
	Treatment *appointment.TreatmentRecord `json:"treatment,omitempty"`
}

type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type DayAvailabilityResponse struct {
	Date      string            `json:"date"`
	Intervals []IntervalPayload `json:"intervals"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		DoctorID:  a.DoctorID,
		PatientID: a.PatientID,
		Start:     a.Start,
		End:       a.End,
		Status:    string(a.Status),
		Treatment: a.Treatment,
	}
}
