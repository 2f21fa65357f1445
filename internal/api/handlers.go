package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carewave/hospital-scheduling/internal/appointment"
	"github.com/carewave/hospital-scheduling/internal/availability"
)

func bookAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		appt, err := svc.Book(r.Context(), doctorID, patientID, req.Start, req.End)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func rescheduleAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Reschedule(r.Context(), id, req.Start, req.End)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		// Actor is optional; the boundary authenticated the caller already.
		var req CancelRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		actor, _ := uuid.Parse(req.ActorID)

		if err := svc.Cancel(r.Context(), id, actor); err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
	}
}

func completeAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		var req CompleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Complete(r.Context(), id, appointment.TreatmentRecord{
			Diagnosis:    req.Diagnosis,
			Prescription: req.Prescription,
			Notes:        req.Notes,
		})
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func doctorSlotsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseIDParam(w, r, "doctorID")
		if !ok {
			return
		}
		from, to, ok := parseDateRange(w, r)
		if !ok {
			return
		}

		var duration time.Duration
		if raw := r.URL.Query().Get("duration_minutes"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "invalid_duration", "duration_minutes must be a positive integer")
				return
			}
			duration = time.Duration(n) * time.Minute
		}

		slots, err := svc.Slots(r.Context(), doctorID, from, to, duration)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, SlotResponse{Start: s.Start, End: s.End})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func doctorAvailabilityHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseIDParam(w, r, "doctorID")
		if !ok {
			return
		}
		from, to, ok := parseDateRange(w, r)
		if !ok {
			return
		}

		days, err := svc.Availability(r.Context(), doctorID, from, to)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		resp := make([]DayAvailabilityResponse, 0, len(days))
		for _, day := range days {
			ivs := make([]IntervalPayload, 0, len(day.Open))
			for _, iv := range day.Open {
				ivs = append(ivs, IntervalPayload{
					Start: minutesToClock(iv.Start),
					End:   minutesToClock(iv.End),
				})
			}
			resp = append(resp, DayAvailabilityResponse{
				Date:      day.Date.Format("2006-01-02"),
				Intervals: ivs,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func setPatternHandler(store *availability.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseIDParam(w, r, "doctorID")
		if !ok {
			return
		}

		var req PatternRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		pattern, err := parsePattern(req)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_interval", err.Error())
			return
		}

		if err := store.SetWeeklyPattern(r.Context(), doctorID, pattern); err != nil {
			handleSchedulingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func addOverrideHandler(store *availability.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseIDParam(w, r, "doctorID")
		if !ok {
			return
		}

		var req OverrideRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be formatted 2006-01-02")
			return
		}

		var iv *availability.Interval
		if req.Start != "" || req.End != "" {
			parsed, err := parseClockInterval(req.Start, req.End)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "invalid_interval", err.Error())
				return
			}
			iv = &parsed
		}

		err = store.AddOverride(r.Context(), doctorID, date, availability.OverrideKind(req.Kind), iv)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
	}
}

func listByDoctorHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := parseIDParam(w, r, "doctorID")
		if !ok {
			return
		}
		from, to, ok := parseDateRange(w, r)
		if !ok {
			return
		}

		appts, err := svc.ListByDoctor(r.Context(), doctorID, from, to)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeAppointmentList(w, appts)
	}
}

func listByPatientHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, ok := parseIDParam(w, r, "patientID")
		if !ok {
			return
		}

		appts, err := svc.ListByPatient(r.Context(), patientID)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeAppointmentList(w, appts)
	}
}

// Error mapping

func handleSchedulingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, availability.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, appointment.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, availability.ErrInvalidInterval),
		errors.Is(err, appointment.ErrInvalidInterval):
		writeError(w, http.StatusUnprocessableEntity, "invalid_interval", err.Error())
	case errors.Is(err, availability.ErrDuplicateOverride):
		writeError(w, http.StatusConflict, "duplicate_override", err.Error())
	case errors.Is(err, appointment.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", err.Error())
	case errors.Is(err, appointment.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", "slot was taken by another booking, re-query available slots")
	case errors.Is(err, appointment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, appointment.ErrTooEarly):
		writeError(w, http.StatusConflict, "too_early", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// Helpers

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseDateRange(w http.ResponseWriter, r *http.Request) (from, to time.Time, ok bool) {
	q := r.URL.Query()
	from, err := time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_from", "from must be formatted 2006-01-02")
		return time.Time{}, time.Time{}, false
	}
	to, err = time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_to", "to must be formatted 2006-01-02")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parsePattern(req PatternRequest) (availability.WeeklyPattern, error) {
	pattern := availability.WeeklyPattern{}
	for day, ivs := range req {
		weekday, ok := weekdayNames[strings.ToLower(day)]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", day)
		}
		for _, payload := range ivs {
			iv, err := parseClockInterval(payload.Start, payload.End)
			if err != nil {
				return nil, err
			}
			pattern[weekday] = append(pattern[weekday], iv)
		}
	}
	return pattern, nil
}

func parseClockInterval(start, end string) (availability.Interval, error) {
	s, err := parseClock(start)
	if err != nil {
		return availability.Interval{}, err
	}
	e, err := parseClock(end)
	if err != nil {
		return availability.Interval{}, err
	}
	return availability.Interval{Start: s, End: e}, nil
}

func parseClock(raw string) (int, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, fmt.Errorf("time %q must be formatted HH:MM", raw)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func minutesToClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func writeAppointmentList(w http.ResponseWriter, appts []appointment.Appointment) {
	resp := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		resp = append(resp, toAppointmentResponse(&appts[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
