package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/carewave/hospital-scheduling/internal/appointment"
	"github.com/carewave/hospital-scheduling/internal/availability"
)

type RouterConfig struct {
	Service      *appointment.Service
	Availability *availability.Store
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Doctor schedule endpoints
	r.Route("/doctors/{doctorID}", func(r chi.Router) {
		r.Get("/availability", doctorAvailabilityHandler(cfg.Service))
		r.Put("/availability/pattern", setPatternHandler(cfg.Availability))
		r.Post("/availability/overrides", addOverrideHandler(cfg.Availability))
		r.Get("/slots", doctorSlotsHandler(cfg.Service))
		r.Get("/appointments", listByDoctorHandler(cfg.Service))
	})

	// Appointment endpoints
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", bookAppointmentHandler(cfg.Service))
		r.Get("/{id}", getAppointmentHandler(cfg.Service))
		r.Post("/{id}/cancel", cancelAppointmentHandler(cfg.Service))
		r.Post("/{id}/reschedule", rescheduleAppointmentHandler(cfg.Service))
		r.Post("/{id}/complete", completeAppointmentHandler(cfg.Service))
	})

	r.Get("/patients/{patientID}/appointments", listByPatientHandler(cfg.Service))

	return r
}
