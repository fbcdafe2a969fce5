package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/furwell/vetclinic-scheduling/internal/clinic"
)

// SchedulingService is the appointment surface the handlers need.
type SchedulingService interface {
	Create(ctx context.Context, in clinic.CreateAppointment) (*clinic.Appointment, error)
	Reschedule(ctx context.Context, id uuid.UUID, newStart, newEnd time.Time) (*clinic.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) (*clinic.Appointment, error)
	Restore(ctx context.Context, id uuid.UUID) (*clinic.Appointment, error)
	Complete(ctx context.Context, id uuid.UUID) (*clinic.Appointment, error)
	Transition(ctx context.Context, id uuid.UUID, target clinic.AppointmentStatus) (*clinic.Appointment, error)
	RecordPayment(ctx context.Context, appointmentID uuid.UUID, amountCents int64, status clinic.PaymentStatus) (*clinic.Payment, error)
	Get(ctx context.Context, id uuid.UUID) (*clinic.AppointmentDetail, error)
	ListByPet(ctx context.Context, petID uuid.UUID, limit, offset int) ([]clinic.AppointmentDetail, error)
}

// SlotService is the availability surface the handlers need.
type SlotService interface {
	AddSlot(ctx context.Context, vetID uuid.UUID, weekday int, startClock, endClock string) (*clinic.AvailabilitySlot, error)
	UpdateSlot(ctx context.Context, vetID, slotID uuid.UUID, upd clinic.SlotUpdate) (*clinic.AvailabilitySlot, error)
	DeleteSlot(ctx context.Context, vetID, slotID uuid.UUID) error
	ListSlots(ctx context.Context, vetID uuid.UUID, weekday int) ([]clinic.AvailabilitySlot, error)
}

// VetResolver maps a caller identity to its vet record.
type VetResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID, email string) (*clinic.Vet, error)
}

type RouterConfig struct {
	Service  SchedulingService
	Slots    SlotService
	Resolver VetResolver
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Logger   zerolog.Logger
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(IdentityMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Availability windows
	r.Route("/vets/{vetID}/slots", func(r chi.Router) {
		r.Get("/", listSlotsHandler(cfg.Slots))
		r.Post("/", addSlotHandler(cfg.Slots, cfg.Resolver))
		r.Patch("/{slotID}", updateSlotHandler(cfg.Slots, cfg.Resolver))
		r.Delete("/{slotID}", deleteSlotHandler(cfg.Slots, cfg.Resolver))
	})

	// Appointments
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(cfg.Service))
		r.Get("/", listAppointmentsHandler(cfg.Service))
		r.Get("/{id}", getAppointmentHandler(cfg.Service))
		r.Patch("/{id}/window", rescheduleAppointmentHandler(cfg.Service))
		r.Post("/{id}/status", transitionAppointmentHandler(cfg.Service))
		r.Post("/{id}/cancel", cancelAppointmentHandler(cfg.Service))
		r.Post("/{id}/restore", restoreAppointmentHandler(cfg.Service))
		r.Post("/{id}/complete", completeAppointmentHandler(cfg.Service))
		r.Post("/{id}/payments", recordPaymentHandler(cfg.Service))
	})

	return r
}
