// Package bookings turns a chosen slot into a persisted appointment. The
// storage layer owns the final no-double-booking guarantee; this service
// re-validates against resolved availability first so most conflicts are
// caught before touching the appointments table.
package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/notify"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/observability/metrics"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/schedule"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/settings"
	"github.com/LPredmore/valorwell-first-ehr-sub007/pkg/logging"
)

var bookingsTracer = otel.Tracer("valorwell.internal.bookings")

// ErrOutsideAvailability is returned when the requested window is not fully
// inside the clinician's resolved open time for that date.
var ErrOutsideAvailability = errors.New("bookings: requested time is outside availability")

// ErrAppointmentNotFound is returned when cancelling an unknown appointment.
var ErrAppointmentNotFound = errors.New("bookings: appointment not found")

// AppointmentStore is the persistence surface bookings need beyond the
// resolver's read path.
type AppointmentStore interface {
	schedule.Source
	InsertAppointment(ctx context.Context, a *schedule.Appointment) error
	GetAppointment(ctx context.Context, id uuid.UUID) (*schedule.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status schedule.AppointmentStatus) error
}

// SettingsProvider loads per-clinician scheduling settings.
type SettingsProvider interface {
	Get(ctx context.Context, clinicianID uuid.UUID) (*settings.AvailabilitySettings, error)
}

// Notifier sends appointment lifecycle emails. Failures are logged, never
// surfaced to the booking caller.
type Notifier interface {
	AppointmentBooked(ctx context.Context, n notify.AppointmentNotice) error
	AppointmentCancelled(ctx context.Context, n notify.AppointmentNotice) error
}

// BookRequest is one attempt to claim a window on a clinician's calendar.
// Times are in the clinician's local clock, matching the slots the client was
// shown.
type BookRequest struct {
	ClinicianID   uuid.UUID
	ClientID      uuid.UUID
	Date          schedule.Date
	Start         schedule.ClockTime
	End           schedule.ClockTime
	ClientEmail   string
	ClientName    string
	ClinicianName string
}

// Service books and cancels appointments.
type Service struct {
	store    AppointmentStore
	resolver *schedule.Resolver
	settings SettingsProvider
	notifier Notifier
	logger   *logging.Logger
	metrics  *metrics.SchedulingMetrics
}

func NewService(store AppointmentStore, sp SettingsProvider, notifier Notifier, logger *logging.Logger, m *metrics.SchedulingMetrics) *Service {
	if store == nil || sp == nil {
		panic("bookings: store and settings provider required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    store,
		resolver: schedule.NewResolver(store),
		settings: sp,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
	}
}


// Book validates the requested window against resolved availability and
// existing appointments, then inserts the row. A concurrent booking of the
// same window loses at the database constraint and surfaces as
// schedule.ErrSlotConflict; callers should re-fetch slots and retry.
func (s *Service) Book(ctx context.Context, req BookRequest) (*schedule.Appointment, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("valorwell.clinician_id", req.ClinicianID.String()),
		attribute.String("valorwell.date", req.Date.String()),
	)

	if req.ClinicianID == uuid.Nil || req.ClientID == uuid.Nil || req.Date.IsZero() {
		return nil, schedule.ErrMissingContext
	}
	if req.End <= req.Start {
		return nil, fmt.Errorf("%w: [%s, %s)", schedule.ErrInvalidInterval, req.Start, req.End)
	}

	resolved, err := s.resolver.Resolve(ctx, req.ClinicianID, req.Date)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !within(resolved, req.Start, req.End) {
		s.metrics.ObserveBooking("outside_availability")
		return nil, ErrOutsideAvailability
	}

	appts, err := s.store.ActiveAppointments(ctx, req.ClinicianID, req.Date)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("bookings: load appointments: %w", err)
	}
	for _, a := range appts {
		if a.StartTime < req.End && a.EndTime > req.Start {
			s.metrics.ObserveBooking("conflict")
			s.metrics.ObserveConflict()
			return nil, schedule.ErrSlotConflict
		}
	}

	clientID := req.ClientID
	appt := &schedule.Appointment{
		ClinicianID: req.ClinicianID,
		ClientID:    &clientID,
		Date:        req.Date,
		StartTime:   req.Start,
		EndTime:     req.End,
		Status:      schedule.StatusScheduled,
	}
	if err := s.store.InsertAppointment(ctx, appt); err != nil {
		span.RecordError(err)
		if errors.Is(err, schedule.ErrSlotConflict) {
			s.metrics.ObserveBooking("conflict")
			s.metrics.ObserveConflict()
		}
		return nil, err
	}

	s.metrics.ObserveBooking("created")
	s.logger.Info("appointment booked",
		"appointment_id", appt.ID, "clinician_id", req.ClinicianID,
		"date", req.Date.String(), "start", req.Start.String())
	s.sendBookedNotice(ctx, appt, req)
	return appt, nil
}

// Cancel transitions an appointment to cancelled, freeing its window for
// rebooking. Cancelling an already-cancelled appointment is a no-op.
func (s *Service) Cancel(ctx context.Context, appointmentID uuid.UUID, contact ClientContact) error {
	ctx, span := bookingsTracer.Start(ctx, "bookings.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("valorwell.appointment_id", appointmentID.String()))

	appt, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if appt == nil {
		return ErrAppointmentNotFound
	}
	if appt.Status == schedule.StatusCancelled {
		return nil
	}

	if err := s.store.UpdateAppointmentStatus(ctx, appointmentID, schedule.StatusCancelled); err != nil {
		span.RecordError(err)
		return err
	}
	s.metrics.ObserveBooking("cancelled")
	s.logger.Info("appointment cancelled", "appointment_id", appointmentID)
	s.sendCancelledNotice(ctx, appt, contact)
	return nil
}

// ClientContact is the notification recipient for a cancellation.
type ClientContact struct {
	Email         string
	Name          string
	ClinicianName string
}

// within reports whether [start, end) sits fully inside one resolved
// interval. Merged intervals never touch, so a window can't legitimately span
// two of them.
func within(resolved []schedule.ResolvedInterval, start, end schedule.ClockTime) bool {
	for _, ri := range resolved {
		if ri.Start <= start && end <= ri.End {
			return true
		}
	}
	return false
}

func (s *Service) sendBookedNotice(ctx context.Context, appt *schedule.Appointment, req BookRequest) {
	if s.notifier == nil {
		return
	}
	display, err := s.displayStart(ctx, appt)
	if err != nil {
		s.logger.Warn("skipping booking notice", "error", err, "appointment_id", appt.ID)
		return
	}
	n := notify.NoticeFor(appt, req.ClientEmail, req.ClientName, req.ClinicianName, display)
	if err := s.notifier.AppointmentBooked(ctx, n); err != nil {
		s.logger.Warn("booking notice failed", "error", err, "appointment_id", appt.ID)
	}
}

func (s *Service) sendCancelledNotice(ctx context.Context, appt *schedule.Appointment, contact ClientContact) {
	if s.notifier == nil {
		return
	}
	display, err := s.displayStart(ctx, appt)
	if err != nil {
		s.logger.Warn("skipping cancellation notice", "error", err, "appointment_id", appt.ID)
		return
	}
	n := notify.NoticeFor(appt, contact.Email, contact.Name, contact.ClinicianName, display)
	if err := s.notifier.AppointmentCancelled(ctx, n); err != nil {
		s.logger.Warn("cancellation notice failed", "error", err, "appointment_id", appt.ID)
	}
}

// displayStart renders the appointment start in the clinician's zone for the
// notification templates.
func (s *Service) displayStart(ctx context.Context, appt *schedule.Appointment) (time.Time, error) {
	cfg, err := s.settings.Get(ctx, appt.ClinicianID)
	if err != nil {
		cfg = settings.DefaultSettings(appt.ClinicianID)
	}
	instant, err := schedule.LocalToUTC(appt.Date.String(), appt.StartTime.String(), cfg.TimeZone)
	if err != nil {
		return time.Time{}, err
	}
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return time.Time{}, err
	}
	return instant.In(loc), nil
}
