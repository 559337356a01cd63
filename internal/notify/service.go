package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/schedule"
	"github.com/LPredmore/valorwell-first-ehr-sub007/pkg/logging"
)

// AppointmentNotice carries the details the notification templates need. The
// display time is the appointment start in the recipient's own zone; the
// booking flow already resolved it, so this package does no time-zone math.
type AppointmentNotice struct {
	AppointmentID string
	ClientEmail   string
	ClientName    string
	ClinicianName string
	StartDisplay  time.Time
	Duration      time.Duration
}

// Service sends appointment lifecycle emails. A nil or missing sender
// degrades to logging only; notification failures never fail a booking.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if email == nil {
		email = NewStubEmailSender(logger)
	}
	return &Service{email: email, logger: logger}
}

// AppointmentBooked emails the client a confirmation.
func (s *Service) AppointmentBooked(ctx context.Context, n AppointmentNotice) error {
	if n.ClientEmail == "" {
		s.logger.Debug("notify: no client email on booking, skipping", "appointment_id", n.AppointmentID)
		return nil
	}

	when := n.StartDisplay.Format("Monday, January 2, 2006 at 3:04 PM MST")
	body := fmt.Sprintf(
		"Hi %s,\n\nYour appointment with %s is confirmed for %s (%d minutes).\n\nIf you need to reschedule, please contact your clinician's office.\n",
		displayName(n.ClientName), n.ClinicianName, when, int(n.Duration.Minutes()),
	)
	msg := EmailMessage{
		To:      n.ClientEmail,
		ToName:  n.ClientName,
		Subject: fmt.Sprintf("Appointment confirmed for %s", n.StartDisplay.Format("Jan 2")),
		Body:    body,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("notify: booking confirmation failed", "error", err, "appointment_id", n.AppointmentID)
		return fmt.Errorf("notify: booking confirmation: %w", err)
	}
	return nil
}

// AppointmentCancelled emails the client that their appointment was
// cancelled.
func (s *Service) AppointmentCancelled(ctx context.Context, n AppointmentNotice) error {
	if n.ClientEmail == "" {
		s.logger.Debug("notify: no client email on cancellation, skipping", "appointment_id", n.AppointmentID)
		return nil
	}

	when := n.StartDisplay.Format("Monday, January 2, 2006 at 3:04 PM MST")
	body := fmt.Sprintf(
		"Hi %s,\n\nYour appointment with %s on %s has been cancelled.\n\nYou can book a new time whenever you're ready.\n",
		displayName(n.ClientName), n.ClinicianName, when,
	)
	msg := EmailMessage{
		To:      n.ClientEmail,
		ToName:  n.ClientName,
		Subject: fmt.Sprintf("Appointment cancelled for %s", n.StartDisplay.Format("Jan 2")),
		Body:    body,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("notify: cancellation notice failed", "error", err, "appointment_id", n.AppointmentID)
		return fmt.Errorf("notify: cancellation notice: %w", err)
	}
	return nil
}

// NoticeFor builds an AppointmentNotice from a stored appointment and the
// client-facing display instant.
func NoticeFor(a *schedule.Appointment, clientEmail, clientName, clinicianName string, startDisplay time.Time) AppointmentNotice {
	dur := time.Duration(a.EndTime-a.StartTime) * time.Second
	return AppointmentNotice{
		AppointmentID: a.ID.String(),
		ClientEmail:   clientEmail,
		ClientName:    clientName,
		ClinicianName: clinicianName,
		StartDisplay:  startDisplay,
		Duration:      dur,
	}
}

func displayName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}
