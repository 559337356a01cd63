package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/bookings"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/schedule"
	"github.com/LPredmore/valorwell-first-ehr-sub007/pkg/logging"
)

// BookingService books and cancels appointments.
type BookingService interface {
	Book(ctx context.Context, req bookings.BookRequest) (*schedule.Appointment, error)
	Cancel(ctx context.Context, appointmentID uuid.UUID, contact bookings.ClientContact) error
}

type AppointmentsConfig struct {
	Service BookingService
	Logger  *logging.Logger
}

// AppointmentsHandler turns chosen slots into appointments.
type AppointmentsHandler struct {
	svc    BookingService
	logger *logging.Logger
}

func NewAppointmentsHandler(cfg AppointmentsConfig) *AppointmentsHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &AppointmentsHandler{svc: cfg.Service, logger: cfg.Logger}
}

type bookRequest struct {
	ClinicianID   string `json:"clinician_id"`
	ClientID      string `json:"client_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	ClientEmail   string `json:"client_email,omitempty"`
	ClientName    string `json:"client_name,omitempty"`
	ClinicianName string `json:"clinician_name,omitempty"`
}

type bookResponse struct {
	ID        uuid.UUID     `json:"id"`
	Date      schedule.Date `json:"date"`
	StartTime string        `json:"start_time"`
	EndTime   string        `json:"end_time"`
	Status    string        `json:"status"`
}

// Book claims a window on a clinician's calendar. A 409 means another client
// won the race; re-fetch slots and retry.
// Route: POST /appointments
func (h *AppointmentsHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	clinicianID, err := uuid.Parse(req.ClinicianID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "clinician_id must be a UUID"})
		return
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "client_id must be a UUID"})
		return
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	start, end, ok := parseWindow(w, req.StartTime, req.EndTime)
	if !ok {
		return
	}

	appt, err := h.svc.Book(r.Context(), bookings.BookRequest{
		ClinicianID:   clinicianID,
		ClientID:      clientID,
		Date:          date,
		Start:         start,
		End:           end,
		ClientEmail:   req.ClientEmail,
		ClientName:    req.ClientName,
		ClinicianName: req.ClinicianName,
	})
	if err != nil {
		h.logger.Warn("booking rejected", "error", err, "clinician_id", clinicianID, "date", date.String())
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookResponse{
		ID:        appt.ID,
		Date:      appt.Date,
		StartTime: appt.StartTime.String(),
		EndTime:   appt.EndTime.String(),
		Status:    string(appt.Status),
	})
}

type cancelRequest struct {
	ClientEmail   string `json:"client_email,omitempty"`
	ClientName    string `json:"client_name,omitempty"`
	ClinicianName string `json:"clinician_name,omitempty"`
}

// Cancel frees an appointment's window for rebooking.
// Route: DELETE /appointments/{appointmentID}
func (h *AppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "appointmentID must be a UUID"})
		return
	}
	var req cancelRequest
	if r.Body != nil {
		// Contact details are optional; an empty body cancels silently.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	err = h.svc.Cancel(r.Context(), id, bookings.ClientContact{
		Email:         req.ClientEmail,
		Name:          req.ClientName,
		ClinicianName: req.ClinicianName,
	})
	if err != nil {
		h.logger.Warn("cancel rejected", "error", err, "appointment_id", id)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
