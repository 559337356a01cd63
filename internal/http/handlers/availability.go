// Package handlers exposes the scheduling engine over HTTP.
package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/schedule"
	"github.com/LPredmore/valorwell-first-ehr-sub007/pkg/logging"
)

// AvailabilityService is the read surface the public handlers need.
type AvailabilityService interface {
	Intervals(ctx context.Context, clinicianID uuid.UUID, date schedule.Date) ([]schedule.ResolvedInterval, error)
	Slots(ctx context.Context, clinicianID uuid.UUID, date schedule.Date, clientZone string) ([]schedule.BookableSlot, error)
}

type AvailabilityConfig struct {
	Service AvailabilityService
	Logger  *logging.Logger
}

// AvailabilityHandler serves the client-facing read endpoints: resolved open
// intervals and bookable slots.
type AvailabilityHandler struct {
	svc    AvailabilityService
	logger *logging.Logger
}

func NewAvailabilityHandler(cfg AvailabilityConfig) *AvailabilityHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &AvailabilityHandler{svc: cfg.Service, logger: cfg.Logger}
}

type intervalsResponse struct {
	ClinicianID string                      `json:"clinician_id"`
	Date        schedule.Date               `json:"date"`
	Intervals   []schedule.ResolvedInterval `json:"intervals"`
}

// Intervals returns merged open time for one clinician and date.
// Route: GET /clinicians/{clinicianID}/availability?date=YYYY-MM-DD
func (h *AvailabilityHandler) Intervals(w http.ResponseWriter, r *http.Request) {
	clinicianID, date, ok := h.pathContext(w, r)
	if !ok {
		return
	}

	intervals, err := h.svc.Intervals(r.Context(), clinicianID, date)
	if err != nil {
		h.logger.Error("resolve availability failed", "error", err, "clinician_id", clinicianID)
		writeError(w, err)
		return
	}
	if intervals == nil {
		intervals = []schedule.ResolvedInterval{}
	}
	writeJSON(w, http.StatusOK, intervalsResponse{
		ClinicianID: clinicianID.String(),
		Date:        date,
		Intervals:   intervals,
	})
}

type slotsResponse struct {
	ClinicianID string                  `json:"clinician_id"`
	Date        schedule.Date           `json:"date"`
	TimeZone    string                  `json:"time_zone,omitempty"`
	Slots       []schedule.BookableSlot `json:"slots"`
}

// Slots returns the discrete bookable units for one clinician and date.
// Route: GET /clinicians/{clinicianID}/slots?date=YYYY-MM-DD&tz=Zone/Name
func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request) {
	clinicianID, date, ok := h.pathContext(w, r)
	if !ok {
		return
	}
	clientZone := r.URL.Query().Get("tz")

	slots, err := h.svc.Slots(r.Context(), clinicianID, date, clientZone)
	if err != nil {
		h.logger.Error("slot generation failed", "error", err, "clinician_id", clinicianID)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slotsResponse{
		ClinicianID: clinicianID.String(),
		Date:        date,
		TimeZone:    clientZone,
		Slots:       slots,
	})
}

// pathContext pulls and validates the clinician id and date every read
// endpoint requires.
func (h *AvailabilityHandler) pathContext(w http.ResponseWriter, r *http.Request) (uuid.UUID, schedule.Date, bool) {
	clinicianID, err := uuid.Parse(chi.URLParam(r, "clinicianID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "clinicianID must be a UUID"})
		return uuid.Nil, schedule.Date{}, false
	}
	date, err := schedule.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return uuid.Nil, schedule.Date{}, false
	}
	return clinicianID, date, true
}
