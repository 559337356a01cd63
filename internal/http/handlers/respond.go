package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/bookings"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/schedule"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP statuses. Unknown errors become an
// opaque 500 so internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	var gap *schedule.DSTGapError
	switch {
	case errors.Is(err, schedule.ErrMissingContext),
		errors.Is(err, schedule.ErrInvalidDateTimeFormat),
		errors.Is(err, schedule.ErrInvalidTimeZone),
		errors.Is(err, schedule.ErrInvalidInterval):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &gap):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, bookings.ErrOutsideAvailability):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, schedule.ErrSlotConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, bookings.ErrAppointmentNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
