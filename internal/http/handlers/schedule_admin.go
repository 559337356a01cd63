package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/schedule"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/settings"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/tenancy"
	"github.com/LPredmore/valorwell-first-ehr-sub007/pkg/logging"
)

// ScheduleService applies occurrence- and series-scoped edits.
type ScheduleService interface {
	EditBlock(ctx context.Context, clinicianID, blockID uuid.UUID, date schedule.Date, start, end schedule.ClockTime, scope schedule.EditScope) error
	CancelBlock(ctx context.Context, clinicianID, blockID uuid.UUID, date schedule.Date, scope schedule.EditScope) error
	AddOneTime(ctx context.Context, clinicianID uuid.UUID, date schedule.Date, start, end schedule.ClockTime) (*schedule.AvailabilityException, error)
}

// BlockStore is the CRUD surface for recurring blocks and blackouts.
type BlockStore interface {
	CreateWeeklyBlock(ctx context.Context, b *schedule.WeeklyAvailabilityBlock) error
	ListWeeklyBlocks(ctx context.Context, clinicianID uuid.UUID) ([]schedule.WeeklyAvailabilityBlock, error)
	CreateTimeBlock(ctx context.Context, tb *schedule.TimeBlock) error
	DeleteTimeBlock(ctx context.Context, id uuid.UUID) error
}

// SettingsStore reads and writes per-clinician scheduling settings.
type SettingsStore interface {
	Get(ctx context.Context, clinicianID uuid.UUID) (*settings.AvailabilitySettings, error)
	Set(ctx context.Context, s *settings.AvailabilitySettings) error
}

type ScheduleAdminConfig struct {
	Service  ScheduleService
	Store    BlockStore
	Settings SettingsStore
	Logger   *logging.Logger
}

// ScheduleAdminHandler manages a clinician's recurring pattern, per-date
// exceptions, blackouts and settings. All routes sit behind admin auth.
type ScheduleAdminHandler struct {
	svc      ScheduleService
	store    BlockStore
	settings SettingsStore
	logger   *logging.Logger
}

func NewScheduleAdminHandler(cfg ScheduleAdminConfig) *ScheduleAdminHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &ScheduleAdminHandler{
		svc:      cfg.Service,
		store:    cfg.Store,
		settings: cfg.Settings,
		logger:   cfg.Logger,
	}
}

type weeklyBlockRequest struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type weeklyBlockResponse struct {
	ID        uuid.UUID `json:"id"`
	DayOfWeek int       `json:"day_of_week"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	IsActive  bool      `json:"is_active"`
}

func blockResponse(b schedule.WeeklyAvailabilityBlock) weeklyBlockResponse {
	return weeklyBlockResponse{
		ID:        b.ID,
		DayOfWeek: int(b.DayOfWeek),
		StartTime: b.StartTime.String(),
		EndTime:   b.EndTime.String(),
		IsActive:  b.IsActive,
	}
}

// CreateBlock adds a recurring weekly window.
// Route: POST /admin/clinicians/{clinicianID}/blocks
func (h *ScheduleAdminHandler) CreateBlock(w http.ResponseWriter, r *http.Request) {
	clinicianID, ok := clinicianParam(w, r)
	if !ok {
		return
	}
	var req weeklyBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "day_of_week must be 0-6"})
		return
	}
	start, end, ok := parseWindow(w, req.StartTime, req.EndTime)
	if !ok {
		return
	}

	block := &schedule.WeeklyAvailabilityBlock{
		ClinicianID: clinicianID,
		DayOfWeek:   time.Weekday(req.DayOfWeek),
		StartTime:   start,
		EndTime:     end,
	}
	if err := h.store.CreateWeeklyBlock(r.Context(), block); err != nil {
		h.logger.Error("create weekly block failed", "error", err, "clinician_id", clinicianID)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, blockResponse(*block))
}

// ListBlocks returns every block for the clinician, active or not.
// Route: GET /admin/clinicians/{clinicianID}/blocks
func (h *ScheduleAdminHandler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	clinicianID, ok := clinicianParam(w, r)
	if !ok {
		return
	}
	blocks, err := h.store.ListWeeklyBlocks(r.Context(), clinicianID)
	if err != nil {
		h.logger.Error("list weekly blocks failed", "error", err, "clinician_id", clinicianID)
		writeError(w, err)
		return
	}
	out := make([]weeklyBlockResponse, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, blockResponse(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocks": out})
}

type editBlockRequest struct {
	Scope     string `json:"scope"` // "occurrence" or "series"
	Date      string `json:"date,omitempty"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// EditBlock changes times for one occurrence or the whole series.
// Route: PATCH /admin/clinicians/{clinicianID}/blocks/{blockID}
func (h *ScheduleAdminHandler) EditBlock(w http.ResponseWriter, r *http.Request) {
	clinicianID, blockID, ok := blockParams(w, r)
	if !ok {
		return
	}
	var req editBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	scope, date, ok := parseScope(w, req.Scope, req.Date)
	if !ok {
		return
	}
	start, end, ok := parseWindow(w, req.StartTime, req.EndTime)
	if !ok {
		return
	}

	if err := h.svc.EditBlock(r.Context(), clinicianID, blockID, date, start, end, scope); err != nil {
		h.logger.Error("edit block failed", "error", err, "block_id", blockID, "scope", scope.String())
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelBlock removes one occurrence or deactivates the series.
// Route: DELETE /admin/clinicians/{clinicianID}/blocks/{blockID}?scope=...&date=...
func (h *ScheduleAdminHandler) CancelBlock(w http.ResponseWriter, r *http.Request) {
	clinicianID, blockID, ok := blockParams(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	scope, date, ok := parseScope(w, q.Get("scope"), q.Get("date"))
	if !ok {
		return
	}

	if err := h.svc.CancelBlock(r.Context(), clinicianID, blockID, date, scope); err != nil {
		h.logger.Error("cancel block failed", "error", err, "block_id", blockID, "scope", scope.String())
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type oneTimeRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// AddOneTime opens a standalone window on a single date.
// Route: POST /admin/clinicians/{clinicianID}/exceptions
func (h *ScheduleAdminHandler) AddOneTime(w http.ResponseWriter, r *http.Request) {
	clinicianID, ok := clinicianParam(w, r)
	if !ok {
		return
	}
	var req oneTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
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

	ex, err := h.svc.AddOneTime(r.Context(), clinicianID, date, start, end)
	if err != nil {
		h.logger.Error("add one-time window failed", "error", err, "clinician_id", clinicianID)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         ex.ID,
		"date":       ex.SpecificDate,
		"start_time": ex.StartTime.String(),
		"end_time":   ex.EndTime.String(),
	})
}

type timeBlockRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason,omitempty"`
}

// CreateTimeBlock adds a blackout that is always subtracted from
// availability.
// Route: POST /admin/clinicians/{clinicianID}/time-blocks
func (h *ScheduleAdminHandler) CreateTimeBlock(w http.ResponseWriter, r *http.Request) {
	clinicianID, ok := clinicianParam(w, r)
	if !ok {
		return
	}
	var req timeBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
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

	tb := &schedule.TimeBlock{
		ClinicianID: clinicianID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		Reason:      req.Reason,
	}
	if err := h.store.CreateTimeBlock(r.Context(), tb); err != nil {
		h.logger.Error("create time block failed", "error", err, "clinician_id", clinicianID)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": tb.ID})
}

// DeleteTimeBlock removes a blackout.
// Route: DELETE /admin/time-blocks/{timeBlockID}
func (h *ScheduleAdminHandler) DeleteTimeBlock(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "timeBlockID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "timeBlockID must be a UUID"})
		return
	}
	if err := h.store.DeleteTimeBlock(r.Context(), id); err != nil {
		h.logger.Error("delete time block failed", "error", err, "time_block_id", id)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSettings returns the clinician's scheduling settings, defaults when
// never configured.
// Route: GET /admin/clinicians/{clinicianID}/settings
func (h *ScheduleAdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	clinicianID, ok := clinicianParam(w, r)
	if !ok {
		return
	}
	cfg, err := h.settings.Get(r.Context(), clinicianID)
	if err != nil {
		h.logger.Error("load settings failed", "error", err, "clinician_id", clinicianID)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// PutSettings upserts the clinician's scheduling settings.
// Route: PUT /admin/clinicians/{clinicianID}/settings
func (h *ScheduleAdminHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	clinicianID, ok := clinicianParam(w, r)
	if !ok {
		return
	}
	var cfg settings.AvailabilitySettings
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	cfg.ClinicianID = clinicianID
	if err := cfg.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := h.settings.Set(r.Context(), &cfg); err != nil {
		h.logger.Error("save settings failed", "error", err, "clinician_id", clinicianID)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// --- shared parsing ---

// clinicianParam parses the path clinician id. A clinician-scoped token may
// only touch its own schedule; tokens without a clinician subject are
// clinic-wide.
func clinicianParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	clinicianID, err := uuid.Parse(chi.URLParam(r, "clinicianID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "clinicianID must be a UUID"})
		return uuid.Nil, false
	}
	if tokenID, ok := tenancy.ClinicianIDFromContext(r.Context()); ok && tokenID != clinicianID {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "token is not scoped to this clinician"})
		return uuid.Nil, false
	}
	return clinicianID, true
}

func blockParams(w http.ResponseWriter, r *http.Request) (clinicianID, blockID uuid.UUID, ok bool) {
	clinicianID, ok = clinicianParam(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	blockID, err := uuid.Parse(chi.URLParam(r, "blockID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "blockID must be a UUID"})
		return uuid.Nil, uuid.Nil, false
	}
	return clinicianID, blockID, true
}

func parseWindow(w http.ResponseWriter, startStr, endStr string) (start, end schedule.ClockTime, ok bool) {
	start, err := schedule.ParseClockTime(startStr)
	if err != nil {
		writeError(w, err)
		return 0, 0, false
	}
	end, err = schedule.ParseClockTime(endStr)
	if err != nil {
		writeError(w, err)
		return 0, 0, false
	}
	if end <= start {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "end_time must be after start_time"})
		return 0, 0, false
	}
	return start, end, true
}

// parseScope reads the edit scope and, for occurrence edits, the target date.
// Series edits ignore the date.
func parseScope(w http.ResponseWriter, scopeStr, dateStr string) (schedule.EditScope, schedule.Date, bool) {
	switch scopeStr {
	case "series":
		return schedule.ScopeSeries, schedule.Date{}, true
	case "", "occurrence":
		date, err := schedule.ParseDate(dateStr)
		if err != nil {
			writeError(w, err)
			return 0, schedule.Date{}, false
		}
		return schedule.ScopeOccurrence, date, true
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "scope must be occurrence or series"})
		return 0, schedule.Date{}, false
	}
}
