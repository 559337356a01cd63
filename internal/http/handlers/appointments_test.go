package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/bookings"
	"github.com/LPredmore/valorwell-first-ehr-sub007/internal/schedule"
)

type fakeBookingService struct {
	bookErr   error
	cancelErr error
	booked    []bookings.BookRequest
	cancelled []uuid.UUID
}

func (f *fakeBookingService) Book(_ context.Context, req bookings.BookRequest) (*schedule.Appointment, error) {
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	f.booked = append(f.booked, req)
	clientID := req.ClientID
	return &schedule.Appointment{
		ID:          uuid.New(),
		ClinicianID: req.ClinicianID,
		ClientID:    &clientID,
		Date:        req.Date,
		StartTime:   req.Start,
		EndTime:     req.End,
		Status:      schedule.StatusScheduled,
	}, nil
}

func (f *fakeBookingService) Cancel(_ context.Context, id uuid.UUID, _ bookings.ClientContact) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, id)
	return nil
}

func bookBody(clinicianID, clientID uuid.UUID) string {
	return `{
		"clinician_id": "` + clinicianID.String() + `",
		"client_id": "` + clientID.String() + `",
		"date": "2025-11-03",
		"start_time": "09:00",
		"end_time": "10:00",
		"client_email": "client@example.com"
	}`
}

func TestBookCreatesAppointment(t *testing.T) {
	svc := &fakeBookingService{}
	h := NewAppointmentsHandler(AppointmentsConfig{Service: svc})
	clinician, client := uuid.New(), uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(bookBody(clinician, client)))
	rec := httptest.NewRecorder()
	h.Book(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID        string `json:"id"`
		Date      string `json:"date"`
		StartTime string `json:"start_time"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Date != "2025-11-03" || resp.StartTime != "09:00:00" || resp.Status != "scheduled" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(svc.booked) != 1 || svc.booked[0].ClientEmail != "client@example.com" {
		t.Fatalf("service not called correctly: %+v", svc.booked)
	}
}

func TestBookConflictIs409(t *testing.T) {
	svc := &fakeBookingService{bookErr: schedule.ErrSlotConflict}
	h := NewAppointmentsHandler(AppointmentsConfig{Service: svc})

	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(bookBody(uuid.New(), uuid.New())))
	rec := httptest.NewRecorder()
	h.Book(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestBookOutsideAvailabilityIs422(t *testing.T) {
	svc := &fakeBookingService{bookErr: bookings.ErrOutsideAvailability}
	h := NewAppointmentsHandler(AppointmentsConfig{Service: svc})

	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(bookBody(uuid.New(), uuid.New())))
	rec := httptest.NewRecorder()
	h.Book(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestBookDSTGapIs422(t *testing.T) {
	svc := &fakeBookingService{bookErr: &schedule.DSTGapError{
		Date: "2025-03-09",
		Time: "02:30:00",
		Zone: "America/Chicago",
	}}
	h := NewAppointmentsHandler(AppointmentsConfig{Service: svc})

	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(bookBody(uuid.New(), uuid.New())))
	rec := httptest.NewRecorder()
	h.Book(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestBookRejectsMalformedInput(t *testing.T) {
	h := NewAppointmentsHandler(AppointmentsConfig{Service: &fakeBookingService{}})

	cases := []string{
		`not json`,
		`{"clinician_id": "nope", "client_id": "` + uuid.NewString() + `", "date": "2025-11-03", "start_time": "09:00", "end_time": "10:00"}`,
		`{"clinician_id": "` + uuid.NewString() + `", "client_id": "` + uuid.NewString() + `", "date": "2025-13-40", "start_time": "09:00", "end_time": "10:00"}`,
		`{"clinician_id": "` + uuid.NewString() + `", "client_id": "` + uuid.NewString() + `", "date": "2025-11-03", "start_time": "10:00", "end_time": "09:00"}`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Book(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestCancelAppointment(t *testing.T) {
	svc := &fakeBookingService{}
	h := NewAppointmentsHandler(AppointmentsConfig{Service: svc})
	id := uuid.New()

	req := httptest.NewRequest(http.MethodDelete, "/appointments/"+id.String(), nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("appointmentID", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h.Cancel(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(svc.cancelled) != 1 || svc.cancelled[0] != id {
		t.Fatalf("cancel not forwarded: %+v", svc.cancelled)
	}
}

func TestCancelUnknownAppointmentIs404(t *testing.T) {
	svc := &fakeBookingService{cancelErr: bookings.ErrAppointmentNotFound}
	h := NewAppointmentsHandler(AppointmentsConfig{Service: svc})
	id := uuid.New()

	req := httptest.NewRequest(http.MethodDelete, "/appointments/"+id.String(), nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("appointmentID", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h.Cancel(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
