package journey

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestHandler(t *testing.T) (*Handler, *echo.Echo) {
	t.Helper()
	svc := NewService(NewMemRepo(), nil, nil, zerolog.Nop())
	return NewHandler(svc), echo.New()
}

func seedPatient(t *testing.T, h *Handler) *QueuePatient {
	t.Helper()
	p, err := h.svc.CheckIn(context.Background(), "Ana", "cough", PriorityNormal)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestHandlerCheckIn(t *testing.T) {
	h, e := newTestHandler(t)
	body := `{"name":"Ana","chief_complaint":"cough","priority":"senior"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CheckIn(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var got QueuePatient
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Priority != PrioritySenior || got.Station != StationCheckIn {
		t.Errorf("patient = %+v", got)
	}
}

func TestHandlerCheckIn_MissingName(t *testing.T) {
	h, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"chief_complaint":"cough"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CheckIn(c); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestHandlerGetPatient_NotFound(t *testing.T) {
	h, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GetPatient(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandlerGetPatient_InvalidID(t *testing.T) {
	h, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.GetPatient(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandlerTransfer(t *testing.T) {
	h, e := newTestHandler(t)
	p := seedPatient(t, h)

	body := `{"station":"consult","room_id":"r1","room_name":"Room 1","doctor":"Dr. Cruz"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.Transfer(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var got QueuePatient
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Station != StationConsult || got.AssignedDoctor == nil || *got.AssignedDoctor != "Dr. Cruz" {
		t.Errorf("patient = %+v", got)
	}
}

func TestHandlerTransfer_InvalidStation(t *testing.T) {
	h, e := newTestHandler(t)
	p := seedPatient(t, h)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"station":"roof"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	err := h.Transfer(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandlerNoOpStillReturnsPatient(t *testing.T) {
	h, e := newTestHandler(t)
	p := seedPatient(t, h)
	if _, _, err := h.svc.Complete(context.Background(), p.ID); err != nil {
		t.Fatal(err)
	}

	// Completing again is a state no-op: still 200 with the unchanged record.
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.Complete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var got QueuePatient
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
}

func TestHandlerCallNext_EmptyQueue(t *testing.T) {
	h, e := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"station":"triage"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CallNext(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var got callNextResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Called || got.Patient != nil {
		t.Errorf("response = %+v, want called=false", got)
	}
}

func TestHandlerAddOrders(t *testing.T) {
	h, e := newTestHandler(t)
	p := seedPatient(t, h)

	body := `{"types":["lab-panel","imaging"],"mode":"multi-stream"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.AddOrders(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got QueuePatient
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.DoctorOrders) != 2 || got.Station != StationLab {
		t.Errorf("patient = %+v", got)
	}
}
