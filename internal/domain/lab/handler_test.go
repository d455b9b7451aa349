package lab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func jsonRequest(method, target, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func httpCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

func TestHandlerServicesByAppointment(t *testing.T) {
	svc, services, _ := newTestService()
	h := NewHandler(svc)
	e := echo.New()

	ps := seedService(t, services)

	req, rec := jsonRequest(http.MethodGet, "/patient-services/appointment/x", "")
	c := e.NewContext(req, rec)
	c.SetParamNames("appointmentId")
	c.SetParamValues(ps.AppointmentID.String())
	if err := h.ServicesByAppointment(c); err != nil {
		t.Fatalf("ServicesByAppointment: %v", err)
	}

	var got []PatientService
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ServiceName != "CBC Panel" {
		t.Errorf("services = %+v", got)
	}

	// No bookings is an empty list, not an error.
	req, rec = jsonRequest(http.MethodGet, "/patient-services/appointment/x", "")
	c = e.NewContext(req, rec)
	c.SetParamNames("appointmentId")
	c.SetParamValues(uuid.NewString())
	if err := h.ServicesByAppointment(c); err != nil {
		t.Fatalf("ServicesByAppointment: %v", err)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}

	// Malformed id is a 400.
	req, rec = jsonRequest(http.MethodGet, "/patient-services/appointment/nope", "")
	c = e.NewContext(req, rec)
	c.SetParamNames("appointmentId")
	c.SetParamValues("nope")
	if err := h.ServicesByAppointment(c); httpCode(err) != http.StatusBadRequest {
		t.Errorf("err = %v, want 400", err)
	}
}

func TestHandlerMarkSampleCollected(t *testing.T) {
	svc, services, _ := newTestService()
	h := NewHandler(svc)
	e := echo.New()

	ps := seedService(t, services)

	req, rec := jsonRequest(http.MethodPatch, "/patient-services/x/sample-collected", "")
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(ps.ID.String())
	if err := h.MarkSampleCollected(c); err != nil {
		t.Fatalf("MarkSampleCollected: %v", err)
	}

	var got PatientService
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if !got.SampleCollected || got.SampleCollectedAt == nil {
		t.Errorf("service = %+v", got)
	}

	// Unknown id maps to 404.
	req, rec = jsonRequest(http.MethodPatch, "/patient-services/x/sample-collected", "")
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())
	if err := h.MarkSampleCollected(c); httpCode(err) != http.StatusNotFound {
		t.Errorf("err = %v, want 404", err)
	}
}

func TestHandlerCompleteService_Conflict(t *testing.T) {
	svc, services, tests := newTestService()
	h := NewHandler(svc)
	e := echo.New()

	ps := seedService(t, services)
	lt := &LabTest{ServiceRecordID: ps.ID, TestName: "Hemoglobin", Status: TestPending}
	if err := tests.Create(context.Background(), lt); err != nil {
		t.Fatal(err)
	}

	req, rec := jsonRequest(http.MethodPatch, "/lab-tests/service/x/complete", "")
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(ps.ID.String())
	if err := h.CompleteService(c); httpCode(err) != http.StatusConflict {
		t.Errorf("err = %v, want 409 while a test is pending", err)
	}
}

func TestHandlerRecordAndAmendResult(t *testing.T) {
	svc, services, tests := newTestService()
	h := NewHandler(svc)
	e := echo.New()

	ps := seedService(t, services)
	lt := &LabTest{ServiceRecordID: ps.ID, TestName: "Hemoglobin", Status: TestPending}
	if err := tests.Create(context.Background(), lt); err != nil {
		t.Fatal(err)
	}

	req, rec := jsonRequest(http.MethodPost, "/lab-tests/x/results",
		`{"value":"13.5","unit":"g/dL","reference_range":"12-16"}`)
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(lt.ID.String())
	if err := h.RecordResult(c); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}

	req, rec = jsonRequest(http.MethodPatch, "/lab-tests/results/x", `{"value":"14.0"}`)
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(lt.ID.String())
	if err := h.AmendResult(c); err != nil {
		t.Fatalf("AmendResult: %v", err)
	}

	var got LabTest
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ResultValue == nil || *got.ResultValue != "14.0" {
		t.Errorf("result = %v", got.ResultValue)
	}
}

func TestHandlerPendingTests(t *testing.T) {
	svc, services, tests := newTestService()
	h := NewHandler(svc)
	e := echo.New()

	ps := seedService(t, services)
	for _, name := range []string{"Hemoglobin", "WBC Count"} {
		lt := &LabTest{ServiceRecordID: ps.ID, TestName: name, Status: TestPending}
		if err := tests.Create(context.Background(), lt); err != nil {
			t.Fatal(err)
		}
	}

	req, rec := jsonRequest(http.MethodGet, "/lab-tests/pending?limit=10", "")
	if err := h.PendingTests(e.NewContext(req, rec)); err != nil {
		t.Fatalf("PendingTests: %v", err)
	}

	var got struct {
		Data  []LabTest `json:"data"`
		Total int       `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Total != 2 {
		t.Errorf("total = %d, want 2", got.Total)
	}
}
