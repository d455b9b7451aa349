// Package dashboard holds the department-dashboard workflow core: typed
// REST bindings, the appointment aggregator, the navigation controller,
// the mutation coordinator and the session store.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Error taxonomy of the retrieval layer. Not-found and transient failure
// are distinct so callers can offer a retry only where one makes sense.
var (
	ErrNotFound  = errors.New("dashboard: not found")
	ErrTransient = errors.New("dashboard: transient backend failure")
	ErrDecode    = errors.New("dashboard: undecodable response")
)

// ServiceRow is one line item of an appointment as the dashboards see it.
// Lab and radiology rows share this shape; fields the other department
// does not carry stay at their zero value.
type ServiceRow struct {
	ID                uuid.UUID  `json:"id"`
	AppointmentID     uuid.UUID  `json:"appointment_id"`
	PatientName       string     `json:"patient_name"`
	DoctorName        string     `json:"doctor_name"`
	AppointmentDate   time.Time  `json:"appointment_date"`
	ServiceID         uuid.UUID  `json:"service_id"`
	ServiceName       string     `json:"service_name"`
	DepartmentName    string     `json:"department_name"`
	Modality          string     `json:"modality,omitempty"`
	SampleCollected   bool       `json:"sample_collected"`
	SampleCollectedAt *time.Time `json:"sample_collected_at,omitempty"`
	TestConducted     bool       `json:"test_conducted"`
	ConductedAt       *time.Time `json:"conducted_at,omitempty"`
	ReportStatus      string     `json:"report_status,omitempty"`
	Status            string     `json:"status,omitempty"`
	PaymentStatus     string     `json:"payment_status"`
}

// TestRow is one lab test under a service row.
type TestRow struct {
	ID              uuid.UUID  `json:"id"`
	ServiceRecordID uuid.UUID  `json:"service_record_id"`
	TestName        string     `json:"test_name"`
	ResultValue     *string    `json:"result_value,omitempty"`
	Unit            *string    `json:"unit,omitempty"`
	ReferenceRange  *string    `json:"reference_range,omitempty"`
	Status          string     `json:"status"`
	ConductedAt     *time.Time `json:"conducted_at,omitempty"`
}

// MedicationRow is one medication line on a pharmacy prescription, with
// the live inventory fields attached by the aggregator join.
type MedicationRow struct {
	MedicineName string  `json:"medicine_name"`
	Dosage       *string `json:"dosage,omitempty"`
	Frequency    *string `json:"frequency,omitempty"`
	DurationDays *int    `json:"duration_days,omitempty"`
	Quantity     int     `json:"quantity"`

	UnitPrice   float64 `json:"unit_price"`
	InStock     int     `json:"in_stock"`
	StockStatus string  `json:"stock_status"`
}

// PrescriptionRecord is a pharmacy prescription as fetched.
type PrescriptionRecord struct {
	ID              uuid.UUID       `json:"id"`
	AppointmentID   uuid.UUID       `json:"appointment_id"`
	PatientName     string          `json:"patient_name"`
	DoctorName      string          `json:"doctor_name"`
	AppointmentDate time.Time       `json:"appointment_date"`
	Phone           *string         `json:"phone,omitempty"`
	DispenseStatus  string          `json:"dispense_status"`
	DispensedAt     *time.Time      `json:"dispensed_at,omitempty"`
	Medications     []MedicationRow `json:"medications"`
}

// InventoryItem is one medicine row with derived statuses.
type InventoryItem struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Category     *string    `json:"category,omitempty"`
	Price        float64    `json:"price"`
	Quantity     int        `json:"quantity"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	StockStatus  string     `json:"stock_status"`
	ExpiryStatus string     `json:"expiry_status"`
}

// BillDraft is the payload for creating a pharmacy bill.
type BillDraft struct {
	AppointmentID uuid.UUID       `json:"appointment_id"`
	PatientName   string          `json:"patient_name"`
	PaymentMethod string          `json:"payment_method"`
	Items         []BillDraftItem `json:"items"`
}

type BillDraftItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// TestResult is the payload for recording or amending a lab result.
type TestResult struct {
	Value          string `json:"value"`
	Unit           string `json:"unit,omitempty"`
	ReferenceRange string `json:"reference_range,omitempty"`
}

// MedicineUpdate is the payload for editing an inventory row.
type MedicineUpdate struct {
	Name       string     `json:"name"`
	Category   *string    `json:"category,omitempty"`
	Price      float64    `json:"price"`
	Quantity   int        `json:"quantity"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
}

// Client is the typed binding to the backend's REST surface. Every call
// takes a context; cancellation is the caller's only timeout mechanism.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	Log     zerolog.Logger
}

func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{},
		Log:     log,
	}
}

// do issues one request and maps the outcome onto the error taxonomy:
// unreachable backend and 5xx are transient, 404 is not-found, an
// unparseable body is a decode failure.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Log.Warn().Err(err).Str("path", path).Msg("backend unreachable")
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s %s returned %d", ErrTransient, method, path, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%s %s rejected with %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrDecode, method, path, err)
	}
	return nil
}

// -- retrieval --

func (c *Client) LabServices(ctx context.Context, appointmentID uuid.UUID) ([]ServiceRow, error) {
	var rows []ServiceRow
	err := c.do(ctx, http.MethodGet, "/patient-services/appointment/"+appointmentID.String(), nil, &rows)
	return rows, err
}

func (c *Client) RadiologyServices(ctx context.Context, appointmentID uuid.UUID) ([]ServiceRow, error) {
	var rows []ServiceRow
	err := c.do(ctx, http.MethodGet, "/radiology-prescriptions/appointment/"+appointmentID.String(), nil, &rows)
	return rows, err
}

func (c *Client) PrescriptionByAppointment(ctx context.Context, appointmentID uuid.UUID) (*PrescriptionRecord, error) {
	var p PrescriptionRecord
	if err := c.do(ctx, http.MethodGet, "/prescriptions/"+appointmentID.String(), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Inventory(ctx context.Context) ([]InventoryItem, error) {
	var items []InventoryItem
	err := c.do(ctx, http.MethodGet, "/medicines/export", nil, &items)
	return items, err
}

func (c *Client) TestsByService(ctx context.Context, serviceRecordID uuid.UUID) ([]TestRow, error) {
	var rows []TestRow
	err := c.do(ctx, http.MethodGet, "/lab-tests/service/"+serviceRecordID.String(), nil, &rows)
	return rows, err
}

// -- mutations --

func (c *Client) MarkSampleCollected(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPatch, "/patient-services/"+id.String()+"/sample-collected", nil, nil)
}

func (c *Client) MarkTestConducted(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPatch, "/radiology-prescriptions/"+id.String()+"/test-conducted", nil, nil)
}

func (c *Client) UpdateReportStatus(ctx context.Context, id uuid.UUID, status string) error {
	body := map[string]string{"status": status}
	return c.do(ctx, http.MethodPatch, "/patient-services/"+id.String()+"/report-status", body, nil)
}

func (c *Client) UpdateDispenseStatus(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPatch, "/prescriptions/"+id.String()+"/dispense", nil, nil)
}

func (c *Client) RefillStock(ctx context.Context, id uuid.UUID, quantity int) error {
	body := map[string]int{"quantity": quantity}
	return c.do(ctx, http.MethodPatch, "/medicines/refill/"+id.String(), body, nil)
}

func (c *Client) UpdateMedicine(ctx context.Context, id uuid.UUID, m MedicineUpdate) error {
	return c.do(ctx, http.MethodPut, "/medicines/"+id.String(), m, nil)
}

func (c *Client) DeleteMedicine(ctx context.Context, id uuid.UUID, confirmName string) error {
	body := map[string]string{"name": confirmName}
	return c.do(ctx, http.MethodDelete, "/medicines/"+id.String(), body, nil)
}

func (c *Client) CreateBill(ctx context.Context, b BillDraft) error {
	return c.do(ctx, http.MethodPost, "/bills", b, nil)
}

func (c *Client) SaveTestResult(ctx context.Context, id uuid.UUID, r TestResult) error {
	return c.do(ctx, http.MethodPost, "/lab-tests/"+id.String()+"/results", r, nil)
}

func (c *Client) CompleteService(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPatch, "/lab-tests/service/"+id.String()+"/complete", nil, nil)
}
