package lab

import (
	"time"

	"github.com/google/uuid"
)

// Report status values for a booked lab service.
const (
	ReportPending    = "pending"
	ReportInProgress = "in_progress"
	ReportCompleted  = "completed"
)

// Status values for an individual test.
const (
	TestPending   = "pending"
	TestCompleted = "completed"
)

// Payment status values.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// PatientService is one lab service booked against an appointment. Tests
// hang off it as LabTest rows.
type PatientService struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	AppointmentID     uuid.UUID  `db:"appointment_id" json:"appointment_id"`
	PatientName       string     `db:"patient_name" json:"patient_name"`
	DoctorName        string     `db:"doctor_name" json:"doctor_name"`
	AppointmentDate   time.Time  `db:"appointment_date" json:"appointment_date"`
	ServiceID         uuid.UUID  `db:"service_id" json:"service_id"`
	ServiceName       string     `db:"service_name" json:"service_name"`
	DepartmentName    string     `db:"department_name" json:"department_name"`
	SampleCollected   bool       `db:"sample_collected" json:"sample_collected"`
	SampleCollectedAt *time.Time `db:"sample_collected_at" json:"sample_collected_at,omitempty"`
	ReportStatus      string     `db:"report_status" json:"report_status"`
	PaymentStatus     string     `db:"payment_status" json:"payment_status"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// LabTest is one test on a booked service, with its result once conducted.
type LabTest struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	ServiceRecordID uuid.UUID  `db:"service_record_id" json:"service_record_id"`
	TestName        string     `db:"test_name" json:"test_name"`
	ResultValue     *string    `db:"result_value" json:"result_value,omitempty"`
	Unit            *string    `db:"unit" json:"unit,omitempty"`
	ReferenceRange  *string    `db:"reference_range" json:"reference_range,omitempty"`
	Status          string     `db:"status" json:"status"`
	ConductedAt     *time.Time `db:"conducted_at" json:"conducted_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}
