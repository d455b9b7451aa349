package radiology

import (
	"time"

	"github.com/google/uuid"
)

// Status values for a radiology prescription.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Payment status values.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// Report status values. A final report is immutable in status: it cannot
// go back to draft.
const (
	ReportDraft = "draft"
	ReportFinal = "final"
)

// RadiologyService is one orderable imaging service (X-Ray, CT, MRI...).
type RadiologyService struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	Name      string           `db:"name" json:"name"`
	Modality  string           `db:"modality" json:"modality"`
	Price     float64          `db:"price" json:"price"`
	Templates []ReportTemplate `json:"templates,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// ReportTemplate is boilerplate report content attached to a service.
type ReportTemplate struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ServiceID uuid.UUID `db:"service_id" json:"service_id"`
	Name      string    `db:"name" json:"name"`
	Content   string    `db:"content" json:"content"`
}

// Prescription is one imaging order against an appointment.
type Prescription struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	AppointmentID   uuid.UUID  `db:"appointment_id" json:"appointment_id"`
	PatientName     string     `db:"patient_name" json:"patient_name"`
	DoctorName      string     `db:"doctor_name" json:"doctor_name"`
	AppointmentDate time.Time  `db:"appointment_date" json:"appointment_date"`
	ServiceID       uuid.UUID  `db:"service_id" json:"service_id"`
	ServiceName     string     `db:"service_name" json:"service_name"`
	Modality        string     `db:"modality" json:"modality"`
	TestConducted   bool       `db:"test_conducted" json:"test_conducted"`
	ConductedAt     *time.Time `db:"conducted_at" json:"conducted_at,omitempty"`
	Status          string     `db:"status" json:"status"`
	PaymentStatus   string     `db:"payment_status" json:"payment_status"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Report is the written findings for one imaging order.
type Report struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	AppointmentID  uuid.UUID `db:"appointment_id" json:"appointment_id"`
	Content        string    `db:"content" json:"content"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
