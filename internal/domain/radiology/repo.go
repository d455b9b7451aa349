package radiology

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("radiology: not found")

type ServiceRepository interface {
	Create(ctx context.Context, s *RadiologyService) error
	GetByID(ctx context.Context, id uuid.UUID) (*RadiologyService, error)
	Update(ctx context.Context, s *RadiologyService) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*RadiologyService, error)
	AddTemplate(ctx context.Context, t *ReportTemplate) error
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*Prescription, error)
	List(ctx context.Context, limit, offset int) ([]*Prescription, int, error)
	SetTestConducted(ctx context.Context, id uuid.UUID, at time.Time) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status string) error
}

type ReportRepository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	GetByPrescription(ctx context.Context, prescriptionID uuid.UUID) (*Report, error)
	List(ctx context.Context, limit, offset int) ([]*Report, int, error)
	Update(ctx context.Context, r *Report) error
	Delete(ctx context.Context, id uuid.UUID) error
}
