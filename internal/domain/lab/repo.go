package lab

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("lab: not found")

type PatientServiceRepository interface {
	Create(ctx context.Context, ps *PatientService) error
	GetByID(ctx context.Context, id uuid.UUID) (*PatientService, error)
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*PatientService, error)
	List(ctx context.Context, limit, offset int) ([]*PatientService, int, error)
	SetSampleCollected(ctx context.Context, id uuid.UUID, at time.Time) error
	SetReportStatus(ctx context.Context, id uuid.UUID, status string) error
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status string) error
}

type LabTestRepository interface {
	Create(ctx context.Context, t *LabTest) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabTest, error)
	ListByService(ctx context.Context, serviceRecordID uuid.UUID) ([]*LabTest, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*LabTest, int, error)
	Update(ctx context.Context, t *LabTest) error
	// CountByStatus counts tests on one service record in the given status.
	CountByStatus(ctx context.Context, serviceRecordID uuid.UUID, status string) (int, error)
}
