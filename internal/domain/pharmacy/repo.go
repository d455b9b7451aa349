package pharmacy

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("pharmacy: not found")

type MedicineRepository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	// GetByName matches case-insensitively.
	GetByName(ctx context.Context, name string) (*Medicine, error)
	Update(ctx context.Context, m *Medicine) error
	// Refill adds quantity to the current stock.
	Refill(ctx context.Context, id uuid.UUID, quantity int) (*Medicine, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Medicine, int, error)
	All(ctx context.Context) ([]*Medicine, error)
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error)
	List(ctx context.Context, limit, offset int) ([]*Prescription, int, error)
	SetDispenseStatus(ctx context.Context, id uuid.UUID, status string, dispensedAt *time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type BillRepository interface {
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*Bill, error)
	List(ctx context.Context, limit, offset int) ([]*Bill, int, error)
}

type AnalyticsRepository interface {
	Summary(ctx context.Context, now time.Time, lowStockThreshold int) (*Summary, error)
	SalesTrend(ctx context.Context, since time.Time) ([]SalesPoint, error)
	MonthlyTrends(ctx context.Context, months int) ([]MonthlyPoint, error)
	InventoryBreakdown(ctx context.Context, now time.Time, lowStockThreshold, expiryWindowDays int) (*InventoryBreakdown, error)
	TopMedicines(ctx context.Context, limit int) ([]TopMedicine, error)
}
