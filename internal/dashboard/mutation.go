package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Op names one mutation the dashboards can perform.
type Op string

const (
	OpMarkSampleCollected Op = "mark-sample-collected"
	OpMarkTestConducted   Op = "mark-test-conducted"
	OpUpdateReportStatus  Op = "update-report-status"
	OpUpdateDispense      Op = "update-dispense-status"
	OpRefillStock         Op = "refill-stock"
	OpUpdateMedicine      Op = "update-medicine"
	OpDeleteMedicine      Op = "delete-medicine"
	OpCreateBill          Op = "create-bill"
	OpSaveTestResult      Op = "save-test-result"
)

// Mutator is the backend surface the coordinator writes through. *Client
// satisfies it.
type Mutator interface {
	MarkSampleCollected(ctx context.Context, id uuid.UUID) error
	MarkTestConducted(ctx context.Context, id uuid.UUID) error
	UpdateReportStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateDispenseStatus(ctx context.Context, id uuid.UUID) error
	RefillStock(ctx context.Context, id uuid.UUID, quantity int) error
	UpdateMedicine(ctx context.Context, id uuid.UUID, m MedicineUpdate) error
	DeleteMedicine(ctx context.Context, id uuid.UUID, confirmName string) error
	CreateBill(ctx context.Context, b BillDraft) error
	SaveTestResult(ctx context.Context, id uuid.UUID, r TestResult) error
}

// Coordinator serializes dashboard mutations. Every mutation is awaited;
// on success the active aggregate is re-fetched rather than patched in
// place, so the screen always re-renders from the backend's truth. While
// a mutation on an item is in flight, further mutations on the same item
// are rejected; unrelated items stay interactive.
type Coordinator struct {
	backend Mutator
	refresh func(ctx context.Context) error
	log     zerolog.Logger

	mu   sync.Mutex
	busy map[uuid.UUID]bool
}

// NewCoordinator wires the coordinator to a backend and a refresh
// callback that re-retrieves the currently active aggregate.
func NewCoordinator(backend Mutator, refresh func(ctx context.Context) error, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		backend: backend,
		refresh: refresh,
		log:     log,
		busy:    make(map[uuid.UUID]bool),
	}
}

// Busy reports whether a mutation on the item is currently in flight.
func (c *Coordinator) Busy(itemID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy[itemID]
}

func (c *Coordinator) acquire(itemID uuid.UUID, op Op) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy[itemID] {
		return fmt.Errorf("%s: item %s has a mutation in flight", op, itemID)
	}
	c.busy[itemID] = true
	return nil
}

func (c *Coordinator) release(itemID uuid.UUID) {
	c.mu.Lock()
	delete(c.busy, itemID)
	c.mu.Unlock()
}

// run executes one mutation under the item's busy flag and re-fetches on
// success. A failed mutation clears the flag and surfaces the error; the
// pre-mutation state is intact, so nothing is rolled back.
func (c *Coordinator) run(ctx context.Context, op Op, itemID uuid.UUID, mutate func(ctx context.Context) error) error {
	if err := c.acquire(itemID, op); err != nil {
		return err
	}
	defer c.release(itemID)

	if err := mutate(ctx); err != nil {
		c.log.Warn().Err(err).Str("op", string(op)).Stringer("item", itemID).Msg("mutation failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	if c.refresh != nil {
		if err := c.refresh(ctx); err != nil {
			// The mutation landed; only the re-fetch failed.
			c.log.Warn().Err(err).Str("op", string(op)).Msg("refresh after mutation failed")
			return fmt.Errorf("%s succeeded but refresh failed: %w", op, err)
		}
	}
	return nil
}

func (c *Coordinator) MarkSampleCollected(ctx context.Context, id uuid.UUID) error {
	return c.run(ctx, OpMarkSampleCollected, id, func(ctx context.Context) error {
		return c.backend.MarkSampleCollected(ctx, id)
	})
}

func (c *Coordinator) MarkTestConducted(ctx context.Context, id uuid.UUID) error {
	return c.run(ctx, OpMarkTestConducted, id, func(ctx context.Context) error {
		return c.backend.MarkTestConducted(ctx, id)
	})
}

func (c *Coordinator) UpdateReportStatus(ctx context.Context, id uuid.UUID, status string) error {
	return c.run(ctx, OpUpdateReportStatus, id, func(ctx context.Context) error {
		return c.backend.UpdateReportStatus(ctx, id, status)
	})
}

func (c *Coordinator) UpdateDispenseStatus(ctx context.Context, id uuid.UUID) error {
	return c.run(ctx, OpUpdateDispense, id, func(ctx context.Context) error {
		return c.backend.UpdateDispenseStatus(ctx, id)
	})
}

// RefillStock rejects non-positive quantities before any network call.
func (c *Coordinator) RefillStock(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%s: must enter a valid refill quantity, got %d", OpRefillStock, quantity)
	}
	return c.run(ctx, OpRefillStock, id, func(ctx context.Context) error {
		return c.backend.RefillStock(ctx, id, quantity)
	})
}

// UpdateMedicine rejects non-positive prices and negative quantities
// before any network call.
func (c *Coordinator) UpdateMedicine(ctx context.Context, id uuid.UUID, m MedicineUpdate) error {
	if m.Price <= 0 {
		return fmt.Errorf("%s: price must be positive, got %v", OpUpdateMedicine, m.Price)
	}
	if m.Quantity < 0 {
		return fmt.Errorf("%s: quantity must not be negative, got %d", OpUpdateMedicine, m.Quantity)
	}
	return c.run(ctx, OpUpdateMedicine, id, func(ctx context.Context) error {
		return c.backend.UpdateMedicine(ctx, id, m)
	})
}

func (c *Coordinator) DeleteMedicine(ctx context.Context, id uuid.UUID, confirmName string) error {
	return c.run(ctx, OpDeleteMedicine, id, func(ctx context.Context) error {
		return c.backend.DeleteMedicine(ctx, id, confirmName)
	})
}

// CreateBill validates every line before any network call.
func (c *Coordinator) CreateBill(ctx context.Context, b BillDraft) error {
	for _, it := range b.Items {
		if it.Quantity <= 0 {
			return fmt.Errorf("%s: item %q quantity must be positive", OpCreateBill, it.Description)
		}
		if it.UnitPrice <= 0 {
			return fmt.Errorf("%s: item %q unit price must be positive", OpCreateBill, it.Description)
		}
	}
	return c.run(ctx, OpCreateBill, b.AppointmentID, func(ctx context.Context) error {
		return c.backend.CreateBill(ctx, b)
	})
}

func (c *Coordinator) SaveTestResult(ctx context.Context, id uuid.UUID, r TestResult) error {
	return c.run(ctx, OpSaveTestResult, id, func(ctx context.Context) error {
		return c.backend.SaveTestResult(ctx, id, r)
	})
}
