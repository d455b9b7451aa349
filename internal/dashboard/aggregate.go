package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Patient is the summary shared by every row of one appointment.
type Patient struct {
	AppointmentID   uuid.UUID
	PatientName     string
	DoctorName      string
	AppointmentDate string
	Phone           *string
}

// DepartmentGroup is one department's rows, in first-seen order.
type DepartmentGroup struct {
	Department string
	Services   []ServiceRow
}

// Aggregate is one appointment's worth of dashboard data.
type Aggregate struct {
	Patient Patient
	Groups  []DepartmentGroup
}

// ServiceFetcher returns the flat line-item rows of one appointment.
type ServiceFetcher interface {
	Fetch(ctx context.Context, appointmentID uuid.UUID) ([]ServiceRow, error)
}

// ServiceFetcherFunc adapts a function to ServiceFetcher.
type ServiceFetcherFunc func(ctx context.Context, appointmentID uuid.UUID) ([]ServiceRow, error)

func (f ServiceFetcherFunc) Fetch(ctx context.Context, appointmentID uuid.UUID) ([]ServiceRow, error) {
	return f(ctx, appointmentID)
}

// Aggregator turns raw appointment ids into grouped, display-ready
// aggregates. It remembers the last id it attempted so a not-found
// message can reference it without the caller holding extra state.
type Aggregator struct {
	fetcher ServiceFetcher

	mu            sync.Mutex
	lastAttempted string
}

func NewAggregator(fetcher ServiceFetcher) *Aggregator {
	return &Aggregator{fetcher: fetcher}
}

// LastAttempted reports the most recent appointment id passed to
// Retrieve, whether or not the retrieval succeeded.
func (a *Aggregator) LastAttempted() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastAttempted
}

func (a *Aggregator) recordAttempt(id string) {
	a.mu.Lock()
	a.lastAttempted = id
	a.mu.Unlock()
}

// Retrieve fetches and groups one appointment. The id must be a
// canonical UUID; anything else fails before any network call. An empty
// result is ErrNotFound.
func (a *Aggregator) Retrieve(ctx context.Context, appointmentID string) (*Aggregate, error) {
	a.recordAttempt(appointmentID)

	id, err := uuid.Parse(appointmentID)
	if err != nil {
		return nil, fmt.Errorf("invalid appointment id %q: %w", appointmentID, err)
	}

	rows, err := a.fetcher.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	agg := &Aggregate{
		Patient: Patient{
			AppointmentID:   id,
			PatientName:     rows[0].PatientName,
			DoctorName:      rows[0].DoctorName,
			AppointmentDate: rows[0].AppointmentDate.Format("2006-01-02"),
		},
	}
	agg.Groups = GroupByDepartment(rows)
	return agg, nil
}

// GroupByDepartment buckets rows by department name, preserving the
// first-seen order of departments. A stable single pass, not a sort.
func GroupByDepartment(rows []ServiceRow) []DepartmentGroup {
	index := make(map[string]int, len(rows))
	var groups []DepartmentGroup
	for _, row := range rows {
		i, ok := index[row.DepartmentName]
		if !ok {
			i = len(groups)
			index[row.DepartmentName] = i
			groups = append(groups, DepartmentGroup{Department: row.DepartmentName})
		}
		groups[i].Services = append(groups[i].Services, row)
	}
	return groups
}

// PrescriptionAggregate is a pharmacy prescription with live inventory
// joined onto each medication line.
type PrescriptionAggregate struct {
	Patient      Patient
	Prescription PrescriptionRecord
}

// InventorySource supplies the current medicine list for the join.
type InventorySource interface {
	Inventory(ctx context.Context) ([]InventoryItem, error)
}

// PrescriptionSource fetches one prescription by appointment.
type PrescriptionSource interface {
	PrescriptionByAppointment(ctx context.Context, appointmentID uuid.UUID) (*PrescriptionRecord, error)
}

// PrescriptionAggregator joins prescriptions against live inventory.
type PrescriptionAggregator struct {
	prescriptions PrescriptionSource
	inventory     InventorySource

	mu            sync.Mutex
	lastAttempted string
}

func NewPrescriptionAggregator(p PrescriptionSource, inv InventorySource) *PrescriptionAggregator {
	return &PrescriptionAggregator{prescriptions: p, inventory: inv}
}

func (a *PrescriptionAggregator) LastAttempted() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastAttempted
}

// Retrieve fetches the prescription and attaches price, stock quantity
// and stock status to every medication line by case-insensitive name
// match. Medications with no inventory row default to price 0,
// quantity 0, status low_stock.
func (a *PrescriptionAggregator) Retrieve(ctx context.Context, appointmentID string) (*PrescriptionAggregate, error) {
	a.mu.Lock()
	a.lastAttempted = appointmentID
	a.mu.Unlock()

	id, err := uuid.Parse(appointmentID)
	if err != nil {
		return nil, fmt.Errorf("invalid appointment id %q: %w", appointmentID, err)
	}

	p, err := a.prescriptions.PrescriptionByAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := a.inventory.Inventory(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]InventoryItem, len(items))
	for _, it := range items {
		byName[strings.ToLower(it.Name)] = it
	}
	for i := range p.Medications {
		med := &p.Medications[i]
		if it, ok := byName[strings.ToLower(med.MedicineName)]; ok {
			med.UnitPrice = it.Price
			med.InStock = it.Quantity
			med.StockStatus = it.StockStatus
		} else {
			med.UnitPrice = 0
			med.InStock = 0
			med.StockStatus = "low_stock"
		}
	}

	return &PrescriptionAggregate{
		Patient: Patient{
			AppointmentID:   p.AppointmentID,
			PatientName:     p.PatientName,
			DoctorName:      p.DoctorName,
			AppointmentDate: p.AppointmentDate.Format("2006-01-02"),
			Phone:           p.Phone,
		},
		Prescription: *p,
	}, nil
}
