package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Department is the top of the services tree.
type Department struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ServiceType groups tests under a department (e.g. "Hematology").
type ServiceType struct {
	ID           uuid.UUID `db:"id" json:"id"`
	DepartmentID uuid.UUID `db:"department_id" json:"department_id"`
	Name         string    `db:"name" json:"name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Test is one orderable test under a service type.
type Test struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ServiceTypeID uuid.UUID `db:"service_type_id" json:"service_type_id"`
	Name          string    `db:"name" json:"name"`
	Price         float64   `db:"price" json:"price"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Structure is the full tree in one response.
type Structure struct {
	Departments []DepartmentNode `json:"departments"`
}

type DepartmentNode struct {
	Department
	ServiceTypes []ServiceTypeNode `json:"service_types"`
}

type ServiceTypeNode struct {
	ServiceType
	Tests []Test `json:"tests"`
}
