package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("catalog: not found")

type Repository interface {
	CreateDepartment(ctx context.Context, d *Department) error
	ListDepartments(ctx context.Context) ([]*Department, error)
	DeleteDepartment(ctx context.Context, id uuid.UUID) error

	CreateServiceType(ctx context.Context, st *ServiceType) error
	ListServiceTypes(ctx context.Context, departmentID uuid.UUID) ([]*ServiceType, error)
	DeleteServiceType(ctx context.Context, id uuid.UUID) error

	CreateTest(ctx context.Context, t *Test) error
	ListTests(ctx context.Context, serviceTypeID uuid.UUID) ([]*Test, error)
	ListAllTests(ctx context.Context) ([]*Test, error)
	DeleteTest(ctx context.Context, id uuid.UUID) error
}
