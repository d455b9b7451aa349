package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateDepartment(ctx context.Context, d *Department) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("department name is required")
	}
	return s.repo.CreateDepartment(ctx, d)
}

func (s *Service) ListDepartments(ctx context.Context) ([]*Department, error) {
	return s.repo.ListDepartments(ctx)
}

func (s *Service) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteDepartment(ctx, id)
}

func (s *Service) CreateServiceType(ctx context.Context, st *ServiceType) error {
	if st.DepartmentID == uuid.Nil {
		return fmt.Errorf("department_id is required")
	}
	if strings.TrimSpace(st.Name) == "" {
		return fmt.Errorf("service type name is required")
	}
	return s.repo.CreateServiceType(ctx, st)
}

func (s *Service) ServiceTypesByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*ServiceType, error) {
	return s.repo.ListServiceTypes(ctx, departmentID)
}

func (s *Service) DeleteServiceType(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteServiceType(ctx, id)
}

func (s *Service) CreateTest(ctx context.Context, t *Test) error {
	if t.ServiceTypeID == uuid.Nil {
		return fmt.Errorf("service_type_id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("test name is required")
	}
	if t.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	return s.repo.CreateTest(ctx, t)
}

func (s *Service) TestsByServiceType(ctx context.Context, serviceTypeID uuid.UUID) ([]*Test, error) {
	return s.repo.ListTests(ctx, serviceTypeID)
}

func (s *Service) AllTests(ctx context.Context) ([]*Test, error) {
	return s.repo.ListAllTests(ctx)
}

func (s *Service) DeleteTest(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTest(ctx, id)
}

// Structure assembles the whole departments tree in one pass per level.
func (s *Service) Structure(ctx context.Context) (*Structure, error) {
	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}
	out := &Structure{Departments: make([]DepartmentNode, 0, len(departments))}
	for _, d := range departments {
		node := DepartmentNode{Department: *d}
		types, err := s.repo.ListServiceTypes(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		for _, st := range types {
			tn := ServiceTypeNode{ServiceType: *st}
			tests, err := s.repo.ListTests(ctx, st.ID)
			if err != nil {
				return nil, err
			}
			for _, t := range tests {
				tn.Tests = append(tn.Tests, *t)
			}
			node.ServiceTypes = append(node.ServiceTypes, tn)
		}
		out.Departments = append(out.Departments, node)
	}
	return out, nil
}
