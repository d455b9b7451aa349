package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
)

type memRepo struct {
	mu          sync.Mutex
	departments map[uuid.UUID]*Department
	types       map[uuid.UUID]*ServiceType
	tests       map[uuid.UUID]*Test
	order       []uuid.UUID // department insertion order
}

func newMemRepo() *memRepo {
	return &memRepo{
		departments: make(map[uuid.UUID]*Department),
		types:       make(map[uuid.UUID]*ServiceType),
		tests:       make(map[uuid.UUID]*Test),
	}
}

func (r *memRepo) CreateDepartment(_ context.Context, d *Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	cp := *d
	r.departments[d.ID] = &cp
	r.order = append(r.order, d.ID)
	return nil
}

func (r *memRepo) ListDepartments(_ context.Context) ([]*Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Department
	for _, id := range r.order {
		if d, ok := r.departments[id]; ok {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) DeleteDepartment(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.departments[id]; !ok {
		return ErrNotFound
	}
	delete(r.departments, id)
	return nil
}

func (r *memRepo) CreateServiceType(_ context.Context, st *ServiceType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	cp := *st
	r.types[st.ID] = &cp
	return nil
}

func (r *memRepo) ListServiceTypes(_ context.Context, departmentID uuid.UUID) ([]*ServiceType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*ServiceType
	for _, st := range r.types {
		if st.DepartmentID == departmentID {
			cp := *st
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) DeleteServiceType(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[id]; !ok {
		return ErrNotFound
	}
	delete(r.types, id)
	return nil
}

func (r *memRepo) CreateTest(_ context.Context, t *Test) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	cp := *t
	r.tests[t.ID] = &cp
	return nil
}

func (r *memRepo) ListTests(_ context.Context, serviceTypeID uuid.UUID) ([]*Test, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Test
	for _, t := range r.tests {
		if t.ServiceTypeID == serviceTypeID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) ListAllTests(_ context.Context) ([]*Test, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Test
	for _, t := range r.tests {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memRepo) DeleteTest(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tests[id]; !ok {
		return ErrNotFound
	}
	delete(r.tests, id)
	return nil
}

func TestStructure(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	lab := Department{Name: "Laboratory"}
	if err := svc.CreateDepartment(ctx, &lab); err != nil {
		t.Fatal(err)
	}
	rad := Department{Name: "Radiology"}
	if err := svc.CreateDepartment(ctx, &rad); err != nil {
		t.Fatal(err)
	}

	hema := ServiceType{DepartmentID: lab.ID, Name: "Hematology"}
	if err := svc.CreateServiceType(ctx, &hema); err != nil {
		t.Fatal(err)
	}
	cbc := Test{ServiceTypeID: hema.ID, Name: "CBC", Price: 300}
	if err := svc.CreateTest(ctx, &cbc); err != nil {
		t.Fatal(err)
	}

	s, err := svc.Structure(ctx)
	if err != nil {
		t.Fatalf("Structure: %v", err)
	}
	if len(s.Departments) != 2 {
		t.Fatalf("departments = %d, want 2", len(s.Departments))
	}
	labNode := s.Departments[0]
	if labNode.Name != "Laboratory" {
		t.Fatalf("first department = %q", labNode.Name)
	}
	if len(labNode.ServiceTypes) != 1 || labNode.ServiceTypes[0].Name != "Hematology" {
		t.Fatalf("service types = %+v", labNode.ServiceTypes)
	}
	if len(labNode.ServiceTypes[0].Tests) != 1 || labNode.ServiceTypes[0].Tests[0].Name != "CBC" {
		t.Fatalf("tests = %+v", labNode.ServiceTypes[0].Tests)
	}
	if len(s.Departments[1].ServiceTypes) != 0 {
		t.Errorf("radiology should have no service types")
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	if err := svc.CreateDepartment(ctx, &Department{Name: " "}); err == nil {
		t.Error("blank department name accepted")
	}
	if err := svc.CreateServiceType(ctx, &ServiceType{Name: "Hematology"}); err == nil {
		t.Error("service type without department accepted")
	}
	if err := svc.CreateTest(ctx, &Test{ServiceTypeID: uuid.New(), Name: "CBC", Price: -1}); err == nil {
		t.Error("negative test price accepted")
	}
}
