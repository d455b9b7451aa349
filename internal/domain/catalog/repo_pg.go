package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) CreateDepartment(ctx context.Context, d *Department) error {
	d.ID = uuid.New()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO catalog_departments (id, name) VALUES ($1,$2)`, d.ID, d.Name)
	return err
}

func (r *repoPG) ListDepartments(ctx context.Context) ([]*Department, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at FROM catalog_departments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}

func (r *repoPG) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM catalog_departments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) CreateServiceType(ctx context.Context, st *ServiceType) error {
	st.ID = uuid.New()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO catalog_service_types (id, department_id, name) VALUES ($1,$2,$3)`,
		st.ID, st.DepartmentID, st.Name)
	return err
}

func (r *repoPG) ListServiceTypes(ctx context.Context, departmentID uuid.UUID) ([]*ServiceType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, department_id, name, created_at FROM catalog_service_types
		WHERE department_id = $1 ORDER BY name`, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ServiceType
	for rows.Next() {
		var st ServiceType
		if err := rows.Scan(&st.ID, &st.DepartmentID, &st.Name, &st.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &st)
	}
	return items, rows.Err()
}

func (r *repoPG) DeleteServiceType(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM catalog_service_types WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) CreateTest(ctx context.Context, t *Test) error {
	t.ID = uuid.New()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO catalog_tests (id, service_type_id, name, price) VALUES ($1,$2,$3,$4)`,
		t.ID, t.ServiceTypeID, t.Name, t.Price)
	return err
}

func (r *repoPG) ListTests(ctx context.Context, serviceTypeID uuid.UUID) ([]*Test, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, service_type_id, name, price, created_at FROM catalog_tests
		WHERE service_type_id = $1 ORDER BY name`, serviceTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTests(rows)
}

func (r *repoPG) ListAllTests(ctx context.Context) ([]*Test, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, service_type_id, name, price, created_at FROM catalog_tests ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTests(rows)
}

func collectTests(rows pgx.Rows) ([]*Test, error) {
	var items []*Test
	for rows.Next() {
		var t Test
		if err := rows.Scan(&t.ID, &t.ServiceTypeID, &t.Name, &t.Price, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &t)
	}
	return items, rows.Err()
}

func (r *repoPG) DeleteTest(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM catalog_tests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
