package lab

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// =========== Patient Service Repository ===========

type patientServiceRepoPG struct{ pool *pgxpool.Pool }

func NewPatientServiceRepoPG(pool *pgxpool.Pool) PatientServiceRepository {
	return &patientServiceRepoPG{pool: pool}
}

const psCols = `id, appointment_id, patient_name, doctor_name, appointment_date, service_id,
	service_name, department_name, sample_collected, sample_collected_at, report_status,
	payment_status, created_at`

func scanPatientService(row pgx.Row) (*PatientService, error) {
	var ps PatientService
	err := row.Scan(&ps.ID, &ps.AppointmentID, &ps.PatientName, &ps.DoctorName, &ps.AppointmentDate,
		&ps.ServiceID, &ps.ServiceName, &ps.DepartmentName, &ps.SampleCollected,
		&ps.SampleCollectedAt, &ps.ReportStatus, &ps.PaymentStatus, &ps.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &ps, nil
}

func (r *patientServiceRepoPG) Create(ctx context.Context, ps *PatientService) error {
	ps.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lab_patient_services (id, appointment_id, patient_name, doctor_name,
			appointment_date, service_id, service_name, department_name, report_status, payment_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		ps.ID, ps.AppointmentID, ps.PatientName, ps.DoctorName, ps.AppointmentDate,
		ps.ServiceID, ps.ServiceName, ps.DepartmentName, ps.ReportStatus, ps.PaymentStatus)
	return err
}

func (r *patientServiceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*PatientService, error) {
	return scanPatientService(r.pool.QueryRow(ctx,
		`SELECT `+psCols+` FROM lab_patient_services WHERE id = $1`, id))
}

func (r *patientServiceRepoPG) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*PatientService, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+psCols+` FROM lab_patient_services
		WHERE appointment_id = $1 ORDER BY created_at`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PatientService
	for rows.Next() {
		ps, err := scanPatientService(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ps)
	}
	return items, rows.Err()
}

func (r *patientServiceRepoPG) List(ctx context.Context, limit, offset int) ([]*PatientService, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lab_patient_services`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+psCols+` FROM lab_patient_services
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*PatientService
	for rows.Next() {
		ps, err := scanPatientService(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, ps)
	}
	return items, total, rows.Err()
}

func (r *patientServiceRepoPG) SetSampleCollected(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lab_patient_services SET sample_collected = TRUE, sample_collected_at = $2
		WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientServiceRepoPG) SetReportStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE lab_patient_services SET report_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *patientServiceRepoPG) SetPaymentStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE lab_patient_services SET payment_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// =========== Lab Test Repository ===========

type labTestRepoPG struct{ pool *pgxpool.Pool }

func NewLabTestRepoPG(pool *pgxpool.Pool) LabTestRepository { return &labTestRepoPG{pool: pool} }

const testCols = `id, service_record_id, test_name, result_value, unit, reference_range,
	status, conducted_at, created_at`

func scanLabTest(row pgx.Row) (*LabTest, error) {
	var t LabTest
	err := row.Scan(&t.ID, &t.ServiceRecordID, &t.TestName, &t.ResultValue, &t.Unit,
		&t.ReferenceRange, &t.Status, &t.ConductedAt, &t.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *labTestRepoPG) Create(ctx context.Context, t *LabTest) error {
	t.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lab_tests (id, service_record_id, test_name, unit, reference_range, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		t.ID, t.ServiceRecordID, t.TestName, t.Unit, t.ReferenceRange, t.Status)
	return err
}

func (r *labTestRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabTest, error) {
	return scanLabTest(r.pool.QueryRow(ctx, `SELECT `+testCols+` FROM lab_tests WHERE id = $1`, id))
}

func (r *labTestRepoPG) ListByService(ctx context.Context, serviceRecordID uuid.UUID) ([]*LabTest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+testCols+` FROM lab_tests
		WHERE service_record_id = $1 ORDER BY created_at`, serviceRecordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*LabTest
	for rows.Next() {
		t, err := scanLabTest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *labTestRepoPG) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*LabTest, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM lab_tests WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+testCols+` FROM lab_tests
		WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*LabTest
	for rows.Next() {
		t, err := scanLabTest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *labTestRepoPG) Update(ctx context.Context, t *LabTest) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lab_tests SET result_value=$2, unit=$3, reference_range=$4, status=$5, conducted_at=$6
		WHERE id = $1`,
		t.ID, t.ResultValue, t.Unit, t.ReferenceRange, t.Status, t.ConductedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *labTestRepoPG) CountByStatus(ctx context.Context, serviceRecordID uuid.UUID, status string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM lab_tests WHERE service_record_id = $1 AND status = $2`,
		serviceRecordID, status).Scan(&n)
	return n, err
}
