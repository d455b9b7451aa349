package radiology

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

// =========== Service Repository ===========

type serviceRepoPG struct{ pool *pgxpool.Pool }

func NewServiceRepoPG(pool *pgxpool.Pool) ServiceRepository { return &serviceRepoPG{pool: pool} }

func (r *serviceRepoPG) Create(ctx context.Context, s *RadiologyService) error {
	s.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO radiology_services (id, name, modality, price)
		VALUES ($1,$2,$3,$4)`,
		s.ID, s.Name, s.Modality, s.Price)
	return err
}

func (r *serviceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*RadiologyService, error) {
	var s RadiologyService
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, modality, price, created_at
		FROM radiology_services WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Modality, &s.Price, &s.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if err := r.loadTemplates(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *serviceRepoPG) loadTemplates(ctx context.Context, s *RadiologyService) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, service_id, name, content
		FROM radiology_report_templates WHERE service_id = $1 ORDER BY name`, s.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var t ReportTemplate
		if err := rows.Scan(&t.ID, &t.ServiceID, &t.Name, &t.Content); err != nil {
			return err
		}
		s.Templates = append(s.Templates, t)
	}
	return rows.Err()
}

func (r *serviceRepoPG) Update(ctx context.Context, s *RadiologyService) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE radiology_services SET name=$2, modality=$3, price=$4 WHERE id = $1`,
		s.ID, s.Name, s.Modality, s.Price)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *serviceRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM radiology_services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *serviceRepoPG) List(ctx context.Context) ([]*RadiologyService, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, modality, price, created_at
		FROM radiology_services ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*RadiologyService
	for rows.Next() {
		var s RadiologyService
		if err := rows.Scan(&s.ID, &s.Name, &s.Modality, &s.Price, &s.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, s := range items {
		if err := r.loadTemplates(ctx, s); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (r *serviceRepoPG) AddTemplate(ctx context.Context, t *ReportTemplate) error {
	t.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO radiology_report_templates (id, service_id, name, content)
		VALUES ($1,$2,$3,$4)`,
		t.ID, t.ServiceID, t.Name, t.Content)
	return err
}

func (r *serviceRepoPG) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM radiology_report_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// =========== Prescription Repository ===========

type prescriptionRepoPG struct{ pool *pgxpool.Pool }

func NewPrescriptionRepoPG(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

const rxCols = `id, appointment_id, patient_name, doctor_name, appointment_date, service_id,
	service_name, modality, test_conducted, conducted_at, status, payment_status, created_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.AppointmentID, &p.PatientName, &p.DoctorName, &p.AppointmentDate,
		&p.ServiceID, &p.ServiceName, &p.Modality, &p.TestConducted, &p.ConductedAt,
		&p.Status, &p.PaymentStatus, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO radiology_prescriptions (id, appointment_id, patient_name, doctor_name,
			appointment_date, service_id, service_name, modality, status, payment_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.AppointmentID, p.PatientName, p.DoctorName, p.AppointmentDate,
		p.ServiceID, p.ServiceName, p.Modality, p.Status, p.PaymentStatus)
	return err
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.pool.QueryRow(ctx,
		`SELECT `+rxCols+` FROM radiology_prescriptions WHERE id = $1`, id))
}

func (r *prescriptionRepoPG) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*Prescription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+rxCols+` FROM radiology_prescriptions
		WHERE appointment_id = $1 ORDER BY created_at`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *prescriptionRepoPG) List(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM radiology_prescriptions`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+rxCols+` FROM radiology_prescriptions
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *prescriptionRepoPG) SetTestConducted(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE radiology_prescriptions SET test_conducted = TRUE, conducted_at = $2
		WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *prescriptionRepoPG) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE radiology_prescriptions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *prescriptionRepoPG) SetPaymentStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE radiology_prescriptions SET payment_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// =========== Report Repository ===========

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewReportRepoPG(pool *pgxpool.Pool) ReportRepository { return &reportRepoPG{pool: pool} }

const reportCols = `id, prescription_id, appointment_id, content, status, created_at, updated_at`

func scanReport(row pgx.Row) (*Report, error) {
	var rep Report
	err := row.Scan(&rep.ID, &rep.PrescriptionID, &rep.AppointmentID, &rep.Content,
		&rep.Status, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &rep, nil
}

func (r *reportRepoPG) Create(ctx context.Context, rep *Report) error {
	rep.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO radiology_reports (id, prescription_id, appointment_id, content, status)
		VALUES ($1,$2,$3,$4,$5)`,
		rep.ID, rep.PrescriptionID, rep.AppointmentID, rep.Content, rep.Status)
	return err
}

func (r *reportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	return scanReport(r.pool.QueryRow(ctx,
		`SELECT `+reportCols+` FROM radiology_reports WHERE id = $1`, id))
}

func (r *reportRepoPG) GetByPrescription(ctx context.Context, prescriptionID uuid.UUID) (*Report, error) {
	return scanReport(r.pool.QueryRow(ctx,
		`SELECT `+reportCols+` FROM radiology_reports WHERE prescription_id = $1`, prescriptionID))
}

func (r *reportRepoPG) List(ctx context.Context, limit, offset int) ([]*Report, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM radiology_reports`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+reportCols+` FROM radiology_reports
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rep)
	}
	return items, total, rows.Err()
}

func (r *reportRepoPG) Update(ctx context.Context, rep *Report) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE radiology_reports SET content=$2, status=$3, updated_at=NOW()
		WHERE id = $1`,
		rep.ID, rep.Content, rep.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reportRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM radiology_reports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
