package pharmacy

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

// =========== Medicine Repository ===========

type medicineRepoPG struct{ pool *pgxpool.Pool }

func NewMedicineRepoPG(pool *pgxpool.Pool) MedicineRepository { return &medicineRepoPG{pool: pool} }

const medCols = `id, name, category, batch_number, price, quantity, expiry_date, created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.Category, &m.BatchNumber, &m.Price, &m.Quantity,
		&m.ExpiryDate, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *medicineRepoPG) Create(ctx context.Context, m *Medicine) error {
	m.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO medicines (id, name, category, batch_number, price, quantity, expiry_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		m.ID, m.Name, m.Category, m.BatchNumber, m.Price, m.Quantity, m.ExpiryDate)
	return err
}

func (r *medicineRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return scanMedicine(r.pool.QueryRow(ctx, `SELECT `+medCols+` FROM medicines WHERE id = $1`, id))
}

func (r *medicineRepoPG) GetByName(ctx context.Context, name string) (*Medicine, error) {
	return scanMedicine(r.pool.QueryRow(ctx,
		`SELECT `+medCols+` FROM medicines WHERE LOWER(name) = LOWER($1)`, name))
}

func (r *medicineRepoPG) Update(ctx context.Context, m *Medicine) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE medicines SET name=$2, category=$3, batch_number=$4, price=$5, quantity=$6,
			expiry_date=$7, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Name, m.Category, m.BatchNumber, m.Price, m.Quantity, m.ExpiryDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *medicineRepoPG) Refill(ctx context.Context, id uuid.UUID, quantity int) (*Medicine, error) {
	return scanMedicine(r.pool.QueryRow(ctx, `
		UPDATE medicines SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+medCols, id, quantity))
}

func (r *medicineRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *medicineRepoPG) List(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM medicines`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+medCols+` FROM medicines ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

func (r *medicineRepoPG) All(ctx context.Context) ([]*Medicine, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+medCols+` FROM medicines ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// =========== Prescription Repository ===========

type prescriptionRepoPG struct{ pool *pgxpool.Pool }

func NewPrescriptionRepoPG(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

const rxCols = `id, appointment_id, patient_name, doctor_name, appointment_date, phone,
	dispense_status, dispensed_at, created_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.AppointmentID, &p.PatientName, &p.DoctorName, &p.AppointmentDate,
		&p.Phone, &p.DispenseStatus, &p.DispensedAt, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *prescriptionRepoPG) loadItems(ctx context.Context, p *Prescription) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, prescription_id, medicine_name, dosage, frequency, duration_days, quantity
		FROM prescription_items WHERE prescription_id = $1 ORDER BY medicine_name`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it PrescriptionItem
		if err := rows.Scan(&it.ID, &it.PrescriptionID, &it.MedicineName, &it.Dosage,
			&it.Frequency, &it.DurationDays, &it.Quantity); err != nil {
			return err
		}
		p.Medications = append(p.Medications, it)
	}
	return rows.Err()
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	p.ID = uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO prescriptions (id, appointment_id, patient_name, doctor_name,
			appointment_date, phone, dispense_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.AppointmentID, p.PatientName, p.DoctorName, p.AppointmentDate, p.Phone, p.DispenseStatus)
	if err != nil {
		return err
	}
	for i := range p.Medications {
		it := &p.Medications[i]
		it.ID = uuid.New()
		it.PrescriptionID = p.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO prescription_items (id, prescription_id, medicine_name, dosage,
				frequency, duration_days, quantity)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			it.ID, it.PrescriptionID, it.MedicineName, it.Dosage, it.Frequency, it.DurationDays, it.Quantity); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.pool.QueryRow(ctx, `SELECT `+rxCols+` FROM prescriptions WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *prescriptionRepoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.pool.QueryRow(ctx,
		`SELECT `+rxCols+` FROM prescriptions WHERE appointment_id = $1 ORDER BY created_at DESC LIMIT 1`, appointmentID))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *prescriptionRepoPG) List(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM prescriptions`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+rxCols+` FROM prescriptions ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
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
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, p := range items {
		if err := r.loadItems(ctx, p); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

func (r *prescriptionRepoPG) SetDispenseStatus(ctx context.Context, id uuid.UUID, status string, dispensedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE prescriptions SET dispense_status = $2, dispensed_at = $3 WHERE id = $1`,
		id, status, dispensedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *prescriptionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// =========== Bill Repository ===========

type billRepoPG struct{ pool *pgxpool.Pool }

func NewBillRepoPG(pool *pgxpool.Pool) BillRepository { return &billRepoPG{pool: pool} }

const billCols = `id, appointment_id, patient_name, total_amount, payment_method,
	payment_status, razorpay_order_id, created_at`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.AppointmentID, &b.PatientName, &b.TotalAmount, &b.PaymentMethod,
		&b.PaymentStatus, &b.RazorpayOrderID, &b.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *billRepoPG) loadItems(ctx context.Context, b *Bill) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, bill_id, description, quantity, unit_price, amount
		FROM bill_items WHERE bill_id = $1 ORDER BY description`, b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it BillItem
		if err := rows.Scan(&it.ID, &it.BillID, &it.Description, &it.Quantity, &it.UnitPrice, &it.Amount); err != nil {
			return err
		}
		b.Items = append(b.Items, it)
	}
	return rows.Err()
}

func (r *billRepoPG) Create(ctx context.Context, b *Bill) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	b.ID = uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO bills (id, appointment_id, patient_name, total_amount, payment_method,
			payment_status, razorpay_order_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		b.ID, b.AppointmentID, b.PatientName, b.TotalAmount, b.PaymentMethod,
		b.PaymentStatus, b.RazorpayOrderID)
	if err != nil {
		return err
	}
	for i := range b.Items {
		it := &b.Items[i]
		it.ID = uuid.New()
		it.BillID = b.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO bill_items (id, bill_id, description, quantity, unit_price, amount)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			it.ID, it.BillID, it.Description, it.Quantity, it.UnitPrice, it.Amount); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *billRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := scanBill(r.pool.QueryRow(ctx, `SELECT `+billCols+` FROM bills WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *billRepoPG) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*Bill, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+billCols+` FROM bills WHERE appointment_id = $1 ORDER BY created_at DESC`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, b := range items {
		if err := r.loadItems(ctx, b); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (r *billRepoPG) List(ctx context.Context, limit, offset int) ([]*Bill, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bills`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+billCols+` FROM bills ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, rows.Err()
}

// =========== Analytics Repository ===========

type analyticsRepoPG struct{ pool *pgxpool.Pool }

func NewAnalyticsRepoPG(pool *pgxpool.Pool) AnalyticsRepository { return &analyticsRepoPG{pool: pool} }

func (r *analyticsRepoPG) Summary(ctx context.Context, now time.Time, lowStockThreshold int) (*Summary, error) {
	var s Summary
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(price * quantity), 0),
			COUNT(*) FILTER (WHERE quantity > 0 AND quantity <= $1),
			COUNT(*) FILTER (WHERE quantity <= 0),
			COUNT(*) FILTER (WHERE expiry_date IS NOT NULL AND expiry_date < $2)
		FROM medicines`, lowStockThreshold, now).
		Scan(&s.TotalMedicines, &s.TotalStockValue, &s.LowStockCount, &s.OutOfStockCount, &s.ExpiredCount)
	if err != nil {
		return nil, err
	}
	err = r.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(total_amount), 0) FROM bills`).
		Scan(&s.TotalBills, &s.TotalRevenue)
	if err != nil {
		return nil, err
	}
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM prescriptions WHERE dispense_status = $1`, DispensePending).
		Scan(&s.PendingDispenses)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *analyticsRepoPG) SalesTrend(ctx context.Context, since time.Time) ([]SalesPoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DATE_TRUNC('day', created_at) AS day, COALESCE(SUM(total_amount), 0), COUNT(*)
		FROM bills WHERE created_at >= $1
		GROUP BY day ORDER BY day`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var points []SalesPoint
	for rows.Next() {
		var p SalesPoint
		if err := rows.Scan(&p.Date, &p.Revenue, &p.BillCount); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *analyticsRepoPG) MonthlyTrends(ctx context.Context, months int) ([]MonthlyPoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT TO_CHAR(DATE_TRUNC('month', b.created_at), 'YYYY-MM') AS month,
			COALESCE(SUM(b.total_amount), 0),
			(SELECT COUNT(*) FROM prescriptions p
				WHERE DATE_TRUNC('month', p.created_at) = DATE_TRUNC('month', b.created_at))
		FROM bills b
		WHERE b.created_at >= NOW() - ($1 || ' months')::interval
		GROUP BY DATE_TRUNC('month', b.created_at)
		ORDER BY month`, months)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var points []MonthlyPoint
	for rows.Next() {
		var p MonthlyPoint
		if err := rows.Scan(&p.Month, &p.Revenue, &p.Prescriptions); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *analyticsRepoPG) InventoryBreakdown(ctx context.Context, now time.Time, lowStockThreshold, expiryWindowDays int) (*InventoryBreakdown, error) {
	var b InventoryBreakdown
	window := now.AddDate(0, 0, expiryWindowDays)
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE quantity > $1),
			COUNT(*) FILTER (WHERE quantity > 0 AND quantity <= $1),
			COUNT(*) FILTER (WHERE quantity <= 0),
			COUNT(*) FILTER (WHERE expiry_date IS NOT NULL AND expiry_date < $2),
			COUNT(*) FILTER (WHERE expiry_date IS NOT NULL AND expiry_date >= $2 AND expiry_date < $3)
		FROM medicines`, lowStockThreshold, now, window).
		Scan(&b.InStock, &b.LowStock, &b.OutOfStock, &b.Expired, &b.ExpiringSoon)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *analyticsRepoPG) TopMedicines(ctx context.Context, limit int) ([]TopMedicine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT medicine_name, COALESCE(SUM(quantity), 0), COUNT(*)
		FROM prescription_items
		GROUP BY medicine_name
		ORDER BY SUM(quantity) DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var top []TopMedicine
	for rows.Next() {
		var t TopMedicine
		if err := rows.Scan(&t.Name, &t.UnitsSold, &t.OrderCount); err != nil {
			return nil, err
		}
		top = append(top, t)
	}
	return top, rows.Err()
}
