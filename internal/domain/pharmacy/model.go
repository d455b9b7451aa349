package pharmacy

import (
	"time"

	"github.com/google/uuid"
)

// Stock status values derived from quantity on hand.
const (
	StockInStock    = "in_stock"
	StockLowStock   = "low_stock"
	StockOutOfStock = "out_of_stock"
)

// Expiry status values derived from the expiry date.
const (
	ExpiryOK      = "ok"
	ExpirySoon    = "expiring_soon"
	ExpiryExpired = "expired"
	ExpiryUnknown = "unknown"
)

// Dispense status values for a prescription.
const (
	DispensePending   = "pending"
	DispenseDispensed = "dispensed"
)

// Payment values for a bill.
const (
	PaymentMethodCash   = "cash"
	PaymentMethodOnline = "online"
	PaymentPending      = "pending"
	PaymentPaid         = "paid"
)

// Medicine is one inventory row.
type Medicine struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Category    *string    `db:"category" json:"category,omitempty"`
	BatchNumber *string    `db:"batch_number" json:"batch_number,omitempty"`
	Price       float64    `db:"price" json:"price"`
	Quantity    int        `db:"quantity" json:"quantity"`
	ExpiryDate  *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// StockStatus derives the stock bucket from the quantity on hand.
func (m *Medicine) StockStatus(lowStockThreshold int) string {
	switch {
	case m.Quantity <= 0:
		return StockOutOfStock
	case m.Quantity <= lowStockThreshold:
		return StockLowStock
	default:
		return StockInStock
	}
}

// ExpiryStatus derives the expiry bucket relative to now.
func (m *Medicine) ExpiryStatus(now time.Time, windowDays int) string {
	if m.ExpiryDate == nil {
		return ExpiryUnknown
	}
	if m.ExpiryDate.Before(now) {
		return ExpiryExpired
	}
	if m.ExpiryDate.Before(now.AddDate(0, 0, windowDays)) {
		return ExpirySoon
	}
	return ExpiryOK
}

// Prescription is one appointment's medication order.
type Prescription struct {
	ID              uuid.UUID          `db:"id" json:"id"`
	AppointmentID   uuid.UUID          `db:"appointment_id" json:"appointment_id"`
	PatientName     string             `db:"patient_name" json:"patient_name"`
	DoctorName      string             `db:"doctor_name" json:"doctor_name"`
	AppointmentDate time.Time          `db:"appointment_date" json:"appointment_date"`
	Phone           *string            `db:"phone" json:"phone,omitempty"`
	DispenseStatus  string             `db:"dispense_status" json:"dispense_status"`
	DispensedAt     *time.Time         `db:"dispensed_at" json:"dispensed_at,omitempty"`
	Medications     []PrescriptionItem `json:"medications"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
}

// PrescriptionItem is one medication line on a prescription.
type PrescriptionItem struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	MedicineName   string    `db:"medicine_name" json:"medicine_name"`
	Dosage         *string   `db:"dosage" json:"dosage,omitempty"`
	Frequency      *string   `db:"frequency" json:"frequency,omitempty"`
	DurationDays   *int      `db:"duration_days" json:"duration_days,omitempty"`
	Quantity       int       `db:"quantity" json:"quantity"`
}

// Bill is one appointment's pharmacy bill.
type Bill struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	AppointmentID   uuid.UUID  `db:"appointment_id" json:"appointment_id"`
	PatientName     string     `db:"patient_name" json:"patient_name"`
	TotalAmount     float64    `db:"total_amount" json:"total_amount"`
	PaymentMethod   string     `db:"payment_method" json:"payment_method"`
	PaymentStatus   string     `db:"payment_status" json:"payment_status"`
	RazorpayOrderID *string    `db:"razorpay_order_id" json:"razorpay_order_id,omitempty"`
	Items           []BillItem `json:"items"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// BillItem is one billed line.
type BillItem struct {
	ID          uuid.UUID `db:"id" json:"id"`
	BillID      uuid.UUID `db:"bill_id" json:"bill_id"`
	Description string    `db:"description" json:"description"`
	Quantity    int       `db:"quantity" json:"quantity"`
	UnitPrice   float64   `db:"unit_price" json:"unit_price"`
	Amount      float64   `db:"amount" json:"amount"`
}

// Summary is the headline analytics block.
type Summary struct {
	TotalMedicines   int     `json:"total_medicines"`
	TotalStockValue  float64 `json:"total_stock_value"`
	LowStockCount    int     `json:"low_stock_count"`
	OutOfStockCount  int     `json:"out_of_stock_count"`
	ExpiredCount     int     `json:"expired_count"`
	TotalBills       int     `json:"total_bills"`
	TotalRevenue     float64 `json:"total_revenue"`
	PendingDispenses int     `json:"pending_dispenses"`
}

// SalesPoint is one day of billing totals.
type SalesPoint struct {
	Date      time.Time `json:"date"`
	Revenue   float64   `json:"revenue"`
	BillCount int       `json:"bill_count"`
}

// MonthlyPoint is one month of billing and prescription volume.
type MonthlyPoint struct {
	Month         string  `json:"month"` // YYYY-MM
	Revenue       float64 `json:"revenue"`
	Prescriptions int     `json:"prescriptions"`
}

// InventoryBreakdown buckets the inventory by stock and expiry status.
type InventoryBreakdown struct {
	InStock      int `json:"in_stock"`
	LowStock     int `json:"low_stock"`
	OutOfStock   int `json:"out_of_stock"`
	Expired      int `json:"expired"`
	ExpiringSoon int `json:"expiring_soon"`
}

// TopMedicine is one row of the most-dispensed ranking.
type TopMedicine struct {
	Name       string `json:"name"`
	UnitsSold  int    `json:"units_sold"`
	OrderCount int    `json:"order_count"`
}
