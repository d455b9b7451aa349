package pharmacy

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medops/opsdash/internal/platform/notify"
	"github.com/medops/opsdash/internal/platform/payment"
)

// Rules configures the thresholds used for derived stock/expiry status.
type Rules struct {
	LowStockThreshold int
	ExpiryWindowDays  int
}

func DefaultRules() Rules {
	return Rules{LowStockThreshold: 10, ExpiryWindowDays: 30}
}

type Service struct {
	medicines     MedicineRepository
	prescriptions PrescriptionRepository
	bills         BillRepository
	analytics     AnalyticsRepository
	notifier      notify.Notifier
	gateway       payment.Gateway
	rules         Rules
	now           func() time.Time
}

func NewService(
	med MedicineRepository,
	rx PrescriptionRepository,
	bills BillRepository,
	analytics AnalyticsRepository,
	notifier notify.Notifier,
	gateway payment.Gateway,
	rules Rules,
) *Service {
	return &Service{
		medicines:     med,
		prescriptions: rx,
		bills:         bills,
		analytics:     analytics,
		notifier:      notifier,
		gateway:       gateway,
		rules:         rules,
		now:           time.Now,
	}
}

// -- Medicines --

func (s *Service) CreateMedicine(ctx context.Context, m *Medicine) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("medicine name is required")
	}
	if m.Price <= 0 {
		return fmt.Errorf("price must be positive")
	}
	if m.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	return s.medicines.Create(ctx, m)
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

func (s *Service) UpdateMedicine(ctx context.Context, m *Medicine) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("medicine name is required")
	}
	if m.Price <= 0 {
		return fmt.Errorf("price must be positive")
	}
	if m.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	return s.medicines.Update(ctx, m)
}

// RefillMedicine adds stock. The backend re-validates what the dashboards
// already reject client-side: zero and negative refills.
func (s *Service) RefillMedicine(ctx context.Context, id uuid.UUID, quantity int) (*Medicine, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("refill quantity must be positive, got %d", quantity)
	}
	return s.medicines.Refill(ctx, id, quantity)
}

// DeleteMedicine removes an inventory row. The caller must echo the exact
// medicine name as confirmation; a mismatch aborts the delete.
func (s *Service) DeleteMedicine(ctx context.Context, id uuid.UUID, confirmName string) error {
	m, err := s.medicines.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(confirmName), m.Name) {
		return fmt.Errorf("confirmation name does not match %q", m.Name)
	}
	return s.medicines.Delete(ctx, id)
}

func (s *Service) ListMedicines(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	return s.medicines.List(ctx, limit, offset)
}

func (s *Service) AllMedicines(ctx context.Context) ([]*Medicine, error) {
	return s.medicines.All(ctx)
}

// -- Prescriptions --

func (s *Service) CreatePrescription(ctx context.Context, p *Prescription) error {
	if p.AppointmentID == uuid.Nil {
		return fmt.Errorf("appointment_id is required")
	}
	if strings.TrimSpace(p.PatientName) == "" {
		return fmt.Errorf("patient_name is required")
	}
	if len(p.Medications) == 0 {
		return fmt.Errorf("at least one medication is required")
	}
	if p.DispenseStatus == "" {
		p.DispenseStatus = DispensePending
	}
	return s.prescriptions.Create(ctx, p)
}

func (s *Service) GetPrescriptionByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByAppointment(ctx, appointmentID)
}

func (s *Service) ListPrescriptions(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.List(ctx, limit, offset)
}

// Dispense marks the prescription handed to the patient and stamps the
// time. Dispensing twice is rejected.
func (s *Service) Dispense(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.DispenseStatus == DispenseDispensed {
		return nil, fmt.Errorf("prescription already dispensed")
	}
	at := s.now()
	if err := s.prescriptions.SetDispenseStatus(ctx, id, DispenseDispensed, &at); err != nil {
		return nil, err
	}
	return s.prescriptions.GetByID(ctx, id)
}

func (s *Service) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	return s.prescriptions.Delete(ctx, id)
}

// SendPrescriptionSMS texts the patient a dispense-ready notice.
func (s *Service) SendPrescriptionSMS(ctx context.Context, appointmentID uuid.UUID) error {
	p, err := s.prescriptions.GetByAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}
	if p.Phone == nil || *p.Phone == "" {
		return fmt.Errorf("prescription has no phone number on file")
	}
	msg := fmt.Sprintf("Dear %s, your prescription is ready for pickup at the pharmacy.", p.PatientName)
	return s.notifier.SendSMS(ctx, *p.Phone, msg)
}

// -- Bills --

// CreateBill validates and prices the line items, computes the total, and
// stores the bill. Cash bills are paid immediately; online bills stay
// pending until payment verification flips them.
func (s *Service) CreateBill(ctx context.Context, b *Bill) error {
	if b.AppointmentID == uuid.Nil {
		return fmt.Errorf("appointment_id is required")
	}
	if len(b.Items) == 0 {
		return fmt.Errorf("at least one bill item is required")
	}
	if b.PaymentMethod == "" {
		b.PaymentMethod = PaymentMethodCash
	}
	if b.PaymentMethod != PaymentMethodCash && b.PaymentMethod != PaymentMethodOnline {
		return fmt.Errorf("invalid payment method: %s", b.PaymentMethod)
	}

	var total float64
	for i := range b.Items {
		it := &b.Items[i]
		if it.Quantity <= 0 {
			return fmt.Errorf("item %q: quantity must be positive", it.Description)
		}
		if it.UnitPrice <= 0 {
			return fmt.Errorf("item %q: unit price must be positive", it.Description)
		}
		it.Amount = round2(float64(it.Quantity) * it.UnitPrice)
		total += it.Amount
	}
	b.TotalAmount = round2(total)

	if b.PaymentStatus == "" {
		if b.PaymentMethod == PaymentMethodCash {
			b.PaymentStatus = PaymentPaid
		} else {
			b.PaymentStatus = PaymentPending
		}
	}
	return s.bills.Create(ctx, b)
}

func (s *Service) ListBills(ctx context.Context, limit, offset int) ([]*Bill, int, error) {
	return s.bills.List(ctx, limit, offset)
}

func (s *Service) BillsByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*Bill, error) {
	return s.bills.ListByAppointment(ctx, appointmentID)
}

// CreatePaymentOrder opens a gateway order for an online bill amount
// (rupees in, paise out).
func (s *Service) CreatePaymentOrder(ctx context.Context, amount float64, receipt string) (*payment.Order, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("order amount must be positive")
	}
	paise := int64(math.Round(amount * 100))
	return s.gateway.CreateOrder(ctx, paise, "INR", receipt)
}

// VerifyPaymentAndBill checks the gateway signature and only then creates
// the bill as paid. A failed verification leaves nothing billed.
func (s *Service) VerifyPaymentAndBill(ctx context.Context, orderID, paymentID, signature string, b *Bill) error {
	if err := s.gateway.VerifyPayment(orderID, paymentID, signature); err != nil {
		return err
	}
	b.PaymentMethod = PaymentMethodOnline
	b.PaymentStatus = PaymentPaid
	b.RazorpayOrderID = &orderID
	return s.CreateBill(ctx, b)
}

// SendBillSMS texts the patient their bill total.
func (s *Service) SendBillSMS(ctx context.Context, billID uuid.UUID, phone string) error {
	if phone == "" {
		return fmt.Errorf("phone number is required")
	}
	b, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("Dear %s, your pharmacy bill total is %.2f (%s).", b.PatientName, b.TotalAmount, b.PaymentStatus)
	return s.notifier.SendSMS(ctx, phone, msg)
}

// -- Analytics --

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	return s.analytics.Summary(ctx, s.now(), s.rules.LowStockThreshold)
}

func (s *Service) SalesTrend(ctx context.Context, days int) ([]SalesPoint, error) {
	if days <= 0 {
		days = 30
	}
	return s.analytics.SalesTrend(ctx, s.now().AddDate(0, 0, -days))
}

func (s *Service) MonthlyTrends(ctx context.Context, months int) ([]MonthlyPoint, error) {
	if months <= 0 {
		months = 12
	}
	return s.analytics.MonthlyTrends(ctx, months)
}

func (s *Service) InventoryBreakdown(ctx context.Context) (*InventoryBreakdown, error) {
	return s.analytics.InventoryBreakdown(ctx, s.now(), s.rules.LowStockThreshold, s.rules.ExpiryWindowDays)
}

func (s *Service) TopMedicines(ctx context.Context, limit int) ([]TopMedicine, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.analytics.TopMedicines(ctx, limit)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
