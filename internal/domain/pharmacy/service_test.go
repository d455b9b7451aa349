package pharmacy

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medops/opsdash/internal/platform/payment"
)

// -- in-memory fakes --

type memMedicineRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*Medicine
}

func newMemMedicineRepo() *memMedicineRepo {
	return &memMedicineRepo{items: make(map[uuid.UUID]*Medicine)}
}

func (r *memMedicineRepo) Create(_ context.Context, m *Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	cp := *m
	r.items[m.ID] = &cp
	return nil
}

func (r *memMedicineRepo) GetByID(_ context.Context, id uuid.UUID) (*Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMedicineRepo) GetByName(_ context.Context, name string) (*Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.items {
		if strings.EqualFold(m.Name, name) {
			cp := *m
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memMedicineRepo) Update(_ context.Context, m *Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[m.ID]; !ok {
		return ErrNotFound
	}
	cp := *m
	r.items[m.ID] = &cp
	return nil
}

func (r *memMedicineRepo) Refill(_ context.Context, id uuid.UUID, quantity int) (*Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.Quantity += quantity
	cp := *m
	return &cp, nil
}

func (r *memMedicineRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memMedicineRepo) List(_ context.Context, limit, offset int) ([]*Medicine, int, error) {
	all, _ := r.All(context.Background())
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *memMedicineRepo) All(_ context.Context) ([]*Medicine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Medicine, 0, len(r.items))
	for _, m := range r.items {
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memPrescriptionRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*Prescription
}

func newMemPrescriptionRepo() *memPrescriptionRepo {
	return &memPrescriptionRepo{items: make(map[uuid.UUID]*Prescription)}
}

func (r *memPrescriptionRepo) Create(_ context.Context, p *Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *memPrescriptionRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memPrescriptionRepo) GetByAppointment(_ context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.AppointmentID == appointmentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memPrescriptionRepo) List(_ context.Context, limit, offset int) ([]*Prescription, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Prescription, 0, len(r.items))
	for _, p := range r.items {
		cp := *p
		out = append(out, &cp)
	}
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

func (r *memPrescriptionRepo) SetDispenseStatus(_ context.Context, id uuid.UUID, status string, dispensedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return ErrNotFound
	}
	p.DispenseStatus = status
	p.DispensedAt = dispensedAt
	return nil
}

func (r *memPrescriptionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type memBillRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*Bill
}

func newMemBillRepo() *memBillRepo {
	return &memBillRepo{items: make(map[uuid.UUID]*Bill)}
}

func (r *memBillRepo) Create(_ context.Context, b *Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	cp := *b
	r.items[b.ID] = &cp
	return nil
}

func (r *memBillRepo) GetByID(_ context.Context, id uuid.UUID) (*Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memBillRepo) ListByAppointment(_ context.Context, appointmentID uuid.UUID) ([]*Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Bill
	for _, b := range r.items {
		if b.AppointmentID == appointmentID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memBillRepo) List(_ context.Context, limit, offset int) ([]*Bill, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Bill, 0, len(r.items))
	for _, b := range r.items {
		cp := *b
		out = append(out, &cp)
	}
	total := len(out)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	phones   []string
}

func (n *recordingNotifier) SendSMS(_ context.Context, phone, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.phones = append(n.phones, phone)
	n.messages = append(n.messages, message)
	return nil
}

type fakeGateway struct {
	orders    []int64
	verifyErr error
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*payment.Order, error) {
	g.orders = append(g.orders, amount)
	return &payment.Order{ID: "order_test", Amount: amount, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

func (g *fakeGateway) VerifyPayment(orderID, paymentID, signature string) error {
	return g.verifyErr
}

// memAnalyticsRepo serves canned rows and records the window arguments the
// service passed down.
type memAnalyticsRepo struct {
	lastSince  time.Time
	lastMonths int
	lastLimit  int
}

func (a *memAnalyticsRepo) Summary(_ context.Context, _ time.Time, _ int) (*Summary, error) {
	return &Summary{TotalMedicines: 2, TotalBills: 3, TotalRevenue: 40}, nil
}

func (a *memAnalyticsRepo) SalesTrend(_ context.Context, since time.Time) ([]SalesPoint, error) {
	a.lastSince = since
	return []SalesPoint{{Date: since, Revenue: 40, BillCount: 3}}, nil
}

func (a *memAnalyticsRepo) MonthlyTrends(_ context.Context, months int) ([]MonthlyPoint, error) {
	a.lastMonths = months
	return []MonthlyPoint{{Month: "2026-08", Revenue: 40, Prescriptions: 2}}, nil
}

func (a *memAnalyticsRepo) InventoryBreakdown(_ context.Context, _ time.Time, _, _ int) (*InventoryBreakdown, error) {
	return &InventoryBreakdown{InStock: 1, LowStock: 1}, nil
}

func (a *memAnalyticsRepo) TopMedicines(_ context.Context, limit int) ([]TopMedicine, error) {
	a.lastLimit = limit
	return []TopMedicine{{Name: "Paracetamol", UnitsSold: 12, OrderCount: 4}}, nil
}

func newAnalyticsService(a AnalyticsRepository) *Service {
	return NewService(newMemMedicineRepo(), newMemPrescriptionRepo(), newMemBillRepo(), a,
		&recordingNotifier{}, &fakeGateway{}, DefaultRules())
}

func newTestService() (*Service, *memMedicineRepo, *memPrescriptionRepo, *memBillRepo, *recordingNotifier, *fakeGateway) {
	med := newMemMedicineRepo()
	rx := newMemPrescriptionRepo()
	bills := newMemBillRepo()
	n := &recordingNotifier{}
	g := &fakeGateway{}
	svc := NewService(med, rx, bills, nil, n, g, DefaultRules())
	return svc, med, rx, bills, n, g
}

// -- medicines --

func TestCreateMedicine_Validation(t *testing.T) {
	svc, _, _, _, _, _ := newTestService()
	ctx := context.Background()

	cases := []Medicine{
		{Name: "", Price: 10, Quantity: 1},
		{Name: "Paracetamol", Price: 0, Quantity: 1},
		{Name: "Paracetamol", Price: -3, Quantity: 1},
		{Name: "Paracetamol", Price: 10, Quantity: -1},
	}
	for _, m := range cases {
		if err := svc.CreateMedicine(ctx, &m); err == nil {
			t.Errorf("CreateMedicine(%+v) accepted invalid input", m)
		}
	}

	ok := Medicine{Name: "Paracetamol", Price: 2.5, Quantity: 100}
	if err := svc.CreateMedicine(ctx, &ok); err != nil {
		t.Fatalf("CreateMedicine: %v", err)
	}
	if ok.ID == uuid.Nil {
		t.Error("created medicine did not get an id")
	}
}

func TestRefillMedicine(t *testing.T) {
	svc, med, _, _, _, _ := newTestService()
	ctx := context.Background()

	m := Medicine{Name: "Amoxicillin", Price: 5, Quantity: 3}
	if err := med.Create(ctx, &m); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.RefillMedicine(ctx, m.ID, 0); err == nil {
		t.Error("zero refill accepted")
	}
	if _, err := svc.RefillMedicine(ctx, m.ID, -5); err == nil {
		t.Error("negative refill accepted")
	}

	got, err := svc.RefillMedicine(ctx, m.ID, 20)
	if err != nil {
		t.Fatalf("RefillMedicine: %v", err)
	}
	if got.Quantity != 23 {
		t.Errorf("quantity after refill = %d, want 23", got.Quantity)
	}

	if _, err := svc.RefillMedicine(ctx, uuid.New(), 5); !errors.Is(err, ErrNotFound) {
		t.Errorf("refill of missing medicine: err = %v, want ErrNotFound", err)
	}
}

func TestDeleteMedicine_NameConfirmation(t *testing.T) {
	svc, med, _, _, _, _ := newTestService()
	ctx := context.Background()

	m := Medicine{Name: "Ibuprofen", Price: 4, Quantity: 50}
	if err := med.Create(ctx, &m); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteMedicine(ctx, m.ID, "Aspirin"); err == nil {
		t.Fatal("delete with wrong confirmation name succeeded")
	}
	if _, err := med.GetByID(ctx, m.ID); err != nil {
		t.Fatal("medicine was deleted despite failed confirmation")
	}

	// Confirmation is case-insensitive and whitespace-tolerant.
	if err := svc.DeleteMedicine(ctx, m.ID, "  ibuprofen "); err != nil {
		t.Fatalf("DeleteMedicine: %v", err)
	}
	if _, err := med.GetByID(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Error("medicine still present after delete")
	}
}

// -- prescriptions --

func TestDispense(t *testing.T) {
	svc, _, rx, _, _, _ := newTestService()
	ctx := context.Background()

	fixed := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	p := Prescription{
		AppointmentID:  uuid.New(),
		PatientName:    "Asha",
		DispenseStatus: DispensePending,
		Medications:    []PrescriptionItem{{MedicineName: "Paracetamol", Quantity: 10}},
	}
	if err := rx.Create(ctx, &p); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Dispense(ctx, p.ID)
	if err != nil {
		t.Fatalf("Dispense: %v", err)
	}
	if got.DispenseStatus != DispenseDispensed {
		t.Errorf("status = %q, want %q", got.DispenseStatus, DispenseDispensed)
	}
	if got.DispensedAt == nil || !got.DispensedAt.Equal(fixed) {
		t.Errorf("dispensed_at = %v, want %v", got.DispensedAt, fixed)
	}

	if _, err := svc.Dispense(ctx, p.ID); err == nil {
		t.Error("second dispense accepted")
	}
}

func TestSendPrescriptionSMS(t *testing.T) {
	svc, _, rx, _, notifier, _ := newTestService()
	ctx := context.Background()

	phone := "+911234567890"
	p := Prescription{
		AppointmentID: uuid.New(),
		PatientName:   "Ravi",
		Phone:         &phone,
		Medications:   []PrescriptionItem{{MedicineName: "Cetirizine", Quantity: 5}},
	}
	if err := rx.Create(ctx, &p); err != nil {
		t.Fatal(err)
	}

	if err := svc.SendPrescriptionSMS(ctx, p.AppointmentID); err != nil {
		t.Fatalf("SendPrescriptionSMS: %v", err)
	}
	if len(notifier.phones) != 1 || notifier.phones[0] != phone {
		t.Errorf("sms sent to %v, want [%s]", notifier.phones, phone)
	}

	noPhone := Prescription{
		AppointmentID: uuid.New(),
		PatientName:   "Meena",
		Medications:   []PrescriptionItem{{MedicineName: "Cetirizine", Quantity: 5}},
	}
	if err := rx.Create(ctx, &noPhone); err != nil {
		t.Fatal(err)
	}
	if err := svc.SendPrescriptionSMS(ctx, noPhone.AppointmentID); err == nil {
		t.Error("sms without a phone number on file succeeded")
	}
}

// -- bills --

func TestCreateBill_PricesItems(t *testing.T) {
	svc, _, _, _, _, _ := newTestService()
	ctx := context.Background()

	b := Bill{
		AppointmentID: uuid.New(),
		PatientName:   "Asha",
		PaymentMethod: PaymentMethodCash,
		Items: []BillItem{
			{Description: "Paracetamol", Quantity: 3, UnitPrice: 2.5},
			{Description: "Amoxicillin", Quantity: 2, UnitPrice: 10.25},
		},
	}
	if err := svc.CreateBill(ctx, &b); err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if b.Items[0].Amount != 7.5 || b.Items[1].Amount != 20.5 {
		t.Errorf("item amounts = %v, %v", b.Items[0].Amount, b.Items[1].Amount)
	}
	if b.TotalAmount != 28 {
		t.Errorf("total = %v, want 28", b.TotalAmount)
	}
	if b.PaymentStatus != PaymentPaid {
		t.Errorf("cash bill status = %q, want paid", b.PaymentStatus)
	}
}

func TestCreateBill_Validation(t *testing.T) {
	svc, _, _, _, _, _ := newTestService()
	ctx := context.Background()

	cases := []Bill{
		{PatientName: "x", Items: []BillItem{{Description: "a", Quantity: 1, UnitPrice: 1}}},                            // no appointment
		{AppointmentID: uuid.New()},                                                                                     // no items
		{AppointmentID: uuid.New(), Items: []BillItem{{Description: "a", Quantity: 0, UnitPrice: 1}}},                   // zero qty
		{AppointmentID: uuid.New(), Items: []BillItem{{Description: "a", Quantity: 1, UnitPrice: -1}}},                  // negative price
		{AppointmentID: uuid.New(), PaymentMethod: "card", Items: []BillItem{{Description: "a", Quantity: 1, UnitPrice: 1}}}, // bad method
	}
	for i, b := range cases {
		if err := svc.CreateBill(ctx, &b); err == nil {
			t.Errorf("case %d: invalid bill accepted", i)
		}
	}
}

func TestCreateBill_OnlineStaysPending(t *testing.T) {
	svc, _, _, _, _, _ := newTestService()
	b := Bill{
		AppointmentID: uuid.New(),
		PaymentMethod: PaymentMethodOnline,
		Items:         []BillItem{{Description: "a", Quantity: 1, UnitPrice: 5}},
	}
	if err := svc.CreateBill(context.Background(), &b); err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	if b.PaymentStatus != PaymentPending {
		t.Errorf("online bill status = %q, want pending", b.PaymentStatus)
	}
}

func TestCreatePaymentOrder_ConvertsToPaise(t *testing.T) {
	svc, _, _, _, _, gw := newTestService()

	if _, err := svc.CreatePaymentOrder(context.Background(), 0, "r"); err == nil {
		t.Error("zero amount accepted")
	}

	order, err := svc.CreatePaymentOrder(context.Background(), 150.50, "bill-1")
	if err != nil {
		t.Fatalf("CreatePaymentOrder: %v", err)
	}
	if order.Amount != 15050 {
		t.Errorf("order amount = %d paise, want 15050", order.Amount)
	}
	if len(gw.orders) != 1 || gw.orders[0] != 15050 {
		t.Errorf("gateway saw %v", gw.orders)
	}
}

func TestVerifyPaymentAndBill(t *testing.T) {
	svc, _, _, bills, _, gw := newTestService()
	ctx := context.Background()

	b := Bill{
		AppointmentID: uuid.New(),
		Items:         []BillItem{{Description: "a", Quantity: 2, UnitPrice: 50}},
	}

	gw.verifyErr = payment.ErrSignatureMismatch
	if err := svc.VerifyPaymentAndBill(ctx, "o1", "p1", "sig", &b); !errors.Is(err, payment.ErrSignatureMismatch) {
		t.Fatalf("err = %v, want ErrSignatureMismatch", err)
	}
	if _, total, _ := bills.List(ctx, 10, 0); total != 0 {
		t.Fatal("bill was created despite failed verification")
	}

	gw.verifyErr = nil
	if err := svc.VerifyPaymentAndBill(ctx, "o1", "p1", "sig", &b); err != nil {
		t.Fatalf("VerifyPaymentAndBill: %v", err)
	}
	if b.PaymentStatus != PaymentPaid || b.PaymentMethod != PaymentMethodOnline {
		t.Errorf("bill = %q/%q, want online/paid", b.PaymentMethod, b.PaymentStatus)
	}
	if b.RazorpayOrderID == nil || *b.RazorpayOrderID != "o1" {
		t.Errorf("razorpay order id = %v, want o1", b.RazorpayOrderID)
	}
}

func TestSendBillSMS(t *testing.T) {
	svc, _, _, bills, notifier, _ := newTestService()
	ctx := context.Background()

	b := Bill{AppointmentID: uuid.New(), PatientName: "Ravi", TotalAmount: 99.5, PaymentStatus: PaymentPaid}
	if err := bills.Create(ctx, &b); err != nil {
		t.Fatal(err)
	}

	if err := svc.SendBillSMS(ctx, b.ID, ""); err == nil {
		t.Error("empty phone accepted")
	}
	if err := svc.SendBillSMS(ctx, b.ID, "+911112223334"); err != nil {
		t.Fatalf("SendBillSMS: %v", err)
	}
	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0], "99.50") {
		t.Errorf("messages = %v", notifier.messages)
	}
}

// -- derived status --

func TestMedicineStockStatus(t *testing.T) {
	cases := []struct {
		qty  int
		want string
	}{
		{0, StockOutOfStock},
		{-1, StockOutOfStock},
		{1, StockLowStock},
		{10, StockLowStock},
		{11, StockInStock},
	}
	for _, tc := range cases {
		m := Medicine{Quantity: tc.qty}
		if got := m.StockStatus(10); got != tc.want {
			t.Errorf("StockStatus(qty=%d) = %q, want %q", tc.qty, got, tc.want)
		}
	}
}

func TestMedicineExpiryStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	m := Medicine{}
	if got := m.ExpiryStatus(now, 30); got != ExpiryUnknown {
		t.Errorf("nil expiry = %q, want unknown", got)
	}

	past := now.AddDate(0, 0, -1)
	m.ExpiryDate = &past
	if got := m.ExpiryStatus(now, 30); got != ExpiryExpired {
		t.Errorf("past expiry = %q, want expired", got)
	}

	soon := now.AddDate(0, 0, 10)
	m.ExpiryDate = &soon
	if got := m.ExpiryStatus(now, 30); got != ExpirySoon {
		t.Errorf("near expiry = %q, want expiring_soon", got)
	}

	far := now.AddDate(0, 0, 90)
	m.ExpiryDate = &far
	if got := m.ExpiryStatus(now, 30); got != ExpiryOK {
		t.Errorf("far expiry = %q, want ok", got)
	}
}
