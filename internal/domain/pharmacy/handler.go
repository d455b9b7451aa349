package pharmacy

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medops/opsdash/internal/platform/auth"
	"github.com/medops/opsdash/internal/platform/payment"
	"github.com/medops/opsdash/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("pharmacy"))
	read.GET("/prescriptions", h.ListPrescriptions)
	read.GET("/prescriptions/:appointmentId", h.GetPrescriptionByAppointment)
	read.GET("/medicines", h.ListMedicines)
	read.GET("/medicines/export", h.ExportMedicines)
	read.GET("/bills", h.ListBills)
	read.GET("/bills/:appointmentId", h.BillsByAppointment)
	read.GET("/analytics/summary", h.Summary)
	read.GET("/analytics/sales-trend", h.SalesTrend)
	read.GET("/analytics/monthly-trends", h.MonthlyTrends)
	read.GET("/analytics/inventory-analytics", h.InventoryBreakdown)
	read.GET("/analytics/top-medicines", h.TopMedicines)
	read.GET("/analytics/export/:dataset", h.ExportAnalytics)

	write := api.Group("", auth.RequireRole("pharmacy"))
	write.POST("/prescriptions", h.CreatePrescription)
	write.PATCH("/prescriptions/:id/dispense", h.Dispense)
	write.DELETE("/prescriptions/:id", h.DeletePrescription)
	write.POST("/prescriptions/sms/send", h.SendPrescriptionSMS)
	write.POST("/medicines", h.CreateMedicine)
	write.PATCH("/medicines/refill/:id", h.RefillMedicine)
	write.PUT("/medicines/:id", h.UpdateMedicine)
	write.DELETE("/medicines/:id", h.DeleteMedicine)
	write.POST("/bills", h.CreateBill)
	write.POST("/bills/razorpay/order", h.CreatePaymentOrder)
	write.POST("/bills/razorpay/verify", h.VerifyPayment)
	write.POST("/bills/sms/send", h.SendBillSMS)
}

// medicineView augments the stored row with the derived status fields the
// dashboards filter on.
type medicineView struct {
	*Medicine
	StockStatus  string `json:"stock_status"`
	ExpiryStatus string `json:"expiry_status"`
}

func (h *Handler) view(m *Medicine) medicineView {
	now := h.svc.now()
	return medicineView{
		Medicine:     m,
		StockStatus:  m.StockStatus(h.svc.rules.LowStockThreshold),
		ExpiryStatus: m.ExpiryStatus(now, h.svc.rules.ExpiryWindowDays),
	}
}

func (h *Handler) views(ms []*Medicine) []medicineView {
	out := make([]medicineView, 0, len(ms))
	for _, m := range ms {
		out = append(out, h.view(m))
	}
	return out
}

// -- Medicines --

func (h *Handler) ListMedicines(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListMedicines(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(h.views(items), total, pg.Limit, pg.Offset))
}

func (h *Handler) ExportMedicines(c echo.Context) error {
	items, err := h.svc.AllMedicines(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.views(items))
}

func (h *Handler) CreateMedicine(c echo.Context) error {
	var m Medicine
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateMedicine(c.Request().Context(), &m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, h.view(&m))
}

func (h *Handler) UpdateMedicine(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var m Medicine
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.ID = id
	if err := h.svc.UpdateMedicine(c.Request().Context(), &m); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "medicine not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.view(&m))
}

type refillRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) RefillMedicine(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req refillRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.svc.RefillMedicine(c.Request().Context(), id, req.Quantity)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "medicine not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.view(m))
}

type deleteMedicineRequest struct {
	Name string `json:"name"`
}

func (h *Handler) DeleteMedicine(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req deleteMedicineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.DeleteMedicine(c.Request().Context(), id, req.Name); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "medicine not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Prescriptions --

func (h *Handler) ListPrescriptions(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPrescriptions(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetPrescriptionByAppointment(c echo.Context) error {
	appointmentID, err := uuid.Parse(c.Param("appointmentId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	p, err := h.svc.GetPrescriptionByAppointment(c.Request().Context(), appointmentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "no prescription found for this appointment")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePrescription(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Dispense(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Dispense(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePrescription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeletePrescription(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type prescriptionSMSRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
}

func (h *Handler) SendPrescriptionSMS(c echo.Context) error {
	var req prescriptionSMSRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SendPrescriptionSMS(c.Request().Context(), req.AppointmentID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no prescription found for this appointment")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusAccepted)
}

// -- Bills --

func (h *Handler) ListBills(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListBills(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) BillsByAppointment(c echo.Context) error {
	appointmentID, err := uuid.Parse(c.Param("appointmentId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	bills, err := h.svc.BillsByAppointment(c.Request().Context(), appointmentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, bills)
}

func (h *Handler) CreateBill(c echo.Context) error {
	var b Bill
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateBill(c.Request().Context(), &b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, b)
}

type paymentOrderRequest struct {
	Amount  float64 `json:"amount"`
	Receipt string  `json:"receipt"`
}

func (h *Handler) CreatePaymentOrder(c echo.Context) error {
	var req paymentOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	order, err := h.svc.CreatePaymentOrder(c.Request().Context(), req.Amount, req.Receipt)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusCreated, order)
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
	Bill      Bill   `json:"bill"`
}

func (h *Handler) VerifyPayment(c echo.Context) error {
	var req verifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	err := h.svc.VerifyPaymentAndBill(c.Request().Context(), req.OrderID, req.PaymentID, req.Signature, &req.Bill)
	if err != nil {
		if errors.Is(err, payment.ErrSignatureMismatch) {
			return echo.NewHTTPError(http.StatusBadRequest, "payment verification failed")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, req.Bill)
}

type billSMSRequest struct {
	BillID uuid.UUID `json:"bill_id"`
	Phone  string    `json:"phone"`
}

func (h *Handler) SendBillSMS(c echo.Context) error {
	var req billSMSRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SendBillSMS(c.Request().Context(), req.BillID, req.Phone); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "bill not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusAccepted)
}

// -- Analytics --

func (h *Handler) Summary(c echo.Context) error {
	s, err := h.svc.Summary(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) SalesTrend(c echo.Context) error {
	days, _ := strconv.Atoi(c.QueryParam("days"))
	points, err := h.svc.SalesTrend(c.Request().Context(), days)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if points == nil {
		points = []SalesPoint{}
	}
	return c.JSON(http.StatusOK, points)
}

func (h *Handler) MonthlyTrends(c echo.Context) error {
	months, _ := strconv.Atoi(c.QueryParam("months"))
	points, err := h.svc.MonthlyTrends(c.Request().Context(), months)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if points == nil {
		points = []MonthlyPoint{}
	}
	return c.JSON(http.StatusOK, points)
}

func (h *Handler) InventoryBreakdown(c echo.Context) error {
	b, err := h.svc.InventoryBreakdown(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) TopMedicines(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	top, err := h.svc.TopMedicines(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if top == nil {
		top = []TopMedicine{}
	}
	return c.JSON(http.StatusOK, top)
}

// ExportAnalytics serves the raw rows behind one analytics dataset over
// the widest window, leaving any CSV/XLSX formatting to the caller.
func (h *Handler) ExportAnalytics(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		payload interface{}
		err     error
	)
	switch c.Param("dataset") {
	case "summary":
		payload, err = h.svc.Summary(ctx)
	case "sales-trend":
		var points []SalesPoint
		if points, err = h.svc.SalesTrend(ctx, 365); points == nil {
			points = []SalesPoint{}
		}
		payload = points
	case "monthly-trends":
		var points []MonthlyPoint
		if points, err = h.svc.MonthlyTrends(ctx, 12); points == nil {
			points = []MonthlyPoint{}
		}
		payload = points
	case "inventory-analytics":
		payload, err = h.svc.InventoryBreakdown(ctx)
	case "top-medicines":
		var top []TopMedicine
		if top, err = h.svc.TopMedicines(ctx, 50); top == nil {
			top = []TopMedicine{}
		}
		payload = top
	default:
		return echo.NewHTTPError(http.StatusNotFound, "unknown dataset")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, payload)
}
