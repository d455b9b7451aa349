package radiology

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	services      ServiceRepository
	prescriptions PrescriptionRepository
	reports       ReportRepository
	now           func() time.Time
}

func NewService(services ServiceRepository, rx PrescriptionRepository, reports ReportRepository) *Service {
	return &Service{services: services, prescriptions: rx, reports: reports, now: time.Now}
}

// -- services and templates --

func (s *Service) CreateService(ctx context.Context, rs *RadiologyService) error {
	if strings.TrimSpace(rs.Name) == "" {
		return fmt.Errorf("service name is required")
	}
	if strings.TrimSpace(rs.Modality) == "" {
		return fmt.Errorf("modality is required")
	}
	if rs.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	return s.services.Create(ctx, rs)
}

func (s *Service) GetService(ctx context.Context, id uuid.UUID) (*RadiologyService, error) {
	return s.services.GetByID(ctx, id)
}

func (s *Service) UpdateService(ctx context.Context, rs *RadiologyService) error {
	if strings.TrimSpace(rs.Name) == "" {
		return fmt.Errorf("service name is required")
	}
	if rs.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	return s.services.Update(ctx, rs)
}

func (s *Service) DeleteService(ctx context.Context, id uuid.UUID) error {
	return s.services.Delete(ctx, id)
}

func (s *Service) ListServices(ctx context.Context) ([]*RadiologyService, error) {
	return s.services.List(ctx)
}

func (s *Service) AddTemplate(ctx context.Context, t *ReportTemplate) error {
	if t.ServiceID == uuid.Nil {
		return fmt.Errorf("service_id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("template name is required")
	}
	if _, err := s.services.GetByID(ctx, t.ServiceID); err != nil {
		return err
	}
	return s.services.AddTemplate(ctx, t)
}

func (s *Service) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return s.services.DeleteTemplate(ctx, id)
}

// -- prescriptions --

func (s *Service) CreatePrescription(ctx context.Context, p *Prescription) error {
	if p.AppointmentID == uuid.Nil {
		return fmt.Errorf("appointment_id is required")
	}
	if strings.TrimSpace(p.ServiceName) == "" {
		return fmt.Errorf("service_name is required")
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	if p.PaymentStatus == "" {
		p.PaymentStatus = PaymentPending
	}
	return s.prescriptions.Create(ctx, p)
}

func (s *Service) PrescriptionsByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*Prescription, error) {
	return s.prescriptions.ListByAppointment(ctx, appointmentID)
}

func (s *Service) ListPrescriptions(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.List(ctx, limit, offset)
}

// MarkTestConducted flags the imaging as done and stamps the time.
// Conducting twice is rejected.
func (s *Service) MarkTestConducted(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.TestConducted {
		return nil, fmt.Errorf("test already conducted")
	}
	if err := s.prescriptions.SetTestConducted(ctx, id, s.now()); err != nil {
		return nil, err
	}
	return s.prescriptions.GetByID(ctx, id)
}

func (s *Service) SetPrescriptionStatus(ctx context.Context, id uuid.UUID, status string) (*Prescription, error) {
	switch status {
	case StatusPending, StatusInProgress, StatusCompleted:
	default:
		return nil, fmt.Errorf("invalid status: %s", status)
	}
	if err := s.prescriptions.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.prescriptions.GetByID(ctx, id)
}

func (s *Service) SetPaymentStatus(ctx context.Context, id uuid.UUID, status string) (*Prescription, error) {
	switch status {
	case PaymentPending, PaymentPaid:
	default:
		return nil, fmt.Errorf("invalid payment status: %s", status)
	}
	if err := s.prescriptions.SetPaymentStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.prescriptions.GetByID(ctx, id)
}

// -- reports --

func (s *Service) CreateReport(ctx context.Context, r *Report) error {
	if r.PrescriptionID == uuid.Nil {
		return fmt.Errorf("prescription_id is required")
	}
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("report content is required")
	}
	switch r.Status {
	case "":
		r.Status = ReportDraft
	case ReportDraft, ReportFinal:
	default:
		return fmt.Errorf("invalid report status: %s", r.Status)
	}
	p, err := s.prescriptions.GetByID(ctx, r.PrescriptionID)
	if err != nil {
		return err
	}
	r.AppointmentID = p.AppointmentID
	return s.reports.Create(ctx, r)
}

func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.reports.GetByID(ctx, id)
}

func (s *Service) ReportByPrescription(ctx context.Context, prescriptionID uuid.UUID) (*Report, error) {
	return s.reports.GetByPrescription(ctx, prescriptionID)
}

func (s *Service) ListReports(ctx context.Context, limit, offset int) ([]*Report, int, error) {
	return s.reports.List(ctx, limit, offset)
}

// UpdateReport edits content and status. A finalized report cannot be
// demoted back to draft.
func (s *Service) UpdateReport(ctx context.Context, id uuid.UUID, content, status string) (*Report, error) {
	r, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) != "" {
		r.Content = content
	}
	if status != "" {
		switch status {
		case ReportDraft, ReportFinal:
		default:
			return nil, fmt.Errorf("invalid report status: %s", status)
		}
		if r.Status == ReportFinal && status == ReportDraft {
			return nil, fmt.Errorf("final report cannot revert to draft")
		}
		r.Status = status
	}
	r.UpdatedAt = s.now()
	if err := s.reports.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) DeleteReport(ctx context.Context, id uuid.UUID) error {
	r, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if r.Status == ReportFinal {
		return fmt.Errorf("final report cannot be deleted")
	}
	return s.reports.Delete(ctx, id)
}
