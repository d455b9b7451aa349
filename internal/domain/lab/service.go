package lab

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	services PatientServiceRepository
	tests    LabTestRepository
	now      func() time.Time
}

func NewService(services PatientServiceRepository, tests LabTestRepository) *Service {
	return &Service{services: services, tests: tests, now: time.Now}
}

// -- patient services --

func (s *Service) CreatePatientService(ctx context.Context, ps *PatientService) error {
	if ps.AppointmentID == uuid.Nil {
		return fmt.Errorf("appointment_id is required")
	}
	if strings.TrimSpace(ps.ServiceName) == "" {
		return fmt.Errorf("service_name is required")
	}
	if ps.ReportStatus == "" {
		ps.ReportStatus = ReportPending
	}
	if ps.PaymentStatus == "" {
		ps.PaymentStatus = PaymentPending
	}
	return s.services.Create(ctx, ps)
}

func (s *Service) ServicesByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*PatientService, error) {
	return s.services.ListByAppointment(ctx, appointmentID)
}

func (s *Service) ListServices(ctx context.Context, limit, offset int) ([]*PatientService, int, error) {
	return s.services.List(ctx, limit, offset)
}

// MarkSampleCollected flags the service's sample as taken and stamps the
// collection time. Collecting twice is rejected.
func (s *Service) MarkSampleCollected(ctx context.Context, id uuid.UUID) (*PatientService, error) {
	ps, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ps.SampleCollected {
		return nil, fmt.Errorf("sample already collected")
	}
	if err := s.services.SetSampleCollected(ctx, id, s.now()); err != nil {
		return nil, err
	}
	return s.services.GetByID(ctx, id)
}

func (s *Service) SetReportStatus(ctx context.Context, id uuid.UUID, status string) (*PatientService, error) {
	switch status {
	case ReportPending, ReportInProgress, ReportCompleted:
	default:
		return nil, fmt.Errorf("invalid report status: %s", status)
	}
	if err := s.services.SetReportStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.services.GetByID(ctx, id)
}

func (s *Service) SetPaymentStatus(ctx context.Context, id uuid.UUID, status string) (*PatientService, error) {
	switch status {
	case PaymentPending, PaymentPaid:
	default:
		return nil, fmt.Errorf("invalid payment status: %s", status)
	}
	if err := s.services.SetPaymentStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.services.GetByID(ctx, id)
}

// CompleteService closes out a booked service. Every test on the service
// must have a recorded result first.
func (s *Service) CompleteService(ctx context.Context, id uuid.UUID) (*PatientService, error) {
	if _, err := s.services.GetByID(ctx, id); err != nil {
		return nil, err
	}
	pending, err := s.tests.CountByStatus(ctx, id, TestPending)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, fmt.Errorf("%d test(s) still pending results", pending)
	}
	return s.SetReportStatus(ctx, id, ReportCompleted)
}

// -- tests --

func (s *Service) CreateTest(ctx context.Context, t *LabTest) error {
	if t.ServiceRecordID == uuid.Nil {
		return fmt.Errorf("service_record_id is required")
	}
	if strings.TrimSpace(t.TestName) == "" {
		return fmt.Errorf("test_name is required")
	}
	if t.Status == "" {
		t.Status = TestPending
	}
	return s.tests.Create(ctx, t)
}

func (s *Service) PendingTests(ctx context.Context, limit, offset int) ([]*LabTest, int, error) {
	return s.tests.ListByStatus(ctx, TestPending, limit, offset)
}

func (s *Service) CompletedTests(ctx context.Context, limit, offset int) ([]*LabTest, int, error) {
	return s.tests.ListByStatus(ctx, TestCompleted, limit, offset)
}

func (s *Service) TestsByService(ctx context.Context, serviceRecordID uuid.UUID) ([]*LabTest, error) {
	return s.tests.ListByService(ctx, serviceRecordID)
}

// RecordResult stores the first result for a test, marks it completed and
// stamps the conducted time.
func (s *Service) RecordResult(ctx context.Context, id uuid.UUID, value, unit, referenceRange string) (*LabTest, error) {
	if strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("result value is required")
	}
	t, err := s.tests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status == TestCompleted {
		return nil, fmt.Errorf("test already has a result; amend it instead")
	}
	at := s.now()
	t.ResultValue = &value
	if unit != "" {
		t.Unit = &unit
	}
	if referenceRange != "" {
		t.ReferenceRange = &referenceRange
	}
	t.Status = TestCompleted
	t.ConductedAt = &at
	if err := s.tests.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// AmendResult corrects a result that was already recorded. The conducted
// timestamp is left as it was.
func (s *Service) AmendResult(ctx context.Context, id uuid.UUID, value, unit, referenceRange string) (*LabTest, error) {
	if strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("result value is required")
	}
	t, err := s.tests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != TestCompleted {
		return nil, fmt.Errorf("test has no result to amend")
	}
	t.ResultValue = &value
	if unit != "" {
		t.Unit = &unit
	}
	if referenceRange != "" {
		t.ReferenceRange = &referenceRange
	}
	if err := s.tests.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
