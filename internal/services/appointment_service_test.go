package services

import (
	"strings"
	"testing"
	"time"

	"github.com/waynekuvi/appointflow-backend/internal/models"

	"gorm.io/gorm"
)

type mockAppointmentWriter struct {
	appts map[string]*models.Appointment
}

func newMockAppointmentWriter() *mockAppointmentWriter {
	return &mockAppointmentWriter{appts: make(map[string]*models.Appointment)}
}

func (m *mockAppointmentWriter) Create(appt *models.Appointment) error {
	if appt.ID == "" {
		appt.ID = "appt-1"
	}
	m.appts[appt.ID] = appt
	return nil
}

func (m *mockAppointmentWriter) GetByID(id string) (*models.Appointment, error) {
	appt, ok := m.appts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return appt, nil
}

func (m *mockAppointmentWriter) GetByOrgIDAndID(orgID, id string) (*models.Appointment, error) {
	appt, ok := m.appts[id]
	if !ok || appt.OrganizationID != orgID {
		return nil, gorm.ErrRecordNotFound
	}
	return appt, nil
}

func (m *mockAppointmentWriter) GetByOrgID(orgID string) ([]*models.Appointment, error) {
	var out []*models.Appointment
	for _, appt := range m.appts {
		if appt.OrganizationID == orgID {
			out = append(out, appt)
		}
	}
	return out, nil
}

func (m *mockAppointmentWriter) Update(appt *models.Appointment) error {
	m.appts[appt.ID] = appt
	return nil
}

type triggerCall struct {
	kind, trigger, appointmentID, orgID string
	delayHours                          float64
}

type mockTrigger struct {
	calls chan triggerCall
}

func newMockTrigger() *mockTrigger {
	return &mockTrigger{calls: make(chan triggerCall, 4)}
}

func (m *mockTrigger) TriggerCampaign(kind, trigger, appointmentID, orgID string, delayHours float64) error {
	m.calls <- triggerCall{kind, trigger, appointmentID, orgID, delayHours}
	return nil
}

func (m *mockTrigger) waitForCall(t *testing.T) triggerCall {
	t.Helper()
	select {
	case call := <-m.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for trigger")
		return triggerCall{}
	}
}

func TestBookAppointmentFiresBookingTrigger(t *testing.T) {
	repo := newMockAppointmentWriter()
	trigger := newMockTrigger()
	svc := NewAppointmentService(repo, trigger, 24)

	resp, err := svc.BookAppointment("org-1", &models.CreateAppointmentRequest{
		CustomerName: "Alice",
		Phone:        "+15551230000",
		StartsAt:     time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != models.AppointmentStatusBooked {
		t.Errorf("status = %s, want BOOKED", resp.Status)
	}

	call := trigger.waitForCall(t)
	if call.kind != models.CampaignKindReminder {
		t.Errorf("kind = %s, want REMINDER", call.kind)
	}
	if call.trigger != models.TriggerAppointmentBooked {
		t.Errorf("trigger = %s, want APPOINTMENT_BOOKED", call.trigger)
	}
	if call.appointmentID != resp.ID {
		t.Errorf("appointment id = %s, want %s", call.appointmentID, resp.ID)
	}
	if call.delayHours != 0 {
		t.Errorf("delay = %v, want 0", call.delayHours)
	}
}

func TestCompleteAppointmentFiresFollowUpTrigger(t *testing.T) {
	repo := newMockAppointmentWriter()
	repo.appts["appt-1"] = &models.Appointment{
		ID:             "appt-1",
		OrganizationID: "org-1",
		CustomerName:   "Alice",
		Status:         models.AppointmentStatusBooked,
	}
	trigger := newMockTrigger()
	svc := NewAppointmentService(repo, trigger, 24)

	resp, err := svc.CompleteAppointment("org-1", "appt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != models.AppointmentStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", resp.Status)
	}

	call := trigger.waitForCall(t)
	if call.kind != models.CampaignKindFollowUp {
		t.Errorf("kind = %s, want FOLLOW_UP", call.kind)
	}
	if call.trigger != models.TriggerAppointmentCompleted {
		t.Errorf("trigger = %s, want APPOINTMENT_COMPLETED", call.trigger)
	}
	if call.delayHours != 24 {
		t.Errorf("delay = %v, want 24", call.delayHours)
	}
}

func TestCompleteAppointmentRejectsDoubleComplete(t *testing.T) {
	repo := newMockAppointmentWriter()
	repo.appts["appt-1"] = &models.Appointment{
		ID:             "appt-1",
		OrganizationID: "org-1",
		Status:         models.AppointmentStatusCompleted,
	}
	trigger := newMockTrigger()
	svc := NewAppointmentService(repo, trigger, 24)

	_, err := svc.CompleteAppointment("org-1", "appt-1")
	if err == nil || !strings.Contains(err.Error(), "already completed") {
		t.Errorf("err = %v, want already completed", err)
	}
	select {
	case call := <-trigger.calls:
		t.Errorf("unexpected trigger fired: %+v", call)
	default:
	}
}

func TestCompleteAppointmentScopedToOrg(t *testing.T) {
	repo := newMockAppointmentWriter()
	repo.appts["appt-1"] = &models.Appointment{
		ID:             "appt-1",
		OrganizationID: "org-1",
		Status:         models.AppointmentStatusBooked,
	}
	svc := NewAppointmentService(repo, newMockTrigger(), 24)

	_, err := svc.CompleteAppointment("other-org", "appt-1")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v, want not found", err)
	}
}
