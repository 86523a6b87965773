package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/waynekuvi/appointflow-backend/internal/models"

	"gorm.io/gorm"
)

type mockSettingsProvider struct {
	settings map[string]*MessagingSettings
}

func (m *mockSettingsProvider) MessagingSettings(orgID string) (*MessagingSettings, error) {
	settings, ok := m.settings[orgID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return settings, nil
}

type mockAppointmentStore struct {
	appts map[string]*models.Appointment
}

func (m *mockAppointmentStore) GetByID(id string) (*models.Appointment, error) {
	appt, ok := m.appts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return appt, nil
}

// mockRelay records sends and signals each one on a channel so tests can
// wait for the fire-and-forget goroutine
type mockRelay struct {
	mu       sync.Mutex
	urls     []string
	payloads []*DispatchPayload
	sent     chan struct{}
}

func newMockRelay() *mockRelay {
	return &mockRelay{sent: make(chan struct{}, 16)}
}

func (m *mockRelay) Send(ctx context.Context, relayURL string, payload *DispatchPayload) error {
	m.mu.Lock()
	m.urls = append(m.urls, relayURL)
	m.payloads = append(m.payloads, payload)
	m.mu.Unlock()
	m.sent <- struct{}{}
	return nil
}

func (m *mockRelay) waitForSend(t *testing.T) *DispatchPayload {
	t.Helper()
	select {
	case <-m.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relay send")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payloads[len(m.payloads)-1]
}

func (m *mockRelay) sendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads)
}

type dispatchFixture struct {
	settings   *mockSettingsProvider
	campaigns  *mockCampaignStore
	appts      *mockAppointmentStore
	executions *mockExecutionStore
	relay      *mockRelay
	svc        *DispatchService
}

func newDispatchFixture() *dispatchFixture {
	settings := &mockSettingsProvider{settings: map[string]*MessagingSettings{
		"org-1": {Enabled: true, RelayURL: "https://relay.example/hook"},
	}}
	campaigns := &mockCampaignStore{campaigns: []*models.Campaign{
		dispatchableCampaign("c1", "org-1",
			models.CampaignMessage{Sequence: 1, DelayHours: 0, Template: "Hi {{name}}, confirmed for {{date}} at {{time}}."},
			models.CampaignMessage{Sequence: 2, DelayHours: 24, Template: "See you soon {{name}}!"},
		),
	}}
	appts := &mockAppointmentStore{appts: map[string]*models.Appointment{
		"appt-1": {
			ID:             "appt-1",
			OrganizationID: "org-1",
			CustomerName:   "Alice",
			Phone:          "+15551230000",
			ServiceType:    "cleaning",
			StartsAt:       time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC),
			Status:         models.AppointmentStatusBooked,
		},
	}}
	executions := newMockExecutionStore()
	relay := newMockRelay()

	resolver := NewCampaignService(campaigns, newMockCampaignMessageStore())
	svc := NewDispatchService(settings, resolver, campaigns, appts, executions, relay, nil)

	return &dispatchFixture{
		settings:   settings,
		campaigns:  campaigns,
		appts:      appts,
		executions: executions,
		relay:      relay,
		svc:        svc,
	}
}

func TestTriggerCampaignHappyPath(t *testing.T) {
	f := newDispatchFixture()

	err := f.svc.TriggerCampaign(models.CampaignKindReminder, models.TriggerAppointmentBooked, "appt-1", "org-1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.executions.execs) != 1 {
		t.Fatalf("expected 1 execution, got %d", len(f.executions.execs))
	}
	var exec *models.Execution
	for _, e := range f.executions.execs {
		exec = e
	}
	if exec.Status != models.ExecutionStatusPending {
		t.Errorf("status = %s, want PENDING", exec.Status)
	}
	if exec.TotalMessages != 2 {
		t.Errorf("total_messages = %d, want 2", exec.TotalMessages)
	}
	if exec.PhoneNumber != "+15551230000" {
		t.Errorf("phone_number = %s", exec.PhoneNumber)
	}
	if exec.TriggerID != "appt-1" {
		t.Errorf("trigger_id = %s", exec.TriggerID)
	}

	payload := f.relay.waitForSend(t)
	if payload.ExecutionID != exec.ID {
		t.Errorf("payload executionId = %s, want %s", payload.ExecutionID, exec.ID)
	}
	if payload.CampaignID != "c1" {
		t.Errorf("payload campaignId = %s", payload.CampaignID)
	}
	if payload.Variables["name"] != "Alice" {
		t.Errorf("payload variables.name = %q", payload.Variables["name"])
	}
	if len(payload.Messages) != 2 {
		t.Fatalf("payload messages = %d, want 2", len(payload.Messages))
	}
	// First step is rendered, later steps stay templated for the relay
	if payload.Messages[0].Message != "Hi Alice, confirmed for January 10, 2024 at 2:00 PM." {
		t.Errorf("messages[0] = %q", payload.Messages[0].Message)
	}
	if payload.Messages[1].Message != "See you soon {{name}}!" {
		t.Errorf("messages[1] = %q", payload.Messages[1].Message)
	}
}

func TestTriggerCampaignDelayShiftsNextSendAt(t *testing.T) {
	f := newDispatchFixture()
	before := time.Now().UTC()

	err := f.svc.TriggerCampaign(models.CampaignKindReminder, models.TriggerAppointmentBooked, "appt-1", "org-1", 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.relay.waitForSend(t)

	for _, exec := range f.executions.execs {
		earliest := before.Add(24 * time.Hour)
		latest := time.Now().UTC().Add(24 * time.Hour)
		if exec.NextSendAt.Before(earliest.Add(-time.Second)) || exec.NextSendAt.After(latest.Add(time.Second)) {
			t.Errorf("next_send_at = %v, want ~24h out", exec.NextSendAt)
		}
	}
}

func TestTriggerCampaignNoOpConditions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *dispatchFixture)
		appt  string
		org   string
	}{
		{
			"messaging disabled",
			func(f *dispatchFixture) { f.settings.settings["org-1"].Enabled = false },
			"appt-1", "org-1",
		},
		{
			"no relay url",
			func(f *dispatchFixture) { f.settings.settings["org-1"].RelayURL = "" },
			"appt-1", "org-1",
		},
		{
			"organization has no settings row",
			func(f *dispatchFixture) {},
			"appt-1", "org-unknown",
		},
		{
			"no matching campaign",
			func(f *dispatchFixture) { f.campaigns.campaigns = nil },
			"appt-1", "org-1",
		},
		{
			"campaign has no messages",
			func(f *dispatchFixture) { f.campaigns.campaigns[0].Messages = nil },
			"appt-1", "org-1",
		},
		{
			"appointment missing",
			func(f *dispatchFixture) {},
			"appt-unknown", "org-1",
		},
		{
			"appointment belongs to another org",
			func(f *dispatchFixture) { f.appts.appts["appt-1"].OrganizationID = "org-2" },
			"appt-1", "org-1",
		},
		{
			"appointment has no phone",
			func(f *dispatchFixture) { f.appts.appts["appt-1"].Phone = "" },
			"appt-1", "org-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDispatchFixture()
			tt.setup(f)

			err := f.svc.TriggerCampaign(models.CampaignKindReminder, models.TriggerAppointmentBooked, tt.appt, tt.org, 0)
			if err != nil {
				t.Fatalf("expected silent no-op, got error: %v", err)
			}
			if len(f.executions.execs) != 0 {
				t.Errorf("expected no executions, got %d", len(f.executions.execs))
			}
			if f.relay.sendCount() != 0 {
				t.Errorf("expected no relay sends, got %d", f.relay.sendCount())
			}
		})
	}
}

func TestExecutionSnapshotSurvivesCampaignEdits(t *testing.T) {
	f := newDispatchFixture()

	err := f.svc.TriggerCampaign(models.CampaignKindReminder, models.TriggerAppointmentBooked, "appt-1", "org-1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.relay.waitForSend(t)

	// Growing the campaign afterwards must not touch existing executions
	f.campaigns.campaigns[0].Messages = append(f.campaigns.campaigns[0].Messages,
		models.CampaignMessage{Sequence: 3, Template: "one more thing"})

	for _, exec := range f.executions.execs {
		if exec.TotalMessages != 2 {
			t.Errorf("total_messages = %d, want snapshot of 2", exec.TotalMessages)
		}
	}
}

func TestDispatchMarksExecutionDispatched(t *testing.T) {
	f := newDispatchFixture()
	seedExecution(f.executions, "exec-1", models.ExecutionStatusPending)

	f.svc.Dispatch(&DispatchJob{
		ExecutionID: "exec-1",
		RelayURL:    "https://relay.example/hook",
		Payload:     &DispatchPayload{ExecutionID: "exec-1"},
	})

	exec, _ := f.executions.GetByID("exec-1")
	if exec.DispatchedAt == nil {
		t.Error("expected dispatched_at to be set")
	}
	if f.relay.sendCount() != 1 {
		t.Errorf("relay sends = %d, want 1", f.relay.sendCount())
	}
}

func TestRedispatchExecutionAbandonsWhenCampaignGone(t *testing.T) {
	f := newDispatchFixture()
	seedExecution(f.executions, "exec-1", models.ExecutionStatusPending)
	f.campaigns.campaigns = nil

	exec, _ := f.executions.GetByID("exec-1")
	if err := f.svc.RedispatchExecution(exec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stamped, _ := f.executions.GetByID("exec-1")
	if stamped.DispatchedAt == nil {
		t.Error("expected abandoned execution to be stamped")
	}
	if f.relay.sendCount() != 0 {
		t.Errorf("expected no relay sends, got %d", f.relay.sendCount())
	}
}

func TestRedispatchExecutionReenqueues(t *testing.T) {
	f := newDispatchFixture()
	seedExecution(f.executions, "exec-1", models.ExecutionStatusPending)
	f.executions.execs["exec-1"].CampaignID = "c1"

	exec, _ := f.executions.GetByID("exec-1")
	if err := f.svc.RedispatchExecution(exec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload := f.relay.waitForSend(t)
	if payload.ExecutionID != "exec-1" {
		t.Errorf("payload executionId = %s", payload.ExecutionID)
	}
}

func TestRunTestCampaign(t *testing.T) {
	f := newDispatchFixture()

	exec, err := f.svc.RunTestCampaign("org-1", "c1", &models.TestCampaignRequest{
		PhoneNumber: "+15559990000",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec.Status != models.ExecutionStatusPending {
		t.Errorf("status = %s, want PENDING", exec.Status)
	}
	if exec.PhoneNumber != "+15559990000" {
		t.Errorf("phone_number = %s", exec.PhoneNumber)
	}
	if exec.CustomerName != "Test Customer" {
		t.Errorf("customer_name = %s, want default", exec.CustomerName)
	}

	payload := f.relay.waitForSend(t)
	if payload.PhoneNumber != "+15559990000" {
		t.Errorf("payload phoneNumber = %s", payload.PhoneNumber)
	}
}

func TestRunTestCampaignRejectsEmptyCampaign(t *testing.T) {
	f := newDispatchFixture()
	f.campaigns.campaigns[0].Messages = nil

	_, err := f.svc.RunTestCampaign("org-1", "c1", &models.TestCampaignRequest{PhoneNumber: "+15559990000"})
	if err == nil {
		t.Fatal("expected error for campaign with no messages")
	}
}

func TestRunTestCampaignWithoutRelayStaysLocal(t *testing.T) {
	f := newDispatchFixture()
	f.settings.settings["org-1"].Enabled = false

	exec, err := f.svc.RunTestCampaign("org-1", "c1", &models.TestCampaignRequest{PhoneNumber: "+15559990000"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stamped, _ := f.executions.GetByID(exec.ID)
	if stamped.DispatchedAt == nil {
		t.Error("expected simulated run to be stamped dispatched")
	}
	if f.relay.sendCount() != 0 {
		t.Errorf("expected no relay sends, got %d", f.relay.sendCount())
	}
}
