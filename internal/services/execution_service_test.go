package services

import (
	"errors"
	"testing"
	"time"

	"github.com/waynekuvi/appointflow-backend/internal/models"

	"gorm.io/gorm"
)

// mockExecutionStore keeps executions in memory
type mockExecutionStore struct {
	execs map[string]*models.Execution

	markDispatchedCalls []string
}

func newMockExecutionStore() *mockExecutionStore {
	return &mockExecutionStore{execs: make(map[string]*models.Execution)}
}

func (m *mockExecutionStore) Create(exec *models.Execution) error {
	if exec.ID == "" {
		exec.ID = "exec-" + time.Now().Format("150405.000000000")
	}
	copy := *exec
	m.execs[exec.ID] = &copy
	return nil
}

func (m *mockExecutionStore) GetByID(id string) (*models.Execution, error) {
	exec, ok := m.execs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *exec
	return &copy, nil
}

func (m *mockExecutionStore) GetByOrgID(orgID string, limit, offset int) ([]*models.Execution, error) {
	var out []*models.Execution
	for _, exec := range m.execs {
		if exec.OrganizationID == orgID {
			copy := *exec
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (m *mockExecutionStore) CountByOrgID(orgID string) (int64, error) {
	execs, _ := m.GetByOrgID(orgID, 0, 0)
	return int64(len(execs)), nil
}

func (m *mockExecutionStore) ApplyStatusUpdate(id string, apply func(*models.Execution) error) (*models.Execution, error) {
	exec, ok := m.execs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if err := apply(exec); err != nil {
		return nil, err
	}
	copy := *exec
	return &copy, nil
}

func (m *mockExecutionStore) MarkDispatched(id string, at time.Time) error {
	m.markDispatchedCalls = append(m.markDispatchedCalls, id)
	if exec, ok := m.execs[id]; ok && exec.DispatchedAt == nil {
		exec.DispatchedAt = &at
	}
	return nil
}

func (m *mockExecutionStore) FindUndispatched(olderThan time.Time, limit int) ([]*models.Execution, error) {
	var out []*models.Execution
	for _, exec := range m.execs {
		if exec.Status == models.ExecutionStatusPending && exec.DispatchedAt == nil && exec.CreatedAt.Before(olderThan) {
			copy := *exec
			out = append(out, &copy)
		}
	}
	return out, nil
}

func seedExecution(store *mockExecutionStore, id, status string) {
	store.execs[id] = &models.Execution{
		ID:             id,
		CampaignID:     "campaign-1",
		OrganizationID: "org-1",
		TriggerType:    models.TriggerTypeAppointment,
		TriggerID:      "appt-1",
		PhoneNumber:    "+15551230000",
		Status:         status,
		TotalMessages:  2,
		NextSendAt:     time.Now(),
	}
}

func TestReconcileStatusTransitions(t *testing.T) {
	tests := []struct {
		name           string
		currentStatus  string
		externalStatus string
		wantStatus     string
	}{
		{"sent advances pending", models.ExecutionStatusPending, "sent", models.ExecutionStatusSent},
		{"delivered from sent", models.ExecutionStatusSent, "delivered", models.ExecutionStatusDelivered},
		{"delivered from pending", models.ExecutionStatusPending, "delivered", models.ExecutionStatusDelivered},
		{"failed from pending", models.ExecutionStatusPending, "failed", models.ExecutionStatusFailed},
		{"cancelled from sent", models.ExecutionStatusSent, "cancelled", models.ExecutionStatusCancelled},
		{"latest terminal signal wins", models.ExecutionStatusFailed, "delivered", models.ExecutionStatusDelivered},
		{"sent never claws back delivered", models.ExecutionStatusDelivered, "sent", models.ExecutionStatusDelivered},
		{"sent never claws back failed", models.ExecutionStatusFailed, "sent", models.ExecutionStatusFailed},
		{"unknown status advances pending to sent", models.ExecutionStatusPending, "queued", models.ExecutionStatusSent},
		{"unknown status leaves terminal alone", models.ExecutionStatusCancelled, "queued", models.ExecutionStatusCancelled},
		{"sent replay is a no-op transition", models.ExecutionStatusSent, "sent", models.ExecutionStatusSent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockExecutionStore()
			seedExecution(store, "exec-1", tt.currentStatus)
			svc := NewExecutionService(store)

			resp, err := svc.Reconcile("exec-1", "msg-1", tt.externalStatus, "2024-01-10T14:05:00Z")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", resp.Status, tt.wantStatus)
			}
		})
	}
}

func TestReconcileOverwritesDeliveryStatus(t *testing.T) {
	store := newMockExecutionStore()
	seedExecution(store, "exec-1", models.ExecutionStatusDelivered)
	svc := NewExecutionService(store)

	// Even when the transition is a no-op the payload is recorded
	resp, err := svc.Reconcile("exec-1", "msg-2", "sent", "2024-01-10T14:05:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != models.ExecutionStatusDelivered {
		t.Errorf("status = %s, want DELIVERED", resp.Status)
	}
	if resp.DeliveryStatus["message_id"] != "msg-2" {
		t.Errorf("delivery_status.message_id = %v, want msg-2", resp.DeliveryStatus["message_id"])
	}
	if resp.DeliveryStatus["status"] != "sent" {
		t.Errorf("delivery_status.status = %v, want sent", resp.DeliveryStatus["status"])
	}
}

func TestReconcileDefaultsTimestamp(t *testing.T) {
	store := newMockExecutionStore()
	seedExecution(store, "exec-1", models.ExecutionStatusPending)
	svc := NewExecutionService(store)

	resp, err := svc.Reconcile("exec-1", "msg-1", "sent", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ts, _ := resp.DeliveryStatus["timestamp"].(string)
	if ts == "" {
		t.Error("expected timestamp to be filled in")
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", ts, err)
	}
}

func TestReconcileIdempotentReplay(t *testing.T) {
	store := newMockExecutionStore()
	seedExecution(store, "exec-1", models.ExecutionStatusSent)
	svc := NewExecutionService(store)

	first, err := svc.Reconcile("exec-1", "msg-1", "delivered", "2024-01-10T14:05:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Reconcile("exec-1", "msg-1", "delivered", "2024-01-10T14:05:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Status != second.Status {
		t.Errorf("replay changed status: %s vs %s", first.Status, second.Status)
	}
	if second.DeliveryStatus["status"] != "delivered" {
		t.Errorf("delivery_status.status = %v", second.DeliveryStatus["status"])
	}
}

func TestReconcileUnknownExecution(t *testing.T) {
	store := newMockExecutionStore()
	svc := NewExecutionService(store)

	_, err := svc.Reconcile("missing", "msg-1", "delivered", "")
	if !errors.Is(err, ErrExecutionNotFound) {
		t.Errorf("err = %v, want ErrExecutionNotFound", err)
	}
}

func TestGetExecutionByIDScopedToOrg(t *testing.T) {
	store := newMockExecutionStore()
	seedExecution(store, "exec-1", models.ExecutionStatusPending)
	svc := NewExecutionService(store)

	if _, err := svc.GetExecutionByID("org-1", "exec-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetExecutionByID("other-org", "exec-1"); !errors.Is(err, ErrExecutionNotFound) {
		t.Errorf("err = %v, want ErrExecutionNotFound for foreign org", err)
	}
}
