package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/waynekuvi/appointflow-backend/internal/models"
	"github.com/waynekuvi/appointflow-backend/internal/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// in-memory stores backing the webhook handler under test

type webhookExecutionStore struct {
	execs map[string]*models.Execution
}

func (s *webhookExecutionStore) Create(exec *models.Execution) error {
	s.execs[exec.ID] = exec
	return nil
}

func (s *webhookExecutionStore) GetByID(id string) (*models.Execution, error) {
	exec, ok := s.execs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *exec
	return &copy, nil
}

func (s *webhookExecutionStore) GetByOrgID(orgID string, limit, offset int) ([]*models.Execution, error) {
	return nil, nil
}

func (s *webhookExecutionStore) CountByOrgID(orgID string) (int64, error) {
	return 0, nil
}

func (s *webhookExecutionStore) ApplyStatusUpdate(id string, apply func(*models.Execution) error) (*models.Execution, error) {
	exec, ok := s.execs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if err := apply(exec); err != nil {
		return nil, err
	}
	copy := *exec
	return &copy, nil
}

func (s *webhookExecutionStore) MarkDispatched(id string, at time.Time) error {
	return nil
}

func (s *webhookExecutionStore) FindUndispatched(olderThan time.Time, limit int) ([]*models.Execution, error) {
	return nil, nil
}

type webhookOrgStore struct {
	orgs map[string]*models.Organization
}

func (s *webhookOrgStore) GetByID(id string) (*models.Organization, error) {
	org, ok := s.orgs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return org, nil
}

func (s *webhookOrgStore) Update(org *models.Organization) error {
	s.orgs[org.ID] = org
	return nil
}

func setupWebhookRouter(execs *webhookExecutionStore, orgs *webhookOrgStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := &WebhookHandler{
		executions:          execs,
		executionService:    services.NewExecutionService(execs),
		organizationService: services.NewOrganizationService(orgs),
	}

	r := gin.New()
	r.PATCH("/api/v1/webhooks/executions/:id/delivery-status", h.UpdateDeliveryStatus)
	return r
}

func webhookFixtures(relaySecretHash string) (*webhookExecutionStore, *webhookOrgStore) {
	execs := &webhookExecutionStore{execs: map[string]*models.Execution{
		"exec-1": {
			ID:             "exec-1",
			CampaignID:     "c1",
			OrganizationID: "org-1",
			TriggerType:    models.TriggerTypeAppointment,
			TriggerID:      "appt-1",
			PhoneNumber:    "+15551230000",
			Status:         models.ExecutionStatusSent,
			TotalMessages:  1,
			NextSendAt:     time.Now(),
		},
	}}
	orgs := &webhookOrgStore{orgs: map[string]*models.Organization{
		"org-1": {ID: "org-1", Name: "Acme Plumbing", RelaySecretHash: relaySecretHash},
	}}
	return execs, orgs
}

func TestUpdateDeliveryStatusUnknownExecution(t *testing.T) {
	r := setupWebhookRouter(webhookFixtures(""))

	req := httptest.NewRequest(http.MethodPatch,
		"/api/v1/webhooks/executions/missing/delivery-status",
		strings.NewReader(`{"message_id":"msg-1","status":"delivered"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404: %s", w.Code, w.Body.String())
	}
}

func TestUpdateDeliveryStatusReconciles(t *testing.T) {
	execs, orgs := webhookFixtures("")
	r := setupWebhookRouter(execs, orgs)

	req := httptest.NewRequest(http.MethodPatch,
		"/api/v1/webhooks/executions/exec-1/delivery-status",
		strings.NewReader(`{"message_id":"msg-1","status":"delivered","timestamp":"2024-01-10T14:05:00Z"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	stored := execs.execs["exec-1"]
	if stored.Status != models.ExecutionStatusDelivered {
		t.Errorf("stored status = %s, want DELIVERED", stored.Status)
	}
	if stored.DeliveryStatus["message_id"] != "msg-1" {
		t.Errorf("delivery_status.message_id = %v", stored.DeliveryStatus["message_id"])
	}
}

func TestUpdateDeliveryStatusRelaySecret(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash secret: %v", err)
	}

	tests := []struct {
		name     string
		secret   string
		wantCode int
	}{
		{"valid secret accepted", "hunter2", http.StatusOK},
		{"invalid secret rejected", "wrong", http.StatusUnauthorized},
		{"missing secret rejected", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			execs, orgs := webhookFixtures(string(hash))
			r := setupWebhookRouter(execs, orgs)

			req := httptest.NewRequest(http.MethodPatch,
				"/api/v1/webhooks/executions/exec-1/delivery-status",
				strings.NewReader(`{"message_id":"msg-1","status":"delivered"}`))
			req.Header.Set("Content-Type", "application/json")
			if tt.secret != "" {
				req.Header.Set("X-Relay-Secret", tt.secret)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantCode, w.Body.String())
			}

			stored := execs.execs["exec-1"]
			if tt.wantCode == http.StatusUnauthorized && stored.Status != models.ExecutionStatusSent {
				t.Errorf("rejected callback mutated execution: status = %s", stored.Status)
			}
		})
	}
}

func TestUpdateDeliveryStatusRejectsMissingStatus(t *testing.T) {
	r := setupWebhookRouter(webhookFixtures(""))

	req := httptest.NewRequest(http.MethodPatch,
		"/api/v1/webhooks/executions/exec-1/delivery-status",
		strings.NewReader(`{"message_id":"msg-1"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}
