package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/waynekuvi/appointflow-backend/internal/models"
	"github.com/waynekuvi/appointflow-backend/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrExecutionNotFound is returned when a delivery acknowledgement references
// an execution id that does not exist. It is the only error the
// reconciliation path propagates to callers.
var ErrExecutionNotFound = errors.New("execution not found")

// ExecutionStore is the persistence surface the execution service needs
type ExecutionStore interface {
	Create(exec *models.Execution) error
	GetByID(id string) (*models.Execution, error)
	GetByOrgID(orgID string, limit, offset int) ([]*models.Execution, error)
	CountByOrgID(orgID string) (int64, error)
	ApplyStatusUpdate(id string, apply func(*models.Execution) error) (*models.Execution, error)
	MarkDispatched(id string, at time.Time) error
	FindUndispatched(olderThan time.Time, limit int) ([]*models.Execution, error)
}

type ExecutionService struct {
	executionRepo ExecutionStore
}

func NewExecutionService(executionRepo ExecutionStore) *ExecutionService {
	return &ExecutionService{executionRepo: executionRepo}
}

// Reconcile applies an inbound delivery acknowledgement to an execution.
//
// Status transitions: "sent" moves PENDING to SENT; "delivered", "failed"
// and "cancelled" move to their terminal status regardless of current state
// (the most recent terminal-ish signal wins); anything unrecognized counts
// as still in flight and degrades to SENT. DeliveryStatus is overwritten
// with the latest payload on every accepted acknowledgement, even when the
// status transition is a no-op, so replays and out-of-order callbacks leave
// the same final state.
func (s *ExecutionService) Reconcile(executionID, messageID, externalStatus, timestamp string) (*models.ExecutionResponse, error) {
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	exec, err := s.executionRepo.ApplyStatusUpdate(executionID, func(exec *models.Execution) error {
		applyDeliveryStatus(exec, messageID, externalStatus, timestamp)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExecutionNotFound
		}
		return nil, fmt.Errorf("failed to update execution status: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"execution_id":    executionID,
		"external_status": externalStatus,
		"status":          exec.Status,
	}).Debug("Delivery status reconciled")

	return s.toResponse(exec), nil
}

// applyDeliveryStatus mutates the execution per the state machine rules
func applyDeliveryStatus(exec *models.Execution, messageID, externalStatus, timestamp string) {
	next := statusFromExternal(externalStatus)

	switch next {
	case models.ExecutionStatusDelivered, models.ExecutionStatusFailed, models.ExecutionStatusCancelled:
		exec.Status = next
	default:
		// SENT only advances a pending execution; it never claws back a
		// terminal status
		if exec.Status == models.ExecutionStatusPending {
			exec.Status = models.ExecutionStatusSent
		}
	}

	exec.DeliveryStatus = models.JSON{
		"message_id": messageID,
		"status":     externalStatus,
		"timestamp":  timestamp,
	}
}

// statusFromExternal maps the relay's status string onto an execution
// status. Unrecognized strings mean "in flight, not yet resolved".
func statusFromExternal(externalStatus string) string {
	switch externalStatus {
	case "sent":
		return models.ExecutionStatusSent
	case "delivered":
		return models.ExecutionStatusDelivered
	case "failed":
		return models.ExecutionStatusFailed
	case "cancelled":
		return models.ExecutionStatusCancelled
	default:
		return models.ExecutionStatusSent
	}
}

// GetExecutionByID retrieves an execution scoped to an organization
func (s *ExecutionService) GetExecutionByID(orgID, executionID string) (*models.ExecutionResponse, error) {
	exec, err := s.executionRepo.GetByID(executionID)
	if err != nil || exec.OrganizationID != orgID {
		return nil, ErrExecutionNotFound
	}
	return s.toResponse(exec), nil
}

// GetExecutionsByOrg retrieves executions for an organization with pagination
func (s *ExecutionService) GetExecutionsByOrg(orgID string, page, pageSize int) ([]*models.ExecutionResponse, *utils.PaginationResponse, error) {
	page, pageSize = utils.ValidateAndNormalizePagination(page, pageSize)
	offset := utils.CalculateOffset(page, pageSize)

	execs, err := s.executionRepo.GetByOrgID(orgID, pageSize, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get executions: %w", err)
	}
	total, err := s.executionRepo.CountByOrgID(orgID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count executions: %w", err)
	}

	responses := make([]*models.ExecutionResponse, len(execs))
	for i, exec := range execs {
		responses[i] = s.toResponse(exec)
	}

	pagination := utils.CalculatePaginationInfo(int(total), page, pageSize)
	return responses, &pagination, nil
}

func (s *ExecutionService) toResponse(exec *models.Execution) *models.ExecutionResponse {
	return &models.ExecutionResponse{
		ID:             exec.ID,
		CampaignID:     exec.CampaignID,
		OrganizationID: exec.OrganizationID,
		TriggerType:    exec.TriggerType,
		TriggerID:      exec.TriggerID,
		PhoneNumber:    exec.PhoneNumber,
		CustomerName:   exec.CustomerName,
		Status:         exec.Status,
		TotalMessages:  exec.TotalMessages,
		NextSendAt:     exec.NextSendAt,
		DispatchedAt:   exec.DispatchedAt,
		DeliveryStatus: exec.DeliveryStatus,
		CreatedAt:      exec.CreatedAt,
		UpdatedAt:      exec.UpdatedAt,
	}
}
