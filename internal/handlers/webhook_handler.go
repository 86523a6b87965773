package handlers

import (
	"errors"
	"net/http"

	"github.com/waynekuvi/appointflow-backend/internal/database/repository"
	"github.com/waynekuvi/appointflow-backend/internal/models"
	"github.com/waynekuvi/appointflow-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// WebhookHandler receives asynchronous callbacks from the relay service.
// These routes are outside the organization auth middleware; callers are
// authenticated by the per-organization relay secret instead.
type WebhookHandler struct {
	executions          services.ExecutionStore
	executionService    *services.ExecutionService
	organizationService *services.OrganizationService
}

func NewWebhookHandler(db *gorm.DB) *WebhookHandler {
	orgRepo := repository.NewOrganizationRepository(db)
	executionRepo := repository.NewExecutionRepository(db)

	executionService := services.NewExecutionService(executionRepo)
	organizationService := services.NewOrganizationService(orgRepo)
	return &WebhookHandler{
		executions:          executionRepo,
		executionService:    executionService,
		organizationService: organizationService,
	}
}

// UpdateDeliveryStatus godoc
// @Summary Receive a delivery status callback
// @Description Reconcile a relay delivery acknowledgement into the execution's status
// @Tags webhooks
// @Accept json
// @Produce json
// @Param id path string true "Execution ID"
// @Param X-Relay-Secret header string false "Relay shared secret"
// @Param request body models.DeliveryStatusUpdateRequest true "Delivery status update"
// @Success 200 {object} models.ExecutionResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/webhooks/executions/{id}/delivery-status [patch]
func (h *WebhookHandler) UpdateDeliveryStatus(c *gin.Context) {
	executionID := c.Param("id")

	var req models.DeliveryStatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	exec, err := h.executions.GetByID(executionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Execution not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load execution", "details": err.Error()})
		return
	}

	ok, err := h.organizationService.VerifyRelaySecret(exec.OrganizationID, c.GetHeader("X-Relay-Secret"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify relay secret", "details": err.Error()})
		return
	}
	if !ok {
		logrus.WithField("execution_id", executionID).Warn("Delivery status callback with invalid relay secret")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid relay secret"})
		return
	}

	response, err := h.executionService.Reconcile(executionID, req.MessageID, req.Status, req.Timestamp)
	if err != nil {
		if errors.Is(err, services.ErrExecutionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Execution not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update delivery status", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}
