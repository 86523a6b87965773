package handlers

import (
	"net/http"

	"github.com/waynekuvi/appointflow-backend/internal/models"
	"github.com/waynekuvi/appointflow-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// MessagingHandler exposes the trigger entry point directly, for internal
// callers that fire campaigns outside the appointment lifecycle.
type MessagingHandler struct {
	dispatchService *services.DispatchService
}

func NewMessagingHandler(dispatchService *services.DispatchService) *MessagingHandler {
	return &MessagingHandler{
		dispatchService: dispatchService,
	}
}

// TriggerCampaign godoc
// @Summary Fire a campaign trigger
// @Description Fire the campaign configured for a (kind, trigger) pair against an appointment. Missing configuration is a silent no-op.
// @Tags messaging
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.TriggerCampaignRequest true "Trigger campaign request"
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/messaging/triggers [post]
func (h *MessagingHandler) TriggerCampaign(c *gin.Context) {
	orgID := c.MustGet("org_id").(string)

	var req models.TriggerCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	if err := h.dispatchService.TriggerCampaign(req.Kind, req.Trigger, req.AppointmentID, orgID, req.DelayHours); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trigger campaign", "details": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Trigger accepted"})
}
