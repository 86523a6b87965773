package handlers

import (
	"net/http"
	"strings"

	"github.com/waynekuvi/appointflow-backend/internal/database/repository"
	"github.com/waynekuvi/appointflow-backend/internal/models"
	"github.com/waynekuvi/appointflow-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type OrganizationHandler struct {
	organizationService *services.OrganizationService
}

func NewOrganizationHandler(db *gorm.DB) *OrganizationHandler {
	orgRepo := repository.NewOrganizationRepository(db)

	organizationService := services.NewOrganizationService(orgRepo)
	return &OrganizationHandler{
		organizationService: organizationService,
	}
}

// GetMessagingSettings godoc
// @Summary Get messaging settings
// @Description Get the authenticated organization's messaging settings
// @Tags organizations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.MessagingSettingsResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/organization/messaging-settings [get]
func (h *OrganizationHandler) GetMessagingSettings(c *gin.Context) {
	orgID := c.MustGet("org_id").(string)

	settings, err := h.organizationService.GetMessagingSettings(orgID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get messaging settings", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// UpdateMessagingSettings godoc
// @Summary Update messaging settings
// @Description Update the authenticated organization's messaging settings
// @Tags organizations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UpdateMessagingSettingsRequest true "Update messaging settings request"
// @Success 200 {object} models.MessagingSettingsResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/organization/messaging-settings [put]
func (h *OrganizationHandler) UpdateMessagingSettings(c *gin.Context) {
	orgID := c.MustGet("org_id").(string)

	var req models.UpdateMessagingSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	settings, err := h.organizationService.UpdateMessagingSettings(orgID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update messaging settings", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, settings)
}
