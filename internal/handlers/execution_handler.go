package handlers

import (
	"errors"
	"net/http"

	"github.com/waynekuvi/appointflow-backend/internal/database/repository"
	"github.com/waynekuvi/appointflow-backend/internal/services"
	"github.com/waynekuvi/appointflow-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ExecutionHandler struct {
	executionService *services.ExecutionService
}

func NewExecutionHandler(db *gorm.DB) *ExecutionHandler {
	executionRepo := repository.NewExecutionRepository(db)

	executionService := services.NewExecutionService(executionRepo)
	return &ExecutionHandler{
		executionService: executionService,
	}
}

// GetExecutions godoc
// @Summary Get organization's executions
// @Description Get campaign executions for the authenticated organization, most recent first
// @Tags executions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/executions [get]
func (h *ExecutionHandler) GetExecutions(c *gin.Context) {
	orgID := c.MustGet("org_id").(string)
	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))

	executions, pagination, err := h.executionService.GetExecutionsByOrg(orgID, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get executions", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"executions": executions,
		"pagination": pagination,
	})
}

// GetExecutionByID godoc
// @Summary Get execution by ID
// @Description Get a specific execution by ID (organization must own it)
// @Tags executions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Execution ID"
// @Success 200 {object} models.ExecutionResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/executions/{id} [get]
func (h *ExecutionHandler) GetExecutionByID(c *gin.Context) {
	orgID := c.MustGet("org_id").(string)
	executionID := c.Param("id")

	execution, err := h.executionService.GetExecutionByID(orgID, executionID)
	if err != nil {
		if errors.Is(err, services.ErrExecutionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Execution not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get execution", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, execution)
}
