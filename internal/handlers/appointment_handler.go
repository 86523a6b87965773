package handlers

import (
	"net/http"
	"strings"

	"github.com/waynekuvi/appointflow-backend/internal/config"
	"github.com/waynekuvi/appointflow-backend/internal/database/repository"
	"github.com/waynekuvi/appointflow-backend/internal/models"
	"github.com/waynekuvi/appointflow-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AppointmentHandler struct {
	appointmentService *services.AppointmentService
}

func NewAppointmentHandler(db *gorm.DB, cfg *config.Config, dispatchService *services.DispatchService) *AppointmentHandler {
	apptRepo := repository.NewAppointmentRepository(db)

	appointmentService := services.NewAppointmentService(apptRepo, dispatchService, cfg.FollowUpDelayHours)
	return &AppointmentHandler{
		appointmentService: appointmentService,
	}
}

// BookAppointment godoc
// @Summary Book an appointment
// @Description Book a new appointment, firing the booking campaign trigger in the background
// @Tags appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateAppointmentRequest true "Book appointment request"
// @Success 201 {object} models.AppointmentResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/appointments [post]
func (h *AppointmentHandler) BookAppointment(c *gin.Context) {
	orgID := c.MustGet("org_id").(string)

	var req models.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	response, err := h.appointmentService.BookAppointment(orgID, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to book appointment", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, response)
}

// CompleteAppointment godoc
// @Summary Complete an appointment
// @Description Mark an appointment completed, firing the follow-up campaign trigger in the background
// @Tags appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} models.AppointmentResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/appointments/{id}/complete [post]
func (h *AppointmentHandler) CompleteAppointment(c *gin.Context) {
	orgID := c.MustGet("org_id").(string)
	appointmentID := c.Param("id")

	response, err := h.appointmentService.CompleteAppointment(orgID, appointmentID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
			return
		}
		if strings.Contains(err.Error(), "already completed") || strings.Contains(err.Error(), "cancelled") {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete appointment", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetAppointments godoc
// @Summary Get organization's appointments
// @Description Get all appointments belonging to the authenticated organization
// @Tags appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.AppointmentResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/appointments [get]
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	orgID := c.MustGet("org_id").(string)

	appointments, err := h.appointmentService.GetAppointmentsByOrg(orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get appointments", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, appointments)
}

// GetAppointmentByID godoc
// @Summary Get appointment by ID
// @Description Get a specific appointment by ID (organization must own it)
// @Tags appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} models.AppointmentResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/appointments/{id} [get]
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	orgID := c.MustGet("org_id").(string)
	appointmentID := c.Param("id")

	appointment, err := h.appointmentService.GetAppointmentByID(orgID, appointmentID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Appointment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get appointment", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, appointment)
}
