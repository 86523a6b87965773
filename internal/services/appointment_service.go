package services

import (
	"errors"
	"fmt"

	"github.com/waynekuvi/appointflow-backend/internal/models"
	"github.com/waynekuvi/appointflow-backend/internal/utils"

	"github.com/sirupsen/logrus"
)

// AppointmentWriter extends AppointmentStore with the operations the
// appointment lifecycle needs
type AppointmentWriter interface {
	AppointmentStore
	Create(appt *models.Appointment) error
	GetByOrgIDAndID(orgID, id string) (*models.Appointment, error)
	GetByOrgID(orgID string) ([]*models.Appointment, error)
	Update(appt *models.Appointment) error
}

// CampaignTrigger fires a campaign for a business event. Satisfied by
// DispatchService.
type CampaignTrigger interface {
	TriggerCampaign(kind, trigger, appointmentID, orgID string, delayHours float64) error
}

// AppointmentService owns the appointment lifecycle. Booking and completing
// an appointment fire the matching messaging trigger in the background; the
// appointment write always succeeds on its own.
type AppointmentService struct {
	apptRepo         AppointmentWriter
	trigger          CampaignTrigger
	followUpDelayHrs float64
}

func NewAppointmentService(apptRepo AppointmentWriter, trigger CampaignTrigger, followUpDelayHrs float64) *AppointmentService {
	return &AppointmentService{
		apptRepo:         apptRepo,
		trigger:          trigger,
		followUpDelayHrs: followUpDelayHrs,
	}
}

// BookAppointment creates a new appointment and fires the booking trigger
func (s *AppointmentService) BookAppointment(orgID string, req *models.CreateAppointmentRequest) (*models.AppointmentResponse, error) {
	appt := &models.Appointment{
		OrganizationID: orgID,
		CustomerName:   req.CustomerName,
		Phone:          req.Phone,
		Address:        req.Address,
		ServiceType:    req.ServiceType,
		StartsAt:       req.StartsAt,
		Status:         models.AppointmentStatusBooked,
	}
	if err := s.apptRepo.Create(appt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.fireTrigger(models.CampaignKindReminder, models.TriggerAppointmentBooked, appt, 0)

	return s.toResponse(appt), nil
}

// CompleteAppointment marks an appointment completed and fires the follow-up
// trigger. Completing an already-completed appointment is rejected so the
// follow-up never fires twice.
func (s *AppointmentService) CompleteAppointment(orgID, appointmentID string) (*models.AppointmentResponse, error) {
	appt, err := s.apptRepo.GetByOrgIDAndID(orgID, appointmentID)
	if err != nil {
		return nil, errors.New("appointment not found")
	}
	if appt.Status == models.AppointmentStatusCompleted {
		return nil, errors.New("appointment already completed")
	}
	if appt.Status == models.AppointmentStatusCancelled {
		return nil, errors.New("appointment is cancelled")
	}

	appt.Status = models.AppointmentStatusCompleted
	if err := s.apptRepo.Update(appt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	s.fireTrigger(models.CampaignKindFollowUp, models.TriggerAppointmentCompleted, appt, s.followUpDelayHrs)

	return s.toResponse(appt), nil
}

// GetAppointmentsByOrg retrieves all appointments for an organization
func (s *AppointmentService) GetAppointmentsByOrg(orgID string) ([]*models.AppointmentResponse, error) {
	appts, err := s.apptRepo.GetByOrgID(orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointments: %w", err)
	}

	responses := make([]*models.AppointmentResponse, len(appts))
	for i, appt := range appts {
		responses[i] = s.toResponse(appt)
	}
	return responses, nil
}

// GetAppointmentByID retrieves an appointment by ID (org must own it)
func (s *AppointmentService) GetAppointmentByID(orgID, appointmentID string) (*models.AppointmentResponse, error) {
	appt, err := s.apptRepo.GetByOrgIDAndID(orgID, appointmentID)
	if err != nil {
		return nil, errors.New("appointment not found")
	}
	return s.toResponse(appt), nil
}

// fireTrigger runs the messaging trigger in the background. A trigger
// failure is logged and reported but never surfaces to the appointment
// caller.
func (s *AppointmentService) fireTrigger(kind, trigger string, appt *models.Appointment, delayHours float64) {
	appointmentID := appt.ID
	orgID := appt.OrganizationID

	go func() {
		if err := s.trigger.TriggerCampaign(kind, trigger, appointmentID, orgID, delayHours); err != nil {
			logrus.WithFields(logrus.Fields{
				"appointment_id": appointmentID,
				"trigger":        trigger,
			}).Errorf("Campaign trigger failed: %v", err)
			utils.CaptureError(err)
		}
	}()
}

func (s *AppointmentService) toResponse(appt *models.Appointment) *models.AppointmentResponse {
	return &models.AppointmentResponse{
		ID:             appt.ID,
		OrganizationID: appt.OrganizationID,
		CustomerName:   appt.CustomerName,
		Phone:          appt.Phone,
		Address:        appt.Address,
		ServiceType:    appt.ServiceType,
		StartsAt:       appt.StartsAt,
		Status:         appt.Status,
		CreatedAt:      appt.CreatedAt,
		UpdatedAt:      appt.UpdatedAt,
	}
}
