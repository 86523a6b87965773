package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/waynekuvi/appointflow-backend/internal/models"
	"github.com/waynekuvi/appointflow-backend/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MessagingSettings is the per-organization configuration the dispatch path
// consumes
type MessagingSettings struct {
	Enabled  bool
	RelayURL string
}

// MessagingSettingsProvider yields messaging settings for an organization.
// Injected so the dispatch path is testable without a live store.
type MessagingSettingsProvider interface {
	MessagingSettings(orgID string) (*MessagingSettings, error)
}

// AppointmentStore is the persistence surface the dispatch service needs
// for source entities
type AppointmentStore interface {
	GetByID(id string) (*models.Appointment, error)
}

// CampaignResolver finds the active campaign for a trigger. Satisfied by
// CampaignService.
type CampaignResolver interface {
	ResolveActive(orgID, kind, trigger string) (*models.Campaign, error)
}

// RelaySender posts a dispatch payload to a relay URL. Satisfied by
// RelayClient.
type RelaySender interface {
	Send(ctx context.Context, relayURL string, payload *DispatchPayload) error
}

// DispatchJob is one unit of work on the dispatch queue
type DispatchJob struct {
	ExecutionID string           `json:"execution_id"`
	RelayURL    string           `json:"relay_url"`
	Payload     *DispatchPayload `json:"payload"`
}

// DispatchService turns a business event into a durable execution and one
// fire-and-forget delivery request to the tenant's relay. Every step of the
// trigger path degrades to a silent no-op for expected configuration
// absence; booking or completing an appointment never fails because
// messaging is down or unconfigured.
type DispatchService struct {
	settings      MessagingSettingsProvider
	resolver      CampaignResolver
	campaigns     CampaignStore
	appointments  AppointmentStore
	executionRepo ExecutionStore
	relay         RelaySender
	rabbitMQ      *RabbitMQService

	stopChan chan struct{}
}

func NewDispatchService(
	settings MessagingSettingsProvider,
	resolver CampaignResolver,
	campaigns CampaignStore,
	appointments AppointmentStore,
	executionRepo ExecutionStore,
	relay RelaySender,
	rabbitMQ *RabbitMQService,
) *DispatchService {
	return &DispatchService{
		settings:      settings,
		resolver:      resolver,
		campaigns:     campaigns,
		appointments:  appointments,
		executionRepo: executionRepo,
		relay:         relay,
		rabbitMQ:      rabbitMQ,
		stopChan:      make(chan struct{}),
	}
}

// TriggerCampaign fires the campaign configured for (kind, trigger) against
// the appointment's customer. delayHours shifts NextSendAt for deferred
// triggers such as a post-visit follow-up. Returns nil for every expected
// no-op condition; an error only signals an unexpected store failure, and
// callers on the business path log and continue regardless.
func (s *DispatchService) TriggerCampaign(kind, trigger, appointmentID, orgID string, delayHours float64) error {
	settings, err := s.settings.MessagingSettings(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load messaging settings: %w", err)
	}
	if !settings.Enabled || settings.RelayURL == "" {
		logrus.WithField("organization_id", orgID).Debug("Messaging not configured, skipping trigger")
		return nil
	}

	campaign, err := s.resolver.ResolveActive(orgID, kind, trigger)
	if err != nil {
		return fmt.Errorf("failed to resolve campaign: %w", err)
	}
	if campaign == nil {
		logrus.WithFields(logrus.Fields{
			"organization_id": orgID,
			"kind":            kind,
			"trigger":         trigger,
		}).Debug("No active campaign for trigger, skipping")
		return nil
	}

	appt, err := s.appointments.GetByID(appointmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load appointment: %w", err)
	}
	if appt.OrganizationID != orgID || appt.Phone == "" {
		// Nothing to send to is a normal condition, not an error
		return nil
	}

	nextSendAt := time.Now().UTC().Add(time.Duration(delayHours * float64(time.Hour)))

	exec := &models.Execution{
		CampaignID:     campaign.ID,
		OrganizationID: orgID,
		TriggerType:    models.TriggerTypeAppointment,
		TriggerID:      appt.ID,
		PhoneNumber:    appt.Phone,
		CustomerName:   appt.CustomerName,
		Status:         models.ExecutionStatusPending,
		TotalMessages:  len(campaign.Messages),
		NextSendAt:     nextSendAt,
	}
	if err := s.executionRepo.Create(exec); err != nil {
		return fmt.Errorf("failed to create execution: %w", err)
	}

	job := &DispatchJob{
		ExecutionID: exec.ID,
		RelayURL:    settings.RelayURL,
		Payload:     s.buildPayload(exec, campaign, appt),
	}
	s.enqueue(job)

	logrus.WithFields(logrus.Fields{
		"execution_id": exec.ID,
		"campaign_id":  campaign.ID,
		"trigger":      trigger,
	}).Info("Campaign execution created")
	return nil
}

// RedispatchExecution rebuilds the dispatch job for an execution that never
// got a dispatch attempt and enqueues it again. When the surrounding
// configuration has since gone away the execution is stamped so the sweeper
// stops picking it up.
func (s *DispatchService) RedispatchExecution(exec *models.Execution) error {
	settings, err := s.settings.MessagingSettings(exec.OrganizationID)
	if err != nil {
		return fmt.Errorf("failed to load messaging settings: %w", err)
	}

	var campaign *models.Campaign
	if settings.Enabled && settings.RelayURL != "" {
		campaign, err = s.campaigns.GetByOrgIDAndID(exec.OrganizationID, exec.CampaignID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load campaign: %w", err)
		}
	}
	if !settings.Enabled || settings.RelayURL == "" || campaign == nil || len(campaign.Messages) == 0 {
		logrus.WithField("execution_id", exec.ID).Warn("Execution no longer dispatchable, abandoning")
		return s.executionRepo.MarkDispatched(exec.ID, time.Now().UTC())
	}

	appt, err := s.appointments.GetByID(exec.TriggerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.WithField("execution_id", exec.ID).Warn("Source appointment gone, abandoning execution")
			return s.executionRepo.MarkDispatched(exec.ID, time.Now().UTC())
		}
		return fmt.Errorf("failed to load appointment: %w", err)
	}

	s.enqueue(&DispatchJob{
		ExecutionID: exec.ID,
		RelayURL:    settings.RelayURL,
		Payload:     s.buildPayload(exec, campaign, appt),
	})
	return nil
}

// RunTestCampaign creates an execution for a synthetic appointment so an
// operator can exercise a campaign end to end. The caller follows up with a
// simulated acknowledgement against the returned execution.
func (s *DispatchService) RunTestCampaign(orgID, campaignID string, req *models.TestCampaignRequest) (*models.Execution, error) {
	campaign, err := s.campaigns.GetByOrgIDAndID(orgID, campaignID)
	if err != nil {
		return nil, errors.New("campaign not found")
	}
	if len(campaign.Messages) == 0 {
		return nil, errors.New("campaign has no messages")
	}

	settings, err := s.settings.MessagingSettings(orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messaging settings: %w", err)
	}

	customerName := req.CustomerName
	if customerName == "" {
		customerName = "Test Customer"
	}
	appt := &models.Appointment{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		CustomerName:   customerName,
		Phone:          req.PhoneNumber,
		StartsAt:       time.Now().UTC().Add(24 * time.Hour),
	}

	exec := &models.Execution{
		CampaignID:     campaign.ID,
		OrganizationID: orgID,
		TriggerType:    models.TriggerTypeAppointment,
		TriggerID:      appt.ID,
		PhoneNumber:    appt.Phone,
		CustomerName:   appt.CustomerName,
		Status:         models.ExecutionStatusPending,
		TotalMessages:  len(campaign.Messages),
		NextSendAt:     time.Now().UTC(),
	}
	if err := s.executionRepo.Create(exec); err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	if settings.Enabled && settings.RelayURL != "" {
		s.enqueue(&DispatchJob{
			ExecutionID: exec.ID,
			RelayURL:    settings.RelayURL,
			Payload:     s.buildPayload(exec, campaign, appt),
		})
	} else {
		// Purely simulated run; keep the sweeper away from it
		if err := s.executionRepo.MarkDispatched(exec.ID, time.Now().UTC()); err != nil {
			logrus.Errorf("Failed to mark test execution %s dispatched: %v", exec.ID, err)
		}
	}

	return exec, nil
}

// buildPayload assembles the relay payload. The first step carries rendered
// text; later steps carry the raw template since the relay templates and
// schedules them itself.
func (s *DispatchService) buildPayload(exec *models.Execution, campaign *models.Campaign, appt *models.Appointment) *DispatchPayload {
	variables := AppointmentVariables(appt)

	messages := make([]DispatchMessage, len(campaign.Messages))
	for i, m := range campaign.Messages {
		text := m.Template
		if i == 0 {
			text = RenderLenient(m.Template, variables)
		}
		messages[i] = DispatchMessage{
			Sequence: m.Sequence,
			Delay:    m.DelayHours,
			Message:  text,
		}
	}

	return &DispatchPayload{
		ExecutionID:     exec.ID,
		CampaignID:      campaign.ID,
		CampaignName:    campaign.Name,
		PhoneNumber:     appt.Phone,
		CustomerName:    appt.CustomerName,
		AppointmentDate: variables["date"],
		ServiceType:     variables["service"],
		Variables:       variables,
		Messages:        messages,
		NextSendAt:      exec.NextSendAt,
	}
}

// enqueue hands the job to the dispatch queue, falling back to an
// in-process goroutine when RabbitMQ is unavailable. Failures are logged
// and swallowed; the sweeper retries anything that never got an attempt.
func (s *DispatchService) enqueue(job *DispatchJob) {
	if s.rabbitMQ != nil {
		message := map[string]interface{}{
			"execution_id": job.ExecutionID,
			"relay_url":    job.RelayURL,
			"payload":      job.Payload,
		}
		if err := s.rabbitMQ.PublishMessage(DispatchQueueName, message); err != nil {
			logrus.Errorf("Failed to enqueue dispatch job for execution %s: %v", job.ExecutionID, err)
			utils.CaptureError(err)
		}
		return
	}

	go s.Dispatch(job)
}

// Dispatch performs one delivery attempt: posts the payload to the relay
// and stamps the attempt on the execution. Relay failures are logged and
// reported, never propagated.
func (s *DispatchService) Dispatch(job *DispatchJob) {
	ctx := context.Background()

	if err := s.relay.Send(ctx, job.RelayURL, job.Payload); err != nil {
		logrus.WithFields(logrus.Fields{
			"execution_id": job.ExecutionID,
			"relay_url":    job.RelayURL,
		}).Errorf("Dispatch to relay failed: %v", err)
		utils.CaptureError(err)
	}

	// The attempt counts whether or not the relay accepted it; retries
	// belong to the relay, not this service
	if err := s.executionRepo.MarkDispatched(job.ExecutionID, time.Now().UTC()); err != nil {
		logrus.Errorf("Failed to mark execution %s dispatched: %v", job.ExecutionID, err)
	}
}

// StartConsumer starts consuming dispatch jobs from RabbitMQ. No-op when
// RabbitMQ is unavailable (jobs then run in-process).
func (s *DispatchService) StartConsumer() error {
	if s.rabbitMQ == nil {
		return nil
	}

	msgs, err := s.rabbitMQ.Consume(DispatchQueueName)
	if err != nil {
		return fmt.Errorf("failed to start dispatch consumer: %w", err)
	}

	logrus.Infof("RabbitMQ consumer started for %s queue", DispatchQueueName)

	go func() {
		for {
			select {
			case <-s.stopChan:
				logrus.Info("Dispatch consumer stopped")
				return
			case msg, ok := <-msgs:
				if !ok {
					logrus.Warn("RabbitMQ channel closed")
					return
				}

				var job DispatchJob
				if err := json.Unmarshal(msg.Body, &job); err != nil {
					logrus.Errorf("Failed to unmarshal dispatch job: %v", err)
					continue
				}
				s.Dispatch(&job)
			}
		}
	}()

	return nil
}

// StopConsumer stops the dispatch consumer
func (s *DispatchService) StopConsumer() {
	close(s.stopChan)
}
