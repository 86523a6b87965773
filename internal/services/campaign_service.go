package services

import (
	"errors"
	"fmt"
	"sort"

	"github.com/waynekuvi/appointflow-backend/internal/models"

	"gorm.io/gorm"
)

// CampaignStore is the persistence surface the campaign service needs
type CampaignStore interface {
	Create(campaign *models.Campaign) error
	GetByOrgIDAndID(orgID, campaignID string) (*models.Campaign, error)
	GetByOrgID(orgID string) ([]*models.Campaign, error)
	FindDispatchable(orgID, kind, trigger string) ([]*models.Campaign, error)
	CountActiveConflicts(orgID, kind, trigger, excludeID string) (int64, error)
	Update(campaign *models.Campaign) error
	DeleteByOrgIDAndID(orgID, campaignID string) error
}

// CampaignMessageStore is the persistence surface for campaign message steps
type CampaignMessageStore interface {
	Create(msg *models.CampaignMessage) error
	GetByCampaignIDAndID(campaignID, id string) (*models.CampaignMessage, error)
	GetByCampaignID(campaignID string) ([]*models.CampaignMessage, error)
	Update(msg *models.CampaignMessage) error
	DeleteByCampaignIDAndID(campaignID, id string) error
}

type CampaignService struct {
	campaignRepo CampaignStore
	messageRepo  CampaignMessageStore
}

func NewCampaignService(campaignRepo CampaignStore, messageRepo CampaignMessageStore) *CampaignService {
	return &CampaignService{
		campaignRepo: campaignRepo,
		messageRepo:  messageRepo,
	}
}

// ResolveActive finds the single active, unpaused campaign for the given
// (kind, trigger) pair, with its messages sorted by sequence ascending.
// Returns (nil, nil) when no campaign matches or the match has no messages;
// callers treat that as a no-op, not an error. The store returns candidates
// in a stable order, so repeated calls pick the same campaign.
func (s *CampaignService) ResolveActive(orgID, kind, trigger string) (*models.Campaign, error) {
	candidates, err := s.campaignRepo.FindDispatchable(orgID, kind, trigger)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	campaign := candidates[0]
	if len(campaign.Messages) == 0 {
		return nil, nil
	}

	// The store already orders by sequence; sort again so the invariant
	// never depends on the query
	sort.Slice(campaign.Messages, func(i, j int) bool {
		return campaign.Messages[i].Sequence < campaign.Messages[j].Sequence
	})

	return campaign, nil
}

// CreateCampaign creates a new campaign for an organization
func (s *CampaignService) CreateCampaign(orgID string, req *models.CreateCampaignRequest) (*models.CampaignResponse, error) {
	campaign := &models.Campaign{
		OrganizationID: orgID,
		Name:           req.Name,
		Kind:           req.Kind,
		Trigger:        req.Trigger,
		Active:         true,
	}
	if req.Active != nil {
		campaign.Active = *req.Active
	}
	if req.Paused != nil {
		campaign.Paused = *req.Paused
	}

	if campaign.Dispatchable() {
		if err := s.checkActiveConflict(orgID, req.Kind, req.Trigger, ""); err != nil {
			return nil, err
		}
	}

	if err := s.campaignRepo.Create(campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	return s.toResponse(campaign), nil
}

// GetCampaignsByOrg retrieves all campaigns for an organization
func (s *CampaignService) GetCampaignsByOrg(orgID string) ([]*models.CampaignResponse, error) {
	campaigns, err := s.campaignRepo.GetByOrgID(orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaigns: %w", err)
	}

	responses := make([]*models.CampaignResponse, len(campaigns))
	for i, campaign := range campaigns {
		responses[i] = s.toResponse(campaign)
	}
	return responses, nil
}

// GetCampaignByID retrieves a campaign by ID (org must own it)
func (s *CampaignService) GetCampaignByID(orgID, campaignID string) (*models.CampaignResponse, error) {
	campaign, err := s.campaignRepo.GetByOrgIDAndID(orgID, campaignID)
	if err != nil {
		return nil, errors.New("campaign not found")
	}
	return s.toResponse(campaign), nil
}

// UpdateCampaign updates a campaign
func (s *CampaignService) UpdateCampaign(orgID, campaignID string, req *models.UpdateCampaignRequest) (*models.CampaignResponse, error) {
	campaign, err := s.campaignRepo.GetByOrgIDAndID(orgID, campaignID)
	if err != nil {
		return nil, errors.New("campaign not found")
	}

	campaign.Name = req.Name
	campaign.Kind = req.Kind
	campaign.Trigger = req.Trigger
	if req.Active != nil {
		campaign.Active = *req.Active
	}
	if req.Paused != nil {
		campaign.Paused = *req.Paused
	}

	if campaign.Dispatchable() {
		if err := s.checkActiveConflict(orgID, campaign.Kind, campaign.Trigger, campaign.ID); err != nil {
			return nil, err
		}
	}

	if err := s.campaignRepo.Update(campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}

	return s.toResponse(campaign), nil
}

// DeleteCampaign deletes a campaign and its messages
func (s *CampaignService) DeleteCampaign(orgID, campaignID string) error {
	if _, err := s.campaignRepo.GetByOrgIDAndID(orgID, campaignID); err != nil {
		return errors.New("campaign not found")
	}
	if err := s.campaignRepo.DeleteByOrgIDAndID(orgID, campaignID); err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	return nil
}

// AddMessage adds a message step to a campaign
func (s *CampaignService) AddMessage(orgID, campaignID string, req *models.CreateCampaignMessageRequest) (*models.CampaignMessageResponse, error) {
	if _, err := s.campaignRepo.GetByOrgIDAndID(orgID, campaignID); err != nil {
		return nil, errors.New("campaign not found")
	}

	msg := &models.CampaignMessage{
		CampaignID: campaignID,
		Sequence:   req.Sequence,
		DelayHours: req.DelayHours,
		Template:   req.Template,
	}
	if err := s.messageRepo.Create(msg); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("message with sequence %d already exists", req.Sequence)
		}
		return nil, fmt.Errorf("failed to create campaign message: %w", err)
	}

	return s.toMessageResponse(msg), nil
}

// UpdateMessage updates a message step
func (s *CampaignService) UpdateMessage(orgID, campaignID, messageID string, req *models.UpdateCampaignMessageRequest) (*models.CampaignMessageResponse, error) {
	if _, err := s.campaignRepo.GetByOrgIDAndID(orgID, campaignID); err != nil {
		return nil, errors.New("campaign not found")
	}

	msg, err := s.messageRepo.GetByCampaignIDAndID(campaignID, messageID)
	if err != nil {
		return nil, errors.New("message not found")
	}

	msg.Sequence = req.Sequence
	msg.DelayHours = req.DelayHours
	msg.Template = req.Template
	if err := s.messageRepo.Update(msg); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("message with sequence %d already exists", req.Sequence)
		}
		return nil, fmt.Errorf("failed to update campaign message: %w", err)
	}

	return s.toMessageResponse(msg), nil
}

// DeleteMessage deletes a message step
func (s *CampaignService) DeleteMessage(orgID, campaignID, messageID string) error {
	if _, err := s.campaignRepo.GetByOrgIDAndID(orgID, campaignID); err != nil {
		return errors.New("campaign not found")
	}
	if _, err := s.messageRepo.GetByCampaignIDAndID(campaignID, messageID); err != nil {
		return errors.New("message not found")
	}
	if err := s.messageRepo.DeleteByCampaignIDAndID(campaignID, messageID); err != nil {
		return fmt.Errorf("failed to delete campaign message: %w", err)
	}
	return nil
}

// checkActiveConflict rejects a second active, unpaused campaign for the
// same (kind, trigger) so dispatch never has to tie-break by query order
func (s *CampaignService) checkActiveConflict(orgID, kind, trigger, excludeID string) error {
	count, err := s.campaignRepo.CountActiveConflicts(orgID, kind, trigger, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check campaign conflicts: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("an active campaign for %s/%s already exists", kind, trigger)
	}
	return nil
}

func (s *CampaignService) toResponse(campaign *models.Campaign) *models.CampaignResponse {
	resp := &models.CampaignResponse{
		ID:             campaign.ID,
		OrganizationID: campaign.OrganizationID,
		Name:           campaign.Name,
		Kind:           campaign.Kind,
		Trigger:        campaign.Trigger,
		Active:         campaign.Active,
		Paused:         campaign.Paused,
		CreatedAt:      campaign.CreatedAt,
		UpdatedAt:      campaign.UpdatedAt,
	}
	for i := range campaign.Messages {
		resp.Messages = append(resp.Messages, *s.toMessageResponse(&campaign.Messages[i]))
	}
	return resp
}

func (s *CampaignService) toMessageResponse(msg *models.CampaignMessage) *models.CampaignMessageResponse {
	return &models.CampaignMessageResponse{
		ID:         msg.ID,
		CampaignID: msg.CampaignID,
		Sequence:   msg.Sequence,
		DelayHours: msg.DelayHours,
		Template:   msg.Template,
		CreatedAt:  msg.CreatedAt,
		UpdatedAt:  msg.UpdatedAt,
	}
}
