package repository

import (
	"github.com/waynekuvi/appointflow-backend/internal/models"

	"gorm.io/gorm"
)

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create creates a new campaign
func (r *CampaignRepository) Create(campaign *models.Campaign) error {
	return r.db.Create(campaign).Error
}

// GetByOrgIDAndID retrieves a campaign by organization ID and campaign ID,
// with its messages ordered by sequence
func (r *CampaignRepository) GetByOrgIDAndID(orgID, campaignID string) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.Where("organization_id = ? AND id = ?", orgID, campaignID).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("campaign_messages.sequence ASC")
		}).
		First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GetByOrgID retrieves all campaigns for an organization
func (r *CampaignRepository) GetByOrgID(orgID string) ([]*models.Campaign, error) {
	var campaigns []*models.Campaign
	err := r.db.Where("organization_id = ?", orgID).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("campaign_messages.sequence ASC")
		}).
		Order("created_at ASC, id ASC").
		Find(&campaigns).Error
	return campaigns, err
}

// FindDispatchable retrieves the active, unpaused campaigns matching
// (kind, trigger) for an organization, oldest first, messages ordered by
// sequence. The stable ordering makes the resolver's "first match"
// deterministic.
func (r *CampaignRepository) FindDispatchable(orgID, kind, trigger string) ([]*models.Campaign, error) {
	var campaigns []*models.Campaign
	err := r.db.Where(
		"organization_id = ? AND kind = ? AND trigger = ? AND active = ? AND paused = ?",
		orgID, kind, trigger, true, false,
	).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("campaign_messages.sequence ASC")
		}).
		Order("created_at ASC, id ASC").
		Find(&campaigns).Error
	return campaigns, err
}

// CountActiveConflicts counts active, unpaused campaigns for the same
// (organization, kind, trigger), excluding the given campaign ID
func (r *CampaignRepository) CountActiveConflicts(orgID, kind, trigger, excludeID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Campaign{}).
		Where("organization_id = ? AND kind = ? AND trigger = ? AND active = ? AND paused = ? AND id <> ?",
			orgID, kind, trigger, true, false, excludeID).
		Count(&count).Error
	return count, err
}

// Update updates a campaign
func (r *CampaignRepository) Update(campaign *models.Campaign) error {
	return r.db.Save(campaign).Error
}

// DeleteByOrgIDAndID deletes a campaign by organization ID and campaign ID.
// Messages cascade with it.
func (r *CampaignRepository) DeleteByOrgIDAndID(orgID, campaignID string) error {
	return r.db.Where("organization_id = ? AND id = ?", orgID, campaignID).
		Delete(&models.Campaign{}).Error
}
