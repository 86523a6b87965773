package repository

import (
	"github.com/waynekuvi/appointflow-backend/internal/models"

	"gorm.io/gorm"
)

type CampaignMessageRepository struct {
	db *gorm.DB
}

func NewCampaignMessageRepository(db *gorm.DB) *CampaignMessageRepository {
	return &CampaignMessageRepository{db: db}
}

// Create creates a new campaign message
func (r *CampaignMessageRepository) Create(msg *models.CampaignMessage) error {
	return r.db.Create(msg).Error
}

// GetByCampaignIDAndID retrieves a message scoped to a campaign
func (r *CampaignMessageRepository) GetByCampaignIDAndID(campaignID, id string) (*models.CampaignMessage, error) {
	var msg models.CampaignMessage
	err := r.db.Where("campaign_id = ? AND id = ?", campaignID, id).First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetByCampaignID retrieves all messages for a campaign ordered by sequence
func (r *CampaignMessageRepository) GetByCampaignID(campaignID string) ([]*models.CampaignMessage, error) {
	var msgs []*models.CampaignMessage
	err := r.db.Where("campaign_id = ?", campaignID).
		Order("sequence ASC").
		Find(&msgs).Error
	return msgs, err
}

// Update updates a campaign message
func (r *CampaignMessageRepository) Update(msg *models.CampaignMessage) error {
	return r.db.Save(msg).Error
}

// DeleteByCampaignIDAndID deletes a message scoped to a campaign
func (r *CampaignMessageRepository) DeleteByCampaignIDAndID(campaignID, id string) error {
	return r.db.Where("campaign_id = ? AND id = ?", campaignID, id).
		Delete(&models.CampaignMessage{}).Error
}
