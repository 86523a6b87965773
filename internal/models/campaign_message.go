package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CampaignMessage is one ordered step of a campaign. Sequence numbers are
// unique per campaign and define the send order; the engine always sorts by
// sequence before use.
type CampaignMessage struct {
	ID         string `json:"id" gorm:"primaryKey;type:uuid"`
	CampaignID string `json:"campaign_id" gorm:"not null;type:uuid;uniqueIndex:idx_campaign_messages_campaign_sequence,priority:1"`

	Sequence   int     `json:"sequence" gorm:"not null;uniqueIndex:idx_campaign_messages_campaign_sequence,priority:2"`
	DelayHours float64 `json:"delay_hours" gorm:"not null;default:0"` // hours after the previous step, or after trigger time for step 1
	Template   string  `json:"template" gorm:"type:text;not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Campaign Campaign `json:"-" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (m *CampaignMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the CampaignMessage model
func (CampaignMessage) TableName() string {
	return "campaign_messages"
}

// CreateCampaignMessageRequest represents the request to add a message step
// to a campaign
type CreateCampaignMessageRequest struct {
	Sequence   int     `json:"sequence" binding:"required,min=1" example:"1"`
	DelayHours float64 `json:"delay_hours" binding:"min=0" example:"0"`
	Template   string  `json:"template" binding:"required" example:"Hi {{name}}, confirmed for {{date}} at {{time}}."`
}

// UpdateCampaignMessageRequest represents the request to update a message step
type UpdateCampaignMessageRequest struct {
	Sequence   int     `json:"sequence" binding:"required,min=1" example:"2"`
	DelayHours float64 `json:"delay_hours" binding:"min=0" example:"24"`
	Template   string  `json:"template" binding:"required" example:"Hi {{name}}, see you tomorrow!"`
}

// CampaignMessageResponse represents the response for campaign message operations
type CampaignMessageResponse struct {
	ID         string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	CampaignID string    `json:"campaign_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	Sequence   int       `json:"sequence" example:"1"`
	DelayHours float64   `json:"delay_hours" example:"0"`
	Template   string    `json:"template" example:"Hi {{name}}, confirmed for {{date}} at {{time}}."`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
