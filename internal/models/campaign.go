package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Campaign kinds
const (
	CampaignKindReminder = "REMINDER"
	CampaignKindFollowUp = "FOLLOW_UP"
)

// Campaign triggers
const (
	TriggerAppointmentBooked    = "APPOINTMENT_BOOKED"
	TriggerAppointmentCompleted = "APPOINTMENT_COMPLETED"
)

// Campaign maps one trigger event to an ordered set of message templates
// for one organization.
type Campaign struct {
	ID             string `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID string `json:"organization_id" gorm:"not null;index;type:uuid"`
	Name           string `json:"name" gorm:"type:varchar(255);not null"`

	Kind    string `json:"kind" gorm:"type:varchar(50);not null;index"`    // REMINDER, FOLLOW_UP
	Trigger string `json:"trigger" gorm:"type:varchar(50);not null;index"` // APPOINTMENT_BOOKED, APPOINTMENT_COMPLETED

	Active bool `json:"active" gorm:"default:true;index"`
	Paused bool `json:"paused" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Organization Organization      `json:"-" gorm:"foreignKey:OrganizationID;references:ID;constraint:OnDelete:CASCADE"`
	Messages     []CampaignMessage `json:"messages,omitempty" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the Campaign model
func (Campaign) TableName() string {
	return "campaigns"
}

// Dispatchable reports whether the campaign may be picked up at dispatch time
func (c *Campaign) Dispatchable() bool {
	return c.Active && !c.Paused
}

// CreateCampaignRequest represents the request to create a new campaign
type CreateCampaignRequest struct {
	Name    string `json:"name" binding:"required" example:"Booking confirmations"`
	Kind    string `json:"kind" binding:"required,oneof=REMINDER FOLLOW_UP" example:"REMINDER"`
	Trigger string `json:"trigger" binding:"required,oneof=APPOINTMENT_BOOKED APPOINTMENT_COMPLETED" example:"APPOINTMENT_BOOKED"`
	Active  *bool  `json:"active"`
	Paused  *bool  `json:"paused"`
}

// UpdateCampaignRequest represents the request to update a campaign
type UpdateCampaignRequest struct {
	Name    string `json:"name" binding:"required" example:"Booking confirmations"`
	Kind    string `json:"kind" binding:"required,oneof=REMINDER FOLLOW_UP" example:"REMINDER"`
	Trigger string `json:"trigger" binding:"required,oneof=APPOINTMENT_BOOKED APPOINTMENT_COMPLETED" example:"APPOINTMENT_BOOKED"`
	Active  *bool  `json:"active"`
	Paused  *bool  `json:"paused"`
}

// CampaignResponse represents the response for campaign operations
type CampaignResponse struct {
	ID             string                    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	OrganizationID string                    `json:"organization_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	Name           string                    `json:"name" example:"Booking confirmations"`
	Kind           string                    `json:"kind" example:"REMINDER"`
	Trigger        string                    `json:"trigger" example:"APPOINTMENT_BOOKED"`
	Active         bool                      `json:"active" example:"true"`
	Paused         bool                      `json:"paused" example:"false"`
	Messages       []CampaignMessageResponse `json:"messages,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}
