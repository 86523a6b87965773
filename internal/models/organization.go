package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization represents a tenant. Campaigns, appointments and executions
// are all scoped to one organization.
type Organization struct {
	ID   string `json:"id" gorm:"primaryKey;type:uuid"`
	Name string `json:"name" gorm:"type:varchar(255);not null"`

	// Messaging settings consumed by the dispatch path
	MessagingEnabled bool   `json:"messaging_enabled" gorm:"default:false"`
	RelayWebhookURL  string `json:"relay_webhook_url" gorm:"type:text"`

	// Optional shared secret the relay must present on status callbacks.
	// Stored as a bcrypt hash, never returned in responses.
	RelaySecretHash string `json:"-" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the Organization model
func (Organization) TableName() string {
	return "organizations"
}

// UpdateMessagingSettingsRequest represents the request to update an
// organization's messaging settings
type UpdateMessagingSettingsRequest struct {
	MessagingEnabled *bool   `json:"messaging_enabled"`
	RelayWebhookURL  *string `json:"relay_webhook_url" example:"https://relay.example/hook"`
	RelaySecret      *string `json:"relay_secret"`
}

// MessagingSettingsResponse represents an organization's messaging settings
type MessagingSettingsResponse struct {
	OrganizationID   string `json:"organization_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	MessagingEnabled bool   `json:"messaging_enabled" example:"true"`
	RelayWebhookURL  string `json:"relay_webhook_url" example:"https://relay.example/hook"`
	RelaySecretSet   bool   `json:"relay_secret_set" example:"true"`
}
