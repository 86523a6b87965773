package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Execution statuses. PENDING is initial, SENT is the in-flight waypoint,
// DELIVERED/FAILED/CANCELLED are terminal.
const (
	ExecutionStatusPending   = "PENDING"
	ExecutionStatusSent      = "SENT"
	ExecutionStatusDelivered = "DELIVERED"
	ExecutionStatusFailed    = "FAILED"
	ExecutionStatusCancelled = "CANCELLED"
)

// Trigger entity types
const (
	TriggerTypeAppointment = "APPOINTMENT"
)

// Execution is one instantiated run of a campaign against one recipient,
// created exactly once per trigger firing. TotalMessages snapshots the
// campaign's message count at creation time and never changes afterwards,
// even if the campaign is edited later.
type Execution struct {
	ID             string `json:"id" gorm:"primaryKey;type:uuid"`
	CampaignID     string `json:"campaign_id" gorm:"not null;index;type:uuid"`
	OrganizationID string `json:"organization_id" gorm:"not null;index;type:uuid"`

	TriggerType string `json:"trigger_type" gorm:"type:varchar(50);not null;default:'APPOINTMENT'"`
	TriggerID   string `json:"trigger_id" gorm:"not null;index;type:uuid"` // appointment id, soft reference

	PhoneNumber  string `json:"phone_number" gorm:"type:varchar(50);not null"`
	CustomerName string `json:"customer_name" gorm:"type:varchar(255)"`

	Status        string    `json:"status" gorm:"type:varchar(50);not null;default:'PENDING';index"`
	TotalMessages int       `json:"total_messages" gorm:"not null"`
	NextSendAt    time.Time `json:"next_send_at" gorm:"not null"`

	// Set when at least one dispatch attempt has been made. Executions left
	// PENDING without it are picked up by the dispatch sweeper.
	DispatchedAt *time.Time `json:"dispatched_at" gorm:"index"`

	// Latest delivery acknowledgement from the relay: {message_id, status, timestamp}
	DeliveryStatus JSON `json:"delivery_status" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships. No constraint on TriggerID: deleting an appointment
	// must not delete its executions (audit trail).
	Campaign     Campaign     `json:"-" gorm:"foreignKey:CampaignID;references:ID;constraint:OnDelete:CASCADE"`
	Organization Organization `json:"-" gorm:"foreignKey:OrganizationID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (e *Execution) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the Execution model
func (Execution) TableName() string {
	return "executions"
}

// Terminal reports whether the execution has reached a terminal status
func (e *Execution) Terminal() bool {
	switch e.Status {
	case ExecutionStatusDelivered, ExecutionStatusFailed, ExecutionStatusCancelled:
		return true
	}
	return false
}

// DeliveryStatusUpdateRequest represents an inbound delivery acknowledgement
// from the relay
type DeliveryStatusUpdateRequest struct {
	MessageID string `json:"message_id" example:"wamid.HBgLMTU1NTEyMzAwMDA"`
	Status    string `json:"status" binding:"required" example:"delivered"`
	Timestamp string `json:"timestamp" example:"2024-01-10T14:05:00Z"`
}

// ExecutionResponse represents the response for execution operations
type ExecutionResponse struct {
	ID             string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	CampaignID     string     `json:"campaign_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	OrganizationID string     `json:"organization_id" example:"550e8400-e29b-41d4-a716-446655440002"`
	TriggerType    string     `json:"trigger_type" example:"APPOINTMENT"`
	TriggerID      string     `json:"trigger_id" example:"550e8400-e29b-41d4-a716-446655440003"`
	PhoneNumber    string     `json:"phone_number" example:"+15551230000"`
	CustomerName   string     `json:"customer_name" example:"Jo"`
	Status         string     `json:"status" example:"PENDING"`
	TotalMessages  int        `json:"total_messages" example:"3"`
	NextSendAt     time.Time  `json:"next_send_at"`
	DispatchedAt   *time.Time `json:"dispatched_at,omitempty"`
	DeliveryStatus JSON       `json:"delivery_status,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TestCampaignRequest represents an operator's "run test campaign" action
type TestCampaignRequest struct {
	PhoneNumber  string `json:"phone_number" binding:"required" example:"+15551230000"`
	CustomerName string `json:"customer_name" example:"Test Customer"`
}

// TriggerCampaignRequest represents an internal trigger invocation
type TriggerCampaignRequest struct {
	Kind          string  `json:"kind" binding:"required,oneof=REMINDER FOLLOW_UP" example:"REMINDER"`
	Trigger       string  `json:"trigger" binding:"required,oneof=APPOINTMENT_BOOKED APPOINTMENT_COMPLETED" example:"APPOINTMENT_BOOKED"`
	AppointmentID string  `json:"appointment_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440003"`
	DelayHours    float64 `json:"delay_hours" binding:"min=0" example:"0"`
}
