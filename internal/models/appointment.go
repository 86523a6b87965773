package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Appointment statuses
const (
	AppointmentStatusBooked    = "BOOKED"
	AppointmentStatusCompleted = "COMPLETED"
	AppointmentStatusCancelled = "CANCELLED"
)

// Appointment is the source entity for messaging triggers. Booking and
// completing an appointment are the business events that may fire a campaign.
type Appointment struct {
	ID             string `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID string `json:"organization_id" gorm:"not null;index;type:uuid"`

	CustomerName string    `json:"customer_name" gorm:"type:varchar(255);not null"`
	Phone        string    `json:"phone" gorm:"type:varchar(50)"`
	Address      string    `json:"address" gorm:"type:text"`
	ServiceType  string    `json:"service_type" gorm:"type:varchar(255)"`
	StartsAt     time.Time `json:"starts_at" gorm:"not null;index"`
	Status       string    `json:"status" gorm:"type:varchar(50);default:'BOOKED';index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Organization Organization `json:"-" gorm:"foreignKey:OrganizationID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the Appointment model
func (Appointment) TableName() string {
	return "appointments"
}

// CreateAppointmentRequest represents the request to book a new appointment
type CreateAppointmentRequest struct {
	CustomerName string    `json:"customer_name" binding:"required" example:"Jo"`
	Phone        string    `json:"phone" example:"+15551230000"`
	Address      string    `json:"address" example:"12 Main St"`
	ServiceType  string    `json:"service_type" example:"cleaning"`
	StartsAt     time.Time `json:"starts_at" binding:"required" example:"2024-01-10T14:00:00Z"`
}

// AppointmentResponse represents the response for appointment operations
type AppointmentResponse struct {
	ID             string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	OrganizationID string    `json:"organization_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	CustomerName   string    `json:"customer_name" example:"Jo"`
	Phone          string    `json:"phone" example:"+15551230000"`
	Address        string    `json:"address" example:"12 Main St"`
	ServiceType    string    `json:"service_type" example:"cleaning"`
	StartsAt       time.Time `json:"starts_at" example:"2024-01-10T14:00:00Z"`
	Status         string    `json:"status" example:"BOOKED"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
