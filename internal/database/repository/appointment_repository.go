package repository

import (
	"github.com/waynekuvi/appointflow-backend/internal/models"

	"gorm.io/gorm"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Create creates a new appointment
func (r *AppointmentRepository) Create(appt *models.Appointment) error {
	return r.db.Create(appt).Error
}

// GetByID retrieves an appointment by ID
func (r *AppointmentRepository) GetByID(id string) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.db.First(&appt, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// GetByOrgIDAndID retrieves an appointment scoped to an organization
func (r *AppointmentRepository) GetByOrgIDAndID(orgID, id string) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.db.Where("organization_id = ? AND id = ?", orgID, id).First(&appt).Error
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// GetByOrgID retrieves all appointments for an organization
func (r *AppointmentRepository) GetByOrgID(orgID string) ([]*models.Appointment, error) {
	var appts []*models.Appointment
	err := r.db.Where("organization_id = ?", orgID).
		Order("starts_at DESC").
		Find(&appts).Error
	return appts, err
}

// Update updates an appointment
func (r *AppointmentRepository) Update(appt *models.Appointment) error {
	return r.db.Save(appt).Error
}
