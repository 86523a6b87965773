package repository

import (
	"time"

	"github.com/waynekuvi/appointflow-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExecutionRepository struct {
	db *gorm.DB
}

func NewExecutionRepository(db *gorm.DB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

// Create creates a new execution
func (r *ExecutionRepository) Create(exec *models.Execution) error {
	return r.db.Create(exec).Error
}

// GetByID retrieves an execution by ID
func (r *ExecutionRepository) GetByID(id string) (*models.Execution, error) {
	var exec models.Execution
	err := r.db.First(&exec, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &exec, nil
}

// GetByOrgID retrieves executions for an organization, newest first
func (r *ExecutionRepository) GetByOrgID(orgID string, limit, offset int) ([]*models.Execution, error) {
	var execs []*models.Execution
	err := r.db.Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&execs).Error
	return execs, err
}

// CountByOrgID counts executions for an organization
func (r *ExecutionRepository) CountByOrgID(orgID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Execution{}).
		Where("organization_id = ?", orgID).
		Count(&count).Error
	return count, err
}

// ApplyStatusUpdate loads the execution under a row lock, lets apply mutate
// it, and saves the result in the same transaction. Concurrent
// acknowledgements for one execution serialize on the lock so the write
// never race-corrupts partial fields.
func (r *ExecutionRepository) ApplyStatusUpdate(id string, apply func(*models.Execution) error) (*models.Execution, error) {
	var exec models.Execution
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&exec, "id = ?", id).Error; err != nil {
			return err
		}
		if err := apply(&exec); err != nil {
			return err
		}
		return tx.Save(&exec).Error
	})
	if err != nil {
		return nil, err
	}
	return &exec, nil
}

// MarkDispatched stamps the first dispatch attempt time. Only the first
// attempt is recorded.
func (r *ExecutionRepository) MarkDispatched(id string, at time.Time) error {
	return r.db.Model(&models.Execution{}).
		Where("id = ? AND dispatched_at IS NULL", id).
		Update("dispatched_at", at).Error
}

// FindUndispatched retrieves executions still PENDING with no dispatch
// attempt, created before the cutoff. The dispatch sweeper re-enqueues them.
func (r *ExecutionRepository) FindUndispatched(olderThan time.Time, limit int) ([]*models.Execution, error) {
	var execs []*models.Execution
	err := r.db.Where("status = ? AND dispatched_at IS NULL AND created_at < ?",
		models.ExecutionStatusPending, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&execs).Error
	return execs, err
}
