package repository

import (
	"github.com/handwerkly/chat-backend/internal/models"
	"gorm.io/gorm"
)

// JobRepository is read-only: the jobs table is owned by the platform's job
// service.
type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) FindByID(id uint) (*models.Job, error) {
	var job models.Job
	err := r.db.First(&job, id).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}
