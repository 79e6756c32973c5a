package repository

import (
	"github.com/handwerkly/chat-backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository is read-only: the users table is owned by the platform's
// user service.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
