package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/basit/forumfiles-backend/internal/models"
)

type FileShareRepository interface {
	Create(share *models.FileShare) error
	ListByFile(fileID uuid.UUID) ([]models.FileShare, error)
}

type fileShareRepository struct {
	db *gorm.DB
}

func NewFileShareRepository(db *gorm.DB) FileShareRepository {
	return &fileShareRepository{db: db}
}

func (r *fileShareRepository) Create(share *models.FileShare) error {
	return r.db.Create(share).Error
}

func (r *fileShareRepository) ListByFile(fileID uuid.UUID) ([]models.FileShare, error) {
	var shares []models.FileShare
	err := r.db.Where("file_id = ?", fileID).Order("created_at DESC").Find(&shares).Error
	if err != nil {
		return nil, err
	}
	return shares, nil
}
