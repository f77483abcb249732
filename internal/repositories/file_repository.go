package repositories

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/basit/forumfiles-backend/internal/models"
)

var ErrFileNotFound = errors.New("file not found")

// FileFilter narrows admin file listings.
type FileFilter struct {
	Search string
	UserID *uuid.UUID
}

type FileRepository interface {
	Create(file *models.File) error
	// FindByID returns only live (not soft-deleted) rows.
	FindByID(id uuid.UUID) (*models.File, error)
	FindPublicByID(id uuid.UUID) (*models.File, error)
	ListByOwner(ownerID uuid.UUID, limit, offset int) ([]models.File, int64, error)
	ListPublic() ([]models.File, error)
	ListAll(limit, offset int, filter FileFilter) ([]models.File, int64, error)
	SoftDelete(id uuid.UUID) error
	SoftDeleteByOwner(ownerID uuid.UUID) error
	IncrementDownloadCount(id uuid.UUID) error
	// ListDeletedKeys returns storage keys of soft-deleted rows whose blob
	// has not been reclaimed yet.
	ListDeletedKeys(limit int) ([]models.File, error)
	MarkBlobReclaimed(id uuid.UUID) error
}

type fileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(file *models.File) error {
	return r.db.Create(file).Error
}

func (r *fileRepository) FindByID(id uuid.UUID) (*models.File, error) {
	var file models.File
	err := r.db.First(&file, "id = ? AND is_deleted = ?", id, false).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return &file, nil
}

func (r *fileRepository) FindPublicByID(id uuid.UUID) (*models.File, error) {
	var file models.File
	err := r.db.First(&file, "id = ? AND is_deleted = ? AND is_public = ?", id, false, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return &file, nil
}

func (r *fileRepository) ListByOwner(ownerID uuid.UUID, limit, offset int) ([]models.File, int64, error) {
	q := r.db.Model(&models.File{}).Where("user_id = ? AND is_deleted = ?", ownerID, false)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var files []models.File
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&files).Error; err != nil {
		return nil, 0, err
	}
	return files, total, nil
}

func (r *fileRepository) ListPublic() ([]models.File, error) {
	var files []models.File
	err := r.db.Where("is_deleted = ? AND is_public = ?", false, true).
		Order("created_at DESC").Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (r *fileRepository) ListAll(limit, offset int, filter FileFilter) ([]models.File, int64, error) {
	q := r.db.Model(&models.File{}).Preload("User").Where("is_deleted = ?", false)
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("original_name LIKE ? OR description LIKE ?", pattern, pattern)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var files []models.File
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&files).Error; err != nil {
		return nil, 0, err
	}
	return files, total, nil
}

func (r *fileRepository) SoftDelete(id uuid.UUID) error {
	res := r.db.Model(&models.File{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrFileNotFound
	}
	return nil
}

func (r *fileRepository) SoftDeleteByOwner(ownerID uuid.UUID) error {
	return r.db.Model(&models.File{}).
		Where("user_id = ?", ownerID).
		Update("is_deleted", true).Error
}

func (r *fileRepository) IncrementDownloadCount(id uuid.UUID) error {
	return r.db.Model(&models.File{}).Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).Error
}

func (r *fileRepository) ListDeletedKeys(limit int) ([]models.File, error) {
	var files []models.File
	err := r.db.Where("is_deleted = ? AND storage_key <> ''", true).
		Limit(limit).Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

// MarkBlobReclaimed clears the storage key once the physical object is gone,
// so reconciliation stops retrying it. The row itself stays.
func (r *fileRepository) MarkBlobReclaimed(id uuid.UUID) error {
	return r.db.Model(&models.File{}).Where("id = ?", id).
		Update("storage_key", "").Error
}
