package repositories

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/basit/forumfiles-backend/internal/models"
)

var (
	ErrLinkNotFound      = errors.New("public link not found")
	ErrLinkCodeCollision = errors.New("link code already exists")
)

type LinkRepository interface {
	Create(link *models.PublicLink) error
	// FindActiveByCode returns the link only while its active flag is set.
	// Deactivated and never-existed codes are indistinguishable to callers.
	FindActiveByCode(code string) (*models.PublicLink, error)
	// ClaimRedemption consumes one unit of the download cap and bumps the
	// file counter in one transaction. The cap check and increment are a
	// single conditional update: it reports false when the link is inactive
	// or the cap is already reached, and two concurrent claims can never
	// both succeed past the cap.
	ClaimRedemption(linkID, fileID uuid.UUID) (bool, error)
	Deactivate(id uuid.UUID) error
	DeactivateExpired(now time.Time) (int64, error)
}

type linkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(link *models.PublicLink) error {
	if err := r.db.Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrLinkCodeCollision
		}
		return err
	}
	return nil
}

func (r *linkRepository) FindActiveByCode(code string) (*models.PublicLink, error) {
	var link models.PublicLink
	err := r.db.First(&link, "link_code = ? AND is_active = ?", code, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) ClaimRedemption(linkID, fileID uuid.UUID) (bool, error) {
	claimed := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PublicLink{}).
			Where("id = ? AND is_active = ? AND (max_downloads IS NULL OR download_count < max_downloads)", linkID, true).
			UpdateColumn("download_count", gorm.Expr("download_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		claimed = true
		return tx.Model(&models.File{}).Where("id = ?", fileID).
			UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).Error
	})
	return claimed, err
}

func (r *linkRepository) Deactivate(id uuid.UUID) error {
	res := r.db.Model(&models.PublicLink{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

// DeactivateExpired flips expired links to inactive. Their rows persist as the
// audit trail; a deactivated link never becomes active again.
func (r *linkRepository) DeactivateExpired(now time.Time) (int64, error) {
	res := r.db.Model(&models.PublicLink{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at < ?", true, now).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}
