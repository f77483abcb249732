package repositories

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/basit/forumfiles-backend/internal/models"
)

var ErrCodeNotFound = errors.New("verification code not found")

type VerificationCodeRepository interface {
	Create(code *models.VerificationCode) error
	// FindValid returns the newest unused, unexpired code for the pair.
	FindValid(email, code string, now time.Time) (*models.VerificationCode, error)
	MarkUsed(id uuid.UUID) error
	// LastIssuedAt returns the creation time of the most recent code for the
	// email, used to enforce the issuance cooldown.
	LastIssuedAt(email string) (*time.Time, error)
	DeleteExpired(now time.Time) (int64, error)
}

type verificationCodeRepository struct {
	db *gorm.DB
}

func NewVerificationCodeRepository(db *gorm.DB) VerificationCodeRepository {
	return &verificationCodeRepository{db: db}
}

func (r *verificationCodeRepository) Create(code *models.VerificationCode) error {
	return r.db.Create(code).Error
}

func (r *verificationCodeRepository) FindValid(email, code string, now time.Time) (*models.VerificationCode, error) {
	var vc models.VerificationCode
	err := r.db.Where("LOWER(email) = LOWER(?) AND code = ? AND expires_at > ? AND is_used = ?",
		email, code, now, false).
		Order("created_at DESC").First(&vc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	return &vc, nil
}

func (r *verificationCodeRepository) MarkUsed(id uuid.UUID) error {
	return r.db.Model(&models.VerificationCode{}).Where("id = ?", id).
		Update("is_used", true).Error
}

func (r *verificationCodeRepository) LastIssuedAt(email string) (*time.Time, error) {
	var vc models.VerificationCode
	err := r.db.Where("LOWER(email) = LOWER(?)", email).
		Order("created_at DESC").First(&vc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vc.CreatedAt, nil
}

func (r *verificationCodeRepository) DeleteExpired(now time.Time) (int64, error) {
	res := r.db.Where("expires_at < ?", now).Delete(&models.VerificationCode{})
	return res.RowsAffected, res.Error
}
