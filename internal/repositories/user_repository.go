package repositories

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/basit/forumfiles-backend/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserStats is the per-user aggregate shown in admin listings.
type UserStats struct {
	FilesCount    int64
	TotalFileSize int64
}

type UserRepository interface {
	Create(user *models.User) error
	FindByID(id uuid.UUID) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	FindByGoogleID(googleID string) (*models.User, error)
	UpdateRole(id uuid.UUID, role models.UserRole) error
	UpdateActive(id uuid.UUID, active bool) error
	Delete(id uuid.UUID) error
	FindAll(limit, offset int, search string) ([]models.User, int64, error)
	FindAdmins() ([]models.User, error)
	StatsFor(id uuid.UUID) (*UserStats, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *userRepository) FindByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail matches case-insensitively: two addresses differing only in case
// refer to the same account.
func (r *userRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "LOWER(email) = LOWER(?)", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByGoogleID(googleID string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "google_id = ?", googleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateRole(id uuid.UUID, role models.UserRole) error {
	res := r.db.Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdateActive(id uuid.UUID, active bool) error {
	res := r.db.Model(&models.User{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) Delete(id uuid.UUID) error {
	res := r.db.Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) FindAll(limit, offset int, search string) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{})
	if search != "" {
		q = q.Where("email LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) FindAdmins() ([]models.User, error) {
	var admins []models.User
	if err := r.db.Where("role = ?", models.RoleAdmin).Order("created_at").Find(&admins).Error; err != nil {
		return nil, err
	}
	return admins, nil
}

// StatsFor counts only live files; soft-deleted rows contribute nothing.
func (r *userRepository) StatsFor(id uuid.UUID) (*UserStats, error) {
	var stats UserStats
	err := r.db.Model(&models.File{}).
		Select("COUNT(*) as files_count, COALESCE(SUM(file_size), 0) as total_file_size").
		Where("user_id = ? AND is_deleted = ?", id, false).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
